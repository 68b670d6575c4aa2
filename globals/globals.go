package globals

import (
	"context"
	"os"
)

var JwtSecret = []byte(secretFromEnv())

// Init re-resolves environment-derived values. Package initialization runs
// before main loads the .env file, so main calls this right after godotenv.
func Init() {
	JwtSecret = []byte(secretFromEnv())
}

func secretFromEnv() string {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return s
	}
	return "dev_only_secret_key"
}

// Context keys
type ContextKey string

const EmailKey ContextKey = "email"
const UsernameKey ContextKey = "username"
const RoleKey ContextKey = "role"

var Ctx = context.Background()
