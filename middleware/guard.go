package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"decorly/db"
	"decorly/globals"
	"decorly/models"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const roleCacheTTL = 5 * time.Minute

var ErrBlocked = errors.New("account is blocked")

// AuthGuard resolves the caller's role from the user record and gates
// role-restricted operations. A Redis cache sits in front of the user
// lookup; the guard works without it when Cache is nil.
type AuthGuard struct {
	Users db.Collection
	Cache *redis.Client
}

func NewAuthGuard(users db.Collection, cache *redis.Client) *AuthGuard {
	return &AuthGuard{Users: users, Cache: cache}
}

// ResolveRole returns the role for a verified principal. Principals with
// no user record get the default role. Blocked accounts resolve to an error.
func (g *AuthGuard) ResolveRole(ctx context.Context, email string) (string, error) {
	if g.Cache != nil {
		if role, err := g.Cache.Get(ctx, roleKey(email)).Result(); err == nil && role != "" {
			return role, nil
		}
	}

	var user models.User
	err := g.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	if user.Blocked {
		return "", ErrBlocked
	}

	if g.Cache != nil {
		if err := g.Cache.Set(ctx, roleKey(email), user.Role, roleCacheTTL).Err(); err != nil {
			log.Printf("AuthGuard: role cache write failed for %s: %v", email, err)
		}
	}
	return user.Role, nil
}

// InvalidateRole drops the cached role after a role change or block.
func (g *AuthGuard) InvalidateRole(ctx context.Context, email string) {
	if g.Cache == nil {
		return
	}
	if err := g.Cache.Del(ctx, roleKey(email)).Err(); err != nil {
		log.Printf("AuthGuard: role cache invalidation failed for %s: %v", email, err)
	}
}

// RequireRole gates a handler on the resolved role. Must run after
// Authenticate so the principal is already in context.
func (g *AuthGuard) RequireRole(role string) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			email, _ := r.Context().Value(globals.EmailKey).(string)
			if email == "" {
				http.Error(w, "Missing token", http.StatusUnauthorized)
				return
			}

			resolved, err := g.ResolveRole(r.Context(), email)
			if err == ErrBlocked {
				http.Error(w, "Account is blocked", http.StatusForbidden)
				return
			}
			if err != nil {
				http.Error(w, "Role lookup failed", http.StatusInternalServerError)
				return
			}
			if resolved != role {
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), globals.RoleKey, resolved)
			next(w, r.WithContext(ctx), ps)
		}
	}
}

func roleKey(email string) string {
	return "role:" + email
}
