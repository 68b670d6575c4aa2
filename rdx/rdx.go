package rdx

import (
	"decorly/globals"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

// Init connects the shared Redis client. The caller decides whether a
// failure is fatal; everything built on Redis here degrades when absent.
func Init(addr string) error {
	Conn = redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := Conn.Ping(globals.Ctx).Err(); err != nil {
		Conn = nil
		return err
	}
	return nil
}
