package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/EduPay/internal/pkg/env"
)

// sessionDB keeps sessions apart from the cache, which uses DB 0.
const sessionDB = 1

// NewSessionStore creates the session store. Sessions live in redis next to
// the cache client when one is given, in memory otherwise.
func NewSessionStore(client *goredis.Client) *session.Store {
	var storage fiber.Storage
	if client != nil {
		storage = RedisStorage(client)
	}
	return New(storage)
}

// New builds a session store on storage; nil storage keeps sessions in memory.
func New(storage fiber.Storage) *session.Store {
	return session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		CookieSameSite: "Lax",
		Expiration:     env.GetEnvDuration("SESSION_TTL", 24*time.Hour),
		KeyLookup:      "cookie:edupay_session",
	})
}

// RedisStorage reuses the address and credentials of the cache client.
func RedisStorage(client *goredis.Client) fiber.Storage {
	opts := client.Options()
	host := "localhost"
	port := 6379
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: opts.Password,
		Database: sessionDB,
		Reset:    false,
	})
}

// SetSessionValues stores the pairs in the request's session
func SetSessionValues(store *session.Store, c *fiber.Ctx, values map[string]interface{}) error {
	if store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	// A new id on sign-in prevents session fixation.
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	for k, v := range values {
		sess.Set(k, v)
	}
	return sess.Save()
}

// GetSessionValue retrieves a string value from the request's session
func GetSessionValue(store *session.Store, c *fiber.Ctx, key string) string {
	if store == nil {
		return ""
	}
	sess, err := store.Get(c)
	if err != nil {
		return ""
	}
	if v, ok := sess.Get(key).(string); ok {
		return v
	}
	return ""
}

// Destroy ends the request's session
func Destroy(store *session.Store, c *fiber.Ctx) error {
	if store == nil {
		return nil
	}
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}
