package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// SessionUserKey is the session key holding the logged-in user's id.
const SessionUserKey = "curr_user"

// LoadSessionUser copies the logged-in user's id from the session into
// c.Locals("userID") and the request context. Anonymous requests pass through.
func LoadSessionUser(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "failed to load session", "error", err)
			return c.Next()
		}

		if uid, ok := sessionUserID(sess.Get(SessionUserKey)); ok {
			c.Locals("userID", uid)
			c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, uid))
		}
		return c.Next()
	}
}

// AuthRequired runs onUnauthorized instead of the route when no user is logged in.
func AuthRequired(onUnauthorized fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals("userID").(uint); !ok {
			return onUnauthorized(c)
		}
		return c.Next()
	}
}

// CurrentUserID returns the logged-in user's id, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	uid, ok := c.Locals("userID").(uint)
	return uid, ok
}

func sessionUserID(v interface{}) (uint, bool) {
	switch id := v.(type) {
	case uint:
		return id, id != 0
	case int:
		return uint(id), id > 0
	case int64:
		return uint(id), id > 0
	default:
		return 0, false
	}
}
