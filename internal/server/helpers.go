package server

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/NoahAppelbaum/warbler/internal/featureflags"
	"github.com/NoahAppelbaum/warbler/internal/middleware"
	"github.com/NoahAppelbaum/warbler/internal/models"
	"github.com/NoahAppelbaum/warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	layout         = "layouts/main"
	flashKey       = "_flash"
	csrfContextKey = "csrf"
	currentUserKey = "currentUser"
	formErrorKey   = "_form"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Flash is a one-time notice shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func formatDate(t time.Time) string {
	return t.Format("02 January 2006")
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it renders the 404 page and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = s.notFound(c)
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// loadCurrentUser resolves the session user into c.Locals("currentUser").
// A session pointing at a deleted account is treated as anonymous.
func (s *Server) loadCurrentUser(c *fiber.Ctx) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Next()
	}

	user, err := s.userRepo.GetByID(c.UserContext(), uid)
	switch {
	case err == nil:
		c.Locals(currentUserKey, user)
	case models.IsNotFound(err):
		c.Locals("userID", nil)
	default:
		return err
	}
	return c.Next()
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}

// updateSession loads the session once, applies fn and saves it. A Fiber session
// must not be used after Save, so every change of one request goes through here.
func (s *Server) updateSession(c *fiber.Ctx, fn func(sess *session.Session) error) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	return sess.Save()
}

func pushFlash(sess *session.Session, category, message string) {
	flashes, _ := sess.Get(flashKey).([]string)
	sess.Set(flashKey, append(flashes, category+"|"+message))
}

func (s *Server) flash(c *fiber.Ctx, category, message string) error {
	return s.updateSession(c, func(sess *session.Session) error {
		pushFlash(sess, category, message)
		return nil
	})
}

// popFlashes returns the pending flash messages and clears them.
func (s *Server) popFlashes(c *fiber.Ctx) []Flash {
	sess, err := s.sessions.Get(c)
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to load session", "error", err)
		return nil
	}

	raw, _ := sess.Get(flashKey).([]string)
	if len(raw) == 0 {
		return nil
	}
	sess.Delete(flashKey)
	if err := sess.Save(); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to clear flashes", "error", err)
	}

	out := make([]Flash, 0, len(raw))
	for _, f := range raw {
		category, message, _ := strings.Cut(f, "|")
		out = append(out, Flash{Category: category, Message: message})
	}
	return out
}

// login starts an authenticated session for user under a fresh session id.
func (s *Server) login(c *fiber.Ctx, user *models.User, greeting string) error {
	return s.updateSession(c, func(sess *session.Session) error {
		if err := sess.Regenerate(); err != nil {
			return err
		}
		sess.Set(middleware.SessionUserKey, user.ID)
		pushFlash(sess, "success", greeting)
		return nil
	})
}

// logout removes the logged-in user from the session.
func (s *Server) logout(c *fiber.Ctx, notice string) error {
	return s.updateSession(c, func(sess *session.Session) error {
		sess.Delete(middleware.SessionUserKey)
		pushFlash(sess, "success", notice)
		return nil
	})
}

// render executes view inside the main layout. Every page gets the current user,
// pending flashes, the CSRF token and feature switches.
func (s *Server) render(c *fiber.Ctx, status int, view string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	user := currentUser(c)
	var uid uint
	if user != nil {
		uid = user.ID
	}

	data["CurrentUser"] = user
	data["Flashes"] = s.popFlashes(c)
	data["SearchEnabled"] = s.featureFlags.EnabledDefault(featureflags.UserSearch, uid, true)
	if token, ok := c.Locals(csrfContextKey).(string); ok {
		data["CSRFToken"] = token
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = validation.FieldErrors{}
	}
	return c.Status(status).Render(view, data)
}

func (s *Server) redirectWithFlash(c *fiber.Ctx, to, category, message string) error {
	if err := s.flash(c, category, message); err != nil {
		return err
	}
	return c.Redirect(to)
}

// unauthorized turns anonymous visitors of protected pages back to the homepage.
func (s *Server) unauthorized(c *fiber.Ctx) error {
	return s.redirectWithFlash(c, "/", "danger", "Access unauthorized.")
}

func (s *Server) notFound(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusNotFound, "404", fiber.Map{"Title": "Not found"})
}

// handleError maps service errors onto pages: missing records render the 404 page,
// authorization failures redirect home and rejected input goes back to the referring
// page with a flash. Anything else reaches the error handler.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return err
	}

	switch appErr.Code {
	case models.CodeNotFound:
		return s.notFound(c)
	case models.CodeUnauthorized, models.CodeForbidden:
		return s.redirectWithFlash(c, "/", "danger", appErr.Message)
	case models.CodeValidation, models.CodeIntegrity:
		return s.redirectWithFlash(c, backURL(c, "/"), "danger", appErr.Message)
	}
	return err
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound {
			return s.notFound(c)
		}
		if fe.Code < fiber.StatusInternalServerError {
			return c.Status(fe.Code).SendString(fe.Message)
		}
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		"error", err, "method", c.Method(), "path", c.Path())
	if rerr := c.Status(fiber.StatusInternalServerError).Render("500", fiber.Map{
		"Title":       "Error",
		"CurrentUser": currentUser(c),
	}); rerr != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
	return nil
}

// backURL returns the same-site Referer path, or fallback.
func backURL(c *fiber.Ctx, fallback string) string {
	ref := c.Get(fiber.HeaderReferer)
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Hostname()) || !strings.HasPrefix(u.Path, "/") {
		return fallback
	}
	return u.RequestURI()
}

// parseForm binds and validates a form body. Field problems come back as
// FieldErrors; a malformed body is an error.
func parseForm(c *fiber.Ctx, form interface{}) (validation.FieldErrors, error) {
	if err := c.BodyParser(form); err != nil {
		return nil, fiber.ErrBadRequest
	}
	validation.TrimFields(form)

	err := validation.Validate(form)
	if err == nil {
		return nil, nil
	}
	var fields validation.FieldErrors
	if errors.As(err, &fields) {
		return fields, nil
	}
	return nil, err
}

// formError converts a service error into a form-level message, or returns
// ok=false when it is not something the user can fix.
func formError(err error) (validation.FieldErrors, bool) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return nil, false
	}
	switch appErr.Code {
	case models.CodeValidation, models.CodeIntegrity, models.CodeUnauthorized, models.CodeForbidden:
		return validation.FieldErrors{formErrorKey: appErr.Message}, true
	}
	return nil, false
}
