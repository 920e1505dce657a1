package server

import (
	"fmt"

	"github.com/NoahAppelbaum/warbler/internal/middleware"
	"github.com/NoahAppelbaum/warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// NewMessageForm handles GET /messages/new
func (s *Server) NewMessageForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "messages/new", fiber.Map{
		"Title": "New message",
		"Form":  validation.MessageForm{},
	})
}

// CreateMessage handles POST /messages/new
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	uid, _ := middleware.CurrentUserID(c)

	var form validation.MessageForm
	errs, err := parseForm(c, &form)
	if err != nil {
		return err
	}

	page := fiber.Map{"Title": "New message", "Form": form}
	if errs != nil {
		page["Errors"] = errs
		return s.render(c, fiber.StatusOK, "messages/new", page)
	}

	if _, err := s.messageService.Create(c.UserContext(), uid, form.Text); err != nil {
		fields, ok := formError(err)
		if !ok {
			return err
		}
		page["Errors"] = fields
		return s.render(c, fiber.StatusOK, "messages/new", page)
	}
	return c.Redirect(fmt.Sprintf("/users/%d", uid))
}

// ShowMessage handles GET /messages/:id
func (s *Server) ShowMessage(c *fiber.Ctx) error {
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, _ := middleware.CurrentUserID(c)
	ctx := c.UserContext()

	message, err := s.messageService.Get(ctx, messageID, uid)
	if err != nil {
		return s.handleError(c, err)
	}
	likers, err := s.messageService.UsersWhoLiked(ctx, messageID)
	if err != nil {
		return s.handleError(c, err)
	}
	ids, err := s.followingIDs(ctx, uid)
	if err != nil {
		return s.handleError(c, err)
	}

	return s.render(c, fiber.StatusOK, "messages/show", fiber.Map{
		"Title":        "@" + message.User.Username,
		"Message":      message,
		"Users":        likers,
		"FollowingIDs": ids,
	})
}

// DeleteMessage handles POST /messages/:id/delete
// Only the author may delete; anyone else gets the 404 page.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, _ := middleware.CurrentUserID(c)

	if err := s.messageService.Delete(c.UserContext(), uid, messageID); err != nil {
		return s.handleError(c, err)
	}
	return s.redirectWithFlash(c, fmt.Sprintf("/users/%d", uid), "success", "Message deleted.")
}

// ToggleLike handles POST /messages/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, _ := middleware.CurrentUserID(c)

	if _, err := s.messageService.ToggleLike(c.UserContext(), uid, messageID); err != nil {
		return s.handleError(c, err)
	}
	return c.Redirect(backURL(c, "/"))
}
