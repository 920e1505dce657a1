package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/NoahAppelbaum/warbler/internal/featureflags"
	"github.com/NoahAppelbaum/warbler/internal/middleware"
	"github.com/NoahAppelbaum/warbler/internal/models"
	"github.com/NoahAppelbaum/warbler/internal/service"
	"github.com/NoahAppelbaum/warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// followingIDs returns the set of users uid follows, for follow/unfollow buttons.
func (s *Server) followingIDs(ctx context.Context, uid uint) (map[uint]bool, error) {
	users, err := s.userService.Following(ctx, uid)
	if err != nil {
		return nil, err
	}
	ids := make(map[uint]bool, len(users))
	for _, u := range users {
		ids[u.ID] = true
	}
	return ids, nil
}

// profilePage loads the profile header shared by the user pages.
func (s *Server) profilePage(c *fiber.Ctx, userID, viewerID uint) (fiber.Map, error) {
	ctx := c.UserContext()
	profile, err := s.userService.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.userService.IsFollowing(ctx, viewerID, userID)
	if err != nil {
		return nil, err
	}
	return fiber.Map{
		"Title":       "@" + profile.User.Username,
		"Profile":     profile,
		"IsSelf":      userID == viewerID,
		"IsFollowing": following,
	}, nil
}

// ListUsers handles GET /users
// An optional ?q= filters by username.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	uid, _ := middleware.CurrentUserID(c)
	ctx := c.UserContext()

	query := strings.TrimSpace(c.Query("q"))
	if !s.featureFlags.EnabledDefault(featureflags.UserSearch, uid, true) {
		query = ""
	}

	users, err := s.userService.Search(ctx, query)
	if err != nil {
		return err
	}
	ids, err := s.followingIDs(ctx, uid)
	if err != nil {
		return s.handleError(c, err)
	}

	return s.render(c, fiber.StatusOK, "users/index", fiber.Map{
		"Title":        "Users",
		"Query":        query,
		"Users":        users,
		"FollowingIDs": ids,
	})
}

// ShowUser handles GET /users/:id
func (s *Server) ShowUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, _ := middleware.CurrentUserID(c)

	page, err := s.profilePage(c, userID, uid)
	if err != nil {
		return s.handleError(c, err)
	}
	messages, err := s.messageService.ListByUser(c.UserContext(), userID, uid)
	if err != nil {
		return err
	}
	page["Messages"] = messages
	return s.render(c, fiber.StatusOK, "users/show", page)
}

// ShowFollowing handles GET /users/:id/following
func (s *Server) ShowFollowing(c *fiber.Ctx) error {
	return s.showRelationship(c, "users/following", s.userService.Following)
}

// ShowFollowers handles GET /users/:id/followers
func (s *Server) ShowFollowers(c *fiber.Ctx) error {
	return s.showRelationship(c, "users/followers", s.userService.Followers)
}

func (s *Server) showRelationship(c *fiber.Ctx, view string, list func(context.Context, uint) ([]models.User, error)) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, _ := middleware.CurrentUserID(c)
	ctx := c.UserContext()

	page, err := s.profilePage(c, userID, uid)
	if err != nil {
		return s.handleError(c, err)
	}
	users, err := list(ctx, userID)
	if err != nil {
		return s.handleError(c, err)
	}
	ids, err := s.followingIDs(ctx, uid)
	if err != nil {
		return s.handleError(c, err)
	}

	page["Users"] = users
	page["FollowingIDs"] = ids
	return s.render(c, fiber.StatusOK, view, page)
}

// ShowLikes handles GET /users/:id/likes
func (s *Server) ShowLikes(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, _ := middleware.CurrentUserID(c)

	page, err := s.profilePage(c, userID, uid)
	if err != nil {
		return s.handleError(c, err)
	}
	messages, err := s.messageService.LikedMessages(c.UserContext(), userID, uid)
	if err != nil {
		return s.handleError(c, err)
	}
	page["Messages"] = messages
	return s.render(c, fiber.StatusOK, "users/likes", page)
}

// Follow handles POST /users/follow/:id
func (s *Server) Follow(c *fiber.Ctx) error {
	followedID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, _ := middleware.CurrentUserID(c)

	if err := s.userService.Follow(c.UserContext(), uid, followedID); err != nil {
		return s.handleError(c, err)
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", uid))
}

// StopFollowing handles POST /users/stop-following/:id
func (s *Server) StopFollowing(c *fiber.Ctx) error {
	followedID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, _ := middleware.CurrentUserID(c)

	if err := s.userService.StopFollowing(c.UserContext(), uid, followedID); err != nil {
		return s.handleError(c, err)
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", uid))
}

// EditProfileForm handles GET /users/profile
func (s *Server) EditProfileForm(c *fiber.Ctx) error {
	user := currentUser(c)
	return s.render(c, fiber.StatusOK, "users/edit", fiber.Map{
		"Title": "Edit profile",
		"Form": validation.ProfileForm{
			Username:       user.Username,
			Email:          user.Email,
			ImageURL:       user.ImageURL,
			HeaderImageURL: user.HeaderImageURL,
			Location:       user.Location,
			Bio:            user.Bio,
		},
	})
}

// EditProfile handles POST /users/profile
// The current password must be supplied to confirm the change.
func (s *Server) EditProfile(c *fiber.Ctx) error {
	uid, _ := middleware.CurrentUserID(c)

	var form validation.ProfileForm
	errs, err := parseForm(c, &form)
	if err != nil {
		return err
	}
	password := form.Password
	form.Password = ""

	page := fiber.Map{"Title": "Edit profile", "Form": form}
	if errs != nil {
		page["Errors"] = errs
		return s.render(c, fiber.StatusOK, "users/edit", page)
	}

	_, err = s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:         uid,
		Username:       form.Username,
		Email:          form.Email,
		ImageURL:       form.ImageURL,
		HeaderImageURL: form.HeaderImageURL,
		Location:       form.Location,
		Bio:            form.Bio,
		Password:       password,
	})
	if err != nil {
		fields, ok := formError(err)
		if !ok {
			return s.handleError(c, err)
		}
		page["Errors"] = fields
		return s.render(c, fiber.StatusOK, "users/edit", page)
	}

	return s.redirectWithFlash(c, fmt.Sprintf("/users/%d", uid), "success", "Profile updated.")
}

// DeleteUser handles POST /users/delete
// The account goes with its messages, follows and likes; the session is logged out.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	uid, _ := middleware.CurrentUserID(c)

	if err := s.userService.DeleteAccount(c.UserContext(), uid); err != nil {
		return s.handleError(c, err)
	}
	if err := s.logout(c, "Your account has been deleted."); err != nil {
		return err
	}
	return c.Redirect("/signup")
}
