package server

import (
	"github.com/NoahAppelbaum/warbler/internal/middleware"
	"github.com/NoahAppelbaum/warbler/internal/service"
	"github.com/NoahAppelbaum/warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Homepage handles GET /
// Anonymous visitors get the landing page, users their timeline.
func (s *Server) Homepage(c *fiber.Ctx) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return s.render(c, fiber.StatusOK, "home-anon", fiber.Map{
			"SignupOpen": s.authService.SignupOpen(),
		})
	}

	ctx := c.UserContext()
	profile, err := s.userService.Profile(ctx, uid)
	if err != nil {
		return s.handleError(c, err)
	}
	messages, err := s.messageService.Timeline(ctx, uid)
	if err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, "home", fiber.Map{
		"Profile":     profile,
		"Messages":    messages,
		"HideActions": true,
	})
}

// SignupForm handles GET /signup
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "signup", fiber.Map{
		"Title": "Sign up",
		"Form":  validation.SignupForm{},
	})
}

// Signup handles POST /signup
// Success logs the new user in; bad input or a taken username re-renders the form.
func (s *Server) Signup(c *fiber.Ctx) error {
	var form validation.SignupForm
	errs, err := parseForm(c, &form)
	if err != nil {
		return err
	}
	password := form.Password
	form.Password = ""

	page := fiber.Map{"Title": "Sign up", "Form": form}
	if errs != nil {
		page["Errors"] = errs
		return s.render(c, fiber.StatusOK, "signup", page)
	}

	user, err := s.authService.Signup(c.UserContext(), service.SignupInput{
		Username: form.Username,
		Email:    form.Email,
		Password: password,
		ImageURL: form.ImageURL,
	})
	if err != nil {
		fields, ok := formError(err)
		if !ok {
			return err
		}
		page["Errors"] = fields
		return s.render(c, fiber.StatusOK, "signup", page)
	}

	if err := s.login(c, user, "Welcome to Warbler, "+user.Username+"!"); err != nil {
		return err
	}
	return c.Redirect("/")
}

// LoginForm handles GET /login
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "login", fiber.Map{
		"Title": "Log in",
		"Form":  validation.LoginForm{},
	})
}

// Login handles POST /login
func (s *Server) Login(c *fiber.Ctx) error {
	var form validation.LoginForm
	errs, err := parseForm(c, &form)
	if err != nil {
		return err
	}
	password := form.Password
	form.Password = ""

	page := fiber.Map{"Title": "Log in", "Form": form}
	if errs != nil {
		page["Errors"] = errs
		return s.render(c, fiber.StatusOK, "login", page)
	}

	user, err := s.authService.Authenticate(c.UserContext(), form.Username, password)
	if err != nil {
		fields, ok := formError(err)
		if !ok {
			return err
		}
		page["Errors"] = fields
		return s.render(c, fiber.StatusOK, "login", page)
	}

	if err := s.login(c, user, "Hello, "+user.Username+"!"); err != nil {
		return err
	}
	return c.Redirect("/")
}

// Logout handles POST /logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.logout(c, "You have successfully logged out."); err != nil {
		return err
	}
	return c.Redirect("/login")
}
