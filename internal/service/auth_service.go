// Package service contains Warbler's business rules on top of the repositories.
package service

import (
	"context"
	"errors"

	"github.com/NoahAppelbaum/warbler/internal/featureflags"
	"github.com/NoahAppelbaum/warbler/internal/models"
	"github.com/NoahAppelbaum/warbler/internal/observability"
	"github.com/NoahAppelbaum/warbler/internal/repository"
	"github.com/NoahAppelbaum/warbler/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for unknown users and wrong passwords alike.
var ErrInvalidCredentials = models.NewUnauthorizedError("Invalid credentials")

type AuthService struct {
	users      repository.UserRepository
	bcryptCost int
	flags      *featureflags.Manager
}

type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

// NewAuthService returns an AuthService hashing with bcryptCost.
// flags may be nil.
func NewAuthService(users repository.UserRepository, bcryptCost int, flags *featureflags.Manager) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, bcryptCost: bcryptCost, flags: flags}
}

// SignupOpen reports whether new accounts may be created.
func (s *AuthService) SignupOpen() bool {
	return !s.flags.Enabled(featureflags.SignupClosed, 0)
}

// Signup hashes the password and stores a new user. Username and email uniqueness
// is enforced by the insert itself, so a duplicate surfaces as an integrity error.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if !s.SignupOpen() {
		return nil, models.NewForbiddenError("Signups are currently closed.")
	}
	if in.Username == "" || in.Email == "" {
		return nil, models.NewValidationError("Username and email are required")
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	imageURL := in.ImageURL
	if imageURL == "" {
		imageURL = models.DefaultImageURL
	}

	user := &models.User{
		Username:       in.Username,
		Email:          in.Email,
		Password:       string(hashed),
		ImageURL:       imageURL,
		HeaderImageURL: models.DefaultHeaderImageURL,
	}
	if err := s.users.Create(ctx, user); err != nil {
		observability.RecordAuth("signup", false)
		return nil, err
	}

	observability.RecordAuth("signup", true)
	observability.LogServiceCall(ctx, "auth", "Signup", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// Authenticate returns the user when password matches the stored hash.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if models.IsNotFound(err) {
			observability.RecordAuth("login", false)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		observability.RecordAuth("login", false)
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) {
			return nil, ErrInvalidCredentials
		}
		return nil, models.NewInternalError(err)
	}

	observability.RecordAuth("login", true)
	return user, nil
}
