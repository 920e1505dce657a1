package service

import (
	"context"
	"unicode/utf8"

	"github.com/NoahAppelbaum/warbler/internal/models"
	"github.com/NoahAppelbaum/warbler/internal/observability"
	"github.com/NoahAppelbaum/warbler/internal/repository"
	"github.com/NoahAppelbaum/warbler/internal/validation"
)

const searchLimit = 100

type UserService struct {
	users repository.UserRepository
	uow   repository.UnitOfWork
	auth  *AuthService
}

// Profile is a user with their relationship counters.
type Profile struct {
	User  *models.User
	Stats *models.UserStats
}

type UpdateProfileInput struct {
	UserID         uint
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Location       string
	Bio            string
	// Password is the current password, required to confirm the edit.
	Password string
}

func NewUserService(users repository.UserRepository, uow repository.UnitOfWork, auth *AuthService) *UserService {
	return &UserService{users: users, uow: uow, auth: auth}
}

// IsFollowing reports whether userID follows otherID.
func (s *UserService) IsFollowing(ctx context.Context, userID, otherID uint) (bool, error) {
	return s.users.IsFollowing(ctx, userID, otherID)
}

// IsFollowedBy reports whether otherID follows userID.
func (s *UserService) IsFollowedBy(ctx context.Context, userID, otherID uint) (bool, error) {
	return s.users.IsFollowing(ctx, otherID, userID)
}

// Follow makes followerID follow followedID. Following twice is a no-op.
func (s *UserService) Follow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return models.NewValidationError("You cannot follow yourself.")
	}

	return s.uow.Do(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Users.GetByID(ctx, followedID); err != nil {
			return err
		}
		already, err := repos.Users.IsFollowing(ctx, followerID, followedID)
		if err != nil || already {
			return err
		}
		if err := repos.Users.Follow(ctx, followerID, followedID); err != nil {
			return err
		}
		observability.RecordSocialEvent("follow")
		return nil
	})
}

// StopFollowing removes the follow edge. Not following is a no-op.
func (s *UserService) StopFollowing(ctx context.Context, followerID, followedID uint) error {
	return s.uow.Do(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Users.GetByID(ctx, followedID); err != nil {
			return err
		}
		err := repos.Users.Unfollow(ctx, followerID, followedID)
		if models.IsNotFound(err) {
			return nil
		}
		if err == nil {
			observability.RecordSocialEvent("unfollow")
		}
		return err
	})
}

// Following lists the users userID follows.
func (s *UserService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.users.Following(ctx, userID)
}

// Followers lists the users who follow userID.
func (s *UserService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.users.Followers(ctx, userID)
}

// Profile loads a user and their counters.
func (s *UserService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.users.CountsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Stats: stats}, nil
}

// Search lists users whose username contains query.
func (s *UserService) Search(ctx context.Context, query string) ([]models.User, error) {
	return s.users.Search(ctx, query, searchLimit, 0)
}

// UpdateProfile applies a profile edit after checking the current password.
// Empty username or email keep the current value; empty image fields reset to the
// defaults. A taken username or email surfaces as an integrity error.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	current, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.auth.Authenticate(ctx, current.Username, in.Password); err != nil {
		return nil, err
	}

	updated := *current
	if in.Username != "" {
		updated.Username = in.Username
	}
	if in.Email != "" {
		updated.Email = in.Email
	}
	updated.ImageURL = in.ImageURL
	if updated.ImageURL == "" {
		updated.ImageURL = models.DefaultImageURL
	}
	updated.HeaderImageURL = in.HeaderImageURL
	if updated.HeaderImageURL == "" {
		updated.HeaderImageURL = models.DefaultHeaderImageURL
	}
	updated.Location = validation.SanitizeText(in.Location)
	updated.Bio = validation.SanitizeText(in.Bio)

	switch {
	case utf8.RuneCountInString(updated.Username) > 30:
		return nil, models.NewValidationError("Username cannot be longer than 30 characters.")
	case utf8.RuneCountInString(updated.Email) > 50:
		return nil, models.NewValidationError("Email cannot be longer than 50 characters.")
	case utf8.RuneCountInString(updated.Location) > 30:
		return nil, models.NewValidationError("Location cannot be longer than 30 characters.")
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAccount removes the user along with their messages, follows and likes.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	observability.LogServiceCall(ctx, "user", "DeleteAccount", map[string]interface{}{"user_id": userID})
	return nil
}
