package service

import (
	"context"
	"errors"
	"testing"

	"github.com/NoahAppelbaum/warbler/internal/models"
	"github.com/NoahAppelbaum/warbler/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	getByIDFn       func(ctx context.Context, id uint) (*models.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*models.User, error)
	createFn        func(ctx context.Context, user *models.User) error
	updateFn        func(ctx context.Context, user *models.User) error
	deleteFn        func(ctx context.Context, id uint) error
	searchFn        func(ctx context.Context, query string, limit, offset int) ([]models.User, error)
	followFn        func(ctx context.Context, followerID, followedID uint) error
	unfollowFn      func(ctx context.Context, followerID, followedID uint) error
	isFollowingFn   func(ctx context.Context, followerID, followedID uint) (bool, error)
	followingFn     func(ctx context.Context, userID uint) ([]models.User, error)
	followersFn     func(ctx context.Context, userID uint) ([]models.User, error)
	countsForFn     func(ctx context.Context, userID uint) (*models.UserStats, error)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user"}, nil
		},
	}
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if s.getByIDFn == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return s.getByIDFn(ctx, id)
}

func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.getByUsernameFn == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return s.getByUsernameFn(ctx, username)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, user)
}

func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, user)
}

func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, id)
}

func (s *userRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	if s.searchFn == nil {
		return nil, nil
	}
	return s.searchFn(ctx, query, limit, offset)
}

func (s *userRepoStub) Follow(ctx context.Context, followerID, followedID uint) error {
	if s.followFn == nil {
		return nil
	}
	return s.followFn(ctx, followerID, followedID)
}

func (s *userRepoStub) Unfollow(ctx context.Context, followerID, followedID uint) error {
	if s.unfollowFn == nil {
		return nil
	}
	return s.unfollowFn(ctx, followerID, followedID)
}

func (s *userRepoStub) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	if s.isFollowingFn == nil {
		return false, nil
	}
	return s.isFollowingFn(ctx, followerID, followedID)
}

func (s *userRepoStub) Following(ctx context.Context, userID uint) ([]models.User, error) {
	if s.followingFn == nil {
		return nil, nil
	}
	return s.followingFn(ctx, userID)
}

func (s *userRepoStub) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	if s.followersFn == nil {
		return nil, nil
	}
	return s.followersFn(ctx, userID)
}

func (s *userRepoStub) CountsFor(ctx context.Context, userID uint) (*models.UserStats, error) {
	if s.countsForFn == nil {
		return &models.UserStats{}, nil
	}
	return s.countsForFn(ctx, userID)
}

type messageRepoStub struct {
	createFn          func(ctx context.Context, message *models.Message) error
	getByIDFn         func(ctx context.Context, id uint) (*models.Message, error)
	deleteFn          func(ctx context.Context, id uint) error
	listByUserFn      func(ctx context.Context, userID uint, limit int) ([]models.Message, error)
	timelineFn        func(ctx context.Context, userID uint, limit int) ([]models.Message, error)
	likeFn            func(ctx context.Context, userID, messageID uint) error
	unlikeFn          func(ctx context.Context, userID, messageID uint) error
	isLikedFn         func(ctx context.Context, userID, messageID uint) (bool, error)
	likedMessagesFn   func(ctx context.Context, userID uint) ([]models.Message, error)
	usersWhoLikedFn   func(ctx context.Context, messageID uint) ([]models.User, error)
	likedMessageIDsFn func(ctx context.Context, userID uint, messageIDs []uint) ([]uint, error)
}

func (s *messageRepoStub) Create(ctx context.Context, message *models.Message) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, message)
}

func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	if s.getByIDFn == nil {
		return nil, models.NewNotFoundError("Message", id)
	}
	return s.getByIDFn(ctx, id)
}

func (s *messageRepoStub) Delete(ctx context.Context, id uint) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, id)
}

func (s *messageRepoStub) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit)
}

func (s *messageRepoStub) Timeline(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	if s.timelineFn == nil {
		return nil, nil
	}
	return s.timelineFn(ctx, userID, limit)
}

func (s *messageRepoStub) Like(ctx context.Context, userID, messageID uint) error {
	if s.likeFn == nil {
		return nil
	}
	return s.likeFn(ctx, userID, messageID)
}

func (s *messageRepoStub) Unlike(ctx context.Context, userID, messageID uint) error {
	if s.unlikeFn == nil {
		return nil
	}
	return s.unlikeFn(ctx, userID, messageID)
}

func (s *messageRepoStub) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	if s.isLikedFn == nil {
		return false, nil
	}
	return s.isLikedFn(ctx, userID, messageID)
}

func (s *messageRepoStub) LikedMessages(ctx context.Context, userID uint) ([]models.Message, error) {
	if s.likedMessagesFn == nil {
		return nil, nil
	}
	return s.likedMessagesFn(ctx, userID)
}

func (s *messageRepoStub) UsersWhoLiked(ctx context.Context, messageID uint) ([]models.User, error) {
	if s.usersWhoLikedFn == nil {
		return nil, nil
	}
	return s.usersWhoLikedFn(ctx, messageID)
}

func (s *messageRepoStub) LikedMessageIDs(ctx context.Context, userID uint, messageIDs []uint) ([]uint, error) {
	if s.likedMessageIDsFn == nil {
		return nil, nil
	}
	return s.likedMessageIDsFn(ctx, userID, messageIDs)
}

// uowStub runs fn directly against the stub repositories and counts calls.
type uowStub struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	calls    int
}

func (u *uowStub) Do(_ context.Context, fn func(repos repository.Repositories) error) error {
	u.calls++
	return fn(repository.Repositories{Users: u.users, Messages: u.messages})
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}
