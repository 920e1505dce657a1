package service

import (
	"context"
	"testing"

	"github.com/NoahAppelbaum/warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(users *userRepoStub) (*UserService, *uowStub) {
	uow := &uowStub{users: users, messages: &messageRepoStub{}}
	return NewUserService(users, uow, NewAuthService(users, bcrypt.MinCost, nil)), uow
}

func TestFollow_RejectsSelf(t *testing.T) {
	svc, uow := newUserService(noopUserRepo())

	err := svc.Follow(context.Background(), 3, 3)
	assertValidationError(t, err)
	assert.Equal(t, 0, uow.calls)
}

func TestFollow_IsIdempotent(t *testing.T) {
	repo := noopUserRepo()
	following := false
	inserts := 0
	repo.isFollowingFn = func(context.Context, uint, uint) (bool, error) { return following, nil }
	repo.followFn = func(_ context.Context, followerID, followedID uint) error {
		assert.Equal(t, uint(1), followerID)
		assert.Equal(t, uint(2), followedID)
		inserts++
		following = true
		return nil
	}
	svc, uow := newUserService(repo)

	require.NoError(t, svc.Follow(context.Background(), 1, 2))
	require.NoError(t, svc.Follow(context.Background(), 1, 2))
	assert.Equal(t, 1, inserts)
	assert.Equal(t, 2, uow.calls)
}

func TestFollow_UnknownUser(t *testing.T) {
	svc, _ := newUserService(&userRepoStub{})

	err := svc.Follow(context.Background(), 1, 99)
	assertAppError(t, err, models.CodeNotFound)
}

func TestStopFollowing_NotFollowingIsNoop(t *testing.T) {
	repo := noopUserRepo()
	repo.unfollowFn = func(context.Context, uint, uint) error {
		return models.NewNotFoundError("Follow", 2)
	}
	svc, _ := newUserService(repo)

	assert.NoError(t, svc.StopFollowing(context.Background(), 1, 2))
}

func TestIsFollowedBy_SwapsDirection(t *testing.T) {
	repo := noopUserRepo()
	repo.isFollowingFn = func(_ context.Context, followerID, followedID uint) (bool, error) {
		return followerID == 2 && followedID == 1, nil
	}
	svc, _ := newUserService(repo)
	ctx := context.Background()

	followedBy, err := svc.IsFollowedBy(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, followedBy)

	following, err := svc.IsFollowing(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowingAndFollowers_RequireUser(t *testing.T) {
	svc, _ := newUserService(&userRepoStub{})

	_, err := svc.Following(context.Background(), 5)
	assertAppError(t, err, models.CodeNotFound)
	_, err = svc.Followers(context.Background(), 5)
	assertAppError(t, err, models.CodeNotFound)
}

func TestProfile_IncludesStats(t *testing.T) {
	repo := noopUserRepo()
	repo.countsForFn = func(context.Context, uint) (*models.UserStats, error) {
		return &models.UserStats{Messages: 3, Following: 1, Followers: 2, Likes: 4}, nil
	}
	svc, _ := newUserService(repo)

	profile, err := svc.Profile(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, uint(9), profile.User.ID)
	assert.Equal(t, int64(3), profile.Stats.Messages)
	assert.Equal(t, int64(4), profile.Stats.Likes)
}

func TestSearch_UsesLimit(t *testing.T) {
	repo := noopUserRepo()
	repo.searchFn = func(_ context.Context, query string, limit, offset int) ([]models.User, error) {
		assert.Equal(t, "ali", query)
		assert.Equal(t, searchLimit, limit)
		assert.Zero(t, offset)
		return []models.User{{ID: 1, Username: "alice"}}, nil
	}
	svc, _ := newUserService(repo)

	users, err := svc.Search(context.Background(), "ali")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func profileRepo(t *testing.T) *userRepoStub {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	current := &models.User{
		ID:             1,
		Username:       "alice",
		Email:          "alice@example.com",
		ImageURL:       "https://img.example.com/a.png",
		HeaderImageURL: "https://img.example.com/h.png",
		Location:       "Oakland",
	}
	return &userRepoStub{
		getByIDFn: func(context.Context, uint) (*models.User, error) {
			cp := *current
			return &cp, nil
		},
		getByUsernameFn: func(context.Context, string) (*models.User, error) {
			cp := *current
			cp.Password = string(hash)
			return &cp, nil
		},
	}
}

func TestUpdateProfile_AppliesChanges(t *testing.T) {
	repo := profileRepo(t)
	var saved *models.User
	repo.updateFn = func(_ context.Context, u *models.User) error {
		saved = u
		return nil
	}
	svc, _ := newUserService(repo)

	user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID:   1,
		Email:    "new@example.com",
		Location: "Berkeley",
		Bio:      "<b>hello</b> world",
		Password: "password",
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "Berkeley", user.Location)
	assert.Equal(t, "hello world", user.Bio)
	assert.Equal(t, models.DefaultImageURL, user.ImageURL)
	assert.Equal(t, models.DefaultHeaderImageURL, user.HeaderImageURL)
	assert.Empty(t, saved.Password)
}

func TestUpdateProfile_WrongPassword(t *testing.T) {
	repo := profileRepo(t)
	repo.updateFn = func(context.Context, *models.User) error {
		t.Fatal("update must not be reached")
		return nil
	}
	svc, _ := newUserService(repo)

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, Bio: "x", Password: "nope"})
	assertAppError(t, err, models.CodeUnauthorized)
}

func TestUpdateProfile_RejectsLongLocation(t *testing.T) {
	svc, _ := newUserService(profileRepo(t))

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID:   1,
		Location: "this location is far too long to fit",
		Password: "password",
	})
	assertValidationError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	repo := noopUserRepo()
	deleted := uint(0)
	repo.deleteFn = func(_ context.Context, id uint) error {
		deleted = id
		return nil
	}
	svc, _ := newUserService(repo)

	require.NoError(t, svc.DeleteAccount(context.Background(), 4))
	assert.Equal(t, uint(4), deleted)
}
