package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/NoahAppelbaum/warbler/internal/featureflags"
	"github.com/NoahAppelbaum/warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSignup_HashesPasswordAndDefaultsImage(t *testing.T) {
	var stored *models.User
	repo := &userRepoStub{createFn: func(_ context.Context, u *models.User) error {
		u.ID = 7
		stored = u
		return nil
	}}
	svc := NewAuthService(repo, bcrypt.MinCost, nil)

	user, err := svc.Signup(context.Background(), SignupInput{
		Username: "testuser",
		Email:    "test@test.com",
		Password: "password",
	})
	require.NoError(t, err)
	require.Same(t, stored, user)

	assert.Equal(t, uint(7), user.ID)
	assert.Equal(t, models.DefaultImageURL, user.ImageURL)
	assert.Equal(t, models.DefaultHeaderImageURL, user.HeaderImageURL)
	assert.NotEqual(t, "password", user.Password)
	assert.True(t, strings.HasPrefix(user.Password, "$2"), "bcrypt hash expected, got %q", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password")))
}

func TestSignup_KeepsGivenImage(t *testing.T) {
	svc := NewAuthService(&userRepoStub{}, bcrypt.MinCost, nil)

	user, err := svc.Signup(context.Background(), SignupInput{
		Username: "u", Email: "u@test.com", Password: "password", ImageURL: "https://img.example.com/u.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/u.png", user.ImageURL)
}

func TestSignup_RejectsBadInput(t *testing.T) {
	svc := NewAuthService(&userRepoStub{createFn: func(context.Context, *models.User) error {
		t.Fatal("create must not be reached")
		return nil
	}}, bcrypt.MinCost, nil)

	cases := []SignupInput{
		{Username: "u", Email: "u@test.com", Password: ""},
		{Username: "u", Email: "u@test.com", Password: "short"},
		{Username: "", Email: "u@test.com", Password: "password"},
		{Username: "u", Email: "", Password: "password"},
	}
	for _, in := range cases {
		_, err := svc.Signup(context.Background(), in)
		assertValidationError(t, err)
	}
}

func TestSignup_SurfacesDuplicateAsIntegrityError(t *testing.T) {
	repo := &userRepoStub{createFn: func(context.Context, *models.User) error {
		return models.NewIntegrityError("Username or email already taken", errors.New("duplicate key"))
	}}
	svc := NewAuthService(repo, bcrypt.MinCost, nil)

	_, err := svc.Signup(context.Background(), SignupInput{Username: "u", Email: "u@test.com", Password: "password"})
	assertAppError(t, err, models.CodeIntegrity)
}

func TestSignup_ClosedByFeatureFlag(t *testing.T) {
	svc := NewAuthService(&userRepoStub{}, bcrypt.MinCost, featureflags.NewManager("signup_closed=on"))

	assert.False(t, svc.SignupOpen())
	_, err := svc.Signup(context.Background(), SignupInput{Username: "u", Email: "u@test.com", Password: "password"})
	assertAppError(t, err, models.CodeForbidden)
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &userRepoStub{getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
		if username != "testuser" {
			return nil, models.NewNotFoundError("User", username)
		}
		return &models.User{ID: 1, Username: "testuser", Password: string(hash)}, nil
	}}
	svc := NewAuthService(repo, bcrypt.MinCost, nil)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "testuser", "password")
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)

	_, err = svc.Authenticate(ctx, "testuser", "wrong")
	assertAppError(t, err, models.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "nobody", "password")
	assertAppError(t, err, models.CodeUnauthorized)
}

func TestAuthenticate_PropagatesRepositoryFailure(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &userRepoStub{getByUsernameFn: func(context.Context, string) (*models.User, error) {
		return nil, boom
	}}
	svc := NewAuthService(repo, bcrypt.MinCost, nil)

	_, err := svc.Authenticate(context.Background(), "testuser", "password")
	assert.ErrorIs(t, err, boom)
}
