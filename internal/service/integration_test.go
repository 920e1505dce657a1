package service

import (
	"context"
	"testing"

	"github.com/NoahAppelbaum/warbler/internal/cache"
	"github.com/NoahAppelbaum/warbler/internal/database"
	"github.com/NoahAppelbaum/warbler/internal/models"
	"github.com/NoahAppelbaum/warbler/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type services struct {
	auth     *AuthService
	users    *UserService
	messages *MessageService
}

func setupServices(t *testing.T) *services {
	t.Helper()
	cache.SetClient(nil)

	db, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	users := repository.NewUserRepository(db)
	messages := repository.NewMessageRepository(db)
	uow := repository.NewUnitOfWork(db)
	auth := NewAuthService(users, bcrypt.MinCost, nil)

	return &services{
		auth:     auth,
		users:    NewUserService(users, uow, auth),
		messages: NewMessageService(messages, users, uow),
	}
}

func (s *services) signup(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := s.auth.Signup(context.Background(), SignupInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "password",
	})
	require.NoError(t, err)
	return u
}

func TestIntegration_SocialFlow(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")

	_, err := s.auth.Signup(ctx, SignupInput{Username: "alice", Email: "x@example.com", Password: "password"})
	assertAppError(t, err, models.CodeIntegrity)

	logged, err := s.auth.Authenticate(ctx, "alice", "password")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, logged.ID)

	require.NoError(t, s.users.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, s.users.Follow(ctx, alice.ID, bob.ID))

	msg, err := s.messages.Create(ctx, bob.ID, "hello from bob")
	require.NoError(t, err)
	_, err = s.messages.Create(ctx, alice.ID, "hello from alice")
	require.NoError(t, err)

	liked, err := s.messages.ToggleLike(ctx, alice.ID, msg.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	timeline, err := s.messages.Timeline(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	for _, m := range timeline {
		assert.Equal(t, m.ID == msg.ID, m.Liked, "message %d", m.ID)
	}

	bobTimeline, err := s.messages.Timeline(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobTimeline, 1)

	profile, err := s.users.Profile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.Stats.Following)
	assert.Equal(t, int64(1), profile.Stats.Likes)

	require.NoError(t, s.users.DeleteAccount(ctx, bob.ID))

	timeline, err = s.messages.Timeline(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, timeline, 1)

	profile, err = s.users.Profile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, profile.Stats.Following)
	assert.Zero(t, profile.Stats.Likes)
}

func TestIntegration_DeleteOthersMessageIsNotFound(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")
	msg, err := s.messages.Create(ctx, bob.ID, "mine")
	require.NoError(t, err)

	err = s.messages.Delete(ctx, alice.ID, msg.ID)
	assertAppError(t, err, models.CodeNotFound)

	_, err = s.messages.Get(ctx, msg.ID, 0)
	require.NoError(t, err)

	require.NoError(t, s.messages.Delete(ctx, bob.ID, msg.ID))
	_, err = s.messages.Get(ctx, msg.ID, 0)
	assertAppError(t, err, models.CodeNotFound)
}

func TestIntegration_UpdateProfileKeepsPassword(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	alice := s.signup(t, "alice")
	s.signup(t, "bob")

	_, err := s.users.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Username: "bob", Password: "password"})
	assertAppError(t, err, models.CodeIntegrity)

	updated, err := s.users.UpdateProfile(ctx, UpdateProfileInput{
		UserID: alice.ID, Username: "alicia", Bio: "hi", Password: "password",
	})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)

	_, err = s.auth.Authenticate(ctx, "alicia", "password")
	assert.NoError(t, err)
}
