package seed

import (
	"context"
	"fmt"
	"log"

	"github.com/NoahAppelbaum/warbler/internal/cache"
	"github.com/NoahAppelbaum/warbler/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	MessagesPerUser int
	FollowsPerUser  int
	LikesPerUser    int
	ShouldClean     bool
	Factory         FactoryOptions
}

// Summary reports what a seeding run created.
type Summary struct {
	Users    int
	Messages int
	Follows  int
	Likes    int
}

// Seed populates the database with users, messages, follows and likes.
func Seed(db *gorm.DB, opts Options) (*Summary, error) {
	log.Printf("Starting database seeding with %d users...", opts.NumUsers)

	if opts.ShouldClean && !opts.Factory.DryRun {
		if err := ClearAll(db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f, err := NewFactory(db, opts.Factory)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, u)
	}

	messages := make([]*models.Message, 0, len(users)*opts.MessagesPerUser)
	for _, u := range users {
		for i := 0; i < opts.MessagesPerUser; i++ {
			messages = append(messages, f.BuildMessage(u))
		}
	}
	if err := f.CreateMessagesBatch(messages); err != nil {
		return nil, fmt.Errorf("failed to create messages: %w", err)
	}

	follows := pickFollows(users, opts.FollowsPerUser)
	if err := f.CreateFollowsBatch(follows); err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}

	likes := pickLikes(users, messages, opts.LikesPerUser)
	if err := f.CreateLikesBatch(likes); err != nil {
		return nil, fmt.Errorf("failed to create likes: %w", err)
	}

	summary := &Summary{Users: len(users), Messages: len(messages), Follows: len(follows), Likes: len(likes)}
	log.Printf("Seeding complete: %+v", *summary)
	return summary, nil
}

// ClearAll removes every user, message, follow and like, and drops cached users.
func ClearAll(db *gorm.DB) error {
	tx := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{&models.Like{}, &models.Follow{}, &models.Message{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	if err := cache.InvalidateFamily(context.Background(), cache.UserKeyFamily); err != nil {
		return fmt.Errorf("flush cached users: %w", err)
	}
	return nil
}

// pickFollows gives every user up to n distinct accounts to follow, never themselves.
func pickFollows(users []*models.User, n int) []*models.Follow {
	var out []*models.Follow
	for i, u := range users {
		for _, j := range shuffledIndexes(len(users), i, n) {
			out = append(out, &models.Follow{
				UserFollowingID:     u.ID,
				UserBeingFollowedID: users[j].ID,
			})
		}
	}
	return out
}

// pickLikes gives every user up to n distinct liked messages written by others.
func pickLikes(users []*models.User, messages []*models.Message, n int) []*models.Like {
	var out []*models.Like
	for _, u := range users {
		candidates := make([]*models.Message, 0, len(messages))
		for _, m := range messages {
			if m.UserID != u.ID {
				candidates = append(candidates, m)
			}
		}
		for _, j := range shuffledIndexes(len(candidates), -1, n) {
			out = append(out, &models.Like{UserID: u.ID, MessageID: candidates[j].ID})
		}
	}
	return out
}

// shuffledIndexes returns up to n random indexes below size, skipping skip.
func shuffledIndexes(size, skip, n int) []int {
	idx := make([]int, 0, size)
	for i := 0; i < size; i++ {
		if i != skip {
			idx = append(idx, i)
		}
	}
	gofakeit.ShuffleInts(idx)
	if n < len(idx) {
		idx = idx[:n]
	}
	return idx
}
