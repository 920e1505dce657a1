// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/NoahAppelbaum/warbler/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password"

// FactoryOptions tune how entities are generated.
type FactoryOptions struct {
	// DryRun assigns synthetic ids instead of writing to the database.
	DryRun bool
	// MaxDays spreads message timestamps over the last MaxDays days.
	MaxDays int
	// BcryptCost for the shared password hash; 0 means bcrypt.MinCost.
	BcryptCost int
	// Seed makes generation deterministic when non-zero.
	Seed int64
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts FactoryOptions
	hash string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts FactoryOptions) (*Factory, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Factory{db: db, opts: opts, hash: string(hashed), nextID: 1000}, nil
}

// BuildUser constructs a sample user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	username := truncate(strings.ToLower(gofakeit.Username())+fmt.Sprintf("%d", gofakeit.Number(100, 999)), 30)
	user := &models.User{
		Username:       username,
		Email:          truncate(username, 38) + "@example.com",
		Password:       f.hash,
		ImageURL:       fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		HeaderImageURL: models.DefaultHeaderImageURL,
		Location:       truncate(gofakeit.City(), 30),
		Bio:            gofakeit.Sentence(gofakeit.Number(6, 16)),
	}

	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}

	if err := f.db.Omit(clause.Associations).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildMessage constructs a message by user with a timestamp in the last MaxDays.
func (f *Factory) BuildMessage(user *models.User, overrides ...func(*models.Message)) *models.Message {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	age := time.Duration(gofakeit.Number(0, maxDays*24*60)) * time.Minute

	msg := &models.Message{
		Text:      truncate(gofakeit.HipsterSentence(gofakeit.Number(4, 18)), models.MaxMessageLength),
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-age),
	}
	for _, override := range overrides {
		override(msg)
	}
	return msg
}

// CreateMessagesBatch persists multiple messages in a single DB call when possible.
func (f *Factory) CreateMessagesBatch(messages []*models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, m := range messages {
			f.nextID++
			m.ID = f.nextID
		}
		log.Printf("[dry-run] CreateMessagesBatch: %d messages (no DB write)", len(messages))
		return nil
	}
	return f.db.Omit(clause.Associations).CreateInBatches(messages, 200).Error
}

// CreateFollowsBatch persists follow edges.
func (f *Factory) CreateFollowsBatch(follows []*models.Follow) error {
	if len(follows) == 0 || f.opts.DryRun {
		return nil
	}
	return f.db.Omit(clause.Associations).CreateInBatches(follows, 200).Error
}

// CreateLikesBatch persists likes.
func (f *Factory) CreateLikesBatch(likes []*models.Like) error {
	if len(likes) == 0 || f.opts.DryRun {
		return nil
	}
	return f.db.Omit(clause.Associations).CreateInBatches(likes, 200).Error
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
