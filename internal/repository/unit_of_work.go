package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups the repositories bound to one unit of work.
type Repositories struct {
	Users    UserRepository
	Messages MessageRepository
}

// UnitOfWork runs a set of repository calls as one transaction.
type UnitOfWork interface {
	// Do commits when fn returns nil and rolls back on any error, including
	// constraint violations raised at commit time.
	Do(ctx context.Context, fn func(repos Repositories) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork returns a UnitOfWork backed by gorm transactions.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(repos Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repositories{
			Users:    NewUserRepository(tx),
			Messages: NewMessageRepository(tx),
		})
	})
}
