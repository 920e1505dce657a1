// Package repository implements the data access layer for the application.
package repository

import (
	"errors"

	"github.com/NoahAppelbaum/warbler/internal/database"
	"github.com/NoahAppelbaum/warbler/internal/models"

	"gorm.io/gorm"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// translateError maps storage errors onto AppError codes. notFound is returned for
// gorm.ErrRecordNotFound; integrity violations keep the driver error wrapped.
func translateError(err error, notFound *models.AppError, integrityMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case database.IsConstraintViolation(err):
		return models.NewIntegrityError(integrityMsg, err)
	default:
		return models.NewInternalError(err)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
