package database

import "strings"

// IsUniqueViolation reports whether err came from a unique or primary key constraint.
// Postgres reports SQLSTATE 23505; sqlite reports "UNIQUE constraint failed".
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// IsConstraintViolation reports whether err came from any integrity constraint:
// unique, foreign key (23503), check (23514) or not null (23502).
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if IsUniqueViolation(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"23503", "23514", "23502",
		"violates foreign key constraint",
		"violates check constraint",
		"violates not-null constraint",
		"foreign key constraint failed",
		"check constraint failed",
		"not null constraint failed",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
