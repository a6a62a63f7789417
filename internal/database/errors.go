package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/csl-racing/api/internal/apperr"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation reports whether err is a duplicate key error
func IsUniqueViolation(err error) bool {
	return pqCode(err) == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err references a missing row
func IsForeignKeyViolation(err error) bool {
	return pqCode(err) == codeForeignKeyViolation
}

// Classify converts a driver error into the application error taxonomy.
// conflictMsg and notFoundMsg are the user-facing messages for duplicate keys
// and missing rows. Errors already classified pass through unchanged.
func Classify(err error, op, conflictMsg, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound(notFoundMsg)
	case IsUniqueViolation(err):
		return apperr.Conflict(conflictMsg)
	case IsForeignKeyViolation(err):
		return apperr.NotFound(notFoundMsg)
	case pqCode(err) == codeCheckViolation:
		return apperr.Validation("value out of range")
	}
	return apperr.Store(op, err)
}
