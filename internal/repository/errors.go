package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrPreconditionFailed is returned when a conditional update matched no
	// row: the record is no longer in the state the caller assumed.
	ErrPreconditionFailed = errors.New("store precondition failed")

	// ErrDuplicated is returned when an insert hit a unique key, meaning the
	// set member already exists.
	ErrDuplicated = errors.New("record already exists")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// Driver-specific messages: sqlite "UNIQUE constraint failed",
	// mysql "Error 1062: Duplicate entry".
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry")
}
