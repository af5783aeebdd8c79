package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by non-gorm repositories when a record is missing
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the record does not exist
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}
