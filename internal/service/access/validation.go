package access

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"docvault/internal/domain"
	"docvault/internal/domain/models/access"
)

// isUUID rejects ids the store would refuse to parse
var isUUID = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return errors.New("must be a valid UUID")
	}
	return nil
})

// knownLevel rejects levels outside the fixed set
var knownLevel = validation.By(func(value interface{}) error {
	l, _ := value.(access.Level)
	if l == "" {
		return nil
	}
	if !l.Valid() {
		return errors.New("must be one of read, write, delete, share, admin")
	}
	return nil
})

// atLeastOne rejects a use cap below one. validation.Min treats zero as
// empty and would let it through.
var atLeastOne = validation.By(func(value interface{}) error {
	n, _ := value.(*int)
	if n != nil && *n < 1 {
		return errors.New("must be no less than 1")
	}
	return nil
})

// inFuture rejects expiry times that have already passed
func inFuture(now time.Time) validation.Rule {
	return validation.By(func(value interface{}) error {
		t, _ := value.(*time.Time)
		if t == nil {
			return nil
		}
		if !t.After(now) {
			return errors.New("must be in the future")
		}
		return nil
	})
}

func requireUser(userID string) error {
	if userID == "" {
		return &domain.UnauthorizedError{Message: "authentication required"}
	}
	return nil
}
