package access

import (
	"encoding/json"
	"fmt"
	"strings"

	"docvault/internal/domain"
)

// Level is a single permission on a document. Levels are independent: holding
// one never satisfies a check for another. Only document ownership satisfies
// every level.
type Level string

const (
	LevelRead   Level = "read"
	LevelWrite  Level = "write"
	LevelDelete Level = "delete"
	LevelShare  Level = "share"
	LevelAdmin  Level = "admin"
)

// AllLevels lists every level in declaration order.
var AllLevels = []Level{LevelRead, LevelWrite, LevelDelete, LevelShare, LevelAdmin}

// ParseLevel parses user input (case-insensitive). Unknown values are a
// validation error.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelRead, LevelWrite, LevelDelete, LevelShare, LevelAdmin:
		return l, nil
	default:
		return "", fmt.Errorf("%w: unknown permission %q", domain.ErrValidation, s)
	}
}

// ParseStoredLevel parses a permission read back from the database. Values
// the store should never contain are a consistency error, not a denial.
func ParseStoredLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelRead, LevelWrite, LevelDelete, LevelShare, LevelAdmin:
		return l, nil
	default:
		return "", fmt.Errorf("%w: stored permission %q", domain.ErrStoreConsistency, s)
	}
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	_, err := ParseStoredLevel(string(l))
	return err == nil
}

func (l Level) String() string { return string(l) }

// UnmarshalJSON rejects unknown levels at the API boundary.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
