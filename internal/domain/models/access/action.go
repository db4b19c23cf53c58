package access

import (
	"fmt"
	"strings"

	"docvault/internal/domain"
)

// Action is the verb a caller wants to perform on a document.
type Action string

const (
	ActionRead        Action = "read"
	ActionView        Action = "view"
	ActionDownload    Action = "download"
	ActionEdit        Action = "edit"
	ActionUpdate      Action = "update"
	ActionUpload      Action = "upload"
	ActionDelete      Action = "delete"
	ActionShare       Action = "share"
	ActionAdmin       Action = "admin"
	ActionPermissions Action = "permissions"
)

var actionLevels = map[Action]Level{
	ActionRead:        LevelRead,
	ActionView:        LevelRead,
	ActionDownload:    LevelRead,
	ActionEdit:        LevelWrite,
	ActionUpdate:      LevelWrite,
	ActionUpload:      LevelWrite,
	ActionDelete:      LevelDelete,
	ActionShare:       LevelShare,
	ActionAdmin:       LevelAdmin,
	ActionPermissions: LevelAdmin,
}

// RequiredLevel maps an action keyword to the permission it needs.
// Unknown actions are a caller mistake and return ErrValidation.
func RequiredLevel(action Action) (Level, error) {
	level, ok := actionLevels[Action(strings.ToLower(string(action)))]
	if !ok {
		return "", fmt.Errorf("%w: unknown action %q", domain.ErrValidation, action)
	}
	return level, nil
}
