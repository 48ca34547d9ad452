package domain

import (
	"strings"
	"time"

	apperrors "github.com/forgewatch/forgewatch/internal/platform/errors"
	"github.com/forgewatch/forgewatch/internal/platform/id"
)

// Contributor records a ranked contributor with project-lead-only notes.
type Contributor struct {
	ID        string
	UserID    string
	Role      Role
	Notes     string
	Rank      int
	CreatedAt time.Time
}

// NewContributor creates a contributor entry for a user.
func NewContributor(userID string, role Role, notes string, rank int) (Contributor, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Contributor{}, apperrors.New(apperrors.CodeUserNotFound, "contributor user is required")
	}
	if role == "" {
		role = RoleContributor
	}
	if role != RoleContributor && role != RoleProjectLead {
		return Contributor{}, apperrors.New(apperrors.CodeUserRoleInvalid, "unknown contributor role")
	}
	return Contributor{
		ID:        id.New(),
		UserID:    userID,
		Role:      role,
		Notes:     notes,
		Rank:      rank,
		CreatedAt: time.Now().UTC(),
	}, nil
}
