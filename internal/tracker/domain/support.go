package domain

import (
	"strings"
	"time"

	apperrors "github.com/forgewatch/forgewatch/internal/platform/errors"
	"github.com/forgewatch/forgewatch/internal/platform/id"
)

// Support is the telegram contact answering questions for a repository.
type Support struct {
	ID               string
	UserID           string
	RepositoryID     string
	TelegramUsername string
	CreatedAt        time.Time
}

// NewSupport creates a support contact for a repository.
func NewSupport(userID, repositoryID, telegramUsername string) (Support, error) {
	userID = strings.TrimSpace(userID)
	repositoryID = strings.TrimSpace(repositoryID)
	telegramUsername = strings.TrimSpace(telegramUsername)
	if userID == "" {
		return Support{}, apperrors.New(apperrors.CodeUserNotFound, "support user is required")
	}
	if telegramUsername == "" {
		return Support{}, apperrors.New(apperrors.CodeSupportUsernameEmpty, "telegram username is required")
	}
	return Support{
		ID:               id.New(),
		UserID:           userID,
		RepositoryID:     repositoryID,
		TelegramUsername: telegramUsername,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// Handle returns the telegram username with a leading @.
func (s Support) Handle() string {
	if strings.HasPrefix(s.TelegramUsername, "@") {
		return s.TelegramUsername
	}
	return "@" + s.TelegramUsername
}

// DMLink returns a clickable telegram direct-message URL for the contact.
func (s Support) DMLink() string {
	return "https://t.me/" + strings.TrimPrefix(s.TelegramUsername, "@")
}
