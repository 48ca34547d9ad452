package domain

import (
	"strings"
	"time"

	apperrors "github.com/forgewatch/forgewatch/internal/platform/errors"
	"github.com/forgewatch/forgewatch/internal/platform/id"
)

// TelegramLink ties a user account to a telegram chat.
type TelegramLink struct {
	ID              string
	UserID          string
	ChatID          string
	NotifyNewIssues bool
	CreatedAt       time.Time
}

// NewTelegramLink creates a link between a user and a telegram chat id.
func NewTelegramLink(userID, chatID string) (TelegramLink, error) {
	userID = strings.TrimSpace(userID)
	chatID = strings.TrimSpace(chatID)
	if userID == "" {
		return TelegramLink{}, apperrors.New(apperrors.CodeUserNotFound, "link user is required")
	}
	if chatID == "" {
		return TelegramLink{}, apperrors.New(apperrors.CodeTelegramChatIDEmpty, "telegram chat id is required")
	}
	return TelegramLink{
		ID:        id.New(),
		UserID:    userID,
		ChatID:    chatID,
		CreatedAt: time.Now().UTC(),
	}, nil
}
