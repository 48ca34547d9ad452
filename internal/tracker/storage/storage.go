// Package storage defines the persistence interfaces for tracker entities.
package storage

import (
	"context"
	"time"

	"github.com/forgewatch/forgewatch/internal/tracker/domain"
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) error
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, id string) (domain.User, error)
}

// RepositoryStore persists tracked repositories.
type RepositoryStore interface {
	CreateRepository(ctx context.Context, repo domain.Repository) error
	RepositoriesByUser(ctx context.Context, userID string) ([]domain.Repository, error)
	RepositoryByFullName(ctx context.Context, author, name string) (domain.Repository, error)
	DeleteRepository(ctx context.Context, id string) error
}

// TelegramLinkStore persists user/telegram chat links.
type TelegramLinkStore interface {
	CreateTelegramLink(ctx context.Context, link domain.TelegramLink) error
	TelegramLinkByChatID(ctx context.Context, chatID string) (domain.TelegramLink, error)
	TelegramLinkByUserID(ctx context.Context, userID string) (domain.TelegramLink, error)
	SetNotifyNewIssues(ctx context.Context, chatID string, notify bool) (domain.TelegramLink, error)
	SubscribedTelegramLinks(ctx context.Context) ([]domain.TelegramLink, error)
}

// ContributorStore persists contributor records.
type ContributorStore interface {
	CreateContributor(ctx context.Context, contributor domain.Contributor) error
	ListContributors(ctx context.Context) ([]domain.Contributor, error)
}

// SupportStore persists repository support contacts.
type SupportStore interface {
	CreateSupport(ctx context.Context, support domain.Support) error
	SupportForRepository(ctx context.Context, repositoryID string) (domain.Support, error)
}

// SnapshotStore persists the last-seen open issue titles per repository. It
// backs new-issue detection between poller passes.
type SnapshotStore interface {
	IssueSnapshot(ctx context.Context, repositoryID string) (titles []string, found bool, err error)
	SaveIssueSnapshot(ctx context.Context, repositoryID string, titles []string) error
}

// ReviewSchedule is a per-chat recurring review digest.
type ReviewSchedule struct {
	ChatID    string
	Interval  time.Duration
	LastRunAt time.Time
}

// ScheduleStore persists recurring review digest schedules.
type ScheduleStore interface {
	UpsertReviewSchedule(ctx context.Context, schedule ReviewSchedule) error
	DueReviewSchedules(ctx context.Context, now time.Time) ([]ReviewSchedule, error)
	MarkReviewScheduleRun(ctx context.Context, chatID string, ranAt time.Time) error
}

// Store aggregates every tracker persistence concern.
type Store interface {
	UserStore
	RepositoryStore
	TelegramLinkStore
	ContributorStore
	SupportStore
	SnapshotStore
	ScheduleStore
	Close() error
}
