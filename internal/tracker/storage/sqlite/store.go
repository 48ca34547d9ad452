// Package sqlite provides the SQLite-backed tracker store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/forgewatch/forgewatch/internal/platform/errors"
	sqlitemigrate "github.com/forgewatch/forgewatch/internal/platform/storage/sqlitemigrate"
	"github.com/forgewatch/forgewatch/internal/tracker/domain"
	"github.com/forgewatch/forgewatch/internal/tracker/storage"
	"github.com/forgewatch/forgewatch/internal/tracker/storage/sqlite/migrations"
)

// Store provides SQLite-backed tracker persistence.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens the tracker SQLite store and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateUser persists one user account.
func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, role, active, admin, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		user.ID,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		boolToInt(user.Active),
		boolToInt(user.Admin),
		user.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return apperrors.Wrap(apperrors.CodeUserEmailTaken, "email is already registered", err)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UserByEmail loads a user by normalized email.
func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	if err := s.ready(ctx); err != nil {
		return domain.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, email, password_hash, role, active, admin, created_at
FROM users WHERE email = ?
`, strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

// UserByID loads a user by id.
func (s *Store) UserByID(ctx context.Context, id string) (domain.User, error) {
	if err := s.ready(ctx); err != nil {
		return domain.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, email, password_hash, role, active, admin, created_at
FROM users WHERE id = ?
`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (domain.User, error) {
	var user domain.User
	var role string
	var active, admin int
	var createdAt int64
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &role, &active, &admin, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.User{}, apperrors.New(apperrors.CodeUserNotFound, "user not found")
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.Role = domain.Role(role)
	user.Active = active != 0
	user.Admin = admin != 0
	user.CreatedAt = time.UnixMilli(createdAt).UTC()
	return user, nil
}

// CreateRepository persists one tracked repository.
func (s *Store) CreateRepository(ctx context.Context, repo domain.Repository) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if repo.CreatedAt.IsZero() {
		repo.CreatedAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO repositories (id, user_id, name, author, link, time_limit_seconds, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		repo.ID,
		repo.UserID,
		repo.Name,
		repo.Author,
		repo.Link,
		int64(repo.TimeLimit/time.Second),
		repo.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	return nil
}

// RepositoriesByUser lists a user's tracked repositories, oldest first.
func (s *Store) RepositoriesByUser(ctx context.Context, userID string) ([]domain.Repository, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, name, author, link, time_limit_seconds, created_at
FROM repositories WHERE user_id = ? ORDER BY created_at ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()
	return collectRepositories(rows)
}

// RepositoryByFullName loads a repository by author and name.
func (s *Store) RepositoryByFullName(ctx context.Context, author, name string) (domain.Repository, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Repository{}, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, name, author, link, time_limit_seconds, created_at
FROM repositories WHERE author = ? AND name = ?
`, author, name)
	if err != nil {
		return domain.Repository{}, fmt.Errorf("load repository: %w", err)
	}
	defer rows.Close()
	repos, err := collectRepositories(rows)
	if err != nil {
		return domain.Repository{}, err
	}
	if len(repos) == 0 {
		return domain.Repository{}, apperrors.New(apperrors.CodeRepositoryNotFound, "repository not found")
	}
	return repos[0], nil
}

// DeleteRepository removes a repository and its dependent rows.
func (s *Store) DeleteRepository(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM repositories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete repository result: %w", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeRepositoryNotFound, "repository not found")
	}
	return nil
}

func collectRepositories(rows *sql.Rows) ([]domain.Repository, error) {
	var repos []domain.Repository
	for rows.Next() {
		var repo domain.Repository
		var timeLimitSeconds, createdAt int64
		if err := rows.Scan(&repo.ID, &repo.UserID, &repo.Name, &repo.Author, &repo.Link, &timeLimitSeconds, &createdAt); err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repo.TimeLimit = time.Duration(timeLimitSeconds) * time.Second
		repo.CreatedAt = time.UnixMilli(createdAt).UTC()
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}
	return repos, nil
}

// CreateTelegramLink persists one user/chat link.
func (s *Store) CreateTelegramLink(ctx context.Context, link domain.TelegramLink) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO telegram_links (id, user_id, chat_id, notify_new_issues, created_at)
VALUES (?, ?, ?, ?, ?)
`,
		link.ID,
		link.UserID,
		link.ChatID,
		boolToInt(link.NotifyNewIssues),
		link.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return apperrors.Wrap(apperrors.CodeTelegramLinkExists, "chat is already linked", err)
		}
		return fmt.Errorf("create telegram link: %w", err)
	}
	return nil
}

// TelegramLinkByChatID loads a link by telegram chat id.
func (s *Store) TelegramLinkByChatID(ctx context.Context, chatID string) (domain.TelegramLink, error) {
	if err := s.ready(ctx); err != nil {
		return domain.TelegramLink{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, chat_id, notify_new_issues, created_at
FROM telegram_links WHERE chat_id = ?
`, chatID)
	return scanTelegramLink(row)
}

// TelegramLinkByUserID loads a link by account id.
func (s *Store) TelegramLinkByUserID(ctx context.Context, userID string) (domain.TelegramLink, error) {
	if err := s.ready(ctx); err != nil {
		return domain.TelegramLink{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, chat_id, notify_new_issues, created_at
FROM telegram_links WHERE user_id = ?
`, userID)
	return scanTelegramLink(row)
}

// SetNotifyNewIssues updates the subscription flag and returns the new link state.
func (s *Store) SetNotifyNewIssues(ctx context.Context, chatID string, notify bool) (domain.TelegramLink, error) {
	if err := s.ready(ctx); err != nil {
		return domain.TelegramLink{}, err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		"UPDATE telegram_links SET notify_new_issues = ? WHERE chat_id = ?",
		boolToInt(notify), chatID,
	)
	if err != nil {
		return domain.TelegramLink{}, fmt.Errorf("update subscription: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.TelegramLink{}, fmt.Errorf("update subscription result: %w", err)
	}
	if affected == 0 {
		return domain.TelegramLink{}, apperrors.New(apperrors.CodeTelegramLinkNotFound, "telegram link not found")
	}
	return s.TelegramLinkByChatID(ctx, chatID)
}

// SubscribedTelegramLinks lists links subscribed to new-issue notifications.
func (s *Store) SubscribedTelegramLinks(ctx context.Context) ([]domain.TelegramLink, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, chat_id, notify_new_issues, created_at
FROM telegram_links WHERE notify_new_issues = 1 ORDER BY created_at ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list subscribed links: %w", err)
	}
	defer rows.Close()

	var links []domain.TelegramLink
	for rows.Next() {
		var link domain.TelegramLink
		var notify int
		var createdAt int64
		if err := rows.Scan(&link.ID, &link.UserID, &link.ChatID, &notify, &createdAt); err != nil {
			return nil, fmt.Errorf("scan telegram link: %w", err)
		}
		link.NotifyNewIssues = notify != 0
		link.CreatedAt = time.UnixMilli(createdAt).UTC()
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telegram links: %w", err)
	}
	return links, nil
}

func scanTelegramLink(row *sql.Row) (domain.TelegramLink, error) {
	var link domain.TelegramLink
	var notify int
	var createdAt int64
	err := row.Scan(&link.ID, &link.UserID, &link.ChatID, &notify, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.TelegramLink{}, apperrors.New(apperrors.CodeTelegramLinkNotFound, "telegram link not found")
		}
		return domain.TelegramLink{}, fmt.Errorf("scan telegram link: %w", err)
	}
	link.NotifyNewIssues = notify != 0
	link.CreatedAt = time.UnixMilli(createdAt).UTC()
	return link, nil
}

// CreateContributor persists one contributor record.
func (s *Store) CreateContributor(ctx context.Context, contributor domain.Contributor) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if contributor.CreatedAt.IsZero() {
		contributor.CreatedAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO contributors (id, user_id, role, notes, rank, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		contributor.ID,
		contributor.UserID,
		string(contributor.Role),
		contributor.Notes,
		contributor.Rank,
		contributor.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create contributor: %w", err)
	}
	return nil
}

// ListContributors lists contributors ranked highest first.
func (s *Store) ListContributors(ctx context.Context) ([]domain.Contributor, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, role, notes, rank, created_at
FROM contributors ORDER BY rank DESC, created_at ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}
	defer rows.Close()

	var contributors []domain.Contributor
	for rows.Next() {
		var contributor domain.Contributor
		var role string
		var createdAt int64
		if err := rows.Scan(&contributor.ID, &contributor.UserID, &role, &contributor.Notes, &contributor.Rank, &createdAt); err != nil {
			return nil, fmt.Errorf("scan contributor: %w", err)
		}
		contributor.Role = domain.Role(role)
		contributor.CreatedAt = time.UnixMilli(createdAt).UTC()
		contributors = append(contributors, contributor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributors: %w", err)
	}
	return contributors, nil
}

// CreateSupport persists one support contact.
func (s *Store) CreateSupport(ctx context.Context, support domain.Support) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if support.CreatedAt.IsZero() {
		support.CreatedAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO supports (id, user_id, repository_id, telegram_username, created_at)
VALUES (?, ?, ?, ?, ?)
`,
		support.ID,
		support.UserID,
		nullableString(support.RepositoryID),
		support.TelegramUsername,
		support.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create support: %w", err)
	}
	return nil
}

// SupportForRepository loads the support contact for a repository.
func (s *Store) SupportForRepository(ctx context.Context, repositoryID string) (domain.Support, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Support{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, COALESCE(repository_id, ''), telegram_username, created_at
FROM supports WHERE repository_id = ?
`, repositoryID)

	var support domain.Support
	var createdAt int64
	err := row.Scan(&support.ID, &support.UserID, &support.RepositoryID, &support.TelegramUsername, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Support{}, apperrors.New(apperrors.CodeSupportNotFound, "support contact not found")
		}
		return domain.Support{}, fmt.Errorf("scan support: %w", err)
	}
	support.CreatedAt = time.UnixMilli(createdAt).UTC()
	return support, nil
}

// IssueSnapshot loads the stored open-issue titles for a repository.
func (s *Store) IssueSnapshot(ctx context.Context, repositoryID string) ([]string, bool, error) {
	if err := s.ready(ctx); err != nil {
		return nil, false, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT titles FROM issue_snapshots WHERE repository_id = ?", repositoryID)

	var encoded string
	if err := row.Scan(&encoded); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("scan issue snapshot: %w", err)
	}
	var titles []string
	if err := json.Unmarshal([]byte(encoded), &titles); err != nil {
		return nil, false, fmt.Errorf("decode issue snapshot: %w", err)
	}
	return titles, true, nil
}

// SaveIssueSnapshot replaces the stored open-issue titles for a repository.
func (s *Store) SaveIssueSnapshot(ctx context.Context, repositoryID string, titles []string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if titles == nil {
		titles = []string{}
	}
	encoded, err := json.Marshal(titles)
	if err != nil {
		return fmt.Errorf("encode issue snapshot: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO issue_snapshots (repository_id, titles, updated_at) VALUES (?, ?, ?)
ON CONFLICT(repository_id) DO UPDATE SET titles = excluded.titles, updated_at = excluded.updated_at
`,
		repositoryID,
		string(encoded),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save issue snapshot: %w", err)
	}
	return nil
}

// UpsertReviewSchedule creates or updates a chat's review digest schedule.
func (s *Store) UpsertReviewSchedule(ctx context.Context, schedule storage.ReviewSchedule) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(schedule.ChatID) == "" {
		return fmt.Errorf("schedule chat id is required")
	}
	if schedule.Interval <= 0 {
		return fmt.Errorf("schedule interval must be positive")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO review_schedules (chat_id, interval_seconds, last_run_at) VALUES (?, ?, ?)
ON CONFLICT(chat_id) DO UPDATE SET interval_seconds = excluded.interval_seconds
`,
		schedule.ChatID,
		int64(schedule.Interval/time.Second),
		schedule.LastRunAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert review schedule: %w", err)
	}
	return nil
}

// DueReviewSchedules lists schedules whose interval has elapsed since last run.
func (s *Store) DueReviewSchedules(ctx context.Context, now time.Time) ([]storage.ReviewSchedule, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT chat_id, interval_seconds, last_run_at
FROM review_schedules
WHERE last_run_at + interval_seconds * 1000 <= ?
ORDER BY chat_id ASC
`, now.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()

	var schedules []storage.ReviewSchedule
	for rows.Next() {
		var schedule storage.ReviewSchedule
		var intervalSeconds, lastRunAt int64
		if err := rows.Scan(&schedule.ChatID, &intervalSeconds, &lastRunAt); err != nil {
			return nil, fmt.Errorf("scan review schedule: %w", err)
		}
		schedule.Interval = time.Duration(intervalSeconds) * time.Second
		schedule.LastRunAt = time.UnixMilli(lastRunAt).UTC()
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review schedules: %w", err)
	}
	return schedules, nil
}

// MarkReviewScheduleRun records when a schedule last produced a digest.
func (s *Store) MarkReviewScheduleRun(ctx context.Context, chatID string, ranAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		"UPDATE review_schedules SET last_run_at = ? WHERE chat_id = ?",
		ranAt.UTC().UnixMilli(), chatID,
	)
	if err != nil {
		return fmt.Errorf("mark schedule run: %w", err)
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
