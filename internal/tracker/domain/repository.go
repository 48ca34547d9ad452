package domain

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/forgewatch/forgewatch/internal/platform/errors"
	"github.com/forgewatch/forgewatch/internal/platform/id"
)

// DefaultTimeLimit is how long an assignee may hold an issue before it counts
// as a missed deadline.
const DefaultTimeLimit = 24 * time.Hour

// Repository is a tracked source repository owned by a user.
type Repository struct {
	ID        string
	UserID    string
	Name      string
	Author    string
	Link      string
	TimeLimit time.Duration
	CreatedAt time.Time
}

// NewRepository validates and creates a tracked repository.
func NewRepository(userID, name, author, link string, timeLimit time.Duration) (Repository, error) {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	author = strings.TrimSpace(author)
	link = strings.TrimSpace(link)

	if userID == "" {
		return Repository{}, apperrors.New(apperrors.CodeRepositoryOwnerMissing, "repository owner is required")
	}
	if name == "" {
		return Repository{}, apperrors.New(apperrors.CodeRepositoryNameEmpty, "repository name is required")
	}
	if author == "" {
		return Repository{}, apperrors.New(apperrors.CodeRepositoryAuthorEmpty, "repository author is required")
	}
	if err := validateRepositoryLink(name, author, link); err != nil {
		return Repository{}, err
	}
	if timeLimit < 0 {
		return Repository{}, apperrors.New(apperrors.CodeRepositoryLimitInvalid, "time limit must not be negative")
	}
	if timeLimit == 0 {
		timeLimit = DefaultTimeLimit
	}

	return Repository{
		ID:        id.New(),
		UserID:    userID,
		Name:      name,
		Author:    author,
		Link:      link,
		TimeLimit: timeLimit,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// FullName returns the repository in author/name form.
func (r Repository) FullName() string {
	return fmt.Sprintf("%s/%s", r.Author, r.Name)
}

// Deadline returns the moment an assignment made at assignedAt expires.
func (r Repository) Deadline(assignedAt time.Time) time.Time {
	limit := r.TimeLimit
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	return assignedAt.Add(limit)
}

func validateRepositoryLink(name, author, link string) error {
	if link == "" {
		return apperrors.New(apperrors.CodeRepositoryLinkInvalid, "repository link is required")
	}
	parsed, err := url.Parse(link)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return apperrors.New(apperrors.CodeRepositoryLinkInvalid, "repository link must be an http(s) URL")
	}
	if !strings.Contains(link, name) {
		return apperrors.WithMetadata(apperrors.CodeRepositoryLinkMismatch, "repository name must be in the link", map[string]string{
			"name": name,
			"link": link,
		})
	}
	if !strings.Contains(link, author) {
		return apperrors.WithMetadata(apperrors.CodeRepositoryLinkMismatch, "repository author must be in the link", map[string]string{
			"author": author,
			"link":   link,
		})
	}
	return nil
}

// VerifyLink issues a GET against the repository link and reports whether it
// resolves. Network failures and non-2xx statuses are both link errors.
func (r Repository) VerifyLink(ctx context.Context, client *http.Client) error {
	if client == nil {
		client = http.DefaultClient
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, r.Link, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeRepositoryLinkInvalid, "build link request", err)
	}
	response, err := client.Do(request)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeRepositoryLinkInvalid, "repository link is unreachable", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return apperrors.WithMetadata(apperrors.CodeRepositoryLinkInvalid, "repository link is invalid", map[string]string{
			"status": response.Status,
		})
	}
	return nil
}
