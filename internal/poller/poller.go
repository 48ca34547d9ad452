// Package poller runs the background loops that watch tracked repositories:
// a scan pass that announces new issues to subscribed chats and a recurring
// review digest summarizing open pull request reviews.
package poller

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/forgewatch/forgewatch/internal/github"
	"github.com/forgewatch/forgewatch/internal/telegram"
	"github.com/forgewatch/forgewatch/internal/telegram/render"
	"github.com/forgewatch/forgewatch/internal/tracker/domain"
	"github.com/forgewatch/forgewatch/internal/tracker/storage"
)

// DefaultScanInterval is how often tracked repositories are scanned.
const DefaultScanInterval = 10 * time.Minute

// DefaultReviewInterval is how often each chat receives a review digest.
const DefaultReviewInterval = 24 * time.Hour

// reviewCheckInterval is how often due schedules are polled.
const reviewCheckInterval = time.Minute

// Notifier delivers rendered chat messages.
type Notifier interface {
	SendMessage(ctx context.Context, msg telegram.OutgoingMessage) error
}

// GitHub is the API surface the poller reads repository state from.
type GitHub interface {
	ListIssues(ctx context.Context, owner, repo string) ([]github.Issue, error)
	ListOpenPulls(ctx context.Context, owner, repo string) ([]github.PullRequest, error)
	ListReviews(ctx context.Context, owner, repo string, number int) ([]github.Review, error)
}

// Store is the persistence surface the poller consumes.
type Store interface {
	SubscribedTelegramLinks(ctx context.Context) ([]domain.TelegramLink, error)
	TelegramLinkByChatID(ctx context.Context, chatID string) (domain.TelegramLink, error)
	RepositoriesByUser(ctx context.Context, userID string) ([]domain.Repository, error)
	IssueSnapshot(ctx context.Context, repositoryID string) (titles []string, found bool, err error)
	SaveIssueSnapshot(ctx context.Context, repositoryID string, titles []string) error
	UpsertReviewSchedule(ctx context.Context, schedule storage.ReviewSchedule) error
	DueReviewSchedules(ctx context.Context, now time.Time) ([]storage.ReviewSchedule, error)
	MarkReviewScheduleRun(ctx context.Context, chatID string, ranAt time.Time) error
}

// Poller drives the scan and review digest loops.
type Poller struct {
	store          Store
	github         GitHub
	notifier       Notifier
	loc            render.Localizer
	logger         *log.Logger
	scanInterval   time.Duration
	reviewInterval time.Duration
	now            func() time.Time
}

// New wires a poller over the store, GitHub, and the chat notifier.
func New(store Store, gh GitHub, notifier Notifier, loc render.Localizer, logger *log.Logger, scanInterval, reviewInterval time.Duration) *Poller {
	if logger == nil {
		logger = log.Default()
	}
	if scanInterval <= 0 {
		scanInterval = DefaultScanInterval
	}
	if reviewInterval <= 0 {
		reviewInterval = DefaultReviewInterval
	}
	return &Poller{
		store:          store,
		github:         gh,
		notifier:       notifier,
		loc:            loc,
		logger:         logger,
		scanInterval:   scanInterval,
		reviewInterval: reviewInterval,
		now:            time.Now,
	}
}

// Run scans immediately, then keeps both loops ticking until ctx is canceled.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.ScanOnce(ctx); err != nil {
		p.logger.Printf("scan repositories: %v", err)
	}

	scan := time.NewTicker(p.scanInterval)
	defer scan.Stop()
	review := time.NewTicker(reviewCheckInterval)
	defer review.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-scan.C:
			if err := p.ScanOnce(ctx); err != nil {
				p.logger.Printf("scan repositories: %v", err)
			}
		case <-review.C:
			if err := p.RunDueDigests(ctx); err != nil {
				p.logger.Printf("review digests: %v", err)
			}
		}
	}
}

// ScanOnce walks every subscribed chat's repositories, announces titles not
// seen on the previous pass, and refreshes the stored snapshots. A repository
// scanned for the first time only seeds its snapshot.
func (p *Poller) ScanOnce(ctx context.Context) error {
	links, err := p.store.SubscribedTelegramLinks(ctx)
	if err != nil {
		return fmt.Errorf("list subscribed links: %w", err)
	}

	repos := map[string]domain.Repository{}
	chatsByRepo := map[string][]string{}
	for _, link := range links {
		tracked, err := p.store.RepositoriesByUser(ctx, link.UserID)
		if err != nil {
			p.logger.Printf("repositories for user %s: %v", link.UserID, err)
			continue
		}
		for _, repo := range tracked {
			repos[repo.ID] = repo
			chatsByRepo[repo.ID] = append(chatsByRepo[repo.ID], link.ChatID)
		}
		if err := p.ensureReviewSchedule(ctx, link.ChatID, digestInterval(tracked, p.reviewInterval)); err != nil {
			p.logger.Printf("schedule digest for chat %s: %v", link.ChatID, err)
		}
	}

	for repoID, repo := range repos {
		if err := p.scanRepository(ctx, repo, chatsByRepo[repoID]); err != nil {
			p.logger.Printf("scan %s: %v", repo.FullName(), err)
		}
	}
	return nil
}

func (p *Poller) scanRepository(ctx context.Context, repo domain.Repository, chatIDs []string) error {
	issues, err := p.github.ListIssues(ctx, repo.Author, repo.Name)
	if err != nil {
		return err
	}
	titles := github.IssueTitles(github.OpenIssues(issues))

	previous, found, err := p.store.IssueSnapshot(ctx, repo.ID)
	if err != nil {
		return err
	}
	if !found {
		return p.store.SaveIssueSnapshot(ctx, repo.ID, titles)
	}

	fresh := github.NewIssueTitles(titles, previous)
	if len(fresh) > 0 {
		message := render.NewIssuesHeader(p.loc, repo.FullName())
		for _, title := range fresh {
			message += "<blockquote>" + title + "</blockquote>"
		}
		for _, chatID := range chatIDs {
			if err := p.notifier.SendMessage(ctx, telegram.OutgoingMessage{ChatID: chatID, Text: message}); err != nil {
				p.logger.Printf("notify chat %s: %v", chatID, err)
			}
		}
	}
	return p.store.SaveIssueSnapshot(ctx, repo.ID, titles)
}

func (p *Poller) ensureReviewSchedule(ctx context.Context, chatID string, interval time.Duration) error {
	return p.store.UpsertReviewSchedule(ctx, storage.ReviewSchedule{
		ChatID:    chatID,
		Interval:  interval,
		LastRunAt: p.now().UTC(),
	})
}

// digestInterval derives a chat's review cadence from the tightest time limit
// among its repositories, falling back to the configured interval when the
// chat tracks none.
func digestInterval(repos []domain.Repository, fallback time.Duration) time.Duration {
	var interval time.Duration
	for _, repo := range repos {
		if repo.TimeLimit <= 0 {
			continue
		}
		if interval == 0 || repo.TimeLimit < interval {
			interval = repo.TimeLimit
		}
	}
	if interval == 0 {
		return fallback
	}
	return interval
}

// RunDueDigests sends a review digest to every chat whose schedule elapsed.
func (p *Poller) RunDueDigests(ctx context.Context) error {
	now := p.now().UTC()
	due, err := p.store.DueReviewSchedules(ctx, now)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	for _, schedule := range due {
		if err := p.sendDigest(ctx, schedule.ChatID); err != nil {
			p.logger.Printf("digest for chat %s: %v", schedule.ChatID, err)
			continue
		}
		if err := p.store.MarkReviewScheduleRun(ctx, schedule.ChatID, now); err != nil {
			p.logger.Printf("mark digest run for chat %s: %v", schedule.ChatID, err)
		}
	}
	return nil
}

func (p *Poller) sendDigest(ctx context.Context, chatID string) error {
	link, err := p.store.TelegramLinkByChatID(ctx, chatID)
	if err != nil {
		return err
	}
	repos, err := p.store.RepositoriesByUser(ctx, link.UserID)
	if err != nil {
		return err
	}

	var digest strings.Builder
	digest.WriteString(render.ReviewDigestHeader(p.loc))
	entries := 0
	for _, repo := range repos {
		pulls, err := p.github.ListOpenPulls(ctx, repo.Author, repo.Name)
		if err != nil {
			p.logger.Printf("pulls for %s: %v", repo.FullName(), err)
			continue
		}
		for _, pull := range pulls {
			reviews, err := p.github.ListReviews(ctx, repo.Author, repo.Name, pull.Number)
			if err != nil {
				p.logger.Printf("reviews for %s#%d: %v", repo.FullName(), pull.Number, err)
				continue
			}
			if len(reviews) == 0 {
				continue
			}
			digest.WriteString(render.ReviewEntry(p.loc, repo.FullName(), pull.Number, pull.Title))
			for _, review := range reviews {
				login := ""
				if review.User != nil {
					login = review.User.Login
				}
				digest.WriteString(render.ReviewLine(p.loc, login, review.State))
			}
			entries++
		}
	}
	if entries == 0 {
		return nil
	}
	return p.notifier.SendMessage(ctx, telegram.OutgoingMessage{ChatID: chatID, Text: digest.String()})
}
