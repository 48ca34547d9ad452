package poller

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/forgewatch/forgewatch/internal/github"
	apperrors "github.com/forgewatch/forgewatch/internal/platform/errors"
	"github.com/forgewatch/forgewatch/internal/telegram"
	"github.com/forgewatch/forgewatch/internal/telegram/render"
	"github.com/forgewatch/forgewatch/internal/tracker/domain"
	"github.com/forgewatch/forgewatch/internal/tracker/storage"
)

type fakeNotifier struct {
	sent []telegram.OutgoingMessage
}

func (f *fakeNotifier) SendMessage(ctx context.Context, msg telegram.OutgoingMessage) error {
	f.sent = append(f.sent, msg)
	return nil
}

type fakeGitHub struct {
	issues  map[string][]github.Issue
	pulls   map[string][]github.PullRequest
	reviews map[int][]github.Review
}

func (f *fakeGitHub) ListIssues(ctx context.Context, owner, repo string) ([]github.Issue, error) {
	return f.issues[owner+"/"+repo], nil
}

func (f *fakeGitHub) ListOpenPulls(ctx context.Context, owner, repo string) ([]github.PullRequest, error) {
	return f.pulls[owner+"/"+repo], nil
}

func (f *fakeGitHub) ListReviews(ctx context.Context, owner, repo string, number int) ([]github.Review, error) {
	return f.reviews[number], nil
}

type fakeStore struct {
	links     []domain.TelegramLink
	repos     map[string][]domain.Repository
	snapshots map[string][]string
	schedules map[string]storage.ReviewSchedule
	due       []storage.ReviewSchedule
	marked    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		repos:     map[string][]domain.Repository{},
		snapshots: map[string][]string{},
		schedules: map[string]storage.ReviewSchedule{},
	}
}

func (f *fakeStore) SubscribedTelegramLinks(ctx context.Context) ([]domain.TelegramLink, error) {
	return f.links, nil
}

func (f *fakeStore) TelegramLinkByChatID(ctx context.Context, chatID string) (domain.TelegramLink, error) {
	for _, link := range f.links {
		if link.ChatID == chatID {
			return link, nil
		}
	}
	return domain.TelegramLink{}, apperrors.New(apperrors.CodeTelegramLinkNotFound, "link not found")
}

func (f *fakeStore) RepositoriesByUser(ctx context.Context, userID string) ([]domain.Repository, error) {
	return f.repos[userID], nil
}

func (f *fakeStore) IssueSnapshot(ctx context.Context, repositoryID string) ([]string, bool, error) {
	titles, ok := f.snapshots[repositoryID]
	return titles, ok, nil
}

func (f *fakeStore) SaveIssueSnapshot(ctx context.Context, repositoryID string, titles []string) error {
	f.snapshots[repositoryID] = titles
	return nil
}

func (f *fakeStore) UpsertReviewSchedule(ctx context.Context, schedule storage.ReviewSchedule) error {
	if existing, ok := f.schedules[schedule.ChatID]; ok {
		existing.Interval = schedule.Interval
		f.schedules[schedule.ChatID] = existing
		return nil
	}
	f.schedules[schedule.ChatID] = schedule
	return nil
}

func (f *fakeStore) DueReviewSchedules(ctx context.Context, now time.Time) ([]storage.ReviewSchedule, error) {
	return f.due, nil
}

func (f *fakeStore) MarkReviewScheduleRun(ctx context.Context, chatID string, ranAt time.Time) error {
	f.marked = append(f.marked, chatID)
	return nil
}

func trackedRepo(t *testing.T, userID string) domain.Repository {
	t.Helper()
	repo, err := domain.NewRepository(userID, "tracker", "acme", "https://github.com/acme/tracker", domain.DefaultTimeLimit)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	return repo
}

func newTestPoller(store Store, gh GitHub, notifier Notifier) *Poller {
	loc := render.NewLocalizer(language.English)
	return New(store, gh, notifier, loc, log.New(io.Discard, "", 0), time.Minute, time.Hour)
}

func TestScanFirstPassOnlySeedsSnapshot(t *testing.T) {
	store := newFakeStore()
	store.links = []domain.TelegramLink{{ID: "l1", UserID: "user-1", ChatID: "7", NotifyNewIssues: true}}
	repo := trackedRepo(t, "user-1")
	store.repos["user-1"] = []domain.Repository{repo}

	gh := &fakeGitHub{issues: map[string][]github.Issue{
		"acme/tracker": {{Number: 1, Title: "first issue", State: "open"}},
	}}
	notifier := &fakeNotifier{}
	p := newTestPoller(store, gh, notifier)

	if err := p.ScanOnce(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("sent %d messages on seed pass, want none", len(notifier.sent))
	}
	if got := store.snapshots[repo.ID]; len(got) != 1 || got[0] != "first issue" {
		t.Fatalf("snapshot = %v", got)
	}
}

func TestScanAnnouncesNewIssues(t *testing.T) {
	store := newFakeStore()
	store.links = []domain.TelegramLink{{ID: "l1", UserID: "user-1", ChatID: "7", NotifyNewIssues: true}}
	repo := trackedRepo(t, "user-1")
	store.repos["user-1"] = []domain.Repository{repo}
	store.snapshots[repo.ID] = []string{"first issue"}

	gh := &fakeGitHub{issues: map[string][]github.Issue{
		"acme/tracker": {
			{Number: 1, Title: "first issue", State: "open"},
			{Number: 2, Title: "second issue", State: "open"},
		},
	}}
	notifier := &fakeNotifier{}
	p := newTestPoller(store, gh, notifier)

	if err := p.ScanOnce(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(notifier.sent))
	}
	text := notifier.sent[0].Text
	if !strings.Contains(text, "acme/tracker") || !strings.Contains(text, "second issue") {
		t.Fatalf("message = %q", text)
	}
	if strings.Contains(text, "first issue") {
		t.Fatalf("message = %q, known issue should not be announced", text)
	}
	if got := store.snapshots[repo.ID]; len(got) != 2 {
		t.Fatalf("snapshot = %v, want refreshed titles", got)
	}
}

func TestScanSkipsUnchangedRepos(t *testing.T) {
	store := newFakeStore()
	store.links = []domain.TelegramLink{{ID: "l1", UserID: "user-1", ChatID: "7", NotifyNewIssues: true}}
	repo := trackedRepo(t, "user-1")
	store.repos["user-1"] = []domain.Repository{repo}
	store.snapshots[repo.ID] = []string{"first issue"}

	gh := &fakeGitHub{issues: map[string][]github.Issue{
		"acme/tracker": {{Number: 1, Title: "first issue", State: "open"}},
	}}
	notifier := &fakeNotifier{}
	p := newTestPoller(store, gh, notifier)

	if err := p.ScanOnce(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("sent %d messages, want none", len(notifier.sent))
	}
}

func TestScanEnsuresReviewSchedule(t *testing.T) {
	store := newFakeStore()
	store.links = []domain.TelegramLink{{ID: "l1", UserID: "user-1", ChatID: "7", NotifyNewIssues: true}}
	store.repos["user-1"] = []domain.Repository{trackedRepo(t, "user-1")}

	gh := &fakeGitHub{issues: map[string][]github.Issue{}}
	p := newTestPoller(store, gh, &fakeNotifier{})

	if err := p.ScanOnce(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	schedule, ok := store.schedules["7"]
	if !ok {
		t.Fatal("expected a review schedule for chat 7")
	}
	if schedule.Interval != domain.DefaultTimeLimit {
		t.Fatalf("interval = %v, want the repository time limit %v", schedule.Interval, domain.DefaultTimeLimit)
	}
}

func TestScheduleIntervalFollowsRepositoryTimeLimit(t *testing.T) {
	store := newFakeStore()
	store.links = []domain.TelegramLink{{ID: "l1", UserID: "user-1", ChatID: "7", NotifyNewIssues: true}}
	fast, err := domain.NewRepository("user-1", "tracker", "acme", "https://github.com/acme/tracker", time.Hour)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	slow, err := domain.NewRepository("user-1", "widgets", "acme", "https://github.com/acme/widgets", 72*time.Hour)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	store.repos["user-1"] = []domain.Repository{slow, fast}

	p := New(store, &fakeGitHub{}, &fakeNotifier{}, render.NewLocalizer(language.English), log.New(io.Discard, "", 0), time.Minute, 24*time.Hour)

	if err := p.ScanOnce(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	schedule, ok := store.schedules["7"]
	if !ok {
		t.Fatal("expected a review schedule for chat 7")
	}
	if schedule.Interval != time.Hour {
		t.Fatalf("interval = %v, want the tightest repository time limit 1h", schedule.Interval)
	}
}

func TestScheduleIntervalFallsBackWithoutRepositories(t *testing.T) {
	store := newFakeStore()
	store.links = []domain.TelegramLink{{ID: "l1", UserID: "user-1", ChatID: "7", NotifyNewIssues: true}}

	p := newTestPoller(store, &fakeGitHub{}, &fakeNotifier{})

	if err := p.ScanOnce(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	schedule, ok := store.schedules["7"]
	if !ok {
		t.Fatal("expected a review schedule for chat 7")
	}
	if schedule.Interval != time.Hour {
		t.Fatalf("interval = %v, want the configured fallback 1h", schedule.Interval)
	}
}

func TestDueDigestSummarizesReviews(t *testing.T) {
	store := newFakeStore()
	store.links = []domain.TelegramLink{{ID: "l1", UserID: "user-1", ChatID: "7", NotifyNewIssues: true}}
	repo := trackedRepo(t, "user-1")
	store.repos["user-1"] = []domain.Repository{repo}
	store.due = []storage.ReviewSchedule{{ChatID: "7", Interval: time.Hour}}

	gh := &fakeGitHub{
		pulls: map[string][]github.PullRequest{
			"acme/tracker": {{Number: 5, Title: "fix crash", User: &github.Account{Login: "dev"}}},
		},
		reviews: map[int][]github.Review{
			5: {{User: &github.Account{Login: "lead"}, State: "APPROVED"}},
		},
	}
	notifier := &fakeNotifier{}
	p := newTestPoller(store, gh, notifier)

	if err := p.RunDueDigests(context.Background()); err != nil {
		t.Fatalf("digests: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(notifier.sent))
	}
	text := notifier.sent[0].Text
	if !strings.Contains(text, "fix crash") || !strings.Contains(text, "APPROVED") || !strings.Contains(text, "lead") {
		t.Fatalf("digest = %q", text)
	}
	if len(store.marked) != 1 || store.marked[0] != "7" {
		t.Fatalf("marked = %v, want chat 7", store.marked)
	}
}

func TestDueDigestWithoutReviewsStaysSilent(t *testing.T) {
	store := newFakeStore()
	store.links = []domain.TelegramLink{{ID: "l1", UserID: "user-1", ChatID: "7", NotifyNewIssues: true}}
	repo := trackedRepo(t, "user-1")
	store.repos["user-1"] = []domain.Repository{repo}
	store.due = []storage.ReviewSchedule{{ChatID: "7", Interval: time.Hour}}

	gh := &fakeGitHub{
		pulls: map[string][]github.PullRequest{
			"acme/tracker": {{Number: 5, Title: "fix crash"}},
		},
	}
	notifier := &fakeNotifier{}
	p := newTestPoller(store, gh, notifier)

	if err := p.RunDueDigests(context.Background()); err != nil {
		t.Fatalf("digests: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("sent %d messages, want none", len(notifier.sent))
	}
	if len(store.marked) != 1 {
		t.Fatalf("marked = %v, silent digests still advance the schedule", store.marked)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := newFakeStore()
	p := newTestPoller(store, &fakeGitHub{}, &fakeNotifier{})

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("run err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestRuntimeRequiresTelegramToken(t *testing.T) {
	err := Run(context.Background(), RuntimeConfig{})
	if err == nil || !strings.Contains(err.Error(), "telegram bot token") {
		t.Fatalf("err = %v, want missing token error", err)
	}
}
