package telegram

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/forgewatch/forgewatch/internal/github"
	"github.com/forgewatch/forgewatch/internal/linktoken"
	apperrors "github.com/forgewatch/forgewatch/internal/platform/errors"
	"github.com/forgewatch/forgewatch/internal/telegram/render"
	"github.com/forgewatch/forgewatch/internal/tracker/domain"
)

// API is the Bot API surface the dispatcher drives.
type API interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
	SendMessage(ctx context.Context, msg OutgoingMessage) error
}

// Store is the persistence surface the bot consumes.
type Store interface {
	UserByID(ctx context.Context, id string) (domain.User, error)
	CreateTelegramLink(ctx context.Context, link domain.TelegramLink) error
	TelegramLinkByChatID(ctx context.Context, chatID string) (domain.TelegramLink, error)
	SetNotifyNewIssues(ctx context.Context, chatID string, notify bool) (domain.TelegramLink, error)
	RepositoriesByUser(ctx context.Context, userID string) ([]domain.Repository, error)
	SupportForRepository(ctx context.Context, repositoryID string) (domain.Support, error)
}

// GitHub is the API surface the bot reads issue state from.
type GitHub interface {
	ListIssues(ctx context.Context, owner, repo string) ([]github.Issue, error)
	ListOpenPulls(ctx context.Context, owner, repo string) ([]github.PullRequest, error)
	IssueEvents(ctx context.Context, owner, repo string, number int) ([]github.Event, error)
	SearchAssignedIssues(ctx context.Context, login string) ([]github.Issue, error)
}

// hackathonLabel narrows /issues results to the event issues contributors ask about.
var hackathonLabel = regexp.MustCompile(`(?i)odhack`)

// Bot dispatches incoming chat messages to tracker commands.
type Bot struct {
	api          API
	store        Store
	github       GitHub
	tokens       linktoken.Config
	loc          render.Localizer
	logger       *log.Logger
	labelPattern *regexp.Regexp
	pollTimeout  time.Duration
	now          func() time.Time
}

// NewBot wires a dispatcher over the Bot API, the store, and GitHub.
func NewBot(api API, store Store, gh GitHub, tokens linktoken.Config, loc render.Localizer, logger *log.Logger) *Bot {
	if logger == nil {
		logger = log.Default()
	}
	return &Bot{
		api:          api,
		store:        store,
		github:       gh,
		tokens:       tokens,
		loc:          loc,
		logger:       logger,
		labelPattern: hackathonLabel,
		pollTimeout:  DefaultPollTimeout,
		now:          time.Now,
	}
}

// Run long-polls for updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		updates, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Printf("poll updates: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil {
				continue
			}
			if err := b.HandleMessage(ctx, *update.Message); err != nil {
				b.logger.Printf("handle message in chat %d: %v", update.Message.Chat.ID, err)
			}
		}
	}
}

// HandleMessage routes one incoming message to the matching command.
func (b *Bot) HandleMessage(ctx context.Context, msg Message) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		return b.handleStart(ctx, msg, strings.TrimSpace(strings.TrimPrefix(text, "/start")))
	case strings.HasPrefix(text, "/link"):
		return b.handleStart(ctx, msg, strings.TrimSpace(strings.TrimPrefix(text, "/link")))
	case text == "/notify_about_new_issues" || text == "/notify":
		return b.handleNotifyToggle(ctx, msg)
	case strings.HasPrefix(text, "/issues "):
		return b.handleContributorIssues(ctx, msg, strings.TrimSpace(strings.TrimPrefix(text, "/issues")))
	case text == render.ButtonMissedDeadlines(b.loc):
		return b.handleMissedDeadlines(ctx, msg)
	case text == render.ButtonAvailableIssues(b.loc):
		return b.handleAvailableIssues(ctx, msg)
	case text == render.ButtonContactSupport(b.loc):
		return b.handleContactSupport(ctx, msg)
	default:
		return b.reply(ctx, msg, render.Unknown(b.loc))
	}
}

func (b *Bot) handleStart(ctx context.Context, msg Message, payload string) error {
	if payload != "" {
		linked, err := b.linkAccount(ctx, msg, payload)
		if err != nil || !linked {
			return err
		}
	}
	greeting := render.Greeting(b.loc, mentionFrom(msg))
	return b.api.SendMessage(ctx, OutgoingMessage{
		ChatID:      chatID(msg),
		Text:        greeting,
		ReplyMarkup: b.mainKeyboard(),
	})
}

// linkAccount connects the chat to the account the token names. linked is
// false when the token was rejected; the chat is told and gets no greeting.
func (b *Bot) linkAccount(ctx context.Context, msg Message, token string) (linked bool, err error) {
	userID, err := b.tokens.Verify(token)
	if err != nil {
		b.logger.Printf("verify link token in chat %d: %v", msg.Chat.ID, err)
		return false, b.reply(ctx, msg, render.LinkFailed(b.loc))
	}
	if _, err := b.store.UserByID(ctx, userID); err != nil {
		b.logger.Printf("resolve linked user %s: %v", userID, err)
		return false, b.reply(ctx, msg, render.LinkFailed(b.loc))
	}

	link, err := domain.NewTelegramLink(userID, chatID(msg))
	if err != nil {
		return false, fmt.Errorf("build telegram link: %w", err)
	}
	if err := b.store.CreateTelegramLink(ctx, link); err != nil {
		if apperrors.CodeOf(err) != apperrors.CodeTelegramLinkExists {
			return false, fmt.Errorf("persist telegram link: %w", err)
		}
	}
	return true, b.reply(ctx, msg, render.AccountLinked(b.loc))
}

func (b *Bot) handleNotifyToggle(ctx context.Context, msg Message) error {
	link, err := b.store.TelegramLinkByChatID(ctx, chatID(msg))
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeTelegramLinkNotFound {
			return b.reply(ctx, msg, render.NotLinked(b.loc))
		}
		return fmt.Errorf("load telegram link: %w", err)
	}

	updated, err := b.store.SetNotifyNewIssues(ctx, link.ChatID, !link.NotifyNewIssues)
	if err != nil {
		return fmt.Errorf("toggle subscription: %w", err)
	}
	return b.reply(ctx, msg, render.SubscriptionChanged(b.loc, updated.NotifyNewIssues))
}

func (b *Bot) handleMissedDeadlines(ctx context.Context, msg Message) error {
	repos, ok, err := b.linkedRepositories(ctx, msg)
	if err != nil || !ok {
		return err
	}

	now := b.now()
	for _, repo := range repos {
		body, err := b.missedDeadlineReport(ctx, repo, now)
		if err != nil {
			b.logger.Printf("missed deadlines for %s: %v", repo.FullName(), err)
			continue
		}
		report := render.RepoHeader(b.loc, repo.Author, repo.Name) + body
		if err := b.reply(ctx, msg, "<blockquote>"+report+"</blockquote>"); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) missedDeadlineReport(ctx context.Context, repo domain.Repository, now time.Time) (string, error) {
	issues, err := b.github.ListIssues(ctx, repo.Author, repo.Name)
	if err != nil {
		return "", err
	}
	pulls, err := b.github.ListOpenPulls(ctx, repo.Author, repo.Name)
	if err != nil {
		return "", err
	}

	assignments := map[int]github.Assignment{}
	for _, issue := range github.AssignedIssues(issues) {
		events, err := b.github.IssueEvents(ctx, repo.Author, repo.Name, issue.Number)
		if err != nil {
			return "", err
		}
		if assignment, found := github.LatestAssignment(events); found {
			assignments[issue.Number] = assignment
		}
	}

	stale := github.StaleAssignments(issues, assignments, pulls, repo.TimeLimit, now)
	if len(stale) == 0 {
		return render.NoMissedDeadlines(b.loc), nil
	}

	var report strings.Builder
	for _, entry := range stale {
		days := int(entry.Held.Hours() / 24)
		report.WriteString(render.MissedDeadline(b.loc, issueLink(entry.Issue), entry.Assignee, days))
	}
	return report.String(), nil
}

func (b *Bot) handleAvailableIssues(ctx context.Context, msg Message) error {
	repos, ok, err := b.linkedRepositories(ctx, msg)
	if err != nil || !ok {
		return err
	}

	for _, repo := range repos {
		issues, err := b.github.ListIssues(ctx, repo.Author, repo.Name)
		if err != nil {
			b.logger.Printf("available issues for %s: %v", repo.FullName(), err)
			continue
		}
		available := github.AvailableIssues(issues)

		report := render.RepoHeader(b.loc, repo.Author, repo.Name)
		if len(available) == 0 {
			report += render.NoIssues(b.loc)
		}
		for _, issue := range available {
			report += render.AvailableIssue(b.loc, issueLink(issue))
		}
		if err := b.reply(ctx, msg, report); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleContactSupport(ctx context.Context, msg Message) error {
	repos, ok, err := b.linkedRepositories(ctx, msg)
	if err != nil || !ok {
		return err
	}

	for _, repo := range repos {
		report := render.RepoHeader(b.loc, repo.Author, repo.Name)
		support, err := b.store.SupportForRepository(ctx, repo.ID)
		switch {
		case err == nil:
			link := fmt.Sprintf(`<a href="%s">%s</a>`, support.DMLink(), support.Handle())
			report += render.SupportContact(b.loc, link)
		case apperrors.CodeOf(err) == apperrors.CodeSupportNotFound:
			report += render.NoSupport(b.loc)
		default:
			return fmt.Errorf("load support for %s: %w", repo.FullName(), err)
		}
		if err := b.reply(ctx, msg, report); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleContributorIssues(ctx context.Context, msg Message, login string) error {
	if login == "" {
		return b.reply(ctx, msg, render.Unknown(b.loc))
	}
	issues, err := b.github.SearchAssignedIssues(ctx, login)
	if err != nil {
		return fmt.Errorf("search issues for %s: %w", login, err)
	}
	matched := github.FilterByLabel(github.OpenIssues(issues), b.labelPattern)

	if len(matched) == 0 {
		return b.reply(ctx, msg, render.NoIssues(b.loc))
	}
	report := render.AssignedHeader(b.loc, login)
	for _, issue := range matched {
		report += render.AvailableIssue(b.loc, issueLink(issue))
	}
	return b.reply(ctx, msg, report)
}

// linkedRepositories resolves the chat's account and its tracked repositories.
// ok is false when the chat is not linked; the user is told to connect first.
func (b *Bot) linkedRepositories(ctx context.Context, msg Message) ([]domain.Repository, bool, error) {
	link, err := b.store.TelegramLinkByChatID(ctx, chatID(msg))
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeTelegramLinkNotFound {
			return nil, false, b.reply(ctx, msg, render.NotLinked(b.loc))
		}
		return nil, false, fmt.Errorf("load telegram link: %w", err)
	}
	repos, err := b.store.RepositoriesByUser(ctx, link.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("load repositories: %w", err)
	}
	if len(repos) == 0 {
		return nil, false, b.reply(ctx, msg, render.NoIssues(b.loc))
	}
	return repos, true, nil
}

func (b *Bot) mainKeyboard() *ReplyKeyboardMarkup {
	return &ReplyKeyboardMarkup{
		Keyboard: [][]KeyboardButton{
			{
				{Text: render.ButtonMissedDeadlines(b.loc)},
				{Text: render.ButtonAvailableIssues(b.loc)},
			},
			{
				{Text: render.ButtonContactSupport(b.loc)},
			},
		},
		ResizeKeyboard: true,
	}
}

func (b *Bot) reply(ctx context.Context, msg Message, text string) error {
	return b.api.SendMessage(ctx, OutgoingMessage{ChatID: chatID(msg), Text: text})
}

func chatID(msg Message) string {
	return strconv.FormatInt(msg.Chat.ID, 10)
}

func mentionFrom(msg Message) string {
	if msg.From == nil {
		return "there"
	}
	return MentionHTML(*msg.From)
}

func issueLink(issue github.Issue) string {
	if issue.HTMLURL == "" {
		return issue.Title
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, issue.HTMLURL, issue.Title)
}
