// Package render produces localized chat copy for the tracker bot.
package render

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	defaultButtonMissedDeadlines = "\U0001F4D3 missed deadlines"
	defaultButtonAvailableIssues = "\U0001F4D6 available issues"
	defaultButtonContactSupport  = "\U0001F4AC contact support"
)

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// NewLocalizer returns a printer for a language tag. Unknown tags fall back
// to English.
func NewLocalizer(tag language.Tag) Localizer {
	return message.NewPrinter(tag)
}

// Greeting welcomes a user; mention is an HTML account mention.
func Greeting(loc Localizer, mention string) string {
	return localize(loc, "bot.greeting", mention)
}

// ButtonMissedDeadlines is the reply keyboard label for the deadline report.
func ButtonMissedDeadlines(loc Localizer) string {
	return localizeWithFallback(loc, "bot.button.missed_deadlines", defaultButtonMissedDeadlines)
}

// ButtonAvailableIssues is the reply keyboard label for the open issue list.
func ButtonAvailableIssues(loc Localizer) string {
	return localizeWithFallback(loc, "bot.button.available_issues", defaultButtonAvailableIssues)
}

// ButtonContactSupport is the reply keyboard label for support contacts.
func ButtonContactSupport(loc Localizer) string {
	return localizeWithFallback(loc, "bot.button.contact_support", defaultButtonContactSupport)
}

// RepoHeader labels a per-repository section of a report.
func RepoHeader(loc Localizer, author, name string) string {
	return localize(loc, "bot.repo_header", author, name)
}

// MissedDeadline describes one stale assignment. link is an HTML issue link.
func MissedDeadline(loc Localizer, link, assignee string, days int) string {
	return localize(loc, "bot.missed_deadline", link, assignee, days)
}

// NoMissedDeadlines reports a clean repository.
func NoMissedDeadlines(loc Localizer) string {
	return localize(loc, "bot.no_missed_deadlines")
}

// AvailableIssue lists one unassigned issue. link is an HTML issue link.
func AvailableIssue(loc Localizer, link string) string {
	return localize(loc, "bot.available_issue", link)
}

// NoIssues reports an empty issue list.
func NoIssues(loc Localizer) string {
	return localize(loc, "bot.no_issues")
}

// SupportContact points at a repository's support handle. link is an HTML
// direct-message link.
func SupportContact(loc Localizer, link string) string {
	return localize(loc, "bot.support_contact", link)
}

// NoSupport reports a repository without a registered contact.
func NoSupport(loc Localizer) string {
	return localize(loc, "bot.no_support")
}

// SubscriptionChanged confirms the new-issue notification toggle.
func SubscriptionChanged(loc Localizer, subscribed bool) string {
	if subscribed {
		return localize(loc, "bot.subscription_on")
	}
	return localize(loc, "bot.subscription_off")
}

// AccountLinked confirms a successful deep-link account connection.
func AccountLinked(loc Localizer) string {
	return localize(loc, "bot.account_linked")
}

// LinkFailed reports an invalid or expired deep-link token.
func LinkFailed(loc Localizer) string {
	return localize(loc, "bot.link_failed")
}

// NotLinked asks the user to connect an account first.
func NotLinked(loc Localizer) string {
	return localize(loc, "bot.not_linked")
}

// AssignedHeader labels the issue list of a GitHub login.
func AssignedHeader(loc Localizer, login string) string {
	return localize(loc, "bot.assigned_header", login)
}

// NewIssuesHeader announces fresh issues in a repository.
func NewIssuesHeader(loc Localizer, repo string) string {
	return localize(loc, "bot.new_issues_header", repo)
}

// ReviewDigestHeader opens the recurring review digest.
func ReviewDigestHeader(loc Localizer) string {
	return localize(loc, "bot.review_digest_header")
}

// ReviewEntry labels one pull request inside the review digest.
func ReviewEntry(loc Localizer, repo string, number int, title string) string {
	return localize(loc, "bot.review_entry", repo, number, title)
}

// ReviewLine is one review verdict inside a digest entry.
func ReviewLine(loc Localizer, login, state string) string {
	return localize(loc, "bot.review_line", login, state)
}

// Unknown answers messages the bot does not understand.
func Unknown(loc Localizer) string {
	return localize(loc, "bot.unknown")
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(localize(loc, key))
	if value == "" || value == key {
		return fallback
	}
	return value
}
