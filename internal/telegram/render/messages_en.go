package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "bot.greeting", "Hello, %s! I watch your repositories and report issues that need attention.")
	message.SetString(lang, "bot.button.missed_deadlines", defaultButtonMissedDeadlines)
	message.SetString(lang, "bot.button.available_issues", defaultButtonAvailableIssues)
	message.SetString(lang, "bot.button.contact_support", defaultButtonContactSupport)
	message.SetString(lang, "bot.repo_header", "<b>%s/%s</b>\n")
	message.SetString(lang, "bot.missed_deadline", "%s held by <b>%s</b> for %d days\n")
	message.SetString(lang, "bot.no_missed_deadlines", "No missed deadlines.")
	message.SetString(lang, "bot.available_issue", "- %s\n")
	message.SetString(lang, "bot.no_issues", "No issues available right now.")
	message.SetString(lang, "bot.support_contact", "Questions? Reach the maintainers at %s.")
	message.SetString(lang, "bot.no_support", "No support contact is registered for this repository.")
	message.SetString(lang, "bot.subscription_on", "You are now subscribed to new issue notifications.")
	message.SetString(lang, "bot.subscription_off", "You are now unsubscribed from new issue notifications.")
	message.SetString(lang, "bot.account_linked", "Your account is linked. Reports will arrive in this chat.")
	message.SetString(lang, "bot.link_failed", "That link is invalid or expired. Generate a fresh one from the dashboard.")
	message.SetString(lang, "bot.not_linked", "This chat is not linked yet. Open the dashboard and connect your account first.")
	message.SetString(lang, "bot.assigned_header", "Issues assigned to <b>%s</b>:\n")
	message.SetString(lang, "bot.new_issues_header", "There are new issues in <b>%s</b>!\n")
	message.SetString(lang, "bot.review_digest_header", "<b>Revisions and approvals</b>\n")
	message.SetString(lang, "bot.review_entry", "Repo <b>%s</b>, pull request <b>#%d %s</b>\n")
	message.SetString(lang, "bot.review_line", "%s: %s\n")
	message.SetString(lang, "bot.unknown", "I did not catch that. Use the keyboard below or send /start.")
}
