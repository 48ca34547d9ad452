package github

import (
	"regexp"
	"time"
)

// isRealIssue reports whether the row is an actual issue and not a pull
// request riding along in the issues payload.
func isRealIssue(issue Issue) bool {
	return issue.State == "open" && !issue.Draft && issue.PullRequest == nil
}

// OpenIssues filters the issues payload down to open, non-draft issues.
func OpenIssues(issues []Issue) []Issue {
	var open []Issue
	for _, issue := range issues {
		if isRealIssue(issue) {
			open = append(open, issue)
		}
	}
	return open
}

// AvailableIssues returns open issues nobody is assigned to yet.
func AvailableIssues(issues []Issue) []Issue {
	var available []Issue
	for _, issue := range issues {
		if isRealIssue(issue) && issue.Assignee == nil {
			available = append(available, issue)
		}
	}
	return available
}

// AssignedIssues returns open issues with an assignee.
func AssignedIssues(issues []Issue) []Issue {
	var assigned []Issue
	for _, issue := range issues {
		if isRealIssue(issue) && issue.Assignee != nil {
			assigned = append(assigned, issue)
		}
	}
	return assigned
}

// Assignment is the most recent assignment of an issue.
type Assignment struct {
	Assignee   string
	AssignedAt time.Time
}

// LatestAssignment extracts the last "assigned" entry from an event timeline.
func LatestAssignment(events []Event) (Assignment, bool) {
	var assignment Assignment
	found := false
	for _, event := range events {
		if event.Event != "assigned" {
			continue
		}
		found = true
		if event.Assignee != nil {
			assignment.Assignee = event.Assignee.Login
		}
		assignment.AssignedAt = event.CreatedAt
	}
	return assignment, found
}

// StaleAssignment is an issue held past the repository time limit with no
// open pull request from the assignee.
type StaleAssignment struct {
	Issue      Issue
	Assignee   string
	AssignedAt time.Time
	Held       time.Duration
}

// StaleAssignments pairs assigned issues against open pull requests and
// returns the ones held longer than timeLimit without a PR by the assignee.
// assignments maps issue number to its latest assignment.
func StaleAssignments(issues []Issue, assignments map[int]Assignment, pulls []PullRequest, timeLimit time.Duration, now time.Time) []StaleAssignment {
	pullAuthors := map[string]bool{}
	for _, pull := range pulls {
		if pull.User != nil && pull.User.Login != "" {
			pullAuthors[pull.User.Login] = true
		}
	}

	var stale []StaleAssignment
	for _, issue := range AssignedIssues(issues) {
		assignment, ok := assignments[issue.Number]
		if !ok || assignment.AssignedAt.IsZero() {
			continue
		}
		held := now.Sub(assignment.AssignedAt)
		if held < timeLimit {
			continue
		}
		assignee := assignment.Assignee
		if assignee == "" && issue.Assignee != nil {
			assignee = issue.Assignee.Login
		}
		if pullAuthors[assignee] {
			continue
		}
		stale = append(stale, StaleAssignment{
			Issue:      issue,
			Assignee:   assignee,
			AssignedAt: assignment.AssignedAt,
			Held:       held,
		})
	}
	return stale
}

// NewIssueTitles returns titles present in current but absent from previous.
func NewIssueTitles(current, previous []string) []string {
	seen := map[string]bool{}
	for _, title := range previous {
		seen[title] = true
	}
	var fresh []string
	for _, title := range current {
		if !seen[title] {
			fresh = append(fresh, title)
		}
	}
	return fresh
}

// IssueTitles projects issues to their titles.
func IssueTitles(issues []Issue) []string {
	titles := make([]string, 0, len(issues))
	for _, issue := range issues {
		titles = append(titles, issue.Title)
	}
	return titles
}

// FilterByLabel keeps issues with at least one label matching pattern. A nil
// pattern keeps everything.
func FilterByLabel(issues []Issue, pattern *regexp.Regexp) []Issue {
	if pattern == nil {
		return issues
	}
	var matched []Issue
	for _, issue := range issues {
		for _, label := range issue.Labels {
			if pattern.MatchString(label.Name) {
				matched = append(matched, issue)
				break
			}
		}
	}
	return matched
}

// TimeBeforeDeadline reports how long remains before an assignment expires.
// A negative remaining duration means the deadline already passed.
func TimeBeforeDeadline(assignedAt time.Time, timeLimit time.Duration, now time.Time) time.Duration {
	return assignedAt.Add(timeLimit).Sub(now)
}
