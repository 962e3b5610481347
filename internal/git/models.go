package git

import (
	"strings"
)

// abbrevLen is the default abbreviation length git uses for object names.
const abbrevLen = 7

// CommitLine represents one entry of the one-line commit history.
type CommitLine struct {
	SHA     string
	Abbrev  string
	Subject string
}

// String renders the line the way `git log --oneline` does.
func (l CommitLine) String() string {
	if l.Subject == "" {
		return l.ShortSHA()
	}
	return l.ShortSHA() + " " + l.Subject
}

// ShortSHA returns the abbreviated identifier, deriving one from SHA when unset.
func (l CommitLine) ShortSHA() string {
	if l.Abbrev != "" {
		return l.Abbrev
	}
	return Abbreviate(l.SHA)
}

// Abbreviate shortens a full commit identifier to the default abbreviation length.
func Abbreviate(sha string) string {
	if len(sha) <= abbrevLen {
		return sha
	}
	return sha[:abbrevLen]
}

// CommitMessage is a migration commit message split into its paragraphs.
type CommitMessage struct {
	Summary    string
	Preamble   string
	History    []CommitLine
	Postscript string
}

// HistoryBlock renders the history entries one per line.
func (m CommitMessage) HistoryBlock() string {
	lines := make([]string, len(m.History))
	for i, l := range m.History {
		lines[i] = l.String()
	}
	return strings.Join(lines, "\n")
}

// Paragraphs returns the non-empty paragraphs in message order.
func (m CommitMessage) Paragraphs() []string {
	var paragraphs []string
	for _, p := range []string{m.Summary, m.Preamble, m.HistoryBlock(), m.Postscript} {
		if strings.TrimSpace(p) == "" {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}

// String renders the full message with paragraphs separated by a blank line.
func (m CommitMessage) String() string {
	return strings.Join(m.Paragraphs(), "\n\n") + "\n"
}

// subject extracts the subject of a commit message: the first paragraph
// folded onto one line, as git's %s placeholder does.
func subject(message string) string {
	message = strings.TrimLeft(message, "\n")
	if idx := strings.Index(message, "\n\n"); idx != -1 {
		message = message[:idx]
	}
	lines := strings.Split(message, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}
