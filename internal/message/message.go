// Package message builds the commit message recorded for a migration.
package message

import (
	"strings"

	"github.com/masmgr/histmigrate/internal/git"
)

// Placeholders recognised in templates.
const (
	PlaceholderFiles  = "{files}"
	PlaceholderSource = "{source}"
)

const (
	DefaultSourceName = "tempest"
	DefaultSummary    = "Migrated {files} from {source}"
	DefaultPreamble   = "This migrates the above files from {source}. This includes {source} commits:"
	DefaultPostscript = "to see the commit history for these files refer to the above sha1s in the {source} repository"
)

// Templates holds the text of the fixed message parts.
type Templates struct {
	SourceName string
	Summary    string
	Preamble   string
	Postscript string
}

// DefaultTemplates returns the built-in message text.
func DefaultTemplates() Templates {
	return Templates{
		SourceName: DefaultSourceName,
		Summary:    DefaultSummary,
		Preamble:   DefaultPreamble,
		Postscript: DefaultPostscript,
	}
}

// Build assembles the message for migrating paths with the given ordered history.
// Empty template fields fall back to the defaults.
func Build(paths []string, history []git.CommitLine, tmpl Templates) git.CommitMessage {
	tmpl = tmpl.withDefaults()

	r := strings.NewReplacer(
		PlaceholderFiles, strings.Join(paths, " "),
		PlaceholderSource, tmpl.SourceName,
	)

	return git.CommitMessage{
		Summary:    oneLine(r.Replace(tmpl.Summary)),
		Preamble:   r.Replace(tmpl.Preamble),
		History:    history,
		Postscript: r.Replace(tmpl.Postscript),
	}
}

func (t Templates) withDefaults() Templates {
	d := DefaultTemplates()
	if strings.TrimSpace(t.SourceName) == "" {
		t.SourceName = d.SourceName
	}
	if strings.TrimSpace(t.Summary) == "" {
		t.Summary = d.Summary
	}
	if strings.TrimSpace(t.Preamble) == "" {
		t.Preamble = d.Preamble
	}
	if strings.TrimSpace(t.Postscript) == "" {
		t.Postscript = d.Postscript
	}
	return t
}

// oneLine folds s so the summary stays a single line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
