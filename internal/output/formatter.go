package output

import (
	"time"

	"github.com/masmgr/histmigrate/internal/git"
	"github.com/masmgr/histmigrate/internal/history"
)

// Compile-time interface conformance checks.
var (
	_ HistoryReportWriter = (*ConsoleHistoryWriter)(nil)
	_ HistoryReportWriter = (*JSONHistoryWriter)(nil)
	_ HistoryReportWriter = (*CSVHistoryWriter)(nil)
	_ HistoryReportWriter = (*MarkdownHistoryWriter)(nil)
	_ HistoryReportWriter = (*CIHistoryWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci"
)

// ParseFormat maps a format name to an OutputFormat. Unknown names select console.
func ParseFormat(s string) OutputFormat {
	switch s {
	case "json":
		return FormatJSON
	case "csv":
		return FormatCSV
	case "markdown", "md":
		return FormatMarkdown
	case "ci", "ndjson":
		return FormatCI
	default:
		return FormatConsole
	}
}

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	Top        int
	OutputPath string
}

// HistoryReport holds the history extracted for a set of source paths.
type HistoryReport struct {
	SourceURL   string
	Branch      string
	Paths       []string
	GeneratedAt time.Time
	Files       []history.FileHistory
	Entries     []git.CommitLine
}

// NewHistoryReport builds a report from an extracted history.
func NewHistoryReport(sourceURL, branch string, paths []string, h *history.History, generatedAt time.Time) *HistoryReport {
	report := &HistoryReport{
		SourceURL:   sourceURL,
		Branch:      branch,
		Paths:       paths,
		GeneratedAt: generatedAt,
	}
	if h != nil {
		report.Files = h.Files
		report.Entries = h.Ordered
	}
	return report
}

// HistoryReportWriter writes history reports.
type HistoryReportWriter interface {
	Write(report *HistoryReport, options OutputOptions) error
}

// NewHistoryReportWriter creates a report writer for the specified format.
func NewHistoryReportWriter(format OutputFormat) HistoryReportWriter {
	switch format {
	case FormatJSON:
		return &JSONHistoryWriter{}
	case FormatCSV:
		return &CSVHistoryWriter{}
	case FormatMarkdown:
		return &MarkdownHistoryWriter{}
	case FormatCI:
		return &CIHistoryWriter{}
	default:
		return &ConsoleHistoryWriter{}
	}
}
