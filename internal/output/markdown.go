package output

import (
	"fmt"
	"strings"
)

// MarkdownHistoryWriter writes history reports as Markdown.
type MarkdownHistoryWriter struct{}

// Write outputs the history report as Markdown.
func (w *MarkdownHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	entries := limitTop(report.Entries, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	// Header
	fmt.Fprintln(out, "# Migration History")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Source:** %s\n\n", report.SourceURL)
	if report.Branch != "" {
		fmt.Fprintf(out, "**Branch:** %s\n\n", report.Branch)
	}
	fmt.Fprintf(out, "**Total Commits:** %d\n\n", len(report.Entries))

	fmt.Fprintln(out, "## Paths")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "| Path | Commits | Merges |")
	fmt.Fprintln(out, "|------|---------|--------|")
	for _, f := range report.Files {
		fmt.Fprintf(out, "| `%s` | %d | %d |\n", f.Path, len(f.Commits), len(f.Merges))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Commits")
	fmt.Fprintln(out)
	if len(entries) == 0 {
		fmt.Fprintln(out, "_No commits touch the requested paths._")
		return nil
	}

	kinds := entryKinds(report)
	fmt.Fprintln(out, "| # | SHA | Kind | Subject |")
	fmt.Fprintln(out, "|---|-----|------|---------|")
	for i, e := range entries {
		fmt.Fprintf(out, "| %d | `%s` | %s | %s |\n", i+1, e.ShortSHA(), kinds[e.SHA], escapeMarkdown(e.Subject))
	}

	return nil
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
