package output

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// ConsoleHistoryWriter writes history reports to the console.
type ConsoleHistoryWriter struct{}

// Write outputs the history report as a human readable table.
func (w *ConsoleHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	entries := limitTop(report.Entries, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	heading := color.New(color.FgGreen)
	heading.Fprintln(out, "Migration History")
	fmt.Fprintf(out, "Source: %s\n", report.SourceURL)
	if report.Branch != "" {
		fmt.Fprintf(out, "Branch: %s\n", report.Branch)
	}
	fmt.Fprintf(out, "Paths: %s\n", strings.Join(report.Paths, " "))
	fmt.Fprintf(out, "Total commits: %d\n\n", len(report.Entries))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Path\tCommits\tMerges")
	for _, f := range report.Files {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", f.Path, len(f.Commits), len(f.Merges))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)

	if len(entries) == 0 {
		color.New(color.FgYellow).Fprintln(out, "No commits touch the requested paths.")
		return nil
	}

	kinds := entryKinds(report)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSHA\tKind\tSubject")
	for i, e := range entries {
		kind := kinds[e.SHA]
		if kind == kindMerge {
			kind = color.CyanString(kind)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, e.ShortSHA(), kind, truncateMessage(e.Subject, 72))
	}
	return tw.Flush()
}
