package output

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// CSVHistoryWriter writes history reports as CSV.
type CSVHistoryWriter struct{}

// Write outputs one row per ordered history entry.
func (w *CSVHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	entries := limitTop(report.Entries, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"Position", "SHA", "Abbrev", "Kind", "Subject", "Paths"}); err != nil {
		return err
	}

	paths := entryPaths(report)
	kinds := entryKinds(report)
	for i, e := range entries {
		row := []string{
			fmt.Sprintf("%d", i+1),
			e.SHA,
			e.ShortSHA(),
			kinds[e.SHA],
			e.Subject,
			strings.Join(paths[e.SHA], " "),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
