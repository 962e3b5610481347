package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// CIHistoryWriter writes history reports as NDJSON (one JSON object per line) for CI pipelines.
type CIHistoryWriter struct{}

// CISummary is the first line of CI output, containing aggregate statistics.
type CISummary struct {
	Type         string   `json:"type"`
	Source       string   `json:"source"`
	Paths        []string `json:"paths"`
	TotalEntries int      `json:"totalEntries"`
	MergeCount   int      `json:"mergeCount"`
}

// CIHistoryEntry represents a single commit in CI output.
type CIHistoryEntry struct {
	Type    string   `json:"type"`
	SHA     string   `json:"sha"`
	Subject string   `json:"subject"`
	Paths   []string `json:"paths"`
}

// Write outputs the history report as NDJSON.
func (w *CIHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	entries := limitTop(report.Entries, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	kinds := entryKinds(report)
	paths := entryPaths(report)

	var merges int
	for _, e := range entries {
		if kinds[e.SHA] == kindMerge {
			merges++
		}
	}

	summary := CISummary{
		Type:         "summary",
		Source:       report.SourceURL,
		Paths:        nonNil(report.Paths),
		TotalEntries: len(entries),
		MergeCount:   merges,
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	for _, e := range entries {
		entry := CIHistoryEntry{
			Type:    kinds[e.SHA],
			SHA:     e.SHA,
			Subject: e.Subject,
			Paths:   nonNil(paths[e.SHA]),
		}
		if err := writeNDJSONLine(out, entry); err != nil {
			return err
		}
	}

	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
