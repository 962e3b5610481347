package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONHistoryWriter writes history reports as JSON.
type JSONHistoryWriter struct{}

// JSONHistoryReport is the JSON output structure for a history report.
type JSONHistoryReport struct {
	Source       string             `json:"source"`
	Branch       string             `json:"branch,omitempty"`
	Paths        []string           `json:"paths"`
	GeneratedAt  string             `json:"generatedAt"`
	TotalEntries int                `json:"totalEntries"`
	Files        []JSONFileHistory  `json:"files"`
	Entries      []JSONHistoryEntry `json:"entries"`
}

// JSONFileHistory holds the identifiers collected for one path.
type JSONFileHistory struct {
	Path    string   `json:"path"`
	Commits []string `json:"commits"`
	Merges  []string `json:"merges"`
}

// JSONHistoryEntry is one commit of the ordered history.
type JSONHistoryEntry struct {
	SHA     string   `json:"sha"`
	Abbrev  string   `json:"abbrev"`
	Kind    string   `json:"kind"`
	Subject string   `json:"subject"`
	Paths   []string `json:"paths"`
}

// Write outputs the history report as JSON.
func (w *JSONHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	entries := limitTop(report.Entries, options.Top)
	paths := entryPaths(report)
	kinds := entryKinds(report)

	files := make([]JSONFileHistory, len(report.Files))
	for i, f := range report.Files {
		files[i] = JSONFileHistory{
			Path:    f.Path,
			Commits: nonNil(f.Commits),
			Merges:  nonNil(f.Merges),
		}
	}

	jsonEntries := make([]JSONHistoryEntry, len(entries))
	for i, e := range entries {
		jsonEntries[i] = JSONHistoryEntry{
			SHA:     e.SHA,
			Abbrev:  e.ShortSHA(),
			Kind:    kinds[e.SHA],
			Subject: e.Subject,
			Paths:   nonNil(paths[e.SHA]),
		}
	}

	jsonReport := JSONHistoryReport{
		Source:       report.SourceURL,
		Branch:       report.Branch,
		Paths:        nonNil(report.Paths),
		GeneratedAt:  report.GeneratedAt.Format(reportDateTimeLayout),
		TotalEntries: len(report.Entries),
		Files:        files,
		Entries:      jsonEntries,
	}

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}
	return writeJSON(jsonReport, out)
}

func writeJSON(data interface{}, out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
