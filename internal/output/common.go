package output

import (
	"io"
	"os"
	"slices"
)

const reportDateTimeLayout = "2006-01-02T15:04:05"

const (
	kindCommit = "commit"
	kindMerge  = "merge"
)

func limitTop[T any](items []T, top int) []T {
	if top <= 0 || top >= len(items) {
		return items
	}
	return items[:top]
}

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

// entryPaths maps each commit to the requested paths it was collected for,
// in request order.
func entryPaths(report *HistoryReport) map[string][]string {
	out := make(map[string][]string)
	add := func(sha, path string) {
		if !slices.Contains(out[sha], path) {
			out[sha] = append(out[sha], path)
		}
	}
	for _, f := range report.Files {
		for _, sha := range f.Commits {
			add(sha, f.Path)
		}
		for _, sha := range f.Merges {
			add(sha, f.Path)
		}
	}
	return out
}

// entryKinds maps each commit to kindCommit or kindMerge.
func entryKinds(report *HistoryReport) map[string]string {
	out := make(map[string]string)
	for _, f := range report.Files {
		for _, sha := range f.Merges {
			out[sha] = kindMerge
		}
	}
	for _, f := range report.Files {
		for _, sha := range f.Commits {
			out[sha] = kindCommit
		}
	}
	return out
}

// truncateMessage shortens msg to at most maxLen runes, marking the cut with "...".
func truncateMessage(msg string, maxLen int) string {
	runes := []rune(msg)
	if len(runes) <= maxLen {
		return msg
	}
	if maxLen <= 3 {
		return string(runes[:max(maxLen, 0)])
	}
	return string(runes[:maxLen-3]) + "..."
}
