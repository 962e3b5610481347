package history

import (
	"context"
	"fmt"

	"github.com/masmgr/histmigrate/internal/git"
)

// FileHistory holds the commits found for one requested path.
type FileHistory struct {
	Path    string
	Commits []string // non-merge commits, following renames
	Merges  []string // first-parent merge commits
}

// Total returns the number of identifiers collected for the path.
func (f FileHistory) Total() int {
	return len(f.Commits) + len(f.Merges)
}

// History is the result of extracting the commits relevant to a set of paths.
type History struct {
	Files    []FileHistory
	Combined IDSet
	Ordered  []git.CommitLine
}

// Extract collects the commit and merge sets of every path and orders their
// union by position in the source repository's history, newest first.
func Extract(ctx context.Context, src git.Source, paths []string) (*History, error) {
	h := &History{
		Files:    make([]FileHistory, 0, len(paths)),
		Combined: NewIDSet(),
	}

	for _, p := range paths {
		commits, err := src.LogFollowing(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read history of %s: %w", p, err)
		}
		merges, err := src.LogMergesFirstParent(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read merges of %s: %w", p, err)
		}

		h.Combined.Add(commits...)
		h.Combined.Add(merges...)
		h.Files = append(h.Files, FileHistory{Path: p, Commits: commits, Merges: merges})
	}

	lines, err := src.RevListOneline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	h.Ordered = Order(lines, h.Combined)

	return h, nil
}

// Order keeps the lines whose identifier is in ids, preserving their order.
// Matching is exact set membership on the full identifier.
func Order(lines []git.CommitLine, ids IDSet) []git.CommitLine {
	ordered := make([]git.CommitLine, 0, min(len(lines), ids.Len()))
	for _, l := range lines {
		if ids.Contains(l.SHA) {
			ordered = append(ordered, l)
		}
	}
	return ordered
}
