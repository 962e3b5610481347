// Package migrate copies files out of a source repository into the
// destination repository and records their upstream history in a single
// commit.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"

	"github.com/masmgr/histmigrate/internal/copier"
	"github.com/masmgr/histmigrate/internal/git"
	"github.com/masmgr/histmigrate/internal/history"
	"github.com/masmgr/histmigrate/internal/logging"
	"github.com/masmgr/histmigrate/internal/message"
)

const component = "migrate"

// Options describes one migration.
type Options struct {
	Paths        []string // relative to the source repository root
	SourceURL    string
	SourceBranch string // empty clones the remote HEAD
	OutputDir    string // relative to the destination root, or absolute inside it
	Exclude      []string
	DryRun       bool
	Templates    message.Templates
}

// Result describes a finished migration.
type Result struct {
	Paths     []string
	OutputDir string
	CloneDir  string
	History   *history.History
	Message   git.CommitMessage
	Copied    []string // destination paths copied and staged
	Files     int      // files written below Copied
	CommitSHA string   // empty on a dry run
}

// Migrator runs migrations against one destination repository.
type Migrator struct {
	cloner  git.Cloner
	dest    git.Destination
	destFS  billy.Filesystem
	scratch Scratch
	log     logrus.FieldLogger
}

// New returns a Migrator. destFS must be rooted at dest.Root().
func New(cloner git.Cloner, dest git.Destination, destFS billy.Filesystem, scratch Scratch, log logrus.FieldLogger) *Migrator {
	if log == nil {
		log = logging.Discard()
	}
	return &Migrator{
		cloner:  cloner,
		dest:    dest,
		destFS:  destFS,
		scratch: scratch,
		log:     log,
	}
}

// Run clones the source, extracts the history of opts.Paths, copies them into
// the output directory, stages them, removes the clone and commits.
//
// Nothing is committed unless every path was copied and staged. On failure
// files already copied stay staged and the clone directory is kept.
func (m *Migrator) Run(ctx context.Context, opts Options) (*Result, error) {
	paths, err := cleanSourcePaths(opts.Paths)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.SourceURL) == "" {
		return nil, errors.New("source repository URL must not be empty")
	}
	copyOpts := copier.Options{Exclude: opts.Exclude}
	if err := copyOpts.Validate(); err != nil {
		return nil, err
	}
	outDir, err := resolveOutputDir(m.dest.Root(), opts.OutputDir)
	if err != nil {
		return nil, err
	}

	res := &Result{Paths: paths, OutputDir: outDir}

	res.CloneDir, err = m.scratch.Create()
	if err != nil {
		return nil, &StepError{Step: StepClone, Err: fmt.Errorf("failed to create clone directory: %w", err)}
	}

	logging.Phase(m.log, component, string(StepClone)).
		WithField("url", opts.SourceURL).
		WithField("dir", res.CloneDir).
		Debug("cloning source repository")

	src, err := m.cloner.Clone(ctx, opts.SourceURL, opts.SourceBranch, res.CloneDir)
	if err != nil {
		return nil, m.fail(res, &StepError{Step: StepClone, Err: err})
	}

	res.History, err = history.Extract(ctx, src, paths)
	if err != nil {
		return nil, m.fail(res, &StepError{Step: StepHistory, Err: err})
	}
	for _, f := range res.History.Files {
		logging.Phase(m.log, component, string(StepHistory)).
			WithField("path", f.Path).
			WithField("commits", len(f.Commits)).
			WithField("merges", len(f.Merges)).
			Debug("collected history")
	}

	res.Message = message.Build(paths, res.History.Ordered, opts.Templates)

	if opts.DryRun {
		if err := m.cleanup(res); err != nil {
			return nil, err
		}
		logging.Info(m.log, component, "dry-run", "dry run finished without copying or committing")
		return res, nil
	}

	srcFS := m.scratch.Open(res.CloneDir)
	for _, p := range paths {
		copied, err := copier.Copy(srcFS, m.destFS, p, outDir, copyOpts)
		if err != nil {
			return nil, m.fail(res, &StepError{Step: StepCopy, Path: p, Err: err})
		}
		if err := m.dest.Add(ctx, []string{copied.Target}); err != nil {
			return nil, m.fail(res, &StepError{Step: StepStage, Path: copied.Target, Err: err})
		}

		res.Copied = append(res.Copied, copied.Target)
		res.Files += copied.Files
		logging.Phase(m.log, component, string(StepCopy)).
			WithField("path", p).
			WithField("target", copied.Target).
			WithField("files", copied.Files).
			WithField("skipped", copied.Skipped).
			Debug("copied and staged")
	}

	if err := m.cleanup(res); err != nil {
		return nil, err
	}

	res.CommitSHA, err = m.dest.Commit(ctx, res.Message)
	if err != nil {
		return nil, &StepError{Step: StepCommit, Err: err}
	}

	logging.Phase(m.log, component, string(StepCommit)).
		WithField("sha", res.CommitSHA).
		WithField("entries", len(res.Message.History)).
		Info("committed migration")

	return res, nil
}

func (m *Migrator) cleanup(res *Result) error {
	if err := m.scratch.Remove(res.CloneDir); err != nil {
		return m.fail(res, &StepError{Step: StepCleanup, Err: fmt.Errorf("failed to remove %s: %w", res.CloneDir, err)})
	}
	res.CloneDir = ""
	return nil
}

func (m *Migrator) fail(res *Result, err *StepError) error {
	entry := logging.Phase(m.log, component, string(err.Step)).WithField(logging.FieldError, err.Err)
	if res.CloneDir != "" {
		entry = entry.WithField("clone", res.CloneDir)
	}
	if len(res.Copied) > 0 {
		entry = entry.WithField("staged", strings.Join(res.Copied, " "))
	}
	entry.Warn("migration aborted")
	return err
}

// cleanSourcePaths normalizes paths to slash separated form relative to the
// source root and rejects paths that leave it.
func cleanSourcePaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		s := filepath.ToSlash(strings.TrimSpace(p))
		if s == "" {
			return nil, errors.New("empty path given to migrate")
		}
		if path.IsAbs(s) || filepath.IsAbs(p) {
			return nil, fmt.Errorf("path %s must be relative to the source repository root", p)
		}
		c := path.Clean(s)
		if c == "." || c == ".." || strings.HasPrefix(c, "../") {
			return nil, fmt.Errorf("path %s is not inside the source repository", p)
		}
		out = append(out, c)
	}
	return out, nil
}

// resolveOutputDir returns dir relative to root. An absolute dir must lie
// inside root.
func resolveOutputDir(root, dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("output directory must not be empty")
	}

	rel := dir
	if filepath.IsAbs(dir) {
		var err error
		rel, err = filepath.Rel(resolvePath(root), resolvePath(dir))
		if err != nil {
			return "", fmt.Errorf("output directory %s: %w", dir, err)
		}
	}

	rel = filepath.Clean(rel)
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output directory %s is outside the destination repository %s", dir, root)
	}
	return rel, nil
}

// resolvePath resolves symlinks in the longest existing prefix of p.
func resolvePath(p string) string {
	p = filepath.Clean(p)
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p
	}
	return filepath.Join(resolvePath(parent), filepath.Base(p))
}
