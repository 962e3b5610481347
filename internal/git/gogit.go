package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GoGit performs operations in-process with go-git.
type GoGit struct {
	// Progress receives clone progress output when non-nil.
	Progress io.Writer
}

// GoGitSource is a repository queried with go-git.
type GoGitSource struct {
	repo *gogit.Repository
}

// GoGitDestination is a destination repository driven with go-git.
type GoGitDestination struct {
	repo *gogit.Repository
	wt   *gogit.Worktree
}

// Clone clones url into dir.
func (g *GoGit) Clone(ctx context.Context, url, branch, dir string) (Source, error) {
	opts := &gogit.CloneOptions{URL: url, Progress: g.Progress}
	if b := strings.TrimSpace(branch); b != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(b)
	}

	repo, err := gogit.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return nil, fmt.Errorf("git clone %s failed: %w", url, err)
	}
	return &GoGitSource{repo: repo}, nil
}

// OpenGoGitSource opens an existing local repository as a Source.
func OpenGoGitSource(dir string) (*GoGitSource, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return nil, err
	}
	return &GoGitSource{repo: repo}, nil
}

// RevListOneline lists every commit reachable from HEAD, newest committer time first.
func (s *GoGitSource) RevListOneline(ctx context.Context) ([]CommitLine, error) {
	cIter, err := s.log()
	if err != nil {
		return nil, err
	}
	defer cIter.Close()

	var lines []CommitLine
	err = cIter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		sha := c.Hash.String()
		lines = append(lines, CommitLine{
			SHA:     sha,
			Abbrev:  Abbreviate(sha),
			Subject: subject(c.Message),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// LogFollowing lists non-merge commits that changed p. When a commit
// introduces p through a rename, older commits are matched against the
// previous name.
func (s *GoGitSource) LogFollowing(ctx context.Context, p string) ([]string, error) {
	cIter, err := s.log()
	if err != nil {
		return nil, err
	}
	defer cIter.Close()

	current := cleanPath(p)
	var commits []string

	err = cIter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.NumParents() > 1 {
			return nil
		}

		hash, present, err := entryHash(c, current)
		if err != nil {
			return err
		}

		if c.NumParents() == 0 {
			if present {
				commits = append(commits, c.Hash.String())
			}
			return nil
		}

		parent, err := c.Parent(0)
		if err != nil {
			return err
		}
		parentHash, parentPresent, err := entryHash(parent, current)
		if err != nil {
			return err
		}
		if present == parentPresent && hash == parentHash {
			return nil
		}

		commits = append(commits, c.Hash.String())

		if present && !parentPresent {
			from, err := renamedFrom(ctx, parent, c, current)
			if err != nil {
				return err
			}
			if from != "" {
				current = from
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// LogMergesFirstParent walks the first-parent chain from HEAD and lists the
// merge commits whose tree differs from their first parent at p.
func (s *GoGitSource) LogMergesFirstParent(ctx context.Context, p string) ([]string, error) {
	ref, err := s.repo.Head()
	if err != nil {
		return nil, err
	}
	c, err := s.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, err
	}

	p = cleanPath(p)
	var merges []string

	for c.NumParents() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}

		if c.NumParents() > 1 {
			changed, err := pathChanged(parent, c, p)
			if err != nil {
				return nil, err
			}
			if changed {
				merges = append(merges, c.Hash.String())
			}
		}

		c = parent
	}

	return merges, nil
}

func (s *GoGitSource) log() (object.CommitIter, error) {
	ref, err := s.repo.Head()
	if err != nil {
		return nil, err
	}
	return s.repo.Log(&gogit.LogOptions{From: ref.Hash(), Order: gogit.LogOrderCommitterTime})
}

// NewGoGitDestination opens the repository containing root.
func NewGoGitDestination(root string) (*GoGitDestination, error) {
	repo, err := gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	return &GoGitDestination{repo: repo, wt: wt}, nil
}

// Root returns the worktree root.
func (d *GoGitDestination) Root() string {
	return d.wt.Filesystem.Root()
}

// Add stages paths; directories are added recursively.
func (d *GoGitDestination) Add(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := d.wt.Add(filepath.ToSlash(p)); err != nil {
			return fmt.Errorf("git add %s failed: %w", p, err)
		}
	}
	return nil
}

// Commit commits the index using the identity from the repository's git config.
func (d *GoGitDestination) Commit(ctx context.Context, msg CommitMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sig, err := d.signature()
	if err != nil {
		return "", err
	}

	hash, err := d.wt.Commit(msg.String(), &gogit.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return "", fmt.Errorf("git commit failed: %w", err)
	}
	return hash.String(), nil
}

func (d *GoGitDestination) signature() (*object.Signature, error) {
	cfg, err := d.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return nil, err
	}

	name, email := cfg.Author.Name, cfg.Author.Email
	if name == "" {
		name = cfg.User.Name
	}
	if email == "" {
		email = cfg.User.Email
	}
	if name == "" || email == "" {
		return nil, errors.New("author identity unknown: set user.name and user.email")
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}, nil
}

// cleanPath normalizes a user supplied path to the slash separated form used in trees.
func cleanPath(p string) string {
	p = path.Clean(filepath.ToSlash(p))
	return strings.TrimPrefix(p, "/")
}

// entryHash returns the object hash stored at p in the commit's tree.
// Directories resolve to their tree hash.
func entryHash(c *object.Commit, p string) (plumbing.Hash, bool, error) {
	tree, err := c.Tree()
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	if p == "." || p == "" {
		return tree.Hash, true, nil
	}

	entry, err := tree.FindEntry(p)
	switch {
	case err == nil:
		return entry.Hash, true, nil
	case errors.Is(err, object.ErrEntryNotFound),
		errors.Is(err, object.ErrDirectoryNotFound),
		errors.Is(err, plumbing.ErrObjectNotFound):
		return plumbing.ZeroHash, false, nil
	default:
		return plumbing.ZeroHash, false, err
	}
}

func pathChanged(from, to *object.Commit, p string) (bool, error) {
	fromHash, fromPresent, err := entryHash(from, p)
	if err != nil {
		return false, err
	}
	toHash, toPresent, err := entryHash(to, p)
	if err != nil {
		return false, err
	}
	return fromPresent != toPresent || fromHash != toHash, nil
}

// renamedFrom reports the old name of p when the change from parent to c is a rename.
func renamedFrom(ctx context.Context, parent, c *object.Commit, p string) (string, error) {
	from, err := parent.Tree()
	if err != nil {
		return "", err
	}
	to, err := c.Tree()
	if err != nil {
		return "", err
	}

	changes, err := object.DiffTreeWithOptions(ctx, from, to, object.DefaultDiffTreeOptions)
	if err != nil {
		return "", err
	}

	for _, ch := range changes {
		if ch.To.Name == p && ch.From.Name != "" && ch.From.Name != p {
			return ch.From.Name, nil
		}
	}
	return "", nil
}
