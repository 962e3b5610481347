// Package copier copies files and directory trees between billy filesystems.
package copier

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Options configures a copy.
type Options struct {
	// Exclude holds glob patterns for entries inside copied directories
	// that are skipped. Patterns match the slash separated path relative
	// to the copied directory or to the source root.
	Exclude []string
}

// Validate reports the first invalid exclude pattern.
func (o Options) Validate() error {
	for _, pattern := range o.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}

// Result describes a completed copy.
type Result struct {
	Target  string // destination path relative to the destination filesystem
	Files   int    // regular files and symlinks written
	Skipped int    // entries skipped by exclude patterns
}

// Copy copies path from src to destDir/<base of path> on dst. Directories
// are copied recursively; regular files keep their permission bits and
// symlinks are recreated.
func Copy(src, dst billy.Filesystem, path, destDir string, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	path = filepath.Clean(filepath.FromSlash(path))
	info, err := src.Lstat(path)
	if err != nil {
		return Result{}, fmt.Errorf("cannot copy %s: %w", path, err)
	}

	res := Result{Target: dst.Join(filepath.Clean(filepath.FromSlash(destDir)), filepath.Base(path))}

	if !info.IsDir() {
		if err := copyEntry(src, dst, path, res.Target, info); err != nil {
			return res, err
		}
		res.Files = 1
		return res, nil
	}

	err = util.Walk(src, path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}

		if rel != "." && excluded(opts.Exclude, rel, p) {
			res.Skipped++
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if err := copyEntry(src, dst, p, dst.Join(res.Target, rel), fi); err != nil {
			return err
		}
		if !fi.IsDir() {
			res.Files++
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("cannot copy %s: %w", path, err)
	}

	return res, nil
}

func excluded(patterns []string, paths ...string) bool {
	for _, pattern := range patterns {
		for _, p := range paths {
			// Patterns were validated up front, so Match cannot fail here.
			if ok, _ := doublestar.Match(pattern, filepath.ToSlash(p)); ok {
				return true
			}
		}
	}
	return false
}

func copyEntry(src, dst billy.Filesystem, from, to string, info os.FileInfo) error {
	switch {
	case info.IsDir():
		return dst.MkdirAll(to, info.Mode().Perm()|0o700)
	case info.Mode()&os.ModeSymlink != 0:
		return copySymlink(src, dst, from, to)
	default:
		return copyFile(src, dst, from, to, info.Mode().Perm())
	}
}

func copySymlink(src, dst billy.Filesystem, from, to string) error {
	link, err := src.Readlink(from)
	if err != nil {
		return err
	}
	if err := dst.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	if err := dst.Remove(to); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return dst.Symlink(link, to)
}

func copyFile(src, dst billy.Filesystem, from, to string, perm os.FileMode) error {
	if err := dst.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}

	in, err := src.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := dst.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
