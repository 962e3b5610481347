package migrate

import (
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// Scratch provides the ephemeral directory the source is cloned into.
type Scratch interface {
	// Create makes a new empty directory and returns its path.
	Create() (string, error)
	// Open returns a filesystem rooted at dir.
	Open(dir string) billy.Filesystem
	// Remove deletes dir and everything below it.
	Remove(dir string) error
}

// TempScratch creates clone directories under Parent (os.TempDir when empty).
type TempScratch struct {
	Parent string
}

const scratchPattern = "histmigrate-"

// Create makes a fresh temporary directory.
func (s TempScratch) Create() (string, error) {
	return os.MkdirTemp(s.Parent, scratchPattern)
}

// Open returns an OS filesystem rooted at dir.
func (s TempScratch) Open(dir string) billy.Filesystem {
	return osfs.New(dir)
}

// Remove deletes dir recursively.
func (s TempScratch) Remove(dir string) error {
	return os.RemoveAll(dir)
}

var _ Scratch = TempScratch{}
