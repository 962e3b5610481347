package git

import "context"

// Source is a cloned repository whose history can be queried.
// Every identifier it returns is a full commit SHA.
type Source interface {
	// LogFollowing returns the non-merge commits that touched path, following renames, newest first.
	LogFollowing(ctx context.Context, path string) ([]string, error)

	// LogMergesFirstParent returns the merge commits on the first-parent chain that changed path.
	LogMergesFirstParent(ctx context.Context, path string) ([]string, error)

	// RevListOneline returns every commit reachable from HEAD in rev-list order (newest first).
	RevListOneline(ctx context.Context) ([]CommitLine, error)
}

// Cloner clones a remote repository into a local directory.
type Cloner interface {
	// Clone clones url into dir. An empty branch clones the remote's default HEAD.
	Clone(ctx context.Context, url, branch, dir string) (Source, error)
}

// Destination is the repository receiving migrated files.
type Destination interface {
	// Root returns the worktree root of the repository.
	Root() string

	// Add stages paths relative to Root.
	Add(ctx context.Context, paths []string) error

	// Commit records the staged changes and returns the new commit SHA.
	Commit(ctx context.Context, msg CommitMessage) (string, error)
}

// Compile-time interface conformance checks.
var (
	_ Cloner      = (*CLI)(nil)
	_ Source      = (*CLISource)(nil)
	_ Destination = (*CLIDestination)(nil)

	_ Cloner      = (*GoGit)(nil)
	_ Source      = (*GoGitSource)(nil)
	_ Destination = (*GoGitDestination)(nil)
)
