package git

import (
	"context"
	"fmt"
	"strings"
)

// BackendKind selects how git operations are performed.
type BackendKind string

const (
	// BackendCLI shells out to the git binary.
	BackendCLI BackendKind = "git"
	// BackendGoGit uses go-git in-process.
	BackendGoGit BackendKind = "go-git"
)

// ParseBackend parses a backend name. An empty name selects BackendCLI.
func ParseBackend(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "git", "cli", "exec":
		return BackendCLI, nil
	case "go-git", "gogit", "native":
		return BackendGoGit, nil
	default:
		return "", fmt.Errorf("invalid backend %q (expected git or go-git)", s)
	}
}

// Backend bundles the cloner and destination opener of one backend kind.
type Backend struct {
	Kind   BackendKind
	Cloner Cloner

	open func(ctx context.Context, root string) (Destination, error)
}

// NewBackend returns the backend for kind.
func NewBackend(kind BackendKind) Backend {
	if kind == BackendGoGit {
		return Backend{
			Kind:   kind,
			Cloner: &GoGit{},
			open: func(_ context.Context, root string) (Destination, error) {
				return NewGoGitDestination(root)
			},
		}
	}

	cli := &CLI{}
	return Backend{
		Kind:   BackendCLI,
		Cloner: cli,
		open: func(ctx context.Context, root string) (Destination, error) {
			return NewCLIDestination(ctx, cli, root)
		},
	}
}

// OpenDestination opens the repository at root as a migration destination.
func (b Backend) OpenDestination(ctx context.Context, root string) (Destination, error) {
	dest, err := b.open(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination repository %s: %w", root, err)
	}
	return dest, nil
}
