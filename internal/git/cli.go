package git

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// onelineFormat prints one commit per line as NUL-separated full SHA, abbreviated SHA and subject.
const onelineFormat = "%H%x00%h%x00%s"

// CLI runs operations through the git binary.
type CLI struct {
	// Binary is the git executable; "git" from PATH when empty.
	Binary string
}

// CLISource is a clone queried through the git binary.
type CLISource struct {
	cli *CLI
	dir string
}

// CLIDestination is a destination repository driven through the git binary.
type CLIDestination struct {
	cli  *CLI
	root string
}

// NewCLIDestination opens the repository at root for staging and committing.
func NewCLIDestination(ctx context.Context, cli *CLI, root string) (*CLIDestination, error) {
	out, err := cli.run(ctx, root, nil, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}
	return &CLIDestination{cli: cli, root: strings.TrimSpace(string(out))}, nil
}

// Clone clones url into dir.
func (g *CLI) Clone(ctx context.Context, url, branch, dir string) (Source, error) {
	args := []string{"clone", "--quiet"}
	if b := strings.TrimSpace(branch); b != "" {
		args = append(args, "--branch", b)
	}
	args = append(args, "--", url, dir)

	if _, err := g.run(ctx, "", nil, args...); err != nil {
		return nil, err
	}
	return &CLISource{cli: g, dir: dir}, nil
}

// LogFollowing lists non-merge commits touching path across renames.
func (s *CLISource) LogFollowing(ctx context.Context, path string) ([]string, error) {
	out, err := s.cli.run(ctx, s.dir, nil,
		"log", "--no-color", "--follow", "--no-merges", "--format=%H", "--", path)
	if err != nil {
		return nil, err
	}
	return parseHashes(out), nil
}

// LogMergesFirstParent lists first-parent merge commits touching path.
func (s *CLISource) LogMergesFirstParent(ctx context.Context, path string) ([]string, error) {
	out, err := s.cli.run(ctx, s.dir, nil,
		"log", "--no-color", "--merges", "--first-parent", "--format=%H", "--", path)
	if err != nil {
		return nil, err
	}
	return parseHashes(out), nil
}

// RevListOneline lists every commit reachable from HEAD in rev-list order.
func (s *CLISource) RevListOneline(ctx context.Context) ([]CommitLine, error) {
	out, err := s.cli.run(ctx, s.dir, nil,
		"log", "--no-color", "--format="+onelineFormat, "HEAD")
	if err != nil {
		return nil, err
	}
	return parseOneline(out)
}

// Root returns the worktree root.
func (d *CLIDestination) Root() string {
	return d.root
}

// Add stages paths.
func (d *CLIDestination) Add(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	_, err := d.cli.run(ctx, d.root, nil, args...)
	return err
}

// Commit commits the index with msg read from stdin.
func (d *CLIDestination) Commit(ctx context.Context, msg CommitMessage) (string, error) {
	if _, err := d.cli.run(ctx, d.root, strings.NewReader(msg.String()), "commit", "--quiet", "-F", "-"); err != nil {
		return "", err
	}
	out, err := d.cli.run(ctx, d.root, nil, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (g *CLI) binary() string {
	if g == nil || g.Binary == "" {
		return "git"
	}
	return g.Binary
}

// run executes git in dir and returns stdout. Failures carry git's stderr.
func (g *CLI) run(ctx context.Context, dir string, stdin io.Reader, args ...string) ([]byte, error) {
	full := args
	if dir != "" {
		full = append([]string{"-C", dir}, args...)
	}

	cmd := exec.CommandContext(ctx, g.binary(), full...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git %s failed: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// parseHashes parses one identifier per line, skipping blank lines.
func parseHashes(out []byte) []string {
	var hashes []string
	for _, line := range bytes.Split(out, []byte{'\n'}) {
		h := strings.TrimSpace(string(line))
		if h == "" {
			continue
		}
		hashes = append(hashes, h)
	}
	return hashes
}

// parseOneline parses output produced with onelineFormat.
func parseOneline(out []byte) ([]CommitLine, error) {
	var lines []CommitLine
	for _, rec := range bytes.Split(out, []byte{'\n'}) {
		rec = bytes.TrimRight(rec, "\r")
		if len(rec) == 0 {
			continue
		}

		fields := bytes.SplitN(rec, []byte{0x00}, 3)
		if len(fields) < 3 {
			return nil, fmt.Errorf("unexpected git log line format: %q", string(rec))
		}

		lines = append(lines, CommitLine{
			SHA:     string(fields[0]),
			Abbrev:  string(fields[1]),
			Subject: string(fields[2]),
		})
	}
	return lines, nil
}
