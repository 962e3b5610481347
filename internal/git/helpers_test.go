package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fixtureRepo is a repository built with the git binary for backend tests.
type fixtureRepo struct {
	t    *testing.T
	dir  string
	tick int
	base time.Time
}

func requireGit(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func newFixtureRepo(t *testing.T) *fixtureRepo {
	t.Helper()
	r := &fixtureRepo{
		t:    t,
		dir:  t.TempDir(),
		base: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	r.git("init", "-b", "main")
	r.git("config", "user.name", "Test")
	r.git("config", "user.email", "test@test.com")
	r.git("config", "commit.gpgsign", "false")
	return r
}

// git runs a git command; each call that may create a commit gets a later timestamp.
func (r *fixtureRepo) git(args ...string) string {
	r.t.Helper()

	r.tick++
	when := fmt.Sprintf("%d +0000", r.base.Add(time.Duration(r.tick)*time.Hour).Unix())

	cmd := exec.Command("git", append([]string{"-C", r.dir}, args...)...)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test",
		"GIT_COMMITTER_EMAIL=test@test.com",
		"GIT_AUTHOR_DATE="+when,
		"GIT_COMMITTER_DATE="+when,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %v failed: %v: %s", args, err, string(out))
	}
	return strings.TrimSpace(string(out))
}

func (r *fixtureRepo) write(name, content string) {
	r.t.Helper()
	path := filepath.Join(r.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatal(err)
	}
}

func (r *fixtureRepo) commit(msg string, files map[string]string) string {
	r.t.Helper()
	for name, content := range files {
		r.write(name, content)
		r.git("add", name)
	}
	r.git("commit", "-m", msg)
	return r.git("rev-parse", "HEAD")
}

// historyFixture builds:
//
//	c1 add old.txt, other.txt
//	c2 edit old.txt
//	c3 rename old.txt -> new.txt
//	c4 edit other.txt
//	c5 edit new.txt (on feature, branched at c4)
//	c6 edit other.txt (on main)
//	m1 merge feature into main
//	c8 edit new.txt
func historyFixture(t *testing.T) (*fixtureRepo, map[string]string) {
	t.Helper()
	r := newFixtureRepo(t)
	ids := map[string]string{}

	ids["c1"] = r.commit("add old and other", map[string]string{
		"old.txt":   "line one\nline two\nline three\n",
		"other.txt": "other\n",
	})
	ids["c2"] = r.commit("edit old", map[string]string{
		"old.txt": "line one\nline two\nline three\nline four\n",
	})
	r.git("mv", "old.txt", "new.txt")
	r.git("commit", "-m", "rename old to new")
	ids["c3"] = r.git("rev-parse", "HEAD")
	ids["c4"] = r.commit("edit other", map[string]string{"other.txt": "other 2\n"})

	r.git("checkout", "-b", "feature")
	ids["c5"] = r.commit("feature edit new", map[string]string{
		"new.txt": "line one\nline two\nline three\nline four\nfeature\n",
	})

	r.git("checkout", "main")
	ids["c6"] = r.commit("main edit other", map[string]string{"other.txt": "other 3\n"})
	r.git("merge", "--no-ff", "-m", "Merge feature", "feature")
	ids["m1"] = r.git("rev-parse", "HEAD")

	ids["c8"] = r.commit("final edit new", map[string]string{
		"new.txt": "line one\nline two\nline three\nline four\nfeature\nfinal\n",
	})

	return r, ids
}

func pick(ids map[string]string, names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = ids[n]
	}
	return out
}

func shas(lines []CommitLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.SHA
	}
	return out
}
