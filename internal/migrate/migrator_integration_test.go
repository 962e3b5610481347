package migrate

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/require"

	"github.com/masmgr/histmigrate/internal/git"
)

func requireGit(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// isolateGitConfig points git and go-git at a throwaway global config that
// carries a commit identity.
func isolateGitConfig(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	writeFile(t, filepath.Join(home, ".gitconfig"),
		"[user]\n\tname = Test\n\temail = test@test.com\n[commit]\n\tgpgsign = false\n[init]\n\tdefaultBranch = main\n")
}

func TestMigrator_EndToEnd(t *testing.T) {
	requireGit(t)
	isolateGitConfig(t)

	source := t.TempDir()
	runGit(t, source, "init")
	writeFile(t, filepath.Join(source, "tempest", "old_client.py"), "v1\n")
	writeFile(t, filepath.Join(source, "tempest", "unrelated.py"), "u\n")
	runGit(t, source, "add", ".")
	runGit(t, source, "commit", "-m", "Add client")
	runGit(t, source, "mv", "tempest/old_client.py", "tempest/rest_client.py")
	runGit(t, source, "commit", "-m", "Rename client")
	writeFile(t, filepath.Join(source, "tempest", "unrelated.py"), "u2\n")
	runGit(t, source, "commit", "-am", "Touch unrelated")
	writeFile(t, filepath.Join(source, "tempest", "rest_client.py"), "v2\n")
	runGit(t, source, "commit", "-am", "Update client")

	want := strings.Split(runGit(t, source, "log", "--format=%h %s", "--", "tempest/rest_client.py", "tempest/old_client.py"), "\n")

	for _, kind := range []git.BackendKind{git.BackendCLI, git.BackendGoGit} {
		t.Run(string(kind), func(t *testing.T) {
			ctx := context.Background()

			destRoot := t.TempDir()
			runGit(t, destRoot, "init")
			writeFile(t, filepath.Join(destRoot, "README"), "dest\n")
			runGit(t, destRoot, "add", "README")
			runGit(t, destRoot, "commit", "-m", "Initial")

			backend := git.NewBackend(kind)
			dest, err := backend.OpenDestination(ctx, destRoot)
			require.NoError(t, err)

			scratchParent := t.TempDir()
			m := New(backend.Cloner, dest, osfs.New(dest.Root()), TempScratch{Parent: scratchParent}, nil)

			res, err := m.Run(ctx, Options{
				Paths:     []string{"tempest/rest_client.py"},
				SourceURL: source,
				OutputDir: "tempest_lib",
			})
			require.NoError(t, err)
			require.NotEmpty(t, res.CommitSHA)

			data, err := os.ReadFile(filepath.Join(destRoot, "tempest_lib", "rest_client.py"))
			require.NoError(t, err)
			require.Equal(t, "v2\n", string(data))

			entries, err := os.ReadDir(scratchParent)
			require.NoError(t, err)
			require.Empty(t, entries, "clone directory must be removed")

			body := runGit(t, destRoot, "log", "-1", "--format=%B")
			require.Equal(t, strings.TrimSpace(res.Message.String()), body)
			require.True(t, strings.HasPrefix(body, "Migrated tempest/rest_client.py from tempest\n"))
			for _, line := range want {
				require.Contains(t, body, line)
			}
			require.NotContains(t, body, "Touch unrelated")

			require.Equal(t, res.CommitSHA, runGit(t, destRoot, "rev-parse", "HEAD"))
		})
	}
}
