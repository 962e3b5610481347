package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/masmgr/histmigrate/internal/git"
	"github.com/masmgr/histmigrate/internal/message"
)

const (
	shaM1 = "1111111111111111111111111111111111111111"
	shaC3 = "3333333333333333333333333333333333333333"
	shaX  = "9999999999999999999999999999999999999999"
	shaC2 = "2222222222222222222222222222222222222222"
	shaC1 = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

// memScratch keeps clone directories in memory.
type memScratch struct {
	dirs      map[string]billy.Filesystem
	created   []string
	removed   []string
	removeErr error
}

func newMemScratch() *memScratch {
	return &memScratch{dirs: map[string]billy.Filesystem{}}
}

func (s *memScratch) Create() (string, error) {
	dir := fmt.Sprintf("/scratch/clone-%d", len(s.created)+1)
	s.created = append(s.created, dir)
	s.dirs[dir] = memfs.New()
	return dir, nil
}

func (s *memScratch) Open(dir string) billy.Filesystem {
	return s.dirs[dir]
}

func (s *memScratch) Remove(dir string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, dir)
	delete(s.dirs, dir)
	return nil
}

type fixture struct {
	scratch *memScratch
	cloner  *git.MockCloner
	dest    *git.MockDestination
	destFS  billy.Filesystem
	m       *Migrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		scratch: newMemScratch(),
		dest:    &git.MockDestination{RootDir: "/work/tempest-lib", SHA: "feedface"},
		destFS:  memfs.New(),
	}

	src := &git.MockSource{
		Commits: map[string][]string{
			"tempest/common/rest_client.py": {shaC3, shaC1},
			"tempest/exceptions.py":         {shaC2},
		},
		Merges: map[string][]string{
			"tempest/common/rest_client.py": {shaM1},
		},
		Lines: []git.CommitLine{
			{SHA: shaM1, Subject: "Merge \"Fix rest client\""},
			{SHA: shaC3, Subject: "Fix rest client"},
			{SHA: shaX, Subject: "Unrelated change"},
			{SHA: shaC2, Subject: "Add exceptions"},
			{SHA: shaC1, Subject: "Add rest client"},
		},
	}

	f.cloner = &git.MockCloner{
		Source: src,
		OnClone: func(dir string) error {
			fs := f.scratch.dirs[dir]
			files := map[string]string{
				"tempest/common/rest_client.py": "client\n",
				"tempest/exceptions.py":         "exceptions\n",
				"tempest/services/a.py":         "a\n",
				"tempest/services/a.pyc":        "compiled\n",
			}
			for name, content := range files {
				if err := util.WriteFile(fs, name, []byte(content), 0o644); err != nil {
					return err
				}
			}
			return nil
		},
	}

	f.m = New(f.cloner, f.dest, f.destFS, f.scratch, nil)
	return f
}

func defaultOptions(paths ...string) Options {
	return Options{
		Paths:     paths,
		SourceURL: "git://git.openstack.org/openstack/tempest",
		OutputDir: "tempest_lib",
	}
}

func TestRun_MigratesFilesWithHistory(t *testing.T) {
	f := newFixture(t)

	res, err := f.m.Run(context.Background(), defaultOptions("tempest/common/rest_client.py", "tempest/exceptions.py"))
	require.NoError(t, err)

	require.Len(t, f.cloner.Calls, 1)
	require.Equal(t, "git://git.openstack.org/openstack/tempest", f.cloner.Calls[0].URL)
	require.Equal(t, f.scratch.created, f.scratch.removed, "clone directory must be removed")

	require.Equal(t, []string{"tempest_lib/rest_client.py", "tempest_lib/exceptions.py"}, f.dest.Added)
	require.Equal(t, f.dest.Added, res.Copied)

	data, err := util.ReadFile(f.destFS, "tempest_lib/rest_client.py")
	require.NoError(t, err)
	require.Equal(t, "client\n", string(data))

	require.Len(t, f.dest.Commits, 1)
	expected := "Migrated tempest/common/rest_client.py tempest/exceptions.py from tempest\n" +
		"\n" +
		"This migrates the above files from tempest. This includes tempest commits:\n" +
		"\n" +
		"1111111 Merge \"Fix rest client\"\n" +
		"3333333 Fix rest client\n" +
		"2222222 Add exceptions\n" +
		"aaaaaaa Add rest client\n" +
		"\n" +
		"to see the commit history for these files refer to the above sha1s in the tempest repository\n"
	require.Equal(t, expected, f.dest.Commits[0].String())

	require.Equal(t, "feedface", res.CommitSHA)
	require.Equal(t, 2, res.Files)
	require.Empty(t, res.CloneDir)
}

func TestRun_NoMatchingCommitsStillCommits(t *testing.T) {
	f := newFixture(t)

	res, err := f.m.Run(context.Background(), defaultOptions("tempest/services"))
	require.NoError(t, err)

	require.Empty(t, res.Message.History)
	require.Len(t, f.dest.Commits, 1)
	require.Len(t, f.dest.Commits[0].Paragraphs(), 3)
	require.Equal(t, []string{"tempest_lib/services"}, f.dest.Added)
}

func TestRun_DirectoryWithExclude(t *testing.T) {
	f := newFixture(t)

	opts := defaultOptions("tempest/services/")
	opts.Exclude = []string{"**/*.pyc"}

	res, err := f.m.Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 1, res.Files)

	_, err = f.destFS.Stat("tempest_lib/services/a.py")
	require.NoError(t, err)
	_, err = f.destFS.Stat("tempest_lib/services/a.pyc")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t)

	opts := defaultOptions("tempest/exceptions.py")
	opts.DryRun = true

	res, err := f.m.Run(context.Background(), opts)
	require.NoError(t, err)

	require.Empty(t, f.dest.Added)
	require.Empty(t, f.dest.Commits)
	require.Empty(t, res.CommitSHA)
	require.Equal(t, f.scratch.created, f.scratch.removed)
	require.Equal(t, "Migrated tempest/exceptions.py from tempest", res.Message.Summary)

	_, err = f.destFS.Stat("tempest_lib")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_MissingPathFailsBeforeCommit(t *testing.T) {
	f := newFixture(t)

	_, err := f.m.Run(context.Background(), defaultOptions("tempest/exceptions.py", "tempest/missing.py", "tempest/common/rest_client.py"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)

	var se *StepError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StepCopy, se.Step)
	require.Equal(t, "tempest/missing.py", se.Path)

	require.Equal(t, []string{"tempest_lib/exceptions.py"}, f.dest.Added, "earlier paths stay staged")
	require.Empty(t, f.dest.Commits)
	require.Empty(t, f.scratch.removed, "clone directory is kept on failure")
}

func TestRun_StepErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		setup    func(f *fixture)
		expected Step
	}{
		{
			name:     "Clone",
			setup:    func(f *fixture) { f.cloner.Error = boom },
			expected: StepClone,
		},
		{
			name:     "History",
			setup:    func(f *fixture) { f.cloner.Source = &git.MockSource{Error: boom} },
			expected: StepHistory,
		},
		{
			name:     "Stage",
			setup:    func(f *fixture) { f.dest.AddError = boom },
			expected: StepStage,
		},
		{
			name:     "Cleanup",
			setup:    func(f *fixture) { f.scratch.removeErr = boom },
			expected: StepCleanup,
		},
		{
			name:     "Commit",
			setup:    func(f *fixture) { f.dest.CommitErr = boom },
			expected: StepCommit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			_, err := f.m.Run(context.Background(), defaultOptions("tempest/exceptions.py"))
			require.ErrorIs(t, err, boom)

			step, ok := FailedStep(err)
			require.True(t, ok)
			require.Equal(t, tt.expected, step)
			require.True(t, strings.HasPrefix(err.Error(), string(tt.expected)), "error %q", err)

			if tt.expected != StepCommit {
				require.Empty(t, f.dest.Commits)
			}
		})
	}
}

func TestRun_ValidatesBeforeSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *Options)
	}{
		{name: "No paths", modify: func(o *Options) { o.Paths = nil }},
		{name: "Empty path", modify: func(o *Options) { o.Paths = []string{" "} }},
		{name: "Absolute path", modify: func(o *Options) { o.Paths = []string{"/etc/passwd"} }},
		{name: "Escaping path", modify: func(o *Options) { o.Paths = []string{"../outside.py"} }},
		{name: "Empty URL", modify: func(o *Options) { o.SourceURL = "" }},
		{name: "Invalid exclude", modify: func(o *Options) { o.Exclude = []string{"[oops"} }},
		{name: "Output outside repository", modify: func(o *Options) { o.OutputDir = "../elsewhere" }},
		{name: "Absolute output outside repository", modify: func(o *Options) { o.OutputDir = "/tmp/elsewhere" }},
		{name: "Empty output", modify: func(o *Options) { o.OutputDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			opts := defaultOptions("tempest/exceptions.py")
			tt.modify(&opts)

			_, err := f.m.Run(context.Background(), opts)
			require.Error(t, err)
			require.Empty(t, f.scratch.created)
			require.Empty(t, f.cloner.Calls)
		})
	}
}

func TestRun_NoPathsSentinel(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.Run(context.Background(), Options{SourceURL: "x", OutputDir: "out"})
	require.ErrorIs(t, err, ErrNoPaths)
}

func TestRun_CustomTemplates(t *testing.T) {
	f := newFixture(t)

	opts := defaultOptions("tempest/exceptions.py")
	opts.Templates = message.Templates{SourceName: "nova"}

	res, err := f.m.Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, "Migrated tempest/exceptions.py from nova", res.Message.Summary)
}

func TestResolveOutputDir(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name     string
		dir      string
		expected string
		wantErr  bool
	}{
		{name: "Relative", dir: "tempest_lib", expected: "tempest_lib"},
		{name: "Nested relative", dir: "lib/./sub/", expected: filepath.Join("lib", "sub")},
		{name: "Root", dir: ".", expected: "."},
		{name: "Absolute inside", dir: filepath.Join(root, "tempest_lib"), expected: "tempest_lib"},
		{name: "Absolute root", dir: root, expected: "."},
		{name: "Relative escape", dir: "../x", wantErr: true},
		{name: "Absolute outside", dir: filepath.Dir(root), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveOutputDir(root, tt.dir)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestCleanSourcePaths(t *testing.T) {
	got, err := cleanSourcePaths([]string{"./tempest/common/", "tempest//exceptions.py"})
	require.NoError(t, err)
	require.Equal(t, []string{"tempest/common", "tempest/exceptions.py"}, got)
}
