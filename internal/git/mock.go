package git

import "context"

// MockSource is a test double for Source.
// It serves predefined history without needing a real Git repository.
type MockSource struct {
	Commits map[string][]string
	Merges  map[string][]string
	Lines   []CommitLine
	Error   error
}

// LogFollowing returns the predefined commits for path.
func (m *MockSource) LogFollowing(_ context.Context, path string) ([]string, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Commits[path], nil
}

// LogMergesFirstParent returns the predefined merges for path.
func (m *MockSource) LogMergesFirstParent(_ context.Context, path string) ([]string, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Merges[path], nil
}

// RevListOneline returns the predefined history.
func (m *MockSource) RevListOneline(_ context.Context) ([]CommitLine, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Lines, nil
}

// CloneCall records one MockCloner.Clone invocation.
type CloneCall struct {
	URL    string
	Branch string
	Dir    string
}

// MockCloner is a test double for Cloner.
type MockCloner struct {
	Source Source
	Error  error
	Calls  []CloneCall

	// OnClone, when set, runs before Clone returns, e.g. to populate dir.
	OnClone func(dir string) error
}

// Clone records the call and returns the predefined source or error.
func (m *MockCloner) Clone(_ context.Context, url, branch, dir string) (Source, error) {
	m.Calls = append(m.Calls, CloneCall{URL: url, Branch: branch, Dir: dir})
	if m.Error != nil {
		return nil, m.Error
	}
	if m.OnClone != nil {
		if err := m.OnClone(dir); err != nil {
			return nil, err
		}
	}
	return m.Source, nil
}

// MockDestination is a test double for Destination.
type MockDestination struct {
	RootDir   string
	SHA       string
	AddError  error
	CommitErr error

	Added   []string
	Commits []CommitMessage
}

// Root returns RootDir.
func (m *MockDestination) Root() string {
	return m.RootDir
}

// Add records the staged paths.
func (m *MockDestination) Add(_ context.Context, paths []string) error {
	if m.AddError != nil {
		return m.AddError
	}
	m.Added = append(m.Added, paths...)
	return nil
}

// Commit records the message and returns SHA.
func (m *MockDestination) Commit(_ context.Context, msg CommitMessage) (string, error) {
	if m.CommitErr != nil {
		return "", m.CommitErr
	}
	m.Commits = append(m.Commits, msg)
	return m.SHA, nil
}

// Compile-time interface conformance checks.
var (
	_ Source      = (*MockSource)(nil)
	_ Cloner      = (*MockCloner)(nil)
	_ Destination = (*MockDestination)(nil)
)
