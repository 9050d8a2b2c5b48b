// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/vault"
)

// MockMusicService is a test double for [services.Service]
type MockMusicService struct {
	SearchResults []models.Item
	SearchErr     error
	Playing       models.Item
	PlayingErr    error
	Recent        []models.Item
	RecentErr     error

	SearchCalls int
	LastQuery   string
}

func (m *MockMusicService) SearchItems(ctx context.Context, query string, kind models.Kind) ([]models.Item, error) {
	m.SearchCalls++
	m.LastQuery = query
	return m.SearchResults, m.SearchErr
}

func (m *MockMusicService) CurrentlyPlaying(ctx context.Context, kind models.Kind) (models.Item, error) {
	return m.Playing, m.PlayingErr
}

func (m *MockMusicService) RecentlyPlayed(ctx context.Context, limit int) ([]models.Item, error) {
	return m.Recent, m.RecentErr
}

func (m *MockMusicService) Name() string { return "mock" }

// MockVault is an in-memory [vault.Vault] that counts writes, so tests can
// assert that note creation is idempotent and never rewrites frontmatter.
type MockVault struct {
	mu    sync.Mutex
	notes map[string]*vault.Note

	CreateCalls   int
	AppendCalls   int
	MutationCalls map[string]int // per path
	OpenedPaths   []string
	RefreshCalls  int
	CursorMoves   int
	Active        string
	CreateErr     error
	MutateErr     error
	AppendErr     error
}

func NewMockVault() *MockVault {
	return &MockVault{
		notes:         make(map[string]*vault.Note),
		MutationCalls: make(map[string]int),
	}
}

func (m *MockVault) CreateNote(ctx context.Context, path, body string) (*vault.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	note := &vault.Note{Path: path, Frontmatter: models.NewFrontmatter(), Body: body}
	m.notes[path] = note
	return note, nil
}

func (m *MockVault) NoteByPath(path string) *vault.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notes[path]
}

func (m *MockVault) Append(ctx context.Context, note *vault.Note, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls++
	if m.AppendErr != nil {
		return m.AppendErr
	}
	note.Body += text
	return nil
}

func (m *MockVault) MutateFrontmatter(ctx context.Context, note *vault.Note, fn vault.MutateFunc) error {
	m.mu.Lock()
	m.MutationCalls[note.Path]++
	if m.MutateErr != nil {
		m.mu.Unlock()
		return m.MutateErr
	}
	m.mu.Unlock()
	// Like the real vault, the lock is not held while fn runs: mutation
	// callbacks are allowed to call back into the vault.
	fn(note.Frontmatter)
	return nil
}

func (m *MockVault) ActiveNotePath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Active
}

func (m *MockVault) OpenNote(note *vault.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenedPaths = append(m.OpenedPaths, note.Path)
	m.Active = note.Path
	return nil
}

func (m *MockVault) Refresh(note *vault.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshCalls++
	return nil
}

func (m *MockVault) MoveCursorToEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CursorMoves++
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
