package vault

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/notefm/internal/shared"
)

// FS is a [Vault] backed by a directory of Markdown files.
//
// Reads go through an in-memory cache so repeated lookups of the same note
// during a session do not hit the disk; Refresh (or the watcher) drops the
// cached copy. Writes are atomic: tmp file, fsync, rename. The "active"
// note is the one most recently opened through OpenNote.
type FS struct {
	root   string
	logger *log.Logger

	mu     sync.RWMutex
	cache  map[string]*Note
	active string

	// open launches the note in the user's editor; swappable for tests.
	open func(string) error
}

// FSOpts contains configuration options for creating an FS vault.
type FSOpts struct {
	Root   string
	Logger *log.Logger
	Open   func(string) error
}

// NewFS creates an FS vault rooted at the given directory, which must
// already exist.
func NewFS(opts FSOpts) (*FS, error) {
	abs, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve vault root: %v", shared.ErrInvalidConfig, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: vault folder %s does not exist", shared.ErrInvalidConfig, opts.Root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: vault path %s is not a directory", shared.ErrInvalidConfig, opts.Root)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	return &FS{
		root:   abs,
		logger: opts.Logger,
		cache:  make(map[string]*Note),
		open:   opts.Open,
	}, nil
}

// Root returns the absolute vault root directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a vault-relative path and rejects anything that
// escapes the root.
func (f *FS) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if cleaned == "" || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: path %q", shared.ErrInvalidArgument, rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: path %q escapes the vault", shared.ErrInvalidArgument, rel)
	}
	return abs, nil
}

// CreateNote writes a new note and returns it. Creating over an existing
// path overwrites it; callers that need get-or-create semantics check
// NoteByPath first.
func (f *FS) CreateNote(ctx context.Context, path, body string) (*Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	if err := f.writeAtomic(abs, []byte(body)); err != nil {
		return nil, err
	}

	fm, noteBody := splitDocument([]byte(body))
	note := &Note{Path: path, Frontmatter: fm, Body: noteBody}

	f.mu.Lock()
	f.cache[path] = note
	f.mu.Unlock()

	f.logger.Debug("note created", "path", path)
	return note, nil
}

// NoteByPath returns the note at path, or nil when it does not exist.
func (f *FS) NoteByPath(path string) *Note {
	f.mu.RLock()
	cached, ok := f.cache[path]
	f.mu.RUnlock()
	if ok {
		return cached
	}

	note, err := f.read(path)
	if err != nil {
		return nil
	}

	f.mu.Lock()
	f.cache[path] = note
	f.mu.Unlock()
	return note
}

// Append adds text to the end of a note's body and writes it through.
func (f *FS) Append(ctx context.Context, note *Note, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if note == nil {
		return fmt.Errorf("%w: nil note", shared.ErrInvalidArgument)
	}

	note.Body += text
	return f.flush(note)
}

// MutateFrontmatter applies fn to the note's frontmatter and writes the
// note through. The note is re-read first so a mutation never clobbers an
// edit made outside the cache.
func (f *FS) MutateFrontmatter(ctx context.Context, note *Note, fn MutateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if note == nil {
		return fmt.Errorf("%w: nil note", shared.ErrInvalidArgument)
	}

	if current, err := f.read(note.Path); err == nil {
		note.Frontmatter = current.Frontmatter
		note.Body = current.Body
	}

	fn(note.Frontmatter)
	return f.flush(note)
}

// ActiveNotePath returns the path of the most recently opened note, or ""
// when none has been opened.
func (f *FS) ActiveNotePath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active
}

// OpenNote hands the note to Obsidian through its URI scheme and records
// it as the active note.
func (f *FS) OpenNote(note *Note) error {
	if note == nil {
		return fmt.Errorf("%w: nil note", shared.ErrInvalidArgument)
	}

	abs, err := f.safePath(note.Path)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.active = note.Path
	f.mu.Unlock()

	uri := "obsidian://open?path=" + url.QueryEscape(abs)
	if err := f.open(uri); err != nil {
		return fmt.Errorf("failed to open note: %w", err)
	}
	return nil
}

// Refresh drops the cached copy and re-reads the note from disk, updating
// it in place.
func (f *FS) Refresh(note *Note) error {
	if note == nil {
		return fmt.Errorf("%w: nil note", shared.ErrInvalidArgument)
	}

	f.mu.Lock()
	delete(f.cache, note.Path)
	f.mu.Unlock()

	current, err := f.read(note.Path)
	if err != nil {
		return err
	}

	note.Frontmatter = current.Frontmatter
	note.Body = current.Body

	f.mu.Lock()
	f.cache[note.Path] = note
	f.mu.Unlock()
	return nil
}

// MoveCursorToEnd is an editor affordance with no filesystem equivalent.
func (f *FS) MoveCursorToEnd() {}

// Invalidate drops a path from the read cache. The watcher calls this when
// a note changes on disk outside this process.
func (f *FS) Invalidate(path string) {
	f.mu.Lock()
	delete(f.cache, path)
	f.mu.Unlock()
}

func (f *FS) read(path string) (*Note, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrNoteNotFound, path)
		}
		return nil, fmt.Errorf("failed to read note %s: %w", path, err)
	}

	fm, body := splitDocument(data)
	return &Note{Path: path, Frontmatter: fm, Body: body}, nil
}

// flush serializes a note and writes it to disk atomically, then refreshes
// the cache entry.
func (f *FS) flush(note *Note) error {
	abs, err := f.safePath(note.Path)
	if err != nil {
		return err
	}

	content, err := encodeDocument(note.Frontmatter, note.Body)
	if err != nil {
		return fmt.Errorf("failed to encode note %s: %w", note.Path, err)
	}
	if err := f.writeAtomic(abs, content); err != nil {
		return err
	}

	f.mu.Lock()
	f.cache[note.Path] = note
	f.mu.Unlock()
	return nil
}

func (f *FS) writeAtomic(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create note folder: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".notefm-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync note: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("failed to replace note: %w", err)
	}
	success = true
	return nil
}
