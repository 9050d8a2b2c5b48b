// package tasks implements exports of the local listening history.
//
// The core abstraction is ExportEngine, which renders history records into
// portable files. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/shared"
)

// HistorySource lists history records, newest first. Satisfied by
// [repositories.ScrobbleRepository].
type HistorySource interface {
	List(limit int) ([]*models.Scrobble, error)
}

// ExportOpts contains configuration for history exports.
type ExportOpts struct {
	Format    string // Export format: json, csv, markdown
	OutputDir string // Base output directory (default: notefm_export_{epoch})
	Limit     int    // Max records to export (default: all stored)
}

// ExportResult summarizes a finished export.
type ExportResult struct {
	Records   int
	Format    string
	FilePath  string
	StartedAt time.Time
	Duration  time.Duration
}

// ExportEngine renders history records into export files.
type ExportEngine struct {
	history HistorySource
}

// NewExportEngine creates an ExportEngine over a history source.
func NewExportEngine(history HistorySource) *ExportEngine {
	return &ExportEngine{history: history}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// ExportHistory writes the listening history to a file in the requested
// format and returns a summary of what was written.
func (e *ExportEngine) ExportHistory(ctx context.Context, prog chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if e.history == nil {
		return nil, fmt.Errorf("%w: history source", shared.ErrMissingArgument)
	}

	started := time.Now()

	if opts.Format == "" {
		opts.Format = "csv"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("notefm_export_%d", started.Unix())
	}
	if opts.Limit <= 0 {
		opts.Limit = 10000
	}

	e.sendProgress(prog, loadHistoryUpdate(1, 3))
	records, err := e.history.List(opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.sendProgress(prog, renderUpdate(2, 3, len(records)))
	var content []byte
	var filename string
	switch opts.Format {
	case "csv":
		content, err = renderCSV(records)
		filename = "history.csv"
	case "json":
		content, err = renderJSON(records)
		filename = "history.json"
	case "markdown", "md":
		content = renderMarkdown(records)
		filename = "history.md"
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}

	e.sendProgress(prog, writtenUpdate(3, 3, path, len(records)))

	return &ExportResult{
		Records:   len(records),
		Format:    opts.Format,
		FilePath:  path,
		StartedAt: started,
		Duration:  time.Since(started),
	}, nil
}

func renderCSV(records []*models.Scrobble) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Logged At", "Kind", "Name", "Artists", "Note", "Anchor", "Entry"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.CreatedAt.Format(time.RFC3339),
			string(record.ItemKind),
			record.ItemName,
			record.Artists,
			record.NotePath,
			record.BlockAnchor,
			record.Body,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func renderJSON(records []*models.Scrobble) ([]byte, error) {
	type entry struct {
		LoggedAt string `json:"logged_at"`
		Kind     string `json:"kind"`
		Name     string `json:"name"`
		Artists  string `json:"artists"`
		Note     string `json:"note"`
		Anchor   string `json:"anchor,omitempty"`
		Entry    string `json:"entry,omitempty"`
	}

	entries := make([]entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, entry{
			LoggedAt: record.CreatedAt.Format(time.RFC3339),
			Kind:     string(record.ItemKind),
			Name:     record.ItemName,
			Artists:  record.Artists,
			Note:     record.NotePath,
			Anchor:   record.BlockAnchor,
			Entry:    record.Body,
		})
	}

	return json.MarshalIndent(entries, "", "  ")
}

func renderMarkdown(records []*models.Scrobble) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Listening History\n\n")
	buf.WriteString("| Logged At | Kind | Name | Artists | Note |\n")
	buf.WriteString("|-----------|------|------|---------|------|\n")
	for _, record := range records {
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s |\n",
			record.CreatedAt.Format("2006-01-02 15:04"),
			record.ItemKind,
			record.ItemName,
			record.Artists,
			record.NotePath,
		)
	}

	return buf.Bytes()
}
