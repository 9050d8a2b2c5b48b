package main

import (
	"context"

	"github.com/desertthunder/notefm/internal/tasks"
	"github.com/urfave/cli/v3"
)

// History lists locally logged entries, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	scrobbles, err := r.scrobbleRepo()
	if err != nil {
		return err
	}

	records, err := scrobbles.List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		return r.writePlain("No logged entries yet\n")
	}

	for _, record := range records {
		r.writePlain("%s  %-5s  %s - %s\n",
			record.CreatedAt.Format("2006-01-02 15:04"),
			record.ItemKind,
			record.Artists,
			record.ItemName,
		)
	}
	return nil
}

// HistoryExport renders the log history into an export file.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	scrobbles, err := r.scrobbleRepo()
	if err != nil {
		return err
	}

	engine := tasks.NewExportEngine(scrobbles)

	prog := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()

	result, err := engine.ExportHistory(ctx, prog, tasks.ExportOpts{
		Format:    cmd.String("format"),
		OutputDir: cmd.String("output"),
		Limit:     cmd.Int("limit"),
	})
	close(prog)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d entries to %s\n", result.Records, result.FilePath)
	return nil
}
