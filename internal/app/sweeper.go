package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// StartStagingSweeper launches a background loop that removes staging
// directories and sentinel lock files left behind by crashed jobs. A live job
// touches its files constantly, so anything older than the stale threshold is
// debris.
func (app *App) StartStagingSweeper(ctx context.Context) {
	interval := app.Config.Import.SweepInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	staleAfter := app.Config.Import.StaleAfter
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}

	slog.InfoContext(ctx, "starting staging sweeper",
		"interval", interval.String(),
		"stale_after", staleAfter.String(),
	)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				app.sweepOnce(ctx, staleAfter)
			}
		}
	}()
}

func (app *App) sweepOnce(ctx context.Context, staleAfter time.Duration) {
	cutoff := time.Now().Add(-staleAfter)
	root := app.Config.Import.StagingRoot

	entries, err := os.ReadDir(root)
	if err != nil {
		slog.WarnContext(ctx, "table_importer.sweeper.read_root_failed",
			slog.String("root", root),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			slog.WarnContext(ctx, "table_importer.sweeper.remove_failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		slog.InfoContext(ctx, "table_importer.sweeper.removed_stale_staging",
			slog.String("path", path),
		)
	}

	// A lock file older than the threshold means its holder died without
	// releasing. Removing it restores imports without manual intervention.
	if info, err := os.Stat(app.lockFile); err == nil && info.ModTime().Before(cutoff) {
		if err := os.Remove(app.lockFile); err == nil {
			slog.WarnContext(ctx, "table_importer.sweeper.removed_stale_lock",
				slog.String("path", app.lockFile),
			)
		}
	}
}
