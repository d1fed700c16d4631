package importer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/webitel/table-importer/internal/errors"
	"github.com/webitel/table-importer/internal/storage"
	"golang.org/x/sync/errgroup"
)

// StagingManager owns the per-tenant scratch directory and its mirrored
// prefix in the remote store. The converter names its output after the table
// only, so a stale file from a previous run would be indistinguishable from a
// fresh result; cleanup before staging is what prevents that.
type StagingManager struct {
	Root   string
	Remote storage.ObjectStore
}

// Dir returns the staging directory for a tenant. Tenant ids are validated at
// the service boundary, so joining here cannot escape the root.
func (m *StagingManager) Dir(tenantID string) string {
	return filepath.Join(m.Root, tenantID)
}

// Prepare wipes any leftovers from a prior job and creates a fresh staging
// directory. Failure to create the directory is fatal for the job.
func (m *StagingManager) Prepare(ctx context.Context, tenantID string) error {
	m.Cleanup(ctx, tenantID)

	if err := os.MkdirAll(m.Dir(tenantID), 0o755); err != nil {
		return errors.Internal("unable to create staging directory",
			errors.WithCause(err),
			errors.WithID("importer.staging.mkdir"),
		)
	}
	return nil
}

// Cleanup removes the local directory and purges the tenant's remote prefix.
// Cleanup failures are logged, never escalated: blocking a new import on the
// previous job's debris would be worse than proceeding.
func (m *StagingManager) Cleanup(ctx context.Context, tenantID string) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := os.RemoveAll(m.Dir(tenantID)); err != nil {
			slog.Warn("table_importer.importer.staging_local_cleanup_failed",
				slog.String("tenant_id", tenantID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	})

	g.Go(func() error {
		keys, err := m.Remote.List(gctx, tenantID+"/")
		if err != nil {
			slog.Warn("table_importer.importer.staging_remote_list_failed",
				slog.String("tenant_id", tenantID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		if len(keys) == 0 {
			return nil
		}
		if err := m.Remote.Delete(gctx, keys); err != nil {
			slog.Warn("table_importer.importer.staging_remote_delete_failed",
				slog.String("tenant_id", tenantID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	})

	_ = g.Wait()
}

// Teardown removes the local staging directory at the end of a job, success
// or failure. Best-effort.
func (m *StagingManager) Teardown(tenantID string) {
	if err := os.RemoveAll(m.Dir(tenantID)); err != nil {
		slog.Warn("table_importer.importer.staging_teardown_failed",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()),
		)
	}
}

// Mirror copies a staged file into the tenant's remote prefix so operators
// can inspect exactly what was imported. Best-effort.
func (m *StagingManager) Mirror(ctx context.Context, tenantID, path string) {
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("table_importer.importer.staging_mirror_open_failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return
	}

	key := tenantID + "/" + filepath.Base(path)
	if err := m.Remote.Put(ctx, key, f, info.Size()); err != nil {
		slog.Warn("table_importer.importer.staging_mirror_failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
