package importer

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/webitel/table-importer/internal/errors"
	"github.com/webitel/table-importer/internal/model"
	"github.com/webitel/table-importer/internal/store"
)

// Coordinator runs one import end to end: guard check, staging, conversion
// under the global lock, CSV parse, transactional replace. The flow is
// strictly linear; every failure path releases the lock if held and tears the
// staging area down before the error surfaces.
type Coordinator struct {
	guard     Guard
	lock      Locker
	staging   *StagingManager
	converter Converter
	tables    store.TableStore
}

type Result struct {
	Rows int64
}

func NewCoordinator(guard Guard, lock Locker, staging *StagingManager, converter Converter, tables store.TableStore) *Coordinator {
	return &Coordinator{
		guard:     guard,
		lock:      lock,
		staging:   staging,
		converter: converter,
		tables:    tables,
	}
}

// Run executes the pipeline for one job. The payload is the uploaded file's
// content; job identity and names must already be validated by the caller.
func (c *Coordinator) Run(ctx context.Context, job *model.ImportJob, payload io.Reader) (*Result, error) {
	if err := c.guard.Verify(); err != nil {
		return nil, err
	}

	if job.TenantID == "" || job.TableName == "" || payload == nil {
		return nil, errors.InvalidArgument("tenant id, table name and file are required",
			errors.WithID("importer.run.bad_args"))
	}

	if err := c.staging.Prepare(ctx, job.TenantID); err != nil {
		return nil, err
	}
	job.StagingDir = c.staging.Dir(job.TenantID)
	defer c.staging.Teardown(job.TenantID)

	if err := c.writeInput(job, payload); err != nil {
		return nil, err
	}
	c.staging.Mirror(ctx, job.TenantID, job.InputPath())

	// The lock covers conversion and the output read only: the tool shares
	// working files across invocations, the database phase does not.
	columns, rows, err := c.convertLocked(ctx, job)
	if err != nil {
		return nil, err
	}

	inserted, err := c.tables.Replace(ctx, job.TableName, job.TenantID, columns, rows)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "table_importer.importer.import_completed",
		slog.String("job_id", job.JobID),
		slog.String("tenant_id", job.TenantID),
		slog.String("table", job.TableName),
		slog.Int64("rows", inserted),
	)
	return &Result{Rows: inserted}, nil
}

func (c *Coordinator) writeInput(job *model.ImportJob, payload io.Reader) error {
	f, err := os.Create(job.InputPath())
	if err != nil {
		return errors.Internal("unable to create input file", errors.WithCause(err),
			errors.WithID("importer.run.input_create"))
	}
	written, err := io.Copy(f, payload)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Internal("unable to write input file", errors.WithCause(err),
			errors.WithID("importer.run.input_write"))
	}

	// Post-write verification; the size is diagnostics only.
	info, err := os.Stat(job.InputPath())
	if err != nil {
		return errors.Internal("input file missing after write", errors.WithCause(err),
			errors.WithID("importer.run.input_verify"))
	}
	job.FileSize = info.Size()

	slog.Debug("table_importer.importer.input_staged",
		slog.String("job_id", job.JobID),
		slog.Int64("bytes", written),
	)
	return nil
}

// convertLocked holds the global lock across the converter run and the
// immediately following output read, releasing it before the database phase.
func (c *Coordinator) convertLocked(ctx context.Context, job *model.ImportJob) ([]string, [][]any, error) {
	if err := c.lock.Acquire(ctx); err != nil {
		if errors.Is(err, ErrBusy) {
			return nil, nil, errors.Busy("another import is converting, retry later",
				errors.WithID("importer.run.lock_busy"))
		}
		return nil, nil, errors.Internal("unable to acquire converter lock",
			errors.WithCause(err), errors.WithID("importer.run.lock"))
	}
	defer c.lock.Release()

	if err := c.converter.Convert(ctx, job); err != nil {
		return nil, nil, err
	}

	out, err := os.Open(job.OutputPath())
	if err != nil {
		return nil, nil, errors.Internal("unable to open converter output",
			errors.WithCause(err), errors.WithID("importer.run.output_open"))
	}
	defer out.Close()

	return ParseCSV(out)
}
