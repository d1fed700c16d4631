package importer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/webitel/table-importer/internal/errors"
	"github.com/webitel/table-importer/internal/model"
)

// Converter transforms a staged input file into the CSV the pipeline loads.
// The production implementation shells out to the external tool; tests
// substitute a stub.
type Converter interface {
	Convert(ctx context.Context, job *model.ImportJob) error
}

// outputPollInterval is how often ExecConverter re-checks for the output file
// after the tool exits. The tool flushes asynchronously, so the file can
// appear shortly after process exit.
const outputPollInterval = 100 * time.Millisecond

// ExecConverter invokes the external conversion executable as a child
// process. The tool uses fixed working files in its own directory, which is
// why conversions are serialized by the caller.
type ExecConverter struct {
	Path string
	// OutputWait bounds how long to wait for the output file to appear
	// after a zero exit.
	OutputWait time.Duration
}

func (c *ExecConverter) Convert(ctx context.Context, job *model.ImportJob) error {
	cmd := exec.CommandContext(ctx, c.Path, job.TableName, job.TenantID, "csv")
	cmd.Dir = filepath.Dir(c.Path)
	cmd.Env = append(os.Environ(),
		"IMPORT_INPUT_FILE="+job.InputPath(),
		"IMPORT_OUTPUT_DIR="+job.StagingDir,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	slog.Debug("table_importer.importer.converter_finished",
		slog.String("job_id", job.JobID),
		slog.String("stdout", stdout.String()),
		slog.String("stderr", stderr.String()),
	)
	if err != nil {
		return errors.Internal(
			fmt.Sprintf("converter failed: %v: %s", err, stderr.String()),
			errors.WithID("importer.converter.exit"),
		)
	}

	if err := c.waitForOutput(ctx, job.OutputPath()); err != nil {
		return err
	}
	return nil
}

// waitForOutput polls until the output file exists or the wait budget runs
// out. This replaces a fixed settle sleep: the delay was only ever a buffer
// for the tool's flush-at-exit behavior, not a guarantee.
func (c *ExecConverter) waitForOutput(ctx context.Context, path string) error {
	wait := c.OutputWait
	if wait <= 0 {
		wait = 10 * time.Second
	}
	deadline := time.Now().Add(wait)

	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Internal(
				fmt.Sprintf("conversion did not produce output: %s", filepath.Base(path)),
				errors.WithID("importer.converter.no_output"),
			)
		}
		select {
		case <-ctx.Done():
			return errors.Internal("conversion canceled", errors.WithCause(ctx.Err()),
				errors.WithID("importer.converter.canceled"))
		case <-time.After(outputPollInterval):
		}
	}
}
