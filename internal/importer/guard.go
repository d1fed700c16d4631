package importer

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/webitel/table-importer/internal/errors"
)

// Guard confirms the external conversion tool can actually run before a job
// mutates anything.
type Guard interface {
	Verify() error
}

// ExecutableGuard checks the converter binary on every job rather than caching
// the answer: the environment can change between deployments.
type ExecutableGuard struct {
	Path string
}

func (g ExecutableGuard) Verify() error {
	info, err := os.Stat(g.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Internal(
				fmt.Sprintf("converter not found at %s", g.Path),
				errors.WithID("importer.guard.missing"),
			)
		}
		return errors.Internal("unable to stat converter", errors.WithCause(err),
			errors.WithID("importer.guard.stat"))
	}
	if info.IsDir() {
		return errors.Internal(
			fmt.Sprintf("converter path is a directory: %s", g.Path),
			errors.WithID("importer.guard.directory"),
		)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return errors.Internal(
			fmt.Sprintf("converter is not executable: %s", g.Path),
			errors.WithID("importer.guard.not_executable"),
		)
	}

	slog.Debug("table_importer.importer.guard_ok", slog.String("path", g.Path))
	return nil
}
