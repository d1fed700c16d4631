package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// ErrBusy reports that the converter lock could not be taken within the retry
// budget. Callers map it to a retryable client status, not a failure.
var ErrBusy = errors.New("importer: converter busy")

// Locker serializes every conversion through a single named resource. The
// converter is assumed non-reentrant, so this is a deliberate global
// bottleneck, not a per-tenant one.
type Locker interface {
	// Acquire blocks until the lock is held, the retry budget runs out
	// (ErrBusy), the context expires (ErrBusy), or a fatal error occurs.
	Acquire(ctx context.Context) error
	// Release gives the lock back. It is idempotent and best-effort: a
	// failed delete is logged, never escalated. It must be called exactly
	// once per successful Acquire, on every exit path.
	Release()
}

// FileLock implements Locker with exclusive-create semantics on a sentinel
// file at a fixed path.
type FileLock struct {
	Path     string
	Retries  int
	Interval time.Duration
}

func (l *FileLock) Acquire(ctx context.Context) error {
	retries := l.Retries
	if retries <= 0 {
		retries = 60
	}
	interval := l.Interval
	if interval <= 0 {
		interval = time.Second
	}

	for attempt := 0; attempt < retries; attempt++ {
		f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			_ = f.Close()
			return nil
		}
		if !os.IsExist(err) {
			// Anything but "already exists" is a filesystem fault.
			return err
		}
		if attempt == retries-1 {
			// The budget is spent, no point sleeping one more interval.
			break
		}

		select {
		case <-ctx.Done():
			return ErrBusy
		case <-time.After(interval):
		}
	}
	return ErrBusy
}

func (l *FileLock) Release() {
	if err := os.Remove(l.Path); err != nil && !os.IsNotExist(err) {
		slog.Warn("table_importer.importer.lock_release_failed",
			slog.String("path", l.Path),
			slog.String("error", err.Error()),
		)
	}
}
