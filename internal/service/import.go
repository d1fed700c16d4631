package service

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/webitel/table-importer/internal/cache"
	"github.com/webitel/table-importer/internal/errors"
	"github.com/webitel/table-importer/internal/importer"
	"github.com/webitel/table-importer/internal/model"
	"github.com/webitel/table-importer/internal/store"
)

type ImportService interface {
	Import(ctx context.Context, req *ImportRequest) (*ImportResult, error)
	GetHistory(ctx context.Context, tenantID string, page, size int64) (*model.ImportHistoryPage, error)
	GetStatus(ctx context.Context, jobID string) (string, error)
}

type ImportRequest struct {
	TenantID  string
	TableName string
	FileName  string
	File      io.Reader
}

type ImportResult struct {
	JobID string
	Rows  int64
}

// pipeline is what the coordinator provides; narrowed for tests.
type pipeline interface {
	Run(ctx context.Context, job *model.ImportJob, payload io.Reader) (*importer.Result, error)
}

type ImportServiceImpl struct {
	pipeline pipeline
	history  store.HistoryStore
	cache    cache.Cache
	log      *slog.Logger
	timeout  time.Duration

	// active tracks tenants with an import in flight. Two concurrent
	// imports for one tenant would race on staging cleanup, so the second
	// is rejected as busy.
	active sync.Map
}

var (
	tenantRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// tableRE mirrors the store's identifier class. The table name also
	// becomes a staging file name and a converter argument, so it has to be
	// rejected here, before anything touches the filesystem.
	tableRE = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

func NewImportService(p pipeline, history store.HistoryStore, c cache.Cache, log *slog.Logger, timeout time.Duration) (*ImportServiceImpl, error) {
	if p == nil || history == nil || c == nil {
		return nil, errors.Internal("pipeline, history store or cache is nil in ImportService")
	}
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ImportServiceImpl{
		pipeline: p,
		history:  history,
		cache:    c,
		log:      log,
		timeout:  timeout,
	}, nil
}

func (s *ImportServiceImpl) Import(ctx context.Context, req *ImportRequest) (*ImportResult, error) {
	if req == nil || req.TenantID == "" || req.TableName == "" || req.File == nil {
		return nil, errors.InvalidArgument("tenant_id, table and file are required",
			errors.WithID("service.import.bad_args"))
	}
	// The tenant id becomes a path segment and an object-store prefix.
	if !tenantRE.MatchString(req.TenantID) {
		return nil, errors.InvalidArgument("invalid tenant id",
			errors.WithID("service.import.tenant_id"))
	}
	if !tableRE.MatchString(req.TableName) {
		return nil, errors.InvalidArgument("invalid table name",
			errors.WithID("service.import.table_name"))
	}

	if _, inFlight := s.active.LoadOrStore(req.TenantID, struct{}{}); inFlight {
		return nil, errors.Busy("an import for this tenant is already running",
			errors.WithID("service.import.tenant_busy"))
	}
	defer s.active.Delete(req.TenantID)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	job := &model.ImportJob{
		JobID:     uuid.NewString(),
		TenantID:  req.TenantID,
		TableName: req.TableName,
		FileName:  req.FileName,
	}

	historyID := s.recordStart(ctx, job)
	s.setStatus(job.JobID, string(model.ImportStatusProcessing))

	result, err := s.pipeline.Run(ctx, job, req.File)
	if err != nil {
		s.recordFinish(job, historyID, 0, model.ImportStatusFailed, errors.Details(err))
		return nil, err
	}

	s.recordFinish(job, historyID, result.Rows, model.ImportStatusCompleted, "")
	return &ImportResult{JobID: job.JobID, Rows: result.Rows}, nil
}

func (s *ImportServiceImpl) GetHistory(ctx context.Context, tenantID string, page, size int64) (*model.ImportHistoryPage, error) {
	return s.history.GetImportHistory(ctx, tenantID, page, size)
}

func (s *ImportServiceImpl) GetStatus(ctx context.Context, jobID string) (string, error) {
	status, err := s.cache.GetImportStatus(jobID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errors.InvalidArgument("unknown job id",
				errors.WithID("service.import.unknown_job"))
		}
		return "", errors.Internal("unable to read import status", errors.WithCause(err))
	}
	return status, nil
}

// recordStart writes the pending history row. History is bookkeeping: a
// failure here is logged and the import proceeds without it.
func (s *ImportServiceImpl) recordStart(ctx context.Context, job *model.ImportJob) int64 {
	historyID, err := s.history.InsertImportHistory(ctx, &model.NewImportHistory{
		JobID:      job.JobID,
		TenantID:   job.TenantID,
		TableName:  job.TableName,
		FileName:   job.FileName,
		Status:     model.ImportStatusPending,
		UploadedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		s.log.WarnContext(ctx, "table_importer.service.history_insert_failed",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		return 0
	}
	if err := s.cache.SetImportHistoryID(job.JobID, historyID); err != nil {
		s.log.WarnContext(ctx, "table_importer.service.cache_history_id_failed",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
	}
	return historyID
}

func (s *ImportServiceImpl) recordFinish(job *model.ImportJob, historyID, rows int64, status model.ImportStatus, detail string) {
	s.setStatus(job.JobID, string(status))
	if historyID == 0 {
		return
	}

	var detailPtr *string
	if detail != "" {
		detailPtr = &detail
	}
	// Finalization happens even when the request context already expired.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.history.UpdateImportStatus(ctx, &model.UpdateImportStatus{
		ID:       historyID,
		Status:   status,
		RowCount: rows,
		Detail:   detailPtr,
	}); err != nil {
		s.log.Warn("table_importer.service.history_update_failed",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ImportServiceImpl) setStatus(jobID, status string) {
	if err := s.cache.SetImportStatus(jobID, status); err != nil {
		s.log.Warn("table_importer.service.cache_status_failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}
