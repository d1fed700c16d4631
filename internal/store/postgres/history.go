package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	dberr "github.com/webitel/table-importer/internal/errors"
	"github.com/webitel/table-importer/internal/model"
)

// History implements store.HistoryStore over importer.import_history.
type History struct {
	storage *Store
}

const historyTable = "importer.import_history"

func (h *History) InsertImportHistory(ctx context.Context, input *model.NewImportHistory) (int64, error) {
	db, err := h.storage.Database()
	if err != nil {
		return 0, dberr.NewDBInternalError("postgres.history.insert.database", err)
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	sqlStr, args, err := psql.
		Insert(historyTable).
		Columns("job_id", "tenant_id", "table_name", "file_name", "file_size",
			"status", "uploaded_at", "updated_at").
		Values(input.JobID, input.TenantID, input.TableName, input.FileName,
			input.FileSize, input.Status, input.UploadedAt, input.UploadedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, dberr.NewDBInternalError("postgres.history.insert.build", err)
	}

	var id int64
	if err := db.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, dberr.NewDBInternalError("postgres.history.insert.scan", err)
	}
	return id, nil
}

func (h *History) UpdateImportStatus(ctx context.Context, input *model.UpdateImportStatus) error {
	db, err := h.storage.Database()
	if err != nil {
		return dberr.NewDBInternalError("postgres.history.update.database", err)
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	sqlStr, args, err := psql.
		Update(historyTable).
		Set("status", input.Status).
		Set("row_count", input.RowCount).
		Set("detail", input.Detail).
		Set("updated_at", time.Now().UnixMilli()).
		Where(sq.Eq{"id": input.ID}).
		ToSql()
	if err != nil {
		return dberr.NewDBInternalError("postgres.history.update.build", err)
	}

	if _, err := db.Exec(ctx, sqlStr, args...); err != nil {
		return dberr.NewDBInternalError("postgres.history.update.exec", err)
	}
	return nil
}

func (h *History) GetImportHistory(ctx context.Context, tenantID string, page, size int64) (*model.ImportHistoryPage, error) {
	db, err := h.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("postgres.history.get.database", err)
	}

	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	offset := (page - 1) * size
	limit := size + 1 // fetch one extra to check has_next

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query := psql.
		Select(
			"id",
			"job_id",
			"tenant_id",
			"table_name",
			"file_name",
			"file_size",
			"row_count",
			"status",
			"detail",
			"uploaded_at",
			"updated_at",
		).
		From(historyTable).
		OrderBy("uploaded_at DESC").
		Offset(uint64(offset)).
		Limit(uint64(limit))

	if tenantID != "" {
		query = query.Where(sq.Eq{"tenant_id": tenantID})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, dberr.NewDBInternalError("postgres.history.get.build", err)
	}

	rows, err := db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, dberr.NewDBInternalError("postgres.history.get.query", err)
	}
	defer rows.Close()

	var records []*model.ImportHistory
	for rows.Next() {
		var record model.ImportHistory
		err := rows.Scan(
			&record.ID,
			&record.JobID,
			&record.TenantID,
			&record.TableName,
			&record.FileName,
			&record.FileSize,
			&record.RowCount,
			&record.Status,
			&record.Detail,
			&record.UploadedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, dberr.NewDBInternalError("postgres.history.get.scan", err)
		}
		records = append(records, &record)
	}
	if err = rows.Err(); err != nil {
		return nil, dberr.NewDBInternalError("postgres.history.get.rows", err)
	}

	hasNext := false
	if int64(len(records)) > size {
		hasNext = true
		records = records[:len(records)-1] // drop the extra record
	}

	return &model.ImportHistoryPage{
		Page: page,
		Next: hasNext,
		Data: records,
	}, nil
}
