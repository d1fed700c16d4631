package postgres

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	dberr "github.com/webitel/table-importer/internal/errors"
)

// Table implements store.TableStore on top of pgx.
type Table struct {
	storage *Store
}

// identRE accepts the snake_case identifiers the dashboard tables use. Table
// and column names end up in SQL text, so anything else is rejected outright.
var identRE = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

const tenantColumn = "table_id"

func (t *Table) Replace(ctx context.Context, tableName, tableID string, columns []string, rows [][]any) (int64, error) {
	if !identRE.MatchString(tableName) {
		return 0, dberr.InvalidArgument(fmt.Sprintf("invalid table name: %q", tableName))
	}
	for _, col := range columns {
		if !identRE.MatchString(col) {
			return 0, dberr.InvalidArgument(fmt.Sprintf("invalid column name: %q", col))
		}
		if col == tenantColumn {
			return 0, dberr.InvalidArgument("imported data must not carry a table_id column")
		}
	}

	db, err := t.storage.Database()
	if err != nil {
		return 0, dberr.NewDBInternalError("postgres.table.replace.database", err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, dberr.NewDBInternalError("postgres.table.replace.begin", err)
	}
	defer tx.Rollback(ctx)

	ident := pgx.Identifier{tableName}
	if _, err := tx.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = $1", ident.Sanitize(), tenantColumn),
		tableID,
	); err != nil {
		return 0, dberr.NewDBInternalError("postgres.table.replace.delete", err)
	}

	copyColumns := append(append([]string{}, columns...), tenantColumn)
	copyRows := make([][]any, len(rows))
	for i, row := range rows {
		copyRows[i] = append(append([]any{}, row...), tableID)
	}

	inserted, err := tx.CopyFrom(ctx, ident, copyColumns, pgx.CopyFromRows(copyRows))
	if err != nil {
		return 0, dberr.NewDBInternalError("postgres.table.replace.insert", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, dberr.NewDBInternalError("postgres.table.replace.commit", err)
	}
	return inserted, nil
}
