package backup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads and writes whole tables for dump and restore.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ StorePort = (*Repository)(nil)

// DumpTable reads every row of the table into generic maps.
func (r *Repository) DumpTable(ctx context.Context, table string) ([]map[string]any, error) {
	if !knownTable(table) {
		return nil, fmt.Errorf("table %q is not part of the backup set", table)
	}
	rows, err := r.pool.Query(ctx, `SELECT * FROM `+table+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]map[string]any, 0, 64)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		record := make(map[string]any, len(fields))
		for i, field := range fields {
			record[field.Name] = values[i]
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// RestoreTables replaces table contents with the archived rows inside a
// single transaction. Either every table restores or none do.
func (r *Repository) RestoreTables(ctx context.Context, tables map[string][]map[string]any) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Delete in reverse restore order so references go away first.
	for i := len(businessTables) - 1; i >= 0; i-- {
		table := businessTables[i]
		if _, ok := tables[table]; !ok {
			continue
		}
		if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for _, table := range businessTables {
		records, ok := tables[table]
		if !ok {
			continue
		}
		if err := insertRecords(ctx, tx, table, records); err != nil {
			return fmt.Errorf("restore %s: %w", table, err)
		}
	}
	return tx.Commit(ctx)
}

// RecordLog appends a backup_logs row.
func (r *Repository) RecordLog(ctx context.Context, action, filePath string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO backup_logs (action, file_path) VALUES ($1, $2)`, action, filePath)
	return err
}

// ListLogs returns recent backup_logs entries, newest first.
func (r *Repository) ListLogs(ctx context.Context, limit int) ([]Log, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, action, file_path, created_at FROM backup_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.Action, &l.FilePath, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func insertRecords(ctx context.Context, tx pgx.Tx, table string, records []map[string]any) error {
	for _, record := range records {
		cols := make([]string, 0, len(record))
		for col := range record {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		placeholders := make([]string, len(cols))
		args := make([]any, len(cols))
		for i, col := range cols {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = record[col]
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func knownTable(table string) bool {
	for _, t := range businessTables {
		if t == table {
			return true
		}
	}
	return false
}
