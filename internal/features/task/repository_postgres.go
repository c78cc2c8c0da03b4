package task

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-fwpm/internal/database"
)

const createTasksTable = `
CREATE TABLE IF NOT EXISTS implementation_tasks (
	id           BIGSERIAL PRIMARY KEY,
	category     TEXT NOT NULL,
	site_name    TEXT NOT NULL,
	node_id      TEXT NOT NULL,
	implementor  TEXT NOT NULL,
	status       TEXT NOT NULL,
	comments     TEXT NOT NULL DEFAULT '',
	scripts_path TEXT NOT NULL DEFAULT '',
	date_created TEXT NOT NULL,
	last_updated TEXT NOT NULL,
	import_id    TEXT,
	import_row   INTEGER,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createTasksImportIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS implementation_tasks_import_uidx
	ON implementation_tasks (import_id, import_row)
	WHERE import_id IS NOT NULL`

const insertTaskColumns = `category, site_name, node_id, implementor, status, comments, scripts_path, date_created, last_updated, import_id, import_row, created_at`

const insertTaskBatch = `INSERT INTO implementation_tasks (` + insertTaskColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (import_id, import_row) WHERE import_id IS NOT NULL DO NOTHING`

// PostgresTaskRepository stores tasks through lib/pq when TASK_STORE=postgres
type PostgresTaskRepository struct {
	DB *sql.DB
}

func NewPostgresTaskRepository(pg *database.PostgresDB) *PostgresTaskRepository {
	return &PostgresTaskRepository{DB: pg.DB}
}

func (r *PostgresTaskRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, createTasksImportIndex); err != nil {
		return fmt.Errorf("create import index: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepository) List(ctx context.Context, filter TaskFilter) ([]Task, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(site_name ILIKE $%d OR node_id ILIKE $%d OR implementor ILIKE $%d)", n, n, n))
	}

	query := "SELECT id, " + insertTaskColumns + " FROM implementation_tasks"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortColumn(filter.SortBy), order)
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var (
			t         Task
			id        int64
			importID  sql.NullString
			importRow sql.NullInt64
		)
		if err := rows.Scan(&id, &t.Category, &t.SiteName, &t.NodeID, &t.Implementor, &t.Status,
			&t.Comments, &t.ScriptsPath, &t.DateCreated, &t.LastUpdated, &importID, &importRow, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.ID = strconv.FormatInt(id, 10)
		t.ImportID = importID.String
		t.ImportRow = int(importRow.Int64)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *PostgresTaskRepository) Create(ctx context.Context, task *Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO implementation_tasks (`+insertTaskColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		taskArgs(task)...,
	).Scan(&id)
	if err != nil {
		return err
	}
	task.ID = strconv.FormatInt(id, 10)
	return nil
}

// InsertBatch writes all rows in one transaction; a failure rolls back the batch
func (r *PostgresTaskRepository) InsertBatch(ctx context.Context, tasks []Task) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTaskBatch)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for i := range tasks {
		if tasks[i].CreatedAt.IsZero() {
			tasks[i].CreatedAt = time.Now().UTC()
		}
		res, err := stmt.ExecContext(ctx, taskArgs(&tasks[i])...)
		if err != nil {
			return 0, fmt.Errorf("insert row %d: %w", tasks[i].ImportRow, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *PostgresTaskRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM implementation_tasks GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func taskArgs(t *Task) []any {
	var importID, importRow any
	if t.ImportID != "" {
		importID = t.ImportID
		importRow = t.ImportRow
	}
	return []any{
		t.Category, t.SiteName, t.NodeID, t.Implementor, t.Status, t.Comments, t.ScriptsPath,
		t.DateCreated, t.LastUpdated, importID, importRow, t.CreatedAt,
	}
}
