package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"taskboard/internal/common"
	"taskboard/internal/domain/model"
)

// TaskRepository stores tasks. Update and Delete are scoped by owner as well
// as id, so a row belonging to someone else is reported as common.ErrNotFound.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	// ListByOwner returns the owner's tasks, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id, ownerID string) error
}

type pgTaskRepository struct {
	db DBTX
}

func NewPgTaskRepository(db DBTX) TaskRepository {
	return &pgTaskRepository{db: db}
}

const selectTaskColumns = `SELECT id, title, description, status, priority, due_date, progress,
       owner_id, assigned_to, attachments, created_at, updated_at
FROM tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	var (
		t           model.Task
		attachments []byte
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.Progress,
		&t.OwnerID, &t.AssignedTo, &attachments, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Attachments = []model.Attachment{}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &t.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments: %w", err)
		}
	}
	return &t, nil
}

func encodeAttachments(a []model.Attachment) ([]byte, error) {
	if a == nil {
		a = []model.Attachment{}
	}
	return json.Marshal(a)
}

func (r *pgTaskRepository) Create(ctx context.Context, t *model.Task) error {
	attachments, err := encodeAttachments(t.Attachments)
	if err != nil {
		return fmt.Errorf("pgTaskRepository.Create: %w", err)
	}
	query := `INSERT INTO tasks (id, title, description, status, priority, due_date, progress, owner_id, assigned_to, attachments)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.Progress, t.OwnerID, t.AssignedTo, attachments,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("task already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgTaskRepository.Create: %w", err)
	}
	return nil
}

func (r *pgTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, selectTaskColumns+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTaskRepository.FindByID: %w", err)
	}
	return t, nil
}

func (r *pgTaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, selectTaskColumns+" WHERE owner_id = $1 ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("pgTaskRepository.ListByOwner query: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("pgTaskRepository.ListByOwner scan: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgTaskRepository.ListByOwner rows.Err: %w", err)
	}
	return tasks, nil
}

func (r *pgTaskRepository) Update(ctx context.Context, t *model.Task) error {
	attachments, err := encodeAttachments(t.Attachments)
	if err != nil {
		return fmt.Errorf("pgTaskRepository.Update: %w", err)
	}
	query := `UPDATE tasks SET
	            title = $1, description = $2, status = $3, priority = $4, due_date = $5,
	            progress = $6, assigned_to = $7, attachments = $8, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $9 AND owner_id = $10
	          RETURNING updated_at`
	err = r.db.QueryRowContext(ctx, query,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.Progress, t.AssignedTo, attachments, t.ID, t.OwnerID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgTaskRepository.Update: %w", err)
	}
	return nil
}

func (r *pgTaskRepository) Delete(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("pgTaskRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgTaskRepository.Delete rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
