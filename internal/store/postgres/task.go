package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanbus/kanbus/internal/domain"
)

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// Create inserts the task, deriving the denormalized board id from the
// owning column so the two can never disagree.
func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	err := r.pool.QueryRow(ctx,
		`SELECT board_id FROM columns WHERE id = $1`, t.ColumnID,
	).Scan(&t.BoardID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("taskRepo.Create: column %s: %w", t.ColumnID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("taskRepo.Create: resolve column: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO tasks (id, column_id, board_id, title, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.ColumnID, t.BoardID, t.Title, t.Description, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Create: %w", translateConstraint(err))
	}

	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var t domain.Task

	err := r.pool.QueryRow(ctx,
		`SELECT id, column_id, board_id, title, description, created_at, updated_at
		 FROM tasks WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.ColumnID, &t.BoardID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", err)
	}

	subtasks, err := r.loadSubtasks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", err)
	}
	t.Subtasks = subtasks

	return &t, nil
}

func (r *TaskRepo) ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, column_id, board_id, title, description, created_at, updated_at
		 FROM tasks WHERE column_id = $1 ORDER BY created_at
		 LIMIT 1000`,
		columnID,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListByColumn: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.ColumnID, &t.BoardID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("taskRepo.ListByColumn: scan: %w", err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("taskRepo.ListByColumn: rows: %w", err)
	}

	return tasks, nil
}

// Update persists title, description and column. The board id is
// re-derived from the target column in the same statement so a task
// moved across boards keeps its denormalized board in sync.
func (r *TaskRepo) Update(ctx context.Context, t *domain.Task) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET
		   column_id = $1,
		   board_id = (SELECT board_id FROM columns WHERE id = $1),
		   title = $2, description = $3, updated_at = now()
		 WHERE id = $4`,
		t.ColumnID, t.Title, t.Description, t.ID,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Update: %w", translateConstraint(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("taskRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TaskRepo) loadSubtasks(ctx context.Context, taskID uuid.UUID) ([]*domain.Subtask, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, task_id, title, completed, created_at, updated_at
		 FROM subtasks WHERE task_id = $1 ORDER BY created_at`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("loadSubtasks: %w", err)
	}
	defer rows.Close()

	subtasks := []*domain.Subtask{}
	for rows.Next() {
		var s domain.Subtask
		if err := rows.Scan(&s.ID, &s.TaskID, &s.Title, &s.Completed, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("loadSubtasks: scan: %w", err)
		}
		subtasks = append(subtasks, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loadSubtasks: rows: %w", err)
	}

	return subtasks, nil
}
