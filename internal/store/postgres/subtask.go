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

type SubtaskRepo struct {
	pool *pgxpool.Pool
}

func NewSubtaskRepo(pool *pgxpool.Pool) *SubtaskRepo {
	return &SubtaskRepo{pool: pool}
}

func (r *SubtaskRepo) Create(ctx context.Context, s *domain.Subtask) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subtasks (id, task_id, title, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.TaskID, s.Title, s.Completed, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("subtaskRepo.Create: %w", translateConstraint(err))
	}

	return nil
}

func (r *SubtaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subtask, error) {
	var s domain.Subtask

	err := r.pool.QueryRow(ctx,
		`SELECT id, task_id, title, completed, created_at, updated_at
		 FROM subtasks WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.TaskID, &s.Title, &s.Completed, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("subtaskRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("subtaskRepo.GetByID: %w", err)
	}

	return &s, nil
}

func (r *SubtaskRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Subtask, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, task_id, title, completed, created_at, updated_at
		 FROM subtasks WHERE task_id = $1 ORDER BY created_at`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("subtaskRepo.ListByTask: %w", err)
	}
	defer rows.Close()

	var subtasks []*domain.Subtask
	for rows.Next() {
		var s domain.Subtask
		if err := rows.Scan(&s.ID, &s.TaskID, &s.Title, &s.Completed, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("subtaskRepo.ListByTask: scan: %w", err)
		}
		subtasks = append(subtasks, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("subtaskRepo.ListByTask: rows: %w", err)
	}

	return subtasks, nil
}

func (r *SubtaskRepo) Update(ctx context.Context, s *domain.Subtask) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE subtasks SET title = $1, completed = $2, updated_at = now() WHERE id = $3`,
		s.Title, s.Completed, s.ID,
	)
	if err != nil {
		return fmt.Errorf("subtaskRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subtaskRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *SubtaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subtasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("subtaskRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subtaskRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
