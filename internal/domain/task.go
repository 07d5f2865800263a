package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID  `json:"id"`
	ColumnID    uuid.UUID  `json:"columnId"`
	BoardID     uuid.UUID  `json:"boardId"` // denormalized from the owning column
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Subtasks    []*Subtask `json:"subtasks"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Subtask struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"taskId"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*Task, error)
	// Update persists title, description and column. When the column
	// changes, the denormalized board id is re-derived from the new
	// column inside the same statement batch.
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type SubtaskRepository interface {
	Create(ctx context.Context, s *Subtask) error
	GetByID(ctx context.Context, id uuid.UUID) (*Subtask, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Subtask, error)
	Update(ctx context.Context, s *Subtask) error
	Delete(ctx context.Context, id uuid.UUID) error
}
