package board

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kanbus/kanbus/internal/domain"
)

// CreateTask adds a task to a column on a board the actor may see.
func (s *Service) CreateTask(ctx context.Context, actor *domain.User, columnID uuid.UUID, title, description string) (*domain.Task, error) {
	boardID, err := s.boards.BoardIDForColumn(ctx, columnID)
	if err != nil {
		return nil, fmt.Errorf("board.Service.CreateTask: %w", err)
	}

	if err := s.requireVisible(ctx, actor, boardID); err != nil {
		return nil, fmt.Errorf("board.Service.CreateTask: %w", err)
	}

	now := s.now().UTC()
	t := &domain.Task{
		ID:          uuid.New(),
		ColumnID:    columnID,
		BoardID:     boardID,
		Title:       title,
		Description: description,
		Subtasks:    []*domain.Subtask{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("board.Service.CreateTask: %w", err)
	}

	s.events.TaskCreated(ctx, t, actor.ID)

	return t, nil
}

// UpdateTask persists title, description and column placement. Moving
// the task to a column on another board re-derives the denormalized
// board id.
func (s *Service) UpdateTask(ctx context.Context, actor *domain.User, taskID uuid.UUID, title, description string, columnID uuid.UUID) (*domain.Task, error) {
	existing, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("board.Service.UpdateTask: %w", err)
	}

	if err := s.requireVisible(ctx, actor, existing.BoardID); err != nil {
		return nil, fmt.Errorf("board.Service.UpdateTask: %w", err)
	}

	existing.Title = title
	existing.Description = description
	existing.ColumnID = columnID

	if err := s.tasks.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("board.Service.UpdateTask: %w", err)
	}

	// Re-read so the broadcast carries the canonical row, including
	// the possibly re-derived board id.
	updated, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("board.Service.UpdateTask: reread: %w", err)
	}

	s.events.TaskUpdated(ctx, updated, actor.ID)

	return updated, nil
}

// DeleteTask removes a task and its subtasks.
func (s *Service) DeleteTask(ctx context.Context, actor *domain.User, taskID uuid.UUID) error {
	existing, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("board.Service.DeleteTask: %w", err)
	}

	if err := s.requireVisible(ctx, actor, existing.BoardID); err != nil {
		return fmt.Errorf("board.Service.DeleteTask: %w", err)
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("board.Service.DeleteTask: %w", err)
	}

	s.events.TaskDeleted(ctx, taskID, existing.BoardID, actor.ID)

	return nil
}

// CreateSubtask appends a checklist item to a task. Subtask changes are
// announced as an update of the owning task so clients replace the task
// wholesale.
func (s *Service) CreateSubtask(ctx context.Context, actor *domain.User, taskID uuid.UUID, title string) (*domain.Subtask, error) {
	parent, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("board.Service.CreateSubtask: %w", err)
	}

	if err := s.requireVisible(ctx, actor, parent.BoardID); err != nil {
		return nil, fmt.Errorf("board.Service.CreateSubtask: %w", err)
	}

	now := s.now().UTC()
	sub := &domain.Subtask{
		ID:        uuid.New(),
		TaskID:    taskID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.subtasks.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("board.Service.CreateSubtask: %w", err)
	}

	s.broadcastTaskRefresh(ctx, actor, taskID)

	return sub, nil
}

// UpdateSubtask renames or toggles a checklist item.
func (s *Service) UpdateSubtask(ctx context.Context, actor *domain.User, subtaskID uuid.UUID, title string, completed bool) (*domain.Subtask, error) {
	sub, err := s.subtasks.GetByID(ctx, subtaskID)
	if err != nil {
		return nil, fmt.Errorf("board.Service.UpdateSubtask: %w", err)
	}

	parent, err := s.tasks.GetByID(ctx, sub.TaskID)
	if err != nil {
		return nil, fmt.Errorf("board.Service.UpdateSubtask: %w", err)
	}

	if err := s.requireVisible(ctx, actor, parent.BoardID); err != nil {
		return nil, fmt.Errorf("board.Service.UpdateSubtask: %w", err)
	}

	sub.Title = title
	sub.Completed = completed

	if err := s.subtasks.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("board.Service.UpdateSubtask: %w", err)
	}

	s.broadcastTaskRefresh(ctx, actor, sub.TaskID)

	return sub, nil
}

// DeleteSubtask removes a checklist item.
func (s *Service) DeleteSubtask(ctx context.Context, actor *domain.User, subtaskID uuid.UUID) error {
	sub, err := s.subtasks.GetByID(ctx, subtaskID)
	if err != nil {
		return fmt.Errorf("board.Service.DeleteSubtask: %w", err)
	}

	parent, err := s.tasks.GetByID(ctx, sub.TaskID)
	if err != nil {
		return fmt.Errorf("board.Service.DeleteSubtask: %w", err)
	}

	if err := s.requireVisible(ctx, actor, parent.BoardID); err != nil {
		return fmt.Errorf("board.Service.DeleteSubtask: %w", err)
	}

	if err := s.subtasks.Delete(ctx, subtaskID); err != nil {
		return fmt.Errorf("board.Service.DeleteSubtask: %w", err)
	}

	s.broadcastTaskRefresh(ctx, actor, sub.TaskID)

	return nil
}

// broadcastTaskRefresh re-reads a task and announces it as updated.
// Used after subtask changes; failures only cost freshness.
func (s *Service) broadcastTaskRefresh(ctx context.Context, actor *domain.User, taskID uuid.UUID) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return
	}
	s.events.TaskUpdated(ctx, t, actor.ID)
}
