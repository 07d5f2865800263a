// Package board orchestrates board, task and team mutations: every
// write is validated against the caller's visibility, persisted, and
// then announced through the broadcaster. Broadcasting happens strictly
// after commit and never fails the mutation.
package board

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kanbus/kanbus/internal/access"
	"github.com/kanbus/kanbus/internal/domain"
)

// Events is the broadcaster surface the service fans mutations out to.
// Implementations must be best-effort: they log failures internally.
type Events interface {
	BoardCreated(ctx context.Context, board *domain.Board, createdBy uuid.UUID, audience []uuid.UUID)
	BoardUpdated(ctx context.Context, board *domain.Board, updatedBy uuid.UUID)
	BoardDeleted(ctx context.Context, boardID, deletedBy uuid.UUID, audience []uuid.UUID)
	TaskCreated(ctx context.Context, task *domain.Task, createdBy uuid.UUID)
	TaskUpdated(ctx context.Context, task *domain.Task, updatedBy uuid.UUID)
	TaskDeleted(ctx context.Context, taskID, boardID, deletedBy uuid.UUID)
	TeamCreated(ctx context.Context, team *domain.Team, createdBy uuid.UUID)
	TeamUpdated(ctx context.Context, team *domain.Team, updatedBy uuid.UUID)
	TeamDeleted(ctx context.Context, teamID, deletedBy uuid.UUID, audience []uuid.UUID)
	TeamMemberAdded(ctx context.Context, teamID, userID, addedBy uuid.UUID)
	TeamMemberRemoved(ctx context.Context, teamID, userID, removedBy uuid.UUID)
}

type Service struct {
	boards   domain.BoardRepository
	tasks    domain.TaskRepository
	subtasks domain.SubtaskRepository
	teams    domain.TeamRepository
	access   *access.Resolver
	events   Events
	now      func() time.Time
}

func NewService(
	boards domain.BoardRepository,
	tasks domain.TaskRepository,
	subtasks domain.SubtaskRepository,
	teams domain.TeamRepository,
	resolver *access.Resolver,
	events Events,
) *Service {
	return &Service{
		boards:   boards,
		tasks:    tasks,
		subtasks: subtasks,
		teams:    teams,
		access:   resolver,
		events:   events,
		now:      time.Now,
	}
}

// CreateBoard persists a new board owned by the actor and announces it.
// The actor is always directly associated with the board they create.
func (s *Service) CreateBoard(ctx context.Context, actor *domain.User, name string, columns []string) (*domain.Board, error) {
	now := s.now().UTC()
	b := &domain.Board{
		ID:        uuid.New(),
		Name:      name,
		UserIDs:   []uuid.UUID{actor.ID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for pos, columnName := range columns {
		b.Columns = append(b.Columns, &domain.Column{
			ID:       uuid.New(),
			BoardID:  b.ID,
			Name:     columnName,
			Position: pos,
			Tasks:    []*domain.Task{},
		})
	}

	if err := s.boards.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("board.Service.CreateBoard: %w", err)
	}

	// A fresh board's associations may not be readable yet, so the
	// initial audience is supplied explicitly.
	s.events.BoardCreated(ctx, b, actor.ID, b.UserIDs)

	return b, nil
}

// GetBoard returns the full board snapshot if the actor may see it.
func (s *Service) GetBoard(ctx context.Context, actor *domain.User, boardID uuid.UUID) (*domain.Board, error) {
	if err := s.requireVisible(ctx, actor, boardID); err != nil {
		return nil, fmt.Errorf("board.Service.GetBoard: %w", err)
	}

	b, err := s.boards.GetFull(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("board.Service.GetBoard: %w", err)
	}

	return b, nil
}

// ListBoards returns the boards visible to the actor.
func (s *Service) ListBoards(ctx context.Context, actor *domain.User) ([]*domain.Board, error) {
	visible, err := s.access.BoardsVisibleTo(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("board.Service.ListBoards: %w", err)
	}

	boards := make([]*domain.Board, 0, len(visible))
	for id := range visible {
		b, err := s.boards.GetFull(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("board.Service.ListBoards: board %s: %w", id, err)
		}
		boards = append(boards, b)
	}

	return boards, nil
}

// UpdateBoard reconciles the client-submitted desired shape against the
// persisted board in one atomic transaction and broadcasts the
// committed snapshot.
func (s *Service) UpdateBoard(ctx context.Context, actor *domain.User, boardID uuid.UUID, patch domain.BoardPatch) (*domain.Board, error) {
	if err := s.requireVisible(ctx, actor, boardID); err != nil {
		return nil, fmt.Errorf("board.Service.UpdateBoard: %w", err)
	}

	b, err := s.boards.Reconcile(ctx, boardID, patch)
	if err != nil {
		return nil, fmt.Errorf("board.Service.UpdateBoard: %w", err)
	}

	s.events.BoardUpdated(ctx, b, actor.ID)

	return b, nil
}

// DeleteBoard removes a board with no attached teams. The audience is
// resolved before the delete so departed viewers still learn the board
// is gone.
func (s *Service) DeleteBoard(ctx context.Context, actor *domain.User, boardID uuid.UUID) error {
	if err := s.requireVisible(ctx, actor, boardID); err != nil {
		return fmt.Errorf("board.Service.DeleteBoard: %w", err)
	}

	audience, err := s.access.UsersWithAccessTo(ctx, boardID)
	if err != nil {
		// The delete still proceeds; the broadcast just reaches fewer
		// clients.
		log.Warn().Err(err).Str("board_id", boardID.String()).
			Msg("board: audience resolution before delete failed")
		audience = nil
	}

	if err := s.boards.Delete(ctx, boardID); err != nil {
		return fmt.Errorf("board.Service.DeleteBoard: %w", err)
	}

	s.events.BoardDeleted(ctx, boardID, actor.ID, audience)

	return nil
}

// ShareBoard directly associates a user with a board and announces the
// refreshed board so the new viewer's clients pick it up.
func (s *Service) ShareBoard(ctx context.Context, actor *domain.User, boardID, userID uuid.UUID) error {
	if err := s.requireVisible(ctx, actor, boardID); err != nil {
		return fmt.Errorf("board.Service.ShareBoard: %w", err)
	}

	if err := s.boards.AddUser(ctx, boardID, userID); err != nil {
		return fmt.Errorf("board.Service.ShareBoard: %w", err)
	}

	s.refreshBoard(ctx, actor, boardID)

	return nil
}

// UnshareBoard removes a direct user association and announces the
// refreshed board. The departing user may keep seeing it through a
// team; otherwise their board channel subscription is rejected on the
// next reconnect.
func (s *Service) UnshareBoard(ctx context.Context, actor *domain.User, boardID, userID uuid.UUID) error {
	if err := s.requireVisible(ctx, actor, boardID); err != nil {
		return fmt.Errorf("board.Service.UnshareBoard: %w", err)
	}

	if err := s.boards.RemoveUser(ctx, boardID, userID); err != nil {
		return fmt.Errorf("board.Service.UnshareBoard: %w", err)
	}

	s.refreshBoard(ctx, actor, boardID)

	return nil
}

// requireVisible maps an invisible board to ErrForbidden so handlers
// can distinguish access denials from lookups that genuinely failed.
func (s *Service) requireVisible(ctx context.Context, actor *domain.User, boardID uuid.UUID) error {
	visible, err := s.access.CanSeeBoard(ctx, actor, boardID)
	if err != nil {
		return err
	}
	if !visible {
		return domain.ErrForbidden
	}
	return nil
}
