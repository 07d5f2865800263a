// Package v1 exposes the REST surface. Handlers delegate to the board
// service, which owns access checks and event broadcasting.
package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/kanbus/kanbus/internal/domain"
	"github.com/kanbus/kanbus/internal/server/middleware"
)

// BoardService abstracts the mutation/query surface for handler
// testing. *board.Service satisfies this interface.
type BoardService interface {
	CreateBoard(ctx context.Context, actor *domain.User, name string, columns []string) (*domain.Board, error)
	GetBoard(ctx context.Context, actor *domain.User, boardID uuid.UUID) (*domain.Board, error)
	ListBoards(ctx context.Context, actor *domain.User) ([]*domain.Board, error)
	UpdateBoard(ctx context.Context, actor *domain.User, boardID uuid.UUID, patch domain.BoardPatch) (*domain.Board, error)
	DeleteBoard(ctx context.Context, actor *domain.User, boardID uuid.UUID) error
	ShareBoard(ctx context.Context, actor *domain.User, boardID, userID uuid.UUID) error
	UnshareBoard(ctx context.Context, actor *domain.User, boardID, userID uuid.UUID) error

	CreateTask(ctx context.Context, actor *domain.User, columnID uuid.UUID, title, description string) (*domain.Task, error)
	UpdateTask(ctx context.Context, actor *domain.User, taskID uuid.UUID, title, description string, columnID uuid.UUID) (*domain.Task, error)
	DeleteTask(ctx context.Context, actor *domain.User, taskID uuid.UUID) error
	CreateSubtask(ctx context.Context, actor *domain.User, taskID uuid.UUID, title string) (*domain.Subtask, error)
	UpdateSubtask(ctx context.Context, actor *domain.User, subtaskID uuid.UUID, title string, completed bool) (*domain.Subtask, error)
	DeleteSubtask(ctx context.Context, actor *domain.User, subtaskID uuid.UUID) error

	CreateTeam(ctx context.Context, actor *domain.User, name string, memberIDs []uuid.UUID) (*domain.Team, error)
	GetTeam(ctx context.Context, actor *domain.User, teamID uuid.UUID) (*domain.Team, error)
	ListTeams(ctx context.Context) ([]*domain.Team, error)
	UpdateTeam(ctx context.Context, actor *domain.User, teamID uuid.UUID, name string) (*domain.Team, error)
	DeleteTeam(ctx context.Context, actor *domain.User, teamID uuid.UUID) error
	AddTeamMember(ctx context.Context, actor *domain.User, teamID, userID uuid.UUID) error
	RemoveTeamMember(ctx context.Context, actor *domain.User, teamID, userID uuid.UUID) error
	AttachTeamToBoard(ctx context.Context, actor *domain.User, teamID, boardID uuid.UUID) error
	DetachTeamFromBoard(ctx context.Context, actor *domain.User, teamID, boardID uuid.UUID) error
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

// actorFromContext rebuilds the acting user from the values the Auth
// middleware stored. The id and role carried by the token are all the
// access layer needs.
func actorFromContext(ctx context.Context) (*domain.User, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}
	role, _ := middleware.RoleFromContext(ctx)
	return &domain.User{ID: userID, Role: domain.Role(role)}, nil
}

// serviceError translates domain sentinels into HTTP problem responses.
func serviceError(err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden(msg)
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(msg)
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(msg)
	case errors.Is(err, domain.ErrValidation):
		return huma.Error422UnprocessableEntity(msg)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
