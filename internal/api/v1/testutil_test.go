package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/kanbus/kanbus/internal/domain"
	"github.com/kanbus/kanbus/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject user/role into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID, role domain.Role) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, string(role))
	return ctx
}

func memberCtx(userID uuid.UUID) context.Context {
	return userCtx(userID, domain.RoleMember)
}

// ---------------------------------------------------------------------------
// Mock BoardService
// ---------------------------------------------------------------------------

// mockBoardService implements v1.BoardService with func fields so each
// test supplies only the operations it exercises. Unset operations
// panic to surface accidental calls.
type mockBoardService struct {
	createBoardFunc  func(ctx context.Context, actor *domain.User, name string, columns []string) (*domain.Board, error)
	getBoardFunc     func(ctx context.Context, actor *domain.User, boardID uuid.UUID) (*domain.Board, error)
	listBoardsFunc   func(ctx context.Context, actor *domain.User) ([]*domain.Board, error)
	updateBoardFunc  func(ctx context.Context, actor *domain.User, boardID uuid.UUID, patch domain.BoardPatch) (*domain.Board, error)
	deleteBoardFunc  func(ctx context.Context, actor *domain.User, boardID uuid.UUID) error
	shareBoardFunc   func(ctx context.Context, actor *domain.User, boardID, userID uuid.UUID) error
	unshareBoardFunc func(ctx context.Context, actor *domain.User, boardID, userID uuid.UUID) error

	createTaskFunc    func(ctx context.Context, actor *domain.User, columnID uuid.UUID, title, description string) (*domain.Task, error)
	updateTaskFunc    func(ctx context.Context, actor *domain.User, taskID uuid.UUID, title, description string, columnID uuid.UUID) (*domain.Task, error)
	deleteTaskFunc    func(ctx context.Context, actor *domain.User, taskID uuid.UUID) error
	createSubtaskFunc func(ctx context.Context, actor *domain.User, taskID uuid.UUID, title string) (*domain.Subtask, error)
	updateSubtaskFunc func(ctx context.Context, actor *domain.User, subtaskID uuid.UUID, title string, completed bool) (*domain.Subtask, error)
	deleteSubtaskFunc func(ctx context.Context, actor *domain.User, subtaskID uuid.UUID) error

	createTeamFunc       func(ctx context.Context, actor *domain.User, name string, memberIDs []uuid.UUID) (*domain.Team, error)
	getTeamFunc          func(ctx context.Context, actor *domain.User, teamID uuid.UUID) (*domain.Team, error)
	listTeamsFunc        func(ctx context.Context) ([]*domain.Team, error)
	updateTeamFunc       func(ctx context.Context, actor *domain.User, teamID uuid.UUID, name string) (*domain.Team, error)
	deleteTeamFunc       func(ctx context.Context, actor *domain.User, teamID uuid.UUID) error
	addTeamMemberFunc    func(ctx context.Context, actor *domain.User, teamID, userID uuid.UUID) error
	removeTeamMemberFunc func(ctx context.Context, actor *domain.User, teamID, userID uuid.UUID) error
	attachTeamFunc       func(ctx context.Context, actor *domain.User, teamID, boardID uuid.UUID) error
	detachTeamFunc       func(ctx context.Context, actor *domain.User, teamID, boardID uuid.UUID) error
}

func (m *mockBoardService) CreateBoard(ctx context.Context, actor *domain.User, name string, columns []string) (*domain.Board, error) {
	return m.createBoardFunc(ctx, actor, name, columns)
}

func (m *mockBoardService) GetBoard(ctx context.Context, actor *domain.User, boardID uuid.UUID) (*domain.Board, error) {
	return m.getBoardFunc(ctx, actor, boardID)
}

func (m *mockBoardService) ListBoards(ctx context.Context, actor *domain.User) ([]*domain.Board, error) {
	return m.listBoardsFunc(ctx, actor)
}

func (m *mockBoardService) UpdateBoard(ctx context.Context, actor *domain.User, boardID uuid.UUID, patch domain.BoardPatch) (*domain.Board, error) {
	return m.updateBoardFunc(ctx, actor, boardID, patch)
}

func (m *mockBoardService) DeleteBoard(ctx context.Context, actor *domain.User, boardID uuid.UUID) error {
	return m.deleteBoardFunc(ctx, actor, boardID)
}

func (m *mockBoardService) ShareBoard(ctx context.Context, actor *domain.User, boardID, userID uuid.UUID) error {
	return m.shareBoardFunc(ctx, actor, boardID, userID)
}

func (m *mockBoardService) UnshareBoard(ctx context.Context, actor *domain.User, boardID, userID uuid.UUID) error {
	return m.unshareBoardFunc(ctx, actor, boardID, userID)
}

func (m *mockBoardService) CreateTask(ctx context.Context, actor *domain.User, columnID uuid.UUID, title, description string) (*domain.Task, error) {
	return m.createTaskFunc(ctx, actor, columnID, title, description)
}

func (m *mockBoardService) UpdateTask(ctx context.Context, actor *domain.User, taskID uuid.UUID, title, description string, columnID uuid.UUID) (*domain.Task, error) {
	return m.updateTaskFunc(ctx, actor, taskID, title, description, columnID)
}

func (m *mockBoardService) DeleteTask(ctx context.Context, actor *domain.User, taskID uuid.UUID) error {
	return m.deleteTaskFunc(ctx, actor, taskID)
}

func (m *mockBoardService) CreateSubtask(ctx context.Context, actor *domain.User, taskID uuid.UUID, title string) (*domain.Subtask, error) {
	return m.createSubtaskFunc(ctx, actor, taskID, title)
}

func (m *mockBoardService) UpdateSubtask(ctx context.Context, actor *domain.User, subtaskID uuid.UUID, title string, completed bool) (*domain.Subtask, error) {
	return m.updateSubtaskFunc(ctx, actor, subtaskID, title, completed)
}

func (m *mockBoardService) DeleteSubtask(ctx context.Context, actor *domain.User, subtaskID uuid.UUID) error {
	return m.deleteSubtaskFunc(ctx, actor, subtaskID)
}

func (m *mockBoardService) CreateTeam(ctx context.Context, actor *domain.User, name string, memberIDs []uuid.UUID) (*domain.Team, error) {
	return m.createTeamFunc(ctx, actor, name, memberIDs)
}

func (m *mockBoardService) GetTeam(ctx context.Context, actor *domain.User, teamID uuid.UUID) (*domain.Team, error) {
	return m.getTeamFunc(ctx, actor, teamID)
}

func (m *mockBoardService) ListTeams(ctx context.Context) ([]*domain.Team, error) {
	return m.listTeamsFunc(ctx)
}

func (m *mockBoardService) UpdateTeam(ctx context.Context, actor *domain.User, teamID uuid.UUID, name string) (*domain.Team, error) {
	return m.updateTeamFunc(ctx, actor, teamID, name)
}

func (m *mockBoardService) DeleteTeam(ctx context.Context, actor *domain.User, teamID uuid.UUID) error {
	return m.deleteTeamFunc(ctx, actor, teamID)
}

func (m *mockBoardService) AddTeamMember(ctx context.Context, actor *domain.User, teamID, userID uuid.UUID) error {
	return m.addTeamMemberFunc(ctx, actor, teamID, userID)
}

func (m *mockBoardService) RemoveTeamMember(ctx context.Context, actor *domain.User, teamID, userID uuid.UUID) error {
	return m.removeTeamMemberFunc(ctx, actor, teamID, userID)
}

func (m *mockBoardService) AttachTeamToBoard(ctx context.Context, actor *domain.User, teamID, boardID uuid.UUID) error {
	return m.attachTeamFunc(ctx, actor, teamID, boardID)
}

func (m *mockBoardService) DetachTeamFromBoard(ctx context.Context, actor *domain.User, teamID, boardID uuid.UUID) error {
	return m.detachTeamFunc(ctx, actor, teamID, boardID)
}
