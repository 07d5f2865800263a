package board_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanbus/kanbus/internal/access"
	"github.com/kanbus/kanbus/internal/board"
	"github.com/kanbus/kanbus/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock repositories
// ---------------------------------------------------------------------------

type mockBoardRepo struct {
	createFunc       func(ctx context.Context, b *domain.Board) error
	getFullFunc      func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	deleteFunc       func(ctx context.Context, id uuid.UUID) error
	reconcileFunc    func(ctx context.Context, id uuid.UUID, patch domain.BoardPatch) (*domain.Board, error)
	idsFunc          func(ctx context.Context) ([]uuid.UUID, error)
	idsWithUserFunc  func(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	boardForColFunc  func(ctx context.Context, columnID uuid.UUID) (uuid.UUID, error)
	userIDsFunc      func(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
	teamIDsFunc      func(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
}

func (m *mockBoardRepo) Create(ctx context.Context, b *domain.Board) error {
	return m.createFunc(ctx, b)
}

func (m *mockBoardRepo) GetByID(_ context.Context, _ uuid.UUID) (*domain.Board, error) {
	return nil, domain.ErrNotFound
}

func (m *mockBoardRepo) GetFull(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return m.getFullFunc(ctx, id)
}

func (m *mockBoardRepo) IDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.idsFunc != nil {
		return m.idsFunc(ctx)
	}
	return nil, nil
}

func (m *mockBoardRepo) BoardIDForColumn(ctx context.Context, columnID uuid.UUID) (uuid.UUID, error) {
	return m.boardForColFunc(ctx, columnID)
}

func (m *mockBoardRepo) IDsWithUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if m.idsWithUserFunc != nil {
		return m.idsWithUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockBoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockBoardRepo) AddUser(_ context.Context, _, _ uuid.UUID) error    { return nil }
func (m *mockBoardRepo) RemoveUser(_ context.Context, _, _ uuid.UUID) error { return nil }

func (m *mockBoardRepo) UserIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	if m.userIDsFunc != nil {
		return m.userIDsFunc(ctx, boardID)
	}
	return nil, nil
}

func (m *mockBoardRepo) TeamIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	if m.teamIDsFunc != nil {
		return m.teamIDsFunc(ctx, boardID)
	}
	return nil, nil
}

func (m *mockBoardRepo) Reconcile(ctx context.Context, id uuid.UUID, patch domain.BoardPatch) (*domain.Board, error) {
	return m.reconcileFunc(ctx, id, patch)
}

type mockTaskRepo struct {
	createFunc  func(ctx context.Context, t *domain.Task) error
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	updateFunc  func(ctx context.Context, t *domain.Task) error
	deleteFunc  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTaskRepo) Create(ctx context.Context, t *domain.Task) error { return m.createFunc(ctx, t) }

func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTaskRepo) ListByColumn(_ context.Context, _ uuid.UUID) ([]*domain.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) Update(ctx context.Context, t *domain.Task) error { return m.updateFunc(ctx, t) }
func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error   { return m.deleteFunc(ctx, id) }

type mockTeamRepo struct {
	membersFunc      func(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error)
	isMemberFunc     func(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	deleteFunc       func(ctx context.Context, id uuid.UUID) error
	removeMemberFunc func(ctx context.Context, teamID, userID uuid.UUID) error
}

func (m *mockTeamRepo) Create(_ context.Context, _ *domain.Team) error { return nil }

func (m *mockTeamRepo) GetByID(_ context.Context, _ uuid.UUID) (*domain.Team, error) {
	return nil, domain.ErrNotFound
}

func (m *mockTeamRepo) List(_ context.Context) ([]*domain.Team, error)  { return nil, nil }
func (m *mockTeamRepo) Update(_ context.Context, _ *domain.Team) error  { return nil }

func (m *mockTeamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockTeamRepo) AddMember(_ context.Context, _, _ uuid.UUID) error { return nil }

func (m *mockTeamRepo) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	if m.removeMemberFunc != nil {
		return m.removeMemberFunc(ctx, teamID, userID)
	}
	return nil
}

func (m *mockTeamRepo) MemberIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	if m.membersFunc != nil {
		return m.membersFunc(ctx, teamID)
	}
	return nil, nil
}

func (m *mockTeamRepo) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	if m.isMemberFunc != nil {
		return m.isMemberFunc(ctx, teamID, userID)
	}
	return false, nil
}

func (m *mockTeamRepo) AddBoard(_ context.Context, _, _ uuid.UUID) error    { return nil }
func (m *mockTeamRepo) RemoveBoard(_ context.Context, _, _ uuid.UUID) error { return nil }

func (m *mockTeamRepo) BoardIDsForMember(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

type mockSubtaskRepo struct{}

func (m *mockSubtaskRepo) Create(_ context.Context, _ *domain.Subtask) error { return nil }
func (m *mockSubtaskRepo) GetByID(_ context.Context, _ uuid.UUID) (*domain.Subtask, error) {
	return nil, domain.ErrNotFound
}
func (m *mockSubtaskRepo) ListByTask(_ context.Context, _ uuid.UUID) ([]*domain.Subtask, error) {
	return nil, nil
}
func (m *mockSubtaskRepo) Update(_ context.Context, _ *domain.Subtask) error { return nil }
func (m *mockSubtaskRepo) Delete(_ context.Context, _ uuid.UUID) error       { return nil }

// recordingEvents records every broadcast call by name.
type recordingEvents struct {
	calls []string

	lastBoard         *domain.Board
	lastDeleteAudience []uuid.UUID
}

func (r *recordingEvents) BoardCreated(_ context.Context, b *domain.Board, _ uuid.UUID, _ []uuid.UUID) {
	r.calls = append(r.calls, "board.created")
	r.lastBoard = b
}

func (r *recordingEvents) BoardUpdated(_ context.Context, b *domain.Board, _ uuid.UUID) {
	r.calls = append(r.calls, "board.updated")
	r.lastBoard = b
}

func (r *recordingEvents) BoardDeleted(_ context.Context, _, _ uuid.UUID, audience []uuid.UUID) {
	r.calls = append(r.calls, "board.deleted")
	r.lastDeleteAudience = audience
}

func (r *recordingEvents) TaskCreated(_ context.Context, _ *domain.Task, _ uuid.UUID) {
	r.calls = append(r.calls, "task.created")
}

func (r *recordingEvents) TaskUpdated(_ context.Context, _ *domain.Task, _ uuid.UUID) {
	r.calls = append(r.calls, "task.updated")
}

func (r *recordingEvents) TaskDeleted(_ context.Context, _, _, _ uuid.UUID) {
	r.calls = append(r.calls, "task.deleted")
}

func (r *recordingEvents) TeamCreated(_ context.Context, _ *domain.Team, _ uuid.UUID) {
	r.calls = append(r.calls, "team.created")
}

func (r *recordingEvents) TeamUpdated(_ context.Context, _ *domain.Team, _ uuid.UUID) {
	r.calls = append(r.calls, "team.updated")
}

func (r *recordingEvents) TeamDeleted(_ context.Context, _, _ uuid.UUID, audience []uuid.UUID) {
	r.calls = append(r.calls, "team.deleted")
	r.lastDeleteAudience = audience
}

func (r *recordingEvents) TeamMemberAdded(_ context.Context, _, _, _ uuid.UUID) {
	r.calls = append(r.calls, "team.member_added")
}

func (r *recordingEvents) TeamMemberRemoved(_ context.Context, _, _, _ uuid.UUID) {
	r.calls = append(r.calls, "team.member_removed")
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func newService(boards *mockBoardRepo, tasks *mockTaskRepo, teams *mockTeamRepo, events *recordingEvents) *board.Service {
	resolver := access.NewResolver(boards, teams)
	return board.NewService(boards, tasks, &mockSubtaskRepo{}, teams, resolver, events)
}

func TestUpdateBoardBroadcastsAfterCommit(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	actor := &domain.User{ID: uuid.New(), Role: domain.RoleMember}
	snapshot := &domain.Board{ID: boardID, Name: "Renamed"}

	boards := &mockBoardRepo{
		idsWithUserFunc: func(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
			return []uuid.UUID{boardID}, nil
		},
		reconcileFunc: func(_ context.Context, _ uuid.UUID, _ domain.BoardPatch) (*domain.Board, error) {
			return snapshot, nil
		},
	}
	events := &recordingEvents{}
	svc := newService(boards, &mockTaskRepo{}, &mockTeamRepo{}, events)

	name := "Renamed"
	got, err := svc.UpdateBoard(context.Background(), actor, boardID, domain.BoardPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)
	assert.Equal(t, []string{"board.updated"}, events.calls)
	assert.Equal(t, snapshot, events.lastBoard)
}

func TestUpdateBoardFailureBroadcastsNothing(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	actor := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	boards := &mockBoardRepo{
		reconcileFunc: func(_ context.Context, _ uuid.UUID, _ domain.BoardPatch) (*domain.Board, error) {
			return nil, domain.ErrValidation
		},
	}
	events := &recordingEvents{}
	svc := newService(boards, &mockTaskRepo{}, &mockTeamRepo{}, events)

	_, err := svc.UpdateBoard(context.Background(), actor, boardID, domain.BoardPatch{})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, events.calls)
}

func TestUpdateBoardForbiddenForInvisibleBoard(t *testing.T) {
	t.Parallel()

	actor := &domain.User{ID: uuid.New(), Role: domain.RoleMember}
	boards := &mockBoardRepo{
		reconcileFunc: func(_ context.Context, _ uuid.UUID, _ domain.BoardPatch) (*domain.Board, error) {
			t.Fatal("reconcile must not be reached")
			return nil, nil
		},
	}
	events := &recordingEvents{}
	svc := newService(boards, &mockTaskRepo{}, &mockTeamRepo{}, events)

	_, err := svc.UpdateBoard(context.Background(), actor, uuid.New(), domain.BoardPatch{})
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, events.calls)
}

func TestDeleteBoardResolvesAudienceBeforeDelete(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	u1 := uuid.New()
	actor := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	deleted := false
	boards := &mockBoardRepo{
		userIDsFunc: func(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
			// Audience lookup must happen while the rows still exist.
			require.False(t, deleted, "audience resolved after delete")
			return []uuid.UUID{u1}, nil
		},
		deleteFunc: func(_ context.Context, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	events := &recordingEvents{}
	svc := newService(boards, &mockTaskRepo{}, &mockTeamRepo{}, events)

	require.NoError(t, svc.DeleteBoard(context.Background(), actor, boardID))
	assert.True(t, deleted)
	assert.Equal(t, []string{"board.deleted"}, events.calls)
	assert.Equal(t, []uuid.UUID{u1}, events.lastDeleteAudience)
}

func TestDeleteBoardConflictKeepsQuiet(t *testing.T) {
	t.Parallel()

	actor := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}
	boards := &mockBoardRepo{
		deleteFunc: func(_ context.Context, _ uuid.UUID) error {
			return domain.ErrConflict // teams still attached
		},
	}
	events := &recordingEvents{}
	svc := newService(boards, &mockTaskRepo{}, &mockTeamRepo{}, events)

	err := svc.DeleteBoard(context.Background(), actor, uuid.New())
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, events.calls)
}

func TestCreateTaskUnknownColumn(t *testing.T) {
	t.Parallel()

	actor := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}
	boards := &mockBoardRepo{
		boardForColFunc: func(_ context.Context, _ uuid.UUID) (uuid.UUID, error) {
			return uuid.Nil, domain.ErrNotFound
		},
	}
	events := &recordingEvents{}
	svc := newService(boards, &mockTaskRepo{}, &mockTeamRepo{}, events)

	_, err := svc.CreateTask(context.Background(), actor, uuid.New(), "title", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, events.calls)
}

func TestCreateTaskBroadcasts(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	columnID := uuid.New()
	actor := &domain.User{ID: uuid.New(), Role: domain.RoleMember}

	boards := &mockBoardRepo{
		boardForColFunc: func(_ context.Context, _ uuid.UUID) (uuid.UUID, error) {
			return boardID, nil
		},
		idsWithUserFunc: func(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
			return []uuid.UUID{boardID}, nil
		},
	}
	tasks := &mockTaskRepo{
		createFunc: func(_ context.Context, task *domain.Task) error {
			assert.Equal(t, boardID, task.BoardID)
			assert.Equal(t, columnID, task.ColumnID)
			return nil
		},
	}
	events := &recordingEvents{}
	svc := newService(boards, tasks, &mockTeamRepo{}, events)

	created, err := svc.CreateTask(context.Background(), actor, columnID, "write spec", "")
	require.NoError(t, err)
	assert.Equal(t, boardID, created.BoardID)
	assert.Equal(t, []string{"task.created"}, events.calls)
}

func TestDeleteTeamCapturesAudienceFirst(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	member := uuid.New()
	actor := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	deleted := false
	teams := &mockTeamRepo{
		membersFunc: func(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
			require.False(t, deleted)
			return []uuid.UUID{member}, nil
		},
		deleteFunc: func(_ context.Context, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	events := &recordingEvents{}
	svc := newService(&mockBoardRepo{}, &mockTaskRepo{}, teams, events)

	require.NoError(t, svc.DeleteTeam(context.Background(), actor, teamID))
	assert.Equal(t, []string{"team.deleted"}, events.calls)
	assert.Equal(t, []uuid.UUID{member}, events.lastDeleteAudience)
}

func TestRemoveTeamMemberRequiresMembership(t *testing.T) {
	t.Parallel()

	actor := &domain.User{ID: uuid.New(), Role: domain.RoleMember}
	teams := &mockTeamRepo{
		isMemberFunc: func(_ context.Context, _, _ uuid.UUID) (bool, error) {
			return false, nil
		},
	}
	events := &recordingEvents{}
	svc := newService(&mockBoardRepo{}, &mockTaskRepo{}, teams, events)

	err := svc.RemoveTeamMember(context.Background(), actor, uuid.New(), uuid.New())
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, events.calls)
}
