package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanbus/kanbus/internal/access"
	"github.com/kanbus/kanbus/internal/domain"
)

type mockBoardDir struct {
	ids         []uuid.UUID
	idsErr      error
	idsWithUser map[uuid.UUID][]uuid.UUID
	userIDs     map[uuid.UUID][]uuid.UUID
	teamIDs     map[uuid.UUID][]uuid.UUID
}

func (m *mockBoardDir) IDs(_ context.Context) ([]uuid.UUID, error) {
	return m.ids, m.idsErr
}

func (m *mockBoardDir) IDsWithUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return m.idsWithUser[userID], nil
}

func (m *mockBoardDir) UserIDs(_ context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	return m.userIDs[boardID], nil
}

func (m *mockBoardDir) TeamIDs(_ context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	return m.teamIDs[boardID], nil
}

type mockTeamDir struct {
	boardsForMember map[uuid.UUID][]uuid.UUID
	members         map[uuid.UUID][]uuid.UUID
	membersErr      error
}

func (m *mockTeamDir) BoardIDsForMember(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return m.boardsForMember[userID], nil
}

func (m *mockTeamDir) MemberIDs(_ context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	if m.membersErr != nil {
		return nil, m.membersErr
	}
	return m.members[teamID], nil
}

func TestBoardsVisibleTo(t *testing.T) {
	t.Parallel()

	b1 := uuid.New()
	b2 := uuid.New()
	b3 := uuid.New()
	alice := &domain.User{ID: uuid.New(), Role: domain.RoleMember}
	root := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	boards := &mockBoardDir{
		ids:         []uuid.UUID{b1, b2, b3},
		idsWithUser: map[uuid.UUID][]uuid.UUID{alice.ID: {b1}},
	}
	teams := &mockTeamDir{
		boardsForMember: map[uuid.UUID][]uuid.UUID{alice.ID: {b2, b1}},
	}
	resolver := access.NewResolver(boards, teams)

	t.Run("admin sees all boards", func(t *testing.T) {
		t.Parallel()

		visible, err := resolver.BoardsVisibleTo(context.Background(), root)
		require.NoError(t, err)
		assert.Len(t, visible, 3)
	})

	t.Run("member sees direct and team boards, deduplicated", func(t *testing.T) {
		t.Parallel()

		visible, err := resolver.BoardsVisibleTo(context.Background(), alice)
		require.NoError(t, err)
		assert.Len(t, visible, 2)
		assert.Contains(t, visible, b1)
		assert.Contains(t, visible, b2)
		assert.NotContains(t, visible, b3)
	})

	t.Run("board listing error propagates for admin", func(t *testing.T) {
		t.Parallel()

		broken := access.NewResolver(&mockBoardDir{idsErr: errors.New("down")}, teams)
		_, err := broken.BoardsVisibleTo(context.Background(), root)
		assert.Error(t, err)
	})
}

func TestCanSeeBoard(t *testing.T) {
	t.Parallel()

	b1 := uuid.New()
	alice := &domain.User{ID: uuid.New(), Role: domain.RoleMember}
	root := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	boards := &mockBoardDir{idsWithUser: map[uuid.UUID][]uuid.UUID{alice.ID: {b1}}}
	resolver := access.NewResolver(boards, &mockTeamDir{})

	ok, err := resolver.CanSeeBoard(context.Background(), alice, b1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.CanSeeBoard(context.Background(), alice, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	// Admin short-circuits without touching the store.
	ok, err = resolver.CanSeeBoard(context.Background(), root, uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUsersWithAccessTo(t *testing.T) {
	t.Parallel()

	board := uuid.New()
	team1 := uuid.New()
	team2 := uuid.New()
	u1 := uuid.New()
	u2 := uuid.New()
	u3 := uuid.New()

	t.Run("union of direct users and team members without duplicates", func(t *testing.T) {
		t.Parallel()

		boards := &mockBoardDir{
			userIDs: map[uuid.UUID][]uuid.UUID{board: {u1, u2}},
			teamIDs: map[uuid.UUID][]uuid.UUID{board: {team1, team2}},
		}
		teams := &mockTeamDir{members: map[uuid.UUID][]uuid.UUID{
			team1: {u2, u3},
			team2: {u3},
		}}
		resolver := access.NewResolver(boards, teams)

		audience, err := resolver.UsersWithAccessTo(context.Background(), board)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{u1, u2, u3}, audience)
	})

	t.Run("unknown board yields empty audience without error", func(t *testing.T) {
		t.Parallel()

		resolver := access.NewResolver(&mockBoardDir{}, &mockTeamDir{})

		audience, err := resolver.UsersWithAccessTo(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Empty(t, audience)
	})

	t.Run("member lookup error propagates", func(t *testing.T) {
		t.Parallel()

		boards := &mockBoardDir{
			teamIDs: map[uuid.UUID][]uuid.UUID{board: {team1}},
		}
		resolver := access.NewResolver(boards, &mockTeamDir{membersErr: errors.New("down")})

		_, err := resolver.UsersWithAccessTo(context.Background(), board)
		assert.Error(t, err)
	})
}
