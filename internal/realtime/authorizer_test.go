package realtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanbus/kanbus/internal/domain"
	"github.com/kanbus/kanbus/internal/realtime"
)

type mockBoardAccess struct {
	visible map[uuid.UUID]bool
	err     error
}

func (m *mockBoardAccess) CanSeeBoard(_ context.Context, _ *domain.User, boardID uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.visible[boardID], nil
}

type mockMembership struct {
	members map[uuid.UUID]map[uuid.UUID]bool
}

func (m *mockMembership) IsMember(_ context.Context, teamID, userID uuid.UUID) (bool, error) {
	return m.members[teamID][userID], nil
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	b1 := uuid.New()
	team := uuid.New()
	alice := &domain.User{ID: uuid.New(), Role: domain.RoleMember}
	bob := &domain.User{ID: uuid.New(), Role: domain.RoleMember}
	root := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	auth := realtime.NewAuthorizer(
		&mockBoardAccess{visible: map[uuid.UUID]bool{b1: true}},
		&mockMembership{members: map[uuid.UUID]map[uuid.UUID]bool{team: {alice.ID: true}}},
	)

	ctx := context.Background()

	t.Run("own personal channel allowed", func(t *testing.T) {
		t.Parallel()

		ok, err := auth.Authorize(ctx, alice, realtime.UserChannel(alice.ID))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("someone else's personal channel denied, even for admins", func(t *testing.T) {
		t.Parallel()

		ok, err := auth.Authorize(ctx, alice, realtime.UserChannel(bob.ID))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = auth.Authorize(ctx, root, realtime.UserChannel(alice.ID))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("admin allowed on any board, team and global channel", func(t *testing.T) {
		t.Parallel()

		for _, channel := range []string{
			realtime.BoardChannel(uuid.New()),
			realtime.TeamChannel(uuid.New()),
			realtime.GlobalChannel,
		} {
			ok, err := auth.Authorize(ctx, root, channel)
			require.NoError(t, err)
			assert.True(t, ok, "channel %s", channel)
		}
	})

	t.Run("board channel requires visibility", func(t *testing.T) {
		t.Parallel()

		ok, err := auth.Authorize(ctx, alice, realtime.BoardChannel(b1))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = auth.Authorize(ctx, alice, realtime.BoardChannel(uuid.New()))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("team channel requires membership", func(t *testing.T) {
		t.Parallel()

		ok, err := auth.Authorize(ctx, alice, realtime.TeamChannel(team))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = auth.Authorize(ctx, bob, realtime.TeamChannel(team))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("global channel denied for non-admins", func(t *testing.T) {
		t.Parallel()

		ok, err := auth.Authorize(ctx, alice, realtime.GlobalChannel)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown channel denied", func(t *testing.T) {
		t.Parallel()

		ok, err := auth.Authorize(ctx, alice, "presence-everything")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nil user denied", func(t *testing.T) {
		t.Parallel()

		ok, err := auth.Authorize(ctx, nil, realtime.GlobalChannel)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("store error propagates instead of granting", func(t *testing.T) {
		t.Parallel()

		broken := realtime.NewAuthorizer(&mockBoardAccess{err: errors.New("down")}, &mockMembership{})
		ok, err := broken.Authorize(ctx, alice, realtime.BoardChannel(b1))
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
