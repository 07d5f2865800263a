package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanbus/kanbus/internal/domain"
)

func TestDiffColumns(t *testing.T) {
	t.Parallel()

	c1 := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	c2 := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	existing := []*domain.Column{
		{ID: c1, Name: "Todo", Position: 0},
		{ID: c2, Name: "Doing", Position: 1},
	}

	t.Run("rename delete create", func(t *testing.T) {
		t.Parallel()

		desired := []domain.ColumnChange{
			{ID: c1, Name: "To Do"},
			{Name: "Review"},
		}

		diff := domain.DiffColumns(existing, desired)

		assert.Equal(t, []uuid.UUID{c2}, diff.Delete)
		assert.Equal(t, map[uuid.UUID]string{c1: "To Do"}, diff.Rename)
		assert.Equal(t, []string{"Review"}, diff.Create)
		require.Len(t, diff.Order, 2)
		assert.Equal(t, c1, diff.Order[0].ID)
		assert.Equal(t, "Review", diff.Order[1].Name)
	})

	t.Run("identical list is a no-op", func(t *testing.T) {
		t.Parallel()

		desired := []domain.ColumnChange{
			{ID: c1, Name: "Todo"},
			{ID: c2, Name: "Doing"},
		}

		diff := domain.DiffColumns(existing, desired)

		assert.Empty(t, diff.Delete)
		assert.Empty(t, diff.Rename)
		assert.Empty(t, diff.Create)
	})

	t.Run("empty desired list deletes everything", func(t *testing.T) {
		t.Parallel()

		diff := domain.DiffColumns(existing, nil)

		assert.ElementsMatch(t, []uuid.UUID{c1, c2}, diff.Delete)
		assert.Empty(t, diff.Create)
		assert.Empty(t, diff.Order)
	})

	t.Run("reorder only changes order, not membership", func(t *testing.T) {
		t.Parallel()

		desired := []domain.ColumnChange{
			{ID: c2, Name: "Doing"},
			{ID: c1, Name: "Todo"},
		}

		diff := domain.DiffColumns(existing, desired)

		assert.Empty(t, diff.Delete)
		assert.Empty(t, diff.Rename)
		require.Len(t, diff.Order, 2)
		assert.Equal(t, c2, diff.Order[0].ID)
		assert.Equal(t, c1, diff.Order[1].ID)
	})

	t.Run("unknown non-zero id is kept for the store to reject", func(t *testing.T) {
		t.Parallel()

		ghost := uuid.MustParse("99999999-9999-9999-9999-999999999999")
		desired := []domain.ColumnChange{
			{ID: c1, Name: "Todo"},
			{ID: ghost, Name: "Ghost"},
		}

		diff := domain.DiffColumns(existing, desired)

		assert.Equal(t, []uuid.UUID{c2}, diff.Delete)
		assert.Empty(t, diff.Create)
		require.Len(t, diff.Order, 2)
		assert.Equal(t, ghost, diff.Order[1].ID)
	})
}

func TestUserIsAdmin(t *testing.T) {
	t.Parallel()

	assert.True(t, (&domain.User{Role: domain.RoleAdmin}).IsAdmin())
	assert.False(t, (&domain.User{Role: domain.RoleMember}).IsAdmin())
	assert.False(t, (*domain.User)(nil).IsAdmin())
}
