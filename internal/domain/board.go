package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Columns   []*Column   `json:"columns"` // ordered by position
	UserIDs   []uuid.UUID `json:"userIds"` // directly associated users
	TeamIDs   []uuid.UUID `json:"teamIds"` // associated teams
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type Column struct {
	ID       uuid.UUID `json:"id"`
	BoardID  uuid.UUID `json:"boardId"`
	Name     string    `json:"name"`
	Position int       `json:"position"`
	Tasks    []*Task   `json:"tasks"`
}

// ColumnChange is one entry of a client-submitted desired column list.
// A zero ID means the column is being newly created.
type ColumnChange struct {
	ID   uuid.UUID
	Name string
}

// BoardPatch describes a board update submitted by a client. Nil
// slices leave the corresponding associations untouched; a non-nil
// empty slice clears them. Columns and TeamIDs are full desired sets,
// not deltas.
type BoardPatch struct {
	Name    *string
	Columns []ColumnChange
	TeamIDs []uuid.UUID
}

// ColumnDiff is the reconciliation plan computed from persisted
// columns and a desired column list.
type ColumnDiff struct {
	Delete []uuid.UUID          // persisted ids absent from the desired list
	Rename map[uuid.UUID]string // persisted ids whose name changed
	Create []string             // names of desired entries with no id
	Order  []ColumnChange       // desired list order for surviving and new columns
}

// DiffColumns computes the structural diff between the persisted
// columns and the desired list. Desired entries whose id is not among
// the persisted ids are treated as creations only when the id is zero;
// a non-zero unknown id is kept in the plan and will surface as a
// not-found failure when applied.
func DiffColumns(existing []*Column, desired []ColumnChange) ColumnDiff {
	current := make(map[uuid.UUID]*Column, len(existing))
	for _, c := range existing {
		current[c.ID] = c
	}

	incoming := make(map[uuid.UUID]struct{}, len(desired))
	diff := ColumnDiff{Rename: make(map[uuid.UUID]string)}

	for _, d := range desired {
		if d.ID == uuid.Nil {
			diff.Create = append(diff.Create, d.Name)
			diff.Order = append(diff.Order, d)
			continue
		}
		incoming[d.ID] = struct{}{}
		if c, ok := current[d.ID]; ok && c.Name != d.Name {
			diff.Rename[d.ID] = d.Name
		}
		diff.Order = append(diff.Order, d)
	}

	for _, c := range existing {
		if _, ok := incoming[c.ID]; !ok {
			diff.Delete = append(diff.Delete, c.ID)
		}
	}

	return diff
}

type BoardRepository interface {
	Create(ctx context.Context, b *Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
	// GetFull loads the board with columns, nested tasks and subtasks,
	// and user/team associations.
	GetFull(ctx context.Context, id uuid.UUID) (*Board, error)
	IDs(ctx context.Context) ([]uuid.UUID, error)
	// BoardIDForColumn resolves the owning board of a column.
	BoardIDForColumn(ctx context.Context, columnID uuid.UUID) (uuid.UUID, error)
	// IDsWithUser returns ids of boards the user is directly associated with.
	IDsWithUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddUser(ctx context.Context, boardID, userID uuid.UUID) error
	RemoveUser(ctx context.Context, boardID, userID uuid.UUID) error
	UserIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
	TeamIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
	// Reconcile applies the patch in a single transaction and returns
	// the canonical post-update snapshot. All-or-nothing: any failure
	// rolls back every sub-step.
	Reconcile(ctx context.Context, id uuid.UUID, patch BoardPatch) (*Board, error)
}
