package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	MemberIDs []uuid.UUID `json:"memberIds"`
	BoardIDs  []uuid.UUID `json:"boardIds"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type TeamRepository interface {
	Create(ctx context.Context, t *Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	List(ctx context.Context) ([]*Team, error)
	Update(ctx context.Context, t *Team) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, teamID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	MemberIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error)
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)

	AddBoard(ctx context.Context, teamID, boardID uuid.UUID) error
	RemoveBoard(ctx context.Context, teamID, boardID uuid.UUID) error
	// BoardIDsForMember returns ids of boards reachable through any
	// team the user belongs to.
	BoardIDsForMember(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
