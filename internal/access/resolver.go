// Package access computes which users may observe which boards. It is
// the single source of visibility decisions for both the channel
// authorizer and the event broadcaster.
package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kanbus/kanbus/internal/domain"
)

// BoardDirectory is the subset of the board repository the resolver
// needs: id listings and association lookups.
type BoardDirectory interface {
	IDs(ctx context.Context) ([]uuid.UUID, error)
	IDsWithUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	UserIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
	TeamIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
}

// TeamDirectory is the subset of the team repository the resolver needs.
type TeamDirectory interface {
	BoardIDsForMember(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	MemberIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error)
}

type Resolver struct {
	boards BoardDirectory
	teams  TeamDirectory
}

func NewResolver(boards BoardDirectory, teams TeamDirectory) *Resolver {
	return &Resolver{boards: boards, teams: teams}
}

// BoardsVisibleTo returns the set of board ids the user may observe.
// Admins see every board; a standard user sees boards they are
// directly associated with plus boards reachable through any of their
// teams.
func (r *Resolver) BoardsVisibleTo(ctx context.Context, user *domain.User) (map[uuid.UUID]struct{}, error) {
	visible := make(map[uuid.UUID]struct{})

	if user.IsAdmin() {
		ids, err := r.boards.IDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("access.Resolver.BoardsVisibleTo: all boards: %w", err)
		}
		for _, id := range ids {
			visible[id] = struct{}{}
		}
		return visible, nil
	}

	direct, err := r.boards.IDsWithUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("access.Resolver.BoardsVisibleTo: direct boards: %w", err)
	}
	for _, id := range direct {
		visible[id] = struct{}{}
	}

	viaTeams, err := r.teams.BoardIDsForMember(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("access.Resolver.BoardsVisibleTo: team boards: %w", err)
	}
	for _, id := range viaTeams {
		visible[id] = struct{}{}
	}

	return visible, nil
}

// CanSeeBoard reports whether a single board is visible to the user.
func (r *Resolver) CanSeeBoard(ctx context.Context, user *domain.User, boardID uuid.UUID) (bool, error) {
	if user.IsAdmin() {
		return true, nil
	}

	visible, err := r.BoardsVisibleTo(ctx, user)
	if err != nil {
		return false, fmt.Errorf("access.Resolver.CanSeeBoard: %w", err)
	}

	_, ok := visible[boardID]
	return ok, nil
}

// UsersWithAccessTo returns the deduplicated audience of a board: its
// directly associated users plus the members of every associated
// team, in first-seen order. A board with no associations (including
// a board that does not exist) yields an empty slice without error;
// callers needing existence checks must perform them separately.
func (r *Resolver) UsersWithAccessTo(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var audience []uuid.UUID

	add := func(ids []uuid.UUID) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			audience = append(audience, id)
		}
	}

	direct, err := r.boards.UserIDs(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("access.Resolver.UsersWithAccessTo: board users: %w", err)
	}
	add(direct)

	teamIDs, err := r.boards.TeamIDs(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("access.Resolver.UsersWithAccessTo: board teams: %w", err)
	}

	for _, teamID := range teamIDs {
		members, err := r.teams.MemberIDs(ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("access.Resolver.UsersWithAccessTo: team %s members: %w", teamID, err)
		}
		add(members)
	}

	return audience, nil
}
