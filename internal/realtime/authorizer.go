package realtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kanbus/kanbus/internal/domain"
)

// BoardAccess answers board visibility questions for the authorizer.
type BoardAccess interface {
	CanSeeBoard(ctx context.Context, user *domain.User, boardID uuid.UUID) (bool, error)
}

// TeamMembership answers team membership questions for the authorizer.
type TeamMembership interface {
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
}

// Authorizer gates every channel subscription attempt. It is the sole
// defence against board data leaking to users without access, so the
// default outcome is deny and every rule is evaluated in a fixed order.
type Authorizer struct {
	access BoardAccess
	teams  TeamMembership
}

func NewAuthorizer(access BoardAccess, teams TeamMembership) *Authorizer {
	return &Authorizer{access: access, teams: teams}
}

// Authorize decides whether the user may subscribe to the named
// channel. Rules, first match wins:
//
//  1. a personal channel is allowed only for its owner
//  2. admins may subscribe to anything else
//  3. board channels require board visibility
//  4. team channels require team membership
//  5. the global channel is admin-only
//  6. everything else is denied
//
// The method performs reads only; it is safe to call on every attempt.
func (a *Authorizer) Authorize(ctx context.Context, user *domain.User, channel string) (bool, error) {
	if user == nil {
		return false, nil
	}

	if ownerID, ok := ParseUserChannel(channel); ok {
		return ownerID == user.ID, nil
	}

	if user.IsAdmin() {
		return true, nil
	}

	if boardID, ok := ParseBoardChannel(channel); ok {
		allowed, err := a.access.CanSeeBoard(ctx, user, boardID)
		if err != nil {
			return false, fmt.Errorf("realtime.Authorizer.Authorize: board %s: %w", boardID, err)
		}
		return allowed, nil
	}

	if teamID, ok := ParseTeamChannel(channel); ok {
		member, err := a.teams.IsMember(ctx, teamID, user.ID)
		if err != nil {
			return false, fmt.Errorf("realtime.Authorizer.Authorize: team %s: %w", teamID, err)
		}
		return member, nil
	}

	// GlobalChannel falls through here for non-admins, as does any
	// malformed channel name.
	return false, nil
}
