package board

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kanbus/kanbus/internal/domain"
)

// CreateTeam persists a team with the actor as its first member.
func (s *Service) CreateTeam(ctx context.Context, actor *domain.User, name string, memberIDs []uuid.UUID) (*domain.Team, error) {
	now := s.now().UTC()
	t := &domain.Team{
		ID:        uuid.New(),
		Name:      name,
		MemberIDs: withMember(memberIDs, actor.ID),
		BoardIDs:  []uuid.UUID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.teams.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("board.Service.CreateTeam: %w", err)
	}

	s.events.TeamCreated(ctx, t, actor.ID)

	return t, nil
}

// GetTeam returns a team. Only members and admins may read it.
func (s *Service) GetTeam(ctx context.Context, actor *domain.User, teamID uuid.UUID) (*domain.Team, error) {
	if err := s.requireTeamMember(ctx, actor, teamID); err != nil {
		return nil, fmt.Errorf("board.Service.GetTeam: %w", err)
	}

	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("board.Service.GetTeam: %w", err)
	}

	return t, nil
}

// ListTeams returns every team. Team names are not sensitive; boards
// remain guarded by visibility checks.
func (s *Service) ListTeams(ctx context.Context) ([]*domain.Team, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("board.Service.ListTeams: %w", err)
	}

	return teams, nil
}

// UpdateTeam renames a team. Only members and admins may touch it.
func (s *Service) UpdateTeam(ctx context.Context, actor *domain.User, teamID uuid.UUID, name string) (*domain.Team, error) {
	if err := s.requireTeamMember(ctx, actor, teamID); err != nil {
		return nil, fmt.Errorf("board.Service.UpdateTeam: %w", err)
	}

	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("board.Service.UpdateTeam: %w", err)
	}

	t.Name = name
	if err := s.teams.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("board.Service.UpdateTeam: %w", err)
	}

	s.events.TeamUpdated(ctx, t, actor.ID)

	return t, nil
}

// DeleteTeam removes a team after detaching it from every board. The
// member audience is captured before the rows disappear.
func (s *Service) DeleteTeam(ctx context.Context, actor *domain.User, teamID uuid.UUID) error {
	if err := s.requireTeamMember(ctx, actor, teamID); err != nil {
		return fmt.Errorf("board.Service.DeleteTeam: %w", err)
	}

	audience, err := s.teams.MemberIDs(ctx, teamID)
	if err != nil {
		log.Warn().Err(err).Str("team_id", teamID.String()).
			Msg("board: member resolution before team delete failed")
		audience = nil
	}

	if err := s.teams.Delete(ctx, teamID); err != nil {
		return fmt.Errorf("board.Service.DeleteTeam: %w", err)
	}

	s.events.TeamDeleted(ctx, teamID, actor.ID, audience)

	return nil
}

// AddTeamMember grants a user membership and announces it so the new
// member's clients can pick up the team's boards.
func (s *Service) AddTeamMember(ctx context.Context, actor *domain.User, teamID, userID uuid.UUID) error {
	if err := s.requireTeamMember(ctx, actor, teamID); err != nil {
		return fmt.Errorf("board.Service.AddTeamMember: %w", err)
	}

	if err := s.teams.AddMember(ctx, teamID, userID); err != nil {
		return fmt.Errorf("board.Service.AddTeamMember: %w", err)
	}

	s.events.TeamMemberAdded(ctx, teamID, userID, actor.ID)

	return nil
}

// RemoveTeamMember revokes membership; the removed user is still
// notified so their clients drop the team's boards.
func (s *Service) RemoveTeamMember(ctx context.Context, actor *domain.User, teamID, userID uuid.UUID) error {
	if err := s.requireTeamMember(ctx, actor, teamID); err != nil {
		return fmt.Errorf("board.Service.RemoveTeamMember: %w", err)
	}

	if err := s.teams.RemoveMember(ctx, teamID, userID); err != nil {
		return fmt.Errorf("board.Service.RemoveTeamMember: %w", err)
	}

	s.events.TeamMemberRemoved(ctx, teamID, userID, actor.ID)

	return nil
}

// AttachTeamToBoard associates a team with a board and announces the
// board change to its (now larger) audience.
func (s *Service) AttachTeamToBoard(ctx context.Context, actor *domain.User, teamID, boardID uuid.UUID) error {
	if err := s.requireVisible(ctx, actor, boardID); err != nil {
		return fmt.Errorf("board.Service.AttachTeamToBoard: %w", err)
	}

	if err := s.teams.AddBoard(ctx, teamID, boardID); err != nil {
		return fmt.Errorf("board.Service.AttachTeamToBoard: %w", err)
	}

	s.refreshBoard(ctx, actor, boardID)

	return nil
}

// DetachTeamFromBoard removes the association; required before a board
// with teams can be deleted.
func (s *Service) DetachTeamFromBoard(ctx context.Context, actor *domain.User, teamID, boardID uuid.UUID) error {
	if err := s.requireVisible(ctx, actor, boardID); err != nil {
		return fmt.Errorf("board.Service.DetachTeamFromBoard: %w", err)
	}

	if err := s.teams.RemoveBoard(ctx, teamID, boardID); err != nil {
		return fmt.Errorf("board.Service.DetachTeamFromBoard: %w", err)
	}

	s.refreshBoard(ctx, actor, boardID)

	return nil
}

func (s *Service) refreshBoard(ctx context.Context, actor *domain.User, boardID uuid.UUID) {
	b, err := s.boards.GetFull(ctx, boardID)
	if err != nil {
		return
	}
	s.events.BoardUpdated(ctx, b, actor.ID)
}

func (s *Service) requireTeamMember(ctx context.Context, actor *domain.User, teamID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}

	member, err := s.teams.IsMember(ctx, teamID, actor.ID)
	if err != nil {
		return err
	}
	if !member {
		return domain.ErrForbidden
	}
	return nil
}

func withMember(ids []uuid.UUID, member uuid.UUID) []uuid.UUID {
	for _, id := range ids {
		if id == member {
			return ids
		}
	}
	return append(ids, member)
}
