package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kanbus/kanbus/internal/domain"
)

// Publisher abstracts the pub/sub provider's publish operation.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// AudienceResolver computes the set of users entitled to a board's events.
type AudienceResolver interface {
	UsersWithAccessTo(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
}

// TeamMembers lists the member audience of a team.
type TeamMembers interface {
	MemberIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error)
}

// Broadcaster fans change notifications out to the pub/sub provider.
// Every event is published once to the entity-scoped channel and once
// to each audience member's personal channel with an identical
// payload. Broadcasting runs after the mutation has committed; publish
// failures are logged per recipient and never surface to the caller.
type Broadcaster struct {
	pub    Publisher
	access AudienceResolver
	teams  TeamMembers
	now    func() time.Time
}

func NewBroadcaster(pub Publisher, access AudienceResolver, teams TeamMembers) *Broadcaster {
	return &Broadcaster{
		pub:    pub,
		access: access,
		teams:  teams,
		now:    time.Now,
	}
}

// BoardCreated announces a new board. The audience is the creator plus
// any explicitly supplied initial members; a brand-new board's
// associations may not be readable yet, so the creator is always
// included rather than resolved.
func (b *Broadcaster) BoardCreated(ctx context.Context, board *domain.Board, createdBy uuid.UUID, audience []uuid.UUID) {
	evt := BoardCreated{Board: board, CreatedBy: createdBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventBoardCreated, BoardChannel(board.ID), withUser(audience, createdBy), evt)
}

func (b *Broadcaster) BoardUpdated(ctx context.Context, board *domain.Board, updatedBy uuid.UUID) {
	evt := BoardUpdated{Board: board, UpdatedBy: updatedBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventBoardUpdated, BoardChannel(board.ID), b.boardAudience(ctx, EventBoardUpdated, board.ID), evt)
}

// BoardDeleted announces a board deletion. The audience must be
// resolved by the caller before the delete commits, since the board's
// associations are gone afterwards.
func (b *Broadcaster) BoardDeleted(ctx context.Context, boardID, deletedBy uuid.UUID, audience []uuid.UUID) {
	evt := BoardDeleted{BoardID: boardID, DeletedBy: deletedBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventBoardDeleted, BoardChannel(boardID), audience, evt)
}

func (b *Broadcaster) ColumnCreated(ctx context.Context, column *domain.Column, createdBy uuid.UUID) {
	evt := ColumnCreated{Column: column, CreatedBy: createdBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventColumnCreated, BoardChannel(column.BoardID), b.boardAudience(ctx, EventColumnCreated, column.BoardID), evt)
}

func (b *Broadcaster) ColumnUpdated(ctx context.Context, column *domain.Column, updatedBy uuid.UUID) {
	evt := ColumnUpdated{Column: column, UpdatedBy: updatedBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventColumnUpdated, BoardChannel(column.BoardID), b.boardAudience(ctx, EventColumnUpdated, column.BoardID), evt)
}

func (b *Broadcaster) ColumnDeleted(ctx context.Context, columnID, boardID, deletedBy uuid.UUID) {
	evt := ColumnDeleted{ColumnID: columnID, BoardID: boardID, DeletedBy: deletedBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventColumnDeleted, BoardChannel(boardID), b.boardAudience(ctx, EventColumnDeleted, boardID), evt)
}

func (b *Broadcaster) TaskCreated(ctx context.Context, task *domain.Task, createdBy uuid.UUID) {
	evt := TaskCreated{Task: task, CreatedBy: createdBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventTaskCreated, BoardChannel(task.BoardID), b.boardAudience(ctx, EventTaskCreated, task.BoardID), evt)
}

func (b *Broadcaster) TaskUpdated(ctx context.Context, task *domain.Task, updatedBy uuid.UUID) {
	evt := TaskUpdated{Task: task, UpdatedBy: updatedBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventTaskUpdated, BoardChannel(task.BoardID), b.boardAudience(ctx, EventTaskUpdated, task.BoardID), evt)
}

func (b *Broadcaster) TaskDeleted(ctx context.Context, taskID, boardID, deletedBy uuid.UUID) {
	evt := TaskDeleted{TaskID: taskID, BoardID: boardID, DeletedBy: deletedBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventTaskDeleted, BoardChannel(boardID), b.boardAudience(ctx, EventTaskDeleted, boardID), evt)
}

func (b *Broadcaster) TeamCreated(ctx context.Context, team *domain.Team, createdBy uuid.UUID) {
	evt := TeamCreated{Team: team, CreatedBy: createdBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventTeamCreated, TeamChannel(team.ID), b.teamAudience(ctx, EventTeamCreated, team.ID), evt)
}

func (b *Broadcaster) TeamUpdated(ctx context.Context, team *domain.Team, updatedBy uuid.UUID) {
	evt := TeamUpdated{Team: team, UpdatedBy: updatedBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventTeamUpdated, TeamChannel(team.ID), b.teamAudience(ctx, EventTeamUpdated, team.ID), evt)
}

// TeamDeleted takes the member audience resolved before the delete
// committed, for the same reason as BoardDeleted.
func (b *Broadcaster) TeamDeleted(ctx context.Context, teamID, deletedBy uuid.UUID, audience []uuid.UUID) {
	evt := TeamDeleted{TeamID: teamID, DeletedBy: deletedBy, Timestamp: b.timestamp()}
	b.fanOut(ctx, EventTeamDeleted, TeamChannel(teamID), audience, evt)
}

func (b *Broadcaster) TeamMemberAdded(ctx context.Context, teamID, userID, addedBy uuid.UUID) {
	evt := TeamMemberAdded{TeamID: teamID, UserID: userID, AddedBy: addedBy, Timestamp: b.timestamp()}
	audience := withUser(b.teamAudience(ctx, EventTeamMemberAdded, teamID), userID)
	b.fanOut(ctx, EventTeamMemberAdded, TeamChannel(teamID), audience, evt)
}

func (b *Broadcaster) TeamMemberRemoved(ctx context.Context, teamID, userID, removedBy uuid.UUID) {
	evt := TeamMemberRemoved{TeamID: teamID, UserID: userID, RemovedBy: removedBy, Timestamp: b.timestamp()}
	// The removed user still gets told they were removed.
	audience := withUser(b.teamAudience(ctx, EventTeamMemberRemoved, teamID), userID)
	b.fanOut(ctx, EventTeamMemberRemoved, TeamChannel(teamID), audience, evt)
}

func (b *Broadcaster) timestamp() time.Time {
	return b.now().UTC()
}

func (b *Broadcaster) boardAudience(ctx context.Context, event string, boardID uuid.UUID) []uuid.UUID {
	audience, err := b.access.UsersWithAccessTo(ctx, boardID)
	if err != nil {
		log.Error().Err(err).Str("event", event).Str("board_id", boardID.String()).
			Msg("realtime: audience resolution failed, entity channel only")
		return nil
	}
	return audience
}

func (b *Broadcaster) teamAudience(ctx context.Context, event string, teamID uuid.UUID) []uuid.UUID {
	audience, err := b.teams.MemberIDs(ctx, teamID)
	if err != nil {
		log.Error().Err(err).Str("event", event).Str("team_id", teamID.String()).
			Msg("realtime: audience resolution failed, entity channel only")
		return nil
	}
	return audience
}

// fanOut publishes one frame to the entity channel and one to each
// audience member's personal channel. Failures are logged per
// recipient so a single broken publish never blocks the rest.
func (b *Broadcaster) fanOut(ctx context.Context, event, entityChannel string, audience []uuid.UUID, envelope any) {
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("realtime: marshal envelope")
		return
	}

	frame, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("realtime: marshal frame")
		return
	}

	b.publish(ctx, event, entityChannel, frame)
	for _, userID := range audience {
		b.publish(ctx, event, UserChannel(userID), frame)
	}
}

func (b *Broadcaster) publish(ctx context.Context, event, channel string, frame []byte) {
	if err := b.pub.Publish(ctx, channel, frame); err != nil {
		log.Error().Err(err).Str("event", event).Str("channel", channel).
			Msg("realtime: publish failed")
	}
}

// withUser prepends the user to the audience unless already present.
func withUser(audience []uuid.UUID, user uuid.UUID) []uuid.UUID {
	for _, id := range audience {
		if id == user {
			return audience
		}
	}
	return append([]uuid.UUID{user}, audience...)
}
