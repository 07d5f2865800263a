package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kanbus/kanbus/internal/domain"
)

// Event names in <entity>.<action> form.
const (
	EventBoardCreated = "board.created"
	EventBoardUpdated = "board.updated"
	EventBoardDeleted = "board.deleted"

	EventColumnCreated = "column.created"
	EventColumnUpdated = "column.updated"
	EventColumnDeleted = "column.deleted"

	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"

	EventTeamCreated = "team.created"
	EventTeamUpdated = "team.updated"
	EventTeamDeleted = "team.deleted"

	EventTeamMemberAdded   = "team.member_added"
	EventTeamMemberRemoved = "team.member_removed"
)

// Message is the on-wire frame. Redis pub/sub carries only opaque
// payloads, so the event name travels inside the frame alongside the
// envelope.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type BoardCreated struct {
	Board     *domain.Board `json:"board"`
	CreatedBy uuid.UUID     `json:"createdBy"`
	Timestamp time.Time     `json:"timestamp"`
}

type BoardUpdated struct {
	Board     *domain.Board `json:"board"`
	UpdatedBy uuid.UUID     `json:"updatedBy"`
	Timestamp time.Time     `json:"timestamp"`
}

type BoardDeleted struct {
	BoardID   uuid.UUID `json:"boardId"`
	DeletedBy uuid.UUID `json:"deletedBy"`
	Timestamp time.Time `json:"timestamp"`
}

type ColumnCreated struct {
	Column    *domain.Column `json:"column"`
	CreatedBy uuid.UUID      `json:"createdBy"`
	Timestamp time.Time      `json:"timestamp"`
}

type ColumnUpdated struct {
	Column    *domain.Column `json:"column"`
	UpdatedBy uuid.UUID      `json:"updatedBy"`
	Timestamp time.Time      `json:"timestamp"`
}

type ColumnDeleted struct {
	ColumnID  uuid.UUID `json:"columnId"`
	BoardID   uuid.UUID `json:"boardId"`
	DeletedBy uuid.UUID `json:"deletedBy"`
	Timestamp time.Time `json:"timestamp"`
}

type TaskCreated struct {
	Task      *domain.Task `json:"task"`
	CreatedBy uuid.UUID    `json:"createdBy"`
	Timestamp time.Time    `json:"timestamp"`
}

type TaskUpdated struct {
	Task      *domain.Task `json:"task"`
	UpdatedBy uuid.UUID    `json:"updatedBy"`
	Timestamp time.Time    `json:"timestamp"`
}

type TaskDeleted struct {
	TaskID    uuid.UUID `json:"taskId"`
	BoardID   uuid.UUID `json:"boardId"`
	DeletedBy uuid.UUID `json:"deletedBy"`
	Timestamp time.Time `json:"timestamp"`
}

type TeamCreated struct {
	Team      *domain.Team `json:"team"`
	CreatedBy uuid.UUID    `json:"createdBy"`
	Timestamp time.Time    `json:"timestamp"`
}

type TeamUpdated struct {
	Team      *domain.Team `json:"team"`
	UpdatedBy uuid.UUID    `json:"updatedBy"`
	Timestamp time.Time    `json:"timestamp"`
}

type TeamDeleted struct {
	TeamID    uuid.UUID `json:"teamId"`
	DeletedBy uuid.UUID `json:"deletedBy"`
	Timestamp time.Time `json:"timestamp"`
}

type TeamMemberAdded struct {
	TeamID    uuid.UUID `json:"teamId"`
	UserID    uuid.UUID `json:"userId"`
	AddedBy   uuid.UUID `json:"addedBy"`
	Timestamp time.Time `json:"timestamp"`
}

type TeamMemberRemoved struct {
	TeamID    uuid.UUID `json:"teamId"`
	UserID    uuid.UUID `json:"userId"`
	RemovedBy uuid.UUID `json:"removedBy"`
	Timestamp time.Time `json:"timestamp"`
}
