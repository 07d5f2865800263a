// Package client implements the subscriber side of the realtime
// protocol: a subscription manager that keeps channels alive across
// reconnects, and a board replica that folds incoming events into
// local state.
package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kanbus/kanbus/internal/domain"
	"github.com/kanbus/kanbus/internal/realtime"
)

// State is a client-side replica of the boards a subscriber watches.
// Events are merged so that applying the same event twice leaves the
// replica unchanged.
type State struct {
	mu             sync.RWMutex
	boards         map[uuid.UUID]*domain.Board
	onBoardDeleted func(boardID uuid.UUID)
}

func NewState() *State {
	return &State{boards: make(map[uuid.UUID]*domain.Board)}
}

// OnBoardDeleted registers the consumer signal fired when a replicated
// board is deleted upstream. Must be set before Apply is called.
func (s *State) OnBoardDeleted(fn func(boardID uuid.UUID)) {
	s.onBoardDeleted = fn
}

// Put seeds the replica with a board snapshot, typically fetched over
// REST before subscribing to its channel.
func (s *State) Put(b *domain.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[b.ID] = b
}

// Board returns the replicated board, if held.
func (s *State) Board(id uuid.UUID) (*domain.Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boards[id]
	return b, ok
}

// BoardIDs returns the ids of all replicated boards.
func (s *State) BoardIDs() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.boards))
	for id := range s.boards {
		ids = append(ids, id)
	}
	return ids
}

// Apply folds one wire frame into the replica. Events for boards or
// columns not replicated locally are ignored; unknown event names are
// not an error, so old clients survive new server events.
func (s *State) Apply(msg realtime.Message) error {
	switch msg.Event {
	case realtime.EventBoardCreated:
		var env realtime.BoardCreated
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return fmt.Errorf("client.State.Apply: %s: %w", msg.Event, err)
		}
		s.Put(env.Board)

	case realtime.EventBoardUpdated:
		var env realtime.BoardUpdated
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return fmt.Errorf("client.State.Apply: %s: %w", msg.Event, err)
		}
		// The snapshot replaces the held board wholesale, columns
		// included. Per-column patching is not attempted.
		s.Put(env.Board)

	case realtime.EventBoardDeleted:
		var env realtime.BoardDeleted
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return fmt.Errorf("client.State.Apply: %s: %w", msg.Event, err)
		}
		s.removeBoard(env.BoardID)

	case realtime.EventTaskCreated:
		var env realtime.TaskCreated
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return fmt.Errorf("client.State.Apply: %s: %w", msg.Event, err)
		}
		s.upsertTask(env.Task)

	case realtime.EventTaskUpdated:
		var env realtime.TaskUpdated
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return fmt.Errorf("client.State.Apply: %s: %w", msg.Event, err)
		}
		s.replaceTask(env.Task)

	case realtime.EventTaskDeleted:
		var env realtime.TaskDeleted
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return fmt.Errorf("client.State.Apply: %s: %w", msg.Event, err)
		}
		s.removeTask(env.BoardID, env.TaskID)
	}

	return nil
}

func (s *State) removeBoard(id uuid.UUID) {
	s.mu.Lock()
	_, held := s.boards[id]
	delete(s.boards, id)
	fn := s.onBoardDeleted
	s.mu.Unlock()

	// Signal only on the first delete so replays stay silent.
	if held && fn != nil {
		fn(id)
	}
}

// upsertTask appends a task to its column, replacing any copy already
// held so replayed creations do not duplicate.
func (s *State) upsertTask(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[t.BoardID]
	if !ok {
		return
	}
	dropTask(b, t.ID)
	for _, c := range b.Columns {
		if c.ID == t.ColumnID {
			c.Tasks = append(c.Tasks, t)
			return
		}
	}
	// Target column not replicated locally; nothing to attach to.
}

// replaceTask updates a held task in place. When the column id changed
// the task is removed from the old column and appended to the new one.
func (s *State) replaceTask(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[t.BoardID]
	if !ok {
		return
	}
	for _, c := range b.Columns {
		for i, held := range c.Tasks {
			if held.ID != t.ID {
				continue
			}
			if c.ID == t.ColumnID {
				c.Tasks[i] = t
				return
			}
			c.Tasks = append(c.Tasks[:i], c.Tasks[i+1:]...)
			appendToColumn(b, t)
			return
		}
	}
	// Not held yet, e.g. the update outran the creation.
	appendToColumn(b, t)
}

func (s *State) removeTask(boardID, taskID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[boardID]
	if !ok {
		return
	}
	dropTask(b, taskID)
}

func dropTask(b *domain.Board, taskID uuid.UUID) {
	for _, c := range b.Columns {
		for i, t := range c.Tasks {
			if t.ID == taskID {
				c.Tasks = append(c.Tasks[:i], c.Tasks[i+1:]...)
				return
			}
		}
	}
}

func appendToColumn(b *domain.Board, t *domain.Task) {
	for _, c := range b.Columns {
		if c.ID == t.ColumnID {
			c.Tasks = append(c.Tasks, t)
			return
		}
	}
}
