package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kanbus/kanbus/internal/realtime"
)

// Provider hands out channel subscriptions. Satisfied by the Redis
// pub/sub wrapper; tests substitute an in-memory implementation.
type Provider interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Handler receives every decoded frame together with the channel it
// arrived on.
type Handler func(channel string, msg realtime.Message)

type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

var ErrClosed = errors.New("client: manager closed")

const (
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
)

// Manager keeps a set of channel subscriptions alive. Connect opens the
// caller's personal channel; boards and teams are watched on demand.
// When the provider drops, every held channel is re-subscribed with
// exponential backoff.
type Manager struct {
	provider Provider
	handler  Handler

	minBackoff time.Duration
	maxBackoff time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	status  Status
	held    map[string]struct{}
	session *session
	closed  bool
}

type Option func(*Manager)

// WithBackoff overrides the reconnect backoff bounds.
func WithBackoff(min, max time.Duration) Option {
	return func(m *Manager) {
		m.minBackoff = min
		m.maxBackoff = max
	}
}

func NewManager(provider Provider, handler Handler, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		provider:   provider,
		handler:    handler,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
		ctx:        ctx,
		cancel:     cancel,
		held:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Connect subscribes the user's personal channel plus any channels
// already requested via Watch. Calling Connect while connected is a
// no-op.
func (m *Manager) Connect(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.status == StatusConnected {
		m.mu.Unlock()
		return nil
	}
	m.status = StatusConnecting
	m.held[realtime.UserChannel(userID)] = struct{}{}
	channels := m.heldChannels()
	m.mu.Unlock()

	sess, err := m.openSession(ctx, channels)
	if err != nil {
		m.mu.Lock()
		m.status = StatusDisconnected
		m.mu.Unlock()
		return fmt.Errorf("client.Manager.Connect: %w", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		sess.close()
		return ErrClosed
	}
	m.session = sess
	m.status = StatusConnected
	m.mu.Unlock()

	return nil
}

// WatchBoard subscribes the board's channel. Idempotent: watching a
// channel that is already held changes nothing.
func (m *Manager) WatchBoard(ctx context.Context, boardID uuid.UUID) error {
	return m.watch(ctx, realtime.BoardChannel(boardID))
}

// WatchTeam subscribes the team's channel.
func (m *Manager) WatchTeam(ctx context.Context, teamID uuid.UUID) error {
	return m.watch(ctx, realtime.TeamChannel(teamID))
}

func (m *Manager) UnwatchBoard(boardID uuid.UUID) {
	m.unwatch(realtime.BoardChannel(boardID))
}

func (m *Manager) UnwatchTeam(teamID uuid.UUID) {
	m.unwatch(realtime.TeamChannel(teamID))
}

func (m *Manager) watch(ctx context.Context, channel string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if _, ok := m.held[channel]; ok {
		m.mu.Unlock()
		return nil
	}
	m.held[channel] = struct{}{}
	sess := m.session
	connected := m.status == StatusConnected
	m.mu.Unlock()

	// Not connected yet: the channel joins the held set and is opened
	// by the next Connect or reconnect.
	if !connected || sess == nil {
		return nil
	}

	msgs, stop, err := m.provider.Subscribe(ctx, channel)
	if err != nil {
		m.mu.Lock()
		delete(m.held, channel)
		m.mu.Unlock()
		return fmt.Errorf("client.Manager: watch %s: %w", channel, err)
	}

	m.mu.Lock()
	if m.session != sess || m.closed {
		// A reconnect raced us; that session picked the channel up from
		// the held set already.
		m.mu.Unlock()
		stop()
		return nil
	}
	sess.stops[channel] = stop
	m.mu.Unlock()

	go m.pump(sess, channel, msgs)
	return nil
}

func (m *Manager) unwatch(channel string) {
	m.mu.Lock()
	delete(m.held, channel)
	var stop func()
	if m.session != nil {
		stop = m.session.stops[channel]
		delete(m.session.stops, channel)
	}
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Close tears down every subscription. The manager cannot be reused.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.status = StatusDisconnected
	sess := m.session
	m.session = nil
	m.mu.Unlock()

	m.cancel()
	if sess != nil {
		sess.close()
	}
}

type session struct {
	stops map[string]func()
	lost  sync.Once
}

func (s *session) close() {
	for _, stop := range s.stops {
		stop()
	}
}

func (m *Manager) openSession(ctx context.Context, channels []string) (*session, error) {
	sess := &session{stops: make(map[string]func())}
	for _, ch := range channels {
		msgs, stop, err := m.provider.Subscribe(ctx, ch)
		if err != nil {
			sess.close()
			return nil, fmt.Errorf("subscribe %s: %w", ch, err)
		}
		sess.stops[ch] = stop
		go m.pump(sess, ch, msgs)
	}
	return sess, nil
}

func (m *Manager) pump(sess *session, channel string, msgs <-chan []byte) {
	for raw := range msgs {
		var msg realtime.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Warn().Err(err).Str("channel", channel).
				Msg("client: dropping malformed frame")
			continue
		}
		m.handler(channel, msg)
	}
	m.connectionLost(sess, channel)
}

// connectionLost runs when a subscription's message channel closes. An
// intentional drop (unwatch, close) is quiet; anything else kicks off a
// reconnect, once per session.
func (m *Manager) connectionLost(sess *session, channel string) {
	m.mu.Lock()
	_, wanted := m.held[channel]
	current := m.session == sess
	closed := m.closed
	m.mu.Unlock()

	if closed || !wanted || !current {
		return
	}
	sess.lost.Do(func() {
		go m.reconnect()
	})
}

// reconnect re-subscribes every held channel, doubling the backoff on
// each failed attempt up to the maximum. Runs until it succeeds or the
// manager closes.
func (m *Manager) reconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.session != nil {
		m.session.close()
		m.session = nil
	}
	m.status = StatusConnecting
	m.mu.Unlock()

	backoff := m.minBackoff
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return
		}
		channels := m.heldChannels()
		m.mu.Unlock()

		sess, err := m.openSession(m.ctx, channels)
		if err == nil {
			m.mu.Lock()
			if m.closed {
				m.mu.Unlock()
				sess.close()
				return
			}
			m.session = sess
			m.status = StatusConnected
			m.mu.Unlock()
			log.Info().Int("channels", len(channels)).Msg("client: reconnected")
			return
		}

		log.Warn().Err(err).Dur("backoff", backoff).Msg("client: reconnect failed")
		select {
		case <-m.ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > m.maxBackoff {
			backoff = m.maxBackoff
		}
	}
}

// heldChannels snapshots the held set. Caller holds m.mu.
func (m *Manager) heldChannels() []string {
	channels := make([]string, 0, len(m.held))
	for ch := range m.held {
		channels = append(channels, ch)
	}
	return channels
}
