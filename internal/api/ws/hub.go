// Package ws bridges Redis pub/sub channels onto WebSocket
// connections. Every endpoint authorizes the channel before the
// first frame flows.
package ws

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kanbus/kanbus/internal/domain"
	"github.com/kanbus/kanbus/internal/realtime"
	"github.com/kanbus/kanbus/internal/server/middleware"
	redisstore "github.com/kanbus/kanbus/internal/store/redis"
)

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub *redisstore.PubSub
	authz  *realtime.Authorizer
}

func NewHub(pubsub *redisstore.PubSub, authz *realtime.Authorizer) *Hub {
	return &Hub{pubsub: pubsub, authz: authz}
}

// ServeUser streams the caller's personal channel.
func (h *Hub) ServeUser(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	h.serveChannel(w, r, user, realtime.UserChannel(user.ID))
}

// ServeBoard streams a board's channel to viewers with access.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	boardID, err := uuid.Parse(chi.URLParam(r, "boardID"))
	if err != nil {
		http.Error(w, "invalid board id", http.StatusBadRequest)
		return
	}

	h.serveChannel(w, r, user, realtime.BoardChannel(boardID))
}

// ServeTeam streams a team's channel to its members.
func (h *Hub) ServeTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	teamID, err := uuid.Parse(chi.URLParam(r, "teamID"))
	if err != nil {
		http.Error(w, "invalid team id", http.StatusBadRequest)
		return
	}

	h.serveChannel(w, r, user, realtime.TeamChannel(teamID))
}

// ServeGlobal streams the global channel. Admin only.
func (h *Hub) ServeGlobal(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	h.serveChannel(w, r, user, realtime.GlobalChannel)
}

// serveChannel authorizes the subscription, upgrades the connection
// and pumps Redis frames until either side goes away.
func (h *Hub) serveChannel(w http.ResponseWriter, r *http.Request, user *domain.User, channel string) {
	allowed, err := h.authz.Authorize(r.Context(), user, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("ws: authorize")
		http.Error(w, "authorization failed", http.StatusInternalServerError)
		return
	}
	if !allowed {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws: accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("ws: subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("ws: write")
				return
			}
		}
	}
}

func actor(r *http.Request) (*domain.User, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return nil, false
	}
	role, _ := middleware.RoleFromContext(r.Context())
	return &domain.User{ID: userID, Role: domain.Role(role)}, true
}
