package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/kanbus/kanbus/internal/api/v1"
	"github.com/kanbus/kanbus/internal/api/ws"
	"github.com/kanbus/kanbus/internal/auth"
	"github.com/kanbus/kanbus/internal/board"
	"github.com/kanbus/kanbus/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, boards *board.Service) {
	v1.RegisterBoardRoutes(api, boards)
	v1.RegisterTaskRoutes(api, boards)
	v1.RegisterTeamRoutes(api, boards)
	v1.RegisterUserRoutes(api, store.Users())
}

func registerAdminRoutes(api huma.API, store *postgres.Store) {
	v1.RegisterAdminUserRoutes(api, store.Users())
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/user", hub.ServeUser)
	r.Get("/boards/{boardID}", hub.ServeBoard)
	r.Get("/teams/{teamID}", hub.ServeTeam)
	r.Get("/global", hub.ServeGlobal)
}
