package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/hq/internal/api/v1"
	"github.com/gosuda/hq/internal/api/ws"
	"github.com/gosuda/hq/internal/auth"
	"github.com/gosuda/hq/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, store *postgres.Store, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, store, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, deps v1.BoardDeps) {
	v1.RegisterTenantRoutes(api, store)
	v1.RegisterInvestorRoutes(api, store, deps)
	v1.RegisterMissionRoutes(api, store, deps)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/board/{kind}", hub.ServeBoard)
}
