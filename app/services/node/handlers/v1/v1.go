// Package v1 contains the full set of handler functions and routes supported
// by the v1 web api.
package v1

import (
	"net/http"

	"github.com/minichain/node/app/services/node/handlers/v1/public"
	"github.com/minichain/node/foundation/blockchain/state"
	"github.com/minichain/node/foundation/events"
	"github.com/minichain/node/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/health", pbl.Health)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/node/status", pbl.Status)

	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/tx/sign", pbl.SignTransaction)
	app.Handle(http.MethodPost, version, "/tx/sign-submit", pbl.SignSubmitTransaction)
	app.Handle(http.MethodGet, version, "/tx/wallet/:address", pbl.WalletTransactions)
	app.Handle(http.MethodGet, version, "/tx/:hash", pbl.Transaction)

	app.Handle(http.MethodPost, version, "/wallet/create", pbl.CreateWallet)
	app.Handle(http.MethodGet, version, "/wallet/balance/:address", pbl.Balance)

	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/block/:hash", pbl.Block)
}
