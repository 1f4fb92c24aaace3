package controllers

import (
	"net/http"

	"github.com/omarfadal/suuqpos-backend/api/responses"
	"github.com/omarfadal/suuqpos-backend/internal/balance"
	"github.com/omarfadal/suuqpos-backend/internal/inventory"
	"github.com/omarfadal/suuqpos-backend/pkg/config"
	"github.com/omarfadal/suuqpos-backend/pkg/db"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SuuqPOS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness of the local store and engines. The remote
// store is reported but never gates readiness; offline is a normal state.
func HealthReady(cfg *config.Config, logg *logger.Logger, local db.Pinger, remote db.Pinger, balances *balance.Engine, stock *inventory.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-SuuqPOS-Env", cfg.App.Env)

		if err := local.Ping(ctx); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "local store unreachable"))
			return
		}
		if !balances.Ready() || !stock.Ready() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "engines not loaded"))
			return
		}

		remoteOK := false
		if remote != nil {
			remoteOK = remote.Ping(ctx) == nil
		}

		responses.WriteSuccess(w, map[string]any{
			"status": "ready",
			"remote": remoteOK,
		})
	}
}
