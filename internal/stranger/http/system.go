package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/stranger/pkg/httpx"
	"github.com/aussiebroadwan/stranger/pkg/jwtx"
	"github.com/aussiebroadwan/stranger/pkg/strangersdk"
)

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Returns 200 whenever the process is serving requests.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	strangersdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, strangersdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the accounts database, the status store and the token signer.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	strangersdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	strangersdk.HealthResponse	"a dependency is unavailable"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, db, statusStore Pinger, keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := &strangersdk.HealthChecks{Database: "ok", StatusStore: "ok", Signer: "ok"}
		status, code := "ok", http.StatusOK
		degrade := func(field *string, msg string) {
			*field = "error: " + msg
			status, code = "degraded", http.StatusServiceUnavailable
		}

		if err := db.Ping(ctx); err != nil {
			degrade(&checks.Database, err.Error())
		}
		if err := statusStore.Ping(ctx); err != nil {
			degrade(&checks.StatusStore, err.Error())
		}
		if !keys.IsReady() {
			degrade(&checks.Signer, "no keys loaded")
		}

		httpx.WriteJSON(w, code, strangersdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}

// JWKSHandler godoc
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set that verifies access tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	strangersdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, strangersdk.JWKSResponse(keys.PublicJWKS()))
	}
}
