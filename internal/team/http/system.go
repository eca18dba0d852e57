package http

import (
	"net/http"

	"github.com/aussiebroadwan/expo/internal/team/otpstore"
	"github.com/aussiebroadwan/expo/internal/team/store"
	"github.com/aussiebroadwan/expo/pkg/httpx"
	"github.com/aussiebroadwan/expo/pkg/jwtx"
	"github.com/aussiebroadwan/expo/pkg/teamsdk"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify JWTs.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	jwtx.JWKS	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}

// LivezHandler godoc
//
//	@Summary	Liveness probe
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	teamsdk.HealthResponse
//	@Router		/livez [get].
func LivezHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, teamsdk.HealthResponse{Status: "ok"})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the database, the verification code store and the signing keys.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	teamsdk.HealthResponse
//	@Failure		503	{object}	teamsdk.HealthResponse
//	@Router			/readyz [get].
func ReadyzHandler(st store.Store, codes otpstore.Store, keys *jwtx.KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"otp":      "ok",
			"signer":   "ok",
		}
		status, code := "ok", http.StatusOK
		fail := func(name, msg string) {
			checks[name] = "error: " + msg
			status, code = "degraded", http.StatusServiceUnavailable
		}

		if err := st.Ping(r.Context()); err != nil {
			fail("database", err.Error())
		}
		if err := codes.Ping(r.Context()); err != nil {
			fail("otp", err.Error())
		}
		if !keys.IsReady() {
			fail("signer", "no keys loaded")
		}

		httpx.WriteJSON(w, code, teamsdk.HealthResponse{Status: status, Checks: checks})
	}
}
