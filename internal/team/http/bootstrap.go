package http

import (
	"net/http"

	"github.com/aussiebroadwan/expo/internal/team/service"
	"github.com/aussiebroadwan/expo/pkg/httpx"
	"github.com/aussiebroadwan/expo/pkg/teamsdk"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the team service
//	@Description	Creates the admin member. Only available when a bootstrap token is configured and only once.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			Authorization	header		string						true	"Bearer {bootstrap token}"
//	@Param			request			body		teamsdk.BootstrapRequest	true	"Admin identity"
//	@Success		201				{object}	teamsdk.BootstrapResponse
//	@Failure		400				{object}	teamsdk.ErrorResponse	"missing_fields"
//	@Failure		401				{object}	teamsdk.ErrorResponse	"invalid_bootstrap_token"
//	@Failure		404				{object}	teamsdk.ErrorResponse	"bootstrap not enabled"
//	@Failure		409				{object}	teamsdk.ErrorResponse	"bootstrap_complete"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Check if enabled
	if h.BootstrapService.Token == "" {
		httpx.WriteError(w, http.StatusNotFound, teamsdk.ErrorCodeNotFound, "Bootstrap endpoint is not enabled")
		return
	}

	// 2. Require bootstrap token
	token, ok := httpx.BearerToken(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, teamsdk.ErrorCodeInvalidBootstrapToken, "Bootstrap token is required")
		return
	}

	// 3. Parse request body
	var req teamsdk.BootstrapRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	// 4. Perform bootstrap
	m, err := h.BootstrapService.Bootstrap(r.Context(), token, service.BootstrapRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, teamsdk.BootstrapResponse{Member: toSummary(m)})
}
