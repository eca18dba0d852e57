package http

import (
	"net/http"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/aussiebroadwan/expo/internal/team/service"
	"github.com/aussiebroadwan/expo/pkg/httpx"
	"github.com/aussiebroadwan/expo/pkg/teamsdk"
)

type LoginHandler struct {
	AuthService  *service.AuthService
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Exchanges an activated member's email and password for an access and refresh token pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		teamsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	teamsdk.TokenResponse
//	@Failure		400		{object}	teamsdk.ErrorResponse	"missing_fields"
//	@Failure		401		{object}	teamsdk.ErrorResponse	"invalid_credentials, password_not_set"
//	@Failure		429		{object}	teamsdk.ErrorResponse
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req teamsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(h.TokenService, res))
}

type RefreshHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Refresh credentials
//	@Description	Exchanges a refresh token for a new token pair. The member must still exist and be active.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		teamsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	teamsdk.TokenResponse
//	@Failure		401		{object}	teamsdk.ErrorResponse	"invalid_token"
//	@Router			/v1/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req teamsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	res, err := h.TokenService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(h.TokenService, res))
}

func tokenResponse(ts *service.TokenService, res service.LoginResult) teamsdk.TokenResponse {
	return teamsdk.TokenResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(ts.AccessTokenTTL().Seconds()),
		Role:         string(res.Member.Role),
		Name:         res.Member.Name,
		Email:        res.Member.Email,
	}
}

type MeHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Current member
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	teamsdk.MemberSummary
//	@Failure		401	{object}	teamsdk.ErrorResponse
//	@Failure		404	{object}	teamsdk.ErrorResponse	"member was removed"
//	@Router			/v1/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	m, err := h.AuthService.Member(r.Context(), actor.MemberID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSummary(m))
}

// actorFrom reads the caller set by httpx.Authn. Unauthenticated requests
// get the zero Actor, which the services treat as unprivileged.
func actorFrom(r *http.Request) domain.Actor {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		return domain.Actor{}
	}
	return domain.Actor{MemberID: claims.Subject, Role: domain.Role(claims.Role)}
}
