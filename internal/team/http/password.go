package http

import (
	"net/http"

	"github.com/aussiebroadwan/expo/internal/team/service"
	"github.com/aussiebroadwan/expo/pkg/httpx"
	"github.com/aussiebroadwan/expo/pkg/teamsdk"
)

// PasswordHandler serves the public steps an invitee takes from the setup
// link to a usable password.
type PasswordHandler struct {
	ActivationService *service.ActivationService
}

// HandleRequestOTP godoc
//
//	@Summary		Request a verification code
//	@Description	Emails a fresh 6-digit code to the address the setup token was issued for. Any earlier code stops working.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			request	body		teamsdk.RequestOTPRequest	true	"Email and setup token"
//	@Success		200		{object}	teamsdk.MessageResponse
//	@Failure		400		{object}	teamsdk.ErrorResponse	"missing_fields, invalid_token, email_mismatch"
//	@Failure		429		{object}	teamsdk.ErrorResponse
//	@Router			/v1/password/otp [post].
func (h *PasswordHandler) HandleRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req teamsdk.RequestOTPRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	_, err := h.ActivationService.RequestOTP(r.Context(), service.RequestOTPRequest{
		Email: req.Email,
		Token: req.Token,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, teamsdk.MessageResponse{Message: "Verification code sent"})
}

// HandleVerifyOTP godoc
//
//	@Summary		Check a verification code
//	@Description	Reports whether the code is the live code for the email. The code stays valid for the final step.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			request	body		teamsdk.VerifyOTPRequest	true	"Email and code"
//	@Success		200		{object}	teamsdk.MessageResponse
//	@Failure		400		{object}	teamsdk.ErrorResponse	"missing_fields, invalid_otp"
//	@Failure		429		{object}	teamsdk.ErrorResponse
//	@Router			/v1/password/otp/verify [post].
func (h *PasswordHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req teamsdk.VerifyOTPRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.ActivationService.VerifyOTP(r.Context(), req.Email, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, teamsdk.MessageResponse{Message: "Code verified"})
}

// HandleSetPassword godoc
//
//	@Summary		Set password
//	@Description	Activates the member. Consumes the setup token and the verification code.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			request	body		teamsdk.SetPasswordRequest	true	"Email, code, new password and setup token"
//	@Success		200		{object}	teamsdk.MessageResponse
//	@Failure		400		{object}	teamsdk.ErrorResponse	"missing_fields, invalid_token, email_mismatch, token_expired, invalid_otp"
//	@Failure		404		{object}	teamsdk.ErrorResponse	"user_not_found"
//	@Failure		429		{object}	teamsdk.ErrorResponse
//	@Router			/v1/password [post].
func (h *PasswordHandler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req teamsdk.SetPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	err := h.ActivationService.FinalizeActivation(r.Context(), service.FinalizeRequest{
		Email:    req.Email,
		Code:     req.Code,
		Password: req.Password,
		Token:    req.Token,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, teamsdk.MessageResponse{Message: "Password set"})
}
