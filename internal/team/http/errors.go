package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/expo/internal/team/service"
	"github.com/aussiebroadwan/expo/pkg/httpx"
	"github.com/aussiebroadwan/expo/pkg/slogx"
	"github.com/aussiebroadwan/expo/pkg/teamsdk"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{service.ErrForbidden, teamsdk.ErrorCodeForbidden},
	{service.ErrMissingFields, teamsdk.ErrorCodeMissingFields},
	{service.ErrInvalidEmail, teamsdk.ErrorCodeInvalidRequest},
	{service.ErrInvalidRole, teamsdk.ErrorCodeInvalidRole},
	{service.ErrAlreadyExists, teamsdk.ErrorCodeAlreadyExists},
	{service.ErrNotFound, teamsdk.ErrorCodeNotFound},
	{service.ErrUserNotFound, teamsdk.ErrorCodeUserNotFound},
	{service.ErrInvalidToken, teamsdk.ErrorCodeInvalidToken},
	{service.ErrTokenExpired, teamsdk.ErrorCodeTokenExpired},
	{service.ErrEmailMismatch, teamsdk.ErrorCodeEmailMismatch},
	{service.ErrInvalidOTP, teamsdk.ErrorCodeInvalidOTP},
	{service.ErrInvalidCredentials, teamsdk.ErrorCodeInvalidCredentials},
	{service.ErrPasswordNotSet, teamsdk.ErrorCodePasswordNotSet},
	{service.ErrCannotDeleteAdmin, teamsdk.ErrorCodeCannotDeleteAdmin},
	{service.ErrInvalidRefresh, teamsdk.ErrorCodeInvalidToken},
	{service.ErrBootstrapAlready, teamsdk.ErrorCodeBootstrapComplete},
	{service.ErrBootstrapUnauthorized, teamsdk.ErrorCodeInvalidBootstrapToken},
}

func statusOf(c service.Category) int {
	switch c {
	case service.CategoryBadRequest:
		return http.StatusBadRequest
	case service.CategoryUnauthorized:
		return http.StatusUnauthorized
	case service.CategoryForbidden:
		return http.StatusForbidden
	case service.CategoryNotFound:
		return http.StatusNotFound
	case service.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError maps a service error to its status and stable code.
// Internal errors are logged and never described to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(service.CategoryOf(err))
	if status == http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		httpx.WriteError(w, status, teamsdk.ErrorCodeServerError, "An internal error occurred")
		return
	}

	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			httpx.WriteError(w, status, ec.code, ec.err.Error())
			return
		}
	}
	httpx.WriteError(w, status, teamsdk.ErrorCodeInvalidRequest, err.Error())
}

func writeBadRequest(w http.ResponseWriter, err error) {
	httpx.WriteError(w, http.StatusBadRequest, teamsdk.ErrorCodeInvalidRequest, err.Error())
}
