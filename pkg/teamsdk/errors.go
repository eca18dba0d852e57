package teamsdk

import (
	"errors"
	"fmt"
)

// Stable error codes carried in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest        = "invalid_request"
	ErrorCodeMissingFields         = "missing_fields"
	ErrorCodeInvalidRole           = "invalid_role"
	ErrorCodeForbidden             = "forbidden"
	ErrorCodeAlreadyExists         = "already_exists"
	ErrorCodeNotFound              = "not_found"
	ErrorCodeUserNotFound          = "user_not_found"
	ErrorCodeInvalidToken          = "invalid_token"
	ErrorCodeTokenExpired          = "token_expired"
	ErrorCodeEmailMismatch         = "email_mismatch"
	ErrorCodeInvalidOTP            = "invalid_otp"
	ErrorCodeInvalidCredentials    = "invalid_credentials"
	ErrorCodePasswordNotSet        = "password_not_set"
	ErrorCodeCannotDeleteAdmin     = "cannot_delete_admin"
	ErrorCodeBootstrapComplete     = "bootstrap_complete"
	ErrorCodeInvalidBootstrapToken = "invalid_bootstrap_token"
	ErrorCodeRateLimited           = "rate_limit_exceeded"
	ErrorCodeServerError           = "server_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// APIError is a decoded error response.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("teamsdk: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// ErrorCode returns the API error code of err, or "" if err is not an
// *APIError.
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
