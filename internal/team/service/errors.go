package service

import "errors"

var (
	ErrForbidden          = errors.New("forbidden")
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidRole        = errors.New("invalid role")
	ErrAlreadyExists      = errors.New("a member with this email already exists")
	ErrNotFound           = errors.New("member not found")
	ErrUserNotFound       = errors.New("no member with this email")
	ErrInvalidToken       = errors.New("invalid setup token")
	ErrTokenExpired       = errors.New("setup token expired")
	ErrEmailMismatch      = errors.New("email does not match the setup token")
	ErrInvalidOTP         = errors.New("invalid or expired verification code")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordNotSet     = errors.New("password has not been set")
	ErrCannotDeleteAdmin  = errors.New("the admin cannot be removed")
	ErrInvalidRefresh     = errors.New("invalid refresh token")

	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// Category groups errors by how a caller should treat them.
type Category int

const (
	CategoryInternal Category = iota
	CategoryBadRequest
	CategoryUnauthorized
	CategoryForbidden
	CategoryNotFound
	CategoryConflict
)

func (c Category) String() string {
	switch c {
	case CategoryBadRequest:
		return "bad_request"
	case CategoryUnauthorized:
		return "unauthorized"
	case CategoryForbidden:
		return "forbidden"
	case CategoryNotFound:
		return "not_found"
	case CategoryConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// CategoryOf classifies err. Anything not produced by this package is
// CategoryInternal.
func CategoryOf(err error) Category {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrCannotDeleteAdmin):
		return CategoryForbidden
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrEmailMismatch),
		errors.Is(err, ErrInvalidOTP):
		return CategoryBadRequest
	case errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrBootstrapAlready):
		return CategoryConflict
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUserNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrPasswordNotSet),
		errors.Is(err, ErrInvalidRefresh),
		errors.Is(err, ErrBootstrapUnauthorized):
		return CategoryUnauthorized
	default:
		return CategoryInternal
	}
}
