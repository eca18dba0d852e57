package teamsdk

import "time"

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleSales   = "sales"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

// MemberSummary is a team member as exposed over the API. Password
// material never leaves the service.
type MemberSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type BootstrapRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type BootstrapResponse struct {
	Member MemberSummary `json:"member"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int    `json:"expires_in"`
	Role      string `json:"role"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

type InviteRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type InviteResponse struct {
	Member MemberSummary `json:"member"`
	// SetupExpiresAt is when the emailed setup link stops working.
	SetupExpiresAt time.Time `json:"setup_expires_at"`
}

type ListMembersResponse struct {
	Members []MemberSummary `json:"members"`
}

type RequestOTPRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type SetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
