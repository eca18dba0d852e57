package teamsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/expo/pkg/jwtx"
)

// Client calls the unauthenticated endpoints of the team service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Session calls endpoints on behalf of a logged in member.
type Session struct {
	client *Client
	Tokens TokenResponse
}

// Session wraps an existing token pair.
func (c *Client) Session(tokens TokenResponse) *Session {
	return &Session{client: c, Tokens: tokens}
}

// Bootstrap creates the admin member. token is the operator configured
// bootstrap secret.
func (c *Client) Bootstrap(ctx context.Context, token string, req BootstrapRequest) (*BootstrapResponse, error) {
	var out BootstrapResponse
	err := c.do(ctx, http.MethodPost, "/v1/bootstrap", map[string]string{"Authorization": "Bearer " + token}, req, http.StatusCreated, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", nil, req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return c.Session(out), nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", nil, RefreshRequest{RefreshToken: refreshToken}, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return c.Session(out), nil
}

func (c *Client) RequestOTP(ctx context.Context, req RequestOTPRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/password/otp", nil, req, http.StatusOK, &MessageResponse{})
}

func (c *Client) VerifyOTP(ctx context.Context, req VerifyOTPRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/password/otp/verify", nil, req, http.StatusOK, &MessageResponse{})
}

func (c *Client) SetPassword(ctx context.Context, req SetPasswordRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/password", nil, req, http.StatusOK, &MessageResponse{})
}

// JWKS fetches the keys access tokens can be verified with.
func (c *Client) JWKS(ctx context.Context) (*jwtx.JWKS, error) {
	var out jwtx.JWKS
	if err := c.do(ctx, http.MethodGet, "/.well-known/jwks.json", nil, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ready reports the readiness checks. A degraded service answers 503,
// which is returned as an *APIError.
func (c *Client) Ready(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", nil, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges the session's refresh token and updates it in place.
func (s *Session) Refresh(ctx context.Context) error {
	next, err := s.client.Refresh(ctx, s.Tokens.RefreshToken)
	if err != nil {
		return err
	}
	s.Tokens = next.Tokens
	return nil
}

func (s *Session) Me(ctx context.Context) (*MemberSummary, error) {
	var out MemberSummary
	if err := s.do(ctx, http.MethodGet, "/v1/me", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) Invite(ctx context.Context, req InviteRequest) (*InviteResponse, error) {
	var out InviteResponse
	if err := s.do(ctx, http.MethodPost, "/v1/team/members", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListMembers(ctx context.Context) ([]MemberSummary, error) {
	var out ListMembersResponse
	if err := s.do(ctx, http.MethodGet, "/v1/team/members", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Members, nil
}

func (s *Session) RemoveMember(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/v1/team/members/"+url.PathEscape(id), nil, http.StatusNoContent, nil)
}

func (s *Session) do(ctx context.Context, method, path string, body any, want int, out any) error {
	headers := map[string]string{"Authorization": "Bearer " + s.Tokens.AccessToken}
	return s.client.do(ctx, method, path, headers, body, want, out)
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body any, want int, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("teamsdk: encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("teamsdk: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("teamsdk: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("teamsdk: read response: %w", err)
	}
	if resp.StatusCode != want {
		return parseError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("teamsdk: decode response: %w", err)
	}
	return nil
}

func parseError(status int, raw []byte) error {
	var er ErrorResponse
	if err := json.Unmarshal(raw, &er); err != nil || er.Error == "" {
		return &APIError{StatusCode: status, Code: ErrorCodeServerError, Description: strings.TrimSpace(string(raw))}
	}
	return &APIError{StatusCode: status, Code: er.Error, Description: er.ErrorDescription}
}
