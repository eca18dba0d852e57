package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	teamhttp "github.com/aussiebroadwan/expo/internal/team/http"
	"github.com/aussiebroadwan/expo/internal/team/metrics"
	"github.com/aussiebroadwan/expo/internal/team/notify"
	"github.com/aussiebroadwan/expo/internal/team/otpstore"
	"github.com/aussiebroadwan/expo/internal/team/service"
	"github.com/aussiebroadwan/expo/internal/team/store/drivers/sqlite"
	"github.com/aussiebroadwan/expo/pkg/cryptox"
	"github.com/aussiebroadwan/expo/pkg/jwtx"
	"github.com/aussiebroadwan/expo/pkg/slogx"
	"github.com/aussiebroadwan/expo/pkg/teamsdk"
)

func TestMain(m *testing.M) {
	cryptox.SetPepper("http-test-pepper")
	os.Exit(m.Run())
}

type outbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (o *outbox) Notify(_ context.Context, m notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, m)
	return nil
}

func (o *outbox) last(t *testing.T) notify.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msgs)
	return o.msgs[len(o.msgs)-1]
}

// setupToken pulls the token out of the last invite link.
func (o *outbox) setupToken(t *testing.T) string {
	t.Helper()
	for _, f := range strings.Fields(o.last(t).Body) {
		if u, err := url.Parse(f); err == nil && u.Path == "/create-password" {
			return u.Query().Get("token")
		}
	}
	t.Fatal("no setup link")
	return ""
}

const bootstrapToken = "bootstrap-secret"

type testServer struct {
	srv    *httptest.Server
	client *teamsdk.Client
	outbox *outbox
	keys   *jwtx.KeyManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	keys, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Issuer: "https://team.test"})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg, metrics.Config{Env: "test"})
	codes := otpstore.NewMemory(nil)
	box := &outbox{}

	tokens := &service.TokenService{KeyManager: keys, Store: st, Metrics: m, Issuer: "https://team.test"}
	r := teamhttp.NewRouter(keys, "test", st, codes, m, reg, slogx.Discard())
	r.TokenService = tokens
	r.AuthService = &service.AuthService{Store: st, Tokens: tokens, Metrics: m}
	r.BootstrapService = &service.BootstrapService{Store: st, Token: bootstrapToken, Metrics: m}
	r.ActivationService = &service.ActivationService{
		Store:       st,
		Tokens:      &service.SetupTokenIssuer{Window: 24 * time.Hour},
		OTP:         &service.OTPService{Store: codes, TTL: 10 * time.Minute},
		Notifier:    box,
		Metrics:     m,
		FrontendURL: "https://team.test",
	}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, client: teamsdk.NewClient(srv.URL), outbox: box, keys: keys}
}

func (ts *testServer) adminSession(t *testing.T) *teamsdk.Session {
	t.Helper()
	ctx := context.Background()

	_, err := ts.client.Bootstrap(ctx, bootstrapToken, teamsdk.BootstrapRequest{
		Name: "Admin", Email: "admin@expo.test", Password: "admin-password",
	})
	require.NoError(t, err)

	s, err := ts.client.Login(ctx, teamsdk.LoginRequest{Email: "admin@expo.test", Password: "admin-password"})
	require.NoError(t, err)
	return s
}

// otpCode reads the code from the last verification email.
func (ts *testServer) otpCode(t *testing.T) string {
	t.Helper()
	body := ts.outbox.last(t).Body
	_, rest, ok := strings.Cut(body, "code is ")
	require.True(t, ok, body)
	return rest[:6]
}

func TestActivationRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	admin := ts.adminSession(t)

	inv, err := admin.Invite(ctx, teamsdk.InviteRequest{Name: "Ann", Email: "ann@x.com", Role: teamsdk.RoleSales})
	require.NoError(t, err)
	require.Equal(t, teamsdk.StatusInactive, inv.Member.Status)
	require.Equal(t, "ann@x.com", inv.Member.Email)
	require.False(t, inv.SetupExpiresAt.IsZero())
	token := ts.outbox.setupToken(t)

	_, err = ts.client.Login(ctx, teamsdk.LoginRequest{Email: "ann@x.com", Password: "Secr3t!"})
	require.Equal(t, teamsdk.ErrorCodePasswordNotSet, teamsdk.ErrorCode(err))

	require.NoError(t, ts.client.RequestOTP(ctx, teamsdk.RequestOTPRequest{Email: "ann@x.com", Token: token}))
	code := ts.otpCode(t)

	wrong := "123456"
	if code == wrong {
		wrong = "654321"
	}
	err = ts.client.VerifyOTP(ctx, teamsdk.VerifyOTPRequest{Email: "ann@x.com", Code: wrong})
	require.Equal(t, teamsdk.ErrorCodeInvalidOTP, teamsdk.ErrorCode(err))
	require.NoError(t, ts.client.VerifyOTP(ctx, teamsdk.VerifyOTPRequest{Email: "ann@x.com", Code: code}))

	set := teamsdk.SetPasswordRequest{Email: "ann@x.com", Code: code, Password: "Secr3t!", Token: token}
	require.NoError(t, ts.client.SetPassword(ctx, set))
	err = ts.client.SetPassword(ctx, set)
	require.Equal(t, teamsdk.ErrorCodeInvalidToken, teamsdk.ErrorCode(err))

	ann, err := ts.client.Login(ctx, teamsdk.LoginRequest{Email: "ann@x.com", Password: "Secr3t!"})
	require.NoError(t, err)
	require.Equal(t, teamsdk.RoleSales, ann.Tokens.Role)
	require.Equal(t, "Bearer", ann.Tokens.TokenType)
	require.Equal(t, 3600, ann.Tokens.ExpiresIn)

	claims, err := ts.keys.Verifier.VerifyType(ann.Tokens.AccessToken, jwtx.TypeAccess)
	require.NoError(t, err)
	require.Equal(t, inv.Member.ID, claims.Subject)
	require.Equal(t, "ann@x.com", claims.Username)
	require.Equal(t, "sales", claims.Role)

	me, err := ann.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, teamsdk.StatusActive, me.Status)

	require.NoError(t, ann.Refresh(ctx))
	_, err = ann.Me(ctx)
	require.NoError(t, err)
}

func TestTeamEndpointsRequireAdmin(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	admin := ts.adminSession(t)

	_, err := admin.Invite(ctx, teamsdk.InviteRequest{Name: "Bob", Email: "bob@x.com", Role: teamsdk.RoleManager})
	require.NoError(t, err)
	token := ts.outbox.setupToken(t)
	require.NoError(t, ts.client.RequestOTP(ctx, teamsdk.RequestOTPRequest{Email: "bob@x.com", Token: token}))
	require.NoError(t, ts.client.SetPassword(ctx, teamsdk.SetPasswordRequest{
		Email: "bob@x.com", Code: ts.otpCode(t), Password: "pw", Token: token,
	}))
	bob, err := ts.client.Login(ctx, teamsdk.LoginRequest{Email: "bob@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = bob.Invite(ctx, teamsdk.InviteRequest{Name: "C", Email: "c@x.com", Role: teamsdk.RoleSales})
	require.Equal(t, teamsdk.ErrorCodeForbidden, teamsdk.ErrorCode(err))
	_, err = bob.ListMembers(ctx)
	require.Equal(t, teamsdk.ErrorCodeForbidden, teamsdk.ErrorCode(err))

	anon := ts.client.Session(teamsdk.TokenResponse{AccessToken: "not-a-jwt"})
	_, err = anon.ListMembers(ctx)
	var apiErr *teamsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// Refresh tokens are not accepted as bearer credentials.
	wrongType := ts.client.Session(teamsdk.TokenResponse{AccessToken: bob.Tokens.RefreshToken})
	_, err = wrongType.Me(ctx)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	members, err := admin.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)

	err = admin.RemoveMember(ctx, members[0].ID)
	require.Equal(t, teamsdk.ErrorCodeCannotDeleteAdmin, teamsdk.ErrorCode(err))
	require.NoError(t, admin.RemoveMember(ctx, members[1].ID))
	err = admin.RemoveMember(ctx, members[1].ID)
	require.Equal(t, teamsdk.ErrorCodeNotFound, teamsdk.ErrorCode(err))

	_, err = bob.Me(ctx)
	require.Equal(t, teamsdk.ErrorCodeNotFound, teamsdk.ErrorCode(err))
	_, err = ts.client.Refresh(ctx, bob.Tokens.RefreshToken)
	require.Equal(t, teamsdk.ErrorCodeInvalidToken, teamsdk.ErrorCode(err))
}

func TestInviteErrors(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	admin := ts.adminSession(t)

	_, err := admin.Invite(ctx, teamsdk.InviteRequest{Name: "X", Email: "x@x.com", Role: teamsdk.RoleAdmin})
	require.Equal(t, teamsdk.ErrorCodeInvalidRole, teamsdk.ErrorCode(err))
	_, err = admin.Invite(ctx, teamsdk.InviteRequest{Email: "x@x.com", Role: teamsdk.RoleSales})
	require.Equal(t, teamsdk.ErrorCodeMissingFields, teamsdk.ErrorCode(err))

	_, err = admin.Invite(ctx, teamsdk.InviteRequest{Name: "X", Email: "x@x.com", Role: teamsdk.RoleSales})
	require.NoError(t, err)
	_, err = admin.Invite(ctx, teamsdk.InviteRequest{Name: "X", Email: "x@x.com", Role: teamsdk.RoleSales})
	var apiErr *teamsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	require.Equal(t, teamsdk.ErrorCodeAlreadyExists, apiErr.Code)
}

func TestPasswordEndpointErrors(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	admin := ts.adminSession(t)

	_, err := admin.Invite(ctx, teamsdk.InviteRequest{Name: "Ann", Email: "ann@x.com", Role: teamsdk.RoleSales})
	require.NoError(t, err)
	token := ts.outbox.setupToken(t)

	err = ts.client.RequestOTP(ctx, teamsdk.RequestOTPRequest{Email: "bob@x.com", Token: token})
	require.Equal(t, teamsdk.ErrorCodeEmailMismatch, teamsdk.ErrorCode(err))
	err = ts.client.RequestOTP(ctx, teamsdk.RequestOTPRequest{Email: "ann@x.com", Token: "bogus"})
	require.Equal(t, teamsdk.ErrorCodeInvalidToken, teamsdk.ErrorCode(err))
	err = ts.client.RequestOTP(ctx, teamsdk.RequestOTPRequest{Email: "ann@x.com"})
	require.Equal(t, teamsdk.ErrorCodeMissingFields, teamsdk.ErrorCode(err))

	resp, err := http.Post(ts.srv.URL+"/v1/password", "application/json", strings.NewReader(`{"email":"ann@x.com","extra":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body teamsdk.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, teamsdk.ErrorCodeInvalidRequest, body.Error)
}

func TestBootstrapEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.client.Bootstrap(ctx, "wrong", teamsdk.BootstrapRequest{Name: "A", Email: "a@x.io", Password: "pw"})
	require.Equal(t, teamsdk.ErrorCodeInvalidBootstrapToken, teamsdk.ErrorCode(err))

	res, err := ts.client.Bootstrap(ctx, bootstrapToken, teamsdk.BootstrapRequest{Name: "A", Email: "a@x.io", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, teamsdk.RoleAdmin, res.Member.Role)
	require.Equal(t, teamsdk.StatusActive, res.Member.Status)

	_, err = ts.client.Bootstrap(ctx, bootstrapToken, teamsdk.BootstrapRequest{Name: "A", Email: "b@x.io", Password: "pw"})
	require.Equal(t, teamsdk.ErrorCodeBootstrapComplete, teamsdk.ErrorCode(err))
}

func TestSystemEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	ready, err := ts.client.Ready(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks["database"])

	jwks, err := ts.client.JWKS(ctx)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)

	for _, path := range []string{"/livez", "/metrics", "/swagger/doc.json"} {
		resp, err := http.Get(ts.srv.URL + path)
		require.NoError(t, err, path)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestLoginRateLimited(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	var last error
	for range 6 {
		_, last = ts.client.Login(ctx, teamsdk.LoginRequest{Email: "ghost@x.com", Password: "pw"})
	}
	require.Equal(t, teamsdk.ErrorCodeRateLimited, teamsdk.ErrorCode(last))

	// A different email has its own bucket.
	_, err := ts.client.Login(ctx, teamsdk.LoginRequest{Email: "other@x.com", Password: "pw"})
	require.Equal(t, teamsdk.ErrorCodeInvalidCredentials, teamsdk.ErrorCode(err))
}
