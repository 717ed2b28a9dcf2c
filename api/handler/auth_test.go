package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/authgo/backend/api/transport"
	"github.com/authgo/backend/domain"
	"github.com/authgo/backend/pkg/password"
	"github.com/authgo/backend/pkg/token"
	authUC "github.com/authgo/backend/usecase/auth"
)

// --- in-memory repositories ---

type memUserRepo struct {
	users []*domain.User
}

func (m *memUserRepo) find(match func(*domain.User) bool) *domain.User {
	for _, u := range m.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (m *memUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	return m.find(func(u *domain.User) bool { return u.Username == username }) != nil, nil
}

func (m *memUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	return m.find(func(u *domain.User) bool { return u.Email == email }) != nil, nil
}

func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if u := m.find(func(u *domain.User) bool { return u.Username == username }); u != nil {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u := m.find(func(u *domain.User) bool { return u.Email == email }); u != nil {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u := m.find(func(u *domain.User) bool { return u.ID == id }); u != nil {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) error {
	m.users = append(m.users, user)
	return nil
}

type memSessionRepo struct {
	sessions map[string]*domain.Session
}

func (m *memSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *memSessionRepo) Save(_ context.Context, s *domain.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *memSessionRepo) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func newTestHandler(t *testing.T) (*AuthHandler, *memUserRepo) {
	t.Helper()
	users := &memUserRepo{}
	uc := authUC.New(
		users,
		&memSessionRepo{sessions: map[string]*domain.Session{}},
		password.NewHasher(bcrypt.MinCost),
		token.NewIssuer([]byte("test-secret"), "authgo-test", time.Hour),
		nil,
		nil,
	)
	return NewAuthHandler(uc, nil, nil), users
}

func post(t *testing.T, handle fasthttp.RequestHandler, body string) (*fasthttp.RequestCtx, transport.AuthResponse) {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.SetBody([]byte(body))

	handle(ctx)

	var resp transport.AuthResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	return ctx, resp
}

// --- tests ---

func TestSignUp_EndToEnd(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	ctx, resp := post(t, h.SignUp, `{"username":"alice","email":"a@x.com","password":"Secret123"}`)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "alice", resp.Username)
	require.Equal(t, "a@x.com", resp.Email)
	require.Equal(t, "USER", resp.Role)
	require.Empty(t, resp.Message)

	// Same username, fresh email.
	ctx, resp = post(t, h.SignUp, `{"username":"alice","email":"b@x.com","password":"Secret123"}`)
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	require.Equal(t, "Username already exists", resp.Message)
	require.Empty(t, resp.Token)

	// Fresh username, duplicate email.
	ctx, resp = post(t, h.SignUp, `{"username":"bob","email":"a@x.com","password":"Secret123"}`)
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	require.Equal(t, "Email already exists", resp.Message)
}

func TestSignUp_ValidationRunsFirst(t *testing.T) {
	t.Parallel()
	h, users := newTestHandler(t)

	for _, body := range []string{
		`not json`,
		`{"username":"","email":"a@x.com","password":"Secret123"}`,
		`{"username":"alice","email":"","password":"Secret123"}`,
		`{"username":"alice","email":"not-an-email","password":"Secret123"}`,
		`{"username":"alice","email":"a@x.com","password":""}`,
		`{"username":"alice","email":"a@x.com","password":"abc"}`,
	} {
		ctx, resp := post(t, h.SignUp, body)
		require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode(), "body: %s", body)
		require.NotEmpty(t, resp.Message, "body: %s", body)
	}
	require.Empty(t, users.users)
}

func TestLogin_StatusCodes(t *testing.T) {
	t.Parallel()
	h, users := newTestHandler(t)

	_, _ = post(t, h.SignUp, `{"username":"alice","email":"a@x.com","password":"Secret123"}`)

	ctx, resp := post(t, h.Login, `{"username":"alice","password":"Secret123"}`)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	require.NotEmpty(t, resp.Token)
	require.Empty(t, resp.Message)

	ctx, resp = post(t, h.Login, `{"username":"alice","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	require.Equal(t, "Invalid username or password", resp.Message)

	ctx, resp = post(t, h.Login, `{"username":"nobody","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	require.Equal(t, "Invalid username or password", resp.Message)

	users.users[0].Active = false
	ctx, resp = post(t, h.Login, `{"username":"alice","password":"Secret123"}`)
	require.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	require.Equal(t, "Account is deactivated", resp.Message)
}

func TestLogin_MissingFieldsAre400(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	ctx, _ := post(t, h.Login, `{"username":"","password":"x"}`)
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx, _ = post(t, h.Login, `{"username":"alice","password":""}`)
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestForgotPassword_AlwaysSucceedsWithFixedMessage(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	_, _ = post(t, h.SignUp, `{"username":"alice","email":"a@x.com","password":"Secret123"}`)

	ctx, known := post(t, h.ForgotPassword, `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	require.Equal(t, authUC.ForgotPasswordMessage, known.Message)
	require.Empty(t, known.Token)

	ctx, unknown := post(t, h.ForgotPassword, `{"email":"nobody@x.com"}`)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	require.Equal(t, known.Message, unknown.Message)
}

func TestMe_RequiresIdentityHeader(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	h.Me(ctx)
	require.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestMe_ReturnsProfile(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	_, created := post(t, h.SignUp, `{"username":"alice","email":"a@x.com","password":"Secret123"}`)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.Header.Set("X-User-ID", created.ID)
	h.Me(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	var user domain.User
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &user))
	require.Equal(t, "alice", user.Username)
	require.Empty(t, user.PasswordHash)
}
