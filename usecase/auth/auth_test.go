package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/authgo/backend/domain"
	"github.com/authgo/backend/pkg/password"
	"github.com/authgo/backend/pkg/token"
)

// --- fakes ---

type fakeUserRepo struct {
	byUsername map[string]*domain.User
	byEmail    map[string]*domain.User
	createErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byUsername: map[string]*domain.User{},
		byEmail:    map[string]*domain.User{},
	}
}

func (f *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := f.byUsername[username]
	return ok, nil
}

func (f *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := f.byUsername[username]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range f.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.byUsername[user.Username] = user
	f.byEmail[user.Email] = user
	return nil
}

type fakeSessionRepo struct {
	saved   map[string]*domain.Session
	deleted []string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{saved: map[string]*domain.Session{}}
}

func (f *fakeSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	if s, ok := f.saved[id]; ok {
		return s, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (f *fakeSessionRepo) Save(_ context.Context, s *domain.Session) error {
	f.saved[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.saved, id)
	return nil
}

type fakeAudit struct {
	events []*domain.AuthEvent
}

func (f *fakeAudit) RecordEvent(_ context.Context, e *domain.AuthEvent) error {
	f.events = append(f.events, e)
	return nil
}

func newTestUseCase(t *testing.T) (*UseCase, *fakeUserRepo, *fakeSessionRepo, *fakeAudit) {
	t.Helper()
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	audit := &fakeAudit{}
	uc := New(
		users,
		sessions,
		password.NewHasher(bcrypt.MinCost),
		token.NewIssuer([]byte("test-secret"), "authgo-test", time.Hour),
		audit,
		nil,
	)
	return uc, users, sessions, audit
}

// --- tests ---

func TestSignUp_Success(t *testing.T) {
	t.Parallel()
	uc, users, sessions, _ := newTestUseCase(t)

	payload, err := uc.SignUp(context.Background(), "alice", "a@x.com", "Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, payload.Token)
	require.Equal(t, "alice", payload.Username)
	require.Equal(t, "a@x.com", payload.Email)
	require.Equal(t, domain.RoleUser, payload.Role)

	stored := users.byUsername["alice"]
	require.NotNil(t, stored)
	require.True(t, stored.Active)
	require.NotEqual(t, "Secret123", stored.PasswordHash)
	require.Len(t, sessions.saved, 1)

	// Freshly created credentials must log in.
	again, err := uc.Login(context.Background(), "alice", "Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, again.Token)
	require.Equal(t, payload.UserID, again.UserID)
}

func TestSignUp_UsernameCheckedBeforeEmail(t *testing.T) {
	t.Parallel()
	uc, _, _, _ := newTestUseCase(t)

	_, err := uc.SignUp(context.Background(), "alice", "a@x.com", "Secret123")
	require.NoError(t, err)

	// Same username, fresh email: username error.
	_, err = uc.SignUp(context.Background(), "alice", "b@x.com", "Secret123")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	// Both collide: the username error still wins.
	_, err = uc.SignUp(context.Background(), "alice", "a@x.com", "Secret123")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	// Fresh username, duplicate email: email error.
	_, err = uc.SignUp(context.Background(), "bob", "a@x.com", "Secret123")
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestSignUp_LostRaceSurfacesConflict(t *testing.T) {
	t.Parallel()
	uc, users, _, _ := newTestUseCase(t)

	// Pre-checks pass but the insert hits the unique constraint, as a
	// concurrent signup would cause.
	users.createErr = domain.ErrUsernameTaken

	_, err := uc.SignUp(context.Background(), "alice", "a@x.com", "Secret123")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestLogin_UnknownUserAndWrongPasswordIndistinguishable(t *testing.T) {
	t.Parallel()
	uc, _, _, _ := newTestUseCase(t)

	_, err := uc.SignUp(context.Background(), "alice", "a@x.com", "Secret123")
	require.NoError(t, err)

	_, wrongPassErr := uc.Login(context.Background(), "alice", "wrong")
	_, unknownUserErr := uc.Login(context.Background(), "nobody", "wrong")

	require.ErrorIs(t, wrongPassErr, domain.ErrInvalidCredentials)
	require.ErrorIs(t, unknownUserErr, domain.ErrInvalidCredentials)
	require.Equal(t, wrongPassErr.Error(), unknownUserErr.Error())
}

func TestLogin_DeactivatedAccountBeatsCorrectPassword(t *testing.T) {
	t.Parallel()
	uc, users, _, _ := newTestUseCase(t)

	_, err := uc.SignUp(context.Background(), "alice", "a@x.com", "Secret123")
	require.NoError(t, err)
	users.byUsername["alice"].Active = false

	_, err = uc.Login(context.Background(), "alice", "Secret123")
	require.ErrorIs(t, err, domain.ErrAccountDeactivated)
}

func TestForgotPassword_SameMessageEitherWay(t *testing.T) {
	t.Parallel()
	uc, _, _, _ := newTestUseCase(t)

	_, err := uc.SignUp(context.Background(), "alice", "a@x.com", "Secret123")
	require.NoError(t, err)

	known := uc.ForgotPassword(context.Background(), "a@x.com")
	unknown := uc.ForgotPassword(context.Background(), "nobody@x.com")

	require.Equal(t, ForgotPasswordMessage, known)
	require.Equal(t, known, unknown)
}

func TestLogout_RevokesSession(t *testing.T) {
	t.Parallel()
	uc, _, sessions, _ := newTestUseCase(t)

	payload, err := uc.SignUp(context.Background(), "alice", "a@x.com", "Secret123")
	require.NoError(t, err)
	require.Len(t, sessions.saved, 1)

	var tokenID string
	for id := range sessions.saved {
		tokenID = id
	}

	require.NoError(t, uc.Logout(context.Background(), tokenID, payload.UserID, payload.Username))
	require.Empty(t, sessions.saved)
}

func TestAuditTrail_RecordsOutcomes(t *testing.T) {
	t.Parallel()
	uc, _, _, audit := newTestUseCase(t)

	_, err := uc.SignUp(context.Background(), "alice", "a@x.com", "Secret123")
	require.NoError(t, err)
	_, err = uc.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)

	require.Len(t, audit.events, 2)
	require.Equal(t, domain.ActionSignup, audit.events[0].Action)
	require.Equal(t, domain.OutcomeSuccess, audit.events[0].Outcome)
	require.Equal(t, domain.ActionLogin, audit.events[1].Action)
	require.Equal(t, domain.OutcomeFailure, audit.events[1].Outcome)
}
