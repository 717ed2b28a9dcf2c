package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authgo/backend/domain"
	"github.com/authgo/backend/pkg/token"
	"github.com/authgo/backend/repository"
	"github.com/authgo/backend/usecase"
)

// ForgotPasswordMessage is returned for every forgot-password request so the
// reply never reveals whether an account exists.
const ForgotPasswordMessage = "If the email exists, a password reset link has been sent"

// PasswordHasher is the one-way adaptive hash the use case delegates to.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer mints signed bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(username, userID, role string) (string, token.Claims, error)
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	audit    usecase.AuditTrail
	logger   *zap.Logger
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	audit usecase.AuditTrail,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		audit:    audit,
		logger:   logger,
	}
}

// SignUp registers a new account and logs it in. The username check runs
// before the email check; when both collide the username error wins.
func (uc *UseCase) SignUp(ctx context.Context, username, email, password string) (*domain.AuthPayload, error) {
	taken, err := uc.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		uc.recordEvent(ctx, "", username, domain.ActionSignup, domain.OutcomeFailure)
		return nil, domain.ErrUsernameTaken
	}

	taken, err = uc.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		uc.recordEvent(ctx, "", username, domain.ActionSignup, domain.OutcomeFailure)
		return nil, domain.ErrEmailTaken
	}

	digest, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "password hashing failed", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		Role:         domain.RoleUser,
		Active:       true,
	}

	// The pre-checks above are not atomic with this insert. A lost race
	// surfaces as a unique violation, which the repository translates into
	// the same duplicate-username/email errors.
	if err := uc.users.Create(ctx, user); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeConflict) {
			uc.recordEvent(ctx, "", username, domain.ActionSignup, domain.OutcomeFailure)
		}
		return nil, err
	}

	return uc.issue(ctx, user, domain.ActionSignup)
}

// Login verifies credentials and issues a token. Unknown usernames and
// wrong passwords produce byte-identical errors.
func (uc *UseCase) Login(ctx context.Context, username, password string) (*domain.AuthPayload, error) {
	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			uc.recordEvent(ctx, "", username, domain.ActionLogin, domain.OutcomeFailure)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive() {
		uc.recordEvent(ctx, user.ID, user.Username, domain.ActionLogin, domain.OutcomeFailure)
		return nil, domain.ErrAccountDeactivated
	}

	if !uc.hasher.Verify(password, user.PasswordHash) {
		uc.recordEvent(ctx, user.ID, user.Username, domain.ActionLogin, domain.OutcomeFailure)
		return nil, domain.ErrInvalidCredentials
	}

	return uc.issue(ctx, user, domain.ActionLogin)
}

// ForgotPassword is a deliberate stub: it never generates a reset token,
// persists nothing, and sends no mail. The lookup result only feeds the
// audit trail; the reply is the same in both branches.
func (uc *UseCase) ForgotPassword(ctx context.Context, email string) string {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			uc.logger.Warn("forgot-password lookup failed", zap.Error(err))
		}
		uc.recordEvent(ctx, "", "", domain.ActionForgotPassword, domain.OutcomeFailure)
		return ForgotPasswordMessage
	}

	uc.recordEvent(ctx, user.ID, user.Username, domain.ActionForgotPassword, domain.OutcomeSuccess)
	return ForgotPasswordMessage
}

// Profile returns the account behind an authenticated token.
func (uc *UseCase) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// Logout revokes the session recorded for the token's jti. Revoking an
// already-revoked session is not an error.
func (uc *UseCase) Logout(ctx context.Context, tokenID, userID, username string) error {
	if tokenID == "" {
		return domain.ErrInvalidPayload
	}
	if err := uc.sessions.Delete(ctx, tokenID); err != nil {
		return err
	}
	uc.recordEvent(ctx, userID, username, domain.ActionLogout, domain.OutcomeSuccess)
	return nil
}

func (uc *UseCase) issue(ctx context.Context, user *domain.User, action string) (*domain.AuthPayload, error) {
	signed, claims, err := uc.tokens.Issue(user.Username, user.ID, user.Role)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "token signing failed", err)
	}

	if uc.sessions != nil {
		session := &domain.Session{
			ID:        claims.ID,
			UserID:    user.ID,
			Username:  user.Username,
			CreatedAt: claims.IssuedAt.Time,
			ExpiresAt: claims.ExpiresAt.Time,
		}
		// Best effort: the token stays valid even if the session record
		// cannot be written.
		if err := uc.sessions.Save(ctx, session); err != nil {
			uc.logger.Warn("session record not saved", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	uc.recordEvent(ctx, user.ID, user.Username, action, domain.OutcomeSuccess)

	return &domain.AuthPayload{
		Token:    signed,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

func (uc *UseCase) recordEvent(ctx context.Context, userID, username, action, outcome string) {
	if uc.audit == nil {
		return
	}
	event := &domain.AuthEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		Action:    action,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
	if err := uc.audit.RecordEvent(ctx, event); err != nil {
		uc.logger.Warn("auth event not recorded", zap.String("action", action), zap.Error(err))
	}
}
