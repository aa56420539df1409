package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tientodo/todo-api/internal/core/domain"
	"github.com/tientodo/todo-api/internal/core/ports"
)

// AuthService implements registration, credential verification, token
// refresh, and account maintenance. Audit events are pushed through the sink
// without blocking the request.
type AuthService struct {
	users  ports.UserRepository
	todos  ports.TodoRepository
	tokens ports.TokenService
	audit  ports.AuthEventSink
	logger zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	todos ports.TodoRepository,
	tokens ports.TokenService,
	audit ports.AuthEventSink,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{users: users, todos: todos, tokens: tokens, audit: audit, logger: logger}
}

// Register creates a new account. Validation happens strictly before any
// persistence call: mismatched confirmation, a taken username, or a taken
// email (compared lowercase) all fail without touching storage.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	if in.Password != in.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}

	if taken, err := s.users.ExistsByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrUsernameTaken
	}

	email := strings.ToLower(in.Email)
	if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", user.Username).Msg("user registered")
	s.record(domain.AuthEvent{Username: user.Username, Action: domain.AuditActionRegister, Success: true})

	return s.issueTokens(user)
}

// Login verifies the password against the stored bcrypt hash. Unknown user
// and wrong password are indistinguishable to the caller; the unknown-user
// case is logged server-side for operators.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.AuthResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if err == domain.ErrUserNotFound {
			s.logger.Warn().Str("username", username).Msg("login attempt for unknown user")
			s.loginFailed(username, "unknown user")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.loginFailed(username, "wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	s.record(domain.AuthEvent{Username: user.Username, Action: domain.AuditActionLogin, Success: true})

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new access token. Access
// tokens are rejected here just as refresh tokens are rejected on protected
// routes.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResult, error) {
	if !s.tokens.IsValid(refreshToken) {
		return nil, domain.ErrInvalidRefreshToken
	}
	if !s.tokens.IsRefreshToken(refreshToken) {
		return nil, domain.ErrNotRefreshToken
	}

	claims, err := s.tokens.Parse(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccessToken(user.Username)
	if err != nil {
		return nil, err
	}

	s.record(domain.AuthEvent{Username: user.Username, Action: domain.AuditActionRefresh, Success: true})

	return &ports.AuthResult{User: user, AccessToken: access}, nil
}

// GetUserByUsername resolves a token subject to the domain user. Used by the
// auth middleware to establish request identity and by handlers needing the
// user id for data scoping.
func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.FindByUsername(ctx, username)
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// UpdateEmail changes the account email after checking it is unused.
func (s *AuthService) UpdateEmail(ctx context.Context, userID, email string) error {
	email = strings.ToLower(email)
	if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return err
	} else if taken {
		return domain.ErrEmailTaken
	}
	return s.users.UpdateEmail(ctx, userID, email)
}

// ChangePassword re-hashes and persists the new password. Previously issued
// tokens stay valid until they expire; the short access TTL bounds the
// exposure.
func (s *AuthService) ChangePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

// DeleteAccount removes the user and every todo they own. Outstanding tokens
// become unusable immediately because identity resolution fails on the next
// request.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.todos.DeleteByOwner(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.Info().Str("username", user.Username).Msg("account deleted")
	s.record(domain.AuthEvent{Username: user.Username, Action: domain.AuditActionDelete, Success: true})
	return nil
}

func (s *AuthService) issueTokens(user *domain.User) (*ports.AuthResult, error) {
	access, err := s.tokens.IssueAccessToken(user.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user.Username)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) loginFailed(username, reason string) {
	s.record(domain.AuthEvent{Username: username, Action: domain.AuditActionLogin, Detail: reason})
}

func (s *AuthService) record(event domain.AuthEvent) {
	if s.audit == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	s.audit.Enqueue(event)
}
