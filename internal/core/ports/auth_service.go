package ports

import (
	"context"

	"github.com/tientodo/todo-api/internal/core/domain"
)

// RegisterInput carries the registration payload. Password and
// ConfirmPassword must match before anything is persisted.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// AuthResult bundles the authenticated user with freshly issued tokens.
// RefreshToken is empty on the refresh flow, which only mints a new access
// token.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// AuthService implements registration, credential verification, token
// refresh, and account maintenance.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)

	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdateEmail(ctx context.Context, userID, email string) error
	ChangePassword(ctx context.Context, userID, newPassword string) error
	DeleteAccount(ctx context.Context, userID string) error
}

// UserResolver is the single point of truth mapping a verified token subject
// to the domain user. The auth middleware depends on this narrow view.
type UserResolver interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}
