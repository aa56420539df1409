package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tientodo/todo-api/internal/core/domain"
	"github.com/tientodo/todo-api/internal/core/ports"
)

type stubUserRepo struct {
	users  map[string]*domain.User // keyed by id
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.nextID++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user_%d", r.nextID)
	r.users[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *stubUserRepo) UpdateEmail(_ context.Context, id, email string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Email = email
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// stubTodoRepoForAuth only tracks DeleteByOwner; account deletion is the sole
// todo-repo interaction the auth service has.
type stubTodoRepoForAuth struct {
	deletedOwners []string
}

func (r *stubTodoRepoForAuth) Create(context.Context, *domain.Todo) (*domain.Todo, error) {
	return nil, errors.New("not implemented")
}

func (r *stubTodoRepoForAuth) FindByID(context.Context, string, string) (*domain.Todo, error) {
	return nil, domain.ErrTodoNotFound
}

func (r *stubTodoRepoForAuth) FindByOwner(context.Context, string, ports.ListTodosFilter) ([]*domain.Todo, error) {
	return nil, nil
}

func (r *stubTodoRepoForAuth) Update(context.Context, string, string, ports.TodoPatch) (*domain.Todo, error) {
	return nil, domain.ErrTodoNotFound
}

func (r *stubTodoRepoForAuth) Delete(context.Context, string, string) error {
	return domain.ErrTodoNotFound
}

func (r *stubTodoRepoForAuth) DeleteByOwner(_ context.Context, ownerID string) error {
	r.deletedOwners = append(r.deletedOwners, ownerID)
	return nil
}

func (r *stubTodoRepoForAuth) CountByOwner(context.Context, string) (ports.TodoCounts, error) {
	return ports.TodoCounts{}, nil
}

func (r *stubTodoRepoForAuth) AddSubtask(context.Context, string, string, domain.Subtask) (*domain.Todo, error) {
	return nil, domain.ErrTodoNotFound
}

func (r *stubTodoRepoForAuth) UpdateSubtask(context.Context, string, string, string, ports.SubtaskPatch) (*domain.Todo, error) {
	return nil, domain.ErrTodoNotFound
}

func (r *stubTodoRepoForAuth) RemoveSubtask(context.Context, string, string, string) error {
	return domain.ErrTodoNotFound
}

type stubEventSink struct {
	events []domain.AuthEvent
}

func (s *stubEventSink) Enqueue(event domain.AuthEvent) {
	s.events = append(s.events, event)
}

type authFixture struct {
	svc    *AuthService
	users  *stubUserRepo
	todos  *stubTodoRepoForAuth
	tokens *TokenService
	sink   *stubEventSink
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens := newTestTokenService(t)
	users := newStubUserRepo()
	todos := &stubTodoRepoForAuth{}
	sink := &stubEventSink{}
	svc := NewAuthService(users, todos, tokens, sink, zerolog.Nop())
	return &authFixture{svc: svc, users: users, todos: todos, tokens: tokens, sink: sink}
}

func registerAlice(t *testing.T, f *authFixture) *ports.AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return res
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture(t)
	res := registerAlice(t, f)

	if res.User.PasswordHash == "correct-horse" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(res.User.PasswordHash), []byte("correct-horse")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", res)
	}
	if !f.tokens.IsValidFor(res.AccessToken, "alice") {
		t.Fatalf("access token not valid for alice")
	}
	if !f.tokens.IsRefreshToken(res.RefreshToken) {
		t.Fatalf("refresh token missing marker")
	}
	if f.tokens.IsRefreshToken(res.AccessToken) {
		t.Fatalf("access token must not carry the refresh marker")
	}
}

func TestAuthService_Register_PasswordMismatch(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "one-password",
		ConfirmPassword: "another-password",
	})
	if !errors.Is(err, domain.ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if len(f.users.users) != 0 {
		t.Fatalf("no user should be persisted on mismatch")
	}
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)
	registerAlice(t, f)

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username:        "alice",
		Email:           "other@example.com",
		Password:        "some-password",
		ConfirmPassword: "some-password",
	})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthService_Register_DuplicateEmailCaseInsensitive(t *testing.T) {
	f := newAuthFixture(t)
	registerAlice(t, f)

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username:        "alice2",
		Email:           "ALICE@Example.com",
		Password:        "some-password",
		ConfirmPassword: "some-password",
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture(t)
	registerAlice(t, f)

	res, err := f.svc.Login(context.Background(), "alice", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}
	if res.User.Username != "alice" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	registerAlice(t, f)

	if _, err := f.svc.Login(context.Background(), "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownUserIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "ghost", "whatever")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user must surface as ErrInvalidCredentials, got %v", err)
	}

	// The failure is still distinguishable in the audit trail.
	if len(f.sink.events) != 1 || f.sink.events[0].Detail != "unknown user" {
		t.Fatalf("expected audited login failure, got %+v", f.sink.events)
	}
}

func TestAuthService_Refresh_Success(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerAlice(t, f)

	res, err := f.svc.Refresh(context.Background(), reg.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatalf("expected new access token")
	}
	if res.RefreshToken != "" {
		t.Fatalf("refresh must not rotate the refresh token")
	}
	if !f.tokens.IsValidFor(res.AccessToken, "alice") {
		t.Fatalf("new access token not valid for alice")
	}
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerAlice(t, f)

	if _, err := f.svc.Refresh(context.Background(), reg.AccessToken); !errors.Is(err, domain.ErrNotRefreshToken) {
		t.Fatalf("expected ErrNotRefreshToken, got %v", err)
	}
}

func TestAuthService_Refresh_RejectsGarbage(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestAuthService_Refresh_DeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerAlice(t, f)

	if err := f.svc.DeleteAccount(context.Background(), reg.User.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), reg.RefreshToken); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_UpdateEmail(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerAlice(t, f)

	if err := f.svc.UpdateEmail(context.Background(), reg.User.ID, "New@Example.com"); err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}
	user, err := f.svc.GetUserByID(context.Background(), reg.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if user.Email != "new@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
}

func TestAuthService_UpdateEmail_Taken(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerAlice(t, f)
	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username:        "bob",
		Email:           "bob@example.com",
		Password:        "bobs-password",
		ConfirmPassword: "bobs-password",
	}); err != nil {
		t.Fatalf("Register bob: %v", err)
	}

	if err := f.svc.UpdateEmail(context.Background(), reg.User.ID, "bob@example.com"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerAlice(t, f)

	if err := f.svc.ChangePassword(context.Background(), reg.User.ID, "new-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := f.svc.Login(context.Background(), "alice", "correct-horse"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected, got %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "alice", "new-password"); err != nil {
		t.Fatalf("new password should log in: %v", err)
	}
}

func TestAuthService_DeleteAccount_CascadesTodos(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerAlice(t, f)

	if err := f.svc.DeleteAccount(context.Background(), reg.User.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if len(f.todos.deletedOwners) != 1 || f.todos.deletedOwners[0] != reg.User.ID {
		t.Fatalf("expected todos deleted for owner, got %v", f.todos.deletedOwners)
	}
	if _, err := f.svc.GetUserByUsername(context.Background(), "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user gone, got %v", err)
	}

	last := f.sink.events[len(f.sink.events)-1]
	if last.Action != domain.AuditActionDelete || !last.Success {
		t.Fatalf("expected audited account deletion, got %+v", last)
	}
}

func TestAuthService_AuditEventsCarryTimestamps(t *testing.T) {
	f := newAuthFixture(t)
	registerAlice(t, f)

	if len(f.sink.events) == 0 {
		t.Fatalf("expected a register audit event")
	}
	ev := f.sink.events[0]
	if ev.Action != domain.AuditActionRegister || !ev.Success {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Timestamp.IsZero() || time.Since(ev.Timestamp) > time.Minute {
		t.Fatalf("expected fresh timestamp, got %v", ev.Timestamp)
	}
}
