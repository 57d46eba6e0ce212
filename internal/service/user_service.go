// Package service implements the business logic over the user and device
// repositories: authentication and the single session, account creation
// with validation, and device assignment with its status lifecycle.
package service

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"virtualDeviceManagement/internal/session"
	"virtualDeviceManagement/models"
	"virtualDeviceManagement/repository"
)

// emailRe is the same basic local@domain.tld shape check the product has
// always used. It is a sanity gate, not RFC 5322.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RolePasswords holds the mock shared-role credentials: one fixed string
// for every admin account and one for every regular account. Preserved
// as documented mock behavior, not hardened.
type RolePasswords struct {
	Admin string
	User  string
}

// UserService owns the set of user accounts and the single active session.
type UserService struct {
	notifier

	users     repository.UserRepositoryI
	devices   repository.DeviceRepositoryI
	session   *session.Store
	passwords RolePasswords
	log       *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewUserService constructs the service. devices is needed only to
// cascade-unassign on user deletion.
func NewUserService(users repository.UserRepositoryI, devices repository.DeviceRepositoryI, sess *session.Store, passwords RolePasswords, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{
		users:     users,
		devices:   devices,
		session:   sess,
		passwords: passwords,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Authenticate succeeds iff a user with the given username exists and the
// password equals the fixed credential for that user's role. On success it
// stamps last_login, establishes the session and mirrors it to the session
// file; on failure the session is left unchanged and ErrAuthFailed is
// returned.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrAuthFailed
	}
	expected := s.passwords.User
	if u.Role == models.RoleAdmin {
		expected = s.passwords.Admin
	}
	if password != expected {
		return nil, ErrAuthFailed
	}

	at := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, u.ID, at); err != nil {
		return nil, err
	}
	u.LastLogin = &at
	if err := s.session.Set(u); err != nil {
		return nil, err
	}
	s.log.Info("session established", zap.String("username", u.Username), zap.String("role", u.Role))
	s.notify()
	return u, nil
}

// EndSession clears the active session unconditionally. Idempotent.
func (s *UserService) EndSession() error {
	if err := s.session.Clear(); err != nil {
		return err
	}
	s.notify()
	return nil
}

// RestoreSession rehydrates the last session from the session file without
// re-validating the password. Called once at startup.
func (s *UserService) RestoreSession() error {
	if err := s.session.Load(); err != nil {
		return err
	}
	if u := s.session.Current(); u != nil {
		s.log.Info("session restored", zap.String("username", u.Username))
	}
	return nil
}

// CurrentUser returns the session holder, or nil when anonymous.
func (s *UserService) CurrentUser() *models.User {
	return s.session.Current()
}

// CreateUser validates and appends a new account. All failed checks are
// collected into a single *ValidationError; nothing is mutated on failure.
func (s *UserService) CreateUser(ctx context.Context, username, email, role string) (*models.User, error) {
	ve := &ValidationError{}

	switch {
	case username == "":
		ve.add("Username is required")
	case len(username) < 3:
		ve.add("Username must be at least 3 characters")
	default:
		taken, err := s.users.UsernameTaken(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			ve.add("Username already exists")
		}
	}

	switch {
	case email == "":
		ve.add("Email is required")
	case !emailRe.MatchString(email):
		ve.add("Invalid email format")
	default:
		taken, err := s.users.EmailTaken(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			ve.add("Email already exists")
		}
	}

	if len(ve.Messages) > 0 {
		return nil, ve
	}

	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	u := &models.User{
		ID:        s.newID(),
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("id", u.ID), zap.String("username", u.Username))
	s.notify()
	return u, nil
}

// DeleteUser removes the user unconditionally; a missing id is a no-op.
// Every device assigned to the user is unassigned in the same call, so no
// dangling assignment survives the deletion.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	unassigned, err := s.devices.UnassignAllForUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if unassigned > 0 {
		s.log.Info("user deleted", zap.String("id", id), zap.Int64("devices_unassigned", unassigned))
	}
	s.notify()
	return nil
}

// ListUsers returns a snapshot of all accounts in insertion order.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx, 0, 0)
}

// GetUser fetches one account by id; nil when absent.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetByUsername fetches one account by username; nil when absent.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// CountRegularUsers counts non-admin accounts (a dashboard tile).
func (s *UserService) CountRegularUsers(ctx context.Context) (int, error) {
	return s.users.CountByRole(ctx, models.RoleUser)
}
