package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"virtualDeviceManagement/internal/session"
	"virtualDeviceManagement/internal/testutil"
	"virtualDeviceManagement/models"
	"virtualDeviceManagement/repository"
)

var testPasswords = RolePasswords{Admin: "admin123", User: "user123"}

func newUserDeps(t *testing.T, dbName string) (*UserService, *repository.UserRepository, *repository.DeviceRepository, *session.Store) {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, dbName)
	users := repository.NewUserRepository(d)
	devices := repository.NewDeviceRepository(d)
	sess := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	svc := NewUserService(users, devices, sess, testPasswords, nil)
	return svc, users, devices, sess
}

func seedUser(t *testing.T, users *repository.UserRepository, id, username, role string) {
	t.Helper()
	_, err := users.Create(context.Background(), &models.User{
		ID: id, Username: username, Email: username + "@example.com", Role: role, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestUserService_Authenticate(t *testing.T) {
	svc, users, _, sess := newUserDeps(t, "usersvc_auth")
	ctx := context.Background()
	seedUser(t, users, "1", "admin", models.RoleAdmin)
	seedUser(t, users, "2", "john_doe", models.RoleUser)

	// Wrong password leaves the session unchanged.
	_, err := svc.Authenticate(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Nil(t, svc.CurrentUser())

	// Unknown user is the same failure; no enumeration.
	_, err = svc.Authenticate(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, ErrAuthFailed)

	// The role constant, not a per-user password, decides.
	_, err = svc.Authenticate(ctx, "john_doe", "admin123")
	assert.ErrorIs(t, err, ErrAuthFailed)

	u, err := svc.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.NotNil(t, u.LastLogin, "last login stamped")
	require.NotNil(t, svc.CurrentUser())
	assert.Equal(t, "admin", svc.CurrentUser().Username)

	// The stamp also landed in the store.
	stored, err := users.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	// Regular user with the shared constant.
	_, err = svc.Authenticate(ctx, "john_doe", "user123")
	require.NoError(t, err)
	assert.Equal(t, "john_doe", sess.Current().Username)
}

func TestUserService_SessionRoundTrip(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "usersvc_roundtrip")
	users := repository.NewUserRepository(d)
	devices := repository.NewDeviceRepository(d)
	path := filepath.Join(t.TempDir(), "session.json")
	seedUser(t, users, "1", "admin", models.RoleAdmin)

	svc := NewUserService(users, devices, session.NewStore(path), testPasswords, nil)
	_, err := svc.Authenticate(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	// A fresh service over the same file restores the session without
	// re-validating the password.
	svc2 := NewUserService(users, devices, session.NewStore(path), testPasswords, nil)
	require.NoError(t, svc2.RestoreSession())
	require.NotNil(t, svc2.CurrentUser())
	assert.Equal(t, "admin", svc2.CurrentUser().Username)

	// EndSession clears both sides; restoring again stays anonymous.
	require.NoError(t, svc2.EndSession())
	require.NoError(t, svc2.EndSession(), "idempotent")
	svc3 := NewUserService(users, devices, session.NewStore(path), testPasswords, nil)
	require.NoError(t, svc3.RestoreSession())
	assert.Nil(t, svc3.CurrentUser())
}

func TestUserService_CreateUserValidation(t *testing.T) {
	svc, users, _, _ := newUserDeps(t, "usersvc_validation")
	ctx := context.Background()
	seedUser(t, users, "1", "taken", models.RoleUser)

	cases := []struct {
		name     string
		username string
		email    string
		want     []string
	}{
		{"empty username", "", "a@b.co", []string{"Username is required"}},
		{"short username", "ab", "a@b.co", []string{"Username must be at least 3 characters"}},
		{"taken username", "taken", "a@b.co", []string{"Username already exists"}},
		{"empty email", "newuser", "", []string{"Email is required"}},
		{"bad email shape", "newuser", "not-an-email", []string{"Invalid email format"}},
		{"taken email", "newuser", "taken@example.com", []string{"Email already exists"}},
		{"both bad, both reported", "ab", "nope", []string{"Username must be at least 3 characters", "Invalid email format"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tc.username, tc.email, models.RoleUser)
			ve, ok := AsValidationError(err)
			require.True(t, ok, "expected ValidationError, got %v", err)
			assert.Equal(t, tc.want, ve.Messages)
		})
	}

	// Nothing was appended by any rejected attempt.
	list, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// A valid creation succeeds, mints an id and stamps CreatedAt.
	u, err := svc.CreateUser(ctx, "newuser", "new@example.com", models.RoleUser)
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
	assert.Nil(t, u.LastLogin)

	// Unknown roles normalize to user.
	u2, err := svc.CreateUser(ctx, "another", "another@example.com", "superuser")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u2.Role)
}

func TestUserService_DeleteCascadesUnassign(t *testing.T) {
	svc, users, devices, _ := newUserDeps(t, "usersvc_delete")
	ctx := context.Background()
	seedUser(t, users, "2", "john_doe", models.RoleUser)

	for _, id := range []string{"d1", "d2"} {
		_, err := devices.Create(ctx, &models.Device{ID: id, Name: id, Type: models.DeviceTypeDesktop, CreatedAt: time.Now()})
		require.NoError(t, err)
		require.NoError(t, devices.Assign(ctx, id, "2", "john_doe"))
	}

	require.NoError(t, svc.DeleteUser(ctx, "2"))

	// The user is gone and no device still points at the deleted id.
	gone, err := users.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Nil(t, gone)
	left, err := devices.ListForUser(ctx, "2")
	require.NoError(t, err)
	assert.Empty(t, left)
	d1, _ := devices.GetByID(ctx, "d1")
	assert.Nil(t, d1.AssignedTo)
	assert.Nil(t, d1.AssignedToName)

	// Deleting a nonexistent id is a no-op, not an error.
	require.NoError(t, svc.DeleteUser(ctx, "ghost"))
}

func TestUserService_SubscribersNotified(t *testing.T) {
	svc, _, _, _ := newUserDeps(t, "usersvc_notify")
	ctx := context.Background()

	var fired int
	unsub := svc.Subscribe(func() { fired++ })

	_, err := svc.CreateUser(ctx, "watcher", "watcher@example.com", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	// Rejected mutations do not notify.
	_, err = svc.CreateUser(ctx, "", "", models.RoleUser)
	require.Error(t, err)
	assert.Equal(t, 1, fired)

	unsub()
	require.NoError(t, svc.DeleteUser(ctx, "whatever"))
	assert.Equal(t, 1, fired)
}

func TestUserService_ListUsersReturnsAllAccounts(t *testing.T) {
	svc, _, _, _ := newUserDeps(t, "usersvc_listall")
	ctx := context.Background()

	const total = 120
	for i := 0; i < total; i++ {
		name := fmt.Sprintf("user%03d", i)
		_, err := svc.CreateUser(ctx, name, name+"@example.com", models.RoleUser)
		require.NoError(t, err)
	}

	// The listing is a snapshot of every account, not a default page.
	list, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, total)
	assert.Equal(t, "user000", list[0].Username)
	assert.Equal(t, "user119", list[total-1].Username)
}
