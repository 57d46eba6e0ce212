package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"virtualDeviceManagement/internal/db"
	"virtualDeviceManagement/models"
)

func TestUserRepository_CRUDAndQueries(t *testing.T) {
	d, err := db.Open("file:userrepo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	repo := NewUserRepository(d)
	ctx := context.Background()

	// Create
	u, err := repo.Create(ctx, &models.User{ID: "u-1", Username: "alice", Email: "alice@example.com", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Role != models.RoleUser {
		t.Fatalf("expected default role, got %q", u.Role)
	}

	// GetByID
	g, err := repo.GetByID(ctx, "u-1")
	if err != nil || g == nil || g.Username != "alice" {
		t.Fatalf("get by id: %v %+v", err, g)
	}
	if g.LastLogin != nil {
		t.Fatalf("expected no last login yet: %+v", g)
	}

	// GetByUsername
	g2, err := repo.GetByUsername(ctx, "alice")
	if err != nil || g2 == nil || g2.ID != "u-1" {
		t.Fatalf("get by username: %v %+v", err, g2)
	}

	// Absent lookups return nil, nil
	if miss, err := repo.GetByID(ctx, "nope"); err != nil || miss != nil {
		t.Fatalf("expected nil,nil for absent id: %v %+v", err, miss)
	}

	// Taken checks
	if taken, _ := repo.UsernameTaken(ctx, "alice"); !taken {
		t.Fatalf("expected username taken")
	}
	if taken, _ := repo.UsernameTaken(ctx, "Alice"); taken {
		t.Fatalf("usernames compare case-sensitively")
	}
	if taken, _ := repo.EmailTaken(ctx, "alice@example.com"); !taken {
		t.Fatalf("expected email taken")
	}

	// UpdateLastLogin
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	if err := repo.UpdateLastLogin(ctx, "u-1", at); err != nil {
		t.Fatalf("update last login: %v", err)
	}
	g3, _ := repo.GetByID(ctx, "u-1")
	if g3.LastLogin == nil || !g3.LastLogin.Equal(at) {
		t.Fatalf("last login not stamped: %+v", g3.LastLogin)
	}

	// Delete, then delete again (no-op)
	if err := repo.Delete(ctx, "u-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "u-1"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	gone, err := repo.GetByID(ctx, "u-1")
	if err != nil || gone != nil {
		t.Fatalf("expected user deleted, got: %+v err=%v", gone, err)
	}
}

func TestUserRepository_ListInsertionOrder(t *testing.T) {
	d, err := db.Open("file:userrepoorder?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	repo := NewUserRepository(d)
	ctx := context.Background()

	names := []string{"charlie", "alice", "bob"}
	for i, n := range names {
		if _, err := repo.Create(ctx, &models.User{ID: n, Username: n, Email: n + "@example.com", CreatedAt: time.Now().Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}

	list, err := repo.List(ctx, 0, 0)
	if err != nil || len(list) != 3 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	for i, n := range names {
		if list[i].Username != n {
			t.Fatalf("expected insertion order %v, got %+v", names, list)
		}
	}

	// CountByRole
	n, err := repo.CountByRole(ctx, models.RoleUser)
	if err != nil || n != 3 {
		t.Fatalf("count by role: %v n=%d", err, n)
	}
}

func TestUserRepository_ListFullSnapshot(t *testing.T) {
	d, err := db.Open("file:userrepo_snapshot?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	repo := NewUserRepository(d)
	ctx := context.Background()

	const total = 120
	for i := 0; i < total; i++ {
		name := fmt.Sprintf("user%03d", i)
		_, err := repo.Create(ctx, &models.User{ID: name, Username: name, Email: name + "@example.com", CreatedAt: time.Now()})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	// A zero limit means the whole store, not a default page.
	list, err := repo.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != total {
		t.Fatalf("expected %d users, got %d", total, len(list))
	}
	if list[0].Username != "user000" || list[total-1].Username != "user119" {
		t.Fatalf("expected insertion order, got first=%q last=%q", list[0].Username, list[total-1].Username)
	}

	// An explicit limit still pages.
	page, err := repo.List(ctx, 50, 50)
	if err != nil || len(page) != 50 {
		t.Fatalf("page: %v len=%d", err, len(page))
	}
	if page[0].Username != "user050" {
		t.Fatalf("expected page start user050, got %q", page[0].Username)
	}
}
