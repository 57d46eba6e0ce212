package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"virtualDeviceManagement/internal/db"
	"virtualDeviceManagement/models"
)

func newDevice(id, name string, typ models.DeviceType) *models.Device {
	return &models.Device{
		ID:        id,
		Name:      name,
		Type:      typ,
		OS:        "Ubuntu 22.04",
		Specs:     models.DeviceSpecs{CPU: "AMD Ryzen 7 5800X", RAM: "16GB", Storage: "512GB SSD"},
		CreatedAt: time.Now(),
		IPAddress: "10.0.0.1",
		Location:  "Berlin",
	}
}

func TestDeviceRepository_CRUD_Status_Assignments(t *testing.T) {
	d, err := db.Open("file:devicerepo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	devices := NewDeviceRepository(d)
	ctx := context.Background()

	// Create defaults status to offline
	dev, err := devices.Create(ctx, newDevice("d1", "Desktop-AB12", models.DeviceTypeDesktop))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dev.Status != models.DeviceStatusOffline {
		t.Fatalf("expected offline default, got %q", dev.Status)
	}

	// GetByID round-trips all fields
	got, err := devices.GetByID(ctx, "d1")
	if err != nil || got == nil {
		t.Fatalf("get: %v %+v", err, got)
	}
	if got.Name != "Desktop-AB12" || got.Specs.RAM != "16GB" || got.AssignedTo != nil {
		t.Fatalf("round-trip mismatch: %+v", got)
	}

	// UpdateStatus
	if err := devices.UpdateStatus(ctx, "d1", models.DeviceStatusOnline); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got2, _ := devices.GetByID(ctx, "d1")
	if got2.Status != models.DeviceStatusOnline {
		t.Fatalf("status not updated: %+v", got2)
	}

	// Status change of an absent device is a silent no-op
	if err := devices.UpdateStatus(ctx, "ghost", models.DeviceStatusOnline); err != nil {
		t.Fatalf("absent status change must not error: %v", err)
	}

	// Assign, then reassign (overwrite)
	if err := devices.Assign(ctx, "d1", "2", "john_doe"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := devices.Assign(ctx, "d1", "3", "jane_smith"); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	forJohn, _ := devices.ListForUser(ctx, "2")
	forJane, _ := devices.ListForUser(ctx, "3")
	if len(forJohn) != 0 || len(forJane) != 1 {
		t.Fatalf("assignment is exclusive per device: john=%d jane=%d", len(forJohn), len(forJane))
	}
	if forJane[0].AssignedToName == nil || *forJane[0].AssignedToName != "jane_smith" {
		t.Fatalf("display name not cached: %+v", forJane[0])
	}

	// Unassign twice: idempotent
	if err := devices.Unassign(ctx, "d1"); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if err := devices.Unassign(ctx, "d1"); err != nil {
		t.Fatalf("second unassign: %v", err)
	}
	got3, _ := devices.GetByID(ctx, "d1")
	if got3.AssignedTo != nil || got3.AssignedToName != nil {
		t.Fatalf("assignment not cleared: %+v", got3)
	}

	// Unassign of an absent device is a no-op
	if err := devices.Unassign(ctx, "ghost"); err != nil {
		t.Fatalf("absent unassign must not error: %v", err)
	}

	// Delete, then delete again (no-op), set size unchanged
	if err := devices.Delete(ctx, "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := devices.Delete(ctx, "d1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if gone, _ := devices.GetByID(ctx, "d1"); gone != nil {
		t.Fatalf("expected device deleted, got: %+v", gone)
	}
	counts, err := devices.Counts(ctx)
	if err != nil || counts.Total != 0 {
		t.Fatalf("counts after delete: %v %+v", err, counts)
	}
}

func TestDeviceRepository_ListFiltersAndCounts(t *testing.T) {
	d, err := db.Open("file:devicelist?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	devices := NewDeviceRepository(d)
	ctx := context.Background()

	a := newDevice("a", "Desktop-AAAA", models.DeviceTypeDesktop)
	a.Status = models.DeviceStatusOnline
	b := newDevice("b", "Mobile-BBBB", models.DeviceTypeMobile)
	b.OS = "iOS 16"
	c := newDevice("c", "Server-CCCC", models.DeviceTypeServer)
	c.Status = models.DeviceStatusMaintenance
	for _, dev := range []*models.Device{a, b, c} {
		if _, err := devices.Create(ctx, dev); err != nil {
			t.Fatalf("create %s: %v", dev.ID, err)
		}
	}
	if err := devices.Assign(ctx, "a", "2", "john_doe"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// Insertion order
	all, err := devices.List(ctx, ListDevicesParams{})
	if err != nil || len(all) != 3 {
		t.Fatalf("list all: %v len=%d", err, len(all))
	}
	if all[0].ID != "a" || all[2].ID != "c" {
		t.Fatalf("expected insertion order, got %+v", all)
	}

	// Status filter
	st := models.DeviceStatusOnline
	online, _ := devices.List(ctx, ListDevicesParams{Status: &st})
	if len(online) != 1 || online[0].ID != "a" {
		t.Fatalf("status filter: %+v", online)
	}

	// Type filter
	typ := models.DeviceTypeMobile
	mobiles, _ := devices.List(ctx, ListDevicesParams{Type: &typ})
	if len(mobiles) != 1 || mobiles[0].ID != "b" {
		t.Fatalf("type filter: %+v", mobiles)
	}

	// Search over name or OS
	q := "ios"
	found, _ := devices.List(ctx, ListDevicesParams{NameOrOSContains: &q})
	if len(found) != 1 || found[0].ID != "b" {
		t.Fatalf("search filter: %+v", found)
	}

	// Assigned / unassigned
	yes := true
	assigned, _ := devices.List(ctx, ListDevicesParams{AssignedOnly: &yes})
	unassigned, _ := devices.List(ctx, ListDevicesParams{UnassignedOnly: &yes})
	if len(assigned) != 1 || len(unassigned) != 2 {
		t.Fatalf("assignment filters: assigned=%d unassigned=%d", len(assigned), len(unassigned))
	}

	// Counts
	counts, err := devices.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Total != 3 || counts.Assigned != 1 || counts.Online != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	// UnassignAllForUser
	n, err := devices.UnassignAllForUser(ctx, "2")
	if err != nil || n != 1 {
		t.Fatalf("unassign all: %v n=%d", err, n)
	}
	counts2, _ := devices.Counts(ctx)
	if counts2.Assigned != 0 {
		t.Fatalf("expected no assignments left: %+v", counts2)
	}
}

func TestDeviceRepository_ListFullSnapshot(t *testing.T) {
	d, err := db.Open("file:devicerepo_snapshot?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	devices := NewDeviceRepository(d)
	ctx := context.Background()

	const total = 120
	for i := 0; i < total; i++ {
		id := fmt.Sprintf("d%03d", i)
		_, err := devices.Create(ctx, &models.Device{
			ID: id, Name: "Desktop-" + id, Type: models.DeviceTypeDesktop, OS: "Windows 11", CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	// No filters and no limit returns every device.
	all, err := devices.List(ctx, ListDevicesParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != total {
		t.Fatalf("expected %d devices, got %d", total, len(all))
	}
	if all[0].ID != "d000" || all[total-1].ID != "d119" {
		t.Fatalf("expected insertion order, got first=%q last=%q", all[0].ID, all[total-1].ID)
	}

	// An explicit limit still pages.
	page, err := devices.List(ctx, ListDevicesParams{Limit: 30, Offset: 100})
	if err != nil || len(page) != 20 {
		t.Fatalf("page: %v len=%d", err, len(page))
	}
}
