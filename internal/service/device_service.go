package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"virtualDeviceManagement/models"
	"virtualDeviceManagement/repository"
)

// DefaultRestartDelay is the maintenance window a restarting device spends
// before coming back online.
const DefaultRestartDelay = 2 * time.Second

// DeviceService owns the set of device records and their assignment links.
//
// Every mutation is total over "record present / absent": absence is a
// silent no-op, never an error. Callers that want to distinguish can use
// Get first.
type DeviceService struct {
	notifier

	devices      repository.DeviceRepositoryI
	log          *zap.Logger
	restartDelay time.Duration

	now   func() time.Time
	newID func() string

	// Pending restarts are cancellable scheduled tasks keyed by device id.
	// A generation counter invalidates a pending transition when the record
	// is deleted, reassigned or explicitly re-statused before it fires, so
	// a stale timer never resurrects a changed or removed record.
	mu      sync.Mutex
	gen     map[string]uint64
	pending map[string]*time.Timer
	rng     *rand.Rand
}

// NewDeviceService constructs the service. restartDelay <= 0 selects
// DefaultRestartDelay.
func NewDeviceService(devices repository.DeviceRepositoryI, restartDelay time.Duration, log *zap.Logger) *DeviceService {
	if log == nil {
		log = zap.NewNop()
	}
	if restartDelay <= 0 {
		restartDelay = DefaultRestartDelay
	}
	return &DeviceService{
		devices:      devices,
		log:          log,
		restartDelay: restartDelay,
		now:          time.Now,
		newID:        uuid.NewString,
		gen:          make(map[string]uint64),
		pending:      make(map[string]*time.Timer),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// List returns a filtered snapshot in insertion order.
func (s *DeviceService) List(ctx context.Context, p repository.ListDevicesParams) ([]models.Device, error) {
	return s.devices.List(ctx, p)
}

// DevicesForUser returns all devices whose assignment points at userID.
func (s *DeviceService) DevicesForUser(ctx context.Context, userID string) ([]models.Device, error) {
	return s.devices.ListForUser(ctx, userID)
}

// Get fetches one device by id; nil when absent.
func (s *DeviceService) Get(ctx context.Context, id string) (*models.Device, error) {
	return s.devices.GetByID(ctx, id)
}

// CreateDeviceParams carries the caller-supplied fields of a new device.
// Input shape validation is a presentation-layer concern; Create never
// rejects descriptive fields.
type CreateDeviceParams struct {
	Name     string              `json:"name"`
	Type     models.DeviceType   `json:"type"`
	OS       string              `json:"os"`
	Status   models.DeviceStatus `json:"status"`
	Specs    models.DeviceSpecs  `json:"specs"`
	Location string              `json:"location"`
}

// Create mints a fresh id, stamps the creation time, generates a
// placeholder IP and appends the device unassigned.
func (s *DeviceService) Create(ctx context.Context, p CreateDeviceParams) (*models.Device, error) {
	d := &models.Device{
		ID:        s.newID(),
		Name:      p.Name,
		Type:      p.Type,
		OS:        p.OS,
		Status:    p.Status,
		Specs:     p.Specs,
		Location:  p.Location,
		CreatedAt: s.now().UTC(),
		IPAddress: s.randomIP(),
	}
	if _, err := s.devices.Create(ctx, d); err != nil {
		return nil, err
	}
	s.log.Info("device created", zap.String("id", d.ID), zap.String("name", d.Name))
	s.notify()
	return d, nil
}

// Delete removes the device unconditionally; a missing id is a no-op.
// Any pending restart for the id is invalidated.
func (s *DeviceService) Delete(ctx context.Context, id string) error {
	s.invalidatePending(id)
	if err := s.devices.Delete(ctx, id); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Assign links the device to a user, caching the display name. A prior
// assignment is overwritten; a missing device is a no-op. A pending
// restart for the device is invalidated because the record changed.
func (s *DeviceService) Assign(ctx context.Context, deviceID, userID, userDisplayName string) error {
	s.invalidatePending(deviceID)
	if err := s.devices.Assign(ctx, deviceID, userID, userDisplayName); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Unassign clears the assignment link. Idempotent; missing device is a
// no-op.
func (s *DeviceService) Unassign(ctx context.Context, deviceID string) error {
	s.invalidatePending(deviceID)
	if err := s.devices.Unassign(ctx, deviceID); err != nil {
		return err
	}
	s.notify()
	return nil
}

// SetStatus sets the status unconditionally; missing device is a no-op.
// An explicit status change invalidates a pending restart.
func (s *DeviceService) SetStatus(ctx context.Context, deviceID string, status models.DeviceStatus) error {
	s.invalidatePending(deviceID)
	if err := s.devices.UpdateStatus(ctx, deviceID, status); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Start brings the device online.
func (s *DeviceService) Start(ctx context.Context, deviceID string) error {
	return s.SetStatus(ctx, deviceID, models.DeviceStatusOnline)
}

// Stop takes the device offline.
func (s *DeviceService) Stop(ctx context.Context, deviceID string) error {
	return s.SetStatus(ctx, deviceID, models.DeviceStatusOffline)
}

// Restart puts the device into maintenance now and schedules the return
// to online after the restart delay. The delayed transition is cancelled
// if the device is deleted, reassigned or explicitly re-statused in the
// meantime; a device deleted mid-delay is never resurrected. A missing
// device is a no-op and schedules nothing.
func (s *DeviceService) Restart(ctx context.Context, deviceID string) error {
	d, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return err
	}
	if d == nil {
		return nil
	}
	if err := s.devices.UpdateStatus(ctx, deviceID, models.DeviceStatusMaintenance); err != nil {
		return err
	}
	s.notify()

	s.mu.Lock()
	s.gen[deviceID]++
	g := s.gen[deviceID]
	if t, ok := s.pending[deviceID]; ok {
		t.Stop()
	}
	s.pending[deviceID] = time.AfterFunc(s.restartDelay, func() {
		s.finishRestart(deviceID, g)
	})
	s.mu.Unlock()

	s.log.Info("device restarting", zap.String("id", deviceID), zap.Duration("delay", s.restartDelay))
	return nil
}

// finishRestart fires when the restart delay elapses. It re-checks the
// generation and the record's existence before transitioning.
func (s *DeviceService) finishRestart(deviceID string, g uint64) {
	s.mu.Lock()
	cur := s.gen[deviceID]
	if cur == g {
		// Only the live timer may evict its entry; a stale one racing a
		// replacement would otherwise orphan the replacement from Close.
		delete(s.pending, deviceID)
	}
	s.mu.Unlock()
	if cur != g {
		return // invalidated while the timer was pending
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	d, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		s.log.Error("restart completion lookup failed", zap.String("id", deviceID), zap.Error(err))
		return
	}
	if d == nil {
		return // deleted during the delay
	}
	if err := s.devices.UpdateStatus(ctx, deviceID, models.DeviceStatusOnline); err != nil {
		s.log.Error("restart completion failed", zap.String("id", deviceID), zap.Error(err))
		return
	}
	s.notify()
}

// invalidatePending bumps the device's generation and stops its timer, if
// any. Safe to call for unknown ids.
func (s *DeviceService) invalidatePending(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen[deviceID]++
	if t, ok := s.pending[deviceID]; ok {
		t.Stop()
		delete(s.pending, deviceID)
	}
}

// Counts returns the dashboard aggregates.
func (s *DeviceService) Counts(ctx context.Context) (repository.DeviceCounts, error) {
	return s.devices.Counts(ctx)
}

// Close stops all pending restart timers. Called on shutdown.
func (s *DeviceService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}

// randomIP generates a placeholder IPv4; it is cosmetic, not a real
// network identity.
func (s *DeviceService) randomIP() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%d.%d.%d.%d", 10+s.rng.Intn(183), s.rng.Intn(256), s.rng.Intn(256), 1+s.rng.Intn(254))
}
