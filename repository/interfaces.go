package repository

import (
	"context"
	"time"

	"virtualDeviceManagement/models"
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	CountByRole(ctx context.Context, role string) (int, error)
	Delete(ctx context.Context, id string) error
}

// DeviceRepositoryI defines operations on Device entities.
type DeviceRepositoryI interface {
	Create(ctx context.Context, d *models.Device) (*models.Device, error)
	GetByID(ctx context.Context, id string) (*models.Device, error)
	List(ctx context.Context, p ListDevicesParams) ([]models.Device, error)
	ListForUser(ctx context.Context, userID string) ([]models.Device, error)
	UpdateStatus(ctx context.Context, id string, status models.DeviceStatus) error
	Assign(ctx context.Context, id, userID, userName string) error
	Unassign(ctx context.Context, id string) error
	UnassignAllForUser(ctx context.Context, userID string) (int64, error)
	Counts(ctx context.Context) (DeviceCounts, error)
	Delete(ctx context.Context, id string) error
}
