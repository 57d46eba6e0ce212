package models

import "time"

// DeviceStatus represents the current operational status of a device.
type DeviceStatus string

const (
	DeviceStatusOnline      DeviceStatus = "online"
	DeviceStatusOffline     DeviceStatus = "offline"
	DeviceStatusMaintenance DeviceStatus = "maintenance"
)

// Valid reports whether s is one of the three known statuses.
func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceStatusOnline, DeviceStatusOffline, DeviceStatusMaintenance:
		return true
	}
	return false
}

// DeviceType represents the form factor of a device.
type DeviceType string

const (
	DeviceTypeDesktop DeviceType = "desktop"
	DeviceTypeMobile  DeviceType = "mobile"
	DeviceTypeTablet  DeviceType = "tablet"
	DeviceTypeServer  DeviceType = "server"
)

// DeviceSpecs holds free-form descriptive hardware strings.
// Immutable after creation.
type DeviceSpecs struct {
	CPU     string `db:"cpu" json:"cpu"`
	RAM     string `db:"ram" json:"ram"`
	Storage string `db:"storage" json:"storage"`
	// GPU is optional; only desktops carry one in the fixture fleet.
	GPU *string `db:"gpu" json:"gpu,omitempty"`
}

// Device represents a virtual device in the fleet.
// assigned_to has a 0..1 relation to User (nullable when unassigned).
// AssignedToName is a denormalized cache of the assignee's username taken
// at assignment time; it is not kept in sync if the user is later renamed.
type Device struct {
	ID             string       `db:"id" json:"id"`
	Name           string       `db:"name" json:"name"`
	Type           DeviceType   `db:"type" json:"type"`
	OS             string       `db:"os" json:"os"`
	Status         DeviceStatus `db:"status" json:"status"`
	AssignedTo     *string      `db:"assigned_to" json:"assigned_to"`
	AssignedToName *string      `db:"assigned_to_name" json:"assigned_to_name,omitempty"`
	Specs          DeviceSpecs  `json:"specs"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	// LastUsed is informational only; no operation updates it.
	LastUsed *time.Time `db:"last_used" json:"last_used,omitempty"`
	// IPAddress is a generated placeholder, not a real network identity.
	IPAddress string `db:"ip_address" json:"ip_address"`
	Location  string `db:"location" json:"location"`
}
