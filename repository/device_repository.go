package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"virtualDeviceManagement/models"
)

type DeviceRepository struct {
	db *sql.DB
}

func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

const deviceColumns = `id, name, type, os, status, assigned_to, assigned_to_name, cpu, ram, storage, gpu, created_at, last_used, ip_address, location`

// Create inserts a new device. Status defaults to 'offline' if empty.
// The caller assigns ID, CreatedAt and IPAddress; the repository performs
// no input validation on descriptive fields.
func (r *DeviceRepository) Create(ctx context.Context, d *models.Device) (*models.Device, error) {
	if d == nil {
		return nil, errors.New("device is nil")
	}
	if d.Status == "" {
		d.Status = models.DeviceStatusOffline
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO devices (`+deviceColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		d.ID, d.Name, string(d.Type), d.OS, string(d.Status),
		d.AssignedTo, d.AssignedToName,
		d.Specs.CPU, d.Specs.RAM, d.Specs.Storage, d.Specs.GPU,
		formatTime(d.CreatedAt), formatTimePtr(d.LastUsed), d.IPAddress, d.Location)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*models.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	d, err := scanDevice(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

// ListDevicesParams contains filters and pagination for List. The filters
// mirror the admin view's search box and dropdowns.
type ListDevicesParams struct {
	Status           *models.DeviceStatus
	Type             *models.DeviceType
	AssignedOnly     *bool
	UnassignedOnly   *bool
	NameOrOSContains *string
	Limit            int
	Offset           int
}

// List returns devices matching the filters in insertion order. A Limit
// <= 0 returns the full snapshot.
func (r *DeviceRepository) List(ctx context.Context, p ListDevicesParams) ([]models.Device, error) {
	if p.Limit <= 0 {
		p.Limit = -1 // sqlite: negative LIMIT means unlimited
	} else if p.Limit > 500 {
		p.Limit = 500
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where := make([]string, 0, 4)
	args := make([]any, 0, 6)

	if p.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.Type != nil {
		where = append(where, "type = ?")
		args = append(args, string(*p.Type))
	}
	if p.AssignedOnly != nil && *p.AssignedOnly {
		where = append(where, "assigned_to IS NOT NULL")
	}
	if p.UnassignedOnly != nil && *p.UnassignedOnly {
		where = append(where, "assigned_to IS NULL")
	}
	if p.NameOrOSContains != nil && strings.TrimSpace(*p.NameOrOSContains) != "" {
		like := "%" + strings.TrimSpace(*p.NameOrOSContains) + "%"
		where = append(where, "(name LIKE ? OR os LIKE ?)")
		args = append(args, like, like)
	}

	query := `SELECT ` + deviceColumns + ` FROM devices`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC LIMIT ? OFFSET ?"
	args = append(args, p.Limit, p.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDevices(rows)
}

// ListForUser returns all devices currently assigned to the given user,
// in insertion order.
func (r *DeviceRepository) ListForUser(ctx context.Context, userID string) ([]models.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE assigned_to = ? ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDevices(rows)
}

// UpdateStatus sets the status unconditionally. Absence is a no-op.
func (r *DeviceRepository) UpdateStatus(ctx context.Context, id string, status models.DeviceStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE devices SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// Assign links the device to a user, overwriting any prior assignment.
// userName is cached denormalized for display. Absence is a no-op.
func (r *DeviceRepository) Assign(ctx context.Context, id, userID, userName string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE devices SET assigned_to = ?, assigned_to_name = ? WHERE id = ?`, userID, userName, id)
	return err
}

// Unassign clears the assignment link. Idempotent; absence is a no-op.
func (r *DeviceRepository) Unassign(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE devices SET assigned_to = NULL, assigned_to_name = NULL WHERE id = ?`, id)
	return err
}

// UnassignAllForUser clears the assignment of every device held by the
// given user and returns how many were affected.
func (r *DeviceRepository) UnassignAllForUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE devices SET assigned_to = NULL, assigned_to_name = NULL WHERE assigned_to = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeviceCounts aggregates the dashboard tiles.
type DeviceCounts struct {
	Total    int `json:"total"`
	Assigned int `json:"assigned"`
	Online   int `json:"online"`
}

func (r *DeviceRepository) Counts(ctx context.Context) (DeviceCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var c DeviceCounts
	err := r.db.QueryRowContext(ctx, `SELECT
        COUNT(*),
        COUNT(assigned_to),
        COALESCE(SUM(CASE WHEN status = 'online' THEN 1 ELSE 0 END), 0)
    FROM devices`).Scan(&c.Total, &c.Assigned, &c.Online)
	return c, err
}

// Delete removes the device unconditionally. Absence is a no-op.
func (r *DeviceRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	return err
}

func scanDevice(scan func(dest ...any) error) (*models.Device, error) {
	var d models.Device
	var typ, status string
	var assignedTo, assignedToName, gpu sql.NullString
	var createdAt string
	var lastUsed sql.NullString
	err := scan(&d.ID, &d.Name, &typ, &d.OS, &status,
		&assignedTo, &assignedToName,
		&d.Specs.CPU, &d.Specs.RAM, &d.Specs.Storage, &gpu,
		&createdAt, &lastUsed, &d.IPAddress, &d.Location)
	if err != nil {
		return nil, err
	}
	d.Type = models.DeviceType(typ)
	d.Status = models.DeviceStatus(status)
	if assignedTo.Valid {
		v := assignedTo.String
		d.AssignedTo = &v
	}
	if assignedToName.Valid {
		v := assignedToName.String
		d.AssignedToName = &v
	}
	if gpu.Valid {
		v := gpu.String
		d.Specs.GPU = &v
	}
	d.CreatedAt = parseTime(createdAt)
	d.LastUsed = parseTimePtr(lastUsed)
	return &d, nil
}

func collectDevices(rows *sql.Rows) ([]models.Device, error) {
	var out []models.Device
	for rows.Next() {
		d, err := scanDevice(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
