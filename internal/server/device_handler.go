package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"virtualDeviceManagement/internal/auth"
	"virtualDeviceManagement/internal/service"
	"virtualDeviceManagement/models"
)

// DeviceHandler serves the user view: the caller's assigned devices and
// the start/stop/restart actions.
type DeviceHandler struct {
	Users   *service.UserService
	Devices *service.DeviceService
}

// resolveCaller maps the JWT principal back to a user record.
func (h *DeviceHandler) resolveCaller(w http.ResponseWriter, r *http.Request) *models.User {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		writeErrors(w, http.StatusUnauthorized, "unauthorized")
		return nil
	}
	u, err := h.Users.GetByUsername(r.Context(), p.Name)
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if u == nil {
		writeErrors(w, http.StatusUnauthorized, "unknown user")
		return nil
	}
	return u
}

// MyDevices lists the devices assigned to the caller.
func (h *DeviceHandler) MyDevices(w http.ResponseWriter, r *http.Request) {
	u := h.resolveCaller(w, r)
	if u == nil {
		return
	}
	devices, err := h.Devices.DevicesForUser(r.Context(), u.ID)
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// action runs one of the device actions after an ownership check: regular
// users may only act on their own devices; admins may act on any. A
// missing device stays a silent no-op.
func (h *DeviceHandler) action(w http.ResponseWriter, r *http.Request, run func(id string) error) {
	u := h.resolveCaller(w, r)
	if u == nil {
		return
	}
	id := chi.URLParam(r, "id")
	d, err := h.Devices.Get(r.Context(), id)
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	if d != nil && !u.IsAdmin() {
		if d.AssignedTo == nil || *d.AssignedTo != u.ID {
			writeErrors(w, http.StatusForbidden, "device is not assigned to you")
			return
		}
	}
	if err := run(id); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DeviceHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(id string) error { return h.Devices.Start(r.Context(), id) })
}

func (h *DeviceHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(id string) error { return h.Devices.Stop(r.Context(), id) })
}

func (h *DeviceHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(id string) error { return h.Devices.Restart(r.Context(), id) })
}
