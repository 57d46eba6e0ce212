package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"virtualDeviceManagement/internal/service"
	"virtualDeviceManagement/models"
	"virtualDeviceManagement/repository"
)

// AdminHandler serves the admin view: user management, device management,
// assignment and the dashboard stats.
type AdminHandler struct {
	Users   *service.UserService
	Devices *service.DeviceService
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUserRequest is the JSON payload for user creation.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// CreateUser appends a new account. Validation failures return 422 with
// the full message list and mutate nothing.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid request")
		return
	}
	u, err := h.Users.CreateUser(r.Context(), req.Username, req.Email, req.Role)
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Errors: ve.Messages})
			return
		}
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// DeleteUser removes the account and unassigns its devices. Unknown ids
// are a no-op, still 204.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDevices serves the admin device table with its search box and
// dropdown filters: ?q= matches name or OS, ?type=, ?status=,
// ?assigned=true|false, plus limit/offset.
func (h *AdminHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var p repository.ListDevicesParams

	if v := q.Get("q"); v != "" {
		p.NameOrOSContains = &v
	}
	if v := q.Get("type"); v != "" && v != "all" {
		t := models.DeviceType(v)
		p.Type = &t
	}
	if v := q.Get("status"); v != "" && v != "all" {
		st := models.DeviceStatus(v)
		p.Status = &st
	}
	if v := q.Get("assigned"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			if b {
				p.AssignedOnly = &b
			} else {
				t := true
				p.UnassignedOnly = &t
			}
		}
	}
	p.Limit, _ = strconv.Atoi(q.Get("limit"))
	p.Offset, _ = strconv.Atoi(q.Get("offset"))

	devices, err := h.Devices.List(r.Context(), p)
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *AdminHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var req service.CreateDeviceParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid request")
		return
	}
	d, err := h.Devices.Create(r.Context(), req)
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *AdminHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.Devices.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignRequest is the JSON payload for device assignment.
type AssignRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// AssignDevice links the device to a user, overwriting any prior link.
// The cached display name comes from the request or, when omitted, from
// the user record at assignment time.
func (h *AdminHandler) AssignDevice(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeErrors(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.UserName == "" {
		u, err := h.Users.GetUser(r.Context(), req.UserID)
		if err != nil {
			writeErrors(w, http.StatusInternalServerError, "internal error")
			return
		}
		if u != nil {
			req.UserName = u.Username
		}
	}
	if err := h.Devices.Assign(r.Context(), chi.URLParam(r, "id"), req.UserID, req.UserName); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) UnassignDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.Devices.Unassign(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusRequest is the JSON payload for a status change.
type StatusRequest struct {
	Status models.DeviceStatus `json:"status"`
}

func (h *AdminHandler) SetDeviceStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Valid() {
		writeErrors(w, http.StatusBadRequest, "status must be online, offline or maintenance")
		return
	}
	if err := h.Devices.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatsResponse carries the four dashboard tiles.
type StatsResponse struct {
	TotalDevices    int `json:"total_devices"`
	AssignedDevices int `json:"assigned_devices"`
	OnlineDevices   int `json:"online_devices"`
	TotalUsers      int `json:"total_users"`
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Devices.Counts(r.Context())
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	users, err := h.Users.CountRegularUsers(r.Context())
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		TotalDevices:    counts.Total,
		AssignedDevices: counts.Assigned,
		OnlineDevices:   counts.Online,
		TotalUsers:      users,
	})
}
