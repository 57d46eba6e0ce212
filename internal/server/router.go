package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"virtualDeviceManagement/internal/auth"
)

// NewRouter constructs the HTTP handler for the fleet API.
//
// Routes:
//
//	POST  /api/login                          → AuthHandler.Login (public)
//	POST  /api/logout                         → AuthHandler.Logout (public, idempotent)
//	GET   /api/session                        → AuthHandler.Session (public)
//	GET   /api/devices                        → DeviceHandler.MyDevices
//	POST  /api/devices/{id}/start|stop|restart → DeviceHandler actions
//	/api/admin/...                            → AdminHandler (admin kind only)
func NewRouter(authHandler *AuthHandler, adminHandler *AdminHandler, deviceHandler *DeviceHandler, log *zap.Logger, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(WithRequestLogging(log))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/session", authHandler.Session)

		// User view: any authenticated principal
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))
			r.Get("/devices", deviceHandler.MyDevices)
			r.Post("/devices/{id}/start", deviceHandler.Start)
			r.Post("/devices/{id}/stop", deviceHandler.Stop)
			r.Post("/devices/{id}/restart", deviceHandler.Restart)
		})

		// Admin view
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))
			r.Use(auth.RequireAdmin)

			r.Get("/stats", adminHandler.Stats)

			r.Get("/users", adminHandler.ListUsers)
			r.Post("/users", adminHandler.CreateUser)
			r.Delete("/users/{id}", adminHandler.DeleteUser)

			r.Get("/devices", adminHandler.ListDevices)
			r.Post("/devices", adminHandler.CreateDevice)
			r.Delete("/devices/{id}", adminHandler.DeleteDevice)
			r.Post("/devices/{id}/assign", adminHandler.AssignDevice)
			r.Post("/devices/{id}/unassign", adminHandler.UnassignDevice)
			r.Patch("/devices/{id}/status", adminHandler.SetDeviceStatus)
		})
	})

	return r
}
