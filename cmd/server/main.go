package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"virtualDeviceManagement/internal/config"
	"virtualDeviceManagement/internal/db"
	"virtualDeviceManagement/internal/fixture"
	"virtualDeviceManagement/internal/logger"
	"virtualDeviceManagement/internal/server"
	"virtualDeviceManagement/internal/service"
	"virtualDeviceManagement/internal/session"
	"virtualDeviceManagement/repository"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl.Info("configuration loaded", zap.String("config", cfg.String()))

	// Open the in-memory DB
	d, err := db.Open(cfg.Database.DSN)
	if err != nil {
		zl.Fatal("open db", zap.Error(err))
	}
	defer func() {
		if err := d.Close(); err != nil {
			zl.Error("close db", zap.Error(err))
		}
	}()

	users := repository.NewUserRepository(d)
	devices := repository.NewDeviceRepository(d)

	// Seed the demo fleet on first start (the DB is fresh unless a file
	// DSN was configured).
	ctx := context.Background()
	existing, err := users.List(ctx, 1, 0)
	if err != nil {
		zl.Fatal("check seed state", zap.Error(err))
	}
	if len(existing) == 0 {
		gen := fixture.New(cfg.Fixture.Seed, cfg.Fixture.DeviceCount)
		if err := fixture.Seed(ctx, users, devices, gen); err != nil {
			zl.Fatal("seed fixtures", zap.Error(err))
		}
		zl.Info("fixtures seeded", zap.Int64("seed", cfg.Fixture.Seed), zap.Int("devices", cfg.Fixture.DeviceCount))
	}

	// Wire services
	sess := session.NewStore(cfg.Session.File)
	userSvc := service.NewUserService(users, devices, sess, service.RolePasswords{
		Admin: cfg.Auth.AdminPassword,
		User:  cfg.Auth.UserPassword,
	}, zl)
	deviceSvc := service.NewDeviceService(devices, cfg.Device.RestartDelay, zl)
	defer deviceSvc.Close()

	// Rehydrate the last session from local state, unvalidated.
	if err := userSvc.RestoreSession(); err != nil {
		zl.Warn("restore session", zap.Error(err))
	}

	// Build handlers and start HTTP
	router := server.NewRouter(
		&server.AuthHandler{Users: userSvc, JWTSecret: cfg.Auth.JWTSecret},
		&server.AdminHandler{Users: userSvc, Devices: deviceSvc},
		&server.DeviceHandler{Users: userSvc, Devices: deviceSvc},
		zl,
		cfg.Auth.JWTSecret,
	)
	shutdown, err := server.Start(cfg.HTTP.Address, router)
	if err != nil {
		zl.Fatal("start http", zap.Error(err))
	}
	zl.Info("http server listening", zap.String("address", cfg.HTTP.Address))

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(shCtx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
}
