// Package fixture seeds the stores with the demo fleet: three fixed
// accounts and a randomized set of devices. Generation is isolated behind
// an interface and driven by a seed so tests get a deterministic fleet.
package fixture

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"virtualDeviceManagement/models"
	"virtualDeviceManagement/repository"
)

// Generator produces the initial contents of the two stores.
type Generator interface {
	Users() []models.User
	Devices() []models.Device
}

// SeededGenerator is the default Generator. The same seed and device
// count always produce the same fleet.
type SeededGenerator struct {
	rng         *rand.Rand
	deviceCount int
	now         time.Time
}

// New creates a deterministic generator for the given seed.
func New(seed int64, deviceCount int) *SeededGenerator {
	if deviceCount <= 0 {
		deviceCount = 12
	}
	return &SeededGenerator{
		rng:         rand.New(rand.NewSource(seed)),
		deviceCount: deviceCount,
		now:         time.Now().UTC(),
	}
}

// Users returns the three fixed demo accounts: one admin and two regular
// users. Their ids and usernames are referenced by the device fixtures.
func (g *SeededGenerator) Users() []models.User {
	day := 24 * time.Hour
	lastAdmin := g.now
	lastJohn := g.now.Add(-1 * time.Hour)
	lastJane := g.now.Add(-2 * time.Hour)
	return []models.User{
		{ID: "1", Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin, CreatedAt: g.now, LastLogin: &lastAdmin},
		{ID: "2", Username: "john_doe", Email: "john@example.com", Role: models.RoleUser, CreatedAt: g.now.Add(-1 * day), LastLogin: &lastJohn},
		{ID: "3", Username: "jane_smith", Email: "jane@example.com", Role: models.RoleUser, CreatedAt: g.now.Add(-2 * day), LastLogin: &lastJane},
	}
}

var (
	deviceTypes = []models.DeviceType{
		models.DeviceTypeDesktop,
		models.DeviceTypeMobile,
		models.DeviceTypeTablet,
		models.DeviceTypeServer,
	}

	osByType = map[models.DeviceType][]string{
		models.DeviceTypeDesktop: {"Windows 11", "macOS Ventura", "Ubuntu 22.04"},
		models.DeviceTypeMobile:  {"Android 13", "iOS 16", "HarmonyOS"},
		models.DeviceTypeTablet:  {"iPadOS 16", "Android 13", "Windows 11"},
		models.DeviceTypeServer:  {"Ubuntu Server 22.04", "CentOS 8", "Windows Server 2022"},
	}

	statuses = []models.DeviceStatus{
		models.DeviceStatusOnline,
		models.DeviceStatusOffline,
		models.DeviceStatusMaintenance,
	}

	cpus     = []string{"Intel i7-12700K", "AMD Ryzen 7 5800X", "Apple M2", "Intel Xeon E5-2680"}
	rams     = []string{"8GB", "16GB", "32GB", "64GB"}
	storages = []string{"256GB SSD", "512GB SSD", "1TB SSD", "2TB SSD"}
	gpus     = []string{"NVIDIA RTX 4070", "AMD RX 6800 XT", "Intel Arc A770"}

	locations = []string{
		"Berlin", "Austin", "Singapore", "Toronto", "Amsterdam",
		"Oslo", "Lisbon", "Seattle", "Dublin", "Sydney",
	}
)

const nameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Devices returns the randomized fleet. Types cycle through the four form
// factors; the first three devices are assigned to john_doe and the next
// three to jane_smith, the rest start unassigned.
func (g *SeededGenerator) Devices() []models.Device {
	out := make([]models.Device, 0, g.deviceCount)
	for i := 0; i < g.deviceCount; i++ {
		typ := deviceTypes[i%len(deviceTypes)]
		osList := osByType[typ]

		d := models.Device{
			ID:     strconv.Itoa(i + 1),
			Name:   g.deviceName(typ),
			Type:   typ,
			OS:     osList[g.rng.Intn(len(osList))],
			Status: statuses[g.rng.Intn(len(statuses))],
			Specs: models.DeviceSpecs{
				CPU:     cpus[g.rng.Intn(len(cpus))],
				RAM:     rams[g.rng.Intn(len(rams))],
				Storage: storages[g.rng.Intn(len(storages))],
			},
			CreatedAt: g.now.Add(-time.Duration(g.rng.Intn(365*24)) * time.Hour),
			IPAddress: g.randomIP(),
			Location:  locations[g.rng.Intn(len(locations))],
		}
		if typ == models.DeviceTypeDesktop {
			gpu := gpus[g.rng.Intn(len(gpus))]
			d.Specs.GPU = &gpu
		}
		if g.rng.Float64() > 0.3 {
			lastUsed := g.now.Add(-time.Duration(g.rng.Intn(7*24)) * time.Hour)
			d.LastUsed = &lastUsed
		}
		switch {
		case i < 3:
			userID, userName := "2", "john_doe"
			d.AssignedTo = &userID
			d.AssignedToName = &userName
		case i < 6:
			userID, userName := "3", "jane_smith"
			d.AssignedTo = &userID
			d.AssignedToName = &userName
		}
		out = append(out, d)
	}
	return out
}

func (g *SeededGenerator) deviceName(typ models.DeviceType) string {
	var suffix strings.Builder
	for i := 0; i < 4; i++ {
		suffix.WriteByte(nameAlphabet[g.rng.Intn(len(nameAlphabet))])
	}
	return capitalize(string(typ)) + "-" + suffix.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (g *SeededGenerator) randomIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", 10+g.rng.Intn(183), g.rng.Intn(256), g.rng.Intn(256), 1+g.rng.Intn(254))
}

// Seed loads the generator's output into the repositories. The caller
// decides whether seeding is needed (typically only when the user table
// is empty).
func Seed(ctx context.Context, users repository.UserRepositoryI, devices repository.DeviceRepositoryI, g Generator) error {
	for _, u := range g.Users() {
		u := u
		if _, err := users.Create(ctx, &u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	for _, d := range g.Devices() {
		d := d
		if _, err := devices.Create(ctx, &d); err != nil {
			return fmt.Errorf("seed device %s: %w", d.ID, err)
		}
	}
	return nil
}
