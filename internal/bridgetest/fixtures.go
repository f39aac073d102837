package bridgetest

import (
	"fmt"
	"time"

	"github.com/tOgg1/dmxctl/internal/api"
)

// DefaultDevices returns the fixture devices the mock bridge starts with.
func DefaultDevices() []api.Device {
	return []api.Device{
		{
			ID:         "dev-kitchen-strip",
			Name:       "Kitchen Strip",
			Model:      "H6160",
			Address:    "192.168.1.40",
			Universe:   0,
			Channel:    1,
			Online:     true,
			Power:      true,
			Brightness: 80,
			Color:      "#ffcc88",
		},
		{
			ID:         "dev-desk-bar",
			Name:       "Desk Light Bar",
			Model:      "H6056",
			Address:    "192.168.1.41",
			Universe:   0,
			Channel:    5,
			Online:     true,
			Power:      false,
			Brightness: 50,
			Color:      "#ffffff",
		},
		{
			ID:         "dev-shelf-bulb",
			Name:       "Shelf Bulb",
			Model:      "H6008",
			Address:    "192.168.1.42",
			Universe:   1,
			Channel:    1,
			Online:     false,
			Power:      false,
			Brightness: 100,
			Color:      "#ff0044",
		},
	}
}

// DefaultScenes returns the fixture scenes the mock bridge starts with.
func DefaultScenes() []api.Scene {
	return []api.Scene{
		{Name: "evening", DeviceIDs: []string{"dev-kitchen-strip", "dev-desk-bar"}, Active: true},
		{Name: "movie", DeviceIDs: []string{"dev-kitchen-strip", "dev-shelf-bulb"}},
		{Name: "all-off", DeviceIDs: []string{"dev-kitchen-strip", "dev-desk-bar", "dev-shelf-bulb"}},
	}
}

var seedLoggers = []string{
	"artnet.server",
	"device.registry",
	"scene.engine",
	"http.api",
	"discovery",
}

var seedLevels = []string{"debug", "info", "info", "warning", "error"}

// SeedLogEntries returns n synthetic log entries with ascending timestamps,
// cycling through the bridge's logger names and levels.
func SeedLogEntries(n int) []api.LogEntry {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := make([]api.LogEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, api.LogEntry{
			Time:    base.Add(time.Duration(i) * time.Second),
			Level:   seedLevels[i%len(seedLevels)],
			Logger:  seedLoggers[i%len(seedLoggers)],
			Message: fmt.Sprintf("event %d", i),
		})
	}
	return entries
}
