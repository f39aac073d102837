package api

import (
	"strings"
	"time"
)

// Device is a light fixture known to the bridge.
type Device struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Model      string `json:"model"`
	Address    string `json:"address"`
	Universe   int    `json:"universe"`
	Channel    int    `json:"channel"`
	Online     bool   `json:"online"`
	Power      bool   `json:"power"`
	Brightness int    `json:"brightness"`
	Color      string `json:"color"`
}

// Scene is a named preset applied to a group of devices.
type Scene struct {
	Name      string   `json:"name"`
	DeviceIDs []string `json:"device_ids"`
	Active    bool     `json:"active"`
}

// DeviceStatus is the per-device row of a status snapshot.
type DeviceStatus struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Online     bool      `json:"online"`
	Power      bool      `json:"power"`
	Brightness int       `json:"brightness"`
	LastSeen   time.Time `json:"last_seen"`
}

// ArtNetStats holds the bridge's DMX output counters.
type ArtNetStats struct {
	Universes        int     `json:"universes"`
	PacketsPerSecond float64 `json:"packets_per_second"`
	FramesPerSecond  float64 `json:"frames_per_second"`
	PacketsTotal     uint64  `json:"packets_total"`
	DroppedFrames    uint64  `json:"dropped_frames"`
}

// StatusSnapshot is the full bridge status returned by GET /api/status.
type StatusSnapshot struct {
	Version       string         `json:"version"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Devices       []DeviceStatus `json:"devices"`
	ArtNet        ArtNetStats    `json:"artnet"`
	Timestamp     time.Time      `json:"timestamp"`
}

// LogEntry is one line from the bridge's log store.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Logger  string    `json:"logger"`
	Message string    `json:"message"`
}

// LogFilter narrows a log subscription or query. Empty fields match
// everything.
type LogFilter struct {
	Level  string
	Logger string
}

// LogQuery selects one page of the bridge's log store.
type LogQuery struct {
	Page     int
	PageSize int
	Level    string
	Logger   string
	Search   string
}

// LogPage is one page of query results.
type LogPage struct {
	Entries    []LogEntry `json:"entries"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	HasNext    bool       `json:"has_next"`
	HasPrev    bool       `json:"has_prev"`
}

// Matches reports whether the entry passes the filter. Level comparison
// is case-insensitive; logger names match exactly.
func (f LogFilter) Matches(e LogEntry) bool {
	if f.Level != "" && !strings.EqualFold(e.Level, f.Level) {
		return false
	}
	if f.Logger != "" && e.Logger != f.Logger {
		return false
	}
	return true
}
