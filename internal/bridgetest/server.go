// Package bridgetest provides an in-process mock of the DMX LAN bridge
// REST API for tests and for the console's demo mode.
package bridgetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tOgg1/dmxctl/internal/api"
)

const defaultPageSize = 50

// maxStoredLogs bounds the rolling log store.
const maxStoredLogs = 10000

// Server is a mock bridge backed by httptest.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	devices  []api.Device
	scenes   []api.Scene
	logs     []api.LogEntry
	subs     map[int]chan api.LogEntry
	nextSub  int
	started  time.Time
	statusN  uint64
	failNext int
}

// NewServer starts a mock bridge with default fixtures.
func NewServer() *Server {
	s := &Server{
		devices: DefaultDevices(),
		scenes:  DefaultScenes(),
		subs:    make(map[int]chan api.LogEntry),
		started: time.Now(),
	}
	s.srv = httptest.NewServer(s.handler())
	return s
}

// URL returns the mock bridge base URL.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts the mock bridge down.
func (s *Server) Close() {
	s.mu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()
	s.srv.Close()
}

// AppendLog stores an entry and broadcasts it to live stream subscribers.
func (s *Server) AppendLog(e api.LogEntry) {
	s.mu.Lock()
	s.logs = append(s.logs, e)
	if len(s.logs) > maxStoredLogs {
		s.logs = s.logs[len(s.logs)-maxStoredLogs:]
	}
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			// Slow subscriber; drop rather than block the bridge.
		}
	}
	s.mu.Unlock()
}

// SeedLogs fills the store with n synthetic entries.
func (s *Server) SeedLogs(n int) {
	entries := SeedLogEntries(n)
	s.mu.Lock()
	s.logs = append(s.logs, entries...)
	s.mu.Unlock()
}

// StartFeed appends a synthetic log entry every interval until the returned
// stop function is called. Used by the console's demo mode.
func (s *Server) StartFeed(interval time.Duration) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		n := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.AppendLog(api.LogEntry{
					Time:    time.Now(),
					Level:   seedLevels[n%len(seedLevels)],
					Logger:  seedLoggers[n%len(seedLoggers)],
					Message: fmt.Sprintf("demo event %d", n),
				})
				n++
			}
		}
	}()
	return func() { close(done) }
}

// LogCount returns the number of stored entries.
func (s *Server) LogCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

// Subscribers reports how many log stream subscriptions are live. Tests
// use it to wait for a subscription before broadcasting entries.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Device returns a copy of the device with the given ID.
func (s *Server) Device(id string) (api.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.ID == id {
			return d, true
		}
	}
	return api.Device{}, false
}

// FailNext makes the next n API requests return 500, for error-path tests.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/devices", s.handleDevices)
	mux.HandleFunc("GET /api/devices/{id}", s.handleDevice)
	mux.HandleFunc("POST /api/devices/{id}/power", s.handlePower)
	mux.HandleFunc("POST /api/devices/{id}/brightness", s.handleBrightness)
	mux.HandleFunc("POST /api/devices/{id}/color", s.handleColor)
	mux.HandleFunc("GET /api/scenes", s.handleScenes)
	mux.HandleFunc("POST /api/scenes/{name}/activate", s.handleActivateScene)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /api/logs/stream", s.handleLogStream)
	return s.failureMiddleware(mux)
}

// failureMiddleware serves injected failures before normal routing.
func (s *Server) failureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		if s.failNext > 0 {
			s.failNext--
			s.mu.Unlock()
			writeError(w, http.StatusInternalServerError, "injected failure")
			return
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	devices := append([]api.Device(nil), s.devices...)
	s.mu.Unlock()
	writeJSON(w, devices)
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	device, ok := s.Device(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown device %q", id))
		return
	}
	writeJSON(w, device)
}

func (s *Server) updateDevice(w http.ResponseWriter, r *http.Request, apply func(*api.Device) error) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.devices {
		if s.devices[i].ID != id {
			continue
		}
		if err := apply(&s.devices[i]); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, s.devices[i])
		return
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("unknown device %q", id))
}

func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	var body struct {
		On bool `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.updateDevice(w, r, func(d *api.Device) error {
		d.Power = body.On
		return nil
	})
}

func (s *Server) handleBrightness(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Level int `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.updateDevice(w, r, func(d *api.Device) error {
		if body.Level < 0 || body.Level > 100 {
			return fmt.Errorf("brightness out of range: %d", body.Level)
		}
		d.Brightness = body.Level
		return nil
	})
}

func (s *Server) handleColor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.updateDevice(w, r, func(d *api.Device) error {
		if !strings.HasPrefix(body.Color, "#") || len(body.Color) != 7 {
			return fmt.Errorf("invalid color %q", body.Color)
		}
		d.Color = body.Color
		return nil
	})
}

func (s *Server) handleScenes(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	scenes := append([]api.Scene(nil), s.scenes...)
	s.mu.Unlock()
	writeJSON(w, scenes)
}

func (s *Server) handleActivateScene(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.scenes {
		s.scenes[i].Active = s.scenes[i].Name == name
		if s.scenes[i].Active {
			found = true
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown scene %q", name))
		return
	}
	writeJSON(w, map[string]string{"activated": name})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.statusN++
	snapshot := api.StatusSnapshot{
		Version:       "0.4.2",
		UptimeSeconds: time.Since(s.started).Seconds(),
		ArtNet: api.ArtNetStats{
			Universes:        2,
			PacketsPerSecond: 44.0,
			FramesPerSecond:  30.0,
			PacketsTotal:     s.statusN * 44,
			DroppedFrames:    0,
		},
		Timestamp: time.Now(),
	}
	for _, d := range s.devices {
		snapshot.Devices = append(snapshot.Devices, api.DeviceStatus{
			ID:         d.ID,
			Name:       d.Name,
			Online:     d.Online,
			Power:      d.Power,
			Brightness: d.Brightness,
			LastSeen:   time.Now().Add(-3 * time.Second),
		})
	}
	s.mu.Unlock()
	writeJSON(w, snapshot)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	level := q.Get("level")
	logger := q.Get("logger")
	search := strings.ToLower(q.Get("search"))

	s.mu.Lock()
	var matched []api.LogEntry
	for _, e := range s.logs {
		if level != "" && e.Level != level {
			continue
		}
		if logger != "" && e.Logger != logger {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Message), search) {
			continue
		}
		matched = append(matched, e)
	}
	s.mu.Unlock()

	totalPages := (len(matched) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * pageSize
	end := start + pageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	writeJSON(w, api.LogPage{
		Entries:    matched[start:end],
		Page:       page,
		TotalPages: totalPages,
		HasNext:    page < totalPages-1,
		HasPrev:    page > 0,
	})
}

func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	q := r.URL.Query()
	filter := api.LogFilter{Level: q.Get("level"), Logger: q.Get("logger")}

	ch := make(chan api.LogEntry, 64)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if _, live := s.subs[id]; live {
			delete(s.subs, id)
			close(ch)
		}
		s.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, open := <-ch:
			if !open {
				return
			}
			if !filter.Matches(entry) {
				continue
			}
			data, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: log\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
