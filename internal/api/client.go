// Package api implements the REST client for the DMX LAN bridge.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tOgg1/dmxctl/internal/logging"
)

// ErrNotFound is returned when the bridge does not know the requested
// device or scene.
var ErrNotFound = errors.New("not found")

// StatusError is returned for non-2xx bridge responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("bridge returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("bridge returned %d", e.StatusCode)
}

// Client talks to the bridge REST API.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a bridge client. The timeout applies per request; the log
// stream manages its own deadline.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logging.Component("api"),
	}
}

// BaseURL returns the configured bridge URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks bridge liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

// Devices lists all devices known to the bridge.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := c.get(ctx, "/api/devices", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// Device fetches a single device by ID.
func (c *Client) Device(ctx context.Context, id string) (Device, error) {
	var device Device
	if err := c.get(ctx, "/api/devices/"+url.PathEscape(id), &device); err != nil {
		return Device{}, err
	}
	return device, nil
}

// SetPower turns a device on or off.
func (c *Client) SetPower(ctx context.Context, id string, on bool) error {
	return c.post(ctx, "/api/devices/"+url.PathEscape(id)+"/power", map[string]any{"on": on}, nil)
}

// SetBrightness sets a device's brightness (0-100).
func (c *Client) SetBrightness(ctx context.Context, id string, level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("brightness must be between 0 and 100, got %d", level)
	}
	return c.post(ctx, "/api/devices/"+url.PathEscape(id)+"/brightness", map[string]any{"level": level}, nil)
}

// SetColor sets a device's color as a #rrggbb hex string.
func (c *Client) SetColor(ctx context.Context, id string, color string) error {
	if !validHexColor(color) {
		return fmt.Errorf("color must be a #rrggbb hex value, got %q", color)
	}
	return c.post(ctx, "/api/devices/"+url.PathEscape(id)+"/color", map[string]any{"color": color}, nil)
}

// Scenes lists the bridge's scenes.
func (c *Client) Scenes(ctx context.Context) ([]Scene, error) {
	var scenes []Scene
	if err := c.get(ctx, "/api/scenes", &scenes); err != nil {
		return nil, err
	}
	return scenes, nil
}

// ActivateScene applies a scene by name.
func (c *Client) ActivateScene(ctx context.Context, name string) error {
	return c.post(ctx, "/api/scenes/"+url.PathEscape(name)+"/activate", nil, nil)
}

// Status fetches the bridge status snapshot.
func (c *Client) Status(ctx context.Context) (StatusSnapshot, error) {
	var snapshot StatusSnapshot
	if err := c.get(ctx, "/api/status", &snapshot); err != nil {
		return StatusSnapshot{}, err
	}
	return snapshot, nil
}

// QueryLogs fetches one page from the bridge's log store.
func (c *Client) QueryLogs(ctx context.Context, q LogQuery) (LogPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	if q.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Level != "" {
		params.Set("level", q.Level)
	}
	if q.Logger != "" {
		params.Set("logger", q.Logger)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	var page LogPage
	if err := c.get(ctx, "/api/logs?"+params.Encode(), &page); err != nil {
		return LogPage{}, err
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Msg("bridge request")

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// readErrorMessage extracts the "error" field from a failure body, if any.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}

func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
