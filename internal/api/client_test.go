package api_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tOgg1/dmxctl/internal/api"
	"github.com/tOgg1/dmxctl/internal/bridgetest"
	"github.com/tOgg1/dmxctl/internal/testutil"
)

func newTestClient(t *testing.T) (*api.Client, *bridgetest.Server) {
	t.Helper()
	testutil.SkipIfNoNetwork(t)
	srv := bridgetest.NewServer()
	t.Cleanup(srv.Close)
	return api.New(srv.URL(), 2*time.Second), srv
}

func TestClientHealth(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	t.Parallel()
	testutil.SkipIfNoNetwork(t)
	srv := bridgetest.NewServer()
	t.Cleanup(srv.Close)

	client := api.New(srv.URL()+"/", 2*time.Second)
	if client.BaseURL() != srv.URL() {
		t.Fatalf("expected base URL %q, got %q", srv.URL(), client.BaseURL())
	}
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}

func TestClientDevices(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)

	devices, err := client.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(devices))
	}
	first := devices[0]
	if first.ID != "dev-kitchen-strip" {
		t.Fatalf("unexpected first device: %s", first.ID)
	}
	if first.Name != "Kitchen Strip" || first.Model != "H6160" {
		t.Fatalf("unexpected device fields: %+v", first)
	}
	if !first.Online || !first.Power || first.Brightness != 80 || first.Color != "#ffcc88" {
		t.Fatalf("unexpected device state: %+v", first)
	}
}

func TestClientDeviceByID(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)

	device, err := client.Device(context.Background(), "dev-desk-bar")
	if err != nil {
		t.Fatalf("Device failed: %v", err)
	}
	if device.Name != "Desk Light Bar" || device.Model != "H6056" {
		t.Fatalf("unexpected device: %+v", device)
	}
}

func TestClientDeviceNotFound(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)

	_, err := client.Device(context.Background(), "ghost")
	if !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "/api/devices/ghost") {
		t.Fatalf("expected error to name the request, got %v", err)
	}
}

func TestClientSetPower(t *testing.T) {
	t.Parallel()
	client, srv := newTestClient(t)
	ctx := context.Background()

	if err := client.SetPower(ctx, "dev-desk-bar", true); err != nil {
		t.Fatalf("SetPower on failed: %v", err)
	}
	device, ok := srv.Device("dev-desk-bar")
	if !ok || !device.Power {
		t.Fatalf("expected device powered on, got %+v", device)
	}

	if err := client.SetPower(ctx, "dev-desk-bar", false); err != nil {
		t.Fatalf("SetPower off failed: %v", err)
	}
	device, _ = srv.Device("dev-desk-bar")
	if device.Power {
		t.Fatalf("expected device powered off, got %+v", device)
	}
}

func TestClientSetBrightness(t *testing.T) {
	t.Parallel()
	client, srv := newTestClient(t)
	ctx := context.Background()

	if err := client.SetBrightness(ctx, "dev-kitchen-strip", 55); err != nil {
		t.Fatalf("SetBrightness failed: %v", err)
	}
	device, _ := srv.Device("dev-kitchen-strip")
	if device.Brightness != 55 {
		t.Fatalf("expected brightness 55, got %d", device.Brightness)
	}

	for _, level := range []int{-1, 101} {
		err := client.SetBrightness(ctx, "dev-kitchen-strip", level)
		if err == nil || !strings.Contains(err.Error(), "between 0 and 100") {
			t.Fatalf("expected range error for %d, got %v", level, err)
		}
	}
	// Rejected values never reach the bridge.
	device, _ = srv.Device("dev-kitchen-strip")
	if device.Brightness != 55 {
		t.Fatalf("brightness changed after rejected calls: %d", device.Brightness)
	}
}

func TestClientSetColor(t *testing.T) {
	t.Parallel()
	client, srv := newTestClient(t)
	ctx := context.Background()

	if err := client.SetColor(ctx, "dev-kitchen-strip", "#00AAff"); err != nil {
		t.Fatalf("SetColor failed: %v", err)
	}
	device, _ := srv.Device("dev-kitchen-strip")
	if device.Color != "#00AAff" {
		t.Fatalf("expected color #00AAff, got %s", device.Color)
	}

	for _, color := range []string{"red", "00ff00", "#00ff0g", "#00ff001"} {
		err := client.SetColor(ctx, "dev-kitchen-strip", color)
		if err == nil || !strings.Contains(err.Error(), "#rrggbb") {
			t.Fatalf("expected format error for %q, got %v", color, err)
		}
	}
}

func TestClientScenesAndActivate(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)
	ctx := context.Background()

	scenes, err := client.Scenes(ctx)
	if err != nil {
		t.Fatalf("Scenes failed: %v", err)
	}
	if len(scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(scenes))
	}
	if scenes[0].Name != "evening" || !scenes[0].Active {
		t.Fatalf("expected evening active, got %+v", scenes[0])
	}

	if err := client.ActivateScene(ctx, "movie"); err != nil {
		t.Fatalf("ActivateScene failed: %v", err)
	}
	scenes, err = client.Scenes(ctx)
	if err != nil {
		t.Fatalf("Scenes after activate failed: %v", err)
	}
	for _, sc := range scenes {
		if sc.Active != (sc.Name == "movie") {
			t.Fatalf("unexpected active flags after activate: %+v", scenes)
		}
	}

	if err := client.ActivateScene(ctx, "studio"); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown scene, got %v", err)
	}
}

func TestClientStatus(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)

	snapshot, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if snapshot.Version != "0.4.2" {
		t.Fatalf("unexpected version: %s", snapshot.Version)
	}
	if snapshot.UptimeSeconds < 0 {
		t.Fatalf("negative uptime: %f", snapshot.UptimeSeconds)
	}
	if len(snapshot.Devices) != 3 {
		t.Fatalf("expected 3 device rows, got %d", len(snapshot.Devices))
	}
	if snapshot.ArtNet.Universes != 2 || snapshot.ArtNet.PacketsPerSecond != 44.0 {
		t.Fatalf("unexpected artnet stats: %+v", snapshot.ArtNet)
	}
}

func TestClientQueryLogsPaging(t *testing.T) {
	t.Parallel()
	client, srv := newTestClient(t)
	srv.SeedLogs(120)
	ctx := context.Background()

	page, err := client.QueryLogs(ctx, api.LogQuery{Page: 0, PageSize: 50})
	if err != nil {
		t.Fatalf("QueryLogs failed: %v", err)
	}
	if len(page.Entries) != 50 || page.Page != 0 || page.TotalPages != 3 {
		t.Fatalf("unexpected first page: %d entries, page %d/%d", len(page.Entries), page.Page, page.TotalPages)
	}
	if !page.HasNext || page.HasPrev {
		t.Fatalf("unexpected pagination flags: %+v", page)
	}
	if page.Entries[0].Message != "event 0" {
		t.Fatalf("unexpected first entry: %+v", page.Entries[0])
	}

	page, err = client.QueryLogs(ctx, api.LogQuery{Page: 2, PageSize: 50})
	if err != nil {
		t.Fatalf("QueryLogs last page failed: %v", err)
	}
	if len(page.Entries) != 20 || page.HasNext || !page.HasPrev {
		t.Fatalf("unexpected last page: %d entries, %+v", len(page.Entries), page)
	}

	// Pages past the end clamp to the last page.
	page, err = client.QueryLogs(ctx, api.LogQuery{Page: 9, PageSize: 50})
	if err != nil {
		t.Fatalf("QueryLogs clamped page failed: %v", err)
	}
	if page.Page != 2 {
		t.Fatalf("expected clamp to page 2, got %d", page.Page)
	}
}

func TestClientQueryLogsEmptyStore(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)

	page, err := client.QueryLogs(context.Background(), api.LogQuery{Page: 0, PageSize: 50})
	if err != nil {
		t.Fatalf("QueryLogs failed: %v", err)
	}
	if len(page.Entries) != 0 || page.TotalPages != 1 || page.HasNext || page.HasPrev {
		t.Fatalf("unexpected empty page: %+v", page)
	}
}

func TestClientQueryLogsFilters(t *testing.T) {
	t.Parallel()
	client, srv := newTestClient(t)
	srv.SeedLogs(120)
	ctx := context.Background()

	page, err := client.QueryLogs(ctx, api.LogQuery{PageSize: 200, Level: "error"})
	if err != nil {
		t.Fatalf("QueryLogs by level failed: %v", err)
	}
	if len(page.Entries) != 24 {
		t.Fatalf("expected 24 error entries, got %d", len(page.Entries))
	}
	for _, e := range page.Entries {
		if e.Level != "error" {
			t.Fatalf("level filter leaked entry: %+v", e)
		}
	}

	page, err = client.QueryLogs(ctx, api.LogQuery{PageSize: 200, Logger: "artnet.server"})
	if err != nil {
		t.Fatalf("QueryLogs by logger failed: %v", err)
	}
	if len(page.Entries) != 24 {
		t.Fatalf("expected 24 artnet.server entries, got %d", len(page.Entries))
	}

	page, err = client.QueryLogs(ctx, api.LogQuery{PageSize: 200, Search: "event 99"})
	if err != nil {
		t.Fatalf("QueryLogs by search failed: %v", err)
	}
	if len(page.Entries) != 1 || page.Entries[0].Message != "event 99" {
		t.Fatalf("unexpected search result: %+v", page.Entries)
	}
}

func TestClientBridgeFailure(t *testing.T) {
	t.Parallel()
	client, srv := newTestClient(t)
	ctx := context.Background()

	srv.FailNext(1)
	_, err := client.Devices(ctx)
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != 500 || statusErr.Message != "injected failure" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
	if !strings.Contains(err.Error(), "bridge returned 500") {
		t.Fatalf("unexpected error string: %v", err)
	}

	// The injected failure is consumed; the next request goes through.
	if _, err := client.Devices(ctx); err != nil {
		t.Fatalf("Devices after failure failed: %v", err)
	}
}
