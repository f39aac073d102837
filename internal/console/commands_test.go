package console

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/dmxctl/internal/api"
	"github.com/tOgg1/dmxctl/internal/bridgetest"
	"github.com/tOgg1/dmxctl/internal/config"
	"github.com/tOgg1/dmxctl/internal/history"
	"github.com/tOgg1/dmxctl/internal/testutil"
)

func TestParseFlags(t *testing.T) {
	flags, rest, err := parseFlags([]string{"--level", "error", "--logger=artnet.server", "trailing"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"level": "error", "logger": "artnet.server"}, flags)
	require.Equal(t, []string{"trailing"}, rest)
}

func TestParseFlagsMissingValue(t *testing.T) {
	_, _, err := parseFlags([]string{"--level"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "flag --level requires a value")
}

func TestUnknownFlagFindsStray(t *testing.T) {
	require.Equal(t, "search", unknownFlag(map[string]string{"level": "x", "search": "y"}, "level", "logger"))
	require.Empty(t, unknownFlag(map[string]string{"level": "x"}, "level", "logger"))
}

func TestDeviceRefPrecedence(t *testing.T) {
	s, _ := newTestSession(t)

	ref, ok := s.deviceRef([]string{"dev-1"}, 0)
	require.True(t, ok)
	require.Equal(t, "dev-1", ref)

	_, ok = s.deviceRef(nil, 0)
	require.False(t, ok)

	s.device = "dev-default"
	ref, ok = s.deviceRef(nil, 0)
	require.True(t, ok)
	require.Equal(t, "dev-default", ref)

	// Explicit argument wins over the default.
	ref, ok = s.deviceRef([]string{"kitchen", "80"}, 1)
	require.True(t, ok)
	require.Equal(t, "kitchen", ref)

	ref, ok = s.deviceRef([]string{"80"}, 1)
	require.True(t, ok)
	require.Equal(t, "dev-default", ref)

	_, ok = s.deviceRef([]string{"a", "b", "c"}, 1)
	require.False(t, ok)
}

func TestHelpTextListsEveryCommand(t *testing.T) {
	s, _ := newTestSession(t)

	text := s.commands.helpText()
	for _, c := range s.commands.order {
		require.Contains(t, text, c.usage)
	}
	require.Contains(t, text, "Keys: PgUp/PgDn scroll")
}

func TestQuitAliasResolvesToExit(t *testing.T) {
	s, _ := newTestSession(t)

	cmd := s.commands.execute(s, "quit")
	require.NotNil(t, cmd)
	require.True(t, s.quitting)
}

func TestLogsViewCommandEntersModeWithQuery(t *testing.T) {
	s, _ := newTestSession(t)

	s.input.SetValue("logs view --level WARNING --logger scene.engine --search apply --page 3")
	s = applyUpdate(t, s, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, ModeLogView, s.Mode())
	ctrl, ok := s.active.(*LogViewController)
	require.True(t, ok)
	require.Equal(t, 2, ctrl.page)
	require.Equal(t, "warning", ctrl.levelFilter)
	require.Equal(t, "scene.engine", ctrl.loggerFilter)
	require.Equal(t, "apply", ctrl.searchPattern)
}

func TestLogsViewRejectsBadPage(t *testing.T) {
	s, _ := newTestSession(t)

	s.input.SetValue("logs view --page 0")
	s = applyUpdate(t, s, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ModeNormal, s.Mode())
	require.Contains(t, s.Output().String(), "--page takes a page number starting at 1.")
}

func TestLogsCommandRejectsUnknownFlagAndSubcommand(t *testing.T) {
	s, _ := newTestSession(t)

	s.input.SetValue("logs tail --search boom")
	s = applyUpdate(t, s, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ModeNormal, s.Mode())
	require.Contains(t, s.Output().String(), "Unknown flag --search")

	s.input.SetValue("logs dump")
	s = applyUpdate(t, s, tea.KeyMsg{Type: tea.KeyEnter})
	require.Contains(t, s.Output().String(), "Usage: logs tail")
}

func TestAmbiguousDeviceReferenceIsReported(t *testing.T) {
	s, _ := newTestSession(t)

	// Every fixture device ID starts with "dev".
	s.input.SetValue("on dev")
	s = applyUpdateWithCmd(t, s, tea.KeyMsg{Type: tea.KeyEnter})
	require.Contains(t, s.Output().String(), `"dev" is ambiguous`)
}

func TestColorCommandAppliesToResolvedDevice(t *testing.T) {
	s, srv := newTestSession(t)

	s.input.SetValue("color kitchen #00ff00")
	s = applyUpdateWithCmd(t, s, tea.KeyMsg{Type: tea.KeyEnter})
	require.Contains(t, s.Output().String(), "Set Kitchen Strip to #00ff00.")

	d, ok := srv.Device("dev-kitchen-strip")
	require.True(t, ok)
	require.Equal(t, "#00ff00", d.Color)
}

func TestUseCommandPersistsDefaultDevice(t *testing.T) {
	testutil.SkipIfNoNetwork(t)
	srv := bridgetest.NewServer()
	t.Cleanup(srv.Close)
	store := config.NewContextStore(filepath.Join(t.TempDir(), "context.yaml"))

	s, err := New(Config{Client: api.New(srv.URL(), 2*time.Second), Contexts: store})
	require.NoError(t, err)

	s.input.SetValue("use kitchen")
	s = applyUpdateWithCmd(t, s, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, "dev-kitchen-strip", s.device)
	require.Contains(t, s.Output().String(), "Default device: Kitchen Strip (dev-kitchen-strip)")

	cx, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "dev-kitchen-strip", cx.DeviceID)

	// A fresh session picks the persisted default back up.
	s2, err := New(Config{Client: api.New(srv.URL(), 2*time.Second), Contexts: store})
	require.NoError(t, err)
	require.Equal(t, "dev-kitchen-strip", s2.device)
}

func TestUseCommandShowsCurrentDefault(t *testing.T) {
	s, _ := newTestSession(t)

	s.input.SetValue("use")
	s = applyUpdate(t, s, tea.KeyMsg{Type: tea.KeyEnter})
	require.Contains(t, s.Output().String(), "No default device set.")

	s.device = "dev-desk-bar"
	s.input.SetValue("use")
	s = applyUpdate(t, s, tea.KeyMsg{Type: tea.KeyEnter})
	require.Contains(t, s.Output().String(), "Default device: dev-desk-bar")
}

func TestHistoryCommandReadsStore(t *testing.T) {
	testutil.SkipIfNoNetwork(t)
	srv := bridgetest.NewServer()
	t.Cleanup(srv.Close)

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "devices"))
	require.NoError(t, store.Append(ctx, "scene evening"))

	s, err := New(Config{Client: api.New(srv.URL(), 2*time.Second), History: store})
	require.NoError(t, err)

	s.input.SetValue("history")
	s = applyUpdateWithCmd(t, s, tea.KeyMsg{Type: tea.KeyEnter})

	out := s.Output().String()
	require.Contains(t, out, "devices")
	require.Contains(t, out, "scene evening")
}

func TestHistoryCommandWithoutStore(t *testing.T) {
	s, _ := newTestSession(t)

	s.input.SetValue("history")
	s = applyUpdate(t, s, tea.KeyMsg{Type: tea.KeyEnter})
	require.Contains(t, s.Output().String(), "History persistence is disabled.")
}
