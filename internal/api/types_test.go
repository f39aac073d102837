package api

import "testing"

func TestLogFilterMatches(t *testing.T) {
	t.Parallel()
	entry := LogEntry{Level: "WARNING", Logger: "artnet.server", Message: "slow frame"}

	tests := []struct {
		name   string
		filter LogFilter
		want   bool
	}{
		{name: "empty matches all", filter: LogFilter{}, want: true},
		{name: "level ignores case", filter: LogFilter{Level: "warning"}, want: true},
		{name: "level mismatch", filter: LogFilter{Level: "error"}, want: false},
		{name: "logger exact", filter: LogFilter{Logger: "artnet.server"}, want: true},
		{name: "logger is case sensitive", filter: LogFilter{Logger: "Artnet.Server"}, want: false},
		{name: "both must match", filter: LogFilter{Level: "warning", Logger: "device.registry"}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(entry); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidHexColor(t *testing.T) {
	t.Parallel()
	valid := []string{"#000000", "#ffffff", "#FFCC88", "#0a1B2c"}
	for _, s := range valid {
		if !validHexColor(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	invalid := []string{"", "#fff", "ffffff", "#gggggg", "#12345", "#1234567", "1234567"}
	for _, s := range invalid {
		if validHexColor(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
