package cli

import (
	"testing"
	"time"

	"github.com/tOgg1/dmxctl/internal/api"
)

func TestFormatLogLine(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 34, 56, 0, time.UTC)

	tests := []struct {
		name  string
		entry api.LogEntry
		want  string
	}{
		{
			name:  "long level fills the column",
			entry: api.LogEntry{Time: at, Level: "warning", Logger: "artnet.server", Message: "slow frame"},
			want:  "12:34:56 WARNING artnet.server      slow frame",
		},
		{
			name:  "short level pads",
			entry: api.LogEntry{Time: at, Level: "info", Logger: "http.api", Message: "request served"},
			want:  "12:34:56 INFO    http.api           request served",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLogLine(tt.entry); got != tt.want {
				t.Fatalf("formatLogLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
