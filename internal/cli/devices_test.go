package cli

import (
	"testing"

	"github.com/tOgg1/dmxctl/internal/api"
)

func TestDeviceStateCell(t *testing.T) {
	tests := []struct {
		name   string
		device api.Device
		want   string
	}{
		{
			name:   "offline",
			device: api.Device{Online: false, Power: true, Brightness: 80},
			want:   "-",
		},
		{
			name:   "powered off",
			device: api.Device{Online: true, Power: false, Brightness: 80},
			want:   "off",
		},
		{
			name:   "powered on",
			device: api.Device{Online: true, Power: true, Brightness: 80, Color: "#ffcc88"},
			want:   "on 80% #ffcc88",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deviceStateCell(tt.device); got != tt.want {
				t.Fatalf("deviceStateCell() = %q, want %q", got, tt.want)
			}
		})
	}
}
