package api

import (
	"context"
	"fmt"
	"strings"
)

// ResolveDevice accepts a device ID, an exact name, or a unique name or
// ID prefix, case-insensitively.
func ResolveDevice(ctx context.Context, client *Client, ref string) (Device, error) {
	devices, err := client.Devices(ctx)
	if err != nil {
		return Device{}, fmt.Errorf("listing devices: %w", err)
	}
	for _, d := range devices {
		if d.ID == ref {
			return d, nil
		}
	}
	for _, d := range devices {
		if strings.EqualFold(d.Name, ref) {
			return d, nil
		}
	}

	var matches []Device
	low := strings.ToLower(ref)
	for _, d := range devices {
		if strings.HasPrefix(strings.ToLower(d.Name), low) || strings.HasPrefix(strings.ToLower(d.ID), low) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Device{}, fmt.Errorf("no device matches %q", ref)
	default:
		names := make([]string, len(matches))
		for i, d := range matches {
			names[i] = d.Name
		}
		return Device{}, fmt.Errorf("%q is ambiguous: %s", ref, strings.Join(names, ", "))
	}
}
