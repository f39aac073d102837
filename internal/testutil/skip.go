package testutil

import (
	"os"
	"testing"
)

// SkipIfNoNetwork skips the test if DMXCTL_TEST_SKIP_NETWORK is set.
// Use this for tests that bind loopback listeners (the in-process mock
// bridge), which may not be allowed in sandboxed environments.
func SkipIfNoNetwork(t *testing.T) {
	t.Helper()
	if os.Getenv("DMXCTL_TEST_SKIP_NETWORK") != "" {
		t.Skip("skipping network test: DMXCTL_TEST_SKIP_NETWORK is set")
	}
}
