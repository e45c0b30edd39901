// Package testutil holds helpers that gate integration tests on external
// services being reachable.
package testutil

import (
	"context"
	"net"
	"os"
	"testing"
	"time"
)

// EmulatorProjectID returns the project ID used for emulator tests.
const EmulatorProjectID = "demo-test-project"

// dialTimeout bounds the reachability check.
const dialTimeout = 2 * time.Second

// RequireEmulator skips the test if the Firestore emulator is not running.
// It checks the FIRESTORE_EMULATOR_HOST environment variable, verifies
// connectivity and returns the host.
func RequireEmulator(t *testing.T) string {
	t.Helper()

	host := os.Getenv("FIRESTORE_EMULATOR_HOST")
	if host == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set; skipping emulator test")
	}
	requireReachable(t, "Firestore emulator", host)
	return host
}

// requireReachable skips the test unless host accepts TCP connections.
func requireReachable(t *testing.T, name, host string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		t.Skipf("%s not reachable at %s: %v", name, host, err)
	}
	_ = conn.Close()
}
