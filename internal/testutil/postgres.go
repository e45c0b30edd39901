package testutil

import (
	"net"
	"net/url"
	"os"
	"testing"
)

// RequirePostgres skips the test unless TEST_DATABASE_URL is set and its
// host accepts TCP connections. It returns the connection string.
func RequirePostgres(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database test")
	}

	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		t.Skipf("TEST_DATABASE_URL is not a URL with a host: %v", err)
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "5432")
	}
	requireReachable(t, "database", host)
	return dsn
}
