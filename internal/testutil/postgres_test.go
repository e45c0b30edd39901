package testutil

import (
	"net/http/httptest"
	"testing"
)

func TestRequirePostgres_NoURL(t *testing.T) {
	t.Setenv("TEST_DATABASE_URL", "")

	t.Run("sub", func(t *testing.T) {
		RequirePostgres(t)
		t.Fatal("expected skip")
	})
}

func TestRequirePostgres_Unreachable(t *testing.T) {
	t.Setenv("TEST_DATABASE_URL", "postgres://u:p@localhost:1/db")

	t.Run("sub", func(t *testing.T) {
		RequirePostgres(t)
		t.Fatal("expected skip")
	})
}

func TestRequirePostgres_Reachable(t *testing.T) {
	ts := httptest.NewServer(nil)
	defer ts.Close()

	dsn := "postgres://u:p@" + ts.Listener.Addr().String() + "/db"
	t.Setenv("TEST_DATABASE_URL", dsn)

	t.Run("sub", func(t *testing.T) {
		if got := RequirePostgres(t); got != dsn {
			t.Fatalf("expected %q, got %q", dsn, got)
		}
	})
}
