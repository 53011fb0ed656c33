package testutil

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"bingo-live/internal/config"
	"bingo-live/internal/store"
)

var testSchemaNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// OpenTestStore opens a Postgres store in a throwaway schema so tests
// can run against a shared database without stepping on each other.
// Skips the test when TEST_POSTGRES_DSN is not set.
func OpenTestStore(t *testing.T) (*store.Postgres, func()) {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	dsn := cfg.TestPostgresDSN
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())
	if !testSchemaNamePattern.MatchString(schema) {
		t.Fatalf("schema %q does not match required pattern", schema)
	}

	admin, err := store.NewPostgres(dsn)
	if err != nil {
		t.Fatalf("open base db: %v", err)
	}
	if _, err := admin.DB.ExecContext(context.Background(), "CREATE SCHEMA "+schema); err != nil {
		_ = admin.Close()
		t.Fatalf("create schema: %v", err)
	}
	_ = admin.Close()

	st, err := store.NewPostgres(withSearchPath(dsn, schema))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.EnsureSchema(context.Background()); err != nil {
		_ = st.Close()
		t.Fatalf("apply schema: %v", err)
	}

	cleanup := func() {
		_ = st.Close()
		admin, err := store.NewPostgres(dsn)
		if err == nil {
			_, _ = admin.DB.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
			_ = admin.Close()
		}
	}
	return st, cleanup
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}
