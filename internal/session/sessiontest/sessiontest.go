// Package sessiontest opens migrated in-memory sqlite sessions for tests.
package sessiontest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

// Open returns a session on a fresh, migrated in-memory database. It is closed
// when the test ends.
func Open(t testing.TB) *session.Session {
	return OpenWithDialect(t, database.SQLite)
}

// OpenWithDialect is Open with a customised sqlite dialect, e.g. one with a
// SecurityContext statement.
func OpenWithDialect(t testing.TB, d database.Dialect) *session.Session {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t).Sugar()
	cfg := database.Config{Dialect: d, URL: ":memory:", MaxConns: 1, Timeout: 5 * time.Second}

	s, err := session.Open(ctx, cfg, "tester", "", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, database.Migrate(ctx, s.Executor(), d, logger))
	return s
}
