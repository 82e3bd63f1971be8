// Package testutil holds helpers shared by the test suites: a log
// capturing context, script file fixtures and an end-to-end harness.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/specialistvlad/ctybind/internal/ctxlog"
)

// logsEnv makes the helpers print captured logs after each test.
const logsEnv = "CTYBIND_TEST_LOGS"

// Context returns a context carrying a debug logger that writes into the
// returned buffer.
func Context(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	dumpLogs(t, buf)
	return ctxlog.WithLogger(context.Background(), logger), buf
}

func dumpLogs(t *testing.T, buf *SafeBuffer) {
	t.Cleanup(func() {
		if os.Getenv(logsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), buf.String())
		}
	})
}
