package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/specialistvlad/ctybind/internal/app"
	"github.com/specialistvlad/ctybind/internal/registry"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcomes of an end-to-end run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
}

// HarnessOption adjusts the app configuration before startup.
type HarnessOption func(*app.Config)

// WithShelf sets the shelf path.
func WithShelf(path string) HarnessOption {
	return func(c *app.Config) { c.ShelfPath = path }
}

// WithPickleFormat sets the default pickle format.
func WithPickleFormat(format string) HarnessOption {
	return func(c *app.Config) { c.PickleFormat = format }
}

// RunScript writes files into a temporary directory and runs the app on
// it. Startup panics are returned as errors.
func RunScript(t *testing.T, files map[string]string, opts ...HarnessOption) *HarnessResult {
	t.Helper()
	return RunScriptWithModules(t, files, nil, opts...)
}

// RunScriptWithModules is RunScript with an explicit module list; nil
// means the modules compiled into the binary.
func RunScriptWithModules(t *testing.T, files map[string]string, modules []registry.Module, opts ...HarnessOption) *HarnessResult {
	t.Helper()

	dir := WriteFiles(t, files)
	cfg, err := app.NewConfig(app.Config{ScriptPath: dir, LogLevel: "debug", LogFormat: "text"})
	require.NoError(t, err)
	for _, opt := range opts {
		opt(cfg)
	}

	out := &SafeBuffer{}
	logs := &SafeBuffer{}
	dumpLogs(t, logs)

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(out, logs, cfg, modules...)
	}()
	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logs.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}
	t.Cleanup(func() { _ = testApp.Close() })

	runErr := testApp.Run(context.Background())
	return &HarnessResult{
		Output:    out.String(),
		LogOutput: logs.String(),
		Err:       runErr,
		App:       testApp,
	}
}
