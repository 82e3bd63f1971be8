package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/specialistvlad/ctybind/internal/ctxlog"
	"github.com/specialistvlad/ctybind/internal/script"
)

// Run loads the configured script, runs it and prints its outputs.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	ctx = bind.WithOutput(ctx, a.outW)
	a.logger.Debug("App.Run method started.", "script", a.config.ScriptPath)

	s, err := script.Load(ctx, a.config.ScriptPath)
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}

	res, err := script.Run(ctx, a.host, s)
	if err != nil {
		return fmt.Errorf("script failed: %w", err)
	}

	for _, out := range res.Outputs {
		text, err := bind.Str(ctx, a.host.Converter(), out.Value)
		if err != nil {
			return fmt.Errorf("output %q: %w", out.Name, err)
		}
		fmt.Fprintf(a.outW, "%s = %s\n", out.Name, text)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
