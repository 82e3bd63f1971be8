package registry

import (
	"context"

	"github.com/specialistvlad/ctybind/internal/ctxlog"
)

// Load registers every module and validates the result.
func (r *Registry) Load(ctx context.Context, modules []Module) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading modules...", "count", len(modules))

	for _, m := range modules {
		m.Register(r)
	}
	if err := r.ValidateRegistry(ctx); err != nil {
		logger.Error("Registry validation failed.", "error", err)
		return err
	}

	logger.Info("Registry loaded successfully.", "modules", len(r.order), "classes", len(r.byName))
	return nil
}
