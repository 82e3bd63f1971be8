package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/ctybind/internal/ctxlog"
)

// ValidateRegistry checks that the bound classes agree with each other:
// parents are registered, downcast identities name registered classes,
// derived Go values reach their parent and enums have members.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.ClassNames() {
		c := r.byName[name]

		if p := c.Parent(); p != nil {
			if registered, ok := r.byName[p.QualifiedName()]; !ok || registered != p {
				errs = append(errs, fmt.Sprintf("class '%s': base class '%s' is not registered", name, p.QualifiedName()))
			} else if !c.HasUpcast() && !reachesParent(c.GoType, p.GoType) {
				errs = append(errs, fmt.Sprintf("class '%s': Go type %s is not assignable to base %s and no upcast is set", name, c.GoType, p.GoType))
			}
		}

		if hook := c.DowncastHook(); hook != nil {
			if string(hook.BaseIdentity()) != name {
				errs = append(errs, fmt.Sprintf("class '%s': downcast base identity is '%s'", name, hook.BaseIdentity()))
			}
			for _, id := range hook.Identities() {
				if _, ok := r.byName[string(id)]; !ok {
					errs = append(errs, fmt.Sprintf("class '%s': downcast identity '%s' is not a registered class", name, id))
				}
			}
		}

		if c.IsEnum() && len(c.EnumMembers()) == 0 {
			errs = append(errs, fmt.Sprintf("enum '%s' has no members", name))
		}

		if !c.IsEnum() && c.Constructor() == nil && !c.Subclassable() {
			logger.Debug("Class has no constructor; scripts can only receive it from Go.", "class", name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func reachesParent(t, parent reflect.Type) bool {
	if t.AssignableTo(parent) {
		return true
	}
	return t.Kind() == reflect.Ptr && t.Elem().AssignableTo(parent)
}
