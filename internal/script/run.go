package script

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/specialistvlad/ctybind/internal/ctxlog"
	"github.com/specialistvlad/ctybind/internal/host"
	"github.com/zclconf/go-cty/cty"
)

const selfVar = "self"

// runner holds the state of one script run.
type runner struct {
	host *host.Host
	ectx *hcl.EvalContext
	lets map[string]cty.Value
}

// Run declares the script's subclasses on h, evaluates its let values in
// dependency order and returns the outputs in declaration order.
func Run(ctx context.Context, h *host.Host, s *Script) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Script run started.", "lets", len(s.Lets), "subclasses", len(s.Subclasses), "outputs", len(s.Outputs))

	r := &runner{host: h, lets: make(map[string]cty.Value, len(s.Lets))}
	for _, sc := range s.Subclasses {
		if err := r.declare(ctx, sc); err != nil {
			return nil, err
		}
	}
	// Built after the subclasses so their constructors are callable.
	r.ectx = h.EvalContext(ctx)

	g, err := buildLetGraph(ctx, s.Lets)
	if err != nil {
		return nil, fmt.Errorf("failed to order let values: %w", err)
	}
	if err := g.DetectCycles(); err != nil {
		return nil, fmt.Errorf("failed to order let values: %w", err)
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to order let values: %w", err)
	}

	byID := make(map[string]*Let, len(s.Lets))
	for _, l := range s.Lets {
		byID[letNodeID(l.Name)] = l
	}
	for _, id := range order {
		l := byID[id]
		v, diags := l.Expr.Value(r.child(nil))
		if diags.HasErrors() {
			return nil, fmt.Errorf("let %q: %w", l.Name, diags)
		}
		r.lets[l.Name] = v
		logger.Debug("Evaluated let value.", "name", l.Name, "type", v.Type().FriendlyName())
	}

	res := &Result{Lets: r.lets}
	for _, o := range s.Outputs {
		v, diags := o.Expr.Value(r.child(nil))
		if diags.HasErrors() {
			return nil, fmt.Errorf("output %q: %w", o.Name, diags)
		}
		res.Outputs = append(res.Outputs, Value{Name: o.Name, Value: v})
	}

	logger.Info("Script run finished.", "lets", len(r.lets), "outputs", len(res.Outputs))
	return res, nil
}

// child returns an evaluation scope with the let values evaluated so far
// and the given extra variables.
func (r *runner) child(vars map[string]cty.Value) *hcl.EvalContext {
	lets := make(map[string]cty.Value, len(r.lets))
	for k, v := range r.lets {
		lets[k] = v
	}
	scope := map[string]cty.Value{letRoot: cty.ObjectVal(lets)}
	for k, v := range vars {
		scope[k] = v
	}
	c := r.ectx.NewChild()
	c.Variables = scope
	return c
}

// declare registers a subclass block as a script class on the host.
func (r *runner) declare(ctx context.Context, sc *Subclass) error {
	parent, ok := r.host.ClassByName(sc.Extends)
	if !ok {
		return &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unknown base class",
			Detail:   fmt.Sprintf("subclass %q extends %q, which is not a registered class.", sc.Name, sc.Extends),
			Subject:  sc.DeclRange.Ptr(),
		}
	}

	methods := make(map[string]bind.OverrideFunc, len(sc.Methods))
	for _, m := range sc.Methods {
		for _, p := range m.Params {
			if p == selfVar || p == letRoot {
				return &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Reserved parameter name",
					Detail:   fmt.Sprintf("method %s.%s cannot name a parameter %q.", sc.Name, m.Name, p),
					Subject:  m.DeclRange.Ptr(),
				}
			}
		}
		methods[m.Name] = r.method(sc.Name, m)
	}

	cls, err := bind.NewScriptClass(sc.Name, sc.Doc, parent, methods)
	if err != nil {
		return fmt.Errorf("subclass %q: %w", sc.Name, err)
	}
	if err := r.host.DeclareClass(cls); err != nil {
		return fmt.Errorf("subclass %q: %w", sc.Name, err)
	}
	ctxlog.FromContext(ctx).Debug("Declared script class.", "name", sc.Name, "extends", parent.QualifiedName(), "methods", len(methods))
	return nil
}

// method turns a method block into an override evaluated with its params,
// self and the let values in scope.
func (r *runner) method(class string, m *Method) bind.OverrideFunc {
	return func(ctx context.Context, self *bind.Object, args []cty.Value) (cty.Value, error) {
		if len(args) != len(m.Params) {
			return cty.NilVal, fmt.Errorf("%w: %s.%s() takes %d arguments (%d given)", bind.ErrArgumentCount, class, m.Name, len(m.Params), len(args))
		}
		vars := make(map[string]cty.Value, len(args)+1)
		vars[selfVar] = self.CtyValue()
		for i, p := range m.Params {
			vars[p] = args[i]
		}
		v, diags := m.Result.Value(r.child(vars))
		if diags.HasErrors() {
			return cty.NilVal, diags
		}
		return v, nil
	}
}
