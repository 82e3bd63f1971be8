package script

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/ctybind/internal/ctxlog"
	"github.com/specialistvlad/ctybind/internal/dag"
	"github.com/zclconf/go-cty/cty"
)

const letRoot = "let"

func letNodeID(name string) string { return letRoot + "." + name }

// parseLetTraversal extracts the name from a `let.<name>` or
// `let["<name>"]` traversal.
func parseLetTraversal(traversal hcl.Traversal) (string, bool) {
	if len(traversal) < 2 || traversal.RootName() != letRoot {
		return "", false
	}
	switch step := traversal[1].(type) {
	case hcl.TraverseAttr:
		return step.Name, true
	case hcl.TraverseIndex:
		if step.Key.Type() == cty.String && step.Key.IsKnown() && !step.Key.IsNull() {
			return step.Key.AsString(), true
		}
	}
	return "", false
}

// buildLetGraph links every let block to the let values its expression
// refers to.
func buildLetGraph(ctx context.Context, lets []*Let) (*dag.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	g := dag.New()
	for _, l := range lets {
		g.AddNode(letNodeID(l.Name))
	}

	var diags hcl.Diagnostics
	for _, l := range lets {
		id := letNodeID(l.Name)
		for _, traversal := range l.Expr.Variables() {
			name, ok := parseLetTraversal(traversal)
			if !ok {
				continue
			}
			depID := letNodeID(name)
			if !g.Has(depID) {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Reference to undeclared let value",
					Detail:   fmt.Sprintf("let %q refers to let.%s, which is not declared.", l.Name, name),
					Subject:  traversal.SourceRange().Ptr(),
				})
				continue
			}
			if depID == id {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Self-referencing let value",
					Detail:   fmt.Sprintf("let %q refers to itself.", l.Name),
					Subject:  traversal.SourceRange().Ptr(),
				})
				continue
			}
			logger.Debug("Linking implicit dependency.", "from", depID, "to", id)
			if err := g.AddEdge(depID, id); err != nil {
				return nil, err
			}
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return g, nil
}
