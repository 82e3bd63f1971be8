package script

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot decodes all top-level blocks of a script file.
type fileRoot struct {
	Lets       []*letBlock      `hcl:"let,block"`
	Subclasses []*subclassBlock `hcl:"subclass,block"`
	Outputs    []*outputBlock   `hcl:"output,block"`
}

// Required arguments are decoded as attributes; decode reports the
// missing ones.
type letBlock struct {
	Name  string         `hcl:"name,label"`
	Value *hcl.Attribute `hcl:"value"`
}

type subclassBlock struct {
	Name    string         `hcl:"name,label"`
	Extends *hcl.Attribute `hcl:"extends"`
	Doc     *string        `hcl:"doc"`
	Methods []*methodBlock `hcl:"method,block"`
}

type methodBlock struct {
	Name   string         `hcl:"name,label"`
	Params []string       `hcl:"params,optional"`
	Result *hcl.Attribute `hcl:"result"`
}

type outputBlock struct {
	Name  string         `hcl:"name,label"`
	Value *hcl.Attribute `hcl:"value"`
}

// Script is the merged content of one or more script files.
type Script struct {
	Files      []string
	Lets       []*Let
	Subclasses []*Subclass
	Outputs    []*Output
}

// Let is a named value other blocks can reference as let.<name>.
type Let struct {
	Name      string
	Expr      hcl.Expression
	DeclRange hcl.Range
}

// Subclass declares a script class deriving from a subclassable class.
type Subclass struct {
	Name      string
	Extends   string
	Doc       string
	Methods   []*Method
	DeclRange hcl.Range
}

// Method is a script method body. Params are bound positionally.
type Method struct {
	Name      string
	Params    []string
	Result    hcl.Expression
	DeclRange hcl.Range
}

// Output is a value reported after the run.
type Output struct {
	Name      string
	Expr      hcl.Expression
	DeclRange hcl.Range
}

// Value is an evaluated output.
type Value struct {
	Name  string
	Value cty.Value
}

// Result holds everything a run produced.
type Result struct {
	Lets    map[string]cty.Value
	Outputs []Value
}

// Output returns the value of the named output.
func (r *Result) Output(name string) (cty.Value, bool) {
	for _, o := range r.Outputs {
		if o.Name == name {
			return o.Value, true
		}
	}
	return cty.NilVal, false
}
