package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/ctybind/internal/ctxlog"
	"github.com/specialistvlad/ctybind/internal/fsutil"
)

// Extension is the file extension of script files.
const Extension = ".hcl"

// Load parses every script file found under paths. Directories are
// searched recursively; missing paths are an error.
func Load(ctx context.Context, paths ...string) (*Script, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Script loader started.", "path_count", len(paths))

	files, err := findScriptFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %v", Extension, paths)
	}
	logger.Debug("Discovered script files.", "count", len(files))

	parser := hclparse.NewParser()
	s := &Script{}
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse script file %s: %w", file, diags)
		}
		if err := s.decode(file, f.Body); err != nil {
			return nil, err
		}
	}
	if err := s.validate(); err != nil {
		return nil, err
	}

	logger.Info("Script loaded.", "files", len(s.Files), "lets", len(s.Lets), "subclasses", len(s.Subclasses), "outputs", len(s.Outputs))
	return s, nil
}

// Parse parses a single script held in memory.
func Parse(ctx context.Context, filename string, src []byte) (*Script, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse script %s: %w", filename, diags)
	}
	s := &Script{}
	if err := s.decode(filename, f.Body); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Script parsed.", "file", filename, "lets", len(s.Lets))
	return s, nil
}

func (s *Script) decode(file string, body hcl.Body) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode script file %s: %w", file, diags)
	}

	var diags hcl.Diagnostics
	required := func(attr *hcl.Attribute, name, block, label string) bool {
		if attr != nil {
			return true
		}
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing required argument",
			Detail:   fmt.Sprintf("The argument %q is required in %s %q, but no definition was found.", name, block, label),
			Subject:  body.MissingItemRange().Ptr(),
		})
		return false
	}

	var (
		lets       []*Let
		subclasses []*Subclass
		outputs    []*Output
	)
	for _, b := range root.Lets {
		if required(b.Value, "value", "let", b.Name) {
			lets = append(lets, &Let{Name: b.Name, Expr: b.Value.Expr, DeclRange: b.Value.Expr.Range()})
		}
	}
	for _, b := range root.Subclasses {
		if !required(b.Extends, "extends", "subclass", b.Name) {
			continue
		}
		var extends string
		if d := gohcl.DecodeExpression(b.Extends.Expr, nil, &extends); d.HasErrors() {
			return fmt.Errorf("subclass %q: %w", b.Name, d)
		}
		sc := &Subclass{Name: b.Name, Extends: extends, DeclRange: b.Extends.Expr.Range()}
		if b.Doc != nil {
			sc.Doc = *b.Doc
		}
		for _, m := range b.Methods {
			if required(m.Result, "result", "method", m.Name) {
				sc.Methods = append(sc.Methods, &Method{Name: m.Name, Params: m.Params, Result: m.Result.Expr, DeclRange: m.Result.Expr.Range()})
			}
		}
		subclasses = append(subclasses, sc)
	}
	for _, b := range root.Outputs {
		if required(b.Value, "value", "output", b.Name) {
			outputs = append(outputs, &Output{Name: b.Name, Expr: b.Value.Expr, DeclRange: b.Value.Expr.Range()})
		}
	}
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode script file %s: %w", file, diags)
	}

	s.Files = append(s.Files, file)
	s.Lets = append(s.Lets, lets...)
	s.Subclasses = append(s.Subclasses, subclasses...)
	s.Outputs = append(s.Outputs, outputs...)
	return nil
}

// validate reports duplicate block names across all files.
func (s *Script) validate() error {
	var diags hcl.Diagnostics
	dup := func(kind, name string, rng hcl.Range, seen map[string]hcl.Range) {
		if prev, ok := seen[name]; ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Duplicate %s block", kind),
				Detail:   fmt.Sprintf("A %s named %q was already declared at %s.", kind, name, prev),
				Subject:  rng.Ptr(),
			})
			return
		}
		seen[name] = rng
	}

	lets := make(map[string]hcl.Range)
	for _, l := range s.Lets {
		dup("let", l.Name, l.DeclRange, lets)
	}
	classes := make(map[string]hcl.Range)
	for _, c := range s.Subclasses {
		dup("subclass", c.Name, c.DeclRange, classes)
		methods := make(map[string]hcl.Range)
		for _, m := range c.Methods {
			dup("method", m.Name, m.DeclRange, methods)
		}
	}
	outputs := make(map[string]hcl.Range)
	for _, o := range s.Outputs {
		dup("output", o.Name, o.DeclRange, outputs)
	}

	if diags.HasErrors() {
		return diags
	}
	return nil
}

// findScriptFiles expands paths into a de-duplicated list of script files.
func findScriptFiles(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			files = append(files, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, Extension)
		if err != nil {
			return nil, fmt.Errorf("error walking %s: %w", path, err)
		}
		for _, f := range found {
			add(filepath.Clean(f))
		}
	}
	return files, nil
}
