package script_test

import (
	"path/filepath"
	"testing"

	"github.com/specialistvlad/ctybind/internal/script"
	"github.com/specialistvlad/ctybind/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Blocks(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)

	src := `
let "pet" { value = example::Pet("Molly") }

subclass "Cat" {
  extends = "example3::Animal"
  doc     = "A cat."
  method "go" {
    params = ["n"]
    result = join("", [for i in range(n) : "meow! "])
  }
  method "name" {
    result = "Kitty"
  }
}

output "name" { value = call(let.pet, "getName") }
`
	s, err := script.Parse(ctx, "main.hcl", []byte(src))
	require.NoError(t, err)

	require.Len(t, s.Lets, 1)
	assert.Equal(t, "pet", s.Lets[0].Name)

	require.Len(t, s.Subclasses, 1)
	cat := s.Subclasses[0]
	assert.Equal(t, "Cat", cat.Name)
	assert.Equal(t, "example3::Animal", cat.Extends)
	assert.Equal(t, "A cat.", cat.Doc)
	require.Len(t, cat.Methods, 2)
	assert.Equal(t, "go", cat.Methods[0].Name)
	assert.Equal(t, []string{"n"}, cat.Methods[0].Params)
	assert.Empty(t, cat.Methods[1].Params)

	require.Len(t, s.Outputs, 1)
	assert.Equal(t, "name", s.Outputs[0].Name)
	assert.Equal(t, []string{"main.hcl"}, s.Files)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "syntax error",
			src:     `let "x" { value = `,
			wantErr: "failed to parse script",
		},
		{
			name:    "unknown block type",
			src:     `step "x" {}`,
			wantErr: "failed to decode script file",
		},
		{
			name:    "let without value",
			src:     `let "x" {}`,
			wantErr: `Missing required argument; The argument "value" is required`,
		},
		{
			name:    "output without value",
			src:     `output "o" {}`,
			wantErr: `Missing required argument; The argument "value" is required`,
		},
		{
			name: "method without result",
			src: `
subclass "Cat" {
  extends = "example3::Animal"
  method "go" {}
}
`,
			wantErr: `Missing required argument; The argument "result" is required`,
		},
		{
			name:    "subclass without extends",
			src:     `subclass "Cat" {}`,
			wantErr: `Missing required argument; The argument "extends" is required`,
		},
		{
			name: "duplicate let",
			src: `
let "x" { value = 1 }
let "x" { value = 2 }
`,
			wantErr: "Duplicate let block",
		},
		{
			name: "duplicate method",
			src: `
subclass "Cat" {
  extends = "example3::Animal"
  method "go" { result = "a" }
  method "go" { result = "b" }
}
`,
			wantErr: "Duplicate method block",
		},
		{
			name:    "extends is not a string",
			src:     `subclass "Cat" { extends = [1] }`,
			wantErr: `subclass "Cat"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx, _ := testutil.Context(t)
			_, err := script.Parse(ctx, "main.hcl", []byte(tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_Directory(t *testing.T) {
	t.Parallel()
	ctx, logs := testutil.Context(t)

	dir := testutil.WriteFiles(t, map[string]string{
		"a.hcl":       `let "a" { value = 1 }`,
		"sub/b.hcl":   `let "b" { value = let.a }`,
		"sub/out.hcl": `output "b" { value = let.b }`,
		"notes.txt":   `not a script`,
	})

	s, err := script.Load(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, s.Files, 3)
	assert.Len(t, s.Lets, 2)
	assert.Len(t, s.Outputs, 1)
	assert.Contains(t, logs.String(), "Script loaded.")

	// The same file given twice is read once.
	file := filepath.Join(dir, "a.hcl")
	s, err = script.Load(ctx, file, file)
	require.NoError(t, err)
	assert.Len(t, s.Files, 1)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)

	_, err := script.Load(ctx, filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error accessing path")

	empty := testutil.WriteFiles(t, map[string]string{"readme.md": "# nothing"})
	_, err = script.Load(ctx, empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .hcl files found")

	dup := testutil.WriteFiles(t, map[string]string{
		"a.hcl": `output "x" { value = 1 }`,
		"b.hcl": `output "x" { value = 2 }`,
	})
	_, err = script.Load(ctx, dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Duplicate output block")
}
