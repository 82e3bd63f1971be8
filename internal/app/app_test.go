package app_test

import (
	"path/filepath"
	"testing"

	"github.com/specialistvlad/ctybind/internal/registry"
	"github.com/specialistvlad/ctybind/internal/testutil"
	"github.com/specialistvlad/ctybind/modules/example"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_Run(t *testing.T) {
	t.Parallel()

	res := testutil.RunScript(t, map[string]string{
		"a.hcl": `
let "pet" { value = example::Pet("Molly") }
let "printed" { value = example2::print_dict({ a = 1, b = "x" }) }
output "name" { value = call(let.pet, "getName") }
`,
		"b.hcl": `
output "pet"    { value = let.pet }
output "answer" { value = example.the_answer }
`,
	})

	require.NoError(t, res.Err)
	assert.Equal(t, "key= a,value= 1\nkey= b,value= x\n"+
		"name = Molly\n"+
		"pet = <example.Pet named 'Molly'>\n"+
		"answer = 42\n", res.Output)
	assert.Contains(t, res.LogOutput, "Script loaded.")
	assert.Contains(t, res.LogOutput, "Script run finished.")
	require.NotNil(t, res.App.Registry())
	require.NotNil(t, res.App.Host())
}

func TestApp_Run_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		files   map[string]string
		wantErr []string
	}{
		{
			name:    "no scripts",
			files:   map[string]string{"notes.txt": "nothing here"},
			wantErr: []string{"failed to load script", "no .hcl files found"},
		},
		{
			name:    "failing output",
			files:   map[string]string{"main.hcl": `output "x" { value = example::add("a", 1) }`},
			wantErr: []string{"script failed", `output "x"`},
		},
		{
			name:    "cycle",
			files:   map[string]string{"main.hcl": "let \"a\" { value = let.b }\nlet \"b\" { value = let.a }\n"},
			wantErr: []string{"script failed", "cycle detected"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := testutil.RunScript(t, tc.files)
			require.Error(t, res.Err)
			for _, want := range tc.wantErr {
				assert.Contains(t, res.Err.Error(), want)
			}
		})
	}
}

func TestApp_ShelfPersistsAcrossRuns(t *testing.T) {
	t.Parallel()
	shelfPath := filepath.Join(t.TempDir(), "shelf.db")

	first := testutil.RunScript(t, map[string]string{"main.hcl": `
let "p" { value = example3::Pickleable("kept") }
output "key" { value = shelve_put("p", let.p) }
`}, testutil.WithShelf(shelfPath), testutil.WithPickleFormat("msgpack"))
	require.NoError(t, first.Err)
	assert.Equal(t, "key = p\n", first.Output)

	second := testutil.RunScript(t, map[string]string{"main.hcl": `
output "keys"  { value = shelve_keys() }
output "value" { value = call(shelve_get("p"), "value") }
`}, testutil.WithShelf(shelfPath))
	require.NoError(t, second.Err)
	assert.Equal(t, "keys = ['p']\nvalue = kept\n", second.Output)
}

func TestApp_PickleFormat(t *testing.T) {
	t.Parallel()

	res := testutil.RunScript(t, map[string]string{"main.hcl": `
output "pickled" { value = pickle(example3::Pickleable("v")) }
`}, testutil.WithPickleFormat("yaml"))
	require.NoError(t, res.Err)
	assert.Contains(t, res.Output, "format: yaml")
	assert.Contains(t, res.Output, "class: example3::Pickleable")
}

func TestApp_StartupFailure(t *testing.T) {
	t.Parallel()

	res := testutil.RunScript(t, map[string]string{"main.hcl": `output "x" { value = 1 }`},
		testutil.WithShelf(filepath.Join(t.TempDir(), "missing", "dir", "shelf.db")))
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "application startup panicked")
	assert.Contains(t, res.Err.Error(), "failed to open shelf")
	assert.Nil(t, res.App)
}

func TestApp_ExplicitModules(t *testing.T) {
	t.Parallel()

	res := testutil.RunScriptWithModules(t, map[string]string{"main.hcl": `
output "sum" { value = example::add(2, 3) }
output "cat" { value = example3::make_cat() }
`}, []registry.Module{&example.Module{}})
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), `no functions in namespace "example3::"`)

	_, ok := res.App.Registry().Module("example3")
	assert.False(t, ok)
}
