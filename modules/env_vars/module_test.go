package env_vars_test

import (
	"testing"

	"github.com/specialistvlad/ctybind/internal/testutil"
	"github.com/specialistvlad/ctybind/modules/env_vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvVars(t *testing.T) {
	t.Setenv("CTYBIND_TEST_VAR", "a=b")

	assert.Equal(t, "a=b", env_vars.All()["CTYBIND_TEST_VAR"])
	assert.Equal(t, "a=b", env_vars.Get("CTYBIND_TEST_VAR", "x"))
	assert.Equal(t, "x", env_vars.Get("CTYBIND_TEST_UNSET", "x"))

	res := testutil.RunScript(t, map[string]string{"main.hcl": `
output "set"      { value = env_vars::get("CTYBIND_TEST_VAR") }
output "fallback" { value = kwcall("env_vars::get", ["CTYBIND_TEST_UNSET"], { fallback = "none" }) }
output "all"      { value = env_vars::all()["CTYBIND_TEST_VAR"] }
`})
	require.NoError(t, res.Err)
	assert.Equal(t, "set = a=b\nfallback = none\nall = a=b\n", res.Output)
}
