package antjob

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	logger := zerolog.Nop()
	return WithLogger(context.Background(), &logger)
}

func TestExpandSubstitutesKnownVariables(t *testing.T) {
	result, err := Expand(`<echo message="${GREETING} world"/>`, map[string]string{"GREETING": "hello"})
	require.NoError(t, err)
	require.Equal(t, `<echo message="hello world"/>`, result)
}

func TestExpandFailsOnUnknownVariables(t *testing.T) {
	_, err := Expand("value is ${MISSING}", map[string]string{})
	require.Error(t, err)
}

func TestResolveFieldFallsBackToRawText(t *testing.T) {
	ctx := testContext()
	raw := "broken ${NOPE} reference"
	require.Equal(t, raw, resolveField(ctx, "script", raw, map[string]string{}))
}

func TestResolveFieldFailuresAreIndependent(t *testing.T) {
	ctx := testContext()
	vars := map[string]string{"GOOD": "fine"}

	require.Equal(t, "broken ${BAD}", resolveField(ctx, "script", "broken ${BAD}", vars))
	require.Equal(t, "fine", resolveField(ctx, "extendedScript", "${GOOD}", vars))
}

func TestMergeEnvOverridesWin(t *testing.T) {
	ambient := map[string]string{"FOO": "ambient", "KEEP": "yes"}
	merged := MergeEnv(ambient, map[string]string{"FOO": "build"})

	require.Equal(t, "build", merged["FOO"])
	require.Equal(t, "yes", merged["KEEP"])
	require.Equal(t, "ambient", ambient["FOO"])
}

func TestParseEnviron(t *testing.T) {
	env := ParseEnviron([]string{"FOO=1", "EMPTY=", "BARE", "=skipped"})

	require.Equal(t, "1", env["FOO"])
	require.Equal(t, "", env["EMPTY"])
	require.Contains(t, env, "BARE")
	require.NotContains(t, env, "")
}

func TestEnvSliceIsSorted(t *testing.T) {
	pairs := EnvSlice(map[string]string{"B": "2", "A": "1", "C": "3"})
	require.Equal(t, []string{"A=1", "B=2", "C=3"}, pairs)
}
