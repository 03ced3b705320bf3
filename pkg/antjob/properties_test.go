package antjob

import (
	"io/ioutil"
	"strings"
	"testing"

	"github.com/magiconair/properties"
	"github.com/stretchr/testify/require"
)

func propsToMap(t *testing.T, props *properties.Properties) map[string]string {
	t.Helper()

	result := make(map[string]string, props.Len())
	for _, key := range props.Keys() {
		value, ok := props.Get(key)
		require.True(t, ok)
		result[key] = value
	}
	return result
}

func TestMergePropertiesUserEntriesWin(t *testing.T) {
	merged, err := MergeProperties(map[string]string{"FOO": "1"}, "FOO=2\nBAR=3")
	require.NoError(t, err)

	require.Equal(t, map[string]string{"FOO": "2", "BAR": "3"}, propsToMap(t, merged))
}

func TestMergePropertiesKeepsAmbientOnlyKeys(t *testing.T) {
	merged, err := MergeProperties(map[string]string{"KEEP": "yes", "OVER": "old"}, "OVER=new")
	require.NoError(t, err)

	result := propsToMap(t, merged)
	require.Equal(t, "yes", result["KEEP"])
	require.Equal(t, "new", result["OVER"])
}

func TestMergePropertiesWithoutUserText(t *testing.T) {
	merged, err := MergeProperties(map[string]string{"FOO": "1"}, "")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"FOO": "1"}, propsToMap(t, merged))
}

func TestMergePropertiesLeavesReferencesToAnt(t *testing.T) {
	// ${...} refs in values are Ant's business, not ours
	merged, err := MergeProperties(nil, "dist=${basedir}/dist")
	require.NoError(t, err)

	value, ok := merged.Get("dist")
	require.True(t, ok)
	require.Equal(t, "${basedir}/dist", value)
}

func TestWritePropertiesRoundTrip(t *testing.T) {
	workspace := t.TempDir()
	merged, err := MergeProperties(map[string]string{"FOO": "1", "BAZ": "x y"}, "FOO=2\nBAR=3")
	require.NoError(t, err)

	path, err := WriteProperties(workspace, "job_build.xml", merged)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "job_build.xml.properties"))

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "# "+propertiesHeader))

	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	reloaded, err := loader.LoadBytes(data)
	require.NoError(t, err)
	require.Equal(t, propsToMap(t, merged), propsToMap(t, reloaded))
}
