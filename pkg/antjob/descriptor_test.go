package antjob

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDescriptorXMLWrapsPrimaryScript(t *testing.T) {
	doc := BuildDescriptorXML(`<echo message="hi"/>`, "", "x")

	require.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="utf-8"?>`))
	require.Contains(t, doc, `<project default="x"`)
	require.Contains(t, doc, `<property file="x.properties"/>`)
	require.Contains(t, doc, `<property environment="env"/>`)
	require.Contains(t, doc, `<target name="x">`)
	require.Contains(t, doc, `<echo message="hi"/>`)
	require.NotContains(t, doc, extendedBeginMarker)
	require.NotContains(t, doc, extendedEndMarker)

	require.NoError(t, ValidateFragment(`<echo message="hi"/>`, false))
}

func TestBuildDescriptorXMLPlacesExtendedScriptOutsideTarget(t *testing.T) {
	extended := `<target name="extra"><echo message="extra"/></target>`
	doc := BuildDescriptorXML(`<echo message="hi"/>`, extended, "x")

	require.Equal(t, 1, strings.Count(doc, extended))
	require.Equal(t, 1, strings.Count(doc, extendedBeginMarker))
	require.Equal(t, 1, strings.Count(doc, extendedEndMarker))

	targetEnd := strings.Index(doc, "</target>")
	extendedStart := strings.Index(doc, extendedBeginMarker)
	projectEnd := strings.Index(doc, "</project>")
	require.Greater(t, extendedStart, targetEnd)
	require.Greater(t, projectEnd, extendedStart)

	require.NoError(t, ValidateFragment(extended, true))
}

func TestBuildDescriptorXMLIsDeterministic(t *testing.T) {
	first := BuildDescriptorXML(`<echo message="hi"/>`, `<echo message="x"/>`, "build")
	second := BuildDescriptorXML(`<echo message="hi"/>`, `<echo message="x"/>`, "build")
	require.Equal(t, first, second)
}

func TestValidateFragmentReportsMalformedInput(t *testing.T) {
	err := ValidateFragment(`<echo message="hi">`, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not well-formed")

	err = ValidateFragment(`</nonsense>`, true)
	require.Error(t, err)
}

func TestWriteDescriptorStoresTheFile(t *testing.T) {
	workspace := t.TempDir()
	doc := BuildDescriptorXML(`<echo message="hi"/>`, "", DefaultDescriptorName)

	path, err := WriteDescriptor(workspace, DefaultDescriptorName, doc)
	require.NoError(t, err)
	require.FileExists(t, path)
}
