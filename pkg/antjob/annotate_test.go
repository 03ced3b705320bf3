package antjob

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotatorPassesPlainLinesThrough(t *testing.T) {
	out := bytes.Buffer{}
	ann := NewAnnotator(&out)

	_, err := ann.Write([]byte("copying 3 files\n"))
	require.NoError(t, err)
	require.Equal(t, "copying 3 files\n", out.String())
}

func TestAnnotatorHighlightsTargetHeaders(t *testing.T) {
	out := bytes.Buffer{}
	ann := NewAnnotator(&out)

	_, err := ann.Write([]byte("compile:\n"))
	require.NoError(t, err)
	require.Contains(t, out.String(), "compile:")
	require.Contains(t, out.String(), "\x1b[")
}

func TestAnnotatorHighlightsBuildOutcome(t *testing.T) {
	out := bytes.Buffer{}
	ann := NewAnnotator(&out)

	_, err := ann.Write([]byte("BUILD SUCCESSFUL\nTotal time: 1 second\n"))
	require.NoError(t, err)
	require.Contains(t, out.String(), "BUILD SUCCESSFUL")
	require.Contains(t, out.String(), "Total time: 1 second\n")

	out.Reset()
	_, err = ann.Write([]byte("BUILD FAILED\n"))
	require.NoError(t, err)
	require.Contains(t, out.String(), "BUILD FAILED")
}

func TestAnnotatorBuffersPartialLines(t *testing.T) {
	out := bytes.Buffer{}
	ann := NewAnnotator(&out)

	_, err := ann.Write([]byte("no newline yet"))
	require.NoError(t, err)
	require.Empty(t, out.String())

	_, err = ann.Write([]byte(", now: done\n"))
	require.NoError(t, err)
	require.Equal(t, "no newline yet, now: done\n", out.String())
}

func TestAnnotatorForceEOLFlushesTheRest(t *testing.T) {
	out := bytes.Buffer{}
	ann := NewAnnotator(&out)

	_, err := ann.Write([]byte("interrupted output"))
	require.NoError(t, err)
	require.Empty(t, out.String())

	require.NoError(t, ann.ForceEOL())
	require.Equal(t, "interrupted output\n", out.String())

	// a second flush must not produce anything
	require.NoError(t, ann.ForceEOL())
	require.Equal(t, "interrupted output\n", out.String())
}
