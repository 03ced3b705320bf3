package install

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildTarGz assembles a small in-memory distribution archive.
func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()

	buf := bytes.Buffer{}
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func serveArtifact(t *testing.T, path string, payload []byte) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	t.Cleanup(server.Close)

	return server.URL + path
}

// fetchSetup silences the progress bar and moves the working directory so the
// temporary download file lands in a scratch location.
func fetchSetup(t *testing.T) {
	t.Helper()
	t.Setenv("CI", "true")

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(prev) })
}

func TestFetchExtractsTarGz(t *testing.T) {
	fetchSetup(t)

	payload := buildTarGz(t, map[string]string{
		"apache-ant-1.10.14/bin/ant":     "#!/bin/sh\n",
		"apache-ant-1.10.14/lib/ant.jar": "jar",
	})
	digest := sha256.Sum256(payload)
	url := serveArtifact(t, "/dist/apache-ant-1.10.14-bin.tar.gz", payload)

	dest := filepath.Join(t.TempDir(), "ant-1.10.14")
	err := Fetch(FetchSpec{
		URL:      url,
		Sha256:   hex.EncodeToString(digest[:]),
		Dest:     dest,
		Strip:    1,
		MarkExec: []string{filepath.Join("bin", "ant")},
	})
	require.NoError(t, err)

	// the leading apache-ant-1.10.14/ element was stripped
	require.FileExists(t, filepath.Join(dest, "bin", "ant"))
	require.FileExists(t, filepath.Join(dest, "lib", "ant.jar"))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(filepath.Join(dest, "bin", "ant"))
		require.NoError(t, err)
		require.NotZero(t, fi.Mode()&0o100)
	}
}

func TestFetchChecksumMismatch(t *testing.T) {
	fetchSetup(t)

	payload := buildTarGz(t, map[string]string{"ant/bin/ant": "x"})
	url := serveArtifact(t, "/ant.tar.gz", payload)

	err := Fetch(FetchSpec{
		URL:    url,
		Sha256: "deadbeef",
		Dest:   filepath.Join(t.TempDir(), "ant"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "checksum check")
}

func TestFetchCopiesJar(t *testing.T) {
	fetchSetup(t)

	url := serveArtifact(t, "/ant-contrib.jar", []byte("jar bytes"))

	dest := filepath.Join(t.TempDir(), "lib", "ant-contrib.jar")
	require.NoError(t, Fetch(FetchSpec{URL: url, Dest: dest}))

	data, err := ioutil.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "jar bytes", string(data))
}

func TestFetchReplacesExistingDest(t *testing.T) {
	fetchSetup(t)

	url := serveArtifact(t, "/ant-contrib.jar", []byte("new"))

	dest := filepath.Join(t.TempDir(), "ant-contrib.jar")
	require.NoError(t, ioutil.WriteFile(dest, []byte("old"), 0o660))
	require.NoError(t, Fetch(FetchSpec{URL: url, Dest: dest}))

	data, err := ioutil.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestFetchUnsupportedFormat(t *testing.T) {
	fetchSetup(t)

	url := serveArtifact(t, "/ant.rar", []byte("???"))

	err := Fetch(FetchSpec{URL: url, Dest: filepath.Join(t.TempDir(), "ant")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not supported")
}

func TestFetchMissingArtifact(t *testing.T) {
	fetchSetup(t)

	url := serveArtifact(t, "/present.tar.gz", nil)

	err := Fetch(FetchSpec{URL: url + ".missing", Dest: t.TempDir()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed with status")
}
