package install

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

// FetchSpec describes one downloadable artifact. Archives (.zip, .tar.gz,
// .tar.bz2, .tar.xz) are unpacked into Dest with the first Strip path
// elements removed; a bare .jar is stored at Dest directly.
type FetchSpec struct {
	URL    string
	Sha256 string
	Dest   string
	Strip  int
	// MarkExec lists files (relative to Dest) that need their executable bit
	// restored after extraction; .zip files don't carry permissions.
	MarkExec []string
}

func getProgressBar(length int64, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}

// Fetch downloads the artifact, verifies its checksum and unpacks or stores
// it at the destination. The destination is replaced if it already exists.
func Fetch(spec FetchSpec) error {
	tmpName := "antexec_dl_" + nanoid.New() + ".tmp"
	arHandle, err := os.Create(tmpName)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", tmpName)
	}
	defer func() {
		arHandle.Close()
		os.Remove(tmpName)
	}()

	client := &http.Client{
		Timeout: time.Minute * 30,
	}

	resp, err := client.Get(spec.URL)
	if err != nil {
		return eris.Wrapf(err, "failed to start download for %s", spec.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("download of %s failed with status %s", spec.URL, resp.Status)
	}

	hash := sha256.New()
	buf := make([]byte, 4096)
	bar := getProgressBar(resp.ContentLength, "     download")
	for {
		n, err := resp.Body.Read(buf)
		if err != nil && n < 1 {
			if err == io.EOF {
				break
			}
			return eris.Wrapf(err, "failed during download of %s", spec.URL)
		}

		_, err = hash.Write(buf[:n])
		if err != nil {
			return eris.Wrapf(err, "failed to calculate checksum for %s", spec.URL)
		}

		_, err = arHandle.Write(buf[:n])
		if err != nil {
			return eris.Wrapf(err, "failed to write download to %s", tmpName)
		}

		bar.Write(buf[:n])
	}
	bar.Finish()

	if spec.Sha256 != "" {
		digest := hex.EncodeToString(hash.Sum(nil))
		if digest != spec.Sha256 {
			return eris.Errorf("checksum check for %s failed: expected %s but got %s", spec.URL, spec.Sha256, digest)
		}
	}

	err = removeExisting(spec.Dest)
	if err != nil {
		return err
	}

	extractor, err := getExtractor(spec.URL)
	if err != nil {
		return err
	}

	_, err = arHandle.Seek(0, io.SeekStart)
	if err != nil {
		return eris.Wrapf(err, "failed to rewind %s", tmpName)
	}

	bar = getProgressBar(resp.ContentLength, "      extract")
	err = extractor(arHandle, bar, spec)
	if err != nil {
		return err
	}

	if runtime.GOOS != "windows" {
		for _, binPath := range spec.MarkExec {
			binPath = filepath.Join(spec.Dest, binPath)
			fi, err := os.Stat(binPath)
			if err != nil {
				return eris.Wrapf(err, "failed to read permissions for %s", binPath)
			}

			err = os.Chmod(binPath, fi.Mode()|0700)
			if err != nil {
				return eris.Wrapf(err, "failed to mark %s as executable", binPath)
			}
		}
	}

	return nil
}

func removeExisting(dest string) error {
	info, err := os.Stat(dest)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return nil
		}
		return eris.Wrapf(err, "failed to check %s", dest)
	}

	if info.IsDir() {
		err = os.RemoveAll(dest)
	} else {
		err = os.Remove(dest)
	}
	if err != nil {
		return eris.Wrapf(err, "failed to remove the previous %s", dest)
	}
	return nil
}

type archiveExtractor func(*os.File, *progressbar.ProgressBar, FetchSpec) error

func getExtractor(url string) (archiveExtractor, error) {
	if strings.HasSuffix(url, ".jar") {
		return copyExtractor, nil
	}

	if strings.HasSuffix(url, ".zip") {
		return zipExtractor, nil
	}

	if strings.HasSuffix(url, ".tar.gz") {
		return func(f *os.File, bar *progressbar.ProgressBar, spec FetchSpec) error {
			reader, err := gzip.NewReader(f)
			if err != nil {
				return err
			}
			defer reader.Close()

			return extractTar(reader, bar, spec)
		}, nil
	}

	if strings.HasSuffix(url, ".tar.bz2") {
		return func(f *os.File, bar *progressbar.ProgressBar, spec FetchSpec) error {
			return extractTar(bzip2.NewReader(f), bar, spec)
		}, nil
	}

	if strings.HasSuffix(url, ".tar.xz") {
		return func(f *os.File, bar *progressbar.ProgressBar, spec FetchSpec) error {
			reader, err := xz.NewReader(f)
			if err != nil {
				return err
			}

			return extractTar(reader, bar, spec)
		}, nil
	}

	return nil, eris.Errorf("archive format of %s is not supported", url)
}

func copyExtractor(f *os.File, bar *progressbar.ProgressBar, spec FetchSpec) error {
	err := os.MkdirAll(filepath.Dir(spec.Dest), os.FileMode(0770))
	if err != nil {
		return eris.Wrapf(err, "failed to create directory %s", filepath.Dir(spec.Dest))
	}

	destHandle, err := os.Create(spec.Dest)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", spec.Dest)
	}
	defer destHandle.Close()

	_, err = io.Copy(io.MultiWriter(destHandle, bar), f)
	if err != nil {
		return eris.Wrapf(err, "failed to write %s", spec.Dest)
	}
	return nil
}

// openExtractorDest normalizes the archive entry path, strips the configured
// number of leading elements and opens the destination file for writing.
func openExtractorDest(item string, spec FetchSpec) (*os.File, string, error) {
	pathParts := strings.Split(filepath.Clean(item), string(filepath.Separator))
	if len(pathParts) <= spec.Strip {
		return nil, "/", nil
	}

	dest := filepath.Join(spec.Dest, strings.Join(pathParts[spec.Strip:], string(filepath.Separator)))
	if dest == spec.Dest {
		return nil, "/", nil
	}

	destParent := filepath.Dir(dest)
	err := os.MkdirAll(destParent, os.FileMode(0770))
	if err != nil {
		return nil, "", eris.Wrapf(err, "failed to create directory %s", destParent)
	}

	destHandle, err := os.Create(dest)
	if err != nil {
		return nil, "", eris.Wrapf(err, "failed to create file %s", dest)
	}

	return destHandle, dest, nil
}

func zipExtractor(f *os.File, bar *progressbar.ProgressBar, spec FetchSpec) error {
	stat, err := f.Stat()
	if err != nil {
		return err
	}

	archive, err := zip.NewReader(f, stat.Size())
	if err != nil {
		return err
	}

	for _, item := range archive.File {
		if strings.HasSuffix(item.Name, "/") {
			continue
		}

		destHandle, dest, err := openExtractorDest(item.Name, spec)
		if err != nil {
			return err
		}
		if destHandle == nil {
			continue
		}

		itemHandle, err := item.Open()
		if err != nil {
			destHandle.Close()
			return eris.Wrap(err, "failed to open archive entry")
		}

		_, err = io.Copy(io.MultiWriter(destHandle, bar), itemHandle)
		itemHandle.Close()
		destHandle.Close()
		if err != nil {
			return eris.Wrapf(err, "failed to write extracted file %s", dest)
		}
	}

	return nil
}

func extractTar(r io.Reader, bar *progressbar.ProgressBar, spec FetchSpec) error {
	archive := tar.NewReader(r)

	for {
		item, err := archive.Next()
		if err != nil {
			if err == io.EOF {
				break
			}

			return eris.Wrap(err, "failed to read archive entry")
		}

		fi := item.FileInfo()
		if fi.IsDir() {
			continue
		}

		destHandle, dest, err := openExtractorDest(item.Name, spec)
		if err != nil {
			return err
		}
		if destHandle == nil {
			continue
		}

		if item.Typeflag == tar.TypeSymlink {
			destHandle.Close()
			err = os.Remove(dest)
			if err != nil {
				return eris.Wrapf(err, "failed to remove placeholder file %s", dest)
			}

			err = os.Symlink(item.Linkname, dest)
			if err != nil {
				return eris.Wrapf(err, "failed to create symlink %s pointing to %s", dest, item.Linkname)
			}
			continue
		}

		_, err = io.Copy(io.MultiWriter(destHandle, bar), archive)
		destHandle.Close()
		if err != nil {
			return eris.Wrapf(err, "failed to write extracted file %s", dest)
		}

		os.Chmod(dest, fi.Mode())
	}

	return nil
}
