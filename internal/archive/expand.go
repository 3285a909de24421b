package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/hocr-report/constants"
	"github.com/joseph-ayodele/hocr-report/internal/common"
)

// Save writes the conversion payload into dir as the archive file and returns its path.
func Save(dir string, payload []byte) (string, error) {
	path := filepath.Join(dir, constants.ArchiveName)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", common.NewAppError(common.CodeArchive, "save archive", fmt.Errorf("%w: %v", common.ErrArchive, err))
	}
	return path, nil
}

// Expand extracts every entry of the ZIP at zipPath into dest and returns the
// paths of the extracted regular files in archive order. Entries resolving
// outside dest are rejected.
func Expand(zipPath, dest string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, archiveErr("open archive", err)
	}
	defer zr.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, archiveErr("resolve destination", err)
	}

	var files []string
	for _, zf := range zr.File {
		target, err := entryPath(root, zf.Name)
		if err != nil {
			return files, archiveErr("entry "+zf.Name, err)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, archiveErr("mkdir "+zf.Name, err)
			}
			continue
		}
		if err := extractFile(zf, target); err != nil {
			return files, archiveErr("extract "+zf.Name, err)
		}
		files = append(files, target)
	}
	return files, nil
}

func entryPath(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes destination")
	}
	return target, nil
}

func extractFile(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := zf.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func archiveErr(msg string, err error) error {
	return common.NewAppError(common.CodeArchive, msg, fmt.Errorf("%w: %v", common.ErrArchive, err))
}
