// Package romsource loads ROM and boot ROM images from disk for hosts
// that want a file-backed iohooks.Hooks without writing their own
// decompression and dialog glue. Archived ROMs (.zip, .7z, .gz) are
// transparently unpacked; a .gb/.gbc/.bin file is read as-is.
package romsource

import (
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/sqweek/dialog"
)

// Load reads path and, if its extension indicates a compressed
// archive, returns the bytes of the first file inside it instead.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gz":
		r, err := gzip.NewReader(strings.NewReader(string(data)))
		if err != nil {
			return nil, err
		}
		return io.ReadAll(r)
	case ".zip":
		r, err := zip.NewReader(strings.NewReader(string(data)), int64(len(data)))
		if err != nil {
			return nil, err
		}
		if len(r.File) == 0 {
			return nil, os.ErrNotExist
		}
		rc, err := r.File[0].Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	case ".7z":
		r, err := sevenzip.NewReader(strings.NewReader(string(data)), int64(len(data)))
		if err != nil {
			return nil, err
		}
		if len(r.File) == 0 {
			return nil, os.ErrNotExist
		}
		rc, err := r.File[0].Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	default:
		return data, nil
	}
}

// AskForFile opens a native file-picker dialog rooted at startDir and
// returns the chosen path.
func AskForFile(title, startDir string) (string, error) {
	return dialog.File().SetStartDir(startDir).Title(title).Load()
}
