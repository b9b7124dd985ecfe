package render

import (
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
)

// writePNG encodes dc into a temporary file next to path and renames it into
// place, so a failed write never leaves a partial image behind.
func writePNG(dc *gg.Context, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(ErrOutputWrite, "create temp file in %s: %v", dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := dc.EncodePNG(tmp); err != nil {
		return eris.Wrapf(ErrOutputWrite, "encode %s: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(ErrOutputWrite, "close %s: %v", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return eris.Wrapf(ErrOutputWrite, "chmod %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(ErrOutputWrite, "rename to %s: %v", path, err)
	}
	committed = true
	return nil
}
