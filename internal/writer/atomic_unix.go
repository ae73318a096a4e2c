//go:build !windows

package writer

import (
	"github.com/google/renameio/v2"
)

// openAtomic backs w by a renameio pending file next to filename.
func (w *FileWriter) openAtomic(filename string) error {
	pending, err := renameio.NewPendingFile(filename, renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}

	w.file = pending
	// CloseAtomicallyReplace syncs before the rename.
	w.finish = pending.CloseAtomicallyReplace
	w.discard = pending.Cleanup
	return nil
}
