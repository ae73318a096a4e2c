//go:build windows

package writer

import (
	"errors"
	"fmt"
)

func (w *FileWriter) openAtomic(string) error {
	return fmt.Errorf("atomic create on windows: %w", errors.ErrUnsupported)
}
