package dump

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// checkFileNotExists makes sure a new dump file will not overwrite an
// existing one.
func checkFileNotExists(p string) error {
	_, err := os.Stat(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err == nil:
		err = fs.ErrExist
	}
	return fmt.Errorf("file '%s' absence check failed: %w", p, err)
}
