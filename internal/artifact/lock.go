package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"lidar_maintenance/internal/models"
)

// CheckWritable verifies the file can be opened for writing, i.e. no desktop
// spreadsheet application is holding it. The check is advisory: nothing stops
// another process from grabbing the file right after it passes.
func CheckWritable(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s", models.ErrConcurrentAccess, path)
		}
		return fmt.Errorf("check %s: %w", path, err)
	}
	return f.Close()
}
