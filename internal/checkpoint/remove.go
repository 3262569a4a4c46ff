package checkpoint

import (
	"fmt"
	"os"
)

// RemoveFile makes path owner-writable and deletes it
func RemoveFile(path string) error {
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to make checkpoint writable: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}

// Exists reports whether a regular file is present at path
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
