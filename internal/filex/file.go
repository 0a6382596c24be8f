// Package filex provides small filesystem helpers.
package filex

import (
	"fmt"
	"os"
)

// EnsureDir creates the directory (and any parents) if it does not exist and
// returns the path unchanged. Directories are created with owner/group access
// only, since they may hold key material.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
