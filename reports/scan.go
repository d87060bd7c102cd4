// reports/scan.go
package reports

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ListReports returns the names of regular files in dir ending in ext,
// sorted by name. Symlinks count when they resolve to a regular file.
func ListReports(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read report directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ext) || !isRegular(dir, entry) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func isRegular(dir string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

// PendingReports returns the available report names that are not in
// completed, keeping the order of available.
func PendingReports(available []string, completed map[string]struct{}) []string {
	var pending []string
	for _, name := range available {
		if _, done := completed[name]; done {
			continue
		}
		pending = append(pending, name)
	}
	return pending
}
