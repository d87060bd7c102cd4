package reports

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListReports(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"10-15-21.txt", "10-14-21.txt", "notes.md", "10-16-21.TXT"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.txt"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "10-14-21.txt"), filepath.Join(dir, "link.txt")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "dangling.txt")))

	names, err := ListReports(dir, ".txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"10-14-21.txt", "10-15-21.txt", "link.txt"}, names)

	_, err = ListReports(filepath.Join(dir, "missing"), ".txt")
	assert.Error(t, err)
}

func TestPendingReports(t *testing.T) {
	available := []string{"10-14-21.txt", "10-15-21.txt", "10-16-21.txt"}
	completed := map[string]struct{}{"10-15-21.txt": {}, "09-01-21.txt": {}}

	assert.Equal(t, []string{"10-14-21.txt", "10-16-21.txt"}, PendingReports(available, completed))
	assert.Empty(t, PendingReports(nil, completed))
	assert.Equal(t, available, PendingReports(available, nil))
}
