package reports

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/reports/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><ul>
			<li><a href="10-14-21.txt">10-14-21.txt</a></li>
			<li><a href="/reports/files/10-15-21.txt">10-15-21.txt</a></li>
			<li><a href="10-14-21.txt">duplicate</a></li>
			<li><a href="readme.html">readme</a></li>
		</ul></body></html>`)
	})
	mux.HandleFunc("/reports/10-14-21.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "1 A 0 0 0 10-14-21 60 Steel\n")
	})
	mux.HandleFunc("/reports/files/10-15-21.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "1 A 0 0 0 10-15-21 60 Steel\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListFeed(t *testing.T) {
	srv := newFeedServer(t)

	links, err := ListFeed(context.Background(), srv.URL+"/reports/", ".txt")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, srv.URL+"/reports/10-14-21.txt", links[0].String())
	assert.Equal(t, srv.URL+"/reports/files/10-15-21.txt", links[1].String())
}

func TestSyncFeed(t *testing.T) {
	srv := newFeedServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-15-21.txt"), []byte("local"), 0o644))

	downloaded, err := SyncFeed(context.Background(), srv.URL+"/reports/", dir, ".txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"10-14-21.txt"}, downloaded)

	body, err := os.ReadFile(filepath.Join(dir, "10-14-21.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1 A 0 0 0 10-14-21 60 Steel\n", string(body))

	local, err := os.ReadFile(filepath.Join(dir, "10-15-21.txt"))
	require.NoError(t, err)
	assert.Equal(t, "local", string(local), "existing reports are not overwritten")

	names, err := ListReports(dir, ".txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"10-14-21.txt", "10-15-21.txt"}, names, "no temporary files are left behind")
}

func TestDownloadFile_NotFound(t *testing.T) {
	srv := newFeedServer(t)
	dest := filepath.Join(t.TempDir(), "missing.txt")

	err := DownloadFile(context.Background(), srv.URL+"/nope.txt", dest)
	require.Error(t, err)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}
