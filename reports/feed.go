// reports/feed.go
package reports

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// HTTPClient is used for feed listing and report downloads.
var HTTPClient = &http.Client{Timeout: 30 * time.Second}

// ListFeed fetches the HTML index at feedURL and returns the absolute URLs
// of every linked file whose name ends in ext, in document order.
func ListFeed(ctx context.Context, feedURL, ext string) ([]*url.URL, error) {
	base, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL %s: %w", feedURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", feedURL, err)
	}
	res, err := HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get URL %s: %w", feedURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get URL %s: status code %d", feedURL, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", feedURL, err)
	}

	seen := make(map[string]bool)
	var links []*url.URL
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if !strings.HasSuffix(abs.Path, ext) || seen[abs.String()] {
			return
		}
		seen[abs.String()] = true
		links = append(links, abs)
	})
	return links, nil
}

// SyncFeed downloads every report listed at feedURL that is not already
// present in dir and returns the names of the downloaded files.
func SyncFeed(ctx context.Context, feedURL, dir, ext string) ([]string, error) {
	log := zap.L().Named("reports")

	links, err := ListFeed(ctx, feedURL, ext)
	if err != nil {
		return nil, err
	}

	var downloaded []string
	for _, link := range links {
		name := path.Base(link.Path)
		localPath := filepath.Join(dir, name)
		if _, err := os.Stat(localPath); err == nil {
			continue
		}
		if err := DownloadFile(ctx, link.String(), localPath); err != nil {
			return downloaded, err
		}
		downloaded = append(downloaded, name)
	}

	log.Info("Report feed synced",
		zap.String("feed", feedURL), zap.Int("listed", len(links)), zap.Int("downloaded", len(downloaded)))
	return downloaded, nil
}

// DownloadFile downloads rawURL to localSavePath. The body is written to a
// temporary file in the same directory and renamed into place, so a
// partially downloaded report never carries the report extension.
func DownloadFile(ctx context.Context, rawURL string, localSavePath string) error {
	zap.L().Named("reports").Debug("Downloading report",
		zap.String("url", rawURL), zap.String("path", localSavePath))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	resp, err := HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make GET request to %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file from %s: received status code %d", rawURL, resp.StatusCode)
	}

	dir := filepath.Dir(localSavePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to copy downloaded content to %s: %w", localSavePath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), localSavePath); err != nil {
		return fmt.Errorf("failed to move download into %s: %w", localSavePath, err)
	}
	return nil
}
