package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

var ErrorURLNotFound = errors.New("URL not found")

// Download saves the content at url to path. The file only appears once the
// whole body has been written.
func Download(ctx context.Context, url string, path string) (retErr error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	req.Header.Set("User-Agent", clientAgent)

	resp, err := GetHTTPClient().Do(req) //nolint:gosec // URL supplied by the operator
	if err != nil {
		return fmt.Errorf("error executing HTTP Get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrorURLNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error downloading file (status: %d - %s): %s", resp.StatusCode, resp.Status, url)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating dir: %s: %w", dir, err)
	}

	out, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer func() {
		if retErr != nil {
			os.Remove(out.Name())
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("error saving downloaded content to file: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}

	if err := os.Rename(out.Name(), path); err != nil {
		return fmt.Errorf("error moving download into place: %s: %w", path, err)
	}
	return nil
}
