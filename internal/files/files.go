/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package files

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFileName replaces every character outside [a-zA-Z0-9._-] with an underscore.
func SanitizeFileName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// PublicURL joins the public prefix with the escaped file name.
func PublicURL(base, name string) string {
	return base + url.PathEscape(name)
}

// Downloaded describes a file saved by the Downloader.
type Downloaded struct {
	Name string
	Path string
}

// Downloader stores remote documents in a local directory.
type Downloader struct {
	dir     string
	client  *http.Client
	timeout time.Duration
}

func NewDownloader(dir string, timeout time.Duration) *Downloader {
	return &Downloader{dir: dir, client: &http.Client{}, timeout: timeout}
}

// Download fetches rawURL into the directory under the sanitized name.
// The file only appears under its final name once fully written.
func (d *Downloader) Download(ctx context.Context, rawURL, name string) (*Downloaded, error) {
	fileName := SanitizeFileName(name)
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating download directory: %w", err)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating download request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading %s: %w", fileName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("error downloading %s: unexpected status %d", fileName, resp.StatusCode)
	}

	tempFile, err := os.CreateTemp(d.dir, fileName+"_*.part")
	if err != nil {
		return nil, fmt.Errorf("error creating temporary file: %w", err)
	}
	tempName := tempFile.Name()

	_, err = io.Copy(tempFile, resp.Body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tempName)
		return nil, fmt.Errorf("error writing %s: %w", fileName, err)
	}

	finalPath := filepath.Join(d.dir, fileName)
	if err := os.Rename(tempName, finalPath); err != nil {
		_ = os.Remove(tempName)
		return nil, fmt.Errorf("error moving %s into place: %w", fileName, err)
	}

	return &Downloaded{Name: fileName, Path: finalPath}, nil
}
