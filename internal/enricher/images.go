package enricher

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
)

// maxImageBytes caps preview image downloads. Cards link thumbnails, not
// originals, so anything larger is junk.
const maxImageBytes = 10 << 20

// downloadImage fetches a card's preview image into the image directory and
// returns the relative path stored on the enriched record. The filename is
// keyed by post ID so re-downloading the same post overwrites rather than
// accumulates.
func (e *Enricher) downloadImage(ctx context.Context, postID, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d fetching image %s", resp.StatusCode, imageURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("image too large: exceeds %d bytes", maxImageBytes)
	}

	if err := os.MkdirAll(e.imageDir, 0755); err != nil {
		return "", err
	}

	name := postID + imageExt(imageURL, resp.Header.Get("Content-Type"))
	if err := os.WriteFile(filepath.Join(e.imageDir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	// Records reference images relative to the site root, e.g. "metadata/123.jpg".
	return path.Join(filepath.Base(e.imageDir), name), nil
}

// imageExt picks a file extension from the URL path, falling back to the
// response content type, defaulting to .jpg.
func imageExt(imageURL, contentType string) string {
	if u, err := url.Parse(imageURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return ext
		}
	}

	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
