// Package storage persists generated images on the local filesystem,
// keeping the raw background and the composited overlay side by side.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ImageStore writes raw and overlay images under a base directory.
type ImageStore struct {
	baseDir    string
	rawDir     string
	overlayDir string

	now func() time.Time
}

// New creates the raw/ and overlay/ directories under baseDir.
func New(baseDir string) (*ImageStore, error) {
	s := &ImageStore{
		baseDir:    baseDir,
		rawDir:     filepath.Join(baseDir, "raw"),
		overlayDir: filepath.Join(baseDir, "overlay"),
		now:        time.Now,
	}

	for _, dir := range []string{s.rawDir, s.overlayDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create image directory: %w", err)
		}
	}

	return s, nil
}

// Filenames returns unique names for a quote's raw and overlay images.
func (s *ImageStore) Filenames(quoteID int64) (raw, overlay string) {
	ts := s.now().UTC().Format("20060102_150405")
	raw = fmt.Sprintf("quote_%d_%s_raw.png", quoteID, ts)
	overlay = fmt.Sprintf("quote_%d_%s_overlay.png", quoteID, ts)
	return raw, overlay
}

// SaveImages writes both image buffers to disk.
func (s *ImageStore) SaveImages(rawPNG, overlayPNG []byte, rawName, overlayName string) error {
	if err := os.WriteFile(filepath.Join(s.rawDir, rawName), rawPNG, 0644); err != nil {
		return fmt.Errorf("write raw image: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.overlayDir, overlayName), overlayPNG, 0644); err != nil {
		return fmt.Errorf("write overlay image: %w", err)
	}
	return nil
}

// RawPath returns the full path of a stored raw image.
func (s *ImageStore) RawPath(name string) string {
	return filepath.Join(s.rawDir, name)
}

// OverlayPath returns the full path of a stored overlay image.
func (s *ImageStore) OverlayPath(name string) string {
	return filepath.Join(s.overlayDir, name)
}
