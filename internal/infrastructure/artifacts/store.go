package artifacts

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

var ErrNotFound = errors.New("artifact not found")

const maxScreenshotWidth = 1280

// Store writes screenshot and HTML snapshot pairs under a single directory.
// Saving is best-effort per half: a failed screenshot never blocks the HTML
// snapshot and vice versa.
type Store struct {
	dir    string
	logger output.LoggerPort
}

func NewStore(dir string, logger output.LoggerPort) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save persists one capture. The label becomes the filename stem together
// with a millisecond timestamp, so repeated captures of the same step never
// collide.
func (s *Store) Save(label string, screenshot []byte, rawHTML string) entity.Artifact {
	stem := fmt.Sprintf("%s-%d", sanitizeLabel(label), time.Now().UnixMilli())
	art := entity.Artifact{StepLabel: label}

	if len(screenshot) > 0 {
		path := filepath.Join(s.dir, stem+".png")
		if err := s.saveScreenshot(path, screenshot); err != nil {
			s.logger.Warn("screenshot save failed", "label", label, "error", err)
		} else {
			art.ScreenshotPath = path
		}
	}

	if rawHTML != "" {
		path := filepath.Join(s.dir, stem+".html")
		cleaned := CleanHTML(rawHTML, nil)
		if err := os.WriteFile(path, []byte(cleaned), 0644); err != nil {
			s.logger.Warn("html snapshot save failed", "label", label, "error", err)
		} else {
			art.HTMLPath = path
		}
	}

	return art
}

func (s *Store) saveScreenshot(path string, data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("image decode failed: %w", err)
	}
	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}
	return imaging.Save(img, path)
}

// Resolve maps a bare filename to its on-disk path. Path components are
// stripped so callers cannot escape the artifacts directory.
func (s *Store) Resolve(filename string) (string, error) {
	base := filepath.Base(filename)
	if base == "." || base == ".." || base == "/" {
		return "", ErrNotFound
	}
	path := filepath.Join(s.dir, base)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

func sanitizeLabel(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, s)
	s = strings.Trim(s, "-")
	if s == "" {
		return "step"
	}
	return s
}
