// internal/browser/screenshots.go
package browser

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Screenshot name suffixes.
const (
	ShotBefore = "before"
	ShotAfter  = "after"
	ShotError  = "error"
)

var (
	schemePrefix = regexp.MustCompile(`^(?i)https?://`)
	nonWord      = regexp.MustCompile(`\W`)
)

// ScreenshotName derives a file name from the run's start URL, e.g.
// "https://acme.test/contact" with suffix "before" gives
// "acme_test_contact_before.png".
func ScreenshotName(startURL, suffix string) string {
	base := nonWord.ReplaceAllString(schemePrefix.ReplaceAllString(strings.TrimSpace(startURL), ""), "_")
	return base + "_" + suffix + ".png"
}

// ScreenshotPath joins ScreenshotName onto dir.
func ScreenshotPath(dir, startURL, suffix string) string {
	return filepath.Join(dir, ScreenshotName(startURL, suffix))
}

// WriteScreenshot stores a capture, creating the directory on first use.
func WriteScreenshot(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
