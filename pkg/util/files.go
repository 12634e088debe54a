package util

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CleanupFiles removes multiple files, ignoring errors
func CleanupFiles(paths ...string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// UniqueName stamps a file name with now so repeated runs never overwrite:
// "Reel.mp4" becomes "Reel_20240102_150405.mp4".
func UniqueName(base string, now time.Time) string {
	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".mp4"
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return name + "_" + now.Format("20060102_150405") + ext
}
