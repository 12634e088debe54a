// Package library discovers replay recordings in a directory and reads the
// filesystem timestamps the scheduler orders them by.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kikiluvv/replaycut/internal/clips"
)

// DefaultExtensions are the container formats replay tools write.
var DefaultExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

var ErrNotDirectory = errors.New("not a directory")

// Scan lists the recordings directly inside dir whose extension is in exts
// (case-insensitive, DefaultExtensions when empty). Hidden files and
// subdirectories are ignored. Durations are left at 0 for the probe stage.
func Scan(dir string, exts []string) ([]clips.SourceFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: %w", dir, ErrNotDirectory)
	}

	allowed := extensionSet(exts)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	files := make([]clips.SourceFile, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}

		fi, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		if !fi.Mode().IsRegular() {
			continue
		}

		path := filepath.Join(dir, name)
		files = append(files, clips.SourceFile{
			Path:     path,
			Created:  birthTime(path, fi),
			Modified: unixSeconds(fi.ModTime()),
			Size:     fi.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func extensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
