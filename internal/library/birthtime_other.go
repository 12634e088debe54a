//go:build !linux && !darwin && !windows

package library

import "io/fs"

// No portable creation time here; callers use the modification time.
func birthTime(string, fs.FileInfo) float64 {
	return 0
}
