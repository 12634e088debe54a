package library

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// birthTime reads btime via statx. Filesystems that do not record it
// report 0 and the scheduler falls back to the modification time.
func birthTime(path string, _ fs.FileInfo) float64 {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_STATX_SYNC_AS_STAT, unix.STATX_BTIME, &stx); err != nil {
		return 0
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return 0
	}
	return float64(stx.Btime.Sec) + float64(stx.Btime.Nsec)/1e9
}
