package library

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

func birthTime(path string, _ fs.FileInfo) float64 {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0
	}
	return float64(st.Birthtimespec.Sec) + float64(st.Birthtimespec.Nsec)/1e9
}
