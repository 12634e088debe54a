package library

import (
	"io/fs"
	"syscall"
)

func birthTime(_ string, info fs.FileInfo) float64 {
	attr, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return 0
	}
	return float64(attr.CreationTime.Nanoseconds()) / 1e9
}
