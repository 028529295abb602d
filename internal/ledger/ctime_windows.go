package ledger

import (
	"os"
	"syscall"
)

func createdAt(fi os.FileInfo) int64 {
	if attr, ok := fi.Sys().(*syscall.Win32FileAttributeData); ok {
		return attr.CreationTime.Nanoseconds()
	}
	return fi.ModTime().UnixNano()
}
