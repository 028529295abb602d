package ledger

import (
	"os"
	"syscall"
)

func createdAt(fi os.FileInfo) int64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return st.Birthtimespec.Nano()
	}
	return fi.ModTime().UnixNano()
}
