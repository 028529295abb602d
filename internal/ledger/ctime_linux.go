package ledger

import (
	"os"
	"syscall"
)

// createdAt returns the inode change time, the closest Linux equivalent
// of a creation time
func createdAt(fi os.FileInfo) int64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return st.Ctim.Nano()
	}
	return fi.ModTime().UnixNano()
}
