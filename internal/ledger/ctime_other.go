//go:build !linux && !darwin && !windows

package ledger

import "os"

// createdAt falls back to the modification time where the platform
// exposes no creation time
func createdAt(fi os.FileInfo) int64 {
	return fi.ModTime().UnixNano()
}
