package crawler

import "sync/atomic"

// CrawlLock provides non-blocking lock semantics using atomic operations.
// It keeps a second crawl in the same process from starting while one is
// running.
type CrawlLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *CrawlLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *CrawlLock) Release() {
	l.state.Store(0)
}

// Held reports whether the lock is currently held
func (l *CrawlLock) Held() bool {
	return l.state.Load() == 1
}
