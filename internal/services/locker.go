package services

import "sync"

// locker tracks merchants with a settlement in flight.
type locker struct {
	mu           sync.Mutex
	inProcessMap map[string]struct{}
}

func newLocker() *locker {
	return &locker{inProcessMap: make(map[string]struct{})}
}

// tryLock marks merchantID as processing. It returns false if it already was.
func (l *locker) tryLock(merchantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.inProcessMap[merchantID]; busy {
		return false
	}
	l.inProcessMap[merchantID] = struct{}{}
	return true
}

func (l *locker) isProcessing(merchantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.inProcessMap[merchantID]
	return busy
}

func (l *locker) unlock(merchantID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inProcessMap, merchantID)
}
