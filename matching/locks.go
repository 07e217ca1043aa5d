package matching

import "sync"

// pairLocks hands out one mutex per user pair so that the write-then-check
// sequence for a pair runs serialized. Without this, two mutual sends racing
// through the detector could each check before the other's write lands and the
// match would never be seen.
type pairLocks struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[string]*pairLock)}
}

// acquire locks the mutex for key and returns its release func. Entries are
// refcounted and removed once the last holder releases, so the map does not
// grow with every pair ever seen.
func (p *pairLocks) acquire(key string) func() {
	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}
