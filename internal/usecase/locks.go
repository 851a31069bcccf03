package usecase

import "sync"

// codeLocks serializes mutations per game code. Entries are dropped once no
// goroutine holds or waits for them.
type codeLocks struct {
	mu    sync.Mutex
	locks map[string]*codeLock
}

type codeLock struct {
	sync.Mutex
	refs int
}

func newCodeLocks() *codeLocks {
	return &codeLocks{
		locks: make(map[string]*codeLock),
	}
}

// Lock blocks until code is free and returns the matching unlock func.
func (that *codeLocks) Lock(code string) func() {
	that.mu.Lock()
	lock, ok := that.locks[code]
	if !ok {
		lock = &codeLock{}
		that.locks[code] = lock
	}
	lock.refs++
	that.mu.Unlock()

	lock.Lock()

	return func() {
		lock.Unlock()

		that.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(that.locks, code)
		}
		that.mu.Unlock()
	}
}

func (that *codeLocks) size() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.locks)
}
