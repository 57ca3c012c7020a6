package store

import "sync"

// userLocks hands out one mutex per user id so balance check + insert run as
// a unit even across pooled connections.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*sync.Mutex)}
}

// acquire locks the mutex for userID and returns the release func.
func (ul *userLocks) acquire(userID int64) func() {
	ul.mu.Lock()
	m, ok := ul.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		ul.locks[userID] = m
	}
	ul.mu.Unlock()

	m.Lock()
	return m.Unlock
}
