package keylock

import "sync"

// Keyed hands out one mutex per key so operations touching the same draw are
// serialized while distinct draws never contend. Locks are not evicted; the
// key space is bounded by the number of draws a process ever sees.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *Keyed {
	return &Keyed{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for key and returns the matching unlock func.
func (k *Keyed) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()

	return m.Unlock
}
