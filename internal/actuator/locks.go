package actuator

import "sync"

// DoorLocks hands out one mutex per door id so read-then-flip sequences
// against a single relay never interleave.
type DoorLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewDoorLocks() *DoorLocks {
	return &DoorLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for doorID and returns its unlock func.
func (d *DoorLocks) Lock(doorID string) func() {
	d.mu.Lock()
	m, ok := d.locks[doorID]
	if !ok {
		m = &sync.Mutex{}
		d.locks[doorID] = m
	}
	d.mu.Unlock()

	m.Lock()
	return m.Unlock
}
