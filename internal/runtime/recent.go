package runtime

import "sync"

// recentIDs remembers the last N message IDs in insertion order.
type recentIDs struct {
	mu    sync.Mutex
	index map[string]int // id -> ring slot holding it
	ring  []string
	next  int
}

func newRecentIDs(size int) *recentIDs {
	return &recentIDs{
		index: make(map[string]int, size),
		ring:  make([]string, size),
	}
}

// add reports whether id is new, evicting the oldest id when full. Empty ids
// are always new.
func (r *recentIDs) add(id string) bool {
	if id == "" {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.index[id]; dup {
		return false
	}
	if old := r.ring[r.next]; old != "" {
		if slot, ok := r.index[old]; ok && slot == r.next {
			delete(r.index, old)
		}
	}
	r.ring[r.next] = id
	r.index[id] = r.next
	r.next = (r.next + 1) % len(r.ring)
	return true
}

// forget drops id so a message that never made it onto the queue can be
// retried.
func (r *recentIDs) forget(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot, ok := r.index[id]; ok {
		r.ring[slot] = ""
		delete(r.index, id)
	}
}
