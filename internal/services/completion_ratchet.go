package services

import (
	"sync"

	"github.com/google/uuid"
)

const defaultRatchetCapacity = 10000

// completionRatchet remembers job ids that have been reported completed so a
// later stale row cannot move them backwards. Oldest entries are forgotten
// first once capacity is reached.
type completionRatchet struct {
	mu    sync.Mutex
	seen  map[uuid.UUID]struct{}
	order []uuid.UUID
	next  int
	cap   int
}

func newCompletionRatchet(capacity int) *completionRatchet {
	if capacity <= 0 {
		capacity = defaultRatchetCapacity
	}
	return &completionRatchet{
		seen: make(map[uuid.UUID]struct{}, capacity),
		cap:  capacity,
	}
}

func (r *completionRatchet) Mark(jobID uuid.UUID) {
	if jobID == uuid.Nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[jobID]; ok {
		return
	}
	if len(r.order) < r.cap {
		r.order = append(r.order, jobID)
	} else {
		delete(r.seen, r.order[r.next])
		r.order[r.next] = jobID
		r.next = (r.next + 1) % r.cap
	}
	r.seen[jobID] = struct{}{}
}

func (r *completionRatchet) Seen(jobID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[jobID]
	return ok
}
