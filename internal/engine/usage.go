package engine

import "sync"

// RoomUsage tracks how many sessions each room has been assigned during one
// planning run. It backs the least-used-room matching used when an offering
// has no candidate rooms of its own. One tracker is owned by one generation
// run; concurrent runs for different terms get separate trackers.
type RoomUsage struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewRoomUsage returns an empty tracker.
func NewRoomUsage() *RoomUsage {
	return &RoomUsage{counts: make(map[string]int)}
}

// Record notes one assignment of the room.
func (u *RoomUsage) Record(roomID string) {
	if roomID == "" {
		return
	}
	u.mu.Lock()
	u.counts[roomID]++
	u.mu.Unlock()
}

// Count returns the recorded assignments for the room.
func (u *RoomUsage) Count(roomID string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counts[roomID]
}

// LeastUsed returns the candidate with the fewest recorded assignments.
// Ties break on candidate order, so results are deterministic for a fixed
// candidate list. The second return is false for an empty candidate list.
func (u *RoomUsage) LeastUsed(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	best := candidates[0]
	bestCount := u.counts[best]
	for _, id := range candidates[1:] {
		if u.counts[id] < bestCount {
			best = id
			bestCount = u.counts[id]
		}
	}
	return best, true
}
