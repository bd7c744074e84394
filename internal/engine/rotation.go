package engine

import (
	"fmt"
)

// RoomForSession picks the room for the 0-based session index by round-robin
// over the ordered candidate list. The second return is false when there are
// no candidates, in which case no room is assigned.
func RoomForSession(rooms []string, index int) (string, bool) {
	if len(rooms) == 0 || index < 0 {
		return "", false
	}
	return rooms[index%len(rooms)], true
}

// InstructorBlocks partitions totalSessions into contiguous blocks, one per
// instructor, in instructor order. The remainder goes to the earliest
// instructors so the split is order-stable and fair: blocks differ by at
// most one session.
func InstructorBlocks(instructorCount, totalSessions int) []int {
	if instructorCount <= 0 {
		return nil
	}
	base := totalSessions / instructorCount
	remainder := totalSessions % instructorCount

	blocks := make([]int, instructorCount)
	for i := range blocks {
		blocks[i] = base
		if i < remainder {
			blocks[i]++
		}
	}
	return blocks
}

// InstructorForSession resolves which instructor owns the 0-based session
// index by walking the accumulated block boundaries. Each instructor teaches
// one uninterrupted stretch of the term.
func InstructorForSession(instructors []string, index, totalSessions int) (string, error) {
	if len(instructors) == 0 {
		return "", fmt.Errorf("no instructors to assign")
	}
	if index < 0 || index >= totalSessions {
		return "", fmt.Errorf("session index %d outside term of %d sessions", index, totalSessions)
	}

	boundary := 0
	for i, size := range InstructorBlocks(len(instructors), totalSessions) {
		boundary += size
		if index < boundary {
			return instructors[i], nil
		}
	}
	// unreachable: blocks always sum to totalSessions
	return instructors[len(instructors)-1], nil
}
