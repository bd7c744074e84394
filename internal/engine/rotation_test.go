package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomForSessionRoundRobin(t *testing.T) {
	rooms := []string{"r1", "r2", "r3"}

	got := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		room, ok := RoomForSession(rooms, i)
		require.True(t, ok)
		got = append(got, room)
	}
	assert.Equal(t, []string{"r1", "r2", "r3", "r1", "r2", "r3"}, got)
}

func TestRoomForSessionNoCandidates(t *testing.T) {
	_, ok := RoomForSession(nil, 0)
	assert.False(t, ok)
}

func TestInstructorBlocksRemainderGoesFirst(t *testing.T) {
	// 10 sessions over 3 instructors: 4, 3, 3.
	assert.Equal(t, []int{4, 3, 3}, InstructorBlocks(3, 10))
	assert.Equal(t, []int{5, 5}, InstructorBlocks(2, 10))
	assert.Equal(t, []int{3, 2, 2}, InstructorBlocks(3, 7))
}

func TestInstructorBlocksSumToTotal(t *testing.T) {
	for _, total := range []int{1, 5, 10, 13, 16} {
		for _, count := range []int{1, 2, 3, 4} {
			sum := 0
			for _, b := range InstructorBlocks(count, total) {
				sum += b
			}
			assert.Equal(t, total, sum, "total=%d count=%d", total, count)
		}
	}
}

func TestInstructorForSessionContiguousBlocks(t *testing.T) {
	instructors := []string{"a", "b", "c"}

	want := []string{"a", "a", "a", "a", "b", "b", "b", "c", "c", "c"}
	for i, expected := range want {
		got, err := InstructorForSession(instructors, i, 10)
		require.NoError(t, err)
		assert.Equal(t, expected, got, "session %d", i)
	}
}

func TestInstructorForSessionErrors(t *testing.T) {
	_, err := InstructorForSession(nil, 0, 10)
	assert.Error(t, err)

	_, err = InstructorForSession([]string{"a"}, 10, 10)
	assert.Error(t, err)

	_, err = InstructorForSession([]string{"a"}, -1, 10)
	assert.Error(t, err)
}
