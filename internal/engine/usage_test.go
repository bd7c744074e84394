package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomUsageLeastUsedPrefersColdRoom(t *testing.T) {
	usage := NewRoomUsage()
	usage.Record("r1")
	usage.Record("r1")
	usage.Record("r2")

	room, ok := usage.LeastUsed([]string{"r1", "r2", "r3"})
	require.True(t, ok)
	assert.Equal(t, "r3", room)
}

func TestRoomUsageTieBreaksOnOrder(t *testing.T) {
	usage := NewRoomUsage()

	room, ok := usage.LeastUsed([]string{"r2", "r1"})
	require.True(t, ok)
	assert.Equal(t, "r2", room)
}

func TestRoomUsageEmptyCandidates(t *testing.T) {
	usage := NewRoomUsage()
	_, ok := usage.LeastUsed(nil)
	assert.False(t, ok)
}

func TestRoomUsageCount(t *testing.T) {
	usage := NewRoomUsage()
	usage.Record("r1")
	usage.Record("r1")
	usage.Record("")

	assert.Equal(t, 2, usage.Count("r1"))
	assert.Equal(t, 0, usage.Count("r9"))
}
