package utilities

import (
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator_Snowflake(t *testing.T) {
	g := NewIDGenerator(1)
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := g.NewID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		assert.LessOrEqual(t, len(id), 32)
	}
}

func TestIDGenerator_FallsBackToKSUID(t *testing.T) {
	// snowflake nodes are limited to 10 bits
	g := NewIDGenerator(5000)
	_, err := ksuid.Parse(g.NewID())
	assert.NoError(t, err)

	var nilGen *IDGenerator
	_, err = ksuid.Parse(nilGen.NewID())
	assert.NoError(t, err)
}

func TestNewKSUID(t *testing.T) {
	a, b := NewKSUID(), NewKSUID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 27)
}
