package ranks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMidranks(t *testing.T) {
	t.Run("no ties", func(t *testing.T) {
		ranked, tieSum, ties := Midranks([]float64{3, 1, 2})

		assert.Equal(t, []float64{3, 1, 2}, ranked)
		assert.Zero(t, tieSum)
		assert.False(t, ties)
	})

	t.Run("tied run shares the mid rank", func(t *testing.T) {
		ranked, tieSum, ties := Midranks([]float64{1, 2, 2, 3})

		assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranked)
		assert.Equal(t, 6.0, tieSum) // 2^3 - 2
		assert.True(t, ties)
	})

	t.Run("all values tied", func(t *testing.T) {
		ranked, tieSum, ties := Midranks([]float64{5, 5, 5})

		assert.Equal(t, []float64{2, 2, 2}, ranked)
		assert.Equal(t, 24.0, tieSum) // 3^3 - 3
		assert.True(t, ties)
	})

	t.Run("empty input", func(t *testing.T) {
		ranked, tieSum, ties := Midranks(nil)

		assert.Empty(t, ranked)
		assert.Zero(t, tieSum)
		assert.False(t, ties)
	})
}
