package window

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		b, err := New[int](c)
		require.Error(t, err)
		assert.Nil(t, b)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	}
}

func TestSeedRequiresExactLength(t *testing.T) {
	b, err := New[int](5)
	require.NoError(t, err)

	err = b.Seed(seq(0, 4))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Equal(t, 0, b.Len())

	require.NoError(t, b.Seed(seq(0, 5)))
	assert.Equal(t, seq(0, 5), b.Window())
}

func TestPushEvictsOldest(t *testing.T) {
	const n = 100
	in := seq(1, n+1)

	b, err := New[int](n)
	require.NoError(t, err)
	require.NoError(t, b.Seed(in[:n]))

	ev, ok := b.Push(in[n])
	require.True(t, ok)
	assert.Equal(t, in[0], ev)
	assert.Equal(t, n, b.Len())

	w := b.Window()
	assert.Equal(t, in[1], w[0])
	assert.Equal(t, in[n], w[n-1])
}

func TestPushBeforeSeedGrowsToCapacity(t *testing.T) {
	b, err := New[int](3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, ok := b.Push(i)
		assert.False(t, ok)
	}
	for i := 3; i < 10; i++ {
		_, ok := b.Push(i)
		assert.True(t, ok)
		assert.Equal(t, 3, b.Len())
	}
	assert.Equal(t, []int{7, 8, 9}, b.Window())
}

func TestLastAndNewest(t *testing.T) {
	b, err := New[int](4)
	require.NoError(t, err)

	_, ok := b.Newest()
	assert.False(t, ok)
	assert.Empty(t, b.Last(2))

	require.NoError(t, b.Seed([]int{1, 2, 3, 4}))
	assert.Equal(t, []int{3, 4}, b.Last(2))
	assert.Equal(t, []int{1, 2, 3, 4}, b.Last(10))

	v, ok := b.Newest()
	require.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestWindowIsACopy(t *testing.T) {
	b, err := New[int](2)
	require.NoError(t, err)
	require.NoError(t, b.Seed([]int{1, 2}))

	w := b.Window()
	w[0] = 99
	assert.Equal(t, []int{1, 2}, b.Window())
}
