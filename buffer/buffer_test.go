package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddItem(t *testing.T) {
	buf := NewBuffer(10)

	a, mn, mx := buf.GetAverageMinMax()
	assert.Equal(t, Average(0), a)
	assert.Equal(t, Minimum(0), mn)
	assert.Equal(t, Maximum(0), mx)
	_, ok := buf.GetLast()
	assert.False(t, ok)

	for i := 0; i < 10; i++ {
		buf.AddItem(1)
	}
	a, mn, mx = buf.GetAverageMinMax()
	assert.Equal(t, Average(1), a)
	assert.Equal(t, Minimum(1), mn)
	assert.Equal(t, Maximum(1), mx)

	buf.AddItem(10)
	a, mn, mx = buf.GetAverageMinMax()
	assert.Equal(t, Average(1.9), a)
	assert.Equal(t, Minimum(1), mn)
	assert.Equal(t, Maximum(10), mx)

	buf.AddItem(5)
	a, _, _ = buf.GetAverageMinMax()
	assert.Equal(t, Average(2.3), a)
	assert.Equal(t, 10, buf.Len())
}

func TestPartialFill(t *testing.T) {
	buf := NewBuffer(60)
	buf.AddItem(-2)
	buf.AddItem(4)
	buf.AddItem(7)

	s := buf.Stats()
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 7.0, s.Last)
	assert.Equal(t, 3.0, s.Average)
	assert.Equal(t, -2.0, s.Minimum)
	assert.Equal(t, 7.0, s.Maximum)
}

func TestItemsOrderAfterWrap(t *testing.T) {
	buf := NewBuffer(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		buf.AddItem(v)
	}
	assert.Equal(t, []float64{3, 4, 5}, buf.Items())
	last, ok := buf.GetLast()
	assert.True(t, ok)
	assert.Equal(t, 5.0, last)
	assert.Equal(t, 3, buf.GetSize())
}

func TestMinimumSize(t *testing.T) {
	buf := NewBuffer(0)
	buf.AddItem(3)
	buf.AddItem(8)
	assert.Equal(t, []float64{8}, buf.Items())
}
