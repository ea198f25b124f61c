package buffer

import (
	"math"
	"sync"
)

type Average float64
type Minimum float64
type Maximum float64

// SampleBuffer is a fixed size ring of the most recent values. Only slots that
// have been written count towards the statistics.
type SampleBuffer struct {
	lock     sync.Mutex
	data     []float64
	position int
	count    int
}

func NewBuffer(size int) *SampleBuffer {
	if size < 1 {
		size = 1
	}
	return &SampleBuffer{data: make([]float64, size)}
}

func (b *SampleBuffer) AddItem(val float64) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.data[b.position] = val
	b.position++
	if b.position == len(b.data) {
		b.position = 0
	}
	if b.count < len(b.data) {
		b.count++
	}
}

func (b *SampleBuffer) Len() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.count
}

func (b *SampleBuffer) GetSize() int {
	return len(b.data)
}

// GetLast returns the newest value, false when nothing was added yet.
func (b *SampleBuffer) GetLast() (float64, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.count == 0 {
		return 0, false
	}
	index := b.position - 1
	if index < 0 {
		index += len(b.data)
	}
	return b.data[index], true
}

// Items copies the stored values, oldest first.
func (b *SampleBuffer) Items() []float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	out := make([]float64, 0, b.count)
	start := b.position - b.count
	if start < 0 {
		start += len(b.data)
	}
	for i := 0; i < b.count; i++ {
		out = append(out, b.data[(start+i)%len(b.data)])
	}
	return out
}

func (b *SampleBuffer) GetAverageMinMax() (Average, Minimum, Maximum) {
	items := b.Items()
	if len(items) == 0 {
		return 0, 0, 0
	}
	min := math.MaxFloat64
	max := -math.MaxFloat64
	sum := 0.0
	for _, x := range items {
		if x > max {
			max = x
		}
		if x < min {
			min = x
		}
		sum += x
	}
	return Average(sum / float64(len(items))), Minimum(min), Maximum(max)
}

type Stats struct {
	Count   int     `json:"count"`
	Last    float64 `json:"last"`
	Average float64 `json:"avg"`
	Minimum float64 `json:"min"`
	Maximum float64 `json:"max"`
}

func (b *SampleBuffer) Stats() Stats {
	avg, mn, mx := b.GetAverageMinMax()
	last, _ := b.GetLast()
	return Stats{Count: b.Len(), Last: last, Average: float64(avg), Minimum: float64(mn), Maximum: float64(mx)}
}
