package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var frequency = Bands{
	Unit: "Hz",
	Bands: []Band{
		{Name: "low", Below: 300},
		{Name: "transition", Below: 450},
		{Name: "aedes", Below: 600},
		{Name: "urban", Below: 1000},
	},
	Above: "high",
}

func TestClassify(t *testing.T) {
	cases := []struct {
		x    float64
		want string
	}{
		{-5, "low"},
		{0, "low"},
		{299.9, "low"},
		{300, "transition"},
		{449.99, "transition"},
		{450, "aedes"},
		{525, "aedes"},
		{600, "urban"},
		{999.9, "urban"},
		{1000, "high"},
		{2000, "high"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, frequency.Classify(c.x), "x=%v", c.x)
	}
}

func TestClassifyNoBands(t *testing.T) {
	b := Bands{Above: "any"}
	require.NoError(t, b.Validate())
	assert.Equal(t, "any", b.Classify(42))
}

func TestValidate(t *testing.T) {
	require.NoError(t, frequency.Validate())

	b := frequency
	b.Above = ""
	require.Error(t, b.Validate())

	unordered := Bands{Bands: []Band{{Name: "a", Below: 10}, {Name: "b", Below: 10}}, Above: "c"}
	require.Error(t, unordered.Validate())

	unnamed := Bands{Bands: []Band{{Below: 10}}, Above: "c"}
	require.Error(t, unnamed.Validate())
}
