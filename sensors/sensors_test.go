package sensors

import (
	"errors"
	"testing"

	"github.com/gr-butler/vemat/calibration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource struct {
	raw   int
	err   error
	calls int
	order *[]calibration.ChannelID
	id    calibration.ChannelID
}

func (f *fixedSource) Sample() (int, error) {
	f.calls++
	if f.order != nil {
		*f.order = append(*f.order, f.id)
	}
	return f.raw, f.err
}

func TestVoltageBoundedAndMonotonic(t *testing.T) {
	const rawRange = 65535
	prev := -1.0
	for r := 0; r <= rawRange; r += 97 {
		v := Voltage(r, rawRange, 3.3)
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 3.3)
		require.Greater(t, v, prev)
		prev = v
	}
	assert.Equal(t, 0.0, Voltage(0, rawRange, 3.3))
	assert.Equal(t, 3.3, Voltage(rawRange, rawRange, 3.3))
}

func TestChannelRead(t *testing.T) {
	src := &fixedSource{raw: 32767}
	c := NewChannel(calibration.CO2, 65535, src)

	r, err := c.Read(3.3)
	require.NoError(t, err)
	assert.Equal(t, calibration.CO2, r.Channel)
	assert.Equal(t, 32767, r.Raw)
	assert.InDelta(t, 1.65, r.Voltage, 1e-4)
	assert.Equal(t, 1, src.calls)

	// no smoothing: every read is a new acquisition
	src.raw = 0
	r, err = c.Read(3.3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Voltage)
	assert.Equal(t, 2, src.calls)
}

func TestChannelReadClamps(t *testing.T) {
	c := NewChannel(calibration.Sound, 100, &fixedSource{raw: 150})
	r, err := c.Read(3.3)
	require.NoError(t, err)
	assert.Equal(t, 100, r.Raw)
	assert.Equal(t, 3.3, r.Voltage)

	c = NewChannel(calibration.Sound, 100, &fixedSource{raw: -3})
	r, err = c.Read(3.3)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Raw)
}

func TestChannelReadHardwareFault(t *testing.T) {
	cause := errors.New("i2c nack")
	c := NewChannel(calibration.Humidity, 65535, &fixedSource{err: cause})

	_, err := c.Read(3.3)
	require.Error(t, err)
	var hf *HardwareFault
	require.True(t, errors.As(err, &hf))
	assert.Equal(t, calibration.Humidity, hf.Channel)
	assert.ErrorIs(t, err, cause)
}

func testProfile(t *testing.T) *calibration.Profile {
	table, err := calibration.DefaultTable()
	require.NoError(t, err)
	p, err := table.Profile("reference")
	require.NoError(t, err)
	return p
}

func TestBankReadAllOrder(t *testing.T) {
	var order []calibration.ChannelID
	sources := map[calibration.ChannelID]Source{}
	for i, id := range []calibration.ChannelID{calibration.Sound, calibration.CO2, calibration.Humidity, calibration.Temperature} {
		sources[id] = &fixedSource{raw: i * 1000, order: &order, id: id}
	}
	bank, err := NewBank(testProfile(t), sources)
	require.NoError(t, err)

	readings, err := bank.ReadAll()
	require.NoError(t, err)
	require.Len(t, readings, 4)
	assert.Equal(t, calibration.Channels, order)
	assert.Equal(t, calibration.Temperature, readings[0].Channel)
	assert.Equal(t, 3000, readings[0].Raw)
}

func TestBankReadAllStopsOnFault(t *testing.T) {
	hum := &fixedSource{err: errors.New("bus error")}
	co2 := &fixedSource{}
	bank, err := NewBank(testProfile(t), map[calibration.ChannelID]Source{
		calibration.Temperature: &fixedSource{raw: 10000},
		calibration.Humidity:    hum,
		calibration.CO2:         co2,
		calibration.Sound:       &fixedSource{},
	})
	require.NoError(t, err)

	readings, err := bank.ReadAll()
	require.Error(t, err)
	assert.Nil(t, readings)
	assert.Equal(t, 0, co2.calls)
}

func TestNewBankMissingSource(t *testing.T) {
	_, err := NewBank(testProfile(t), map[calibration.ChannelID]Source{
		calibration.Temperature: &fixedSource{},
	})
	require.Error(t, err)
}
