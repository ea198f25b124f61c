package led

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type recordingPin struct {
	*gpiotest.Pin
	levels []gpio.Level
}

func (r *recordingPin) Out(l gpio.Level) error {
	r.levels = append(r.levels, l)
	return r.Pin.Out(l)
}

func newPin() *recordingPin {
	return &recordingPin{Pin: &gpiotest.Pin{N: "GPIO20", Num: 20}}
}

func TestOnOff(t *testing.T) {
	pin := newPin()
	l := newLED("status", pin, time.Millisecond)

	l.On()
	assert.True(t, l.IsOn())
	assert.Equal(t, gpio.High, pin.Read())

	l.Off()
	assert.False(t, l.IsOn())
	assert.Equal(t, gpio.Low, pin.Read())
}

func TestFlicker(t *testing.T) {
	pin := newPin()
	l := newLED("status", pin, time.Millisecond)
	l.On()
	pin.levels = nil

	l.Flicker(3)
	assert.Equal(t, []gpio.Level{gpio.High, gpio.Low, gpio.High, gpio.Low, gpio.High, gpio.Low}, pin.levels)
	assert.False(t, l.IsOn())

	pin.levels = nil
	l.Flicker(0)
	l.Flicker(101)
	assert.Empty(t, pin.levels)
}

func TestFlashRestoresState(t *testing.T) {
	pin := newPin()
	l := newLED("status", pin, time.Millisecond)

	l.Flash()
	assert.Equal(t, []gpio.Level{gpio.High, gpio.Low}, pin.levels)

	l.On()
	pin.levels = nil
	l.Flash()
	assert.Equal(t, []gpio.Level{gpio.Low, gpio.High}, pin.levels)
	assert.True(t, l.IsOn())
}

func TestMissingPin(t *testing.T) {
	l := newLED("status", nil, 0)
	assert.NotPanics(t, func() {
		l.On()
		l.Flash()
		l.Flicker(3)
		l.Off()
	})
	assert.False(t, l.IsOn())
}
