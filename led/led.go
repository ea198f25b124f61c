package led

import (
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

const (
	pulse       = 100 * time.Millisecond
	maxFlickers = 100
)

// LED drives a single status indicator. A missing pin turns every call into a
// no-op so the node keeps running without its light.
type LED struct {
	Name    string
	lock    *sync.Mutex
	on      bool
	flash   time.Duration
	gpioPin gpio.PinIO
}

func NewLED(name string, GPIOPin string, flash time.Duration) *LED {
	logger.Infof("Creating new LED on pin [%v] called [%v]", GPIOPin, name)
	pin := gpioreg.ByName(GPIOPin)
	if pin == nil {
		logger.Errorf("Failed to find %v pin", GPIOPin)
	}
	l := newLED(name, pin, flash)
	// flicker to show it's working
	l.Flicker(2)
	return l
}

func newLED(name string, pin gpio.PinIO, flash time.Duration) *LED {
	if flash <= 0 {
		flash = pulse
	}
	return &LED{
		Name:    name,
		lock:    &sync.Mutex{},
		flash:   flash,
		gpioPin: pin,
	}
}

func (l *LED) On() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = true
	if l.gpioPin != nil {
		_ = l.gpioPin.Out(gpio.High)
	}
}

func (l *LED) Off() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = false
	if l.gpioPin != nil {
		_ = l.gpioPin.Out(gpio.Low)
	}
}

// Flash inverts the LED briefly. Requests that arrive mid flash are dropped.
func (l *LED) Flash() {
	if l.gpioPin == nil {
		return
	}
	if !l.lock.TryLock() {
		logger.Debugf("LED [%v] busy", l.Name)
		return
	}
	defer l.lock.Unlock()
	if !l.on {
		_ = l.gpioPin.Out(gpio.High)
		time.Sleep(l.flash)
		_ = l.gpioPin.Out(gpio.Low)
	} else {
		_ = l.gpioPin.Out(gpio.Low)
		time.Sleep(l.flash)
		_ = l.gpioPin.Out(gpio.High)
	}
}

// Flicker pulses the LED and leaves it off.
func (l *LED) Flicker(pulses int) {
	if l.gpioPin == nil {
		return
	}
	if pulses < 1 || pulses > maxFlickers {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	for i := 0; i < pulses; i++ {
		_ = l.gpioPin.Out(gpio.High)
		time.Sleep(l.flash)
		_ = l.gpioPin.Out(gpio.Low)
		time.Sleep(l.flash)
	}
	l.on = false
}

func (l *LED) IsOn() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.on
}
