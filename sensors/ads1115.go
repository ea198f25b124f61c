package sensors

import (
	"fmt"
	"math"

	"github.com/cenkalti/backoff/v4"
	"github.com/gr-butler/vemat/calibration"
	"github.com/gr-butler/vemat/env"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

var adsInputs = []ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ADC is the four input ADS1115 the channels are wired to.
type ADC struct {
	bus  i2c.BusCloser
	dev  *ads1x15.Dev
	pins []ads1x15.PinADC
}

// adcSource rescales an ADS1115 reading onto the channel's count range so the
// reader sees the same 0..rawRange counts the profile was calibrated against.
type adcSource struct {
	pin      ads1x15.PinADC
	vref     float64
	rawRange int
}

func (a *adcSource) Sample() (int, error) {
	s, err := a.pin.Read()
	if err != nil {
		return 0, err
	}
	volts := float64(s.V) / float64(physic.Volt)
	return int(math.Round(volts / a.vref * float64(a.rawRange))), nil
}

// OpenADC initialises the host, opens the I2C bus and binds every profile
// channel to its ADS1115 input. Opening is retried a bounded number of times.
func OpenADC(hw env.HardwareConfig, profile *calibration.Profile) (*Bank, *ADC, error) {
	if _, err := host.Init(); err != nil {
		logger.Errorf("Failed to init host [%v]", err)
		return nil, nil, err
	}

	var adc *ADC
	var bank *Bank
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		var err error
		adc, bank, err = openADC(hw, profile)
		if err != nil {
			logger.Errorf("ADC open attempt %d failed [%v]", attempt, err)
		}
		return err
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(hw.OpenRetry), uint64(hw.OpenAttempts-1)))
	if err != nil {
		return nil, nil, fmt.Errorf("ADC unavailable after %d attempts: %w", attempt, err)
	}
	return bank, adc, nil
}

func openADC(hw env.HardwareConfig, profile *calibration.Profile) (*ADC, *Bank, error) {
	bus, err := i2creg.Open(hw.I2CBus)
	if err != nil {
		return nil, nil, fmt.Errorf("open I²C %q: %w", hw.I2CBus, err)
	}

	opts := ads1x15.DefaultOpts
	if hw.ADCAddress != 0 {
		opts.I2cAddress = hw.ADCAddress
	}
	logger.Infof("Starting ADS1115 ADC I2C [%x]", opts.I2cAddress)
	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		_ = bus.Close()
		return nil, nil, err
	}

	adc := &ADC{bus: bus, dev: dev}
	maxV := physic.ElectricPotential(profile.ReferenceVoltage * float64(physic.Volt))
	sources := make(map[calibration.ChannelID]Source)
	for _, id := range calibration.Channels {
		input, ok := hw.Channels[string(id)]
		if !ok || input < 0 || input >= len(adsInputs) {
			_ = adc.Close()
			return nil, nil, fmt.Errorf("channel %s has no valid ADS1115 input (%v)", id, input)
		}
		pin, err := dev.PinForChannel(adsInputs[input], maxV, 1*physic.Hertz, ads1x15.BestQuality)
		if err != nil {
			_ = adc.Close()
			return nil, nil, err
		}
		adc.pins = append(adc.pins, pin)
		logger.Infof("Channel [%v] on ADS1115 input A%d", id, input)
		sources[id] = &adcSource{pin: pin, vref: profile.ReferenceVoltage, rawRange: profile.RawRangeFor(id)}
	}

	bank, err := NewBank(profile, sources)
	if err != nil {
		_ = adc.Close()
		return nil, nil, err
	}
	return adc, bank, nil
}

func (a *ADC) Close() error {
	for _, p := range a.pins {
		_ = p.Halt()
	}
	if a.dev != nil {
		_ = a.dev.Halt()
	}
	return a.bus.Close()
}
