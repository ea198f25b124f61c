package calibration

import (
	"fmt"
	"math"
)

/*
 * Calibration maps a channel voltage to a physical quantity. Every channel
 * carries exactly one transform and transforms never change once a profile
 * is loaded.
 */

type ChannelID string

const (
	Temperature ChannelID = "temperature"
	Humidity    ChannelID = "humidity"
	CO2         ChannelID = "co2"
	Sound       ChannelID = "sound"
)

// Channels in wiring priority order; temperature is always read first.
var Channels = []ChannelID{Temperature, Humidity, CO2, Sound}

type Kind string

const (
	// Linear maps 0..Vref onto intercept..intercept+span.
	Linear Kind = "linear"
	// TMP36 is the fixed transfer function of the TMP36 temperature sensor:
	// 10 mV/°C with a 500 mV offset at 0°C.
	TMP36 Kind = "tmp36"
)

const (
	tmp36Offset      = 0.5
	tmp36DegPerVolt  = 100.0
	maxDecimalPlaces = 6
)

type Transform struct {
	Kind      Kind    `yaml:"kind" json:"kind"`
	Intercept float64 `yaml:"intercept,omitempty" json:"intercept,omitempty"`
	Span      float64 `yaml:"span,omitempty" json:"span,omitempty"`
}

func (t Transform) Apply(voltage, vref float64) float64 {
	if t.Kind == TMP36 {
		return MapTemperature(voltage)
	}
	return MapLinear(voltage, t.Intercept, t.Span, vref)
}

func (t Transform) validate() error {
	switch t.Kind {
	case Linear, TMP36:
		return nil
	case "":
		return fmt.Errorf("missing transform kind")
	default:
		return fmt.Errorf("unknown transform kind %q", t.Kind)
	}
}

// MapTemperature converts a TMP36 output voltage to degrees Celsius.
func MapTemperature(voltage float64) float64 {
	return (voltage - tmp36Offset) * tmp36DegPerVolt
}

// MapLinear hits intercept at 0V and intercept+span at vref. vref must be positive.
func MapLinear(voltage, intercept, span, vref float64) float64 {
	return intercept + (voltage/vref)*span
}

// Round to the given number of decimal places.
func Round(value float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(value*p) / p
}
