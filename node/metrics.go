package node

import (
	"github.com/prometheus/client_golang/prometheus"
)

var Prom_temperature = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "vemat_temperature_celsius",
		Help: "Temperature in C",
	})

var Prom_humidity = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "vemat_humidity_percent",
		Help: "Relative humidity",
	})

var Prom_co2 = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "vemat_co2_ppm",
		Help: "CO2 concentration",
	})

var Prom_sound = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "vemat_sound",
		Help: "Acoustic channel in the profile unit (Hz or dB)",
	})

var Prom_channelVoltage = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "vemat_channel_voltage",
		Help: "Last sampled voltage per channel",
	}, []string{"channel"})

var Prom_registered = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "vemat_registered",
		Help: "1 once the node has registered",
	})

var Prom_registrations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vemat_registration_attempts_total",
		Help: "Registration attempts by result",
	}, []string{"result"})

var Prom_telemetry = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vemat_telemetry_sends_total",
		Help: "Telemetry sends by outcome",
	}, []string{"result"})

var Prom_sinkPublishes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vemat_sink_publishes_total",
		Help: "Mirror sink publishes by sink and result",
	}, []string{"sink", "result"})

func init() {
	prometheus.MustRegister(
		Prom_temperature,
		Prom_humidity,
		Prom_co2,
		Prom_sound,
		Prom_channelVoltage,
		Prom_registered,
		Prom_registrations,
		Prom_telemetry,
		Prom_sinkPublishes)
}
