package env

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "node-01", cfg.Node.ID)
	assert.Equal(t, 10.43079, cfg.Node.Latitude)
	assert.Equal(t, -85.08499, cfg.Node.Longitude)
	assert.Equal(t, RegistrationURL, cfg.Endpoints.Registration)
	assert.Equal(t, TelemetryURL, cfg.Endpoints.Telemetry)
	assert.False(t, cfg.Endpoints.StrictStatus)
	assert.Equal(t, 60*time.Second, cfg.Timing.ReportPeriod)
	assert.Equal(t, 10*time.Second, cfg.Timing.RegistrationRetry)
	assert.Equal(t, "reference", cfg.Profile)
	assert.Equal(t, 0, cfg.Hardware.Channels["temperature"])
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Empty(t, cfg.MQTT.Topic)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(MQTTPasswordVar, "s3cret")
	t.Setenv(ArchiveDSNVar, "postgres://vemat@db/vemat")

	path := filepath.Join(t.TempDir(), "node.yaml")
	data := `
node:
  id: node-07
  latitude: 9.93
  longitude: -84.08
endpoints:
  registration: http://collector.local/api/geo
  telemetry: http://collector.local/api/lecturas
  strict_status: true
profile: urban
timing:
  report_period: 30s
hardware:
  channels:
    sound: 2
    co2: 3
mqtt:
  broker: tcp://broker.local:1883
clock:
  timezone: America/Costa_Rica
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "node-07", cfg.Node.ID)
	assert.True(t, cfg.Endpoints.StrictStatus)
	assert.Equal(t, HTTPTimeout, cfg.Endpoints.Timeout)
	assert.Equal(t, "urban", cfg.Profile)
	assert.Equal(t, 30*time.Second, cfg.Timing.ReportPeriod)
	assert.Equal(t, 10*time.Second, cfg.Timing.RegistrationRetry)
	assert.Equal(t, 2, cfg.Hardware.Channels["sound"])
	assert.Equal(t, 3, cfg.Hardware.Channels["co2"])
	assert.Equal(t, "vemat/node-07/lecturas", cfg.MQTT.Topic)
	assert.Equal(t, "s3cret", cfg.MQTT.Password)
	assert.Equal(t, "postgres://vemat@db/vemat", cfg.Archive.DSN)
	assert.Equal(t, "America/Costa_Rica", cfg.Location().String())
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"no id":        "node: {id: \"\"}",
		"latitude":     "node: {latitude: 91}",
		"relative url": "endpoints: {telemetry: /api/lecturas}",
		"negative":     "timing: {report_period: -1s}",
		"influx":       "influx: {url: http://influx:8086}",
		"zone":         "clock: {timezone: Mars/Olympus}",
	}
	for name, data := range cases {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
		_, err := Load(path)
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseArgs(t *testing.T) {
	fs := flag.NewFlagSet("vemat", flag.ContinueOnError)
	args, err := ParseArgs(fs, []string{"-test", "-profile", "bench", "-config", "/etc/vemat.yaml"})
	require.NoError(t, err)
	assert.True(t, *args.Test)
	assert.False(t, *args.Verbose)
	assert.Equal(t, "bench", *args.Profile)
	assert.Equal(t, "/etc/vemat.yaml", *args.ConfigPath)
}
