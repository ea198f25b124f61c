package env

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	MQTTPasswordVar = "VEMAT_MQTT_PASSWORD"
	ArchiveDSNVar   = "VEMAT_ARCHIVE_DSN"
	InfluxTokenVar  = "VEMAT_INFLUX_TOKEN"
)

type Args struct {
	Test       *bool
	Verbose    *bool
	ConfigPath *string
	Profile    *string
}

func ParseArgs(fs *flag.FlagSet, arguments []string) (Args, error) {
	a := Args{
		Test:       fs.Bool("test", false, "bench mode, reads and logs channels but never registers or sends"),
		Verbose:    fs.Bool("verbose", false, "debug logging"),
		ConfigPath: fs.String("config", "", "YAML configuration file"),
		Profile:    fs.String("profile", "", "calibration profile, overrides the config file"),
	}
	err := fs.Parse(arguments)
	return a, err
}

type Config struct {
	Node            NodeConfig     `yaml:"node"`
	Endpoints       EndpointConfig `yaml:"endpoints"`
	Profile         string         `yaml:"profile"`
	CalibrationFile string         `yaml:"calibration_file"`
	Timing          TimingConfig   `yaml:"timing"`
	Hardware        HardwareConfig `yaml:"hardware"`
	Clock           ClockConfig    `yaml:"clock"`
	Status          StatusConfig   `yaml:"status"`
	MQTT            MQTTConfig     `yaml:"mqtt"`
	Archive         ArchiveConfig  `yaml:"archive"`
	Influx          InfluxConfig   `yaml:"influx"`
}

type NodeConfig struct {
	ID        string  `yaml:"id"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type EndpointConfig struct {
	Registration string        `yaml:"registration"`
	Telemetry    string        `yaml:"telemetry"`
	Timeout      time.Duration `yaml:"timeout"`
	// StrictStatus makes a non-2xx registration response a failure. Off by
	// default: any response registers the node.
	StrictStatus bool `yaml:"strict_status"`
}

type TimingConfig struct {
	ReportPeriod      time.Duration `yaml:"report_period"`
	RegistrationRetry time.Duration `yaml:"registration_retry"`
	ProbePeriod       time.Duration `yaml:"probe_period"`
}

type HardwareConfig struct {
	I2CBus       string         `yaml:"i2c_bus"`
	ADCAddress   uint16         `yaml:"adc_address"`
	Channels     map[string]int `yaml:"channels"`
	LEDPin       string         `yaml:"led_pin"`
	OpenAttempts int            `yaml:"open_attempts"`
	OpenRetry    time.Duration  `yaml:"open_retry"`
}

type ClockConfig struct {
	MinValid time.Time `yaml:"min_valid"`
	TimeZone string    `yaml:"timezone"`
}

type StatusConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"-"`
}

type ArchiveConfig struct {
	DSN   string `yaml:"-"`
	Table string `yaml:"table"`
}

type InfluxConfig struct {
	URL    string `yaml:"url"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
	Token  string `yaml:"-"`
}

// Default is the build-time configuration of a reference node.
func Default() *Config {
	return &Config{
		Node: NodeConfig{ID: NodeID, Latitude: Latitude, Longitude: Longitude},
		Endpoints: EndpointConfig{
			Registration: RegistrationURL,
			Telemetry:    TelemetryURL,
			Timeout:      HTTPTimeout,
		},
		Profile: DefaultProfile,
		Timing: TimingConfig{
			ReportPeriod:      ReportPeriod,
			RegistrationRetry: RegistrationRetry,
			ProbePeriod:       ProbePeriod,
		},
		Hardware: HardwareConfig{
			ADCAddress: ADS1115Address,
			Channels: map[string]int{
				"temperature": TemperatureInput,
				"humidity":    HumidityInput,
				"co2":         CO2Input,
				"sound":       SoundInput,
			},
			LEDPin:       StatusLed,
			OpenAttempts: ADCOpenAttempts,
			OpenRetry:    ADCOpenRetry,
		},
		Clock:   ClockConfig{MinValid: ClockMinValid, TimeZone: "UTC"},
		Status:  StatusConfig{Addr: ":8080"},
		Archive: ArchiveConfig{Table: "lecturas"},
	}
}

// Load decodes the YAML file at path over the defaults. An empty path keeps
// the build-time defaults. Secrets come from the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	cfg.readSecrets()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readSecrets() {
	if v, ok := os.LookupEnv(MQTTPasswordVar); ok {
		c.MQTT.Password = v
	}
	if v, ok := os.LookupEnv(ArchiveDSNVar); ok {
		c.Archive.DSN = v
	}
	if v, ok := os.LookupEnv(InfluxTokenVar); ok {
		c.Influx.Token = v
	}
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Endpoints.Timeout == 0 {
		c.Endpoints.Timeout = d.Endpoints.Timeout
	}
	if c.Profile == "" {
		c.Profile = d.Profile
	}
	if c.Timing.ReportPeriod == 0 {
		c.Timing.ReportPeriod = d.Timing.ReportPeriod
	}
	if c.Timing.RegistrationRetry == 0 {
		c.Timing.RegistrationRetry = d.Timing.RegistrationRetry
	}
	if c.Timing.ProbePeriod == 0 {
		c.Timing.ProbePeriod = d.Timing.ProbePeriod
	}
	if c.Hardware.OpenAttempts < 1 {
		c.Hardware.OpenAttempts = 1
	}
	if c.Hardware.OpenRetry == 0 {
		c.Hardware.OpenRetry = d.Hardware.OpenRetry
	}
	if c.Clock.MinValid.IsZero() {
		c.Clock.MinValid = d.Clock.MinValid
	}
	if c.Clock.TimeZone == "" {
		c.Clock.TimeZone = d.Clock.TimeZone
	}
	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		c.MQTT.Topic = fmt.Sprintf("vemat/%s/lecturas", c.Node.ID)
	}
	if c.Archive.Table == "" {
		c.Archive.Table = d.Archive.Table
	}
}

func (c *Config) validate() error {
	if c.Node.ID == "" {
		return fmt.Errorf("node.id is required")
	}
	if c.Node.Latitude < -90 || c.Node.Latitude > 90 {
		return fmt.Errorf("node.latitude %v out of range", c.Node.Latitude)
	}
	if c.Node.Longitude < -180 || c.Node.Longitude > 180 {
		return fmt.Errorf("node.longitude %v out of range", c.Node.Longitude)
	}
	for name, u := range map[string]string{
		"endpoints.registration": c.Endpoints.Registration,
		"endpoints.telemetry":    c.Endpoints.Telemetry,
	} {
		parsed, err := url.Parse(u)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s %q is not an absolute URL", name, u)
		}
	}
	if c.Timing.ReportPeriod < 0 || c.Timing.RegistrationRetry < 0 || c.Timing.ProbePeriod < 0 {
		return fmt.Errorf("timing values must not be negative")
	}
	if c.Influx.URL != "" && (c.Influx.Org == "" || c.Influx.Bucket == "") {
		return fmt.Errorf("influx.org and influx.bucket are required with influx.url")
	}
	if _, err := time.LoadLocation(c.Clock.TimeZone); err != nil {
		return fmt.Errorf("clock.timezone: %w", err)
	}
	return nil
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Clock.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
