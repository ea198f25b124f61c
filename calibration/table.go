package calibration

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/gr-butler/vemat/classify"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var defaultTable []byte

type SoundReport string

const (
	// ReportValue sends the calibrated sound quantity as a number.
	ReportValue SoundReport = "value"
	// ReportBand sends the classifier band name instead of the number.
	ReportBand SoundReport = "band"
)

type Channel struct {
	Transform `yaml:",inline"`
	Unit      string `yaml:"unit"`
	Precision int    `yaml:"precision"`
	RawRange  int    `yaml:"raw_range,omitempty"`
}

// Profile is one deployment variant of the calibration table.
type Profile struct {
	Name             string                `yaml:"-"`
	Description      string                `yaml:"description"`
	ReferenceVoltage float64               `yaml:"reference_voltage"`
	RawRange         int                   `yaml:"raw_range"`
	Channels         map[ChannelID]Channel `yaml:"channels"`
	SoundReport      SoundReport           `yaml:"sound_report"`
	SoundBands       classify.Bands        `yaml:"sound_bands"`
}

type Table struct {
	Profiles map[string]*Profile `yaml:"profiles"`
}

func DefaultTable() (*Table, error) {
	return ParseTable(defaultTable)
}

func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTable(raw)
}

func ParseTable(raw []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("calibration table: %w", err)
	}
	if len(t.Profiles) == 0 {
		return nil, fmt.Errorf("calibration table has no profiles")
	}
	for name, p := range t.Profiles {
		if p == nil {
			return nil, fmt.Errorf("profile %q is empty", name)
		}
		p.Name = name
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return &t, nil
}

func (t *Table) Profile(name string) (*Profile, error) {
	p, ok := t.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown calibration profile %q (have %v)", name, t.Names())
	}
	return p, nil
}

func (t *Table) Names() []string {
	names := make([]string, 0, len(t.Profiles))
	for n := range t.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (p *Profile) validate() error {
	if p.ReferenceVoltage <= 0 {
		return fmt.Errorf("reference_voltage must be positive, got %v", p.ReferenceVoltage)
	}
	for _, id := range Channels {
		c, ok := p.Channels[id]
		if !ok {
			return fmt.Errorf("channel %q has no transform", id)
		}
		if err := c.Transform.validate(); err != nil {
			return fmt.Errorf("channel %q: %w", id, err)
		}
		if c.Precision < 0 || c.Precision > maxDecimalPlaces {
			return fmt.Errorf("channel %q: precision %d out of range", id, c.Precision)
		}
		if p.RawRangeFor(id) <= 0 {
			return fmt.Errorf("channel %q: raw_range must be positive", id)
		}
	}
	switch p.SoundReport {
	case ReportValue, ReportBand:
	case "":
		p.SoundReport = ReportValue
	default:
		return fmt.Errorf("unknown sound_report %q", p.SoundReport)
	}
	return p.SoundBands.Validate()
}

// RawRangeFor returns the channel's full-scale raw count, falling back to the
// profile wide value.
func (p *Profile) RawRangeFor(id ChannelID) int {
	if c, ok := p.Channels[id]; ok && c.RawRange > 0 {
		return c.RawRange
	}
	return p.RawRange
}

// Convert applies the channel transform and rounds to the channel precision.
func (p *Profile) Convert(id ChannelID, voltage float64) (float64, error) {
	c, ok := p.Channels[id]
	if !ok {
		return 0, fmt.Errorf("channel %q not in profile %q", id, p.Name)
	}
	return Round(c.Apply(voltage, p.ReferenceVoltage), c.Precision), nil
}

func (p *Profile) Unit(id ChannelID) string {
	return p.Channels[id].Unit
}
