package sensors

import (
	"fmt"

	"github.com/gr-butler/vemat/calibration"
	logger "github.com/sirupsen/logrus"
)

/*
 * Sensors reads the analog channels and turns raw counts into voltages.
 * Every read is a single instantaneous sample: no smoothing or debouncing.
 */

// Source yields one raw ADC count per call. Each call triggers one hardware
// acquisition.
type Source interface {
	Sample() (int, error)
}

// HardwareFault is returned when the acquisition itself fails. The node treats
// it as fatal.
type HardwareFault struct {
	Channel calibration.ChannelID
	Err     error
}

func (h *HardwareFault) Error() string {
	return fmt.Sprintf("hardware fault on channel %s: %v", h.Channel, h.Err)
}

func (h *HardwareFault) Unwrap() error {
	return h.Err
}

type Channel struct {
	ID       calibration.ChannelID
	RawRange int
	source   Source
}

func NewChannel(id calibration.ChannelID, rawRange int, src Source) *Channel {
	return &Channel{ID: id, RawRange: rawRange, source: src}
}

type Reading struct {
	Channel calibration.ChannelID `json:"channel"`
	Raw     int                   `json:"raw"`
	Voltage float64               `json:"voltage"`
}

// Read acquires one sample and normalises it to [0, vref].
func (c *Channel) Read(vref float64) (Reading, error) {
	raw, err := c.source.Sample()
	if err != nil {
		return Reading{}, &HardwareFault{Channel: c.ID, Err: err}
	}
	if raw < 0 || raw > c.RawRange {
		logger.Debugf("Raw sample [%v] outside 0..%v on %v, clamping", raw, c.RawRange, c.ID)
		raw = clamp(raw, c.RawRange)
	}
	return Reading{Channel: c.ID, Raw: raw, Voltage: Voltage(raw, c.RawRange, vref)}, nil
}

// Voltage = raw / rawRange * vref
func Voltage(raw, rawRange int, vref float64) float64 {
	return float64(raw) / float64(rawRange) * vref
}

func clamp(raw, max int) int {
	if raw < 0 {
		return 0
	}
	if raw > max {
		return max
	}
	return raw
}

// Bank holds the node's channels in wiring order.
type Bank struct {
	vref     float64
	channels []*Channel
}

// NewBank builds a bank from the profile, one source per channel. Every
// profile channel must have a source.
func NewBank(profile *calibration.Profile, sources map[calibration.ChannelID]Source) (*Bank, error) {
	b := &Bank{vref: profile.ReferenceVoltage}
	for _, id := range calibration.Channels {
		src, ok := sources[id]
		if !ok || src == nil {
			return nil, fmt.Errorf("no analog source for channel %s", id)
		}
		b.channels = append(b.channels, NewChannel(id, profile.RawRangeFor(id), src))
	}
	return b, nil
}

// ReadAll reads every channel in order, temperature first. The first hardware
// fault aborts the sweep.
func (b *Bank) ReadAll() ([]Reading, error) {
	readings := make([]Reading, 0, len(b.channels))
	for _, c := range b.channels {
		r, err := c.Read(b.vref)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, nil
}
