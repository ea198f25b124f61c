package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gr-butler/vemat/buffer"
	"github.com/gr-butler/vemat/calibration"
	"github.com/gr-butler/vemat/env"
	"github.com/gr-butler/vemat/rtc"
	"github.com/gr-butler/vemat/sensors"
	"github.com/gr-butler/vemat/telemetry"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	logger "github.com/sirupsen/logrus"
)

// State is the registration state. Registered is terminal for the process.
type State int

const (
	Unregistered State = iota
	Registering
	Registered
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Registering:
		return "registering"
	case Registered:
		return "registered"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Poster is the collection backend.
type Poster interface {
	Register(ctx context.Context, reg telemetry.Registration) (*telemetry.Response, error)
	Send(ctx context.Context, rec telemetry.Record) (*telemetry.Response, error)
}

type Reader interface {
	ReadAll() ([]sensors.Reading, error)
}

// Indicator is the status light. It is only ever written.
type Indicator interface {
	On()
	Off()
	Flicker(pulses int)
}

type Options struct {
	Identity   telemetry.Registration
	Profile    *calibration.Profile
	Reader     Reader
	Poster     Poster
	Timestamps rtc.Source
	Indicator  Indicator
	Sinks      []telemetry.Sink
	Clock      clockwork.Clock // waits between cycles

	ReportPeriod       time.Duration
	RegistrationRetry  time.Duration
	StrictRegistration bool
	HistoryLength      int
}

type Outcome string

const (
	Sent     Outcome = "sent"
	Rejected Outcome = "rejected"
	Failed   Outcome = "failed"
)

// CycleResult is what one reporting cycle produced. A failed send is an
// outcome, not an error: the record is dropped and the loop carries on.
type CycleResult struct {
	Record     telemetry.Record
	Band       string
	Readings   []sensors.Reading
	Outcome    Outcome
	StatusCode int
	Err        error
}

type Node struct {
	opts    Options
	retry   backoff.BackOff
	gauges  map[calibration.ChannelID]prometheus.Gauge
	lock    sync.Mutex
	state   State
	cycles  int
	last    *CycleResult
	voltage map[calibration.ChannelID]float64
	band    string
	history map[calibration.ChannelID]*buffer.SampleBuffer
}

func New(opts Options) (*Node, error) {
	if opts.Profile == nil {
		return nil, errors.New("no calibration profile")
	}
	if opts.Reader == nil {
		return nil, errors.New("no channel reader")
	}
	if opts.Poster == nil {
		return nil, errors.New("no collection client")
	}
	if opts.Indicator == nil {
		opts.Indicator = noIndicator{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.ReportPeriod <= 0 {
		opts.ReportPeriod = env.ReportPeriod
	}
	if opts.RegistrationRetry <= 0 {
		opts.RegistrationRetry = env.RegistrationRetry
	}
	if opts.HistoryLength <= 0 {
		opts.HistoryLength = env.HistoryLength
	}

	n := &Node{
		opts:  opts,
		retry: backoff.NewConstantBackOff(opts.RegistrationRetry),
		gauges: map[calibration.ChannelID]prometheus.Gauge{
			calibration.Temperature: Prom_temperature,
			calibration.Humidity:    Prom_humidity,
			calibration.CO2:         Prom_co2,
			calibration.Sound:       Prom_sound,
		},
		voltage: map[calibration.ChannelID]float64{},
		history: map[calibration.ChannelID]*buffer.SampleBuffer{},
	}
	for _, id := range calibration.Channels {
		n.history[id] = buffer.NewBuffer(opts.HistoryLength)
	}
	return n, nil
}

// Run registers and then reports every period until ctx is done or a channel
// read fails. Registration is retried forever.
func (n *Node) Run(ctx context.Context) error {
	state := Unregistered
	for {
		next, wait, err := n.Step(ctx, state)
		if err != nil {
			return err
		}
		state = next
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-n.opts.Clock.After(wait):
		}
	}
}

// Step runs one cycle from the given state and returns the new state and how
// long to wait before the next one. While not registered nothing is read or
// sent; a successful registration continues straight into the first report.
// The only error is a hardware fault.
func (n *Node) Step(ctx context.Context, state State) (State, time.Duration, error) {
	if state != Registered {
		n.setState(Registering)
		if err := n.register(ctx); err != nil {
			n.opts.Indicator.On()
			wait := n.retry.NextBackOff()
			logger.Infof("Retrying registration in [%v]", wait)
			return Registering, wait, nil
		}
		n.retry.Reset()
		n.setState(Registered)
		Prom_registered.Set(1)
		n.opts.Indicator.Off()
	}

	res, err := n.Cycle(ctx)
	if err != nil {
		return Registered, 0, err
	}
	n.report(ctx, res)
	return Registered, n.opts.ReportPeriod, nil
}

func (n *Node) register(ctx context.Context) error {
	resp, err := n.opts.Poster.Register(ctx, n.opts.Identity)
	if err != nil {
		Prom_registrations.WithLabelValues("error").Inc()
		logger.Errorf("Registration failed [%v]", err)
		return err
	}
	logger.Infof("Registration response [%v] [%v]", resp.Status, resp.Body)
	if !resp.OK() {
		if n.opts.StrictRegistration {
			Prom_registrations.WithLabelValues("rejected").Inc()
			logger.Errorf("Registration rejected [%v]", resp.Status)
			return fmt.Errorf("registration rejected: %s", resp.Status)
		}
		logger.Warnf("Registration returned [%v], node treated as registered", resp.Status)
	}
	Prom_registrations.WithLabelValues("ok").Inc()
	return nil
}

type measurement struct {
	readings []sensors.Reading
	values   map[calibration.ChannelID]float64
	band     string
}

func (n *Node) measure() (measurement, error) {
	readings, err := n.opts.Reader.ReadAll()
	if err != nil {
		return measurement{}, err
	}
	m := measurement{readings: readings, values: map[calibration.ChannelID]float64{}}
	for _, r := range readings {
		v, err := n.opts.Profile.Convert(r.Channel, r.Voltage)
		if err != nil {
			return measurement{}, err
		}
		m.values[r.Channel] = v
	}
	m.band = n.opts.Profile.SoundBands.Classify(m.values[calibration.Sound])
	n.observe(m)
	return m, nil
}

// Cycle reads every channel, builds the record and sends it once.
func (n *Node) Cycle(ctx context.Context) (CycleResult, error) {
	m, err := n.measure()
	if err != nil {
		return CycleResult{}, err
	}

	sound := telemetry.SoundValue(m.values[calibration.Sound])
	if n.opts.Profile.SoundReport == calibration.ReportBand {
		sound = telemetry.SoundLabel(m.band)
	}
	ts := rtc.Timestamp(n.opts.Timestamps)
	if ts == nil {
		logger.Debug("Clock unavailable, sending null timestamp")
	}
	rec := telemetry.Record{
		NodeID:      n.opts.Identity.NodeID,
		Temperature: m.values[calibration.Temperature],
		Humidity:    m.values[calibration.Humidity],
		CO2:         m.values[calibration.CO2],
		Sound:       sound,
		Timestamp:   ts,
	}
	res := CycleResult{Record: rec, Band: m.band, Readings: m.readings}

	resp, err := n.opts.Poster.Send(ctx, rec)
	switch {
	case err != nil:
		res.Outcome = Failed
		res.Err = err
	case !resp.OK():
		res.Outcome = Rejected
		res.StatusCode = resp.StatusCode
		res.Err = fmt.Errorf("status %s: %s", resp.Status, resp.Body)
	default:
		res.Outcome = Sent
		res.StatusCode = resp.StatusCode
		logger.Infof("Telemetry response [%v] [%v]", resp.Status, resp.Body)
	}
	return res, nil
}

func (n *Node) report(ctx context.Context, res CycleResult) {
	Prom_telemetry.WithLabelValues(string(res.Outcome)).Inc()
	switch res.Outcome {
	case Sent:
		n.opts.Indicator.Off()
		n.opts.Indicator.Flicker(env.LEDReadPulses)
	case Rejected:
		logger.Errorf("Telemetry rejected [%v]", res.Err)
		n.opts.Indicator.On()
	default:
		logger.Errorf("Failed to send telemetry [%v]", res.Err)
		n.opts.Indicator.On()
	}

	for _, s := range n.opts.Sinks {
		if err := s.Publish(ctx, res.Record); err != nil {
			Prom_sinkPublishes.WithLabelValues(s.Name(), "error").Inc()
			logger.Errorf("Failed to publish to %v [%v]", s.Name(), err)
			continue
		}
		Prom_sinkPublishes.WithLabelValues(s.Name(), "ok").Inc()
	}

	n.lock.Lock()
	defer n.lock.Unlock()
	n.cycles++
	n.last = &res
}

// Probe is the bench mode: read and log every period, never register or send.
func (n *Node) Probe(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		period = env.ProbePeriod
	}
	for {
		m, err := n.measure()
		if err != nil {
			return err
		}
		for _, r := range m.readings {
			logger.Infof("%v: [%v %v] voltage [%.3f V] raw [%v]",
				r.Channel, m.values[r.Channel], n.opts.Profile.Unit(r.Channel), r.Voltage, r.Raw)
		}
		logger.Infof("Sound band [%v]", m.band)
		n.opts.Indicator.Flicker(env.LEDReadPulses)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-n.opts.Clock.After(period):
		}
	}
}

func (n *Node) observe(m measurement) {
	for _, r := range m.readings {
		Prom_channelVoltage.WithLabelValues(string(r.Channel)).Set(r.Voltage)
		if g, ok := n.gauges[r.Channel]; ok {
			g.Set(m.values[r.Channel])
		}
		if h, ok := n.history[r.Channel]; ok {
			h.AddItem(m.values[r.Channel])
		}
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	for _, r := range m.readings {
		n.voltage[r.Channel] = r.Voltage
	}
	n.band = m.band
}

func (n *Node) setState(s State) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.state = s
}

func (n *Node) State() State {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.state
}

// Snapshot is the diagnostic view served on the status page.
type Snapshot struct {
	NodeID      string                                 `json:"nodo_id"`
	Profile     string                                 `json:"profile"`
	State       string                                 `json:"state"`
	Cycles      int                                    `json:"cycles"`
	LastRecord  *telemetry.Record                      `json:"last_record,omitempty"`
	LastOutcome Outcome                                `json:"last_outcome,omitempty"`
	LastError   string                                 `json:"last_error,omitempty"`
	SoundBand   string                                 `json:"sound_band,omitempty"`
	Voltages    map[calibration.ChannelID]float64      `json:"voltages"`
	History     map[calibration.ChannelID]buffer.Stats `json:"history"`
}

func (n *Node) Snapshot() Snapshot {
	n.lock.Lock()
	defer n.lock.Unlock()
	s := Snapshot{
		NodeID:    n.opts.Identity.NodeID,
		Profile:   n.opts.Profile.Name,
		State:     n.state.String(),
		Cycles:    n.cycles,
		SoundBand: n.band,
		Voltages:  map[calibration.ChannelID]float64{},
		History:   map[calibration.ChannelID]buffer.Stats{},
	}
	for id, v := range n.voltage {
		s.Voltages[id] = v
	}
	for id, h := range n.history {
		s.History[id] = h.Stats()
	}
	if n.last != nil {
		rec := n.last.Record
		s.LastRecord = &rec
		s.LastOutcome = n.last.Outcome
		if n.last.Err != nil {
			s.LastError = n.last.Err.Error()
		}
	}
	return s
}

type noIndicator struct{}

func (noIndicator) On() {}
func (noIndicator) Off() {}
func (noIndicator) Flicker(int) {}
