package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/go-querystring/query"
)

// Registration announces the node and its fixed coordinates.
type Registration struct {
	NodeID    string  `json:"nodo_id" url:"nodo_id"`
	Latitude  float64 `json:"latitud" url:"latitud"`
	Longitude float64 `json:"longitud" url:"longitud"`
}

// Record is one reporting cycle. Numeric fields are already rounded and
// Timestamp is nil when no clock was available.
type Record struct {
	NodeID      string  `json:"nodo_id" url:"nodo_id"`
	Temperature float64 `json:"temperatura" url:"temperatura"`
	Humidity    float64 `json:"humedad" url:"humedad"`
	CO2         float64 `json:"co2" url:"co2"`
	Sound       Sound   `json:"sonido" url:"sonido"`
	Timestamp   *string `json:"timestamp" url:"timestamp,omitempty"`
}

// Sound is sent either as a number or as a classification label, depending on
// the deployment profile.
type Sound struct {
	Value float64
	Label string
}

func SoundValue(v float64) Sound { return Sound{Value: v} }

func SoundLabel(l string) Sound { return Sound{Label: l} }

func (s Sound) IsLabel() bool { return s.Label != "" }

func (s Sound) String() string {
	if s.IsLabel() {
		return s.Label
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

func (s Sound) MarshalJSON() ([]byte, error) {
	if s.IsLabel() {
		return json.Marshal(s.Label)
	}
	return json.Marshal(s.Value)
}

func (s *Sound) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var l string
		if err := json.Unmarshal(data, &l); err != nil {
			return err
		}
		*s = Sound{Label: l}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("sonido must be a number or a string: %w", err)
	}
	*s = Sound{Value: v}
	return nil
}

// EncodeValues lets go-querystring flatten Sound into a single key.
func (s Sound) EncodeValues(key string, v *url.Values) error {
	v.Set(key, s.String())
	return nil
}

// Values is the url-encoded form used for log lines.
func (r Record) Values() url.Values {
	v, _ := query.Values(r)
	return v
}

func (r Registration) Values() url.Values {
	v, _ := query.Values(r)
	return v
}
