package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gr-butler/vemat/buffer"
	"github.com/gr-butler/vemat/calibration"
	"github.com/gr-butler/vemat/node"
	"github.com/gr-butler/vemat/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSnapshot node.Snapshot

func (f fixedSnapshot) Snapshot() node.Snapshot { return node.Snapshot(f) }

func TestStatusHandler(t *testing.T) {
	snap := fixedSnapshot{
		NodeID:      "node-01",
		Profile:     "reference",
		State:       "registered",
		Cycles:      4,
		LastRecord:  &telemetry.Record{NodeID: "node-01", CO2: 144.9, Sound: telemetry.SoundLabel("Alto")},
		LastOutcome: node.Sent,
		SoundBand:   "Alto",
		Voltages:    map[calibration.ChannelID]float64{calibration.CO2: 1.65},
		History:     map[calibration.ChannelID]buffer.Stats{calibration.CO2: {Count: 4, Last: 144.9, Average: 140, Minimum: 130, Maximum: 144.9}},
	}

	rec := httptest.NewRecorder()
	statusHandler(snap).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, version, body["version"])
	assert.Equal(t, "registered", body["state"])
	assert.Equal(t, "sent", body["last_outcome"])
	assert.Equal(t, 1.65, body["voltages"].(map[string]interface{})["co2"])

	last := body["last_record"].(map[string]interface{})
	assert.Equal(t, "Alto", last["sonido"])
	assert.Nil(t, last["timestamp"])

	history := body["history"].(map[string]interface{})["co2"].(map[string]interface{})
	assert.Equal(t, 130.0, history["min"])
	assert.NotContains(t, body, "last_error")
}
