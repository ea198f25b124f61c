package telemetry

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const influxMeasurement = "lectura"

// Influx writes each record as one point, tagged by node.
type Influx struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
	now    func() time.Time
}

func DialInflux(url, token, org, bucket string) *Influx {
	client := influxdb2.NewClientWithOptions(url, token, influxdb2.DefaultOptions().SetHTTPRequestTimeout(10))
	i := NewInflux(client.WriteAPIBlocking(org, bucket))
	i.client = client
	return i
}

func NewInflux(w api.WriteAPIBlocking) *Influx {
	return &Influx{writer: w, now: time.Now}
}

func (i *Influx) Name() string { return "influx" }

func (i *Influx) Publish(ctx context.Context, rec Record) error {
	fields := map[string]interface{}{
		"temperatura": rec.Temperature,
		"humedad":     rec.Humidity,
		"co2":         rec.CO2,
	}
	if rec.Sound.IsLabel() {
		fields["sonido_clase"] = rec.Sound.Label
	} else {
		fields["sonido"] = rec.Sound.Value
	}
	if rec.Timestamp != nil {
		fields["timestamp"] = *rec.Timestamp
	}
	p := write.NewPoint(influxMeasurement, map[string]string{"nodo_id": rec.NodeID}, fields, i.now())
	return i.writer.WritePoint(ctx, p)
}

func (i *Influx) Close() error {
	if i.client != nil {
		i.client.Close()
	}
	return nil
}
