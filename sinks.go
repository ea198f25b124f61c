package main

import (
	"context"

	"github.com/gr-butler/vemat/env"
	"github.com/gr-butler/vemat/telemetry"
	logger "github.com/sirupsen/logrus"
)

// openSinks connects every configured mirror. A mirror that cannot be reached
// at start-up is skipped; the collection endpoint is still the primary.
func openSinks(ctx context.Context, cfg *env.Config) []telemetry.Sink {
	var sinks []telemetry.Sink

	if cfg.MQTT.Broker != "" {
		m, err := telemetry.DialMQTT(telemetry.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			NodeID:   cfg.Node.ID,
		})
		if err != nil {
			logger.Errorf("MQTT mirror disabled [%v]", err)
		} else {
			logger.Infof("Mirroring readings to [%v] topic [%v]", cfg.MQTT.Broker, cfg.MQTT.Topic)
			sinks = append(sinks, m)
		}
	}

	if cfg.Archive.DSN != "" {
		a, err := telemetry.OpenArchive(ctx, cfg.Archive.DSN, cfg.Archive.Table)
		if err != nil {
			logger.Errorf("Archive disabled [%v]", err)
		} else {
			logger.Infof("Archiving readings to table [%v]", cfg.Archive.Table)
			sinks = append(sinks, a)
		}
	}

	if cfg.Influx.URL != "" {
		logger.Infof("Writing readings to influx [%v] bucket [%v]", cfg.Influx.URL, cfg.Influx.Bucket)
		sinks = append(sinks, telemetry.DialInflux(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket))
	}
	return sinks
}

func closeSinks(sinks []telemetry.Sink) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			logger.Errorf("Failed to close %v [%v]", s.Name(), err)
		}
	}
}
