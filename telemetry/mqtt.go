package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

const (
	mqttQoS            = 0 // at most once, same as the primary POST
	mqttPublishTimeout = 10 * time.Second
	mqttConnectRetries = 5
	mqttDisconnectMs   = 250
)

type MQTTConfig struct {
	Broker   string
	Topic    string
	Username string
	Password string
	NodeID   string
}

// MQTTMirror republishes every record as JSON on a broker topic.
type MQTTMirror struct {
	client mqtt.Client
	topic  string
}

// DialMQTT connects with exponential backoff and gives up after a handful of
// attempts.
func DialMQTT(cfg MQTTConfig) (*MQTTMirror, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(fmt.Sprintf("vemat-%s-%s", cfg.NodeID, uuid.NewString()[:8]))
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Warnf("MQTT connect to %v failed [%v]", cfg.Broker, token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithMaxRetries(bo, mqttConnectRetries-1))
	if err != nil {
		return nil, fmt.Errorf("mqtt %s: %w", cfg.Broker, err)
	}
	logger.Infof("Connected to MQTT broker [%v], mirroring to [%v]", cfg.Broker, cfg.Topic)
	return NewMQTTMirror(client, cfg.Topic), nil
}

func NewMQTTMirror(client mqtt.Client, topic string) *MQTTMirror {
	return &MQTTMirror{client: client, topic: topic}
}

func (m *MQTTMirror) Name() string { return "mqtt" }

func (m *MQTTMirror) Publish(_ context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, mqttQoS, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("publish to %s timed out", m.topic)
	}
	return token.Error()
}

func (m *MQTTMirror) Close() error {
	if m.client.IsConnected() {
		m.client.Disconnect(mqttDisconnectMs)
	}
	return nil
}
