package telemetry

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"zonectl/internal/models"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// MQTTSink publishes to a real broker via paho.
type MQTTSink struct {
	client paho.Client
}

// NewMQTTSink connects to the broker. clientID should be stable per device
// so the broker can track the session.
func NewMQTTSink(broker, clientID, username, password string) (*MQTTSink, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)
	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return &MQTTSink{client: client}, nil
}

// PublishEvent sends one event to its type topic. Safety-relevant events go
// out QoS 1; the rest are fire-and-forget.
func (s *MQTTSink) PublishEvent(e models.ControllerEvent) error {
	payload, err := FormatEventPayload(e)
	if err != nil {
		return fmt.Errorf("format event payload: %w", err)
	}

	var qos byte
	if safetyCritical(e.Type) {
		qos = 1
	}
	topic := TopicEvents + "/" + strings.ToLower(string(e.Type))
	token := s.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// PublishStatus sends the device snapshot, retained so late subscribers see
// the current state immediately.
func (s *MQTTSink) PublishStatus(st models.ControllerStatus) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	token := s.client.Publish(TopicStatus, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish status timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(1000)
	return nil
}
