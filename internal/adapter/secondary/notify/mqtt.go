package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"eclipse-sequencer/internal/domain"
	"eclipse-sequencer/internal/logging"
)

// MQTTConfig holds the broker connection and the topic notifications go to.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	Source   string
}

// Notification is the JSON payload published for every message.
type Notification struct {
	Time       time.Time `json:"ts"`
	Message    string    `json:"message"`
	DurationMs int64     `json:"durationMs"`
	Source     string    `json:"source,omitempty"`
}

// publisher is the part of mqtt.Client the notifier needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT mirrors notifications to an MQTT topic so that a phone or a second
// screen can follow the sequence. Publish failures are logged only.
type MQTT struct {
	client  publisher
	topic   string
	source  string
	timeout time.Duration
	close   func()
	now     func() time.Time
}

var _ domain.Notifier = (*MQTT)(nil)

// NewMQTT connects to the broker and returns a notifier publishing on cfg.Topic.
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logging.Warnf("MQTT: connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to MQTT broker %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", cfg.Broker, err)
	}
	logging.Infof("MQTT: connected to broker %s", cfg.Broker)

	n := newMQTT(client, cfg.Topic, cfg.Source)
	n.close = func() { client.Disconnect(250) }
	return n, nil
}

func newMQTT(client publisher, topic, source string) *MQTT {
	return &MQTT{
		client:  client,
		topic:   topic,
		source:  source,
		timeout: 2 * time.Second,
		close:   func() {},
		now:     time.Now,
	}
}

// Notify publishes the message with QoS 0, not retained.
func (m *MQTT) Notify(message string, duration time.Duration) {
	payload, err := json.Marshal(Notification{
		Time:       m.now(),
		Message:    message,
		DurationMs: duration.Milliseconds(),
		Source:     m.source,
	})
	if err != nil {
		logging.Warnf("MQTT: marshal notification: %v", err)
		return
	}

	token := m.client.Publish(m.topic, 0, false, payload)
	if !token.WaitTimeout(m.timeout) {
		logging.Warnf("MQTT: publish to %s timed out", m.topic)
		return
	}
	if err := token.Error(); err != nil {
		logging.Warnf("MQTT: publish to %s: %v", m.topic, err)
	}
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.close()
	logging.Debugf("MQTT: disconnected")
}
