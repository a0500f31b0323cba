package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

var _ mqtt.Token = doneToken{}

type fakePublisher struct {
	topic    string
	qos      byte
	retained bool
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.topic, f.qos, f.retained = topic, qos, retained
	f.payloads = append(f.payloads, payload.([]byte))
	return doneToken{err: f.err}
}

func TestMQTTNotify(t *testing.T) {
	pub := &fakePublisher{}
	n := newMQTT(pub, "eclipse/notify", "rig-1")
	n.now = func() time.Time { return time.Date(2026, 8, 12, 16, 3, 0, 0, time.UTC) }

	n.Notify("Waiting 20 seconds", time.Second)

	if pub.topic != "eclipse/notify" || pub.qos != 0 || pub.retained {
		t.Errorf("published to %q qos=%d retained=%v", pub.topic, pub.qos, pub.retained)
	}
	if len(pub.payloads) != 1 {
		t.Fatalf("payloads = %d", len(pub.payloads))
	}
	var got Notification
	if err := json.Unmarshal(pub.payloads[0], &got); err != nil {
		t.Fatal(err)
	}
	if got.Message != "Waiting 20 seconds" || got.DurationMs != 1000 || got.Source != "rig-1" {
		t.Errorf("payload = %+v", got)
	}
}

func TestMQTTNotifySwallowsErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	n := newMQTT(pub, "eclipse/notify", "")
	n.Notify("Too late!", 0)
	n.Close()
	if len(pub.payloads) != 1 {
		t.Errorf("payloads = %d", len(pub.payloads))
	}
}

func TestConsoleAndMulti(t *testing.T) {
	var a, b bytes.Buffer
	m := Multi{NewConsole(&a), nil, NewConsole(&b)}
	m.Notify("Configuration accepted.", time.Second)

	for _, buf := range []*bytes.Buffer{&a, &b} {
		if buf.String() != "[notify] Configuration accepted.\n" {
			t.Errorf("console output = %q", buf.String())
		}
	}
}
