// internal/messenger/mqtt.go
package messenger

import (
	"context"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTT is a paho-backed Transport.
// Sessions are persistent so deltas sent while the board sleeps are
// delivered at the next connect.
type MQTT struct {
	url string
	qos byte

	mu sync.Mutex
	c  mqtt.Client
}

func NewMQTT(url string, qos byte) *MQTT {
	return &MQTT{url: url, qos: qos}
}

func (m *MQTT) Dial(ctx context.Context, cr Credentials) error {
	opts := mqtt.NewClientOptions().
		AddBroker(m.url).
		SetClientID(cr.ClientID).
		SetUsername(cr.Username).
		SetPassword(cr.Password).
		SetCleanSession(false).
		SetAutoReconnect(false).
		SetConnectTimeout(cr.Timeout).
		SetOrderMatters(true)

	c := mqtt.NewClient(opts)
	if err := wait(ctx, c.Connect()); err != nil {
		c.Disconnect(0)
		return err
	}

	m.mu.Lock()
	m.c = c
	m.mu.Unlock()
	return nil
}

func (m *MQTT) client() mqtt.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.c
}

func (m *MQTT) Publish(ctx context.Context, topic string, payload []byte) error {
	c := m.client()
	if c == nil {
		return ErrNotConnected
	}
	return wait(ctx, c.Publish(topic, m.qos, false, payload))
}

func (m *MQTT) Subscribe(ctx context.Context, topic string, fn func(payload []byte)) error {
	c := m.client()
	if c == nil {
		return ErrNotConnected
	}
	return wait(ctx, c.Subscribe(topic, m.qos, func(_ mqtt.Client, msg mqtt.Message) {
		fn(msg.Payload())
	}))
}

func (m *MQTT) Connected() bool {
	c := m.client()
	return c != nil && c.IsConnectionOpen()
}

func (m *MQTT) Close() error {
	m.mu.Lock()
	c := m.c
	m.c = nil
	m.mu.Unlock()

	if c != nil {
		c.Disconnect(250)
	}
	return nil
}

func wait(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
