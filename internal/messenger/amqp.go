// internal/messenger/amqp.go
package messenger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// AMQP publishes on a durable topic exchange. Topics map to routing keys
// with "/" replaced by ".". The config queue is durable and named after the
// client id, so messages queued while the board sleeps survive.
type AMQP struct {
	url      string
	exchange string

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	clientID string
}

func NewAMQP(url, exchange string) *AMQP {
	return &AMQP{url: url, exchange: exchange}
}

func routingKey(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}

func (a *AMQP) Dial(ctx context.Context, cr Credentials) error {
	timeout := cr.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout || timeout == 0 {
			timeout = left
		}
	}

	cfg := amqp.Config{Dial: amqp.DefaultDial(timeout)}
	if cr.Username != "" {
		cfg.SASL = []amqp.Authentication{&amqp.PlainAuth{
			Username: cr.Username,
			Password: cr.Password,
		}}
	}

	conn, err := amqp.DialConfig(a.url, cfg)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(a.exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return err
	}

	a.mu.Lock()
	a.conn, a.ch, a.clientID = conn, ch, cr.ClientID
	a.mu.Unlock()
	return nil
}

func (a *AMQP) channel() *amqp.Channel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ch
}

func (a *AMQP) Publish(ctx context.Context, topic string, payload []byte) error {
	ch := a.channel()
	if ch == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ch.Publish(a.exchange, routingKey(topic), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
}

func (a *AMQP) Subscribe(ctx context.Context, topic string, fn func(payload []byte)) error {
	ch := a.channel()
	if ch == nil {
		return ErrNotConnected
	}

	a.mu.Lock()
	name := a.clientID + ".config"
	a.mu.Unlock()

	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return err
	}
	if err := ch.QueueBind(q.Name, routingKey(topic), a.exchange, false, nil); err != nil {
		return err
	}
	deliveries, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for d := range deliveries {
			fn(d.Body)
		}
	}()
	return nil
}

func (a *AMQP) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn != nil && !a.conn.IsClosed()
}

func (a *AMQP) Close() error {
	a.mu.Lock()
	conn, ch := a.conn, a.ch
	a.conn, a.ch = nil, nil
	a.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}
