// Package events publishes tracking milestones to an AMQP topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"backend-billtrack/internal/metrics"
	"backend-billtrack/internal/tracking"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch       Channel
	conn     *amqp.Connection
	exchange string
	log      *zap.Logger
	timeout  time.Duration

	queue chan tracking.Event
	once  sync.Once
	done  chan struct{}
}

// Dial connects to the broker and declares the topic exchange.
func Dial(url, exchange string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	p, err := NewPublisher(ch, exchange, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func NewPublisher(ch Channel, exchange string, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	p := &Publisher{
		ch:       ch,
		exchange: exchange,
		log:      log,
		timeout:  5 * time.Second,
		queue:    make(chan tracking.Event, 256),
		done:     make(chan struct{}),
	}
	go p.run()
	return p, nil
}

func RoutingKey(t tracking.EventType) string {
	return "tracking." + string(t)
}

// HandleEvent queues visited, alert and state events. Everything else is
// too chatty for the broker and stays on the websocket stream.
func (p *Publisher) HandleEvent(e tracking.Event) {
	switch e.Type {
	case tracking.EventVisited, tracking.EventAlert, tracking.EventState:
	default:
		return
	}
	select {
	case p.queue <- e:
	default:
		metrics.EventsPublished.WithLabelValues("dropped").Inc()
		p.log.Warn("event queue full, dropping event",
			zap.String("session_id", e.SessionID), zap.String("type", string(e.Type)))
	}
}

// Shutdown flushes queued events and closes the channel and connection.
func (p *Publisher) Shutdown() {
	p.once.Do(func() {
		close(p.queue)
		<-p.done
		if err := p.ch.Close(); err != nil {
			p.log.Debug("amqp channel close", zap.Error(err))
		}
		if p.conn != nil {
			p.conn.Close()
		}
	})
}

func (p *Publisher) run() {
	defer close(p.done)
	for e := range p.queue {
		if err := p.publish(e); err != nil {
			metrics.EventsPublished.WithLabelValues("error").Inc()
			p.log.Error("publish tracking event",
				zap.String("session_id", e.SessionID), zap.String("type", string(e.Type)), zap.Error(err))
			continue
		}
		metrics.EventsPublished.WithLabelValues("ok").Inc()
	}
}

func (p *Publisher) publish(e tracking.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(e.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    e.At,
		Type:         string(e.Type),
		Body:         body,
		Headers: amqp.Table{
			"session_id": e.SessionID,
		},
	})
}
