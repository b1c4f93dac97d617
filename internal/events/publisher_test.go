package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"backend-billtrack/internal/tracking"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	declareErr error
	publishErr error
	published  []published
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declared = append(f.declared, name+":"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestPublisherRoutesMilestones(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch, "billtrack", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"billtrack:topic"}, ch.declared)

	at := time.Now().UTC()
	p.HandleEvent(tracking.Event{Type: tracking.EventSample, SessionID: "s1", At: at})
	p.HandleEvent(tracking.Event{Type: tracking.EventVisited, SessionID: "s1", At: at})
	p.HandleEvent(tracking.Event{Type: tracking.EventRoutePoint, SessionID: "s1", At: at})
	p.HandleEvent(tracking.Event{Type: tracking.EventAlert, SessionID: "s1", At: at})
	p.HandleEvent(tracking.Event{Type: tracking.EventState, SessionID: "s1", At: at, State: tracking.StateStopped})
	p.Shutdown()
	p.Shutdown()

	require.Len(t, ch.published, 3)
	assert.True(t, ch.closed)
	keys := []string{ch.published[0].key, ch.published[1].key, ch.published[2].key}
	assert.Equal(t, []string{"tracking.visited", "tracking.alert", "tracking.state"}, keys)

	last := ch.published[2]
	assert.Equal(t, "billtrack", last.exchange)
	assert.Equal(t, "application/json", last.msg.ContentType)
	assert.Equal(t, "s1", last.msg.Headers["session_id"])
	assert.NotEmpty(t, last.msg.MessageId)

	var e tracking.Event
	require.NoError(t, json.Unmarshal(last.msg.Body, &e))
	assert.Equal(t, tracking.StateStopped, e.State)
}

func TestPublisherDeclareError(t *testing.T) {
	_, err := NewPublisher(&fakeChannel{declareErr: errors.New("denied")}, "billtrack", nil)
	assert.Error(t, err)
}

func TestPublisherKeepsGoingAfterPublishError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("closed")}
	p, err := NewPublisher(ch, "billtrack", nil)
	require.NoError(t, err)

	p.HandleEvent(tracking.Event{Type: tracking.EventVisited, SessionID: "s1"})
	p.HandleEvent(tracking.Event{Type: tracking.EventAlert, SessionID: "s1"})
	p.Shutdown()

	assert.Empty(t, ch.published)
	assert.True(t, ch.closed)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "tracking.visited", RoutingKey(tracking.EventVisited))
}
