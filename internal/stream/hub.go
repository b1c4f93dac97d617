// Package stream fans tracking events out to websocket clients, across
// instances through redis pub/sub.
package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"backend-billtrack/internal/metrics"
	"backend-billtrack/internal/tracking"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPattern = "tracking:*:events"
	publishQueue   = 256
)

type Hub struct {
	redis   *redis.Client
	log     *zap.Logger
	origin  string
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	ready  chan struct{}
	relay  chan outbound
}

// outbound is a message waiting for the redis relay.
type outbound struct {
	channel string
	msg     []byte
}

type Client struct {
	SessionID string
	Send      chan []byte
}

// envelope wraps payloads published to redis so an instance can skip its
// own messages, which it has already delivered locally.
type envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

func NewHub(redisClient *redis.Client, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		redis:   redisClient,
		log:     log,
		origin:  uuid.NewString(),
		clients: map[string]map[*Client]struct{}{},
		ctx:     ctx,
		cancel:  cancel,
		ready:   make(chan struct{}),
		relay:   make(chan outbound, publishQueue),
	}

	if redisClient != nil {
		go h.subscribeRedis()
		go h.runRelay()
	} else {
		close(h.ready)
	}
	return h
}

// Ready is closed once the redis subscription is established.
func (h *Hub) Ready() <-chan struct{} { return h.ready }

// Shutdown stops the redis subscription and relay.
func (h *Hub) Shutdown() { h.cancel() }

func (h *Hub) Register(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*Client]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	metrics.StreamClients.Inc()
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := sessionClients[client]; !ok {
		return
	}
	delete(sessionClients, client)
	if len(sessionClients) == 0 {
		delete(h.clients, client.SessionID)
	}
	close(client.Send)
	metrics.StreamClients.Dec()
}

func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// HandleEvent broadcasts a tracking event as JSON to the session's clients.
func (h *Hub) HandleEvent(e tracking.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		h.log.Error("encode tracking event", zap.String("session_id", e.SessionID), zap.Error(err))
		return
	}
	h.Broadcast(e.SessionID, payload)
}

func (h *Hub) Broadcast(sessionID string, payload []byte) {
	h.deliver(sessionID, payload)

	if h.redis == nil {
		return
	}
	msg, err := json.Marshal(envelope{Origin: h.origin, Payload: rawJSON(payload)})
	if err != nil {
		h.log.Error("encode stream envelope", zap.Error(err))
		return
	}
	// Broadcast runs on the tracker's event loop; redis gets a queue.
	select {
	case h.relay <- outbound{channel: redisChannel(sessionID), msg: msg}:
	default:
		metrics.StreamRelayed.WithLabelValues("dropped").Inc()
		h.log.Warn("redis relay queue full, dropping event", zap.String("session_id", sessionID))
	}
}

func (h *Hub) runRelay() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case out := <-h.relay:
			if err := h.redis.Publish(h.ctx, out.channel, out.msg).Err(); err != nil {
				metrics.StreamRelayed.WithLabelValues("failed").Inc()
				h.log.Warn("redis publish error", zap.String("channel", out.channel), zap.Error(err))
				continue
			}
			metrics.StreamRelayed.WithLabelValues("published").Inc()
		}
	}
}

// deliver holds the read lock while sending so Unregister cannot close a
// channel mid-send. Slow clients drop messages.
func (h *Hub) deliver(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	pubsub := h.redis.PSubscribe(h.ctx, channelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(h.ctx); err != nil {
		h.log.Warn("redis subscribe error", zap.Error(err))
		close(h.ready)
		return
	}
	close(h.ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.log.Warn("drop malformed stream message", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if env.Origin == h.origin {
				continue
			}
			h.deliver(sessionIDFromChannel(msg.Channel), env.Payload)
		}
	}
}

// rawJSON passes JSON payloads through untouched and quotes anything else.
func rawJSON(payload []byte) json.RawMessage {
	if json.Valid(payload) {
		return payload
	}
	quoted, _ := json.Marshal(string(payload))
	return quoted
}

func redisChannel(sessionID string) string {
	return "tracking:" + sessionID + ":events"
}

func sessionIDFromChannel(ch string) string {
	// tracking:{session}:events
	const prefix = "tracking:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) || !strings.HasPrefix(ch, prefix) || !strings.HasSuffix(ch, suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
