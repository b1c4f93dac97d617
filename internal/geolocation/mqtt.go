package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"backend-billtrack/internal/shared/geo"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTWatcher subscribes to a topic carrying JSON position fixes, published
// by a vehicle-mounted GPS unit.
type MQTTWatcher struct {
	broker   string
	clientID string
	topic    string
	log      *zap.Logger

	mu     sync.Mutex
	active *stream
}

func NewMQTTWatcher(broker, clientID, topic string, log *zap.Logger) *MQTTWatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &MQTTWatcher{broker: broker, clientID: clientID, topic: topic, log: log}
}

func (w *MQTTWatcher) Watch(ctx context.Context, opts Options) (Subscription, error) {
	w.mu.Lock()
	prev := w.active
	w.active = nil
	w.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}

	s := newStream(ctx, opts, nil)

	clientOpts := mqtt.NewClientOptions().
		AddBroker(w.broker).
		SetClientID(w.clientID).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.fail(newError(CodePositionUnavailable, err))
		})
	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		s.Stop()
		return nil, newError(CodePositionUnavailable, token.Error())
	}

	token := client.Subscribe(w.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		sample, err := decodeFix(msg.Payload())
		if err != nil {
			w.log.Debug("mqtt fix dropped", zap.String("topic", msg.Topic()), zap.Error(err))
			return
		}
		s.deliver(sample)
	})
	token.Wait()
	if token.Error() != nil {
		client.Disconnect(250)
		s.Stop()
		return nil, newError(CodePositionUnavailable, token.Error())
	}
	w.log.Info("mqtt position subscription started", zap.String("topic", w.topic))

	s.onStop = func() {
		client.Unsubscribe(w.topic).WaitTimeout(time.Second)
		client.Disconnect(250)
		w.mu.Lock()
		if w.active == s {
			w.active = nil
		}
		w.mu.Unlock()
	}

	w.mu.Lock()
	w.active = s
	w.mu.Unlock()
	return s, nil
}

// fix accepts both the GPS-unit format (lon, speed in knots, course) and the
// sample format posted by clients (lng, speed in m/s, heading).
type fix struct {
	Lat        *float64   `json:"lat"`
	Lon        *float64   `json:"lon"`
	Lng        *float64   `json:"lng"`
	SpeedKnots *float64   `json:"speed_knots"`
	Speed      *float64   `json:"speed"`
	CourseDeg  *float64   `json:"course_deg"`
	Heading    *float64   `json:"heading"`
	Accuracy   *float64   `json:"accuracy"`
	Validity   string     `json:"validity"`
	Timestamp  *time.Time `json:"timestamp"`
}

var errVoidFix = errors.New("void fix")

func decodeFix(payload []byte) (PositionSample, error) {
	var f fix
	if err := json.Unmarshal(payload, &f); err != nil {
		return PositionSample{}, err
	}
	if f.Validity != "" && f.Validity != "A" {
		return PositionSample{}, errVoidFix
	}
	lng := f.Lng
	if lng == nil {
		lng = f.Lon
	}
	if f.Lat == nil || lng == nil {
		return PositionSample{}, ErrInvalidSample
	}
	coord, ok := geo.FromPair(*f.Lat, *lng)
	if !ok {
		return PositionSample{}, ErrInvalidSample
	}

	sample := PositionSample{Coord: coord, Accuracy: f.Accuracy, Timestamp: time.Now().UTC()}
	if f.Timestamp != nil {
		sample.Timestamp = *f.Timestamp
	}
	switch {
	case f.Speed != nil:
		sample.Speed = f.Speed
	case f.SpeedKnots != nil:
		sample.Speed = Float(*f.SpeedKnots * knotsToMps)
	}
	switch {
	case f.Heading != nil:
		sample.Heading = f.Heading
	case f.CourseDeg != nil:
		sample.Heading = f.CourseDeg
	}
	return sample, nil
}
