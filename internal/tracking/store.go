package tracking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store persists tracking events in the background so database latency never
// holds up sample processing. Events are written in emission order.
type Store struct {
	svc   *Service
	log   *zap.Logger
	queue chan Event
	once  sync.Once
	done  chan struct{}
}

func NewStore(svc *Service, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	st := &Store{
		svc:   svc,
		log:   log,
		queue: make(chan Event, 256),
		done:  make(chan struct{}),
	}
	go st.run()
	return st
}

func (st *Store) HandleEvent(e Event) {
	switch e.Type {
	case EventRoutePoint, EventVisited, EventState, EventReset:
	default:
		return
	}
	select {
	case st.queue <- e:
	default:
		st.log.Warn("store queue full, dropping event",
			zap.String("session_id", e.SessionID), zap.String("type", string(e.Type)))
	}
}

// Close flushes queued events and stops the writer.
func (st *Store) Close() {
	st.once.Do(func() {
		close(st.queue)
		<-st.done
	})
}

func (st *Store) run() {
	defer close(st.done)
	for e := range st.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := st.write(ctx, e); err != nil {
			st.log.Error("persist tracking event failed",
				zap.String("session_id", e.SessionID), zap.String("type", string(e.Type)), zap.Error(err))
		}
		cancel()
	}
}

func (st *Store) write(ctx context.Context, e Event) error {
	switch e.Type {
	case EventRoutePoint:
		if e.RoutePoint == nil {
			return nil
		}
		_, err := st.svc.AddPoint(ctx, e.SessionID, *e.RoutePoint, e.DeltaM)
		return err
	case EventVisited:
		if e.Billboard == nil {
			return nil
		}
		return st.svc.RecordVisit(ctx, Visit{
			SessionID:   e.SessionID,
			BillboardID: e.Billboard.ID,
			DistanceM:   e.Billboard.DistanceM,
			VisitedAt:   e.At,
		})
	case EventState:
		return st.svc.UpdateStatus(ctx, e.SessionID, e.State)
	case EventReset:
		return st.svc.ResetSession(ctx, e.SessionID)
	}
	return nil
}
