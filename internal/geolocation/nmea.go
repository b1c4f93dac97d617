package geolocation

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"backend-billtrack/internal/shared/geo"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"
)

const (
	knotsToMps = 0.514444
	// uere is the user-equivalent range error used to turn HDOP into meters.
	uere = 5.0
)

// NMEAWatcher reads NMEA 0183 sentences from a serial GPS or any reader and
// emits one sample per valid RMC sentence.
type NMEAWatcher struct {
	open func() (io.ReadCloser, error)
	log  *zap.Logger

	mu     sync.Mutex
	active *stream
}

func NewNMEAWatcher(open func() (io.ReadCloser, error), log *zap.Logger) *NMEAWatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &NMEAWatcher{open: open, log: log}
}

func NewSerialWatcher(portName string, baudRate uint, log *zap.Logger) *NMEAWatcher {
	return NewNMEAWatcher(func() (io.ReadCloser, error) {
		return serial.Open(serial.OpenOptions{
			PortName:        portName,
			BaudRate:        baudRate,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
			ParityMode:      serial.PARITY_NONE,
		})
	}, log)
}

func (w *NMEAWatcher) Watch(ctx context.Context, opts Options) (Subscription, error) {
	w.mu.Lock()
	prev := w.active
	w.active = nil
	w.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}

	src, err := w.open()
	if err != nil {
		return nil, newError(CodePositionUnavailable, err)
	}

	var closeOnce sync.Once
	closeSrc := func() {
		closeOnce.Do(func() { _ = src.Close() })
	}

	s := newStream(ctx, opts, nil)
	s.onStop = func() {
		closeSrc()
		w.mu.Lock()
		if w.active == s {
			w.active = nil
		}
		w.mu.Unlock()
	}

	w.mu.Lock()
	w.active = s
	w.mu.Unlock()

	go w.read(src, s, closeSrc)
	return s, nil
}

func (w *NMEAWatcher) read(src io.Reader, s *stream, closeSrc func()) {
	defer closeSrc()

	reader := bufio.NewReader(src)
	var decoder nmeaDecoder
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if sample, ok := decoder.decode(line); ok {
				if !s.deliver(sample) {
					return
				}
			}
		}
		if err != nil {
			if s.isStopped() {
				return
			}
			if !errors.Is(err, io.EOF) {
				w.log.Warn("nmea read failed", zap.Error(err))
			}
			s.fail(newError(CodePositionUnavailable, err))
			return
		}
	}
}

// nmeaDecoder keeps the last GGA accuracy so it can be attached to the next
// RMC fix.
type nmeaDecoder struct {
	accuracy *float64
}

func (d *nmeaDecoder) decode(line string) (PositionSample, bool) {
	if !strings.HasPrefix(line, "$") {
		return PositionSample{}, false
	}
	sentence, err := nmea.Parse(line)
	if err != nil {
		return PositionSample{}, false
	}

	switch sentence.DataType() {
	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		if m.HDOP > 0 {
			d.accuracy = Float(m.HDOP * uere)
		}
	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		if m.Validity != nmea.ValidRMC {
			return PositionSample{}, false
		}
		coord, ok := geo.FromPair(m.Latitude, m.Longitude)
		if !ok {
			return PositionSample{}, false
		}
		return PositionSample{
			Coord:     coord,
			Heading:   Float(m.Course),
			Speed:     Float(m.Speed * knotsToMps),
			Accuracy:  d.accuracy,
			Timestamp: rmcTime(m),
		}, true
	}
	return PositionSample{}, false
}

func rmcTime(m nmea.RMC) time.Time {
	if !m.Date.Valid || !m.Time.Valid {
		return time.Now().UTC()
	}
	return time.Date(2000+m.Date.YY, time.Month(m.Date.MM), m.Date.DD,
		m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*int(time.Millisecond), time.UTC)
}
