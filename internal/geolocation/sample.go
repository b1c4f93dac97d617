// Package geolocation turns device position sources into cancellable
// subscriptions of PositionSample values.
package geolocation

import (
	"time"

	"backend-billtrack/internal/shared/geo"
)

// PositionSample is one position update. Heading is degrees clockwise from
// north, Speed is m/s and Accuracy is meters; any of them may be unknown.
type PositionSample struct {
	Coord     geo.Coordinate `json:"coord"`
	Heading   *float64       `json:"heading,omitempty"`
	Speed     *float64       `json:"speed,omitempty"`
	Accuracy  *float64       `json:"accuracy,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type Options struct {
	HighAccuracy bool
	// MaximumAge is how old a cached position may be. Zero means always fresh.
	MaximumAge time.Duration
	// Timeout is the longest gap allowed between updates before ErrTimeout.
	Timeout time.Duration
}

func DefaultOptions() Options {
	return Options{HighAccuracy: true, Timeout: 10 * time.Second}
}

func Float(v float64) *float64 { return &v }
