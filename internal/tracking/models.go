package tracking

import "time"

type Session struct {
	ID             string    `json:"id"`
	OperatorID     string    `json:"operator_id"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at,omitempty"`
	TotalDistanceM float64   `json:"total_distance_m"`
	Status         string    `json:"status"`
}

type TrackPoint struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
	SpeedMps   float64   `json:"speed_mps"`
	CreatedAt  time.Time `json:"created_at"`
}

type Visit struct {
	SessionID   string    `json:"session_id"`
	BillboardID string    `json:"billboard_id"`
	DistanceM   float64   `json:"distance_m"`
	VisitedAt   time.Time `json:"visited_at"`
}

type Summary struct {
	SessionID     string  `json:"session_id"`
	PointCount    int     `json:"point_count"`
	VisitCount    int     `json:"visit_count"`
	DistanceM     float64 `json:"distance_m"`
	DurationSec   int64   `json:"duration_sec"`
	AverageSpeedM float64 `json:"average_speed_mps"`
}
