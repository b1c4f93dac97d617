package tracking

import (
	"context"
	"time"

	"backend-billtrack/internal/db"

	"github.com/google/uuid"
)

// Service persists sessions, accepted route points and visits.
type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Enabled() bool { return s != nil && s.db != nil }

func (s *Service) StartSession(ctx context.Context, input Session) (Session, error) {
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if input.StartedAt.IsZero() {
		input.StartedAt = time.Now().UTC()
	}
	if input.Status == "" {
		input.Status = string(StateRequestingPermission)
	}
	if !s.Enabled() {
		return input, nil
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO track_sessions (id, operator_id, started_at, status)
		VALUES ($1,$2,$3,$4)
		RETURNING started_at, status
	`, input.ID, input.OperatorID, input.StartedAt, input.Status)
	if err := row.Scan(&input.StartedAt, &input.Status); err != nil {
		return Session{}, err
	}
	return input, nil
}

// AddPoint stores a recorded route point and advances the session total.
func (s *Service) AddPoint(ctx context.Context, sessionID string, p RoutePoint, deltaM float64) (TrackPoint, error) {
	point := TrackPoint{
		SessionID:  sessionID,
		Lat:        p.Coord.Lat,
		Lng:        p.Coord.Lng,
		RecordedAt: p.Timestamp,
	}
	if p.Speed != nil {
		point.SpeedMps = *p.Speed
	}
	if point.RecordedAt.IsZero() {
		point.RecordedAt = time.Now().UTC()
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO track_points (session_id, location, recorded_at, speed_mps)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2,$3), 4326)::geography, $4, $5)
		RETURNING id, created_at
	`, sessionID, point.Lng, point.Lat, point.RecordedAt, point.SpeedMps)
	if err := row.Scan(&point.ID, &point.CreatedAt); err != nil {
		return TrackPoint{}, err
	}

	if deltaM > 0 {
		if _, err := s.db.Exec(ctx, `
			UPDATE track_sessions
			SET total_distance_m = COALESCE(total_distance_m,0) + $2
			WHERE id=$1
		`, sessionID, deltaM); err != nil {
			return TrackPoint{}, err
		}
	}
	return point, nil
}

func (s *Service) RecordVisit(ctx context.Context, v Visit) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO session_visits (session_id, billboard_id, distance_m, visited_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (session_id, billboard_id) DO NOTHING
	`, v.SessionID, v.BillboardID, v.DistanceM, v.VisitedAt)
	return err
}

// ResetSession drops the stored route and visits after a user reset.
func (s *Service) ResetSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM track_points WHERE session_id=$1`, sessionID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM session_visits WHERE session_id=$1`, sessionID); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `UPDATE track_sessions SET total_distance_m = 0 WHERE id=$1`, sessionID)
	return err
}

func (s *Service) UpdateStatus(ctx context.Context, sessionID string, status State) error {
	var err error
	if status == StateStopped {
		_, err = s.db.Exec(ctx, `UPDATE track_sessions SET status=$2, ended_at=now() WHERE id=$1`, sessionID, string(status))
	} else {
		_, err = s.db.Exec(ctx, `UPDATE track_sessions SET status=$2, ended_at=NULL WHERE id=$1`, sessionID, string(status))
	}
	return err
}

func (s *Service) Summary(ctx context.Context, sessionID string) (Summary, error) {
	var session Session
	var endedAt *time.Time
	row := s.db.QueryRow(ctx, `
		SELECT id, started_at, ended_at, COALESCE(total_distance_m,0)
		FROM track_sessions WHERE id=$1
	`, sessionID)
	if err := row.Scan(&session.ID, &session.StartedAt, &endedAt, &session.TotalDistanceM); err != nil {
		return Summary{}, err
	}
	if endedAt != nil {
		session.EndedAt = *endedAt
	}

	var pointCount, visitCount int
	if err := s.db.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM track_points WHERE session_id=$1),
		       (SELECT COUNT(*) FROM session_visits WHERE session_id=$1)
	`, sessionID).Scan(&pointCount, &visitCount); err != nil {
		return Summary{}, err
	}

	duration := time.Since(session.StartedAt)
	if !session.EndedAt.IsZero() {
		duration = session.EndedAt.Sub(session.StartedAt)
	}
	avgSpeed := 0.0
	if duration.Seconds() > 0 {
		avgSpeed = session.TotalDistanceM / duration.Seconds()
	}

	return Summary{
		SessionID:     session.ID,
		PointCount:    pointCount,
		VisitCount:    visitCount,
		DistanceM:     session.TotalDistanceM,
		DurationSec:   int64(duration.Seconds()),
		AverageSpeedM: avgSpeed,
	}, nil
}

func (s *Service) Points(ctx context.Context, sessionID string) ([]TrackPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, ST_Y(location::geometry), ST_X(location::geometry), recorded_at, COALESCE(speed_mps,0), created_at
		FROM track_points WHERE session_id=$1
		ORDER BY recorded_at, id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []TrackPoint{}
	for rows.Next() {
		var p TrackPoint
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Lat, &p.Lng, &p.RecordedAt, &p.SpeedMps, &p.CreatedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
