package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"backend-billtrack/internal/billboard"
	"backend-billtrack/internal/geolocation"
	"backend-billtrack/internal/logging"
	"backend-billtrack/internal/tracking"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type replayOptions struct {
	nmeaPath      string
	billboardPath string
	logLevel      string
	timeout       time.Duration
	thresholds    tracking.Thresholds
}

// Report is what a replay prints.
type Report struct {
	DistanceM  float64  `json:"distance_m"`
	PointCount int      `json:"point_count"`
	Visited    []string `json:"visited"`
	Alerted    []string `json:"alerted"`
	Billboards int      `json:"billboards"`
}

func newRootCmd() *cobra.Command {
	opts := replayOptions{thresholds: tracking.DefaultThresholds()}
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay an NMEA log against a billboard inventory",
		Long: `Replay feeds every RMC fix of an NMEA log through a tracking session,
the same way a live GPS receiver would, and prints the distance driven and
the billboards visited and alerted on the way.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logging.New(opts.logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			report, err := replay(cmd.Context(), opts, log)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report, asJSON)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.nmeaPath, "nmea", "n", "", "path to the NMEA log")
	f.StringVarP(&opts.billboardPath, "billboards", "b", "", "path to a JSON array of billboard records")
	f.StringVar(&opts.logLevel, "log-level", "error", "log level")
	f.DurationVar(&opts.timeout, "timeout", time.Minute, "give up when the log has not finished after this long")
	f.Float64Var(&opts.thresholds.AlertRadiusM, "alert-radius", opts.thresholds.AlertRadiusM, "alert radius in meters")
	f.Float64Var(&opts.thresholds.VisitedRadiusM, "visited-radius", opts.thresholds.VisitedRadiusM, "visited radius in meters")
	f.Float64Var(&opts.thresholds.JitterM, "jitter", opts.thresholds.JitterM, "minimum movement in meters before a route point is recorded")
	f.BoolVar(&asJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("nmea")
	return cmd
}

func replay(ctx context.Context, opts replayOptions, log *zap.Logger) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	billboards, err := loadBillboards(opts.billboardPath)
	if err != nil {
		return Report{}, err
	}
	var (
		mu      sync.Mutex
		alerted []string
		once    sync.Once
	)
	finished := make(chan struct{})
	collect := tracking.ListenerFunc(func(e tracking.Event) {
		switch e.Type {
		case tracking.EventAlert:
			mu.Lock()
			alerted = append(alerted, e.Alert.Billboard.ID)
			mu.Unlock()
		case tracking.EventState:
			if e.State == tracking.StateStopped {
				once.Do(func() { close(finished) })
			}
		}
	})

	watcher := geolocation.NewNMEAWatcher(func() (io.ReadCloser, error) {
		return os.Open(opts.nmeaPath)
	}, log)

	tr := tracking.NewTracker(tracking.TrackerConfig{
		SessionID:  "replay",
		Thresholds: opts.thresholds,
		Watcher:    watcher,
		Options:    geolocation.Options{HighAccuracy: true},
		Logger:     log,
		Listeners:  []tracking.Listener{collect},
	})
	defer tr.Close()
	tr.SetBillboards(billboards)

	if err := tr.Start(ctx, tracking.StartOptions{}); err != nil {
		return Report{}, fmt.Errorf("nmea log: %w", err)
	}

	timeout := opts.timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	select {
	case <-finished:
	case <-time.After(timeout):
		return Report{}, fmt.Errorf("replay did not finish within %s", timeout)
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}

	snap := tr.Snapshot()
	mu.Lock()
	defer mu.Unlock()
	visited := append([]string(nil), snap.Visited...)
	sort.Strings(visited)
	return Report{
		DistanceM:  snap.DistanceM,
		PointCount: snap.PointCount,
		Visited:    visited,
		Alerted:    append([]string(nil), alerted...),
		Billboards: len(billboards),
	}, nil
}

func loadBillboards(path string) ([]billboard.Billboard, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("billboards: %w", err)
	}
	var records []billboard.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("billboards: %w", err)
	}
	return billboard.NormalizeAll(records), nil
}

func printReport(w io.Writer, r Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	fmt.Fprintf(w, "distance: %.1f m\n", r.DistanceM)
	fmt.Fprintf(w, "points:   %d\n", r.PointCount)
	fmt.Fprintf(w, "visited:  %d of %d %v\n", len(r.Visited), r.Billboards, r.Visited)
	fmt.Fprintf(w, "alerted:  %d %v\n", len(r.Alerted), r.Alerted)
	return nil
}
