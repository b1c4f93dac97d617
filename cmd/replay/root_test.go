package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"backend-billtrack/internal/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sentence(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}

// writeFixtures lays down a three-fix drive heading north, about 926 m per
// leg, and one billboard on the middle fix.
func writeFixtures(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	lines := []string{
		sentence("GPRMC,120000,A,4807.038,N,01131.000,E,020.0,000.0,230324,003.1,W"),
		sentence("GPRMC,120100,A,4807.538,N,01131.000,E,020.0,000.0,230324,003.1,W"),
		sentence("GPRMC,120200,A,4808.038,N,01131.000,E,020.0,000.0,230324,003.1,W"),
	}
	nmeaPath := filepath.Join(dir, "drive.nmea")
	require.NoError(t, os.WriteFile(nmeaPath, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0o600))

	records := []map[string]any{
		{"id": "BB-1", "name": "Ring road", "coordinates": "48.125633, 11.516667"},
		{"id": "BB-2", "name": "Far away", "lat": 48.5, "lng": 11.9},
		{"name": "no id", "coordinates": "48.1, 11.5"},
	}
	raw, err := json.Marshal(records)
	require.NoError(t, err)
	billboardPath := filepath.Join(dir, "billboards.json")
	require.NoError(t, os.WriteFile(billboardPath, raw, 0o600))
	return nmeaPath, billboardPath
}

func TestReplayReportsRouteAndVisits(t *testing.T) {
	nmeaPath, billboardPath := writeFixtures(t)

	report, err := replay(context.Background(), replayOptions{
		nmeaPath:      nmeaPath,
		billboardPath: billboardPath,
		thresholds:    tracking.DefaultThresholds(),
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 3, report.PointCount)
	assert.InDelta(t, 1853, report.DistanceM, 5)
	assert.Equal(t, []string{"BB-1"}, report.Visited)
	assert.Equal(t, []string{"BB-1"}, report.Alerted)
	assert.Equal(t, 2, report.Billboards)
}

func TestReplayMissingLog(t *testing.T) {
	_, err := replay(context.Background(), replayOptions{
		nmeaPath:   filepath.Join(t.TempDir(), "missing.nmea"),
		thresholds: tracking.DefaultThresholds(),
	}, zap.NewNop())
	require.Error(t, err)
}

func TestLoadBillboardsRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := loadBillboards(path)
	require.Error(t, err)
}

func TestRootCommandPrintsReport(t *testing.T) {
	nmeaPath, billboardPath := writeFixtures(t)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--nmea", nmeaPath, "--billboards", billboardPath, "--json"})
	require.NoError(t, cmd.Execute())

	var report Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, []string{"BB-1"}, report.Visited)
}

func TestRootCommandRequiresLog(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.Error(t, cmd.Execute())
}

func TestPrintReportText(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printReport(&out, Report{DistanceM: 12.34, PointCount: 2, Visited: []string{"a"}, Billboards: 3}, false))
	assert.Contains(t, out.String(), "distance: 12.3 m")
	assert.Contains(t, out.String(), "visited:  1 of 3 [a]")
}
