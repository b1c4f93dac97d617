package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdsZeroFallsBackToDefaults(t *testing.T) {
	got := Thresholds{AlertRadiusM: 40}.withDefaults()
	want := DefaultThresholds()
	want.AlertRadiusM = 40
	assert.Equal(t, want, got)
}

func TestThresholdsZeroJitterKeepsSuppression(t *testing.T) {
	got := Thresholds{JitterM: 0}.withDefaults()
	assert.Equal(t, DefaultThresholds().JitterM, got.JitterM)

	got = Thresholds{JitterM: 2}.withDefaults()
	assert.Equal(t, 2.0, got.JitterM)
}
