package mapview

import (
	"strings"

	"backend-billtrack/internal/billboard"
)

type MarkerStyle struct {
	Fill   string  `json:"fill"`
	Stroke string  `json:"stroke"`
	Glow   string  `json:"glow,omitempty"`
	Scale  float64 `json:"scale"`
	Accent string  `json:"accent,omitempty"`
}

const (
	accentColor  = "#ffd600"
	visitedColor = "#6a1b9a"
	routeColor   = "#1565c0"
	revealColor  = "#37474f"
)

var sizeFill = map[string]string{
	"small":  "#26a69a",
	"medium": "#42a5f5",
	"large":  "#7e57c2",
	"mega":   "#ec407a",
}

var statusStroke = map[billboard.Status]string{
	billboard.StatusAvailable:   "#2e7d32",
	billboard.StatusReserved:    "#f9a825",
	billboard.StatusUnavailable: "#c62828",
}

// StyleFor picks the pin style: fill by size category, outline by status,
// visited overriding status. Selected pins grow and get an accent ring.
func StyleFor(b billboard.Billboard, visited, selected bool) MarkerStyle {
	fill, ok := sizeFill[strings.ToLower(strings.TrimSpace(b.Size))]
	if !ok {
		fill = "#78909c"
	}
	stroke, ok := statusStroke[b.Status]
	if !ok {
		stroke = statusStroke[billboard.StatusAvailable]
	}
	st := MarkerStyle{Fill: fill, Stroke: stroke, Scale: 1}
	if visited {
		st.Stroke = visitedColor
		st.Glow = visitedColor
	}
	if selected {
		st.Scale = 1.4
		st.Accent = accentColor
	}
	return st
}

type SpeedTier string

const (
	SpeedSlow   SpeedTier = "slow"
	SpeedMedium SpeedTier = "medium"
	SpeedFast   SpeedTier = "fast"
)

var tierColor = map[SpeedTier]string{
	SpeedSlow:   "#43a047",
	SpeedMedium: "#fb8c00",
	SpeedFast:   "#e53935",
}

// TierFor maps a speed in m/s to its colour band. Unknown speed is slow.
func TierFor(speed *float64) SpeedTier {
	if speed == nil {
		return SpeedSlow
	}
	kmh := *speed * 3.6
	switch {
	case kmh < 20:
		return SpeedSlow
	case kmh < 60:
		return SpeedMedium
	default:
		return SpeedFast
	}
}

func (t SpeedTier) Color() string { return tierColor[t] }
