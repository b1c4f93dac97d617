package tracking

// Thresholds are the distances, in meters, that drive classification and
// route recording.
type Thresholds struct {
	AlertRadiusM   float64 `json:"alert_radius_m"`
	VisitedRadiusM float64 `json:"visited_radius_m"`
	NearbyRadiusM  float64 `json:"nearby_radius_m"`
	PanelRadiusM   float64 `json:"panel_radius_m"`
	NearbyLimit    int     `json:"nearby_limit"`
	JitterM        float64 `json:"jitter_m"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		AlertRadiusM:   25,
		VisitedRadiusM: 100,
		NearbyRadiusM:  2000,
		PanelRadiusM:   500,
		NearbyLimit:    10,
		JitterM:        5,
	}
}

// withDefaults fills zero fields so a partially configured value is usable.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.AlertRadiusM <= 0 {
		t.AlertRadiusM = d.AlertRadiusM
	}
	if t.VisitedRadiusM <= 0 {
		t.VisitedRadiusM = d.VisitedRadiusM
	}
	if t.NearbyRadiusM <= 0 {
		t.NearbyRadiusM = d.NearbyRadiusM
	}
	if t.PanelRadiusM <= 0 {
		t.PanelRadiusM = d.PanelRadiusM
	}
	if t.NearbyLimit <= 0 {
		t.NearbyLimit = d.NearbyLimit
	}
	if t.JitterM <= 0 {
		t.JitterM = d.JitterM
	}
	return t
}
