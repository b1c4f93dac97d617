package mapview

import (
	"net/url"
	"strings"
	"testing"

	"backend-billtrack/internal/geolocation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleRequiresAPIKey(t *testing.T) {
	_, err := (&GoogleAdapter{}).Initialize(Container{}, View{})
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	rendered, err := (&GoogleAdapter{}).Render(nil)
	assert.Nil(t, rendered)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestGoogleSceneOptions(t *testing.T) {
	a := &GoogleAdapter{APIKey: "key"}
	m, err := a.Initialize(Container{Width: 400, Height: 300}, View{})
	require.NoError(t, err)
	defer a.Dispose(m)

	m.SetMarkers(boards())
	m.Select("b1")
	m.SetLive(geolocation.PositionSample{Coord: origin, Heading: geolocation.Float(45), Speed: geolocation.Float(10)})
	m.AppendRoute(origin)
	m.AppendRoute(north(origin, 100))
	m.RevealCoordinate(origin)

	out, err := a.Render(m)
	require.NoError(t, err)
	scene, ok := out.(GoogleScene)
	require.True(t, ok)

	assert.Equal(t, ProviderGoogle, scene.Provider)
	require.Len(t, scene.Markers, 2)
	assert.Equal(t, "b1", scene.Markers[0].ID)
	assert.Equal(t, accentColor, scene.Markers[0].Icon.StrokeColor)
	assert.Equal(t, 10, scene.Markers[0].ZIndex)
	assert.Equal(t, 1.4, scene.Markers[0].Icon.Scale)

	require.NotNil(t, scene.Live)
	assert.Equal(t, LiveMarkerID, scene.Live.ID)
	assert.Equal(t, 45.0, scene.Live.Icon.Rotation)
	assert.Equal(t, SpeedMedium.Color(), scene.Live.Icon.FillColor)

	require.NotNil(t, scene.Route)
	assert.Len(t, scene.Route.Path, 2)
	assert.NotEmpty(t, scene.Route.EncodedPath)

	require.NotNil(t, scene.Reveal)
	assert.Equal(t, origin.String(), scene.Reveal.Content)
}

func TestGoogleStaticMap(t *testing.T) {
	a := &GoogleAdapter{APIKey: "secret"}
	m, err := a.Initialize(Container{Width: 1024, Height: 480}, View{})
	require.NoError(t, err)
	defer a.Dispose(m)

	m.SetMarkers(boards())
	m.AppendRoute(origin)
	m.AppendRoute(north(origin, 100))

	req := a.StaticMap(m)
	assert.Equal(t, "640x480", req.Size)
	assert.Equal(t, 15, req.Zoom)
	require.Len(t, req.Markers, 2)
	assert.Equal(t, "K", req.Markers[0].Label)
	assert.Equal(t, "0x2E7D32", req.Markers[0].Color)
	require.Len(t, req.Paths, 1)

	raw := StaticURL(req, "secret")
	assert.True(t, strings.HasPrefix(raw, staticMapEndpoint+"?"))
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "secret", q.Get("key"))
	assert.Len(t, q["markers"], 2)
	assert.Contains(t, q.Get("markers"), "label:K")
	assert.Len(t, q["path"], 1)
}

func TestStaticLabel(t *testing.T) {
	assert.Equal(t, "A", staticLabel("  alpha"))
	assert.Equal(t, "7", staticLabel("#7 tower"))
	assert.Equal(t, "", staticLabel("طريق"))
	assert.Equal(t, "0xFFD600", hexColor("#ffd600"))
	assert.Equal(t, "red", hexColor("red"))
}
