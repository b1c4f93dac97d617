package mapview

import (
	"errors"
	"time"
)

type Provider string

const (
	ProviderGoogle  Provider = "google"
	ProviderLeaflet Provider = "leaflet"
)

const DefaultPinDismiss = 4 * time.Second

var (
	ErrProviderUnavailable = errors.New("mapview: map provider unavailable")
	ErrUnknownProvider     = errors.New("mapview: unknown map provider")
)

// Adapter is one map provider. Initialize returns a handle owning all the
// provider's state; Dispose releases its timers. Render turns the handle's
// scene into the provider's native objects.
type Adapter interface {
	Provider() Provider
	Initialize(c Container, v View) (*Map, error)
	Render(m *Map) (any, error)
	Dispose(m *Map)
}

func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderGoogle, ProviderLeaflet:
		return Provider(s), nil
	}
	return "", ErrUnknownProvider
}
