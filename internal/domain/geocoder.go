package domain

import "context"

// Place is a location returned by a geocoding provider.
type Place struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	Name             string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Found reports whether the provider matched anything.
func (p Place) Found() bool {
	return p.FormattedAddress != "" || p.Lat != 0 || p.Lon != 0
}

// Geocoder resolves between place names and coordinates.
type Geocoder interface {
	// ForwardGeocode converts a free-text place name to coordinates.
	ForwardGeocode(ctx context.Context, query string) (Place, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}
