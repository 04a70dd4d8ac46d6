package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LabelQuery fills an empty q.Location from reverse geocoding. A nil geocoder,
// a failed lookup or an empty match leaves the query unchanged; the label is
// cosmetic and never blocks an assessment.
func LabelQuery(ctx context.Context, q TargetQuery, geocoder Geocoder, logger *slog.Logger) TargetQuery {
	if geocoder == nil || q.Location != "" {
		return q
	}

	place, err := geocoder.ReverseGeocode(ctx, q.Latitude, q.Longitude)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", q.Latitude,
			"lon", q.Longitude,
			"error", err,
		)
		return q
	}
	if place.FormattedAddress != "" {
		q.Location = place.FormattedAddress
	}
	return q
}

// LocateQuery resolves q.Location to coordinates. It fails with
// ErrInvalidInput when there is no name to resolve, no geocoder to resolve it
// with, or no match; provider failures wrap ErrUpstreamUnavailable.
func LocateQuery(ctx context.Context, q TargetQuery, geocoder Geocoder) (TargetQuery, error) {
	name := strings.TrimSpace(q.Location)
	if name == "" {
		return q, fmt.Errorf("%w: lat and lon, or a location name, are required", ErrInvalidInput)
	}
	if geocoder == nil {
		return q, fmt.Errorf("%w: lat and lon are required when geocoding is disabled", ErrInvalidInput)
	}

	place, err := geocoder.ForwardGeocode(ctx, name)
	if err != nil {
		return q, fmt.Errorf("%w: geocode %q: %w", ErrUpstreamUnavailable, name, err)
	}
	if !place.Found() {
		return q, fmt.Errorf("%w: location %q not found", ErrInvalidInput, name)
	}

	q.Latitude = place.Lat
	q.Longitude = place.Lon
	if place.FormattedAddress != "" {
		q.Location = place.FormattedAddress
	}
	return q, nil
}
