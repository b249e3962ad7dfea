// Package geo holds the coordinate type shared by the tracker, the pet store
// and the telemetry consumer, plus the distance functions used to decide
// whether a pet moved.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by Haversine.
const EarthRadiusMeters = 6371000.0

// metersPerDegree is the flat-earth scale used by Equirectangular.
const metersPerDegree = 111000.0

// ErrNoPosition is returned when a stored position cannot be resolved to a
// Coordinate under any of the accepted field shapes.
var ErrNoPosition = errors.New("no resolvable position")

// Coordinate is a point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate returns an error if the coordinate is outside WGS 84 bounds.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", c.Longitude)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// Haversine returns the great-circle distance between a and b in metres.
func Haversine(a, b Coordinate) float64 {
	if a == b {
		return 0
	}
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Equirectangular is a cheap planar approximation: euclidean distance in
// degrees scaled by ~111 km. Good enough to drop jitter between chip fixes.
// It overestimates east-west distance away from the equator.
func Equirectangular(a, b Coordinate) float64 {
	dLat := b.Latitude - a.Latitude
	dLon := b.Longitude - a.Longitude
	return math.Sqrt(dLat*dLat+dLon*dLon) * metersPerDegree
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// --------------------------------------------------------------------------
// Boundary normalization
// --------------------------------------------------------------------------

// RawPosition accepts both stored position shapes: {latitude, longitude}
// written by the current clients and {lat, lng} written by older ones.
type RawPosition struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
}

// Resolve returns the coordinate, preferring latitude/longitude and falling
// back to lat/lng. Mixed pairs (latitude with lng) are not accepted.
func (r RawPosition) Resolve() (Coordinate, error) {
	var c Coordinate
	switch {
	case r.Latitude != nil && r.Longitude != nil:
		c = Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
	case r.Lat != nil && r.Lng != nil:
		c = Coordinate{Latitude: *r.Lat, Longitude: *r.Lng}
	default:
		return Coordinate{}, ErrNoPosition
	}
	if err := c.Validate(); err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrNoPosition, err)
	}
	return c, nil
}

// ParsePosition decodes a stored JSON position. Empty input, JSON null and
// unresolvable shapes all yield ErrNoPosition.
func ParsePosition(raw []byte) (*Coordinate, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrNoPosition
	}
	var rp RawPosition
	if err := json.Unmarshal(raw, &rp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPosition, err)
	}
	c, err := rp.Resolve()
	if err != nil {
		return nil, err
	}
	return &c, nil
}
