// Flat-earth to geodetic conversion for simulator home positions.
package geo

import "math"

const earthRadiusM = 6371000.0

// GPSCoordinate is a geodetic position. Latitude and longitude are in
// degrees, AMSL is the altitude above mean sea level in meters.
type GPSCoordinate struct {
	Lat  float64
	Lon  float64
	AMSL float64
}

// FlatPoint is a position in the swarm's local flat-earth frame, in meters.
// X points along the frame's orientation axis, Y to its right.
type FlatPoint struct {
	X float64
	Y float64
}

// Transform converts local flat-earth coordinates into GPS coordinates
// around a fixed origin. Orientation is the bearing of the local X axis in
// degrees clockwise from north.
type Transform struct {
	Origin      GPSCoordinate
	Orientation float64
}

// ToGPS maps a flat-earth point to a GPS coordinate using a spherical
// Earth approximation. The result inherits the origin's altitude.
func (t Transform) ToGPS(p FlatPoint) GPSCoordinate {
	o := t.Orientation * math.Pi / 180
	north := p.X*math.Cos(o) - p.Y*math.Sin(o)
	east := p.X*math.Sin(o) + p.Y*math.Cos(o)

	lat := t.Origin.Lat + (north/earthRadiusM)*180/math.Pi
	lon := t.Origin.Lon + (east/(earthRadiusM*math.Cos(t.Origin.Lat*math.Pi/180)))*180/math.Pi

	return GPSCoordinate{Lat: lat, Lon: lon, AMSL: t.Origin.AMSL}
}

// NormalizeHeading wraps a heading in degrees into [0, 360).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
