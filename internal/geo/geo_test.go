package geo

import (
	"math"
	"testing"
)

func TestNormalizeHeading(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{359, 359},
		{360, 0},
		{370, 10},
		{-90, 270},
		{725, 5},
	}
	for _, c := range cases {
		if got := NormalizeHeading(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("NormalizeHeading(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestTransform_OriginMapsToOrigin(t *testing.T) {
	tr := Transform{Origin: GPSCoordinate{Lat: 47.0, Lon: 19.0, AMSL: 120}}
	got := tr.ToGPS(FlatPoint{})
	if got.Lat != 47.0 || got.Lon != 19.0 || got.AMSL != 120 {
		t.Errorf("origin not preserved: %+v", got)
	}
}

func TestTransform_NorthOffset(t *testing.T) {
	tr := Transform{Origin: GPSCoordinate{Lat: 47.0, Lon: 19.0}}
	// 1111.95 m north is roughly 0.01 degrees of latitude.
	got := tr.ToGPS(FlatPoint{X: 1111.95})
	if math.Abs(got.Lat-47.01) > 1e-4 {
		t.Errorf("Lat = %v, want ~47.01", got.Lat)
	}
	if math.Abs(got.Lon-19.0) > 1e-9 {
		t.Errorf("Lon = %v, want 19.0", got.Lon)
	}
}

func TestTransform_OrientationRotatesFrame(t *testing.T) {
	tr := Transform{Origin: GPSCoordinate{Lat: 0, Lon: 0}, Orientation: 90}
	// With the X axis pointing east, a move along X must change longitude only.
	got := tr.ToGPS(FlatPoint{X: 1000})
	if math.Abs(got.Lat) > 1e-9 {
		t.Errorf("Lat = %v, want 0", got.Lat)
	}
	if got.Lon <= 0 {
		t.Errorf("Lon = %v, want > 0", got.Lon)
	}
}
