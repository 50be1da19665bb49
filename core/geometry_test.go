package core

import (
	"math"
	"testing"
)

func TestNewObserverECEFEquator(t *testing.T) {
	// An observer at (0, 0, 0 m) sits on the ellipsoid's X axis.
	obs := NewObserverECEF(0, 0, 0)
	if math.Abs(obs.Position.X-wgs84A) > 1e-6 {
		t.Errorf("X = %g, want %g", obs.Position.X, wgs84A)
	}
	if math.Abs(obs.Position.Y) > 1e-9 || math.Abs(obs.Position.Z) > 1e-9 {
		t.Errorf("Y,Z = %g,%g, want 0,0", obs.Position.Y, obs.Position.Z)
	}
}

func TestNewObserverECEFPole(t *testing.T) {
	obs := NewObserverECEF(90, 0, 0)
	// Polar radius b = a*(1-f).
	b := wgs84A * (1 - wgs84F)
	if math.Abs(obs.Position.Z-b) > 1e-6 {
		t.Errorf("Z = %g, want polar radius %g", obs.Position.Z, b)
	}
	if math.Hypot(obs.Position.X, obs.Position.Y) > 1e-6 {
		t.Errorf("equatorial component = %g, want 0", math.Hypot(obs.Position.X, obs.Position.Y))
	}
}

func TestNewObserverECEFAltitude(t *testing.T) {
	ground := NewObserverECEF(12.97, 77.59, 0)
	raised := NewObserverECEF(12.97, 77.59, 2000)
	dist := raised.Position.Sub(ground.Position).Norm()
	if math.Abs(dist-2.0) > 1e-6 {
		t.Errorf("2000 m altitude moved the observer %g km, want 2", dist)
	}
}

func TestLookAnglesZenith(t *testing.T) {
	obs := NewObserverECEF(0, 0, 0)
	// Straight up from the equatorial observer: along +X.
	sat := Vec3{X: 42164, Y: 0, Z: 0}
	la := obs.LookAnglesTo(sat)
	if math.Abs(la.ElevationDeg-90) > 1e-6 {
		t.Errorf("elevation = %g, want 90", la.ElevationDeg)
	}
	wantRange := 42164 - wgs84A
	if math.Abs(la.RangeKm-wantRange) > 1e-6 {
		t.Errorf("range = %g, want %g", la.RangeKm, wantRange)
	}
}

func TestLookAnglesAzimuth(t *testing.T) {
	obs := NewObserverECEF(0, 0, 0)
	cases := []struct {
		name   string
		sat    Vec3
		wantAz float64
	}{
		// Due north of the equatorial observer is toward +Z.
		{"north", Vec3{X: wgs84A, Y: 0, Z: 1000}, 0},
		// Due east is toward +Y.
		{"east", Vec3{X: wgs84A, Y: 1000, Z: 0}, 90},
		{"south", Vec3{X: wgs84A, Y: 0, Z: -1000}, 180},
		{"west", Vec3{X: wgs84A, Y: -1000, Z: 0}, 270},
	}
	for _, tc := range cases {
		la := obs.LookAnglesTo(tc.sat)
		if math.Abs(la.AzimuthDeg-tc.wantAz) > 1e-6 {
			t.Errorf("%s: azimuth = %g, want %g", tc.name, la.AzimuthDeg, tc.wantAz)
		}
		if math.Abs(la.ElevationDeg) > 1e-6 {
			t.Errorf("%s: elevation = %g, want 0 for a horizon target", tc.name, la.ElevationDeg)
		}
	}
}

func TestLookAnglesBelowHorizon(t *testing.T) {
	obs := NewObserverECEF(0, 0, 0)
	// A satellite on the far side of the Earth.
	la := obs.LookAnglesTo(Vec3{X: -42164, Y: 0, Z: 0})
	if la.ElevationDeg > -80 {
		t.Errorf("elevation = %g, want deep below the horizon", la.ElevationDeg)
	}
}

func TestECEFToGeodeticRoundTrip(t *testing.T) {
	cases := []struct {
		latDeg, lonDeg, altM float64
	}{
		{0, 0, 0},
		{12.97, 77.59, 920},
		{-33.87, 151.21, 0},
		{71.0, -156.8, 10},
		{0, 179.9, 0},
		{0, -179.9, 0},
	}
	for _, tc := range cases {
		obs := NewObserverECEF(tc.latDeg, tc.lonDeg, tc.altM)
		lat, lon := ECEFToGeodetic(obs.Position)
		if math.Abs(lat-tc.latDeg) > 1e-6 {
			t.Errorf("(%g,%g): lat = %g", tc.latDeg, tc.lonDeg, lat)
		}
		if math.Abs(lon-tc.lonDeg) > 1e-6 {
			t.Errorf("(%g,%g): lon = %g", tc.latDeg, tc.lonDeg, lon)
		}
	}
}

func TestECEFToGeodeticGEO(t *testing.T) {
	// A geostationary satellite over 77.5 E.
	lonRad := 77.5 * math.Pi / 180
	p := Vec3{X: 42164 * math.Cos(lonRad), Y: 42164 * math.Sin(lonRad), Z: 0}
	lat, lon := ECEFToGeodetic(p)
	if math.Abs(lat) > 1e-6 {
		t.Errorf("lat = %g, want 0", lat)
	}
	if math.Abs(lon-77.5) > 1e-6 {
		t.Errorf("lon = %g, want 77.5", lon)
	}
}

func TestVec3Ops(t *testing.T) {
	a := Vec3{X: 3, Y: 4, Z: 12}
	if a.Norm() != 13 {
		t.Errorf("Norm = %g, want 13", a.Norm())
	}
	b := Vec3{X: 1, Y: 1, Z: 1}
	d := a.Sub(b)
	if d != (Vec3{X: 2, Y: 3, Z: 11}) {
		t.Errorf("Sub = %+v", d)
	}
	if a.Dot(b) != 19 {
		t.Errorf("Dot = %g, want 19", a.Dot(b))
	}
}
