package core

import "math"

// WGS-84 ellipsoid parameters (kilometres).
const (
	wgs84A  = 6378.137
	wgs84F  = 1.0 / 298.257223563
	wgs84E2 = wgs84F * (2 - wgs84F)
)

// Vec3 is an ECEF-style vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// ObserverECEF is a ground observer with its geodetic position precomputed
// into ECEF, so one conversion serves many satellite lookups.
type ObserverECEF struct {
	LatRad, LonRad float64
	Position       Vec3 // km
}

// NewObserverECEF converts geodetic coordinates (degrees, metres above the
// WGS-84 ellipsoid) into a precomputed observer.
func NewObserverECEF(latDeg, lonDeg, altM float64) ObserverECEF {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0
	altKm := altM / 1000.0

	sinLat := math.Sin(lat)

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return ObserverECEF{
		LatRad: lat,
		LonRad: lon,
		Position: Vec3{
			X: (n + altKm) * math.Cos(lat) * math.Cos(lon),
			Y: (n + altKm) * math.Cos(lat) * math.Sin(lon),
			Z: (n*(1-wgs84E2) + altKm) * sinLat,
		},
	}
}

// LookAngles holds azimuth, elevation, and range from observer to satellite.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// LookAnglesTo computes azimuth, elevation, and range from the observer to a
// satellite in ECEF kilometres, via the South-East-Zenith topocentric frame.
func (o ObserverECEF) LookAnglesTo(sat Vec3) LookAngles {
	r := sat.Sub(o.Position)

	sinLat := math.Sin(o.LatRad)
	cosLat := math.Cos(o.LatRad)
	sinLon := math.Sin(o.LonRad)
	cosLon := math.Cos(o.LonRad)

	south := sinLat*cosLon*r.X + sinLat*sinLon*r.Y - cosLat*r.Z
	east := -sinLon*r.X + cosLon*r.Y
	zenith := cosLat*cosLon*r.X + cosLat*sinLon*r.Y + sinLat*r.Z

	rangeKm := math.Sqrt(south*south + east*east + zenith*zenith)
	if rangeKm == 0 {
		return LookAngles{ElevationDeg: 90}
	}

	el := math.Asin(zenith / rangeKm)
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:   az * 180.0 / math.Pi,
		ElevationDeg: el * 180.0 / math.Pi,
		RangeKm:      rangeKm,
	}
}

// ECEFToGeodetic converts an ECEF position (km) to geodetic latitude and
// longitude in degrees, using the iterative Bowring method. Converges in a
// few iterations for Earth orbits.
func ECEFToGeodetic(p Vec3) (latDeg, lonDeg float64) {
	lon := math.Atan2(p.Y, p.X)
	rho := math.Sqrt(p.X*p.X + p.Y*p.Y)

	lat := math.Atan2(p.Z, rho*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(p.Z+wgs84E2*n*sinLat, rho)
	}

	return lat * 180.0 / math.Pi, lon * 180.0 / math.Pi
}
