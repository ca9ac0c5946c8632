// Package crs provides the coordinate reference system operations the
// analysis pipeline depends on: explicit reprojection between geographic
// WGS84 and a locally accurate UTM zone, and geodesic distance.
//
// Geometry never moves between CRSes implicitly; every transform is an
// explicit call that validates the source and target codes.
package crs

import (
	"math"

	"github.com/rotisserie/eris"
)

// EPSG codes handled by this package. UTM northern-hemisphere zones occupy
// 32601..32660, southern 32701..32760.
const (
	WGS84 = 4326

	utmNorthBase = 32600
	utmSouthBase = 32700
)

// WGS84 ellipsoid constants.
const (
	wgs84A  = 6378137.0         // semi-major axis, meters
	wgs84F  = 1 / 298.257223563 // flattening
	utmK0   = 0.9996            // central meridian scale factor
	utmFE   = 500000.0          // false easting, meters
	utmFNSo = 10000000.0        // false northing, southern hemisphere

	maxUTMLat = 84.0
	minUTMLat = -80.0
)

var (
	wgs84E2  = wgs84F * (2 - wgs84F)   // first eccentricity squared
	wgs84EP2 = wgs84E2 / (1 - wgs84E2) // second eccentricity squared
)

// UTMZoneFor returns the EPSG code of the UTM zone containing the given
// geographic coordinate. Pokhara (83.991E, 28.228N) sits just west of the
// 84E zone boundary and maps to 32644.
func UTMZoneFor(lon, lat float64) (int, error) {
	if lon < -180 || lon > 180 || lat < minUTMLat || lat > maxUTMLat {
		return 0, eris.Errorf("crs: coordinate (%.4f, %.4f) outside UTM domain", lon, lat)
	}
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone > 60 {
		zone = 60
	}
	if lat < 0 {
		return utmSouthBase + zone, nil
	}
	return utmNorthBase + zone, nil
}

// zoneParams returns the zone number and false northing for a UTM EPSG code.
func zoneParams(epsg int) (zone int, falseNorthing float64, err error) {
	switch {
	case epsg > utmNorthBase && epsg <= utmNorthBase+60:
		return epsg - utmNorthBase, 0, nil
	case epsg > utmSouthBase && epsg <= utmSouthBase+60:
		return epsg - utmSouthBase, utmFNSo, nil
	default:
		return 0, 0, eris.Errorf("crs: EPSG:%d is not a supported UTM zone", epsg)
	}
}

// centralMeridian returns the central meridian of a UTM zone in degrees.
func centralMeridian(zone int) float64 {
	return float64(zone)*6 - 183
}

// meridionalArc computes the meridional arc length M for latitude phi (radians).
func meridionalArc(phi float64) float64 {
	e2 := wgs84E2
	e4 := e2 * e2
	e6 := e4 * e2
	return wgs84A * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// ToUTM projects a geographic WGS84 coordinate into the given UTM zone using
// the transverse Mercator series expansion. Returns easting and northing in
// meters.
func ToUTM(epsg int, lon, lat float64) (easting, northing float64, err error) {
	zone, fn, err := zoneParams(epsg)
	if err != nil {
		return 0, 0, err
	}
	if lon < -180 || lon > 180 || lat < minUTMLat || lat > maxUTMLat {
		return 0, 0, eris.Errorf("crs: coordinate (%.4f, %.4f) outside UTM domain", lon, lat)
	}

	phi := lat * math.Pi / 180
	lambda := lon * math.Pi / 180
	lambda0 := centralMeridian(zone) * math.Pi / 180

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := wgs84A / math.Sqrt(1-wgs84E2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := wgs84EP2 * cosPhi * cosPhi
	a := (lambda - lambda0) * cosPhi
	m := meridionalArc(phi)

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	easting = utmK0*n*(a+(1-t+c)*a3/6+(5-18*t+t*t+72*c-58*wgs84EP2)*a5/120) + utmFE
	northing = fn + utmK0*(m+n*tanPhi*(a2/2+(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*wgs84EP2)*a6/720))
	return easting, northing, nil
}

// ToWGS84 inverse-projects a UTM easting/northing back to geographic WGS84.
func ToWGS84(epsg int, easting, northing float64) (lon, lat float64, err error) {
	zone, fn, err := zoneParams(epsg)
	if err != nil {
		return 0, 0, err
	}

	x := easting - utmFE
	y := northing - fn

	e2 := wgs84E2
	e4 := e2 * e2
	e6 := e4 * e2

	m := y / utmK0
	mu := m / (wgs84A * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	e1sq := e1 * e1

	// Footpoint latitude.
	phi1 := mu +
		(3*e1/2-27*e1*e1sq/32)*math.Sin(2*mu) +
		(21*e1sq/16-55*e1sq*e1sq/32)*math.Sin(4*mu) +
		(151*e1*e1sq/96)*math.Sin(6*mu) +
		(1097*e1sq*e1sq/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := wgs84EP2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := wgs84A / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := wgs84A * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * utmK0)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	phi := phi1 - (n1*tanPhi1/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*wgs84EP2)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*wgs84EP2-3*c1*c1)*d6/720)
	lambda := (d - (1+2*t1+c1)*d3/6 +
		(5-2*c1+28*t1-3*c1*c1+8*wgs84EP2+24*t1*t1)*d5/120) / cosPhi1

	lat = phi * 180 / math.Pi
	lon = centralMeridian(zone) + lambda*180/math.Pi
	return lon, lat, nil
}
