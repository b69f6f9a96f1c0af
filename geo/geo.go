// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package geo provides the geodesic primitives the continuation classifier
// needs: great-circle point distance, point-to-segment distance, and
// percentile directed-Hausdorff shape similarity. It generalizes the
// teacher's planar web-mercator helpers in processors/util.go to true
// geodesic math, the way the spec's stop-shape comparisons require.
package geo

import "math"

// EarthRadiusM is the mean earth radius in meters, as used throughout the
// retrieved Python original (blocks_to_transfers/shape_similarity.py).
const EarthRadiusM = 6_371_009.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Shape is an ordered sequence of points, e.g. a trip's stop-shape.
type Shape []Point

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// Dist returns the great-circle distance between a and b, in meters.
func Dist(a, b Point) float64 {
	return EarthRadiusM * angularDist(a, b)
}

func angularDist(a, b Point) float64 {
	lat1, lat2 := deg2rad(a.Lat), deg2rad(b.Lat)
	dLat := lat2 - lat1
	dLon := deg2rad(b.Lon) - deg2rad(a.Lon)

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * math.Asin(math.Sqrt(clamp01(h)))
}

func bearing(a, b Point) float64 {
	lat1, lat2 := deg2rad(a.Lat), deg2rad(b.Lat)
	dLon := deg2rad(b.Lon) - deg2rad(a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Atan2(y, x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// DistToSegment returns the geodesic distance from p to the great-circle
// segment [l1, l2], in meters. Grounded on
// original_source/blocks_to_transfers/shape_similarity.py's
// LatLon.dist_to_segment: project p onto the great circle through l1/l2,
// and fall back to the nearer endpoint if the projection lands outside the
// segment.
func DistToSegment(p, l1, l2 Point) float64 {
	dL1P := angularDist(l1, p)
	tL1P := bearing(l1, p)
	dL1L2 := angularDist(l1, l2)
	tL1L2 := bearing(l1, l2)
	dL2P := angularDist(l2, p)

	if dL1L2 == 0 {
		return EarthRadiusM * dL1P
	}

	dCross := math.Asin(clampSin(math.Sin(dL1P) * math.Sin(tL1P-tL1L2)))
	cosCross := math.Cos(dCross)
	if cosCross == 0 {
		return EarthRadiusM * math.Min(dL1P, dL2P)
	}

	dAlong := math.Acos(clampSin(math.Cos(dL1P) / cosCross))

	if dAlong < dL1L2 {
		// Closest point on the great circle lies strictly between l1 and
		// l2 only if it is also nearer to p than either endpoint is.
		lx := addBearingAndDist(l1, tL1L2, dAlong)
		dLxP := angularDist(lx, p)
		if dLxP < dL1P && dLxP < dL2P {
			return EarthRadiusM * dLxP
		}
	}

	return EarthRadiusM * math.Min(dL1P, dL2P)
}

func addBearingAndDist(from Point, brng, d float64) Point {
	lat1 := deg2rad(from.Lat)
	lon1 := deg2rad(from.Lon)

	lat2 := math.Asin(clampSin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng)))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))

	return Point{Lat: rad2deg(lat2), Lon: rad2deg(lon2)}
}

func clampSin(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}
