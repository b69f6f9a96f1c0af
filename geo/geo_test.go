// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistZero(t *testing.T) {
	p := Point{Lat: 40.0, Lon: -75.0}
	assert.InDelta(t, 0.0, Dist(p, p), 1e-6)
}

func TestDistKnown(t *testing.T) {
	// On a sphere of radius EarthRadiusM, 1 degree of longitude at the
	// equator is ~111.195 km.
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 1}
	d := Dist(a, b)
	assert.InDelta(t, 111195.0, d, 500)
}

func TestDistToSegmentEndpoint(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 1}
	// p beyond b along the same line: nearest point is b.
	p := Point{Lat: 0, Lon: 2}
	d := DistToSegment(p, a, b)
	assert.InDelta(t, Dist(p, b), d, 1.0)
}

func TestDistToSegmentMidpoint(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 2}
	p := Point{Lat: 1, Lon: 1}
	d := DistToSegment(p, a, b)
	assert.InDelta(t, Dist(p, Point{Lat: 0, Lon: 1}), d, 2000)
}

func TestHausdorffIdenticalShapesIsZero(t *testing.T) {
	shape := Shape{{0, 0}, {0, 1}, {0, 2}}
	d := HausdorffPercentile(shape, shape, 0.85)
	assert.InDelta(t, 0.0, d, 1e-6)
}

func TestHausdorffMonotonicInPercentile(t *testing.T) {
	a := Shape{{0, 0}, {0, 1}, {0, 2}}
	b := Shape{{0.01, 0}, {0.05, 1}, {0.01, 2}}

	low := HausdorffPercentile(a, b, 0.1)
	high := HausdorffPercentile(a, b, 0.9)
	assert.LessOrEqual(t, low, high)
}
