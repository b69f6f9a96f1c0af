// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package geo

import (
	"math"
	"sort"
)

// DistToShape returns the smallest distance from p to any segment of shape.
// shape must have at least 2 points.
func DistToShape(p Point, shape Shape) float64 {
	min := math.Inf(1)
	for i := 0; i+1 < len(shape); i++ {
		d := DistToSegment(p, shape[i], shape[i+1])
		if d < min {
			min = d
		}
	}
	return min
}

// directedDistances returns, for every point of a, its distance to the
// nearest segment of b.
func directedDistances(a, b Shape) []float64 {
	ds := make([]float64, len(a))
	for i, p := range a {
		ds[i] = DistToShape(p, b)
	}
	return ds
}

// HausdorffPercentile computes the percentile (in (0,1)) of the combined,
// sorted directed point-to-shape distances between a and b — the
// modified/percentile directed Hausdorff distance described in spec.md
// §4.4/§GLOSSARY. Unlike a plain (max) Hausdorff distance, a single outlier
// point does not dominate the result.
//
// The percentile is estimated with the NIST linear-interpolation method
// (https://www.itl.nist.gov/div898/handbook/prc/section2/prc262.htm):
// index = p*(N+1), clamped into [1, N], with linear interpolation between
// the two bracketing order statistics.
func HausdorffPercentile(a, b Shape, percentile float64) float64 {
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	combined := append(directedDistances(a, b), directedDistances(b, a)...)
	sort.Float64s(combined)

	return percentileOf(combined, percentile)
}

func percentileOf(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n+1)
	if idx < 1 {
		idx = 1
	}
	if idx > float64(n) {
		idx = float64(n)
	}

	lo := int(math.Floor(idx))
	frac := idx - float64(lo)

	// order statistics are 1-indexed in the NIST formula
	v0 := sorted[lo-1]
	if lo >= n {
		return v0
	}
	v1 := sorted[lo]
	return v0 + frac*(v1-v0)
}
