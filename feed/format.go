// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package feed

import "strconv"

// formatCoord renders a lat/lon/distance value with enough precision to
// round-trip, without the trailing zeros Go's %v would otherwise keep.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatIntOmitZero renders n as a plain decimal string.
func formatIntOmitZero(n int) string {
	return strconv.Itoa(n)
}
