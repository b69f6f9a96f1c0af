// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package geo

import (
	"os"

	geojson "github.com/paulmach/go.geojson"
)

// Edge is one continuation edge to render for debugging: a straight
// great-circle line from the end of one trip to the start of the next,
// tagged with its classification.
type Edge struct {
	FromTripID   string
	ToTripID     string
	TransferType string
	From         Point
	To           Point
}

// WriteDebugGeoJSON dumps edges as a GeoJSON FeatureCollection of
// LineStrings to path, one feature per continuation edge, so the graph can
// be inspected in any GeoJSON viewer. This is a debugging aid only; it has
// no effect on the emitted feed.
func WriteDebugGeoJSON(path string, edges []Edge) error {
	fc := geojson.NewFeatureCollection()

	for _, e := range edges {
		line := geojson.NewLineStringFeature([][]float64{
			{e.From.Lon, e.From.Lat},
			{e.To.Lon, e.To.Lat},
		})
		line.SetProperty("from_trip_id", e.FromTripID)
		line.SetProperty("to_trip_id", e.ToTripID)
		line.SetProperty("transfer_type", e.TransferType)
		fc.AddFeature(line)
	}

	raw, err := fc.MarshalJSON()
	if err != nil {
		return err
	}

	return os.WriteFile(path, raw, 0644)
}
