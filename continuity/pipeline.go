// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package continuity

import (
	"github.com/patrickbr/gtfsblocks2transfers/config"
	"github.com/patrickbr/gtfsblocks2transfers/feed"
	"github.com/patrickbr/gtfsblocks2transfers/geo"
	"github.com/patrickbr/gtfsblocks2transfers/graph"
)

// Run drives the whole pipeline end to end: service-day indexing, block
// grouping (with suppression of blocks that already carry a pre-declared
// continuation transfer, unless overwrite_existing is set — resolves the
// "trip already has a declared continuation" open question by treating the
// containing block, not just the one trip, as opted out), inference,
// classification, graph building/repair, optional linear simplification,
// and export. If debugEdges is non-nil, it is populated with the resolved
// graph's edges (post-simplification, if requested) for --debug-geojson.
func Run(f *feed.Feed, cfg config.Config, linearSimplify, itineraries bool, debugEdges *[]geo.Edge, warn *feed.Warnings) *feed.Feed {
	idx := BuildServiceIndex(f, warn)

	blocks := GroupBlocks(f, cfg.InSeatTransfers.IgnoreReturnViaSimilarTrip, warn)
	blocks = suppressDeclaredBlocks(f, blocks, cfg.TripToTripTransfers.OverwriteExisting, warn)

	candidates := Infer(blocks, idx, cfg.TripToTripTransfers, warn)

	cl := NewClassifier(cfg.InSeatTransfers, cfg.SpecialContinuations.Rules)
	g, origin := Build(f, idx, candidates, cl, cfg.TripToTripTransfers, warn)

	if linearSimplify {
		g, origin = Simplify(g, origin, warn)
	}

	if debugEdges != nil {
		*debugEdges = collectDebugEdges(g, origin)
	}

	return Export(f, idx, g, origin, itineraries, warn)
}

// collectDebugEdges renders every surviving continuation edge as a
// straight hand-off line between the originating trips' endpoint stops.
func collectDebugEdges(g *graph.Graph, origin Origin) []geo.Edge {
	var out []geo.Edge
	for _, n := range sortedGraphNodes(g) {
		for _, e := range n.Out {
			fromTrip, toTrip := origin[e.From], origin[e.To]
			if fromTrip == nil || toTrip == nil {
				continue
			}
			kind := "vehicle-continuation"
			if e.Kind == graph.InSeat {
				kind = "in-seat"
			}
			out = append(out, geo.Edge{
				FromTripID:   e.From.TripID,
				ToTripID:     e.To.TripID,
				TransferType: kind,
				From:         fromTrip.LastPoint(),
				To:           toTrip.FirstPoint(),
			})
		}
	}
	return out
}

// suppressDeclaredBlocks drops every block that contains a trip already
// named as an endpoint of a pre-declared continuation transfer, unless
// overwriteExisting is set (§4.5 step 3, design notes Open Question #1).
func suppressDeclaredBlocks(f *feed.Feed, blocks []*Block, overwriteExisting bool, warn *feed.Warnings) []*Block {
	if overwriteExisting {
		return blocks
	}

	declared := make(map[string]bool)
	for _, tr := range f.Transfers {
		if !tr.Type.IsContinuation() {
			continue
		}
		if tr.FromTripId != "" {
			declared[tr.FromTripId] = true
		}
		if tr.ToTripId != "" {
			declared[tr.ToTripId] = true
		}
	}
	if len(declared) == 0 {
		return blocks
	}

	out := make([]*Block, 0, len(blocks))
	for _, b := range blocks {
		suppressed := false
		for _, t := range b.Trips {
			if declared[t.Id] {
				suppressed = true
				break
			}
		}
		if suppressed {
			warn.Add("block %s: already has a pre-declared continuation transfer, skipped (set overwrite_existing to override)", b.Id)
			continue
		}
		out = append(out, b)
	}
	return out
}
