// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package continuity

import (
	"sort"
	"strconv"

	"github.com/patrickbr/gtfsblocks2transfers/feed"
	"github.com/patrickbr/gtfsblocks2transfers/geo"
)

// Block is one block identifier's trips, sorted by normalised
// first-departure time (§4.2).
type Block struct {
	Id    string
	Trips []*feed.Trip
}

// GroupBlocks sorts every trip with a non-empty block identifier by
// normalised first-departure time (service_days.py's days_by_trip frame —
// a trip notated past 24h sorts by its time-of-day, not its raw clock
// value) and groups them by block, dropping (with warning) any trip with
// fewer than two stop-times. When dedupShapes is true (shape-return
// heuristic enabled, §4.4), it also deduplicates stop-shapes so identical
// ones share a canonical pointer.
func GroupBlocks(f *feed.Feed, dedupShapes bool, warn *feed.Warnings) []*Block {
	byBlock := make(map[string][]*feed.Trip)

	ids := make([]string, 0, len(f.Trips))
	for id := range f.Trips {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		t := f.Trips[id]
		if t.BlockId == "" {
			continue
		}
		if len(t.StopTimes) < 2 {
			warn.Add("trip %s: fewer than two stop-times, dropped from block %s", t.Id, t.BlockId)
			continue
		}
		byBlock[t.BlockId] = append(byBlock[t.BlockId], t)
	}

	blockIds := make([]string, 0, len(byBlock))
	for id := range byBlock {
		blockIds = append(blockIds, id)
	}
	sort.Strings(blockIds)

	var shapeCache map[string]*feed.StopShape
	if dedupShapes {
		shapeCache = make(map[string]*feed.StopShape)
	}

	blocks := make([]*Block, 0, len(blockIds))
	for _, id := range blockIds {
		trips := byBlock[id]
		sort.SliceStable(trips, func(i, j int) bool {
			return trips[i].FirstDeparture() < trips[j].FirstDeparture()
		})

		if dedupShapes {
			for _, t := range trips {
				assignStopShape(t, shapeCache)
			}
		}

		blocks = append(blocks, &Block{Id: id, Trips: trips})
	}

	return blocks
}

// assignStopShape sets t.ShapeRef to a canonical *feed.StopShape: the first
// trip to present a given ordered stop-location tuple becomes the owner,
// and later trips with an identical tuple share its pointer.
func assignStopShape(t *feed.Trip, cache map[string]*feed.StopShape) {
	pts := t.ComputeStopShape()
	key := stopShapeKey(pts)
	if existing, ok := cache[key]; ok {
		t.ShapeRef = existing
		return
	}
	ss := &feed.StopShape{Points: pts}
	cache[key] = ss
	t.ShapeRef = ss
}

func stopShapeKey(pts geo.Shape) string {
	// A coarse textual key: coordinates rendered to 6 decimals (about
	// 0.1 m). Stop-shapes whose points agree to that precision share one
	// canonical pointer, which classify.go treats as identical (similarity
	// 0) without comparing Points.
	b := make([]byte, 0, len(pts)*24)
	for _, p := range pts {
		b = strconv.AppendFloat(b, p.Lat, 'f', 6, 64)
		b = append(b, ',')
		b = strconv.AppendFloat(b, p.Lon, 'f', 6, 64)
		b = append(b, ';')
	}
	return string(b)
}
