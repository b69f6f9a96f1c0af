// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package continuity

import (
	"github.com/patrickbr/gtfsblocks2transfers/config"
	"github.com/patrickbr/gtfsblocks2transfers/dayset"
	"github.com/patrickbr/gtfsblocks2transfers/feed"
	"github.com/patrickbr/gtfsblocks2transfers/geo"
)

// Candidate is an inferred continuation, expressed in From's frame: Days is
// the subset of From's service days on which the continuation applies
// (§4.3).
type Candidate struct {
	From, To *feed.Trip
	Shift    int // 0: same day; 1: To continues past midnight from From
	WaitTime int // seconds; never negative (negative-wait pairings are dropped)
	Rank     int
	Days     dayset.DaySet
}

// Infer runs the bounded quadratic scan within each block (§4.3).
func Infer(blocks []*Block, idx *ServiceIndex, cfg config.TripToTripTransfers, warn *feed.Warnings) []*Candidate {
	var out []*Candidate

	for _, block := range blocks {
		for i, t := range block.Trips {
			daysToMatch := idx.DaysFor(t)
			if daysToMatch.IsEmpty() {
				continue
			}

			forward := make([]int, 0, len(block.Trips)-i-1)
			for j := i + 1; j < len(block.Trips); j++ {
				forward = append(forward, j)
			}
			rank := 0
			rank, daysToMatch = scanDirection(block.Trips, forward, 0, t, daysToMatch, idx, cfg, warn, rank, &out)
			if daysToMatch.IsEmpty() {
				continue
			}

			// Past-midnight candidates: the block's earlier trips, still
			// walked low index to high index (ascending departure, hence
			// ascending wait time) so the over-budget break below only ever
			// discards candidates that are strictly worse than the ones
			// already scanned.
			backward := make([]int, 0, i)
			for j := 0; j < i; j++ {
				backward = append(backward, j)
			}
			scanDirection(block.Trips, backward, 1, t, daysToMatch, idx, cfg, warn, rank, &out)
		}
	}

	return out
}

func scanDirection(
	trips []*feed.Trip,
	indices []int,
	shift int,
	t *feed.Trip,
	daysToMatch dayset.DaySet,
	idx *ServiceIndex,
	cfg config.TripToTripTransfers,
	warn *feed.Warnings,
	rank int,
	out *[]*Candidate,
) (int, dayset.DaySet) {
	for _, j := range indices {
		tp := trips[j]

		w := int(tp.FirstDeparture()) - int(t.LastArrival()) + shift*86400
		if w > cfg.MaxWaitTime {
			break
		}

		tpDays := idx.DaysFor(tp)
		c := dayset.Intersection(dayset.Shift(tpDays, -shift), daysToMatch)
		if c.IsEmpty() {
			continue
		}

		if w < 0 {
			if !cfg.ForceAllowInvalidBlocks {
				warn.Add("block %s: trip %s (arrives %s) and trip %s (departs %s) overlap impossibly on days %v",
					t.BlockId, t.Id, t.LastArrival(), tp.Id, tp.FirstDeparture(), c.Days())
			}
			continue
		}

		if cfg.MaxNearbyDeadheadingDistance > 0 && cfg.MaxDeadheadingSpeed > 0 {
			dist := geo.Dist(t.LastPoint(), tp.FirstPoint())
			if dist > cfg.MaxNearbyDeadheadingDistance {
				speedKmh := (dist / 1000) / (float64(w) / 3600)
				if speedKmh > cfg.MaxDeadheadingSpeed {
					warn.Add("block %s: candidate %s->%s dropped, deadheading speed %.1f km/h exceeds ceiling",
						t.BlockId, t.Id, tp.Id, speedKmh)
					continue
				}
			}
		}

		rank++
		*out = append(*out, &Candidate{
			From:     t,
			To:       tp,
			Shift:    shift,
			WaitTime: w,
			Rank:     rank,
			Days:     c,
		})

		daysToMatch = dayset.Difference(daysToMatch, c)
		if daysToMatch.IsEmpty() {
			break
		}
	}

	return rank, daysToMatch
}
