// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package continuity

import (
	"testing"

	"github.com/patrickbr/gtfsblocks2transfers/config"
	"github.com/patrickbr/gtfsblocks2transfers/dayset"
	"github.com/patrickbr/gtfsblocks2transfers/feed"
	"github.com/stretchr/testify/require"
)

// buildAlternateDaySplit constructs §8 scenario S6's fixture: trip A runs
// every day of the week, trip C (its sole block successor) exists only on
// weekdays, so the continuation can only ever apply Monday-Friday.
func buildAlternateDaySplit(t *testing.T) (*feed.Feed, *ServiceIndex, *feed.Warnings) {
	f := newTestFeed()
	p := addStop(f, "p", 0, 0)
	shared := addStop(f, "shared", 10, 10)
	q := addStop(f, "q", 20, 20)

	addService(f, "svcMonSun", mon, tue, wed, thu, fri, sat, sun)
	addService(f, "svcMonFri", mon, tue, wed, thu, fri)

	addTrip(f, "A", "svcMonSun", nil, "blk6",
		stopTimeSpec{p, hms(8, 0, 0), hms(8, 0, 0)},
		stopTimeSpec{shared, hms(8, 30, 0), hms(8, 30, 0)},
	)
	addTrip(f, "C", "svcMonFri", nil, "blk6",
		stopTimeSpec{shared, hms(8, 35, 0), hms(8, 35, 0)},
		stopTimeSpec{q, hms(9, 0, 0), hms(9, 0, 0)},
	)

	warn := feed.NewWarnings()
	idx := BuildServiceIndex(f, warn)
	return f, idx, warn
}

// TestAlternateDaySplit is §8 scenario S6: the Mon-Fri portion of A is
// cloned under a synthesised service tied to the continuation; the Sat-Sun
// portion is retained under A's own identifier and service, with no
// continuation — which also exercises §8 invariant 3 (a node's days equal
// the union of its matched neighbour day-sets plus its own source/sink
// residual).
func TestAlternateDaySplit(t *testing.T) {
	f, idx, warn := buildAlternateDaySplit(t)
	cfg := config.Default()

	blocks := GroupBlocks(f, false, warn)
	cands := Infer(blocks, idx, cfg.TripToTripTransfers, warn)
	require.Len(t, cands, 1)
	require.True(t, dayset.Equal(cands[0].Days, idx.ByService["svcMonFri"]))

	cl := NewClassifier(cfg.InSeatTransfers, nil)
	g, origin := Build(f, idx, cands, cl, cfg.TripToTripTransfers, warn)

	nodeA := g.NodesByTrip["A"]
	require.True(t, dayset.Equal(nodeA.SinkDays, dayset.FromDays([]int{sat, sun})))

	sg, sorigin := Simplify(g, origin, warn)

	var cloneA, residualA, cloneC *struct {
		tripID string
		days   dayset.DaySet
	}
	for _, n := range sg.Nodes {
		trip := sorigin[n]
		if trip == nil {
			continue
		}
		switch {
		case trip.Id == "A" && n.TripID == "A":
			residualA = &struct {
				tripID string
				days   dayset.DaySet
			}{n.TripID, n.Days}
		case trip.Id == "A":
			cloneA = &struct {
				tripID string
				days   dayset.DaySet
			}{n.TripID, n.Days}
		case trip.Id == "C":
			cloneC = &struct {
				tripID string
				days   dayset.DaySet
			}{n.TripID, n.Days}
		}
	}

	require.NotNil(t, residualA, "expected A's untouched residual to survive as its own node")
	require.NotNil(t, cloneA, "expected A's Mon-Fri portion to survive as a day-narrowed clone")
	require.NotNil(t, cloneC)

	require.True(t, dayset.Equal(residualA.days, dayset.FromDays([]int{sat, sun})))
	require.True(t, dayset.Equal(cloneA.days, idx.ByService["svcMonFri"]))
	require.True(t, dayset.Equal(cloneC.days, idx.ByService["svcMonFri"]))

	// Invariant 3: A's full days equal the union of what the matched edge
	// carries off and what's left as the residual.
	union := dayset.Union(cloneA.days, residualA.days)
	require.True(t, dayset.Equal(union, idx.ByService["svcMonSun"]))

	out := Export(f, idx, sg, sorigin, false, warn)

	// The residual keeps A's original identifier and original service.
	residual, ok := out.Trips["A"]
	require.True(t, ok)
	require.Equal(t, "svcMonSun", residual.ServiceId)

	// The Mon-Fri portion is a clone tied to a synthesized service.
	cloneTripID := cloneA.tripID // graph-internal id, not the exported one
	_ = cloneTripID
	var cloneTrip *feed.Trip
	for id, tr := range out.Trips {
		if id != "A" && tr.Id != "A" {
			cloneTrip = tr
			break
		}
	}
	require.NotNil(t, cloneTrip)
	svc, ok := out.Services[cloneTrip.ServiceId]
	require.True(t, ok)
	require.True(t, svc.Synthetic)
	require.Len(t, svc.Exceptions, 5)

	// Exactly one continuation transfer is emitted, from A's clone to C.
	var continuations []*feed.Transfer
	for _, tr := range out.Transfers {
		if tr.Type.IsContinuation() {
			continuations = append(continuations, tr)
		}
	}
	require.Len(t, continuations, 1)
	require.NotEqual(t, "A", continuations[0].FromTripId)

	// Invariant 6: every continuation's endpoints exist among the exported
	// trips.
	for _, tr := range continuations {
		_, ok := out.Trips[tr.FromTripId]
		require.True(t, ok)
		_, ok = out.Trips[tr.ToTripId]
		require.True(t, ok)
	}
}
