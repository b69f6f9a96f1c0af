// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package continuity

import (
	"testing"

	"github.com/patrickbr/gtfsblocks2transfers/config"
	"github.com/patrickbr/gtfsblocks2transfers/feed"
	"github.com/stretchr/testify/require"
)

// TestExportReusesExistingService is §8 invariant 5: when a clone's day-set
// already matches a pre-existing service, export reuses that service's id
// instead of minting a synthetic one.
func TestExportReusesExistingService(t *testing.T) {
	f := newTestFeed()
	p := addStop(f, "p", 0, 0)
	shared := addStop(f, "shared", 10, 10)
	q1 := addStop(f, "q1", 20, 20)
	q2 := addStop(f, "q2", 30, 30)

	addService(f, "svcMF", mon, tue, wed, thu, fri)
	addService(f, "svcMonThu", mon, tue, wed, thu)
	addService(f, "svcFri", fri)

	addTrip(f, "A", "svcMF", nil, "blk2",
		stopTimeSpec{p, hms(8, 0, 0), hms(8, 0, 0)},
		stopTimeSpec{shared, hms(8, 30, 0), hms(8, 30, 0)},
	)
	addTrip(f, "C1", "svcMonThu", nil, "blk2",
		stopTimeSpec{shared, hms(8, 35, 0), hms(8, 35, 0)},
		stopTimeSpec{q1, hms(9, 0, 0), hms(9, 0, 0)},
	)
	addTrip(f, "C2", "svcFri", nil, "blk2",
		stopTimeSpec{shared, hms(8, 36, 0), hms(8, 36, 0)},
		stopTimeSpec{q2, hms(9, 5, 0), hms(9, 5, 0)},
	)

	warn := feed.NewWarnings()
	out := runPipeline(t, f, warn, true)

	require.Equal(t, 0, warn.Len())

	// Both of A's clones must land on the pre-existing svcMonThu/svcFri
	// services (by day-set), never a synthesized one, since those services
	// were already present in the feed with exactly the matching days.
	seenSynthetic := false
	for id := range out.Services {
		if id == "synthetic:1" || id == "synthetic:2" {
			seenSynthetic = true
		}
	}
	require.False(t, seenSynthetic, "expected no synthetic service: both branch day-sets already have a matching calendar entry")

	cloneServices := map[string]bool{}
	for id, tr := range out.Trips {
		if id == "A" {
			continue
		}
		cloneServices[tr.ServiceId] = true
	}
	require.Contains(t, cloneServices, "svcMonThu")
	require.Contains(t, cloneServices, "svcFri")
}

// TestCarryOverUntouchedTrip is part of §8 invariant 4: a trip with no block
// id (so never part of any candidate) passes through export unchanged,
// keeping its own trip id and service.
func TestCarryOverUntouchedTrip(t *testing.T) {
	f := newTestFeed()
	p := addStop(f, "p", 0, 0)
	q := addStop(f, "q", 0, 1)

	addService(f, "svcSolo", mon, tue, wed, thu, fri)
	addTrip(f, "Solo", "svcSolo", nil, "",
		stopTimeSpec{p, hms(8, 0, 0), hms(8, 0, 0)},
		stopTimeSpec{q, hms(8, 30, 0), hms(8, 30, 0)},
	)

	warn := feed.NewWarnings()
	out := runPipeline(t, f, warn, true)

	require.Equal(t, 0, warn.Len())
	trip, ok := out.Trips["Solo"]
	require.True(t, ok)
	require.Equal(t, "svcSolo", trip.ServiceId)
	require.Empty(t, out.Transfers)
}

// TestContinuationEndpointsExist is §8 invariant 6: every emitted
// continuation names trip ids that exist in the exported trip set.
func TestContinuationEndpointsExist(t *testing.T) {
	f, _, warn := buildAlternateDaySplit(t)
	out := runPipeline(t, f, warn, true)

	require.NotEmpty(t, out.Transfers)
	for _, tr := range out.Transfers {
		if !tr.Type.IsContinuation() {
			continue
		}
		_, ok := out.Trips[tr.FromTripId]
		require.True(t, ok)
		_, ok = out.Trips[tr.ToTripId]
		require.True(t, ok)
	}
}

// runPipeline runs Run with the default config, returning only the final
// export.
func runPipeline(t *testing.T, f *feed.Feed, warn *feed.Warnings, linearSimplify bool) *feed.Feed {
	t.Helper()
	cfg := config.Default()
	return Run(f, cfg, linearSimplify, false, nil, warn)
}
