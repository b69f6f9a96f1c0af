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

// TestLoopTripPairIsInSeat is §8 scenario S5: a trip pair that loops back to
// a shared terminus is classified in-seat regardless of shape similarity —
// isLoop short-circuits before the similarity check ever runs.
func TestLoopTripPairIsInSeat(t *testing.T) {
	f := newTestFeed()
	terminus := addStop(f, "terminus", 0, 0)
	qa := addStop(f, "qa", 1, 1)
	qc := addStop(f, "qc", -1, -1) // a very different intermediate stop

	addService(f, "svcMF", mon, tue, wed, thu, fri)

	addTrip(f, "A", "svcMF", nil, "blk5",
		stopTimeSpec{terminus, hms(8, 0, 0), hms(8, 0, 0)},
		stopTimeSpec{qa, hms(8, 15, 0), hms(8, 15, 0)},
		stopTimeSpec{terminus, hms(8, 30, 0), hms(8, 30, 0)},
	)
	c := addTrip(f, "C", "svcMF", nil, "blk5",
		stopTimeSpec{terminus, hms(8, 35, 0), hms(8, 35, 0)},
		stopTimeSpec{qc, hms(8, 50, 0), hms(8, 50, 0)},
		stopTimeSpec{terminus, hms(9, 5, 0), hms(9, 5, 0)},
	)
	a := f.Trips["A"]

	cfg := config.Default()
	cfg.InSeatTransfers.IgnoreReturnViaSimilarTrip = true
	// A similarity check alone would call this pair a return trip: its
	// percentile distance (about 157 km, from qa/qc) is below this threshold.
	cfg.InSeatTransfers.SimilarityDistance = 1_000_000

	cl := NewClassifier(cfg.InSeatTransfers, nil)
	cand := &Candidate{From: a, To: c, Days: dayset.FromDays([]int{mon})}

	require.Equal(t, ClassInSeat, cl.Classify(cand))
}
