// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package continuity

import (
	"fmt"

	"github.com/patrickbr/gtfsblocks2transfers/config"
	"github.com/patrickbr/gtfsblocks2transfers/feed"
	"github.com/patrickbr/gtfsblocks2transfers/geo"
	"golang.org/x/text/cases"
)

// Classification is the classifier's verdict for one candidate (§4.4).
type Classification int

const (
	ClassInSeat Classification = iota
	ClassVehicleContinuation
)

// Classifier evaluates candidates against InSeatTransfers rules and caches
// Hausdorff-percentile similarity keyed by the unordered pair of canonical
// shape pointers (§4.4, §5: "process-local, keyed by an unordered pair of
// shape identities").
type Classifier struct {
	cfg          config.InSeatTransfers
	rules        []config.Rule
	bannedStops  map[string]bool
	simCache     map[shapePairKey]float64
	caser        cases.Caser
}

type shapePairKey struct {
	a, b *feed.StopShape
}

// NewClassifier builds a Classifier from the in-seat-transfer tunables and
// special-continuation rule list.
func NewClassifier(cfg config.InSeatTransfers, rules []config.Rule) *Classifier {
	banned := make(map[string]bool, len(cfg.BannedStops))
	caser := cases.Fold()
	for _, s := range cfg.BannedStops {
		banned[caser.String(s)] = true
	}
	return &Classifier{
		cfg:         cfg,
		rules:       rules,
		bannedStops: banned,
		simCache:    make(map[shapePairKey]float64),
		caser:       caser,
	}
}

// Classify decides in-seat vs vehicle-continuation for c, in order (§4.4
// steps 1-7).
func (cl *Classifier) Classify(c *Candidate) Classification {
	from, to := c.From, c.To

	if c.WaitTime > cl.cfg.MaxWaitTime {
		return ClassVehicleContinuation
	}

	if cl.bannedStopAt(from.LastStop()) || cl.bannedStopAt(to.FirstStop()) {
		return ClassVehicleContinuation
	}

	if v, matched := cl.matchSpecialRules(from, to); matched {
		if v == int(feed.TransferInSeat) {
			return ClassInSeat
		}
		return ClassVehicleContinuation
	}

	distHandoff := geo.Dist(from.LastPoint(), to.FirstPoint())
	if distHandoff > cl.cfg.SameLocationDistance {
		return ClassVehicleContinuation
	}

	if cl.isLoop(from, to) {
		return ClassInSeat
	}

	if cl.cfg.IgnoreReturnViaSameRoute && sameRouteDifferentDirection(from, to) {
		return ClassVehicleContinuation
	}

	if cl.cfg.IgnoreReturnViaSimilarTrip {
		sim := cl.similarity(from, to)
		if sim < cl.cfg.SimilarityDistance {
			return ClassVehicleContinuation
		}
	}

	return ClassInSeat
}

func (cl *Classifier) bannedStopAt(s *feed.Stop) bool {
	if s == nil || len(cl.bannedStops) == 0 {
		return false
	}
	return cl.bannedStops[cl.caser.String(s.Name)]
}

// matchSpecialRules evaluates the rule list in order and returns the last
// matching rule's transfer type (§4.4 step 2: "last matching rule wins").
func (cl *Classifier) matchSpecialRules(from, to *feed.Trip) (int, bool) {
	matched := false
	var tt int

	fromRoute, fromStop := routeIdOf(from), stopIdOf(from.LastStop())
	toRoute, toStop := routeIdOf(to), stopIdOf(to.FirstStop())

	for _, r := range cl.rules {
		if r.Matches(fromRoute, fromStop, toRoute, toStop) {
			matched = true
			tt = r.TransferType
		}
	}
	return tt, matched
}

func routeIdOf(t *feed.Trip) string {
	if t.Route == nil {
		return t.RouteId
	}
	return t.Route.ShortName
}

func stopIdOf(s *feed.Stop) string {
	if s == nil {
		return ""
	}
	return s.Name
}

// isLoop reports whether from/to form an out-and-back pair: first points
// near each other and last points near each other (§4.4 step 4).
func (cl *Classifier) isLoop(from, to *feed.Trip) bool {
	return geo.Dist(from.FirstPoint(), to.FirstPoint()) < cl.cfg.SameLocationDistance &&
		geo.Dist(from.LastPoint(), to.LastPoint()) < cl.cfg.SameLocationDistance
}

func sameRouteDifferentDirection(from, to *feed.Trip) bool {
	if from.RouteId == "" || from.RouteId != to.RouteId {
		return false
	}
	if !from.HasDirection || !to.HasDirection {
		return false
	}
	return from.DirectionId != to.DirectionId
}

// similarity returns the cached (or freshly computed) Hausdorff-percentile
// distance between from/to's canonical stop-shapes.
func (cl *Classifier) similarity(from, to *feed.Trip) float64 {
	a, b := from.ShapeRef, to.ShapeRef
	if a == nil {
		a = &feed.StopShape{Points: from.ComputeStopShape()}
	}
	if b == nil {
		b = &feed.StopShape{Points: to.ComputeStopShape()}
	}
	if a == b {
		return 0
	}

	key := canonicalPairKey(a, b)
	if v, ok := cl.simCache[key]; ok {
		return v
	}

	v := geo.HausdorffPercentile(a.Points, b.Points, cl.cfg.SimilarityPercentile)
	cl.simCache[key] = v
	return v
}

func canonicalPairKey(a, b *feed.StopShape) shapePairKey {
	if fmt.Sprintf("%p", a) <= fmt.Sprintf("%p", b) {
		return shapePairKey{a, b}
	}
	return shapePairKey{b, a}
}
