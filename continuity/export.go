// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package continuity

import (
	"fmt"
	"sort"

	"github.com/patrickbr/gtfsblocks2transfers/dayset"
	"github.com/patrickbr/gtfsblocks2transfers/feed"
	"github.com/patrickbr/gtfsblocks2transfers/graph"
)

type exportState struct {
	f      *feed.Feed
	idx    *ServiceIndex
	out    *feed.Feed
	warn   *feed.Warnings

	// itineraries mirrors convert_blocks.py's --itineraries: when true,
	// every day-split clone of one original trip shares its stop-times
	// slice until the pickup/drop-off pass actually needs to mutate one
	// clone's endpoint, at which point that single clone is given its own
	// copy (copy-on-write). When false, every clone gets its own copy
	// up front.
	itineraries bool
	owns        map[string]bool // exported trip id -> has its own private StopTimes slice

	serviceByDays    map[dayset.DaySet]string
	syntheticCounter int

	exportedID map[*graph.Node]string
	clonesOf   map[string][]string // original trip id -> every exported id derived from it
}

// Export walks g (any order; the original spec's "stack seeded with all
// nodes and sources" is an implementation detail of traversal order, which
// is not contractual — §5), emitting a feed whose trips/services/transfers
// realise the continuation graph (§4.7).
func Export(f *feed.Feed, idx *ServiceIndex, g *graph.Graph, origin Origin, itineraries bool, warn *feed.Warnings) *feed.Feed {
	s := &exportState{
		f:             f,
		idx:           idx,
		warn:          warn,
		itineraries:   itineraries,
		owns:          make(map[string]bool),
		serviceByDays: cloneDaySetIndex(idx.ByDaySet),
		exportedID:    make(map[*graph.Node]string),
		clonesOf:      make(map[string][]string),
	}

	s.out = feed.NewFeed()
	s.out.Stops = f.Stops
	s.out.Routes = f.Routes
	s.out.Shapes = f.Shapes
	s.out.HasShapes = f.HasShapes
	s.out.HasCalendar = f.HasCalendar || true
	s.out.HasCalendarDates = true
	s.out.HasTransfers = f.HasTransfers

	for _, n := range sortedGraphNodes(g) {
		s.exportNode(n, origin[n])
	}

	for _, n := range sortedGraphNodes(g) {
		for _, e := range n.Out {
			s.emitContinuation(e)
		}
	}

	s.preserveNonContinuationTransfers()
	s.carryOverUntouchedTrips(origin)

	return s.out
}

func cloneDaySetIndex(in map[dayset.DaySet]string) map[dayset.DaySet]string {
	out := make(map[dayset.DaySet]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedGraphNodes(g *graph.Graph) []*graph.Node {
	nodes := append([]*graph.Node(nil), g.Nodes...)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].TripID < nodes[j].TripID })
	return nodes
}

func (s *exportState) exportNode(n *graph.Node, orig *feed.Trip) {
	if orig == nil {
		return
	}

	// A node keeps its origin trip's own identifier (and service) when the
	// simplifier (or the builder, absent simplification) left it under that
	// identity — for instance the untouched residual left behind once a
	// sibling clone carried off the rest of its days (§8 S6), whose day-set
	// need not equal the origin's full service days — or when its day-set
	// equals the origin trip's full day-set, so no clone is needed.
	var tripID, serviceID string
	if n.TripID == orig.Id || dayset.Equal(n.Days, s.idx.DaysFor(orig)) {
		tripID = orig.Id
		serviceID = orig.ServiceId
		s.copyTripAsIs(orig)
	} else {
		serviceID = s.serviceFor(n.Days)
		tripID = fmt.Sprintf("%s@%s", orig.Id, serviceID)
		s.cloneTrip(orig, tripID, serviceID)
	}

	s.exportedID[n] = tripID
	s.clonesOf[orig.Id] = append(s.clonesOf[orig.Id], tripID)
}

// serviceFor returns an existing service identifier whose DaySet equals
// days, or mints synthetic:<counter> with an add-exception calendar_dates
// record per member day (§4.1 reverse index, §4.7).
func (s *exportState) serviceFor(days dayset.DaySet) string {
	if id, ok := s.serviceByDays[days]; ok {
		if svc := s.f.Services[id]; svc != nil {
			s.out.Services[id] = svc
		}
		return id
	}

	s.syntheticCounter++
	id := fmt.Sprintf("synthetic:%d", s.syntheticCounter)

	exceptions := make(map[feed.Date]feed.ExceptionType, days.Len())
	for _, off := range days.Days() {
		exceptions[s.idx.Epoch.Offset(off)] = feed.ExceptionAdd
	}

	s.out.Services[id] = &feed.Service{
		Id:         id,
		Synthetic:  true,
		Exceptions: exceptions,
	}
	s.serviceByDays[days] = id
	return id
}

func (s *exportState) copyTripAsIs(orig *feed.Trip) {
	if _, exists := s.out.Trips[orig.Id]; exists {
		return
	}
	s.out.Trips[orig.Id] = orig
	// Under itineraries, day-split clones share orig's stop-time slice, so
	// orig itself copies on first write too.
	s.owns[orig.Id] = !s.itineraries
	if svc := s.f.Services[orig.ServiceId]; svc != nil {
		s.out.Services[orig.ServiceId] = svc
	}
}

func (s *exportState) cloneTrip(orig *feed.Trip, newID, serviceID string) {
	clone := &feed.Trip{
		Id:           newID,
		ServiceId:    serviceID,
		Service:      s.out.Services[serviceID],
		BlockId:      "",
		RouteId:      orig.RouteId,
		Route:        orig.Route,
		DirectionId:  orig.DirectionId,
		HasDirection: orig.HasDirection,
		Headsign:     orig.Headsign,
		ShortName:    orig.ShortName,
		ShapeId:      orig.ShapeId,
		Shape:        orig.Shape,
	}

	if s.itineraries {
		// Share orig's stop-time slice across every day-split clone; a
		// later pickup/drop-off mutation clones it on write (§6, design
		// notes on set_pickup_drop_off.py's itinerary_cells indirection).
		clone.StopTimes = orig.StopTimes
		s.owns[newID] = false
	} else {
		clone.StopTimes = deepCopyStopTimes(orig.StopTimes)
		s.owns[newID] = true
	}

	s.out.Trips[newID] = clone
}

func deepCopyStopTimes(in []*feed.StopTime) []*feed.StopTime {
	out := make([]*feed.StopTime, len(in))
	for i, st := range in {
		cp := *st
		out[i] = &cp
	}
	return out
}

// ownStopTimes gives tripID's clone its own private StopTimes slice,
// copying on first write under itineraries mode.
func (s *exportState) ownStopTimes(tripID string) {
	if s.owns[tripID] {
		return
	}
	t := s.out.Trips[tripID]
	if t == nil {
		return
	}
	t.StopTimes = deepCopyStopTimes(t.StopTimes)
	s.owns[tripID] = true
}

func (s *exportState) emitContinuation(e *graph.Edge) {
	fromID, ok1 := s.exportedID[e.From]
	toID, ok2 := s.exportedID[e.To]
	if !ok1 || !ok2 {
		s.warn.Add("continuation %s->%s: endpoint has no origin trip, dropped on export", e.From.TripID, e.To.TripID)
		return
	}

	tt := feed.TransferVehicleContinues
	if e.Kind == graph.InSeat {
		tt = feed.TransferInSeat
		s.markPickupDropOff(fromID, toID)
	}

	s.out.Transfers = append(s.out.Transfers, &feed.Transfer{
		FromTripId:  fromID,
		ToTripId:    toID,
		Type:        tt,
		IsGenerated: true,
	})
}

func (s *exportState) markPickupDropOff(fromID, toID string) {
	s.ownStopTimes(fromID)
	s.ownStopTimes(toID)
	if ft := s.out.Trips[fromID]; ft != nil && len(ft.StopTimes) > 0 {
		ft.StopTimes[len(ft.StopTimes)-1].PickupType = feed.RegularlyScheduled
	}
	if tt := s.out.Trips[toID]; tt != nil && len(tt.StopTimes) > 0 {
		tt.StopTimes[0].DropOffType = feed.RegularlyScheduled
	}
}

// preserveNonContinuationTransfers carries over every pre-existing transfer
// that is not itself a continuation type, fanning a trip-to-trip one out
// across every exported clone of a split endpoint (§4.7).
func (s *exportState) preserveNonContinuationTransfers() {
	for _, tr := range s.f.Transfers {
		if tr.Type.IsContinuation() {
			continue
		}

		if tr.FromTripId == "" && tr.ToTripId == "" {
			s.out.Transfers = append(s.out.Transfers, tr)
			continue
		}

		fromIDs := s.resolvedClones(tr.FromTripId)
		toIDs := s.resolvedClones(tr.ToTripId)
		for _, from := range fromIDs {
			for _, to := range toIDs {
				cp := *tr
				if tr.FromTripId != "" {
					cp.FromTripId = from
				}
				if tr.ToTripId != "" {
					cp.ToTripId = to
				}
				s.out.Transfers = append(s.out.Transfers, &cp)
			}
		}
	}
}

func (s *exportState) resolvedClones(tripID string) []string {
	if tripID == "" {
		return []string{""}
	}
	if ids, ok := s.clonesOf[tripID]; ok && len(ids) > 0 {
		return ids
	}
	return []string{tripID}
}

// carryOverUntouchedTrips copies any original trip that never took part in
// the continuation graph (no block membership, or dropped for too few
// stop-times) straight through unchanged.
func (s *exportState) carryOverUntouchedTrips(origin Origin) {
	touched := make(map[string]bool, len(origin))
	for _, t := range origin {
		touched[t.Id] = true
	}

	ids := make([]string, 0, len(s.f.Trips))
	for id := range s.f.Trips {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if touched[id] {
			continue
		}
		s.copyTripAsIs(s.f.Trips[id])
	}
}
