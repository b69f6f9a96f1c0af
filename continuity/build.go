// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package continuity

import (
	"fmt"
	"sort"

	"github.com/patrickbr/gtfsblocks2transfers/config"
	"github.com/patrickbr/gtfsblocks2transfers/dayset"
	"github.com/patrickbr/gtfsblocks2transfers/feed"
	"github.com/patrickbr/gtfsblocks2transfers/graph"
)

// Origin traces a (possibly split or linearised) graph node back to the
// real feed trip whose metadata, stop-times and shape the exporter should
// clone.
type Origin map[*graph.Node]*feed.Trip

// Build runs the graph builder and repairer (§4.5): insert inferred
// candidates, split on rank-ordered overlap, import pre-declared
// continuation transfers, prune impossible edges, then validate the
// disjoint-cases invariant and flag composite nodes.
func Build(
	f *feed.Feed,
	idx *ServiceIndex,
	candidates []*Candidate,
	cl *Classifier,
	cfg config.TripToTripTransfers,
	warn *feed.Warnings,
) (*graph.Graph, Origin) {
	g := graph.New()
	origin := make(Origin)

	nodeFor := func(t *feed.Trip) *graph.Node {
		n := g.NodeFor(t.Id, idx.DaysFor(t))
		if _, ok := origin[n]; !ok {
			origin[n] = t
		}
		return n
	}

	// Step 1: insert every inferred candidate.
	for _, c := range candidates {
		fromNode := nodeFor(c.From)
		toNode := nodeFor(c.To)

		kind := graph.InSeat
		if cl.Classify(c) == ClassVehicleContinuation {
			kind = graph.VehicleContinuation
		}

		e := &graph.Edge{
			From:      fromNode,
			To:        toNode,
			Kind:      kind,
			Rank:      c.Rank,
			HasRank:   true,
			MatchDays: c.Days,
			Shift:     c.Shift,
		}
		g.AddEdge(e)
	}

	rankOrderedSplit(g, origin)
	importPreDeclaredTransfers(g, f, idx, cfg, warn, nodeFor)
	pruneImpossibleEdges(g, warn)
	validateDisjointCases(g, warn)

	return g, origin
}

func sortedNodeIds(g *graph.Graph) []string {
	ids := make([]string, 0, len(g.NodesByTrip))
	for id := range g.NodesByTrip {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// rankOrderedSplit is §4.5 step 2. With trips confined to one block each
// (design notes resolve the "trip in multiple blocks" open question this
// way), inferred edges out of one node are already pairwise disjoint by
// construction of Infer's shrinking day pool; this pass re-validates that
// invariant and performs the split machinery verbatim so a future relaxation
// of that assumption stays correct.
func rankOrderedSplit(g *graph.Graph, origin Origin) {
	splitCounter := 0

	for _, id := range sortedNodeIds(g) {
		from := g.NodesByTrip[id]

		edges := make([]*graph.Edge, 0, len(from.Out))
		for _, e := range from.Out {
			if e.HasRank {
				edges = append(edges, e)
			}
		}
		sort.Slice(edges, func(i, j int) bool { return edges[i].Rank < edges[j].Rank })

		var matched dayset.DaySet
		for _, e := range edges {
			avail := dayset.Difference(e.MatchDays, matched)
			if avail.IsEmpty() {
				g.RemoveEdge(e)
				continue
			}
			if !dayset.Equal(avail, e.MatchDays) {
				residualInToFrame := dayset.Shift(avail, e.Shift)
				splitCounter++
				newID := fmt.Sprintf("%s::split%d", e.To.TripID, splitCounter)

				oldTo := e.To
				oldTo.In = filterOutEdge(oldTo.In, e)
				newNode := g.Split(oldTo, residualInToFrame, newID)
				origin[newNode] = origin[oldTo]
				e.To = newNode
				newNode.In = append(newNode.In, e)
				e.MatchDays = avail
			}
			matched = dayset.Union(matched, avail)
		}
	}
}

func filterOutEdge(list []*graph.Edge, target *graph.Edge) []*graph.Edge {
	out := make([]*graph.Edge, 0, len(list))
	for _, e := range list {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

// importPreDeclaredTransfers is §4.5 step 3.
func importPreDeclaredTransfers(
	g *graph.Graph,
	f *feed.Feed,
	idx *ServiceIndex,
	cfg config.TripToTripTransfers,
	warn *feed.Warnings,
	nodeFor func(*feed.Trip) *graph.Node,
) {
	for _, tr := range f.Transfers {
		if tr.FromTripId == "" || tr.ToTripId == "" || !tr.Type.IsContinuation() {
			continue
		}
		if tr.FromTripId == tr.ToTripId {
			warn.Add("transfer %s->%s: self-continuation discarded", tr.FromTripId, tr.ToTripId)
			continue
		}

		fromTrip, ok1 := f.Trips[tr.FromTripId]
		toTrip, ok2 := f.Trips[tr.ToTripId]
		if !ok1 || !ok2 {
			warn.Add("transfer %s->%s: references a trip absent from trips.txt, discarded", tr.FromTripId, tr.ToTripId)
			continue
		}

		fromNode := nodeFor(fromTrip)
		toNode := nodeFor(toTrip)

		kind := graph.InSeat
		if tr.Type == feed.TransferVehicleContinues {
			kind = graph.VehicleContinuation
		}

		matchDays := dayset.Intersection(fromNode.Days, toNode.Days)

		e := &graph.Edge{
			From:      fromNode,
			To:        toNode,
			Kind:      kind,
			HasRank:   false,
			MatchDays: matchDays,
			Shift:     0,
		}
		g.AddEdge(e)
	}
}

// pruneImpossibleEdges is §4.5 step 4.
func pruneImpossibleEdges(g *graph.Graph, warn *feed.Warnings) {
	for _, n := range g.Nodes {
		for _, e := range append([]*graph.Edge(nil), n.Out...) {
			if e.MatchDays.IsEmpty() {
				if !e.HasRank {
					warn.Add("continuation %s->%s: empty day-set after matching, pre-declared edge removed", e.From.TripID, e.To.TripID)
				}
				g.RemoveEdge(e)
			}
		}
	}
}

// validateDisjointCases is §4.5 step 5: for each node/direction, neighbour
// match-days (translated into this node's frame) must be pairwise identical
// or pairwise disjoint. Flags composite nodes and assigns source/sink
// residual days.
func validateDisjointCases(g *graph.Graph, warn *feed.Warnings) {
	for _, id := range sortedNodeIds(g) {
		n := g.NodesByTrip[id]
		outUnion := resolveDirection(n, n.Out, true, warn)
		inUnion := resolveDirection(n, n.In, false, warn)

		// Days with no predecessor are where this node acts as a source;
		// days with no successor are where it acts as a sink.
		n.SourceDays = dayset.Difference(n.Days, inUnion.union)
		n.SinkDays = dayset.Difference(n.Days, outUnion.union)

		if outUnion.allIdentical && len(outUnion.groups) > 0 && len(n.Out) > 1 {
			n.Composite = graph.CompositeSplit
		}
		if inUnion.allIdentical && len(inUnion.groups) > 0 && len(n.In) > 1 {
			if n.Composite == graph.CompositeSplit {
				// both sides identical: genuine interchange node, keep the
				// split flag since the simplifier treats both composite
				// kinds the same way (never duplicated).
			} else {
				n.Composite = graph.CompositeJoin
			}
		}
	}
}

type directionResult struct {
	union        dayset.DaySet
	groups       []dayset.DaySet
	allIdentical bool
}

// resolveDirection walks n's edges in one direction, computing each
// neighbour's match-days in n's frame, removing edges that overlap only
// partially with a previously seen group (disallowed by the invariant), and
// reporting whether every remaining group is identical.
func resolveDirection(n *graph.Node, edges []*graph.Edge, outgoing bool, warn *feed.Warnings) directionResult {
	var groups []dayset.DaySet
	var union dayset.DaySet

	for _, e := range append([]*graph.Edge(nil), edges...) {
		days := e.MatchDays
		if !outgoing {
			// e.MatchDays is expressed in e.From's frame; translate into
			// n's frame (n == e.To here).
			days = dayset.Shift(e.MatchDays, e.Shift)
		}

		matchedExisting := false
		conflict := false
		for _, g2 := range groups {
			if dayset.Equal(days, g2) {
				matchedExisting = true
				break
			}
			if !dayset.IsDisjoint(days, g2) {
				conflict = true
				break
			}
		}

		if conflict {
			other := "unknown"
			if outgoing {
				other = e.To.TripID
			} else {
				other = e.From.TripID
			}
			warn.Add("node %s: continuation to/from %s breaks the disjoint-cases invariant, edge removed", n.TripID, other)
			if outgoing {
				n.Out = filterOutEdge(n.Out, e)
				e.To.In = filterOutEdge(e.To.In, e)
			} else {
				n.In = filterOutEdge(n.In, e)
				e.From.Out = filterOutEdge(e.From.Out, e)
			}
			continue
		}

		if !matchedExisting {
			groups = append(groups, days)
		}
		union = dayset.Union(union, days)
	}

	allIdentical := len(groups) == 1
	return directionResult{union: union, groups: groups, allIdentical: allIdentical}
}
