// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package graph is the continuation graph: an arena of trip nodes addressed
// by stable pointers, connected by tagged continuation edges (design notes
// §9). Node splitting allocates a new node, copies adjacency, and patches
// one pointer in one neighbour — it never mutates an existing node's
// identity out from under a caller holding its pointer.
package graph

import "github.com/patrickbr/gtfsblocks2transfers/dayset"

// TransferKind distinguishes the two continuation flavours the classifier
// assigns (§4.4); it intentionally mirrors feed.TransferType's two
// continuation values without importing package feed, keeping the graph
// reusable outside the feed-backed pipeline.
type TransferKind int

const (
	InSeat TransferKind = iota
	VehicleContinuation
)

// Edge is the tagged continuation-edge payload (design notes §9):
// pre-declared and inferred edges share this type; Rank's presence
// (HasRank) distinguishes an inferred edge from an imported one.
type Edge struct {
	From, To *Node
	Kind     TransferKind

	// Rank orders a from-node's candidate edges by order of discovery
	// (§4.3); only inferred edges carry one.
	Rank    int
	HasRank bool

	// MatchDays is the edge's day-set in the from-node's frame, set once
	// the graph builder has resolved overlaps (§4.5 step 2/4).
	MatchDays dayset.DaySet

	// Shift is the day shift (0 or 1) applied going from From's frame to
	// To's frame: days-in-To's-frame = shift(MatchDays, +Shift).
	Shift int
}

// CompositeKind flags why a node may not be duplicated by the simplifier.
type CompositeKind int

const (
	NotComposite CompositeKind = iota
	CompositeJoin
	CompositeSplit
)

// Node is a (trip, day-set) pair plus its continuation adjacency. TripID is
// opaque to this package — the continuity package is the only caller that
// interprets it.
type Node struct {
	TripID string
	Days   dayset.DaySet

	Out []*Edge
	In  []*Edge

	// SourceDays/SinkDays are the node's own out-of-block/into-block
	// residual days (§4.5 step 5): days not claimed by any continuation
	// neighbour on that side.
	SourceDays dayset.DaySet
	SinkDays   dayset.DaySet

	Composite CompositeKind
}

// Graph is the arena. Nodes are addressed by pointer; NodesByTrip lets
// builders look a node up by the trip identifier it was created for.
type Graph struct {
	Nodes       []*Node
	NodesByTrip map[string]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{NodesByTrip: make(map[string]*Node)}
}

// NodeFor returns the existing node for tripID, or creates one with the
// given full service day-set (§4.5 step 1: "create trip nodes on demand
// with their trip's full service days").
func (g *Graph) NodeFor(tripID string, fullDays dayset.DaySet) *Node {
	if n, ok := g.NodesByTrip[tripID]; ok {
		return n
	}
	n := &Node{TripID: tripID, Days: fullDays, SourceDays: fullDays, SinkDays: fullDays}
	g.NodesByTrip[tripID] = n
	g.Nodes = append(g.Nodes, n)
	return n
}

// AddEdge links from->to with the given edge, updating both adjacency
// lists.
func (g *Graph) AddEdge(e *Edge) {
	e.From.Out = append(e.From.Out, e)
	e.To.In = append(e.To.In, e)
}

// RemoveEdge deletes e from both endpoints' adjacency lists.
func (g *Graph) RemoveEdge(e *Edge) {
	e.From.Out = removeEdge(e.From.Out, e)
	e.To.In = removeEdge(e.To.In, e)
}

func removeEdge(list []*Edge, target *Edge) []*Edge {
	out := list[:0]
	for _, e := range list {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

// Split allocates a new node holding residualDays, copies n's in/out
// adjacency lists as they stand (a caller repointing an edge removes it from
// n first), and registers it in the arena under the caller-supplied
// newTripID. It leaves n.Days unchanged and does not patch any
// neighbour — callers own that, since the specific pointer to patch varies
// by call site (§4.5 step 2, §4.6 path enumeration).
func (g *Graph) Split(n *Node, residualDays dayset.DaySet, newTripID string) *Node {
	nn := &Node{
		TripID:     newTripID,
		Days:       residualDays,
		SourceDays: residualDays,
		SinkDays:   residualDays,
		Composite:  n.Composite,
	}
	nn.Out = append(nn.Out, n.Out...)
	nn.In = append(nn.In, n.In...)

	g.NodesByTrip[newTripID] = nn
	g.Nodes = append(g.Nodes, nn)
	return nn
}

// Sources returns every node with no in-edges — the simplifier's DFS/path
// seeding set (§4.6).
func (g *Graph) Sources() []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if len(n.In) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Sinks returns every node with no out-edges.
func (g *Graph) Sinks() []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if len(n.Out) == 0 {
			out = append(out, n)
		}
	}
	return out
}
