// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package continuity

import (
	"fmt"

	"github.com/patrickbr/gtfsblocks2transfers/dayset"
	"github.com/patrickbr/gtfsblocks2transfers/feed"
	"github.com/patrickbr/gtfsblocks2transfers/graph"
)

// Simplify produces a graph where every non-composite node has in-degree
// ≤ 1 and out-degree ≤ 1 (§4.6): it first breaks cycles, then enumerates
// linear paths from every source and composite node, allocating a fresh
// node per day-narrowed path step and reusing composite nodes across every
// path that touches them. The returned Origin maps every new-graph node
// back to the real feed trip it descends from.
func Simplify(g *graph.Graph, origin Origin, warn *feed.Warnings) (*graph.Graph, Origin) {
	breakCycles(g, warn)

	out := graph.New()
	newOrigin := make(Origin)
	s := &simplifyState{
		out:        out,
		origin:     origin,
		newOrigin:  newOrigin,
		composites: make(map[*graph.Node]*graph.Node),
		explored:   make(map[*graph.Node]bool),
		counter:    0,
	}

	var seeds []*graph.Node
	seeds = append(seeds, g.Sources()...)
	for _, n := range g.Nodes {
		if n.Composite != graph.NotComposite {
			seeds = append(seeds, n)
		}
	}

	seen := make(map[*graph.Node]bool)
	for _, seed := range seeds {
		if seen[seed] {
			continue
		}
		seen[seed] = true
		s.explorePath([]pathStep{{node: seed, days: seed.Days}}, warn)
	}

	return out, newOrigin
}

type pathStep struct {
	node *graph.Node
	days dayset.DaySet // limiting day-set in node's own frame

	// kind/shift describe the edge arriving at this step from the
	// previous one; unused for a path's first step.
	kind  graph.TransferKind
	shift int
}

type simplifyState struct {
	out        *graph.Graph
	origin     Origin
	newOrigin  Origin
	composites map[*graph.Node]*graph.Node
	explored   map[*graph.Node]bool
	counter    int
}

func (s *simplifyState) explorePath(path []pathStep, warn *feed.Warnings) {
	cur := path[len(path)-1]

	if cur.node.Composite != graph.NotComposite {
		s.emit(path)
		if s.explored[cur.node] {
			return
		}
		s.explored[cur.node] = true

		for _, e := range cur.node.Out {
			newDays := dayset.Shift(e.MatchDays, e.Shift)
			if newDays.IsEmpty() {
				continue
			}
			s.explorePath([]pathStep{
				{node: cur.node, days: cur.node.Days},
				{node: e.To, days: newDays, kind: e.Kind, shift: e.Shift},
			}, warn)
		}
		return
	}

	var consumed dayset.DaySet
	tookEdge := false
	for _, e := range cur.node.Out {
		inter := dayset.Intersection(cur.days, e.MatchDays)
		if inter.IsEmpty() {
			continue
		}
		consumed = dayset.Union(consumed, inter)

		newDays := dayset.Shift(inter, e.Shift)
		if newDays.IsEmpty() {
			continue
		}
		tookEdge = true

		next := make([]pathStep, len(path), len(path)+1)
		copy(next, path)
		next = append(next, pathStep{node: e.To, days: newDays, kind: e.Kind, shift: e.Shift})
		s.explorePath(next, warn)
	}

	// Days that took no matched edge are this node's own sink residual (§4.5
	// step 5, §4.6): a dead end with no downstream continuation, emitted as
	// its own path ending here rather than silently dropped.
	residual := dayset.Difference(cur.days, consumed)
	if !residual.IsEmpty() || !tookEdge {
		terminal := make([]pathStep, len(path))
		copy(terminal, path)
		terminal[len(terminal)-1].days = residual
		s.emit(terminal)
	}
}

// emit walks path, allocating a fresh node per non-composite step (composite
// steps reuse their shared instance), and wires edges between consecutive
// steps. A path's last step carries the true limiting day-set (no further
// narrowing happens after it); every earlier step's day-set is derived from
// it by undoing each intervening edge's shift, so the whole path agrees on
// one logical day membership, each expressed in its own step's frame — a
// single-edge chain can't narrow further downstream, but a multi-edge one
// otherwise would leave earlier steps carrying a stale, too-wide day-set.
func (s *simplifyState) emit(path []pathStep) {
	days := make([]dayset.DaySet, len(path))
	days[len(path)-1] = path[len(path)-1].days
	for i := len(path) - 2; i >= 0; i-- {
		days[i] = dayset.Shift(days[i+1], -path[i+1].shift)
	}

	newNodes := make([]*graph.Node, len(path))

	for i, step := range path {
		if step.node.Composite != graph.NotComposite {
			nn, ok := s.composites[step.node]
			if !ok {
				nn = s.out.NodeFor(step.node.TripID, step.node.Days)
				nn.Composite = step.node.Composite
				s.composites[step.node] = nn
				s.newOrigin[nn] = s.origin[step.node]
			}
			newNodes[i] = nn
			continue
		}

		// A single-step path keeps the origin trip's own identifier: either
		// it was never touched by any continuation, or — §4.6/§8 S6 — it is
		// the untouched residual left over after a sibling path carried off
		// part of its days. A multi-step path is a genuine day-narrowed
		// clone and gets a fresh identifier.
		newID := step.node.TripID
		if len(path) > 1 {
			s.counter++
			newID = fmt.Sprintf("%s::lin%d", step.node.TripID, s.counter)
		}
		newNodes[i] = s.out.NodeFor(newID, days[i])
		s.newOrigin[newNodes[i]] = s.origin[step.node]
	}

	for i := 1; i < len(newNodes); i++ {
		e := &graph.Edge{
			From:      newNodes[i-1],
			To:        newNodes[i],
			Kind:      path[i].kind,
			MatchDays: days[i-1],
			Shift:     path[i].shift,
		}
		s.out.AddEdge(e)
	}
}

// breakCycles is §4.6's cycle-breaking pass: iterative DFS colouring nodes
// ENTER on push and EXIT once all out-edges are processed. A back edge
// (target ENTERed but not EXITed) is collected and removed once the walk
// finishes, its match-days folded into the endpoints' sink/source residuals.
func breakCycles(g *graph.Graph, warn *feed.Warnings) {
	const (
		unvisited = iota
		entered
		exited
	)

	color := make(map[*graph.Node]int, len(g.Nodes))
	type frame struct {
		node    *graph.Node
		edgeIdx int
	}

	var backEdges []*graph.Edge

	for _, id := range sortedNodeIds(g) {
		root := g.NodesByTrip[id]
		if color[root] != unvisited {
			continue
		}

		stack := []*frame{{node: root}}
		color[root] = entered

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.edgeIdx >= len(top.node.Out) {
				color[top.node] = exited
				stack = stack[:len(stack)-1]
				continue
			}

			e := top.node.Out[top.edgeIdx]
			top.edgeIdx++

			switch color[e.To] {
			case entered:
				backEdges = append(backEdges, e)
			case unvisited:
				color[e.To] = entered
				stack = append(stack, &frame{node: e.To})
			}
		}
	}

	for _, e := range backEdges {
		warn.Add("continuation %s->%s closes a cycle, edge removed", e.From.TripID, e.To.TripID)
		e.From.SinkDays = dayset.Union(e.From.SinkDays, e.MatchDays)
		e.To.SourceDays = dayset.Union(e.To.SourceDays, dayset.Shift(e.MatchDays, e.Shift))
		g.RemoveEdge(e)
	}
}
