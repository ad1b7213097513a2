package router

import (
	"container/heap"
	"math"
	"sort"

	"github.com/aie-pathfinder/router/cmn/debug"
)

// neighborOffsets enumerates the four orthogonal directions in N/E/S/W
// order (spec.md §4.5 step 2), pairing the offset with the bundle the
// arriving port at the neighbor uses and the bundle a flow must currently be
// on to cross.
var neighborOffsets = [4]struct {
	dCol, dRow  int
	arriveBundle Bundle
}{
	{0, -1, BundleNorth}, // north neighbor: arriving port is North
	{1, 0, BundleWest},   // east neighbor: arriving port is West
	{0, 1, BundleSouth},  // south neighbor: arriving port is South
	{-1, 0, BundleEast},  // west neighbor: arriving port is East
}

// adjacency returns, for a given src PathNode, every PathNode it connects to
// directly (intra crossbar arcs plus legal inter-switchbox hops), sorted
// lexicographically for deterministic iteration (spec.md §4.5 step 3). The
// cache is keyed per-Pathfinder and filled on first use; it is never
// invalidated because the grid never changes during findPaths (spec.md §9).
func (pf *Pathfinder) adjacency(src PathNode) []PathNode {
	if cached, ok := pf.channels[src]; ok {
		return cached
	}

	var out []PathNode

	if sb, ok := pf.grid.get(src.SB, src.SB); ok {
		if i, ok := sb.indexOfSrc(src.Port); ok {
			for j, dp := range sb.DstPorts {
				if sb.connectivity[i][j] == Available {
					out = append(out, PathNode{src.SB, dp})
				}
			}
		}
	}

	for _, off := range neighborOffsets {
		neighborTile := TileID{src.SB.Col + off.dCol, src.SB.Row + off.dRow}
		if src.Port.Bundle != connectingBundle(off.arriveBundle) {
			continue
		}
		sb, ok := pf.grid.get(src.SB, neighborTile)
		if !ok {
			continue
		}
		neighborPort := Port{off.arriveBundle, src.Port.Channel}
		if _, ok := sb.indexOfDst(neighborPort); ok {
			out = append(out, PathNode{neighborTile, neighborPort})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	pf.channels[src] = out
	return out
}

const inf = math.MaxFloat64

type color uint8

const (
	white color = iota
	gray
	black
)

// pqItem is one entry in the Dijkstra priority queue.
type pqItem struct {
	node PathNode
	dist float64
}

// nodeHeap is a standard binary min-heap over (distance, PathNode) with
// PathNode.Less as a deterministic tie-breaker. It is not indexed and has no
// decrease-key: a relaxed node is pushed again, and stale entries are
// skipped when popped because the node is already black.
type nodeHeap []pqItem

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].node.Less(h[j].node)
}
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(pqItem)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// dijkstraShortestPaths runs single-source Dijkstra over the virtual graph
// of (tile,port) nodes with edge weights = current demand on the underlying
// arc (spec.md §4.5). It returns a predecessor map keyed by every reachable
// node other than src.
func (pf *Pathfinder) dijkstraShortestPaths(src PathNode) map[PathNode]PathNode {
	distance := map[PathNode]float64{src: 0}
	preds := map[PathNode]PathNode{}
	colors := map[PathNode]color{}

	h := &nodeHeap{{node: src, dist: 0}}

	for h.Len() > 0 {
		cur := heap.Pop(h).(pqItem).node
		if colors[cur] == black {
			continue
		}

		for _, next := range pf.adjacency(cur) {
			sb, ok := pf.grid.get(cur.SB, next.SB)
			debug.Assert(ok, "dijkstra: missing grid entry for adjacent node")
			i, iok := sb.indexOfSrc(cur.Port)
			j, jok := sb.indexOfDst(next.Port)
			debug.Assert(iok && jok, "dijkstra: port not found computing arc indices")

			if _, seen := distance[next]; !seen {
				distance[next] = inf
			}

			weight := sb.demand[i][j]
			relax := distance[cur]+weight < distance[next]

			switch colors[next] {
			case white:
				if relax {
					distance[next] = distance[cur] + weight
					preds[next] = cur
					colors[next] = gray
				}
				heap.Push(h, pqItem{node: next, dist: distance[next]})
			case gray:
				if relax {
					distance[next] = distance[cur] + weight
					preds[next] = cur
					heap.Push(h, pqItem{node: next, dist: distance[next]})
				}
			case black:
				// finalized; non-negative weights guarantee no further relaxation.
			}
		}
		colors[cur] = black
	}

	return preds
}
