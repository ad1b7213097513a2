package router

import (
	"github.com/aie-pathfinder/router/cmn/debug"
	"github.com/aie-pathfinder/router/cmn/nlog"
)

// IterationStats reports the last findPaths run's bookkeeping, useful for
// metrics/logging (spec.md §9 (b): totalPathLength is informational only).
type IterationStats struct {
	Iterations      int
	IllegalEdges    int
	TotalPathLength int
}

// Pathfinder is the negotiated-congestion router: grid, flow registry, and
// the per-instance adjacency cache (spec.md §3 "lifecycles" — grid and flow
// registry are immutable once findPaths begins; only counters/demand
// change). A Pathfinder is single-threaded and not safe for concurrent use
// from multiple goroutines (spec.md §5); run independent devices through
// independent Pathfinder instances (see package batch).
type Pathfinder struct {
	grid    *Grid
	flows   flowRegistry
	channels map[PathNode][]PathNode
	opts    Options
	stats   IterationStats
	started bool
}

// New builds the grid from tm for a maxCol+1 x maxRow+1 device and returns a
// Pathfinder ready to accept flows and fixed connections.
func New(tm TargetModel, maxCol, maxRow int, opts Options) *Pathfinder {
	return &Pathfinder{
		grid:     BuildGrid(tm, maxCol, maxRow),
		channels: make(map[PathNode][]PathNode),
		opts:     opts,
	}
}

// AddFlow registers a flow from (srcTile,srcPort) to (dstTile,dstPort). See
// spec.md §4.3 for fanout-coalescing semantics.
func (pf *Pathfinder) AddFlow(srcTile TileID, srcPort Port, dstTile TileID, dstPort Port, isPacket bool) error {
	debug.Assert(!pf.started, "AddFlow called after findPaths began")
	return pf.flows.addFlow(srcTile, srcPort, dstTile, dstPort, isPacket)
}

// AddFixedConnection marks arcs already consumed by pre-existing switchbox
// connections as unavailable (spec.md §4.4).
func (pf *Pathfinder) AddFixedConnection(tile TileID, conns []FixedConnection) error {
	debug.Assert(!pf.started, "AddFixedConnection called after findPaths began")
	return addFixedConnection(pf.grid, tile, conns)
}

// Stats returns the bookkeeping from the last findPaths call.
func (pf *Pathfinder) Stats() IterationStats { return pf.stats }

// Grid exposes the underlying routing graph for introspection tooling
// (e.g. package debugsrv). Callers must not mutate the returned Grid.
func (pf *Pathfinder) Grid() *Grid { return pf.grid }

// FindPaths performs negotiated-congestion routing for every registered
// flow (spec.md §4.7). It returns (solution, true) on success, or (nil,
// false) once maxIterations is reached with illegal edges still present.
func (pf *Pathfinder) FindPaths(maxIterations int) (Solution, bool) {
	pf.started = true

	for _, key := range pf.grid.sortedKeys() {
		pf.grid.conns[key].resetHistory()
	}

	iterationCount := -1
	illegalEdges := 0

	var solution Solution

	for {
		iterationCount++
		if iterationCount >= maxIterations {
			pf.stats = IterationStats{Iterations: iterationCount, IllegalEdges: illegalEdges}
			nlog.Warningf("findPaths: %v (illegalEdges=%d)", &ErrUnroutable{Iterations: iterationCount}, illegalEdges)
			return nil, false
		}

		for _, key := range pf.grid.sortedKeys() {
			pf.grid.conns[key].updateDemand(pf.opts.OvercapCoeff)
		}

		illegalEdges = 0
		totalPathLength := -1
		solution = make(Solution, len(pf.flows.flows))
		for _, key := range pf.grid.sortedKeys() {
			pf.grid.conns[key].resetIterationCounters()
		}

		for _, flow := range pf.flows.flows {
			settings, ok := pf.routeFlow(flow)
			if !ok {
				pf.stats = IterationStats{Iterations: iterationCount + 1, IllegalEdges: illegalEdges}
				nlog.Warningf("findPaths: flow at %s has an unreachable destination, no legal routing exists", flow.Src)
				return nil, false
			}
			solution[flow.Src] = settings
			if debug.ON() {
				debug.Infof("findPaths: iteration %d flow %s -> %v: %s", iterationCount, flow.Src, flow.Dsts, formatFlowSettings(settings))
			}
		}

		for _, key := range pf.grid.sortedKeys() {
			sb := pf.grid.conns[key]
			for i := range sb.SrcPorts {
				for j := range sb.DstPorts {
					if sb.packetFlowCount[i][j] > 0 {
						sb.packetFlowCount[i][j] = 0
						sb.usedCapacity[i][j]++
					}
					if sb.usedCapacity[i][j] > MaxCircuitStreamCapacity {
						sb.overCapacity[i][j]++
						illegalEdges++
					}
					if sb.SrcTile != sb.DstTile {
						totalPathLength += sb.usedCapacity[i][j]
					}
				}
			}
		}

		pf.stats = IterationStats{Iterations: iterationCount + 1, IllegalEdges: illegalEdges, TotalPathLength: totalPathLength}
		nlog.Infof("findPaths: iteration %d, illegalEdges=%d, totalPathLength=%d", iterationCount, illegalEdges, totalPathLength)

		if illegalEdges == 0 {
			return solution, true
		}
	}
}

// routeFlow traces one flow's shortest paths to every destination and folds
// the traversed arcs into usedCapacity/packetFlowCount/demand, returning the
// per-switchbox settings (spec.md §4.7 steps 4a-4d). It reports ok=false if
// any destination is unreachable from the flow's source in the virtual
// graph — a structural property of the grid and target model that no
// number of further iterations can change.
func (pf *Pathfinder) routeFlow(flow *Flow) (map[TileID]*SwitchSettings, bool) {
	preds := pf.dijkstraShortestPaths(flow.Src)

	for _, dst := range flow.Dsts {
		if dst != flow.Src {
			if _, ok := preds[dst]; !ok {
				return nil, false
			}
		}
	}

	settings := newSwitchSettingsMap()
	settingsFor(settings, flow.Src.SB).Src = flow.Src.Port

	processed := newProcessedSet()
	processed.add(flow.Src)

	for _, dst := range flow.Dsts {
		settingsFor(settings, dst.SB).addDst(dst.Port)

		curr := dst
		for !processed.has(curr) {
			pred, ok := preds[curr]
			debug.Assert(ok, "back-trace: no predecessor for reachable node")

			sb, ok := pf.grid.get(pred.SB, curr.SB)
			debug.Assert(ok, "back-trace: missing grid entry for predecessor arc")
			i, iok := sb.indexOfSrc(pred.Port)
			j, jok := sb.indexOfDst(curr.Port)
			debug.Assert(iok && jok, "back-trace: port not found computing arc indices")

			if flow.IsPacket {
				sb.packetFlowCount[i][j]++
				if sb.packetFlowCount[i][j] >= pf.opts.packetCapacity() {
					sb.packetFlowCount[i][j] = 0
					sb.usedCapacity[i][j]++
				}
			} else {
				sb.packetFlowCount[i][j] = 0
				sb.usedCapacity[i][j]++
			}

			if sb.usedCapacity[i][j] >= MaxCircuitStreamCapacity {
				sb.bumpDemand(i, j, pf.opts.BumpAmount)
			}

			if pred.SB == curr.SB {
				settingsFor(settings, pred.SB).Src = pred.Port
				settingsFor(settings, curr.SB).addDst(curr.Port)
			}

			processed.add(curr)
			curr = pred
		}
	}

	return settings, true
}
