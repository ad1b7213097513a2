package router

import "testing"

func TestFindPaths_SingleCircuitFlowStraightLine(t *testing.T) {
	tm := newStubModel(defaultChannels())
	pf := New(tm, 1, 0, DefaultOptions()) // 2x1 device

	if err := pf.AddFlow(TileID{0, 0}, Port{BundleNorth, 0}, TileID{1, 0}, Port{BundleEast, 0}, false); err != nil {
		t.Fatal(err)
	}

	sol, ok := pf.FindPaths(50)
	if !ok {
		t.Fatal("expected a legal routing")
	}
	if len(sol) != 1 {
		t.Fatalf("solution has %d entries, want 1", len(sol))
	}

	settings := sol[PathNode{TileID{0, 0}, Port{BundleNorth, 0}}]
	root := settings[TileID{0, 0}]
	if root == nil || root.Src != (Port{BundleNorth, 0}) {
		t.Fatalf("root switchbox src = %+v, want North0", root)
	}
	leaf := settings[TileID{1, 0}]
	if leaf == nil {
		t.Fatal("destination switchbox missing from solution")
	}
	if _, ok := leaf.Dsts[Port{BundleEast, 0}]; !ok {
		t.Fatal("destination port East0 not in leaf switchbox dsts")
	}

	assertUsedCapacityWithinBounds(t, pf)
	assertSolutionConnected(t, pf, pf.flows.flows[0], sol)
}

func TestFindPaths_TwoConflictingCircuitFlows(t *testing.T) {
	// 2x1 device, only one East channel and a single row: two circuit flows
	// both have to cross (0,0)->(1,0) on the same single-capacity arc, with no
	// detour available, so the router is expected to fail after the cap; any
	// reported success must still respect capacity.
	tm := newStubModel(map[Bundle]int{
		BundleCore: 2, BundleEast: 1, BundleWest: 1,
		BundleNorth: 1, BundleSouth: 1,
	})
	pf := New(tm, 1, 0, DefaultOptions())

	must(t, pf.AddFlow(TileID{0, 0}, Port{BundleCore, 0}, TileID{1, 0}, Port{BundleCore, 0}, false))
	must(t, pf.AddFlow(TileID{0, 0}, Port{BundleCore, 1}, TileID{1, 0}, Port{BundleCore, 1}, false))

	sol, ok := pf.FindPaths(1000)
	if ok {
		assertUsedCapacityWithinBounds(t, pf)
		if len(sol) != 2 {
			t.Fatalf("solution has %d entries, want 2", len(sol))
		}
		return
	}
	// with a single shared crossing channel and two circuit flows each
	// needing a full channel, failing after the cap is also an acceptable
	// outcome per spec.md §8 scenario 2.
}

func TestFindPaths_PacketFanoutSharesChannel(t *testing.T) {
	channels := map[Bundle]int{BundleDMA: 2, BundleEast: 1, BundleWest: 1}
	tm := newStubModel(channels)
	pf := New(tm, 2, 0, DefaultOptions()) // 3x1 device

	must(t, pf.AddFlow(TileID{0, 0}, Port{BundleDMA, 0}, TileID{1, 0}, Port{BundleDMA, 0}, true))
	must(t, pf.AddFlow(TileID{0, 0}, Port{BundleDMA, 0}, TileID{2, 0}, Port{BundleDMA, 0}, true))
	must(t, pf.AddFlow(TileID{0, 0}, Port{BundleDMA, 0}, TileID{1, 0}, Port{BundleDMA, 1}, true))

	sol, ok := pf.FindPaths(200)
	if !ok {
		t.Fatal("expected a legal routing for packet fanout")
	}
	if len(sol) != 1 {
		t.Fatalf("solution has %d entries, want 1 (coalesced fanout)", len(sol))
	}

	sb, _ := pf.grid.get(TileID{0, 0}, TileID{1, 0})
	for i := range sb.SrcPorts {
		for j := range sb.DstPorts {
			if sb.connectivity[i][j] != Available {
				continue
			}
			if sb.usedCapacity[i][j] > MaxCircuitStreamCapacity {
				t.Fatalf("(0,0)->(1,0) arc[%d][%d] usedCapacity=%d exceeds cap", i, j, sb.usedCapacity[i][j])
			}
			if sb.packetFlowCount[i][j] != 0 {
				t.Fatalf("packetFlowCount not flushed to 0 post-iteration: %d", sb.packetFlowCount[i][j])
			}
		}
	}
}

func TestFindPaths_FixedConnectionRemovesPath(t *testing.T) {
	// No South channel: with one, North0->South0->Core0 inside (0,1) would be
	// a second route, and North0->Core0 would not be the only arc.
	tm := newStubModel(map[Bundle]int{BundleNorth: 1, BundleCore: 1})
	pf := New(tm, 0, 1, DefaultOptions()) // 1x2 device

	sb, ok := pf.grid.get(TileID{0, 1}, TileID{0, 1})
	if !ok {
		t.Fatal("missing intra record")
	}
	_ = sb

	if err := pf.AddFixedConnection(TileID{0, 1}, []FixedConnection{{Src: Port{BundleNorth, 0}, Dst: Port{BundleCore, 0}}}); err != nil {
		t.Fatalf("unexpected fixed-connection conflict: %v", err)
	}

	must(t, pf.AddFlow(TileID{0, 1}, Port{BundleNorth, 0}, TileID{0, 1}, Port{BundleCore, 0}, false))

	if _, ok := pf.FindPaths(50); ok {
		t.Fatal("expected unroutable after fixed connection consumed the only arc")
	}
}

func TestFindPaths_FixedConnectionConflictReported(t *testing.T) {
	tm := newStubModel(defaultChannels())
	pf := New(tm, 0, 0, DefaultOptions())

	err := pf.AddFixedConnection(TileID{0, 0}, []FixedConnection{{Src: Port{BundleCore, 0}, Dst: Port{BundleTrace, 9}}})
	if err == nil {
		t.Fatal("expected conflict for a destination port that does not exist")
	}
}

func TestFindPaths_MultiDestinationBacktraceSharedPrefix(t *testing.T) {
	tm := newStubModel(defaultChannels())
	pf := New(tm, 1, 0, DefaultOptions()) // 2x1 device

	// Both destinations sit on (1,0), so their back-traces share the
	// (0,0)->(1,0) prefix; counting it twice would overflow its capacity.
	must(t, pf.AddFlow(TileID{0, 0}, Port{BundleCore, 0}, TileID{1, 0}, Port{BundleTrace, 0}, false))
	must(t, pf.AddFlow(TileID{0, 0}, Port{BundleCore, 0}, TileID{1, 0}, Port{BundleTrace, 1}, false))

	sol, ok := pf.FindPaths(50)
	if !ok {
		t.Fatal("expected a legal routing")
	}
	if len(sol) != 1 {
		t.Fatalf("solution has %d entries, want 1 (coalesced fanout)", len(sol))
	}
	assertUsedCapacityWithinBounds(t, pf)
	settings := sol[PathNode{TileID{0, 0}, Port{BundleCore, 0}}]
	leaf := settings[TileID{1, 0}]
	if leaf == nil {
		t.Fatal("destination switchbox missing from solution")
	}
	if _, ok := leaf.Dsts[Port{BundleTrace, 0}]; !ok {
		t.Fatal("missing Trace0 destination")
	}
	if _, ok := leaf.Dsts[Port{BundleTrace, 1}]; !ok {
		t.Fatal("missing Trace1 destination")
	}
}

func TestFindPaths_Determinism(t *testing.T) {
	build := func() (Solution, bool) {
		tm := newStubModel(defaultChannels())
		pf := New(tm, 2, 2, DefaultOptions())
		must(t, pf.AddFlow(TileID{0, 0}, Port{BundleCore, 0}, TileID{2, 2}, Port{BundleCore, 0}, false))
		must(t, pf.AddFlow(TileID{0, 0}, Port{BundleCore, 1}, TileID{1, 1}, Port{BundleCore, 1}, true))
		return pf.FindPaths(200)
	}

	sol1, ok1 := build()
	sol2, ok2 := build()
	if ok1 != ok2 {
		t.Fatalf("non-deterministic success: %v vs %v", ok1, ok2)
	}
	if !ok1 {
		return
	}
	if len(sol1) != len(sol2) {
		t.Fatal("non-deterministic solution size")
	}
	for src, settings1 := range sol1 {
		settings2, ok := sol2[src]
		if !ok {
			t.Fatalf("flow %s missing from second run", src)
		}
		if len(settings1) != len(settings2) {
			t.Fatalf("flow %s: differing switchbox count across runs", src)
		}
		for sb, s1 := range settings1 {
			s2, ok := settings2[sb]
			if !ok || s1.Src != s2.Src || len(s1.Dsts) != len(s2.Dsts) {
				t.Fatalf("flow %s switchbox %s differs across runs", src, sb)
			}
		}
	}
}

func TestUpdateDemand_Idempotent(t *testing.T) {
	tm := newStubModel(defaultChannels())
	g := BuildGrid(tm, 0, 0)
	sb, _ := g.get(TileID{0, 0}, TileID{0, 0})
	sb.overCapacity[0][0] = 3

	sb.updateDemand(1.0)
	d1 := sb.demand[0][0]
	sb.updateDemand(1.0)
	d2 := sb.demand[0][0]
	if d1 != d2 {
		t.Fatalf("updateDemand not idempotent: %v vs %v", d1, d2)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func assertUsedCapacityWithinBounds(t *testing.T, pf *Pathfinder) {
	t.Helper()
	for _, key := range pf.grid.sortedKeys() {
		sb := pf.grid.conns[key]
		for i := range sb.SrcPorts {
			for j := range sb.DstPorts {
				if sb.usedCapacity[i][j] > MaxCircuitStreamCapacity {
					t.Fatalf("arc %s->%s [%d][%d] usedCapacity=%d exceeds cap", sb.SrcTile, sb.DstTile, i, j, sb.usedCapacity[i][j])
				}
			}
		}
	}
}

// assertSolutionConnected re-derives a shortest-path tree from src and
// confirms every destination traces back to src over only Available arcs
// (spec.md §8, first testable property). Demand still carries the last
// iteration's bumps, so the re-derived tree may differ from the routed one.
func assertSolutionConnected(t *testing.T, pf *Pathfinder, flow *Flow, sol Solution) {
	t.Helper()
	preds := pf.dijkstraShortestPaths(flow.Src)
	for _, dst := range flow.Dsts {
		curr := dst
		for curr != flow.Src {
			pred, ok := preds[curr]
			if !ok {
				t.Fatalf("no path from %s back to %s", dst, flow.Src)
			}
			sb, ok := pf.grid.get(pred.SB, curr.SB)
			if !ok {
				t.Fatalf("missing grid arc %s->%s", pred.SB, curr.SB)
			}
			i, iok := sb.indexOfSrc(pred.Port)
			j, jok := sb.indexOfDst(curr.Port)
			if !iok || !jok || sb.connectivity[i][j] != Available {
				t.Fatalf("traced arc %s:%s -> %s:%s is not Available", pred.SB, pred.Port, curr.SB, curr.Port)
			}
			curr = pred
		}
	}
}
