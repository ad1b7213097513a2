package router

import "sort"

// Connectivity classifies a single (srcPort,dstPort) arc within a
// SwitchboxConnect. OCCUPIED from spec.md §3 is conceptually merged into
// Invalid here: once addFixedConnection flips an AVAILABLE arc, it becomes
// indistinguishable from an arc that was never legal in the first place —
// the router only ever needs to know "can I still route through this arc".
type Connectivity uint8

const (
	Invalid Connectivity = iota
	Available
)

// SwitchboxConnect is the arc-bundle for an ordered pair of tiles
// (srcTile,dstTile). When srcTile == dstTile it models the intra-switchbox
// crossbar; otherwise the inter-switchbox link in that direction (spec.md §3).
type SwitchboxConnect struct {
	SrcTile, DstTile TileID

	SrcPorts []Port
	DstPorts []Port

	connectivity    [][]Connectivity
	usedCapacity    [][]int
	overCapacity    [][]int
	packetFlowCount [][]int
	demand          [][]float64
}

func newSwitchboxConnect(src, dst TileID) *SwitchboxConnect {
	return &SwitchboxConnect{SrcTile: src, DstTile: dst}
}

// resize allocates the |srcPorts|x|dstPorts| matrices once SrcPorts/DstPorts
// are fully populated (spec.md §4.2).
func (sb *SwitchboxConnect) resize() {
	n, m := len(sb.SrcPorts), len(sb.DstPorts)
	sb.connectivity = make([][]Connectivity, n)
	sb.usedCapacity = make([][]int, n)
	sb.overCapacity = make([][]int, n)
	sb.packetFlowCount = make([][]int, n)
	sb.demand = make([][]float64, n)
	for i := 0; i < n; i++ {
		sb.connectivity[i] = make([]Connectivity, m)
		sb.usedCapacity[i] = make([]int, m)
		sb.overCapacity[i] = make([]int, m)
		sb.packetFlowCount[i] = make([]int, m)
		sb.demand[i] = make([]float64, m)
	}
}

func (sb *SwitchboxConnect) indexOfSrc(p Port) (int, bool) {
	for i, sp := range sb.SrcPorts {
		if sp == p {
			return i, true
		}
	}
	return -1, false
}

func (sb *SwitchboxConnect) indexOfDst(p Port) (int, bool) {
	for j, dp := range sb.DstPorts {
		if dp == p {
			return j, true
		}
	}
	return -1, false
}

// updateDemand is called at the start of every iteration (spec.md §4.6): for
// every AVAILABLE arc, demand grows with historical over-capacity. This is
// the Pathfinder/Nair memory term that breaks routing oscillation.
func (sb *SwitchboxConnect) updateDemand(overcapCoeff float64) {
	for i := range sb.SrcPorts {
		for j := range sb.DstPorts {
			if sb.connectivity[i][j] != Available {
				continue
			}
			sb.demand[i][j] = 1 + overcapCoeff*float64(sb.overCapacity[i][j])
		}
	}
}

// bumpDemand immediately raises demand[i][j] when an arc is taken and has
// reached capacity within the current iteration, so that ordering of flows
// within the iteration matters (spec.md §4.6 — a deliberate property).
func (sb *SwitchboxConnect) bumpDemand(i, j int, amount float64) {
	sb.demand[i][j] += amount
}

func (sb *SwitchboxConnect) resetIterationCounters() {
	for i := range sb.usedCapacity {
		for j := range sb.usedCapacity[i] {
			sb.usedCapacity[i][j] = 0
			sb.packetFlowCount[i][j] = 0
		}
	}
}

func (sb *SwitchboxConnect) resetHistory() {
	for i := range sb.usedCapacity {
		for j := range sb.usedCapacity[i] {
			sb.usedCapacity[i][j] = 0
			sb.overCapacity[i][j] = 0
		}
	}
}

// gridKey is the Grid map key: an ordered pair of tiles.
type gridKey struct {
	Src, Dst TileID
}

func (k gridKey) Less(o gridKey) bool {
	if k.Src != o.Src {
		return k.Src.Less(o.Src)
	}
	return k.Dst.Less(o.Dst)
}

// Grid maps (TileID,TileID) to SwitchboxConnect. Keys are present iff the
// pair is (t,t) for every in-range tile, or (t,n) where n is an orthogonal
// neighbor (spec.md §3).
type Grid struct {
	MaxCol, MaxRow int
	conns          map[gridKey]*SwitchboxConnect
}

func (g *Grid) get(src, dst TileID) (*SwitchboxConnect, bool) {
	sb, ok := g.conns[gridKey{src, dst}]
	return sb, ok
}

// ArcSnapshot is a read-only view of one (srcPort,dstPort) arc, for
// introspection tooling outside this package (e.g. an HTTP sidecar).
type ArcSnapshot struct {
	SrcTile, DstTile TileID
	SrcPort, DstPort Port
	Available        bool
	UsedCapacity     int
	OverCapacity     int
	Demand           float64
}

// Snapshot returns every arc in the grid in deterministic (src,dst) order,
// for introspection tooling. It never mutates the grid.
func (g *Grid) Snapshot() []ArcSnapshot {
	var out []ArcSnapshot
	for _, key := range g.sortedKeys() {
		sb := g.conns[key]
		for i, sp := range sb.SrcPorts {
			for j, dp := range sb.DstPorts {
				out = append(out, ArcSnapshot{
					SrcTile:      sb.SrcTile,
					DstTile:      sb.DstTile,
					SrcPort:      sp,
					DstPort:      dp,
					Available:    sb.connectivity[i][j] == Available,
					UsedCapacity: sb.usedCapacity[i][j],
					OverCapacity: sb.overCapacity[i][j],
					Demand:       sb.demand[i][j],
				})
			}
		}
	}
	return out
}

// sortedKeys returns every grid key in (src,dst) lexicographic order — used
// whenever the router must iterate the whole grid deterministically
// (spec.md §5: "map iteration order when sweeping arcs" is a potential
// non-determinism source, mitigated by sorting keys before iterating).
func (g *Grid) sortedKeys() []gridKey {
	keys := make([]gridKey, 0, len(g.conns))
	for k := range g.conns {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// shimWorkaroundBundles are the bundles for which Shim NOC/PL tiles force
// AVAILABLE connectivity regardless of IsLegalTileConnection (spec.md §4.2).
var shimWorkaroundBundles = map[Bundle]bool{
	BundleDMA:  true,
	BundleNOC:  true,
	BundlePLIO: true,
}

// BuildGrid materializes the routing graph from a TargetModel for a device
// with maxCol+1 columns and maxRow+1 rows (spec.md §4.2).
func BuildGrid(tm TargetModel, maxCol, maxRow int) *Grid {
	g := &Grid{MaxCol: maxCol, MaxRow: maxRow, conns: make(map[gridKey]*SwitchboxConnect)}

	for row := 0; row <= maxRow; row++ {
		for col := 0; col <= maxCol; col++ {
			maxChannels := buildIntraConnect(g, tm, col, row)

			if row > 0 {
				buildInterConnect(g, col, row, col, row-1, BundleSouth, BundleNorth, maxChannels)
			}
			if row < maxRow {
				buildInterConnect(g, col, row, col, row+1, BundleNorth, BundleSouth, maxChannels)
			}
			if col > 0 {
				buildInterConnect(g, col, row, col-1, row, BundleWest, BundleEast, maxChannels)
			}
			if col < maxCol {
				buildInterConnect(g, col, row, col+1, row, BundleEast, BundleWest, maxChannels)
			}
		}
	}
	return g
}

// buildIntraConnect builds the (tile,tile) crossbar record for one tile and
// returns the per-bundle channel counts used to size outgoing inter-links
// (spec.md §4.2, §9 open question (a): the destination count is what's kept,
// since it's assigned last in the per-bundle loop below).
func buildIntraConnect(g *Grid, tm TargetModel, col, row int) map[Bundle]int {
	coords := TileID{col, row}
	sb := newSwitchboxConnect(coords, coords)
	isShim := tm.IsShimNOCorPLTile(col, row)

	maxChannels := make(map[Bundle]int, numBundles)
	for _, bundle := range bundleOrder {
		srcChannels := tm.SourceChannels(col, row, bundle)
		if srcChannels == 0 && isShim {
			srcChannels = tm.ShimMuxSourceChannels(col, row, bundle)
		}
		for ch := 0; ch < srcChannels; ch++ {
			sb.SrcPorts = append(sb.SrcPorts, Port{bundle, ch})
		}

		dstChannels := tm.DestChannels(col, row, bundle)
		if dstChannels == 0 && isShim {
			dstChannels = tm.ShimMuxDestChannels(col, row, bundle)
		}
		for ch := 0; ch < dstChannels; ch++ {
			sb.DstPorts = append(sb.DstPorts, Port{bundle, ch})
		}

		// destination count wins: it is assigned last, and is what inter-
		// record construction uses to size the outward link (spec.md §9 (a)).
		maxChannels[bundle] = dstChannels
	}

	sb.resize()
	for i, in := range sb.SrcPorts {
		for j, out := range sb.DstPorts {
			legal := tm.IsLegalTileConnection(col, row, in.Bundle, in.Channel, out.Bundle, out.Channel)
			switch {
			case legal:
				sb.connectivity[i][j] = Available
			case isShim && (shimWorkaroundBundles[in.Bundle] || shimWorkaroundBundles[out.Bundle]):
				sb.connectivity[i][j] = Available
			default:
				sb.connectivity[i][j] = Invalid
			}
		}
	}

	g.conns[gridKey{coords, coords}] = sb
	return maxChannels
}

// buildInterConnect builds the (col,row)->(targetCol,targetRow) link record:
// same-channel crossing only, diagonal AVAILABLE (spec.md §4.2).
func buildInterConnect(g *Grid, col, row, targetCol, targetRow int, srcBundle, dstBundle Bundle, maxChannels map[Bundle]int) {
	src, dst := TileID{col, row}, TileID{targetCol, targetRow}
	sb := newSwitchboxConnect(src, dst)

	channels := maxChannels[srcBundle]
	for ch := 0; ch < channels; ch++ {
		sb.SrcPorts = append(sb.SrcPorts, Port{srcBundle, ch})
		sb.DstPorts = append(sb.DstPorts, Port{dstBundle, ch})
	}
	sb.resize()
	for i := range sb.SrcPorts {
		sb.connectivity[i][i] = Available
	}

	g.conns[gridKey{src, dst}] = sb
}
