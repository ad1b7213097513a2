// Package router implements the congestion-aware path router: grid
// construction from a target-model adapter, flow registration, and
// negotiated-congestion routing (Nair/McMurchie-style) over a 2D tile grid.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package router

import "fmt"

// Bundle enumerates the fixed set of port groups a switchbox exposes.
type Bundle int

const (
	BundleCore Bundle = iota
	BundleDMA
	BundleFIFO
	BundleSouth
	BundleWest
	BundleNorth
	BundleEast
	BundlePLIO
	BundleNOC
	BundleTrace
	BundleCtrl

	numBundles = int(BundleCtrl) + 1
)

var bundleNames = [numBundles]string{
	"Core", "DMA", "FIFO", "South", "West", "North", "East", "PLIO", "NOC", "Trace", "Ctrl",
}

func (b Bundle) String() string {
	if int(b) < 0 || int(b) >= numBundles {
		return fmt.Sprintf("Bundle(%d)", int(b))
	}
	return bundleNames[b]
}

// bundleOrder is the fixed iteration order used when materializing
// intra-switchbox ports (spec.md §4.2): Core, DMA, FIFO, South, West,
// North, East, PLIO, NOC, Trace, Ctrl.
var bundleOrder = [numBundles]Bundle{
	BundleCore, BundleDMA, BundleFIFO, BundleSouth, BundleWest,
	BundleNorth, BundleEast, BundlePLIO, BundleNOC, BundleTrace, BundleCtrl,
}

// connectingBundle maps N<->S and E<->W: the bundle a neighbor must use to
// accept a transfer entering on the given side. Bundles with no directional
// counterpart map to themselves (never matched across an inter-switchbox arc).
func connectingBundle(b Bundle) Bundle {
	switch b {
	case BundleNorth:
		return BundleSouth
	case BundleSouth:
		return BundleNorth
	case BundleEast:
		return BundleWest
	case BundleWest:
		return BundleEast
	default:
		return b
	}
}

// TileID is a (col,row) grid coordinate. Coordinates are non-negative.
type TileID struct {
	Col, Row int
}

func (t TileID) String() string { return fmt.Sprintf("(%d,%d)", t.Col, t.Row) }

// Less gives a total order over TileID: column-major, then row.
func (t TileID) Less(o TileID) bool {
	if t.Col != o.Col {
		return t.Col < o.Col
	}
	return t.Row < o.Row
}

// Port is a (bundle, channel) pair within a switchbox.
type Port struct {
	Bundle  Bundle
	Channel int
}

func (p Port) String() string { return fmt.Sprintf("%s%d", p.Bundle, p.Channel) }

// Less gives the total order over Port required by PathNode's ordering:
// bundle-ordinal first, then channel.
func (p Port) Less(o Port) bool {
	if p.Bundle != o.Bundle {
		return p.Bundle < o.Bundle
	}
	return p.Channel < o.Channel
}

// PathNode is a vertex of the routing graph: a port on a specific switchbox.
type PathNode struct {
	SB   TileID
	Port Port
}

func (n PathNode) String() string { return fmt.Sprintf("%s:%s", n.SB, n.Port) }

// Less gives the total order over PathNode used as map key and for
// deterministic Dijkstra tie-breaking: lexicographic over
// (col, row, bundle-ordinal, channel).
func (n PathNode) Less(o PathNode) bool {
	if n.SB != o.SB {
		return n.SB.Less(o.SB)
	}
	return n.Port.Less(o.Port)
}
