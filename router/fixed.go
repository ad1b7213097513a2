package router

import "github.com/aie-pathfinder/router/cmn/cos"

// FixedConnection names one pre-existing switchbox connection, scoped to a
// tile (spec.md §4.4, §6: "a sequence of fixed-connection declarations, each
// a set of (srcPort,dstPort) pairs scoped to a tile").
type FixedConnection struct {
	Src, Dst Port
}

// addFixedConnection marks every arc in conns as consumed by a pre-existing
// physical connection (spec.md §4.4). Unlike the original, which returns at
// the first unmatched connection and leaves the rest of the switchbox
// unprocessed, this attempts every pair in conns even after an unmatched
// one, and returns a combined error listing every pair that did not
// correspond to an AVAILABLE intra arc. Every matched pair is marked
// consumed even when the call returns an error; nothing is rolled back
// (SPEC_FULL.md §11.5).
func addFixedConnection(g *Grid, tile TileID, conns []FixedConnection) error {
	sb, ok := g.get(tile, tile)
	if !ok {
		return &ErrFixedConnectionConflict{SB: tile}
	}

	var errs cos.Errs
	for _, c := range conns {
		i, iok := sb.indexOfSrc(c.Src)
		j, jok := sb.indexOfDst(c.Dst)
		if !iok || !jok || sb.connectivity[i][j] != Available {
			errs.Add(&ErrFixedConnectionConflict{SB: tile, Src: c.Src, Dst: c.Dst})
			continue
		}
		sb.connectivity[i][j] = Invalid
	}
	return errs.Err()
}
