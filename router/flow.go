package router

// Flow is a logical dataflow from a source port to one or more destination
// ports, marked circuit or packet (spec.md §3). Destination order is
// insertion order; duplicates are allowed and preserved.
type Flow struct {
	IsPacket bool
	Src      PathNode
	Dsts     []PathNode
}

// flowRegistry accumulates flows in registration order — the canonical
// order findPaths iterates every iteration (spec.md §9 (c)).
type flowRegistry struct {
	flows []*Flow
}

// addFlow registers a source->destination edge. Multiple destinations with
// the same source (tile,port) are coalesced into one multi-destination flow
// (spec.md §4.3). Callers adding the same source with a different isPacket
// value have violated the contract ("implementers should assert" — spec.md
// §4.3) and AddFlow reports it as an error rather than silently picking one.
func (r *flowRegistry) addFlow(srcTile TileID, srcPort Port, dstTile TileID, dstPort Port, isPacket bool) error {
	src := PathNode{srcTile, srcPort}
	dst := PathNode{dstTile, dstPort}

	for _, f := range r.flows {
		if f.Src == src {
			if f.IsPacket != isPacket {
				return &errFlowKindMismatch{Src: src}
			}
			f.Dsts = append(f.Dsts, dst)
			return nil
		}
	}

	r.flows = append(r.flows, &Flow{IsPacket: isPacket, Src: src, Dsts: []PathNode{dst}})
	return nil
}

type errFlowKindMismatch struct {
	Src PathNode
}

func (e *errFlowKindMismatch) Error() string {
	return "flow at " + e.Src.String() + " registered as both circuit and packet"
}
