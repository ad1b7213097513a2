package router

import (
	"encoding/binary"

	cuckoo "github.com/seiflotfy/cuckoofilter"
)

// processedSet tracks which PathNodes have been folded into the current
// flow's switch settings during back-trace (spec.md §4.7 step 4c). The
// exact map is authoritative; the cuckoo filter is a cheap pre-filter that
// can only prove non-membership (a filter miss skips the map lookup
// outright), never membership — it can false-positive, never false-negative,
// so correctness never depends on it (SPEC_FULL.md §11.3).
type processedSet struct {
	exact  map[PathNode]struct{}
	filter *cuckoo.Filter
}

func newProcessedSet() *processedSet {
	return &processedSet{
		exact:  make(map[PathNode]struct{}),
		filter: cuckoo.NewFilter(1024),
	}
}

func (s *processedSet) add(n PathNode) {
	s.exact[n] = struct{}{}
	s.filter.InsertUnique(encodePathNode(n))
}

func (s *processedSet) has(n PathNode) bool {
	if !s.filter.Lookup(encodePathNode(n)) {
		return false
	}
	_, ok := s.exact[n]
	return ok
}

func encodePathNode(n PathNode) []byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], uint64(uint32(n.SB.Col))<<32|uint64(uint32(n.SB.Row)))
	binary.LittleEndian.PutUint64(b[8:16], uint64(uint32(n.Port.Bundle))<<32|uint64(uint32(n.Port.Channel)))
	return b[:]
}
