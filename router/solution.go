package router

import (
	"fmt"
	"sort"
	"strings"
)

// SwitchSettings is the per-switchbox setting produced for one flow: the
// input port and the set of output ports used (spec.md §3).
type SwitchSettings struct {
	Src  Port
	Dsts map[Port]struct{}
}

func newSwitchSettings() *SwitchSettings {
	return &SwitchSettings{Dsts: make(map[Port]struct{})}
}

func (s *SwitchSettings) addDst(p Port) { s.Dsts[p] = struct{}{} }

// SortedDsts returns Dsts in deterministic (bundle,channel) order — useful
// for tests and for solution-projection consumers (e.g. the rewriter this
// core hands its solution to).
func (s *SwitchSettings) SortedDsts() []Port {
	out := make([]Port, 0, len(s.Dsts))
	for p := range s.Dsts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (s *SwitchSettings) String() string {
	return fmt.Sprintf("src=%s dsts=%v", s.Src, s.SortedDsts())
}

// formatFlowSettings renders one flow's per-switchbox settings in
// deterministic tile order, for debug tracing (spec.md §10.1).
func formatFlowSettings(settings map[TileID]*SwitchSettings) string {
	tiles := make([]TileID, 0, len(settings))
	for t := range settings {
		tiles = append(tiles, t)
	}
	sort.Slice(tiles, func(i, j int) bool { return tiles[i].Less(tiles[j]) })

	var b strings.Builder
	for i, t := range tiles {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s{%s}", t, settings[t])
	}
	return b.String()
}

// Solution is the routing solution: one SwitchSettings map per flow source
// (spec.md §3, §6).
type Solution map[PathNode]map[TileID]*SwitchSettings

func newSwitchSettingsMap() map[TileID]*SwitchSettings {
	return make(map[TileID]*SwitchSettings)
}

func settingsFor(m map[TileID]*SwitchSettings, sb TileID) *SwitchSettings {
	s, ok := m[sb]
	if !ok {
		s = newSwitchSettings()
		m[sb] = s
	}
	return s
}
