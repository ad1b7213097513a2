package router

// stubModel is a fully-connected target model used across the test suite:
// every (col,row) tile exposes the requested channel counts per bundle and
// every (inBundle,inChannel)->(outBundle,outChannel) pair is legal. This
// isolates the tests from any particular device's legality table so they
// exercise the router's own logic (coalescing, capacity, congestion,
// determinism) rather than a specific target model's shape.
type stubModel struct {
	channels map[Bundle]int
	shim     map[TileID]bool
}

func newStubModel(channels map[Bundle]int) *stubModel {
	return &stubModel{channels: channels, shim: map[TileID]bool{}}
}

func (m *stubModel) SourceChannels(_, _ int, b Bundle) int { return m.channels[b] }
func (m *stubModel) DestChannels(_, _ int, b Bundle) int   { return m.channels[b] }

func (m *stubModel) ShimMuxSourceChannels(_, _ int, _ Bundle) int { return 0 }
func (m *stubModel) ShimMuxDestChannels(_, _ int, _ Bundle) int   { return 0 }

func (m *stubModel) IsLegalTileConnection(_, _ int, _ Bundle, _ int, _ Bundle, _ int) bool {
	return true
}

func (m *stubModel) IsShimNOCorPLTile(col, row int) bool { return m.shim[TileID{col, row}] }

// defaultChannels gives every bundle 2 channels — enough to exercise fanout,
// sharing, and alternate-path scenarios without an unwieldy matrix.
func defaultChannels() map[Bundle]int {
	return map[Bundle]int{
		BundleCore: 2, BundleDMA: 2, BundleFIFO: 2,
		BundleSouth: 2, BundleWest: 2, BundleNorth: 2, BundleEast: 2,
		BundlePLIO: 2, BundleNOC: 2, BundleTrace: 2, BundleCtrl: 2,
	}
}
