package router_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/aie-pathfinder/router/router"
)

type bddModel struct {
	channels map[router.Bundle]int
}

func (m *bddModel) SourceChannels(_, _ int, b router.Bundle) int { return m.channels[b] }
func (m *bddModel) DestChannels(_, _ int, b router.Bundle) int   { return m.channels[b] }
func (m *bddModel) ShimMuxSourceChannels(_, _ int, _ router.Bundle) int { return 0 }
func (m *bddModel) ShimMuxDestChannels(_, _ int, _ router.Bundle) int   { return 0 }
func (m *bddModel) IsLegalTileConnection(_, _ int, _ router.Bundle, _ int, _ router.Bundle, _ int) bool {
	return true
}
func (m *bddModel) IsShimNOCorPLTile(_, _ int) bool { return false }

var _ = Describe("Pathfinder", func() {
	var tm *bddModel

	BeforeEach(func() {
		tm = &bddModel{channels: map[router.Bundle]int{
			router.BundleCore: 2, router.BundleEast: 1, router.BundleWest: 1,
		}}
	})

	It("routes a single circuit flow across one inter-switchbox link", func() {
		pf := router.New(tm, 1, 0, router.DefaultOptions())
		err := pf.AddFlow(
			router.TileID{Col: 0, Row: 0}, router.Port{Bundle: router.BundleCore, Channel: 0},
			router.TileID{Col: 1, Row: 0}, router.Port{Bundle: router.BundleCore, Channel: 0},
			false,
		)
		Expect(err).NotTo(HaveOccurred())

		sol, ok := pf.FindPaths(50)
		Expect(ok).To(BeTrue())
		Expect(sol).To(HaveLen(1))

		stats := pf.Stats()
		Expect(stats.IllegalEdges).To(Equal(0))
	})

	It("rejects AddFixedConnection for a port that was never legal", func() {
		pf := router.New(tm, 0, 0, router.DefaultOptions())
		err := pf.AddFixedConnection(router.TileID{Col: 0, Row: 0}, []router.FixedConnection{
			{Src: router.Port{Bundle: router.BundleCore, Channel: 0}, Dst: router.Port{Bundle: router.BundleEast, Channel: 99}},
		})
		Expect(err).To(HaveOccurred())
	})

	It("reports unroutable when the destination port does not exist on the device", func() {
		starved := &bddModel{channels: map[router.Bundle]int{router.BundleCore: 1}}
		pf := router.New(starved, 0, 0, router.DefaultOptions())
		// BundleEast has zero channels on this device: the destination node
		// is absent from the virtual graph entirely, never reachable.
		err := pf.AddFlow(
			router.TileID{Col: 0, Row: 0}, router.Port{Bundle: router.BundleCore, Channel: 0},
			router.TileID{Col: 0, Row: 0}, router.Port{Bundle: router.BundleEast, Channel: 0},
			false,
		)
		Expect(err).NotTo(HaveOccurred())

		_, ok := pf.FindPaths(5)
		Expect(ok).To(BeFalse())
	})
})
