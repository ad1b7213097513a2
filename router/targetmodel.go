package router

// TargetModel is the read-only oracle the grid builder consults (spec.md
// §4.1). Implementations may be in-memory tables or computed; the router
// never mutates or caches across TargetModel calls beyond what's described
// in §4.2.
type TargetModel interface {
	// SourceChannels returns the number of switchbox source channels for
	// (col,row,bundle).
	SourceChannels(col, row int, bundle Bundle) int
	// DestChannels returns the number of switchbox destination channels for
	// (col,row,bundle).
	DestChannels(col, row int, bundle Bundle) int
	// ShimMuxSourceChannels is consulted only when SourceChannels reports 0
	// and IsShimNOCorPLTile is true.
	ShimMuxSourceChannels(col, row int, bundle Bundle) int
	// ShimMuxDestChannels is consulted only when DestChannels reports 0 and
	// IsShimNOCorPLTile is true.
	ShimMuxDestChannels(col, row int, bundle Bundle) int
	// IsLegalTileConnection reports whether (inBundle,inChannel) ->
	// (outBundle,outChannel) is a legal intra-switchbox connection at
	// (col,row).
	IsLegalTileConnection(col, row int, inBundle Bundle, inChannel int, outBundle Bundle, outChannel int) bool
	// IsShimNOCorPLTile reports whether (col,row) is a Shim NOC/PL tile,
	// which unlocks the shim-mux fallback port counts and the shim-mux
	// connectivity workaround (spec.md §4.2).
	IsShimNOCorPLTile(col, row int) bool
}
