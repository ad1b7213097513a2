package router

// Capacity constants (spec.md §3, §6). Arcs are shared-medium: a circuit
// flow consumes one unit immediately; MaxPacketStreamCapacity packet flows
// may share one unit.
const (
	MaxCircuitStreamCapacity = 1
	MaxPacketStreamCapacity  = 4
)

// Options tunes the demand-pricing formulas (spec.md §4.6, §9 "demand
// formula freedom"). These are not wire/config-file driven — the core has
// no environment variables or file formats (spec.md §6) — callers construct
// Options in code.
type Options struct {
	// MaxIterations bounds findPaths; exceeding it without a legal routing
	// returns (nil, false).
	MaxIterations int
	// OvercapCoeff scales the historical over-capacity memory term in
	// updateDemand: demand = 1 + OvercapCoeff*overCapacity. Must be > 0 so
	// demand is strictly increasing with overCapacity.
	OvercapCoeff float64
	// BumpAmount is added to demand[i][j] immediately when an arc is taken
	// and has reached capacity within the current iteration (spec.md §4.6).
	BumpAmount float64
	// PacketCapacity overrides MaxPacketStreamCapacity when > 0 (device
	// models may parameterize it, spec.md §3).
	PacketCapacity int
}

// DefaultOptions returns the router's default tuning constants.
func DefaultOptions() Options {
	return Options{
		MaxIterations:  1000,
		OvercapCoeff:   1.0,
		BumpAmount:     1000,
		PacketCapacity: MaxPacketStreamCapacity,
	}
}

func (o Options) packetCapacity() int {
	if o.PacketCapacity > 0 {
		return o.PacketCapacity
	}
	return MaxPacketStreamCapacity
}
