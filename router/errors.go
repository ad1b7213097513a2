package router

import "fmt"

// ErrFixedConnectionConflict is returned by Pathfinder.AddFixedConnection
// when a pre-existing connection does not match any AVAILABLE intra arc
// (spec.md §7).
type ErrFixedConnectionConflict struct {
	SB  TileID
	Src Port
	Dst Port
}

func (e *ErrFixedConnectionConflict) Error() string {
	return fmt.Sprintf("switchbox %s: fixed connection %s->%s does not match any available arc", e.SB, e.Src, e.Dst)
}

// ErrUnroutable indicates findPaths reached its iteration cap with illegal
// edges still present (spec.md §7).
type ErrUnroutable struct {
	Iterations int
}

func (e *ErrUnroutable) Error() string {
	return fmt.Sprintf("unable to find a legal routing after %d iterations", e.Iterations)
}
