// Package graphlayout lays out a commit graph with a spring and charge
// simulation and tracks the hover and click state of its nodes.
//
// The Engine is single-threaded. A Loop owns it on one goroutine, ticks it
// while it moves and idles once it is at rest.
package graphlayout

import "time"

// Params are the simulation and interaction constants.
type Params struct {
	SpringLen float64 // natural edge length
	SpringK   float64 // spring stiffness
	ChargeK   float64 // pairwise repulsion
	Damping   float64 // velocity factor applied every tick
	MinDist2  float64 // squared distance floor for repulsion

	Step     time.Duration // tick interval
	SpeedEps float64       // max velocity component considered at rest
	MinSteps int           // ticks run unconditionally after a resume

	InitialRadius float64 // radius of the starting circle
	NodeRadius    float64
	HitMargin     float64 // extra pick radius around a node

	HoverScale    float64
	ScaleDuration time.Duration
	PopupDuration time.Duration
	PopupWidth    float64
	PopupHeight   float64
}

// DefaultParams returns the stock constants.
func DefaultParams() Params {
	return Params{
		SpringLen: 100,
		SpringK:   0.02,
		ChargeK:   8000,
		Damping:   0.85,
		MinDist2:  0.01,

		Step:     16 * time.Millisecond,
		SpeedEps: 0.05,
		MinSteps: 60,

		InitialRadius: 200,
		NodeRadius:    8,
		HitMargin:     6,

		HoverScale:    1.5,
		ScaleDuration: 150 * time.Millisecond,
		PopupDuration: 250 * time.Millisecond,
		PopupWidth:    160,
		PopupHeight:   120,
	}
}
