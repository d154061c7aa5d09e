// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import "github.com/pkg/errors"

// Interface tuning defaults.
const (
	// DefaultModingCapacitanceRatio is the hysteresis band for the
	// capacitance-driven supply-to-demand flip.
	DefaultModingCapacitanceRatio = 1.25

	// DefaultDemandFilterConstA and DefaultDemandFilterConstB are the
	// coefficients of the lag-aware damping law A·B^latency.
	DefaultDemandFilterConstA = 1.5
	DefaultDemandFilterConstB = 0.75
)

// Config holds the recognized options for one side of a distributed
// interface pair.
type Config struct {
	// Name labels the link in logs and metrics.
	Name string

	// IsPairMaster breaks the tie in the start-up dual-supply race.
	// Exactly one of the two peers sets it.
	IsPairMaster bool

	// UseEnthalpy transports specific enthalpy in the payload energy
	// field instead of temperature.  Both sides must agree.
	UseEnthalpy bool

	// DemandOption omits the one-step damping resistor in the demand
	// controller: higher throughput, reduced stability.
	DemandOption bool

	// ModingCapacitanceRatio is the hysteresis band for the
	// capacitance-driven flip to demand.  Must be > 1.  Zero selects the
	// default.
	ModingCapacitanceRatio float64

	// DemandFilterConstA and DemandFilterConstB set the damping law
	// A·B^latency.  Zero selects the defaults.
	DemandFilterConstA float64
	DemandFilterConstB float64

	// FluidSizesOverride forces the interface mixture widths to
	// NumFluid/NumTC instead of the local network's species counts, to
	// interoperate with a dissimilar peer on a negotiated subset.
	FluidSizesOverride bool
	NumFluid           int
	NumTC              int

	// ForceDemandMode and ForceSupplyMode pin the role, disabling
	// arbitration.  Setting both is a configuration error.
	ForceDemandMode bool
	ForceSupplyMode bool
}

// withDefaults fills zero-valued tuning fields.
func (c Config) withDefaults() Config {
	if c.ModingCapacitanceRatio == 0 {
		c.ModingCapacitanceRatio = DefaultModingCapacitanceRatio
	}
	if c.DemandFilterConstA == 0 {
		c.DemandFilterConstA = DefaultDemandFilterConstA
	}
	if c.DemandFilterConstB == 0 {
		c.DemandFilterConstB = DefaultDemandFilterConstB
	}
	return c
}

// validate reports configuration errors after defaults are applied.
func (c Config) validate() error {
	if c.ForceDemandMode && c.ForceSupplyMode {
		return errors.Wrap(ErrConfig,
			"both force-demand and force-supply set")
	}
	if c.ModingCapacitanceRatio <= 1 {
		return errors.Wrapf(ErrConfig,
			"moding capacitance ratio %f must be > 1",
			c.ModingCapacitanceRatio)
	}
	if c.FluidSizesOverride && (c.NumFluid < 1 || c.NumTC < 0) {
		return errors.Wrapf(ErrConfig,
			"fluid sizes override %d/%d", c.NumFluid, c.NumTC)
	}
	return nil
}
