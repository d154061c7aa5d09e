// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"math"

	"github.com/pkg/errors"
)

// maxFilterLatency caps the latency fed to the damping law.
const maxFilterLatency = 100

// demandConductance computes the conductance stamped while in the demand
// role.  The gain asymptotes to 1 when the supply side's capacitance
// dominates, and shrinks geometrically with loop latency when the
// capacitances are close.  Unless DemandOption is set, a series
// resistance of dt/Cd damps the demand-side response over one step.
func (i *Interface) demandConductance(dt float64) float64 {
	cs := i.in.Capacitance
	cd := float64(i.node.netCap)
	r := i.cfg.ModingCapacitanceRatio
	if cd > 0 {
		r = clamp(cs/cd, 1, i.cfg.ModingCapacitanceRatio)
	}
	n := i.loopLatency
	if n < 1 {
		n = 1
	} else if n > maxFilterLatency {
		n = maxFilterLatency
	}
	gLimit := i.cfg.DemandFilterConstA *
		math.Pow(i.cfg.DemandFilterConstB, float64(n))
	if gLimit > 1 {
		gLimit = 1
	}
	gain := gLimit + (1-gLimit)*(r-1)*4
	i.demandFluxGain = gain
	demandGain.WithLabelValues(i.cfg.Name).Set(gain)

	baseG := gain * cs / dt
	var g float64
	switch {
	case i.cfg.DemandOption:
		g = baseG
	case baseG > 0 && cd > 0:
		g = 1 / math.Max(1/baseG+dt/cd, tiny)
	}
	if i.malfBlockage {
		g *= 1 - i.malfBlockageValue
	}
	return g
}

// ingestDemand overwrites the local node with the peer's advertised
// pressure, energy and composition.  The bulk subset of the inbound
// mixture is renormalized to sum to 1, and trace fractions are rescaled
// by the same sum to become fractions of the bulk phase.  With no valid
// inbound data yet, the node holds its last state.
func (i *Interface) ingestDemand() error {
	if !i.inValid {
		i.sourcePressure = i.node.potential
		return nil
	}
	var s float64
	for _, x := range i.in.X {
		s += x
	}
	if s < tiny {
		return errors.Wrapf(ErrInvalidInterfaceData,
			"link %s: inbound bulk fractions sum to %g", i.cfg.Name, s)
	}
	f := i.fluid
	for j := range f.X {
		if j < len(i.in.X) {
			f.X[j] = i.in.X[j] / s
		} else {
			f.X[j] = 0
		}
	}
	for j := range f.TC {
		if j < len(i.in.TC) {
			f.TC[j] = i.in.TC[j] / s
		} else {
			f.TC[j] = 0
		}
	}
	f.Pressure = Pressure(i.in.Source) * Pa
	if i.cfg.UseEnthalpy {
		f.SetEnthalpy(i.in.Energy)
	} else {
		f.Temperature = i.in.Energy
	}
	i.node.contents.Set(f)
	i.node.potential = f.Pressure
	i.sourcePressure = f.Pressure
	return nil
}

// publishDemand assembles the outbound payload while in the demand role:
// the local network capacitance, the molar flow drawn from the peer, and
// the mixture flowing into the node.  A transiently negative inflow
// mixture falls back to the node contents.
func (i *Interface) publishDemand() {
	i.out.DemandMode = true
	i.out.Capacitance = i.node.netCap.MolPerPa()
	i.out.Source = i.demandFlux.Mols()
	src := i.node.inflow
	if i.node.inflowFractions() {
		i.log.Warn().Msg("negative inflow fractions, publishing contents")
		src = i.node.contents
	}
	i.publishComposition(src)
	i.publishEnergy()
}

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
