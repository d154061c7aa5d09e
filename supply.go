// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import "math"

// supplyDemandFlux converts the peer's molar demand into the flow stamped
// at the local node.  The demand side advertises positive source for flow
// into itself, so the supply side sees it as negative flow here, scaled by
// the bulk portion of the inbound mixture.  The inbound composition is
// kept to drive the inflow fluid on reversal.
func (i *Interface) supplyDemandFlux() {
	if !i.inValid || !i.in.DemandMode {
		i.demandFlux = 0
		return
	}
	var s float64
	for _, x := range i.in.X {
		s += x
	}
	i.demandFlux = MolarRate(-i.in.Source*s) * Mols
	if s < tiny {
		return
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
	if i.cfg.UseEnthalpy {
		f.SetEnthalpy(i.in.Energy)
	} else {
		f.Temperature = i.in.Energy
	}
}

// effectiveCapacitance is the capacitance advertised while in the supply
// role: the node's network capacitance, less what this link itself still
// supplies around a mode-flip transient, less the effective contribution
// of sibling interfaces in demand at other nodes, floored at zero.
//
// A sibling in demand at node j supplies capacitance C_k there; seen
// through the local conductive network its effect at our node i is
// C_k·Δp_j/Δp_i, with Δp the probe response row measured at our node.
func (i *Interface) effectiveCapacitance() float64 {
	c := float64(i.node.netCap) - float64(i.suppliedCap)
	dp := i.node.netCapDP
	if len(dp) > 0 {
		dpi := dp[i.node.index]
		for _, k := range i.siblings {
			if !k.demand || k.node.index >= len(dp) {
				continue
			}
			c -= float64(k.suppliedCap) * dp[k.node.index] /
				math.Max(dpi, tiny)
		}
	}
	if c < 0 {
		c = 0
	}
	return c
}

// publishSupply assembles the outbound payload while in the supply role:
// the effective capacitance, the node pressure in wire units, and the
// node contents with bulk and trace fractions together renormalized to
// sum to 1.
func (i *Interface) publishSupply() {
	i.out.DemandMode = false
	i.out.Capacitance = i.effectiveCapacitance()
	p := i.node.potential.Pa()
	if p < 0 {
		p = 0
	}
	i.out.Source = p
	i.publishComposition(i.node.contents)
	i.publishEnergy()
}
