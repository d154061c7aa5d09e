// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

// arbitrate decides the role for this step, before the solver runs.  The
// force flags pin the role.  Otherwise, a demand-side link hands the role
// back when the peer signals demand (the handshake edge), and a
// supply-side link resolves the start-up dual-supply race in favor of the
// smaller reservoir, with the pair master winning ties.
func (i *Interface) arbitrate() {
	switch {
	case i.cfg.ForceDemandMode:
		if !i.demand {
			i.flipToDemand("forced")
		}
	case i.cfg.ForceSupplyMode:
		if i.demand {
			i.flipToSupply("forced")
		}
	case !i.inValid:
	case i.demand:
		if i.in.DemandMode && !i.prevInDemand {
			i.flipToSupply("handshake")
		}
	default:
		// start-up race: both sides in supply.  Compare advertised
		// capacitances once we have advertised one.
		if !i.in.DemandMode && i.out.FrameCount >= 1 {
			c := i.out.Capacitance
			if c < i.in.Capacitance ||
				(c == i.in.Capacitance && i.cfg.IsPairMaster) {
				i.flipToDemand("startup")
			}
		}
	}
}

// checkCapacitanceFlip runs after outbound processing in supply mode: if
// the peer's reservoir exceeds ours by the hysteresis band, take the
// demand role.  The gate on framesSinceFlip quiesces role transfer for at
// least one round trip, preventing limit cycles during large transients.
func (i *Interface) checkCapacitanceFlip() {
	if i.cfg.ForceDemandMode || i.cfg.ForceSupplyMode {
		return
	}
	if !i.inValid {
		return
	}
	if i.framesSinceFlip <= i.loopLatency {
		return
	}
	if i.out.Capacitance*i.cfg.ModingCapacitanceRatio < i.in.Capacitance {
		i.flipToDemand("capacitance")
	}
}

// flipToDemand takes the demand role: the node's volume is cached and
// zeroed so the node becomes a pure pressure-sourced boundary.
func (i *Interface) flipToDemand(reason string) {
	i.supplyVolume = i.vol.Volume()
	i.vol.EditVolume(true, 0)
	i.framesSinceFlip = 0
	i.demand = true
	modeFlips.WithLabelValues(i.cfg.Name, "demand").Inc()
	i.log.Debug().Str("reason", reason).
		Float64("supplyVolume", i.supplyVolume).
		Msg("flip to demand")
}

// flipToSupply takes the supply role: the cached volume is restored, and
// the outbound source is zeroed so the peer cannot read a stale pressure
// as a flow demand.
func (i *Interface) flipToSupply(reason string) {
	i.vol.EditVolume(true, i.supplyVolume)
	i.supplyVolume = 0
	i.framesSinceFlip = 0
	i.demand = false
	i.out.Source = 0
	modeFlips.WithLabelValues(i.cfg.Name, "supply").Inc()
	i.log.Debug().Str("reason", reason).Msg("flip to supply")
}
