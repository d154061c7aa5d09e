// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

// Node is a point in a fluid network at which a potential is solved.  It
// holds the fluid contents, the mixture flowing in during the current step,
// and the network capacitance measurements reported by the solver.
type Node struct {
	name     string
	index    int
	ground   bool
	contents *FluidState
	inflow   *FluidState
	// inflowMoles accumulates per-species moles received this step, in
	// kmol.  Entries can transiently go negative on reverse flow.
	inflowMoles   []float64
	inflowTCMoles []float64
	influx        MolarRate
	// network capacitance measurement, filled by the solver on request
	netCap        Capacitance
	netCapDP      []float64
	netCapRequest bool
	// scheduled outflux advertised to the solver for flow bookkeeping
	scheduledOutflux MolarRate
	potential        Pressure
}

// newNode returns a new Node over the given species and trace compounds.
func newNode(name string, species []Species, traces []Trace) *Node {
	return &Node{
		name,
		-1,
		false,
		NewFluidState(species, traces),
		NewFluidState(species, traces),
		make([]float64, len(species)),
		make([]float64, len(traces)),
		0,
		0,
		nil,
		false,
		0,
		0,
	}
}

// SetState initializes the node's fluid state before the first step.
func (n *Node) SetState(p Pressure, temp float64, x []float64) {
	n.potential = p
	n.contents.Pressure = p
	n.contents.Temperature = temp
	copyFill(n.contents.X, x)
	n.contents.Normalize()
}

// Name returns the node name.
func (n *Node) Name() string {
	return n.name
}

// Potential returns the solved potential at the Node.
func (n *Node) Potential() Pressure {
	return n.potential
}

// Contents returns the fluid contents of the Node.
func (n *Node) Contents() *FluidState {
	return n.contents
}

// NetworkCapacitance returns the most recent network capacitance
// measurement at the Node.
func (n *Node) NetworkCapacitance() Capacitance {
	return n.netCap
}

// NetworkCapacitanceDP returns the solver's delta-potential row for the
// Node's most recent capacitance probe: the potential response at every
// node to the probe flux injected here.  The returned slice is a read-only
// view owned by the solver.
func (n *Node) NetworkCapacitanceDP() []float64 {
	return n.netCapDP
}

// RequestCapacitance asks the solver to measure the network capacitance at
// this Node during the next solution.
func (n *Node) RequestCapacitance() {
	n.netCapRequest = true
}

// resetStep clears the per-step inflow accumulators.
func (n *Node) resetStep() {
	for i := range n.inflowMoles {
		n.inflowMoles[i] = 0
	}
	for i := range n.inflowTCMoles {
		n.inflowTCMoles[i] = 0
	}
	n.influx = 0
	n.scheduledOutflux = 0
}

// addInflow accumulates fluid arriving at the Node: flux kmol/s of the
// given mixture over dt seconds.  Negative flux withdraws the mixture.
func (n *Node) addInflow(in *FluidState, flux MolarRate, dt float64) {
	moles := flux.Kmols() * dt
	for i := range n.inflowMoles {
		n.inflowMoles[i] += in.X[i] * moles
	}
	for i := range n.inflowTCMoles {
		n.inflowTCMoles[i] += in.TC[i] * moles
	}
	n.influx += flux
	if flux > 0 && in.Temperature > 0 {
		n.inflow.Temperature = in.Temperature
	}
}

// inflowFractions writes the per-species inflow mole fractions for this
// step into the Node's inflow state and reports whether any entry was
// negative.  With no inflow, the fractions are all zero.
func (n *Node) inflowFractions() (negative bool) {
	var sum float64
	for _, m := range n.inflowMoles {
		sum += m
	}
	for i, m := range n.inflowMoles {
		if m < 0 {
			negative = true
		}
		if sum != 0 {
			n.inflow.X[i] = m / sum
		} else {
			n.inflow.X[i] = 0
		}
	}
	for i, m := range n.inflowTCMoles {
		if m < 0 {
			negative = true
		}
		if sum != 0 {
			n.inflow.TC[i] = m / sum
		} else {
			n.inflow.TC[i] = 0
		}
	}
	n.inflow.Pressure = n.potential
	return
}
