// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

// Link is an element that connects nodes and contributes terms to the
// network's linear system.  Concrete links implement whichever of the
// capability interfaces below apply, and the Solver type-asserts for each
// phase of the step.
type Link interface {
	Nodes() []*Node
}

// An AdmittanceStamper contributes admittance-matrix entries.
type AdmittanceStamper interface {
	StampAdmittance(sys *System, dt float64)
}

// A SourceStamper contributes source-vector entries.
type SourceStamper interface {
	StampSource(sys *System)
}

// A FlowComputer derives link flows from the solved potentials.
type FlowComputer interface {
	ComputeFlows(dt float64)
}

// A FlowTransporter moves fluid between nodes after flows are known.
type FlowTransporter interface {
	TransportFlows(dt float64)
}

// An InputProcessor runs at the start of a step, before stamping.
type InputProcessor interface {
	ProcessInputs() error
}

// An OutputProcessor runs at the end of a step, after transport.
type OutputProcessor interface {
	ProcessOutputs() error
}

// Conductor is a two-node link passing a molar flow proportional to the
// potential difference across it.
type Conductor struct {
	n0, n1 *Node
	g      float64 // conductance, kmol/(kPa·s)
	flux   MolarRate
}

// NewConductor returns a Conductor of conductance g, in kmol/(kPa·s),
// between the two nodes.  A nil n1 connects to ground.
func NewConductor(n0, n1 *Node, g float64) *Conductor {
	return &Conductor{n0, n1, g, 0}
}

// Nodes implements Link.
func (c *Conductor) Nodes() []*Node {
	return []*Node{c.n0, c.n1}
}

// Flux returns the flow through the Conductor, positive from n0 to n1.
func (c *Conductor) Flux() MolarRate {
	return c.flux
}

// StampAdmittance implements AdmittanceStamper.
func (c *Conductor) StampAdmittance(sys *System, dt float64) {
	sys.AddAdmittance(c.n0, c.n0, c.g)
	if c.n1 != nil {
		sys.AddAdmittance(c.n1, c.n1, c.g)
		sys.AddAdmittance(c.n0, c.n1, -c.g)
		sys.AddAdmittance(c.n1, c.n0, -c.g)
	}
}

// ComputeFlows implements FlowComputer.
func (c *Conductor) ComputeFlows(dt float64) {
	p1 := Pressure(0)
	if c.n1 != nil {
		p1 = c.n1.potential
	}
	c.flux = MolarRate(c.g * (c.n0.potential - p1).KPa())
}

// TransportFlows implements FlowTransporter.
func (c *Conductor) TransportFlows(dt float64) {
	if c.flux > 0 {
		if c.n1 != nil {
			c.n1.addInflow(c.n0.contents, c.flux, dt)
		}
		c.n0.scheduledOutflux += c.flux
	} else if c.flux < 0 && c.n1 != nil {
		c.n0.addInflow(c.n1.contents, -c.flux, dt)
		c.n1.scheduledOutflux += -c.flux
	}
}

// Capacitor attaches molar storage to a node.  Its capacitance follows
// from the attached volume by the ideal gas law, C = V/(R·T).  The volume
// may be edited externally through EditVolume, which is the capability
// handle the distributed interface uses at mode flips.
type Capacitor struct {
	node        *Node
	volume      float64 // m³
	editPending bool
	editVolume  float64
	capacitance Capacitance
}

// NewCapacitor returns a Capacitor of the given volume, in m³, attached to
// the node.
func NewCapacitor(node *Node, volume float64) *Capacitor {
	return &Capacitor{node, volume, false, 0, 0}
}

// Nodes implements Link.
func (c *Capacitor) Nodes() []*Node {
	return []*Node{c.node}
}

// Volume returns the attached volume, in m³.
func (c *Capacitor) Volume() float64 {
	return c.volume
}

// Capacitance returns the capacitance at the last stamp, in kmol/kPa.
func (c *Capacitor) Capacitance() Capacitance {
	return c.capacitance
}

// EditVolume requests a volume change, applied at the start of the next
// stamp so the solver observes a stable volume inside any given step.
// With enable false, a pending edit is cancelled.
func (c *Capacitor) EditVolume(enable bool, value float64) {
	c.editPending = enable
	c.editVolume = value
}

// StampAdmittance implements AdmittanceStamper.
func (c *Capacitor) StampAdmittance(sys *System, dt float64) {
	if c.editPending {
		c.volume = c.editVolume
		c.editPending = false
	}
	t := c.node.contents.Temperature
	if t > 0 {
		c.capacitance = Capacitance(c.volume / (RUniv * t))
	} else {
		c.capacitance = 0
	}
	sys.AddAdmittance(c.node, c.node, float64(c.capacitance)/dt)
}

// StampSource implements SourceStamper.
func (c *Capacitor) StampSource(sys *System) {
	sys.AddSource(c.node, float64(c.capacitance)/sys.dt*c.node.potential.KPa())
}

// TransportFlows implements FlowTransporter.  The capacitor owns its
// node's contents update: inflow received this step is mixed into the
// stored fluid, and the contents pressure tracks the solved potential.
func (c *Capacitor) TransportFlows(dt float64) {
	n := c.node
	n.inflowFractions()
	if n.influx > 0 {
		held := n.contents.Moles(c.volume)
		n.contents.Mix(n.inflow, n.influx.Kmols()*dt, held)
	}
	n.contents.Pressure = n.potential
}
