// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// probeFlux is the flux injected to measure network capacitance, in
// kmol/s.  Small enough not to disturb the solution, large enough to stay
// above the noise floor of the linear solve.
const probeFlux = 1e-6

// minDiagonal keeps the admittance matrix non-singular for nodes with no
// stamped admittance.
const minDiagonal = 1e-15

// System is the linear system A·p = w assembled each step, with p the
// node potentials in kPa and w the molar sources in kmol/s.  Links stamp
// into it through AddAdmittance and AddSource.
type System struct {
	a  *mat.Dense
	w  *mat.VecDense
	dt float64
}

// AddAdmittance adds g to the admittance-matrix entry for the given node
// pair.  Ground (nil or ground-marked) nodes are dropped.
func (s *System) AddAdmittance(ni, nj *Node, g float64) {
	if ni == nil || nj == nil || ni.ground || nj.ground {
		return
	}
	s.a.Set(ni.index, nj.index, s.a.At(ni.index, nj.index)+g)
}

// AddSource adds w, in kmol/s, to the source-vector entry for the node.
func (s *System) AddSource(n *Node, w float64) {
	if n == nil || n.ground {
		return
	}
	s.w.SetVec(n.index, s.w.AtVec(n.index)+w)
}

// Solver owns one network's nodes and links and solves the network's
// linear system once per step.
type Solver struct {
	name    string
	species []Species
	traces  []Trace
	nodes   []*Node
	links   []Link
	ground  *Node
	sys     System
	lu      mat.LU
	probe   *mat.VecDense
	dp      *mat.VecDense
	step    uint64
	log     zerolog.Logger
}

// NewSolver returns a Solver for a network over the given species and
// trace compounds.
func NewSolver(name string, species []Species, traces []Trace,
	log zerolog.Logger) *Solver {
	g := newNode("ground", species, traces)
	g.ground = true
	return &Solver{
		name:    name,
		species: species,
		traces:  traces,
		ground:  g,
		log:     log.With().Str("net", name).Logger(),
	}
}

// Species returns the network's bulk species.
func (s *Solver) Species() []Species {
	return s.species
}

// Traces returns the network's trace compounds.
func (s *Solver) Traces() []Trace {
	return s.traces
}

// Ground returns the network's ground node.
func (s *Solver) Ground() *Node {
	return s.ground
}

// AddNode creates and registers a node.
func (s *Solver) AddNode(name string) *Node {
	n := newNode(name, s.species, s.traces)
	n.index = len(s.nodes)
	s.nodes = append(s.nodes, n)
	return n
}

// AddLink registers a link.
func (s *Solver) AddLink(l Link) {
	s.links = append(s.links, l)
}

// Step advances the network by dt seconds: process link inputs, assemble
// and solve the linear system, measure requested network capacitances,
// compute and transport flows, then process link outputs.
func (s *Solver) Step(dt float64) error {
	n := len(s.nodes)
	if s.sys.a == nil || s.sys.a.RawMatrix().Rows != n {
		s.sys.a = mat.NewDense(n, n, nil)
		s.sys.w = mat.NewVecDense(n, nil)
		s.probe = mat.NewVecDense(n, nil)
		s.dp = mat.NewVecDense(n, nil)
	}
	s.step++
	s.sys.dt = dt

	for _, l := range s.links {
		if p, ok := l.(InputProcessor); ok {
			if err := p.ProcessInputs(); err != nil {
				return errors.Wrapf(err, "network %s step %d inputs",
					s.name, s.step)
			}
		}
	}

	s.sys.a.Zero()
	s.sys.w.Zero()
	for _, o := range s.nodes {
		o.resetStep()
	}
	for _, l := range s.links {
		if a, ok := l.(AdmittanceStamper); ok {
			a.StampAdmittance(&s.sys, dt)
		}
	}
	for _, l := range s.links {
		if w, ok := l.(SourceStamper); ok {
			w.StampSource(&s.sys)
		}
	}
	for i := 0; i < n; i++ {
		if s.sys.a.At(i, i) < minDiagonal {
			s.sys.a.Set(i, i, minDiagonal)
		}
	}

	s.lu.Factorize(s.sys.a)
	var pv mat.VecDense
	if err := s.lu.SolveVecTo(&pv, false, s.sys.w); err != nil {
		return errors.Wrapf(err, "network %s step %d solve", s.name, s.step)
	}
	for i, o := range s.nodes {
		o.potential = Pressure(pv.AtVec(i))
	}

	if err := s.measureCapacitance(dt); err != nil {
		return err
	}

	for _, l := range s.links {
		if f, ok := l.(FlowComputer); ok {
			f.ComputeFlows(dt)
		}
	}
	for _, l := range s.links {
		if _, ok := l.(*Capacitor); ok {
			continue
		}
		if t, ok := l.(FlowTransporter); ok {
			t.TransportFlows(dt)
		}
	}
	// capacitors run last, so they mix in all inflow delivered this step
	for _, l := range s.links {
		if c, ok := l.(*Capacitor); ok {
			c.TransportFlows(dt)
		}
	}
	for _, o := range s.nodes {
		o.contents.Pressure = o.potential
	}

	for _, l := range s.links {
		if p, ok := l.(OutputProcessor); ok {
			if err := p.ProcessOutputs(); err != nil {
				return errors.Wrapf(err, "network %s step %d outputs",
					s.name, s.step)
			}
		}
	}
	return nil
}

// measureCapacitance serves the network capacitance probes: for each node
// with a pending request, re-solve with the probe flux injected at that
// node and derive ∂p/∂Q at every node, along with the network capacitance
// C = q·dt/Δp.
func (s *Solver) measureCapacitance(dt float64) error {
	for i, o := range s.nodes {
		if !o.netCapRequest {
			continue
		}
		o.netCapRequest = false
		s.probe.Zero()
		s.probe.SetVec(i, probeFlux)
		if err := s.lu.SolveVecTo(s.dp, false, s.probe); err != nil {
			return errors.Wrapf(err, "network %s capacitance probe at %s",
				s.name, o.name)
		}
		if o.netCapDP == nil || len(o.netCapDP) != len(s.nodes) {
			o.netCapDP = make([]float64, len(s.nodes))
		}
		for j := range o.netCapDP {
			o.netCapDP[j] = s.dp.AtVec(j)
		}
		if d := s.dp.AtVec(i); d > 0 {
			o.netCap = Capacitance(probeFlux * dt / d)
		} else {
			o.netCap = 0
		}
	}
	return nil
}
