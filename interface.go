// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// tiny guards divisions in the control laws.
const tiny = 1e-15

// Interface is one half of a distributed interface pair: a link that
// couples its network's boundary node to a peer network running in another
// process, by exchanging one Payload per tick in each direction.  At any
// time the link owns either the supply role (advertise pressure, accept
// flow) or the demand role (advertise flow, accept pressure).
type Interface struct {
	cfg  Config
	node *Node
	vol  *Capacitor
	ep   Endpoint
	log  zerolog.Logger

	numFluid int
	numTC    int

	in           *Payload
	out          *Payload
	inValid      bool
	hasFrame     bool
	prevInDemand bool

	demand          bool
	supplyVolume    float64
	framesSinceFlip int
	loopLatency     int
	demandFluxGain  float64
	suppliedCap     Capacitance
	conductance     float64 // kmol/(kPa·s)
	sourcePressure  Pressure
	demandFlux      MolarRate // positive into the local node
	fluid           *FluidState

	siblings []*Interface

	malfBlockage      bool
	malfBlockageValue float64
}

// NewInterface returns an Interface at the given non-ground node, holding
// the node's capacitor as its volume-edit capability and publishing
// through the endpoint.  Both sides start in the supply role.
func NewInterface(cfg Config, node *Node, vol *Capacitor, ep Endpoint,
	log zerolog.Logger) (*Interface, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if node == nil || node.ground {
		return nil, errors.Wrapf(ErrConfig,
			"link %s not mapped to a non-ground node", cfg.Name)
	}
	if vol == nil {
		return nil, errors.Wrapf(ErrConfig,
			"link %s missing node capacitor", cfg.Name)
	}
	if ep == nil {
		return nil, errors.Wrapf(ErrConfig,
			"link %s missing endpoint", cfg.Name)
	}
	numFluid := len(node.contents.X)
	numTC := len(node.contents.TC)
	if cfg.FluidSizesOverride {
		numFluid = cfg.NumFluid
		numTC = cfg.NumTC
	}
	return &Interface{
		cfg:            cfg,
		node:           node,
		vol:            vol,
		ep:             ep,
		log:            log.With().Str("link", cfg.Name).Logger(),
		numFluid:       numFluid,
		numTC:          numTC,
		in:             NewPayload(numFluid, numTC),
		out:            NewPayload(numFluid, numTC),
		demandFluxGain: 1.0,
		fluid: NewFluidState(node.contents.species,
			node.contents.traces),
	}, nil
}

// Nodes implements Link.
func (i *Interface) Nodes() []*Node {
	return []*Node{i.node}
}

// Demand reports whether the link currently owns the demand role.
func (i *Interface) Demand() bool {
	return i.demand
}

// LoopLatency returns the measured round-trip latency, in frames.
func (i *Interface) LoopLatency() int {
	return i.loopLatency
}

// DemandFluxGain returns the gain last applied by the demand controller.
func (i *Interface) DemandFluxGain() float64 {
	return i.demandFluxGain
}

// DemandFlux returns the flow drawn through the interface, positive into
// the local node.
func (i *Interface) DemandFlux() MolarRate {
	return i.demandFlux
}

// AddSibling registers another interface in the same network, so its
// demand-role contribution can be excluded from this link's advertised
// capacitance.  Inserts are deduplicated and self-insertion is rejected,
// so one configuration list can be broadcast to every link.  It reports
// whether the sibling was added.
func (i *Interface) AddSibling(s *Interface) bool {
	if s == nil || s == i {
		return false
	}
	for _, e := range i.siblings {
		if e == s {
			return false
		}
	}
	i.siblings = append(i.siblings, s)
	return true
}

// SetMalfBlockage scales the demand conductance by (1 - value) while flag
// is set, simulating a blocked interface volume.
func (i *Interface) SetMalfBlockage(flag bool, value float64) {
	i.malfBlockage = flag
	i.malfBlockageValue = value
}

// ProcessInputs implements InputProcessor.  It reads the inbound payload,
// arbitrates the role, and applies peer data to the local node per the
// current role.
func (i *Interface) ProcessInputs() error {
	i.framesSinceFlip++
	ok, err := i.ep.Poll(i.in)
	if err != nil {
		i.log.Warn().Err(err).Msg("endpoint poll failed")
	}
	if ok {
		i.hasFrame = true
		framesReceived.WithLabelValues(i.cfg.Name).Inc()
	}
	i.inValid = i.hasFrame && i.in.Valid()
	if ok && !i.inValid {
		framesInvalid.WithLabelValues(i.cfg.Name).Inc()
	}

	i.arbitrate()

	if i.demand {
		if err := i.ingestDemand(); err != nil {
			return err
		}
	} else {
		i.supplyDemandFlux()
	}
	i.prevInDemand = i.inValid && i.in.DemandMode
	return nil
}

// StampAdmittance implements AdmittanceStamper.  In demand it models the
// interface as a conductance to an ideal pressure source at the peer's
// pressure; in supply it stamps nothing.  The node's network capacitance
// is measured every step.
func (i *Interface) StampAdmittance(sys *System, dt float64) {
	i.node.RequestCapacitance()
	if i.demand {
		if i.inValid {
			i.conductance = i.demandConductance(dt)
		}
		sys.AddAdmittance(i.node, i.node, i.conductance)
		i.suppliedCap = Capacitance(i.conductance * dt)
	} else {
		i.conductance = 0
		i.suppliedCap = 0
	}
}

// StampSource implements SourceStamper.
func (i *Interface) StampSource(sys *System) {
	if i.demand {
		sys.AddSource(i.node, i.conductance*i.sourcePressure.KPa())
	} else {
		sys.AddSource(i.node, i.demandFlux.Kmols())
	}
}

// ComputeFlows implements FlowComputer.
func (i *Interface) ComputeFlows(dt float64) {
	if i.demand {
		i.demandFlux = MolarRate(i.conductance *
			(i.sourcePressure - i.node.potential).KPa())
	}
}

// TransportFlows implements FlowTransporter.  Positive flux carries the
// peer's fluid into the node; negative flux is scheduled as outflux.
func (i *Interface) TransportFlows(dt float64) {
	if i.demandFlux > 0 {
		i.node.addInflow(i.fluid, i.demandFlux, dt)
	} else if i.demandFlux < 0 {
		i.node.scheduledOutflux += -i.demandFlux
	}
}

// ProcessOutputs implements OutputProcessor.  It assembles and publishes
// the outbound payload, advances the frame counters, and runs the
// post-solve arbitration check.
func (i *Interface) ProcessOutputs() error {
	if i.demand {
		i.publishDemand()
	} else {
		i.publishSupply()
	}
	i.out.FrameCount++
	i.out.FrameLoopback = i.in.FrameCount
	i.loopLatency = int(i.out.FrameCount - i.in.FrameLoopback)
	loopLatencyFrames.WithLabelValues(i.cfg.Name).Set(float64(i.loopLatency))
	framesPublished.WithLabelValues(i.cfg.Name).Inc()
	if err := i.ep.Send(i.out); err != nil {
		i.log.Warn().Err(err).Msg("endpoint send failed")
	}
	if !i.demand {
		i.checkCapacitanceFlip()
	}
	return nil
}

// publishComposition writes the source mixture to the outbound arrays,
// renormalized so bulk and trace fractions together sum to 1 on the wire.
// Species beyond the interface width are dropped; interface entries with
// no local species are zeroed.
func (i *Interface) publishComposition(src *FluidState) {
	var total float64
	for _, x := range src.X {
		total += x
	}
	for _, x := range src.TC {
		total += x
	}
	for j := range i.out.X {
		if j < len(src.X) && total > 0 {
			i.out.X[j] = src.X[j] / total
		} else {
			i.out.X[j] = 0
		}
	}
	for j := range i.out.TC {
		if j < len(src.TC) && total > 0 {
			i.out.TC[j] = src.TC[j] / total
		} else {
			i.out.TC[j] = 0
		}
	}
}

// publishEnergy writes the outbound energy field from the node contents,
// as temperature or specific enthalpy per the pair configuration.
func (i *Interface) publishEnergy() {
	if i.cfg.UseEnthalpy {
		i.out.Energy = i.node.contents.Enthalpy()
	} else {
		i.out.Energy = i.node.contents.Temperature
	}
}
