// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger returns a quiet logger for tests.
func testLogger() zerolog.Logger {
	return NewLogger(io.Discard, zerolog.Disabled)
}

// testPair is two small networks coupled over a loopback transport: side
// a holds the large reservoir and the pair-master flag, side b the small
// one, so arbitration settles with b in demand.
type testPair struct {
	sa, sb         *Solver
	a, b           *Interface
	volA, volB     *Capacitor
	nodeA, nodeB   *Node
	tankA, tankB   *Node
	epA, epB       *LoopEndpoint
}

func newTestPair(t *testing.T, cfgA, cfgB Config) *testPair {
	p := &testPair{}
	p.epA, p.epB = NewLoopPair(1)

	p.sa = newTestSolver("a")
	p.tankA = p.sa.AddNode("tank")
	p.tankA.SetState(150*KPa, testTemp, testAir)
	p.sa.AddLink(NewCapacitor(p.tankA, 10.0))
	p.nodeA = p.sa.AddNode("boundary")
	p.nodeA.SetState(150*KPa, testTemp, testAir)
	p.volA = NewCapacitor(p.nodeA, 0.5)
	p.sa.AddLink(p.volA)
	p.sa.AddLink(NewConductor(p.tankA, p.nodeA, 1e-4))
	cfgA.Name = "a"
	var err error
	p.a, err = NewInterface(cfgA, p.nodeA, p.volA, p.epA, testLogger())
	require.NoError(t, err)
	p.sa.AddLink(p.a)

	p.sb = newTestSolver("b")
	p.tankB = p.sb.AddNode("tank")
	p.tankB.SetState(100*KPa, testTemp, testAir)
	p.sb.AddLink(NewCapacitor(p.tankB, 0.5))
	p.nodeB = p.sb.AddNode("boundary")
	p.nodeB.SetState(100*KPa, testTemp, testAir)
	p.volB = NewCapacitor(p.nodeB, 0.1)
	p.sb.AddLink(p.volB)
	p.sb.AddLink(NewConductor(p.nodeB, p.tankB, 1e-4))
	cfgB.Name = "b"
	p.b, err = NewInterface(cfgB, p.nodeB, p.volB, p.epB, testLogger())
	require.NoError(t, err)
	p.sb.AddLink(p.b)

	return p
}

// step advances both sides n ticks, side a first.
func (p *testPair) step(t *testing.T, n int) {
	for i := 0; i < n; i++ {
		require.NoError(t, p.sa.Step(testDt))
		require.NoError(t, p.sb.Step(testDt))
	}
}

// assertRoles checks the steady pairing invariant: at most one side in
// demand.
func (p *testPair) assertRoles(t *testing.T) {
	assert.False(t, p.a.Demand() && p.b.Demand(),
		"both sides in demand")
}

func TestInterfaceConfigErrors(t *testing.T) {
	ep, _ := NewLoopPair(1)
	s := newTestSolver("cfg")
	n := s.AddNode("n")
	vol := NewCapacitor(n, 1.0)

	_, err := NewInterface(Config{
		ForceDemandMode: true,
		ForceSupplyMode: true,
	}, n, vol, ep, testLogger())
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewInterface(Config{
		ModingCapacitanceRatio: 0.9,
	}, n, vol, ep, testLogger())
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewInterface(Config{}, n, nil, ep, testLogger())
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewInterface(Config{}, s.Ground(), vol, ep, testLogger())
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewInterface(Config{}, n, vol, nil, testLogger())
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewInterface(Config{}, n, vol, ep, testLogger())
	assert.NoError(t, err)
}

// TestInterfaceStartupSmaller checks the start-up race: the side with
// the smaller advertised capacitance takes the demand role, caching and
// zeroing its node volume.
func TestInterfaceStartupSmaller(t *testing.T) {
	p := newTestPair(t, Config{IsPairMaster: true}, Config{})
	p.step(t, 3)
	assert.False(t, p.a.Demand())
	assert.True(t, p.b.Demand())
	assert.Equal(t, 0.1, p.b.supplyVolume)
	assert.Equal(t, 0.0, p.volB.Volume())
	assert.Equal(t, 0.5, p.volA.Volume())
	p.assertRoles(t)
}

// TestInterfaceStartupMasterTie builds two identical sides and checks
// that the pair master wins the tie.
func TestInterfaceStartupMasterTie(t *testing.T) {
	epA, epB := NewLoopPair(1)
	mk := func(name string, master bool, ep Endpoint) (*Solver,
		*Interface, *Capacitor) {
		s := newTestSolver(name)
		n := s.AddNode("boundary")
		n.SetState(100*KPa, testTemp, testAir)
		vol := NewCapacitor(n, 1.0)
		s.AddLink(vol)
		i, err := NewInterface(Config{Name: name, IsPairMaster: master},
			n, vol, ep, testLogger())
		require.NoError(t, err)
		s.AddLink(i)
		return s, i, vol
	}
	sa, a, volA := mk("a", true, epA)
	sb, b, volB := mk("b", false, epB)

	for i := 0; i < 4; i++ {
		require.NoError(t, sa.Step(testDt))
		require.NoError(t, sb.Step(testDt))
	}
	assert.True(t, a.Demand())
	assert.False(t, b.Demand())
	assert.Greater(t, a.supplyVolume, 0.0)
	assert.Equal(t, 0.0, volA.Volume())
	assert.Equal(t, 1.0, volB.Volume())
}

// TestInterfaceFrameCounters checks strict frame monotonicity and the
// round-trip identity: with the peer echoing every tick, measured loop
// latency settles at 1.
func TestInterfaceFrameCounters(t *testing.T) {
	p := newTestPair(t, Config{IsPairMaster: true}, Config{})
	var lastA, lastB uint64
	for i := 0; i < 20; i++ {
		require.NoError(t, p.sa.Step(testDt))
		require.NoError(t, p.sb.Step(testDt))
		assert.Equal(t, lastA+1, p.a.out.FrameCount)
		assert.Equal(t, lastB+1, p.b.out.FrameCount)
		lastA, lastB = p.a.out.FrameCount, p.b.out.FrameCount
	}
	assert.Equal(t, 1, p.a.LoopLatency())
	assert.Equal(t, 1, p.b.LoopLatency())
}

// TestInterfacePressurePassthrough checks that, once the start-up
// transient has decayed, the demand side holds its node at the supply
// side's advertised pressure.
func TestInterfacePressurePassthrough(t *testing.T) {
	p := newTestPair(t, Config{IsPairMaster: true}, Config{})
	p.step(t, 150)
	require.True(t, p.b.Demand())
	// b's boundary tracks the pressure a advertised
	assert.InDelta(t, p.b.sourcePressure.KPa(),
		p.nodeB.Potential().KPa(), 1.0)
	assert.InDelta(t, p.a.out.Source/1000, p.b.sourcePressure.KPa(),
		1e-9)
	// a sees b's molar demand as outflow
	assert.Less(t, p.a.DemandFlux().Mols(), 0.0)
	assert.Greater(t, p.b.DemandFlux().Mols(), 0.0)
}

// TestInterfaceConvergence runs the pair to near-equilibrium: the small
// side is filled from the large reservoir until pressures agree.
func TestInterfaceConvergence(t *testing.T) {
	p := newTestPair(t, Config{IsPairMaster: true}, Config{})
	p.step(t, 3000)
	p.assertRoles(t)
	assert.InDelta(t, p.tankA.Potential().KPa(),
		p.tankB.Potential().KPa(), 2.0)
	// the pair holds no more than the reservoirs started with
	assert.Less(t, p.tankB.Potential().KPa(), 151.0)
	// published capacitance stays non-negative throughout (checked here
	// at the end; P5 is enforced by the zero floor)
	assert.GreaterOrEqual(t, p.a.out.Capacitance, 0.0)
	assert.GreaterOrEqual(t, p.b.out.Capacitance, 0.0)
}

// TestInterfacePeerSilence delivers one uninitialized frame to each side
// after pairing and then cuts the transport, checking graceful
// degradation over 100 ticks: roles hold, no errors are raised, the
// demand side holds its node potential and the supply side stamps no
// flow, while frame counters advance and measured latency grows.
func TestInterfacePeerSilence(t *testing.T) {
	p := newTestPair(t, Config{IsPairMaster: true}, Config{})
	p.step(t, 20)
	require.True(t, p.b.Demand())
	require.False(t, p.a.Demand())

	// a frame from a peer that has not begun publishing
	blank := NewPayload(len(testSpecies), len(testTraces))
	require.False(t, blank.Valid())
	require.NoError(t, p.epA.Send(blank))
	require.NoError(t, p.epB.Send(blank))
	p.epA.Break()
	p.epB.Break()

	held := p.nodeB.Potential()
	for i := 0; i < 100; i++ {
		require.NoError(t, p.sa.Step(testDt))
		require.NoError(t, p.sb.Step(testDt))
	}
	assert.True(t, p.b.Demand())
	assert.False(t, p.a.Demand())
	assert.Equal(t, MolarRate(0), p.a.DemandFlux())
	assert.InDelta(t, held.KPa(), p.b.sourcePressure.KPa(), 1.0)
	// counters still advance and latency grows while the peer is silent
	assert.Greater(t, p.a.LoopLatency(), 50)
}

// TestInterfaceForcedModes pins the roles and checks that arbitration is
// disabled.
func TestInterfaceForcedModes(t *testing.T) {
	p := newTestPair(t, Config{ForceDemandMode: true},
		Config{ForceSupplyMode: true})
	p.step(t, 10)
	// forced demand on the large side, even though arbitration would
	// choose the opposite
	assert.True(t, p.a.Demand())
	assert.False(t, p.b.Demand())
}

// TestInterfaceHandshakeHandback drives the role-transfer handshake: the
// peer of a demand-side link goes to demand itself, and on that edge the
// link hands the role back, restoring its cached volume.
func TestInterfaceHandshakeHandback(t *testing.T) {
	p := newTestPair(t, Config{IsPairMaster: true}, Config{})
	p.step(t, 20)
	require.True(t, p.b.Demand())
	require.Equal(t, 0.1, p.b.supplyVolume)

	// peer flips to demand: b sees the edge and hands the role back
	f := NewPayload(len(testSpecies), len(testTraces))
	f.CopyFrom(p.b.in)
	f.FrameCount++
	f.DemandMode = true
	f.Source = 0.5 // mol/s demand
	require.True(t, f.Valid())
	require.NoError(t, p.epA.Send(f))
	require.NoError(t, p.sb.Step(testDt))

	assert.False(t, p.b.Demand())
	assert.Equal(t, 0.0, p.b.supplyVolume)
	assert.Equal(t, 0.1, p.volB.Volume())

	// a repeated demand frame is not an edge: no reflip
	f.FrameCount++
	require.NoError(t, p.epA.Send(f))
	require.NoError(t, p.sb.Step(testDt))
	assert.False(t, p.b.Demand())
}

// TestInterfaceInvalidData feeds a valid frame whose bulk fractions sum
// to zero to a demand-side link and expects the tick to fail.
func TestInterfaceInvalidData(t *testing.T) {
	p := newTestPair(t, Config{IsPairMaster: true}, Config{})
	p.step(t, 20)
	require.True(t, p.b.Demand())

	f := NewPayload(len(testSpecies), len(testTraces))
	f.FrameCount = 1000
	f.Capacitance = 1e-4
	f.Source = 100000
	f.Energy = testTemp
	f.SetTrace([]float64{1.0}) // all trace, zero bulk
	require.True(t, f.Valid())
	require.NoError(t, p.epA.Send(f))

	err := p.sb.Step(testDt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInterfaceData))
}

func TestInterfaceAddSibling(t *testing.T) {
	p := newTestPair(t, Config{IsPairMaster: true}, Config{})
	q := newTestPair(t, Config{IsPairMaster: true}, Config{})
	assert.False(t, p.a.AddSibling(nil))
	assert.False(t, p.a.AddSibling(p.a), "self-insertion accepted")
	assert.True(t, p.a.AddSibling(q.a))
	assert.False(t, p.a.AddSibling(q.a), "duplicate accepted")
	assert.Len(t, p.a.siblings, 1)
}
