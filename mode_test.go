// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBareIface returns an interface on a single-node network, for
// exercising the arbiter directly.
func newBareIface(t *testing.T, cfg Config) *Interface {
	ep, _ := NewLoopPair(1)
	s := newTestSolver("bare")
	n := s.AddNode("boundary")
	n.SetState(100*KPa, testTemp, testAir)
	vol := NewCapacitor(n, 1.0)
	s.AddLink(vol)
	cfg.Name = "bare"
	i, err := NewInterface(cfg, n, vol, ep, testLogger())
	require.NoError(t, err)
	s.AddLink(i)
	return i
}

// TestModeCapacitanceFlip checks the post-solve supply-to-demand rule
// with the hysteresis band at its default 1.25.
func TestModeCapacitanceFlip(t *testing.T) {
	for _, c := range []struct {
		name            string
		local, peer     float64
		framesSinceFlip int
		loopLatency     int
		flip            bool
	}{
		{"within band", 10, 12.0, 5, 1, false},
		{"at band edge", 10, 12.5, 5, 1, false},
		{"just beyond band", 10, 20, 5, 1, true},
		{"far beyond band", 10, 100, 5, 1, true},
		{"gated by quiesce", 10, 100, 1, 4, false},
	} {
		t.Run(c.name, func(t *testing.T) {
			i := newBareIface(t, Config{})
			i.out.Capacitance = c.local
			i.in.CopyFrom(validPayload())
			i.in.Capacitance = c.peer
			i.hasFrame = true
			i.inValid = true
			i.framesSinceFlip = c.framesSinceFlip
			i.loopLatency = c.loopLatency
			i.checkCapacitanceFlip()
			assert.Equal(t, c.flip, i.Demand())
			if c.flip {
				assert.Equal(t, 1.0, i.supplyVolume)
				assert.Equal(t, 0, i.framesSinceFlip)
			}
		})
	}
}

// TestModeDemandIgnoresCapacitance checks that a demand-side link never
// flips on capacitance alone; only the handshake edge hands the role
// back.
func TestModeDemandIgnoresCapacitance(t *testing.T) {
	i := newBareIface(t, Config{})
	i.demand = true
	i.in.CopyFrom(validPayload())
	i.in.Capacitance = 1e6
	i.out.Capacitance = 1e-6
	i.hasFrame = true
	i.inValid = true
	i.framesSinceFlip = 100
	i.loopLatency = 1
	i.arbitrate()
	assert.True(t, i.Demand())
}

// TestModeHandshakeEdge checks the edge detect on the peer's demand
// flag.
func TestModeHandshakeEdge(t *testing.T) {
	i := newBareIface(t, Config{})
	i.demand = true
	i.supplyVolume = 1.0
	i.in.CopyFrom(validPayload())
	i.in.DemandMode = true
	i.hasFrame = true
	i.inValid = true

	i.prevInDemand = true // no edge
	i.arbitrate()
	assert.True(t, i.Demand())

	i.prevInDemand = false // edge
	i.arbitrate()
	assert.False(t, i.Demand())
	assert.Equal(t, 0.0, i.supplyVolume)
	assert.Equal(t, 0.0, i.out.Source)
}

// TestModeForcePins checks that the force flags pin the role against
// arbitration inputs that would otherwise flip it.
func TestModeForcePins(t *testing.T) {
	i := newBareIface(t, Config{ForceSupplyMode: true})
	i.demand = true
	i.in.CopyFrom(validPayload())
	i.hasFrame = true
	i.inValid = true
	i.arbitrate()
	assert.False(t, i.Demand())

	j := newBareIface(t, Config{ForceDemandMode: true})
	j.arbitrate()
	assert.True(t, j.Demand())
	j.in.CopyFrom(validPayload())
	j.in.DemandMode = true
	j.hasFrame = true
	j.inValid = true
	j.prevInDemand = false
	j.arbitrate() // handshake edge would flip, but the role is pinned
	assert.True(t, j.Demand())
}
