// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFluidNormalize(t *testing.T) {
	f := NewFluidState([]Species{O2, N2}, nil)
	f.X[0] = 0.42
	f.X[1] = 1.58
	sum := f.Normalize()
	assert.InDelta(t, 2.0, sum, 1e-12)
	assert.InDelta(t, 0.21, f.X[0], 1e-12)
	assert.InDelta(t, 0.79, f.X[1], 1e-12)

	z := NewFluidState([]Species{O2}, nil)
	assert.Equal(t, 0.0, z.Normalize())
}

func TestFluidMassFractions(t *testing.T) {
	f := NewFluidState([]Species{O2, N2}, nil)
	f.X[0] = 0.21
	f.X[1] = 0.79
	out := make([]float64, 2)
	f.MassFractions(out)
	mw := 0.21*O2.MW() + 0.79*N2.MW()
	assert.InDelta(t, 0.21*O2.MW()/mw, out[0], 1e-12)
	assert.InDelta(t, 1.0, out[0]+out[1], 1e-12)
}

func TestFluidEnthalpyRoundTrip(t *testing.T) {
	f := NewFluidState([]Species{O2, N2}, nil)
	f.X[0] = 0.21
	f.X[1] = 0.79
	f.Temperature = 300
	h := f.Enthalpy()
	require.Greater(t, h, 0.0)
	f.Temperature = 0
	f.SetEnthalpy(h)
	assert.InDelta(t, 300, f.Temperature, 1e-9)
}

func TestFluidMoles(t *testing.T) {
	f := NewFluidState([]Species{N2}, nil)
	f.X[0] = 1
	f.Pressure = 100 * KPa
	f.Temperature = 300
	// n = pV/RT
	assert.InDelta(t, 100*2.0/(RUniv*300), f.Moles(2.0), 1e-12)
}

func TestFluidMix(t *testing.T) {
	f := NewFluidState([]Species{O2, N2}, nil)
	f.X[0] = 1
	f.Temperature = 300
	in := NewFluidState([]Species{O2, N2}, nil)
	in.X[1] = 1
	in.Temperature = 400
	f.Mix(in, 1, 1)
	assert.InDelta(t, 0.5, f.X[0], 1e-12)
	assert.InDelta(t, 0.5, f.X[1], 1e-12)
	assert.InDelta(t, 350, f.Temperature, 1e-9)
}
