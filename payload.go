// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Payload is the record exchanged once per tick in each direction between
// the two sides of a distributed interface pair.  Scalars carry wire units
// (Pa, mol/s, mol/Pa); the mixture arrays are sized at construction to the
// negotiated interface widths and mutated in place thereafter.
type Payload struct {
	FrameCount    uint64
	FrameLoopback uint64
	DemandMode    bool
	Capacitance   float64 // mol/Pa
	Source        float64 // Pa when !DemandMode, mol/s when DemandMode
	Energy        float64 // K or J/kg, per pair configuration
	X             []float64
	TC            []float64
}

// NewPayload returns a Payload with mixture arrays of the given widths.
func NewPayload(numFluid, numTC int) *Payload {
	return &Payload{
		X:  make([]float64, numFluid),
		TC: make([]float64, numTC),
	}
}

// Valid reports whether the Payload may be used: the publisher has begun
// counting frames, energy and capacitance are physical, an advertised
// pressure is non-negative, and no mixture entry is negative.
func (p *Payload) Valid() bool {
	if p.FrameCount < 1 {
		return false
	}
	if p.Energy <= 0 {
		return false
	}
	if p.Capacitance < 0 {
		return false
	}
	if !p.DemandMode && p.Source < 0 {
		return false
	}
	for _, x := range p.X {
		if x < 0 {
			return false
		}
	}
	for _, x := range p.TC {
		if x < 0 {
			return false
		}
	}
	return true
}

// SetBulk copies bulk mole fractions in, zero-filling any excess width.
// The array is never resized.
func (p *Payload) SetBulk(x []float64) {
	copyFill(p.X, x)
}

// GetBulk copies bulk mole fractions out, zero-filling any excess width.
func (p *Payload) GetBulk(out []float64) {
	copyFill(out, p.X)
}

// SetTrace copies trace mole fractions in, zero-filling any excess width.
func (p *Payload) SetTrace(x []float64) {
	copyFill(p.TC, x)
}

// GetTrace copies trace mole fractions out, zero-filling any excess width.
func (p *Payload) GetTrace(out []float64) {
	copyFill(out, p.TC)
}

// CopyFrom copies scalars and mixture arrays element-wise from another
// Payload, leaving this Payload's array sizes unchanged.
func (p *Payload) CopyFrom(from *Payload) {
	p.FrameCount = from.FrameCount
	p.FrameLoopback = from.FrameLoopback
	p.DemandMode = from.DemandMode
	p.Capacitance = from.Capacitance
	p.Source = from.Source
	p.Energy = from.Energy
	copyFill(p.X, from.X)
	copyFill(p.TC, from.TC)
}

// copyFill copies src into dst, zero-filling dst past len(src).
func copyFill(dst, src []float64) {
	n := copy(dst, src)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// AppendBinary appends the Payload in its wire layout and returns the
// extended buffer.  The layout is fixed-width big-endian: frame counters,
// mode flag, the three scalars, then each mixture array prefixed by its
// u32 length.
func (p *Payload) AppendBinary(b []byte) []byte {
	b = binary.BigEndian.AppendUint64(b, p.FrameCount)
	b = binary.BigEndian.AppendUint64(b, p.FrameLoopback)
	if p.DemandMode {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	b = appendFloat64(b, p.Capacitance)
	b = appendFloat64(b, p.Source)
	b = appendFloat64(b, p.Energy)
	b = binary.BigEndian.AppendUint32(b, uint32(len(p.X)))
	for _, x := range p.X {
		b = appendFloat64(b, x)
	}
	b = binary.BigEndian.AppendUint32(b, uint32(len(p.TC)))
	for _, x := range p.TC {
		b = appendFloat64(b, x)
	}
	return b
}

// UnmarshalBinary decodes a wire frame.  Mixture arrays are decoded with
// the zero-fill tolerance of SetBulk and SetTrace, so dissimilar interface
// widths interoperate on the common prefix.
func (p *Payload) UnmarshalBinary(b []byte) error {
	const scalarLen = 8 + 8 + 1 + 8 + 8 + 8 + 4
	if len(b) < scalarLen {
		return errors.Errorf("short payload frame: %d bytes", len(b))
	}
	p.FrameCount = binary.BigEndian.Uint64(b)
	p.FrameLoopback = binary.BigEndian.Uint64(b[8:])
	p.DemandMode = b[16] != 0
	p.Capacitance = getFloat64(b[17:])
	p.Source = getFloat64(b[25:])
	p.Energy = getFloat64(b[33:])
	b = b[41:]
	var err error
	if b, err = p.readVector(b, p.X); err != nil {
		return err
	}
	if _, err = p.readVector(b, p.TC); err != nil {
		return err
	}
	return nil
}

// readVector decodes one length-prefixed fraction vector into out with
// zero-fill, returning the remaining buffer.
func (p *Payload) readVector(b []byte, out []float64) ([]byte, error) {
	if len(b) < 4 {
		return nil, errors.New("short payload frame: missing vector length")
	}
	n := int(binary.BigEndian.Uint32(b))
	b = b[4:]
	if len(b) < 8*n {
		return nil, errors.Errorf("short payload frame: vector of %d", n)
	}
	for i := range out {
		if i < n {
			out[i] = getFloat64(b[8*i:])
		} else {
			out[i] = 0
		}
	}
	return b[8*n:], nil
}

// appendFloat64 appends a big-endian float64.
func appendFloat64(b []byte, f float64) []byte {
	return binary.BigEndian.AppendUint64(b, math.Float64bits(f))
}

// getFloat64 reads a big-endian float64.
func getFloat64(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}
