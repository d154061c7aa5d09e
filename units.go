// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"strconv"
	"strings"
)

// Pressure is an absolute pressure.  The solver works in kPa; the wire
// carries Pa, and conversions happen only at the interface boundary.
type Pressure float64

const (
	KPa Pressure = 1
	Pa           = KPa / 1000
	MPa          = 1000 * KPa
	Atm          = 101.325 * KPa
)

// KPa returns the Pressure in kilopascals.
func (p Pressure) KPa() float64 {
	return float64(p) / float64(KPa)
}

// Pa returns the Pressure in pascals.
func (p Pressure) Pa() float64 {
	return float64(p) / float64(Pa)
}

func (p Pressure) String() string {
	return trimFloat(p.KPa(), 4) + "kPa"
}

// MolarRate is a molar flow rate.  The solver works in kmol/s; the wire
// carries mol/s.
type MolarRate float64

const (
	Kmols MolarRate = 1
	Mols            = Kmols / 1000
)

// Kmols returns the MolarRate in kilomoles per second.
func (r MolarRate) Kmols() float64 {
	return float64(r) / float64(Kmols)
}

// Mols returns the MolarRate in moles per second.
func (r MolarRate) Mols() float64 {
	return float64(r) / float64(Mols)
}

func (r MolarRate) String() string {
	return trimFloat(r.Mols(), 6) + "mol/s"
}

// Capacitance is a network capacitance, in kmol/kPa.  The kilos cancel, so
// the same value reads as mol/Pa on the wire and no conversion is needed.
type Capacitance float64

// MolPerPa returns the Capacitance in mol/Pa (equal to kmol/kPa).
func (c Capacitance) MolPerPa() float64 {
	return float64(c)
}

// RUniv is the universal gas constant, in kJ/(kmol·K), so that
// n[kmol] = p[kPa]·V[m³] / (RUniv·T[K]).
const RUniv = 8.314462618

// trimFloat calls formatFloat with trim set to true.
func trimFloat(f float64, prec int) (s string) {
	return formatFloat(f, prec, true)
}

// formatFloat formats a float64 to the specified precision and trim.
func formatFloat(f float64, prec int, trim bool) (s string) {
	s = strconv.FormatFloat(f, 'f', prec, 64)
	if trim {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return
}
