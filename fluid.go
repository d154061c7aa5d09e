// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

// Species identifies a bulk fluid constituent tracked by the solver.
type Species int

const (
	O2 Species = iota
	N2
	CO2
	H2O
	H2
	CH4
	He
	Ar
	NH3
	numSpecies
)

var speciesNames = [numSpecies]string{
	"O2", "N2", "CO2", "H2O", "H2", "CH4", "He", "Ar", "NH3",
}

func (s Species) String() string {
	return speciesNames[s]
}

// speciesProps holds the per-species constants: molecular weight in kg/kmol
// and specific heat at constant pressure in J/(kg·K).
type speciesProps struct {
	mw float64
	cp float64
}

var speciesTable = [numSpecies]speciesProps{
	{31.9988, 918.0},   // O2
	{28.0134, 1040.0},  // N2
	{44.0095, 846.0},   // CO2
	{18.0153, 1996.0},  // H2O
	{2.01588, 14304.0}, // H2
	{16.0425, 2226.0},  // CH4
	{4.0026, 5193.0},   // He
	{39.948, 520.3},    // Ar
	{17.0305, 2175.0},  // NH3
}

// MW returns the molecular weight of the Species, in kg/kmol.
func (s Species) MW() float64 {
	return speciesTable[s].mw
}

// Cp returns the specific heat of the Species, in J/(kg·K).
func (s Species) Cp() float64 {
	return speciesTable[s].cp
}

// Trace identifies a trace compound.  Trace amounts are tracked but assumed
// not to affect the bulk thermodynamic state.
type Trace int

const (
	CO Trace = iota
	NO2
	O3
	CH2O
	numTraces
)

var traceNames = [numTraces]string{"CO", "NO2", "O3", "CH2O"}

func (t Trace) String() string {
	return traceNames[t]
}

// FluidState holds the intensive state of a fluid mixture: pressure,
// temperature, bulk mole fractions (summing to 1) and trace-compound mole
// fractions expressed relative to the bulk phase.
type FluidState struct {
	Pressure    Pressure
	Temperature float64 // K
	X           []float64
	TC          []float64
	species     []Species
	traces      []Trace
}

// NewFluidState returns a FluidState over the given species and trace
// compounds, at standard temperature with all fractions zero.
func NewFluidState(species []Species, traces []Trace) *FluidState {
	return &FluidState{
		0,
		294.261,
		make([]float64, len(species)),
		make([]float64, len(traces)),
		species,
		traces,
	}
}

// Species returns the bulk species this state is defined over.
func (f *FluidState) Species() []Species {
	return f.species
}

// Traces returns the trace compounds this state is defined over.
func (f *FluidState) Traces() []Trace {
	return f.traces
}

// Set copies the state from another FluidState defined over the same
// species and trace compounds.
func (f *FluidState) Set(from *FluidState) {
	f.Pressure = from.Pressure
	f.Temperature = from.Temperature
	copy(f.X, from.X)
	copy(f.TC, from.TC)
}

// Normalize scales the bulk mole fractions to sum to 1 and returns the
// pre-normalization sum.  A zero sum leaves the fractions unchanged.
func (f *FluidState) Normalize() float64 {
	var sum float64
	for _, x := range f.X {
		sum += x
	}
	if sum <= 0 {
		return sum
	}
	for i := range f.X {
		f.X[i] /= sum
	}
	return sum
}

// MolWeight returns the mixture molecular weight, in kg/kmol.
func (f *FluidState) MolWeight() float64 {
	var mw float64
	for i, x := range f.X {
		mw += x * f.species[i].MW()
	}
	return mw
}

// MassFractions converts the bulk mole fractions to mass fractions,
// writing into out, which must have the same length as X.
func (f *FluidState) MassFractions(out []float64) {
	mw := f.MolWeight()
	if mw <= 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	for i, x := range f.X {
		out[i] = x * f.species[i].MW() / mw
	}
}

// CpMass returns the mixture specific heat, in J/(kg·K), weighted by mass
// fraction.
func (f *FluidState) CpMass() float64 {
	mw := f.MolWeight()
	if mw <= 0 {
		return 0
	}
	var cp float64
	for i, x := range f.X {
		cp += x * f.species[i].MW() / mw * f.species[i].Cp()
	}
	return cp
}

// Enthalpy returns the mixture specific enthalpy, in J/kg.
func (f *FluidState) Enthalpy() float64 {
	return f.CpMass() * f.Temperature
}

// SetEnthalpy sets the temperature from a specific enthalpy, in J/kg.
func (f *FluidState) SetEnthalpy(h float64) {
	cp := f.CpMass()
	if cp <= 0 {
		return
	}
	f.Temperature = h / cp
}

// Moles returns the molar content, in kmol, of the mixture filling the
// given volume at its current pressure and temperature, by the ideal gas
// law.
func (f *FluidState) Moles(volume float64) float64 {
	if f.Temperature <= 0 {
		return 0
	}
	return f.Pressure.KPa() * volume / (RUniv * f.Temperature)
}

// Mix blends another state's composition and temperature into this one,
// weighted by the molar amount w of the incoming fluid against the molar
// amount n already present.  Pressure is left unchanged.
func (f *FluidState) Mix(in *FluidState, w, n float64) {
	if w <= 0 {
		return
	}
	t := w + n
	if t <= 0 {
		return
	}
	a := w / t
	for i := range f.X {
		f.X[i] = (1-a)*f.X[i] + a*in.X[i]
	}
	for i := range f.TC {
		f.TC[i] = (1-a)*f.TC[i] + a*in.TC[i]
	}
	f.Temperature = (1-a)*f.Temperature + a*in.Temperature
	f.Normalize()
}
