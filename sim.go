// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"fmt"
	"time"
)

// Clock represents the virtual simulation time.
type Clock time.Duration

// Seconds returns the Clock in seconds.
func (c Clock) Seconds() float64 {
	return time.Duration(c).Seconds()
}

func (c Clock) StringMS() string {
	return fmt.Sprintf("%f", time.Duration(c).Seconds()*1000)
}

func (c Clock) String() string {
	return fmt.Sprintf("%f", time.Duration(c).Seconds())
}

// Side is one half of a coupled pair: a network solver stepped at its own
// period.  The two sides of a pair may run at different rates; they
// interact only through the payloads their interfaces exchange.
type Side struct {
	Solver *Solver
	Period Clock
	next   Clock
	steps  int
}

// Steps returns the number of steps the Side has taken.
func (d *Side) Steps() int {
	return d.steps
}

// Sim is a deterministic co-simulator: it advances whichever side is due
// next, with ties broken in the order the sides were added.  Within one
// process it stands in for the two independently-scheduled processes of a
// deployed pair.
type Sim struct {
	sides []*Side
	now   Clock
}

// NewSim returns a new Sim over the given sides.  Each side's first tick
// completes at its period.
func NewSim(sides ...*Side) *Sim {
	for _, d := range sides {
		d.next = d.Period
	}
	return &Sim{sides, 0}
}

// Now returns the current simulation time.
func (s *Sim) Now() Clock {
	return s.now
}

// Run advances the simulation until the given time.
func (s *Sim) Run(until Clock) error {
	for {
		var b *Side
		for _, d := range s.sides {
			if b == nil || d.next < b.next {
				b = d
			}
		}
		if b == nil || b.next > until {
			return nil
		}
		s.now = b.next
		if err := b.Solver.Step(b.Period.Seconds()); err != nil {
			return err
		}
		b.steps++
		b.next += b.Period
	}
}
