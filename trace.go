// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// xplot colors for the two roles: supply plots white, demand yellow.
const (
	supplyColor = 0
	demandColor = 4
)

// series writes one xplot time series for the tracer.
type series struct {
	file   *os.File
	writer *bufio.Writer
}

// openSeries creates the named series file and writes its header.  All
// tracer series share the time axis.
func openSeries(name, title, ylabel string) (s *series, err error) {
	s = &series{}
	if s.file, err = os.Create(name); err != nil {
		return
	}
	s.writer = bufio.NewWriter(s.file)
	fmt.Fprintf(s.writer,
		"double double\ntitle\n%s\nxlabel\nTime (S)\nylabel\n%s\n"+
			"invisible 0 0\n", title, ylabel)
	return
}

// dot plots one point, colored by the link's role at sample time.
func (s *series) dot(now Clock, y string, demand bool) {
	c := supplyColor
	if demand {
		c = demandColor
	}
	fmt.Fprintf(s.writer, "dot %s %s %d\n", now, y, c)
}

func (s *series) close() error {
	fmt.Fprintf(s.writer, "go\n")
	s.writer.Flush()
	return s.file.Close()
}

// Tracer records one interface's per-tick telemetry: node pressure,
// demand flux and loop latency, each as an xplot time series with the
// role visible in the point color.
type Tracer struct {
	iface    *Interface
	pressure *series
	flux     *series
	latency  *series
}

// NewTracer returns a Tracer for the given interface.
func NewTracer(i *Interface) *Tracer {
	return &Tracer{iface: i}
}

// Open opens the series files with the given name prefix.
func (t *Tracer) Open(prefix string) (err error) {
	if t.pressure, err = openSeries(prefix+"-pressure.xpl",
		"Interface Node Pressure", "Pressure (kPa)"); err != nil {
		return
	}
	if t.flux, err = openSeries(prefix+"-flux.xpl",
		"Interface Demand Flux", "Flux (mol/s)"); err != nil {
		return
	}
	t.latency, err = openSeries(prefix+"-latency.xpl",
		"Interface Loop Latency", "Latency (frames)")
	return
}

// Sample plots one point per series at the given time.
func (t *Tracer) Sample(now Clock) {
	i := t.iface
	t.pressure.dot(now, trimFloat(i.node.potential.KPa(), 6), i.demand)
	t.flux.dot(now, trimFloat(i.demandFlux.Mols(), 9), i.demand)
	t.latency.dot(now, strconv.Itoa(i.loopLatency), i.demand)
}

// Close closes the series files.
func (t *Tracer) Close() error {
	t.pressure.close()
	t.flux.close()
	return t.latency.close()
}
