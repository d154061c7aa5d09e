// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

// Command flic couples two small fluid networks through a distributed
// interface pair, either in one process over a loopback transport, or in
// two processes over a websocket.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/heistp/flic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// demo network constants
const (
	tankVolume    = 10.0 // m³
	tankPressure  = 150 * flic.KPa
	smallVolume   = 0.5 // m³
	smallPressure = 100 * flic.KPa
	temperature   = 294.261 // K
	conductance   = 1e-4    // kmol/(kPa·s)
)

var (
	species = []flic.Species{flic.O2, flic.N2, flic.CO2}
	traces  = []flic.Trace{flic.CO}
	air     = []float64{0.21, 0.79, 0.0}
)

func main() {
	app := &cli.App{
		Name:  "flic",
		Usage: "couple two fluid networks through a distributed interface",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "ticks",
				Usage: "number of ticks to run",
				Value: 1000,
			},
			&cli.DurationFlag{
				Name:  "step",
				Usage: "solver step size",
				Value: 100 * time.Millisecond,
			},
			&cli.StringFlag{
				Name:  "transport",
				Usage: "transport between the sides (loop or ws)",
				Value: "loop",
			},
			&cli.IntFlag{
				Name:  "delay",
				Usage: "loop transport delivery delay, in frames",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "side",
				Usage: "side to run with the ws transport (a or b)",
				Value: "a",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "ws listen address",
				Value: ":8086",
			},
			&cli.StringFlag{
				Name:  "dial",
				Usage: "ws peer URL",
				Value: "ws://localhost:8086",
			},
			&cli.StringFlag{
				Name:  "metrics",
				Usage: "prometheus metrics address (empty to disable)",
			},
			&cli.StringFlag{
				Name:  "plot",
				Usage: "xplot output prefix (empty to disable)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log at debug level",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := zerolog.InfoLevel
	if c.Bool("verbose") {
		level = zerolog.DebugLevel
	}
	log := flic.NewLogger(os.Stderr, level)
	if a := c.String("metrics"); a != "" {
		go http.ListenAndServe(a, promhttp.Handler())
	}
	switch c.String("transport") {
	case "loop":
		return runLoop(c, log)
	case "ws":
		return runWS(c, log)
	}
	return fmt.Errorf("unknown transport %q", c.String("transport"))
}

// runLoop runs both sides in this process over a loopback pair.
func runLoop(c *cli.Context, log zerolog.Logger) error {
	epA, epB := flic.NewLoopPair(c.Int("delay"))
	a, ifA, err := buildSideA(epA, log)
	if err != nil {
		return err
	}
	b, ifB, err := buildSideB(epB, log)
	if err != nil {
		return err
	}

	step := flic.Clock(c.Duration("step"))
	sim := flic.NewSim(
		&flic.Side{Solver: a, Period: step},
		&flic.Side{Solver: b, Period: step},
	)

	var tracer *flic.Tracer
	if p := c.String("plot"); p != "" {
		tracer = flic.NewTracer(ifB)
		if err = tracer.Open(p); err != nil {
			return err
		}
		defer tracer.Close()
	}

	until := step * flic.Clock(c.Int("ticks"))
	for t := step; t <= until; t += step {
		if err = sim.Run(t); err != nil {
			return err
		}
		if tracer != nil {
			tracer.Sample(sim.Now())
		}
	}
	log.Info().
		Bool("aDemand", ifA.Demand()).
		Bool("bDemand", ifB.Demand()).
		Int("loopLatency", ifB.LoopLatency()).
		Msg("done")
	return nil
}

// runWS runs one side, paced in real time, against a peer process.
func runWS(c *cli.Context, log zerolog.Logger) error {
	var ep flic.Endpoint
	var s *flic.Solver
	var err error
	switch c.String("side") {
	case "a":
		var wep *flic.WSEndpoint
		if wep, err = flic.ListenWS(c.String("listen"), log); err != nil {
			return err
		}
		defer wep.Close()
		ep = wep
		s, _, err = buildSideA(ep, log)
	case "b":
		wep := flic.DialWS(c.String("dial"), log)
		defer wep.Close()
		ep = wep
		s, _, err = buildSideB(ep, log)
	default:
		return fmt.Errorf("unknown side %q", c.String("side"))
	}
	if err != nil {
		return err
	}

	dt := c.Duration("step")
	tick := time.NewTicker(dt)
	defer tick.Stop()
	for i := 0; i < c.Int("ticks"); i++ {
		<-tick.C
		if err = s.Step(dt.Seconds()); err != nil {
			return err
		}
	}
	return nil
}

// buildSideA builds the large-reservoir network: a tank connected by a
// conductor to the interface node.
func buildSideA(ep flic.Endpoint, log zerolog.Logger) (*flic.Solver,
	*flic.Interface, error) {
	s := flic.NewSolver("a", species, traces, log)
	tank := s.AddNode("tank")
	tank.SetState(tankPressure, temperature, air)
	s.AddLink(flic.NewCapacitor(tank, tankVolume))

	boundary := s.AddNode("boundary")
	boundary.SetState(tankPressure, temperature, air)
	vol := flic.NewCapacitor(boundary, smallVolume)
	s.AddLink(vol)
	s.AddLink(flic.NewConductor(tank, boundary, conductance))

	i, err := flic.NewInterface(flic.Config{
		Name:         "a",
		IsPairMaster: true,
	}, boundary, vol, ep, log)
	if err != nil {
		return nil, nil, err
	}
	s.AddLink(i)
	return s, i, nil
}

// buildSideB builds the small network: a boundary node feeding a tank
// through a conductor, so demand flux actually flows once the roles
// settle.
func buildSideB(ep flic.Endpoint, log zerolog.Logger) (*flic.Solver,
	*flic.Interface, error) {
	s := flic.NewSolver("b", species, traces, log)
	tank := s.AddNode("tank")
	tank.SetState(smallPressure, temperature, air)
	s.AddLink(flic.NewCapacitor(tank, smallVolume))

	boundary := s.AddNode("boundary")
	boundary.SetState(smallPressure, temperature, air)
	vol := flic.NewCapacitor(boundary, smallVolume/5)
	s.AddLink(vol)
	s.AddLink(flic.NewConductor(boundary, tank, conductance))

	i, err := flic.NewInterface(flic.Config{
		Name: "b",
	}, boundary, vol, ep, log)
	if err != nil {
		return nil, nil, err
	}
	s.AddLink(i)
	return s, i, nil
}
