// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import "github.com/prometheus/client_golang/prometheus"

// Interface telemetry.  Metrics are global with a per-link label; the
// label set is bounded by the number of links configured in the process.
var (
	framesPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flic_frames_published_total",
		Help: "Payload frames published by the link",
	}, []string{"link"})
	framesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flic_frames_received_total",
		Help: "Payload frames received by the link",
	}, []string{"link"})
	framesInvalid = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flic_frames_invalid_total",
		Help: "Received frames that failed the validity predicate",
	}, []string{"link"})
	modeFlips = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flic_mode_flips_total",
		Help: "Role transitions, by mode flipped to",
	}, []string{"link", "mode"})
	loopLatencyFrames = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flic_loop_latency_frames",
		Help: "Measured round-trip latency, in frames",
	}, []string{"link"})
	demandGain = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flic_demand_gain",
		Help: "Lag-aware gain applied by the demand controller",
	}, []string{"link"})
)

func init() {
	prometheus.MustRegister(framesPublished, framesReceived, framesInvalid,
		modeFlips, loopLatencyFrames, demandGain)
}
