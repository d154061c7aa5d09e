// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger returns the root logger for a process, writing console-format
// output at the given level.
func NewLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

// DefaultLogger returns an info-level logger on stderr.
func DefaultLogger() zerolog.Logger {
	return NewLogger(os.Stderr, zerolog.InfoLevel)
}
