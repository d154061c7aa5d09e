// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import "github.com/pkg/errors"

// ErrConfig is returned from initialization for an unusable pair
// configuration.  It is fatal: the link cannot be constructed.
var ErrConfig = errors.New("invalid interface configuration")

// ErrInvalidInterfaceData is returned during a step when inbound data
// passes the validity predicate but cannot be ingested, such as a bulk
// mixture summing to zero in demand mode.  It fails the tick; the caller
// decides whether to continue.
var ErrInvalidInterfaceData = errors.New("invalid interface data")
