// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

// Endpoint carries payload frames to and from the peer side of a
// distributed interface pair.  The interface tolerates frame skips and
// arbitrary latency, so endpoints may drop or delay frames freely as long
// as Poll always surfaces the newest one available.
type Endpoint interface {
	// Send publishes an outbound frame.  The frame is copied; the caller
	// keeps ownership of p.
	Send(p *Payload) error

	// Poll copies the newest available inbound frame into p and reports
	// whether one was available.  Older undelivered frames are skipped.
	Poll(p *Payload) (bool, error)
}

// frameAt stores a frame and the receiver poll count at which it becomes
// visible, which we keep in a queue instead of scheduling timers.
type frameAt struct {
	frame *Payload
	due   int
}

// LoopEndpoint is one half of an in-process loopback pair.  Frames become
// visible to the peer after a configured number of its polls, emulating
// transport latency deterministically.  It is not safe for concurrent
// use; the co-simulator drives both halves from one goroutine.
type LoopEndpoint struct {
	peer  *LoopEndpoint
	delay int
	polls int
	queue []frameAt
}

// NewLoopPair returns a connected pair of loop endpoints with the given
// delivery delay in polls, minimum 1.
func NewLoopPair(delay int) (a, b *LoopEndpoint) {
	if delay < 1 {
		delay = 1
	}
	a = &LoopEndpoint{delay: delay}
	b = &LoopEndpoint{delay: delay}
	a.peer = b
	b.peer = a
	return
}

// Send implements Endpoint.
func (e *LoopEndpoint) Send(p *Payload) error {
	f := NewPayload(len(p.X), len(p.TC))
	f.CopyFrom(p)
	e.peer.queue = append(e.peer.queue,
		frameAt{f, e.peer.polls + e.delay})
	return nil
}

// Poll implements Endpoint.
func (e *LoopEndpoint) Poll(p *Payload) (bool, error) {
	e.polls++
	due := -1
	for j, f := range e.queue {
		if f.due > e.polls {
			break
		}
		due = j
	}
	if due < 0 {
		return false, nil
	}
	p.CopyFrom(e.queue[due].frame)
	e.queue = e.queue[due+1:]
	return true, nil
}

// Break disconnects the endpoint from its peer: frames sent from here are
// dropped, so the peer goes silent.  Used to exercise peer-silence
// recovery.
func (e *LoopEndpoint) Break() {
	e.peer = &LoopEndpoint{delay: e.delay}
}
