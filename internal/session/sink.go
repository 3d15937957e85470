// Package session implements the Stream and Controller workers: the
// video demultiplexing pipeline and the control-message sender, plus the
// PacketSink abstraction that lets Decoder and Recorder be driven
// uniformly instead of through nullable-pointer branching.
package session

import "github.com/breeze-rmm/screenbridge/internal/wire"

// PacketSink receives access units from the Stream worker. Decoder (the
// video renderer, out of scope here — only its contract matters) and
// Recorder both implement it; Broadcast composes any number of sinks so
// Stream never branches on which sinks are attached.
type PacketSink interface {
	// Push delivers one already-coalesced access unit. Returning false
	// reports that this sink can no longer accept packets (e.g. the
	// decoder was interrupted): Broadcast detaches such a sink rather than
	// calling Push again, and the Stream worker stops when the sink it was
	// given returns false.
	Push(pkt *wire.Packet) bool
	// Close releases any resources the sink owns. Called once, during
	// Stream worker teardown, in reverse attach order.
	Close()
}

// Decoder is the external collaborator that renders decoded frames. Only
// its push/interrupt contract is modeled; the decoder implementation
// itself is out of scope.
type Decoder interface {
	PacketSink
	// Interrupt causes the next (or an in-flight) Push to return false.
	Interrupt()
}

// Broadcast fans a packet out to every attached sink. A sink that returns
// false from Push is detached immediately so a single failing sink (e.g.
// the Recorder hitting a write error) never spams future pushes.
type Broadcast struct {
	sinks []PacketSink
}

// NewBroadcast builds a composite sink over the given non-nil sinks.
func NewBroadcast(sinks ...PacketSink) *Broadcast {
	b := &Broadcast{}
	for _, s := range sinks {
		if s != nil {
			b.sinks = append(b.sinks, s)
		}
	}
	return b
}

// Push delivers pkt to every still-attached sink, detaching any that
// return false. Reports false only once every sink has been detached.
func (b *Broadcast) Push(pkt *wire.Packet) bool {
	live := b.sinks[:0]
	for _, s := range b.sinks {
		if s.Push(pkt) {
			live = append(live, s)
		} else {
			s.Close()
		}
	}
	b.sinks = live
	return len(b.sinks) > 0
}

// Detach removes a sink from the broadcast set without pushing to it
// again, closing it first. A Recorder that fails is already detached by
// Push when it returns false; Detach is for removing a sink on the
// caller's initiative.
func (b *Broadcast) Detach(target PacketSink) {
	live := b.sinks[:0]
	for _, s := range b.sinks {
		if s == target {
			s.Close()
			continue
		}
		live = append(live, s)
	}
	b.sinks = live
}

// Close tears every attached sink down in reverse attach order.
func (b *Broadcast) Close() {
	for i := len(b.sinks) - 1; i >= 0; i-- {
		b.sinks[i].Close()
	}
	b.sinks = nil
}

// Empty reports whether every sink has been detached.
func (b *Broadcast) Empty() bool { return len(b.sinks) == 0 }
