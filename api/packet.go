// File: api/packet.go
// Package api defines the packet envelope moved through IO ports.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Key is the signed tag carried by every packet. Its sign encodes origin:
// positive keys are user packets, negative keys belong to bindings, and
// SentinelKey is reserved for the consumer-pool shutdown convention.
type Key int64

// SentinelKey is the reserved key value used by waiter pools to signal
// orderly shutdown. Queue accepts it like any other non-negative key; the
// pool protocol gives it its meaning.
const SentinelKey Key = 0

// PacketKind discriminates the payload stored in a packet slot.
type PacketKind uint32

const (
	// KindUser marks a producer-submitted packet with an opaque payload.
	KindUser PacketKind = iota
	// KindIO marks a packet generated by a binding on a signal transition.
	KindIO
)

// PayloadWords is the fixed payload width of every packet slot, in
// machine words. User payloads use all three words; IO payloads use one
// word for the observed signals, one for delivery flags, and keep the
// last reserved.
const PayloadWords = 3

// Payload byte sizes per kind, validated on Queue and Wait. Both kinds
// currently occupy the full slot; the sizes stay separate constants so the
// kinds may diverge without changing callers.
const (
	UserPayloadSize = PayloadWords * 8
	IOPayloadSize   = PayloadWords * 8
)

// PayloadSize returns the exact payload byte size for the kind.
func (k PacketKind) PayloadSize() int {
	switch k {
	case KindUser:
		return UserPayloadSize
	case KindIO:
		return IOPayloadSize
	}
	return 0
}

// String returns the kind name for diagnostics.
func (k PacketKind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindIO:
		return "io"
	}
	return "unknown"
}

// PacketFlags carries per-delivery metadata in IO packets.
type PacketFlags uint64

const (
	// FlagOverflow is set on the first IO packet delivered after the
	// binding dropped one or more transitions on a full ring.
	FlagOverflow PacketFlags = 1 << iota
)

// UserPayload is the opaque three-word payload of a user packet.
type UserPayload [PayloadWords]uint64

// IOPayload is the decoded payload of a binding-generated packet.
type IOPayload struct {
	Signals Signals
	Flags   PacketFlags
}

// Packet is the fixed-size slot moved through a port's ring. It is copied
// by value on enqueue and dequeue; producer and consumer never share
// packet memory.
type Packet struct {
	Key  Key
	Kind PacketKind
	Data [PayloadWords]uint64
}

// NewUserPacket builds a user packet for Queue.
func NewUserPacket(key Key, payload UserPayload) Packet {
	return Packet{Key: key, Kind: KindUser, Data: payload}
}

// NewIOPacket builds a binding-generated packet.
func NewIOPacket(key Key, signals Signals, flags PacketFlags) Packet {
	return Packet{
		Key:  key,
		Kind: KindIO,
		Data: [PayloadWords]uint64{uint64(signals), uint64(flags), 0},
	}
}

// User returns the payload words of a KindUser packet.
func (p Packet) User() UserPayload {
	return p.Data
}

// IO decodes the payload of a KindIO packet.
func (p Packet) IO() IOPayload {
	return IOPayload{
		Signals: Signals(p.Data[0]),
		Flags:   PacketFlags(p.Data[1]),
	}
}
