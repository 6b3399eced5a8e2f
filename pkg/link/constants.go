// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link implements the framed serial protocol that carries pipeline
// state between a transmitter and a monitor.
//
// A frame is START, then the stuffed body (length, little-endian address,
// CBOR message [type, fields], big-endian CRC-16), then END.
package link

// Framing bytes
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

// Frame size limits
const (
	MaxFrameSize   = 128
	MaxPayloadSize = 114
	AddressSize    = 8
)

// CRC-16-CCITT parameters
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Special addresses
const (
	AddressBroadcast = 0x0000000000000000
	AddressMonitor   = 0xFFFFFFFFFFFFFFFF
)

// Pipeline state (0x10-0x1F)
const (
	MsgChannels  = 0x10
	MsgInputs    = 0x11
	MsgSwitches  = 0x12
	MsgTimer     = 0x13
	MsgTelemetry = 0x14
)

// Control (0x20-0x2F)
const (
	MsgPing          = 0x20
	MsgPong          = 0x21
	MsgSelectProfile = 0x22
)

// Decoder states
const (
	stateIdle = iota
	stateLength
	stateAddress
	statePayload
	stateCRC1
	stateCRC2
	stateEnd
)
