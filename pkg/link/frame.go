// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import "time"

// Frame is one link message, either decoded from the wire or built for sending
type Frame struct {
	length    uint8
	address   uint64
	payload   []byte // CBOR [type, fields]
	crc       uint16
	timestamp time.Time
	raw       []byte

	// parsed lazily from payload
	msgType  uint8
	fields   map[int]interface{}
	parsed   bool
	parseErr error
}

// NewFrame builds an outgoing frame from a message type and its fields.
// The payload and CRC are produced by Encode.
func NewFrame(address uint64, msgType uint8, fields map[int]interface{}) *Frame {
	return &Frame{
		address:   address,
		msgType:   msgType,
		fields:    fields,
		parsed:    true,
		timestamp: time.Now(),
	}
}

func (f *Frame) ensureParsed() {
	if f.parsed {
		return
	}
	f.parsed = true
	f.msgType, f.fields, f.parseErr = ParseMessage(f.payload)
}

// Length returns the declared CBOR payload length
func (f *Frame) Length() uint8 { return f.length }

// Address returns the 64-bit sender or target address
func (f *Frame) Address() uint64 { return f.address }

// Type returns the message type
func (f *Frame) Type() uint8 {
	f.ensureParsed()
	return f.msgType
}

// Fields returns the decoded field map, nil for messages without fields
func (f *Frame) Fields() map[int]interface{} {
	f.ensureParsed()
	return f.fields
}

// ParseError returns the error from decoding the CBOR payload, if any
func (f *Frame) ParseError() error {
	f.ensureParsed()
	return f.parseErr
}

// Payload returns the raw CBOR bytes
func (f *Frame) Payload() []byte { return f.payload }

// CRC returns the received checksum
func (f *Frame) CRC() uint16 { return f.crc }

// Timestamp returns when the frame was built or decoded
func (f *Frame) Timestamp() time.Time { return f.timestamp }

// Raw returns the wire bytes the frame was decoded from, framing included
func (f *Frame) Raw() []byte { return f.raw }

// IsBroadcast reports whether the frame targets every listener
func (f *Frame) IsBroadcast() bool { return f.address == AddressBroadcast }
