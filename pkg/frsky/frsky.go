// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package frsky decodes the link quality frames sent by Frsky D-series
// receivers on their telemetry port.
//
// A frame is eleven bytes: 0x7E, an ID, eight data bytes and a closing 0x7E.
// ID 0xFE carries A1, A2 and both RSSI values. Inside a frame 0x7D escapes
// the next byte, which is sent XOR 0x20.
package frsky

// Framing bytes and frame IDs
const (
	FrameByte = 0x7E
	EscByte   = 0x7D
	EscXor    = 0x20

	IDLink     = 0xFE
	IDUserData = 0xFD

	frameData = 9 // ID plus eight data bytes
)

// Frame is one decoded link frame
type Frame struct {
	A1     uint8
	A2     uint8
	RSSIRx uint8
	RSSITx uint8
}

// Decoder reassembles link frames from the telemetry byte stream. User data
// frames are skipped.
type Decoder struct {
	buf        [frameData]byte
	n          int
	inFrame    bool
	escapeNext bool
}

// NewDecoder returns an idle decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeByte feeds one byte and reports a completed link frame
func (d *Decoder) DecodeByte(b byte) (Frame, bool) {
	if b == FrameByte {
		var f Frame
		ok := d.inFrame && d.n == frameData && !d.escapeNext && d.buf[0] == IDLink
		if ok {
			f = Frame{A1: d.buf[1], A2: d.buf[2], RSSIRx: d.buf[3], RSSITx: d.buf[4]}
		}
		// a closing 0x7E also opens the next frame
		d.inFrame = true
		d.n = 0
		d.escapeNext = false
		return f, ok
	}
	if !d.inFrame {
		return Frame{}, false
	}
	if b == EscByte && !d.escapeNext {
		d.escapeNext = true
		return Frame{}, false
	}
	if d.escapeNext {
		b ^= EscXor
		d.escapeNext = false
	}
	if d.n == frameData {
		// overlong, wait for the next frame byte
		d.inFrame = false
		return Frame{}, false
	}
	d.buf[d.n] = b
	d.n++
	return Frame{}, false
}

// Decode feeds a buffer and returns the link frames it completes
func (d *Decoder) Decode(data []byte) []Frame {
	var out []Frame
	for _, b := range data {
		if f, ok := d.DecodeByte(b); ok {
			out = append(out, f)
		}
	}
	return out
}

// Encode builds the wire bytes of a link frame
func Encode(f Frame) []byte {
	out := []byte{FrameByte}
	for _, b := range []byte{IDLink, f.A1, f.A2, f.RSSIRx, f.RSSITx, 0, 0, 0, 0} {
		if b == FrameByte || b == EscByte {
			out = append(out, EscByte, b^EscXor)
			continue
		}
		out = append(out, b)
	}
	return append(out, FrameByte)
}
