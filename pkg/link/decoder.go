// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"fmt"
	"time"
)

// ErrCRCMismatch is wrapped by the error returned for a frame with a bad checksum
var ErrCRCMismatch = errors.New("CRC mismatch")

// Decoder reassembles frames from a byte stream
type Decoder struct {
	state      int
	body       []byte // unstuffed length+address+payload, the CRC input
	escapeNext bool
	addrBytes  int
	frame      *Frame
	raw        []byte
}

// NewDecoder returns a decoder waiting for a START byte
func NewDecoder() *Decoder {
	return &Decoder{
		state: stateIdle,
		body:  make([]byte, 0, MaxFrameSize),
		raw:   make([]byte, 0, MaxFrameSize*2),
	}
}

// Reset drops any partial frame
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.body = d.body[:0]
	d.escapeNext = false
	d.addrBytes = 0
	d.frame = nil
	d.raw = d.raw[:0]
}

// Pending returns the raw bytes of the frame being assembled
func (d *Decoder) Pending() []byte {
	return d.raw
}

// fail resets the decoder and returns a formatted error
func (d *Decoder) fail(format string, args ...interface{}) error {
	d.Reset()
	return fmt.Errorf(format, args...)
}

// DecodeByte feeds one byte. It returns a frame when END closes a valid
// one, an error when the frame being assembled is corrupt, and nil, nil
// otherwise. Bytes outside a frame are ignored.
func (d *Decoder) DecodeByte(b byte) (*Frame, error) {
	if b == StartByte {
		d.Reset()
		d.raw = append(d.raw, b)
		d.state = stateLength
		return nil, nil
	}
	if d.state == stateIdle {
		return nil, nil
	}
	d.raw = append(d.raw, b)

	if b == EndByte {
		if d.state != stateEnd || d.escapeNext {
			return nil, d.fail("unexpected END in state %d", d.state)
		}
		f := d.frame
		if want := Checksum(d.body); f.crc != want {
			return nil, d.fail("%w: computed 0x%04X, received 0x%04X", ErrCRCMismatch, want, f.crc)
		}
		f.raw = append([]byte(nil), d.raw...)
		f.timestamp = time.Now()
		d.Reset()
		return f, nil
	}

	if b == EscByte {
		if d.escapeNext {
			return nil, d.fail("double escape")
		}
		d.escapeNext = true
		return nil, nil
	}
	if d.escapeNext {
		b ^= EscXor
		d.escapeNext = false
	}

	switch d.state {
	case stateLength:
		if b > MaxPayloadSize {
			return nil, d.fail("invalid length %d (max %d)", b, MaxPayloadSize)
		}
		d.frame = &Frame{length: b}
		d.body = append(d.body, b)
		d.state = stateAddress

	case stateAddress:
		d.frame.address |= uint64(b) << (8 * d.addrBytes)
		d.body = append(d.body, b)
		d.addrBytes++
		if d.addrBytes == AddressSize {
			if d.frame.length == 0 {
				d.state = stateCRC1
			} else {
				d.frame.payload = make([]byte, 0, d.frame.length)
				d.state = statePayload
			}
		}

	case statePayload:
		d.frame.payload = append(d.frame.payload, b)
		d.body = append(d.body, b)
		if len(d.frame.payload) == int(d.frame.length) {
			d.state = stateCRC1
		}

	case stateCRC1:
		d.frame.crc = uint16(b) << 8
		d.state = stateCRC2

	case stateCRC2:
		d.frame.crc |= uint16(b)
		d.state = stateEnd

	case stateEnd:
		return nil, d.fail("frame longer than its declared length %d", d.frame.length)
	}
	return nil, nil
}

// Decode feeds a buffer and collects every completed frame and error
func (d *Decoder) Decode(data []byte) ([]*Frame, []error) {
	var frames []*Frame
	var errs []error
	for _, b := range data {
		f, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
		}
		if f != nil {
			frames = append(frames, f)
		}
	}
	return frames, errs
}
