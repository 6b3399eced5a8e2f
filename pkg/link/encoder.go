// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"encoding/binary"
	"fmt"
)

// Encode builds the wire bytes for one message, framing included
func Encode(address uint64, msgType uint8, fields map[int]interface{}) ([]byte, error) {
	payload, err := marshalMessage(msgType, fields)
	if err != nil {
		return nil, fmt.Errorf("encode message 0x%02X: %w", msgType, err)
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("message 0x%02X payload is %d bytes (max %d)", msgType, len(payload), MaxPayloadSize)
	}

	body := make([]byte, 1+AddressSize, 1+AddressSize+len(payload)+2)
	body[0] = uint8(len(payload))
	binary.LittleEndian.PutUint64(body[1:], address)
	body = append(body, payload...)

	crc := Checksum(body)
	body = binary.BigEndian.AppendUint16(body, crc)

	out := make([]byte, 0, len(body)*2+2)
	out = append(out, StartByte)
	out = Stuff(out, body)
	return append(out, EndByte), nil
}

// EncodeFrame encodes an outgoing frame
func EncodeFrame(f *Frame) ([]byte, error) {
	return Encode(f.Address(), f.Type(), f.Fields())
}

// Stuff appends data to dst, escaping every framing byte
func Stuff(dst, data []byte) []byte {
	for _, b := range data {
		switch b {
		case StartByte, EndByte, EscByte:
			dst = append(dst, EscByte, b^EscXor)
		default:
			dst = append(dst, b)
		}
	}
	return dst
}

// Unstuff reverses Stuff
func Unstuff(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != EscByte {
			out = append(out, data[i])
			continue
		}
		i++
		if i == len(data) {
			return nil, fmt.Errorf("dangling escape at end of data")
		}
		out = append(out, data[i]^EscXor)
	}
	return out, nil
}
