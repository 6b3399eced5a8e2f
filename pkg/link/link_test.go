// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wireFrame frames an unstuffed body with an explicit CRC
func wireFrame(body []byte, crc uint16) []byte {
	data := binary.BigEndian.AppendUint16(append([]byte(nil), body...), crc)
	out := Stuff([]byte{StartByte}, data)
	return append(out, EndByte)
}

// pingBody returns length+address+payload of a PING to addr
func pingBody(t *testing.T, addr uint64) []byte {
	t.Helper()
	payload, err := marshalMessage(MsgPing, nil)
	require.NoError(t, err)
	body := make([]byte, 1+AddressSize)
	body[0] = uint8(len(payload))
	binary.LittleEndian.PutUint64(body[1:], addr)
	return append(body, payload...)
}

func decodeAll(t *testing.T, data []byte) ([]*Frame, []error) {
	t.Helper()
	return NewDecoder().Decode(data)
}

// ============================================================
// CRC Tests
// ============================================================

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"empty", nil, crcInitial},
		{"check string", []byte("123456789"), 0x29B1},
	}
	for _, tt := range tests {
		if got := Checksum(tt.data); got != tt.want {
			t.Errorf("%s: Checksum = 0x%04X, want 0x%04X", tt.name, got, tt.want)
		}
	}
}

// ============================================================
// Stuffing Tests
// ============================================================

func TestStuff(t *testing.T) {
	in := []byte{0x01, StartByte, EndByte, EscByte, 0x20}
	want := []byte{0x01, EscByte, 0x5E, EscByte, 0x5F, EscByte, 0x5D, 0x20}

	got := Stuff(nil, in)
	assert.Equal(t, want, got)

	back, err := Unstuff(got)
	require.NoError(t, err)
	assert.Equal(t, in, back)

	_, err = Unstuff([]byte{0x01, EscByte})
	assert.Error(t, err)
}

func TestStuffedBodyHasNoFramingBytes(t *testing.T) {
	data, err := Encode(0x7E7F7D7E7F7D7E7F, MsgSelectProfile, map[int]interface{}{0: uint64(0x7E)})
	require.NoError(t, err)

	assert.Equal(t, byte(StartByte), data[0])
	assert.Equal(t, byte(EndByte), data[len(data)-1])
	inner := data[1 : len(data)-1]
	assert.Equal(t, -1, bytes.IndexByte(inner, StartByte))
	assert.Equal(t, -1, bytes.IndexByte(inner, EndByte))
}

// ============================================================
// Encode / Decode Tests
// ============================================================

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		addr    uint64
		msgType uint8
		fields  map[int]interface{}
	}{
		{"ping", AddressBroadcast, MsgPing, nil},
		{"pong", 0x0102030405060708, MsgPong, map[int]interface{}{0: uint64(123456)}},
		{"escaped address", 0x7D7E7F0000000000, MsgSelectProfile, map[int]interface{}{0: uint64(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.addr, tt.msgType, tt.fields)
			require.NoError(t, err)

			frames, errs := decodeAll(t, data)
			require.Empty(t, errs)
			require.Len(t, frames, 1)

			f := frames[0]
			assert.Equal(t, tt.addr, f.Address())
			assert.Equal(t, tt.msgType, f.Type())
			assert.NoError(t, f.ParseError())
			assert.Equal(t, data, f.Raw())
			assert.Equal(t, int(f.Length()), len(f.Payload()))
			if tt.fields == nil {
				assert.Nil(t, f.Fields())
			} else {
				assert.Equal(t, tt.fields, f.Fields())
			}
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	fields := map[int]interface{}{0: uint64(1), 1: uint64(2), 2: true, 3: int64(-4)}
	first, err := Encode(1, MsgTimer, fields)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Encode(1, MsgTimer, fields)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestEncodeRejectsLargePayload(t *testing.T) {
	big := make([]uint64, 64)
	for i := range big {
		big[i] = 0xFFFF
	}
	_, err := Encode(0, MsgChannels, map[int]interface{}{0: big})
	assert.Error(t, err)
}

func TestEncodeFrame(t *testing.T) {
	f := NewPong(42, 1000)
	data, err := EncodeFrame(f)
	require.NoError(t, err)

	frames, errs := decodeAll(t, data)
	require.Empty(t, errs)
	require.Len(t, frames, 1)
	up, err := Uptime(frames[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), up)
}

// ============================================================
// Decoder Error Tests
// ============================================================

func TestDecoderCRCMismatch(t *testing.T) {
	body := pingBody(t, 9)
	data := wireFrame(body, Checksum(body)^0x0001)

	frames, errs := decodeAll(t, data)
	assert.Empty(t, frames)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrCRCMismatch))
}

func TestDecoderErrors(t *testing.T) {
	body := pingBody(t, 9)
	// two bytes past the declared length push the real CRC after the frame end
	long := append(append([]byte(nil), body...), 0x00, 0x00)

	tests := []struct {
		name string
		data []byte
	}{
		{"early END", []byte{StartByte, 0x03, 0x00, EndByte}},
		{"length too large", []byte{StartByte, MaxPayloadSize + 1}},
		{"double escape", []byte{StartByte, 0x03, EscByte, EscByte}},
		{"extra byte", wireFrame(long, Checksum(long))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, errs := decodeAll(t, tt.data)
			assert.Empty(t, frames)
			assert.Len(t, errs, 1)
		})
	}
}

func TestDecoderIgnoresNoise(t *testing.T) {
	frame, err := Encode(5, MsgPing, nil)
	require.NoError(t, err)

	data := append([]byte{0x00, 0x55, EndByte, EscByte}, frame...)
	frames, errs := decodeAll(t, data)
	assert.Empty(t, errs)
	assert.Len(t, frames, 1)
}

func TestDecoderRestartsOnStart(t *testing.T) {
	frame, err := Encode(5, MsgPing, nil)
	require.NoError(t, err)

	partial := frame[:len(frame)/2]
	data := append(append([]byte(nil), partial...), frame...)
	frames, errs := decodeAll(t, data)
	assert.Empty(t, errs)
	require.Len(t, frames, 1)
	assert.Equal(t, uint64(5), frames[0].Address())
}

func TestDecoderBackToBack(t *testing.T) {
	var stream []byte
	for i := uint8(0); i < 5; i++ {
		data, err := EncodeFrame(NewSelectProfile(uint64(i), i))
		require.NoError(t, err)
		stream = append(stream, data...)
	}

	d := NewDecoder()
	frames, errs := d.Decode(stream)
	assert.Empty(t, errs)
	require.Len(t, frames, 5)
	for i, f := range frames {
		id, err := Profile(f)
		require.NoError(t, err)
		assert.Equal(t, uint8(i), id)
	}
	assert.Empty(t, d.Pending())
}

func TestDecoderZeroLengthFrame(t *testing.T) {
	body := make([]byte, 1+AddressSize)
	frames, errs := decodeAll(t, wireFrame(body, Checksum(body)))
	require.Empty(t, errs)
	require.Len(t, frames, 1)
	assert.Error(t, frames[0].ParseError(), "a frame without payload has no message")
}

// ============================================================
// CBOR Tests
// ============================================================

func TestParseMessageErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not cbor", []byte{0xFF}},
		{"not an array", []byte{0x01}},
		{"one element", []byte{0x81, 0x01}},
		{"negative type", []byte{0x82, 0x20, 0xF6}},
		{"fields not a map", []byte{0x82, 0x01, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseMessage(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestFieldAccessors(t *testing.T) {
	m := map[int]interface{}{
		0: uint64(7),
		1: int64(-3),
		2: true,
		3: []interface{}{uint64(1), int64(-2)},
		4: []interface{}{"x"},
	}

	u, ok := FieldUint(m, 0)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), u)
	_, ok = FieldUint(m, 1)
	assert.False(t, ok, "negative value is not a uint")

	i, ok := FieldInt(m, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(-3), i)

	b, ok := FieldBool(m, 2)
	assert.True(t, ok)
	assert.True(t, b)

	arr, ok := FieldInts(m, 3)
	assert.True(t, ok)
	assert.Equal(t, []int64{1, -2}, arr)
	_, ok = FieldInts(m, 4)
	assert.False(t, ok)

	_, ok = FieldUint(nil, 0)
	assert.False(t, ok)
}
