// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode sorts map keys so equal messages encode to equal bytes
var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("link: cbor enc mode: %v", err))
	}
	return em
}

// marshalMessage encodes [msgType, fields], with nil in place of an empty map
func marshalMessage(msgType uint8, fields map[int]interface{}) ([]byte, error) {
	var body interface{}
	if len(fields) > 0 {
		body = fields
	}
	return encMode.Marshal([]interface{}{uint64(msgType), body})
}

// ParseMessage decodes a CBOR message [type, fields]. Fields is nil when
// the message carries none.
func ParseMessage(data []byte) (msgType uint8, fields map[int]interface{}, err error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("empty payload")
	}

	var msg []interface{}
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return 0, nil, fmt.Errorf("decode cbor: %w", err)
	}
	if len(msg) != 2 {
		return 0, nil, fmt.Errorf("expected [type, fields], got %d elements", len(msg))
	}

	t, ok := msg[0].(uint64)
	if !ok || t > 0xFF {
		return 0, nil, fmt.Errorf("invalid message type %v", msg[0])
	}
	msgType = uint8(t)

	if msg[1] == nil {
		return msgType, nil, nil
	}
	m, ok := msg[1].(map[interface{}]interface{})
	if !ok {
		return 0, nil, fmt.Errorf("expected field map, got %T", msg[1])
	}
	fields = make(map[int]interface{}, len(m))
	for k, v := range m {
		switch key := k.(type) {
		case uint64:
			fields[int(key)] = v
		case int64:
			fields[int(key)] = v
		default:
			return 0, nil, fmt.Errorf("field key %v is not an integer", k)
		}
	}
	return msgType, fields, nil
}

// Field accessors. Each reports false when the key is absent or holds
// another CBOR type.

// FieldUint returns a non-negative integer field
func FieldUint(m map[int]interface{}, key int) (uint64, bool) {
	switch v := m[key].(type) {
	case uint64:
		return v, true
	case int64:
		if v >= 0 {
			return uint64(v), true
		}
	}
	return 0, false
}

// FieldInt returns a signed integer field
func FieldInt(m map[int]interface{}, key int) (int64, bool) {
	switch v := m[key].(type) {
	case int64:
		return v, true
	case uint64:
		if v <= 1<<63-1 {
			return int64(v), true
		}
	}
	return 0, false
}

// FieldBool returns a boolean field
func FieldBool(m map[int]interface{}, key int) (bool, bool) {
	v, ok := m[key].(bool)
	return v, ok
}

// FieldInts returns an array field whose elements are all integers
func FieldInts(m map[int]interface{}, key int) ([]int64, bool) {
	switch arr := m[key].(type) {
	case []int64:
		return arr, true
	case []uint64:
		out := make([]int64, len(arr))
		for i, v := range arr {
			if v > 1<<63-1 {
				return nil, false
			}
			out[i] = int64(v)
		}
		return out, true
	case []interface{}:
		out := make([]int64, len(arr))
		for i, e := range arr {
			switch v := e.(type) {
			case int64:
				out[i] = v
			case uint64:
				if v > 1<<63-1 {
					return nil, false
				}
				out[i] = int64(v)
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}
