// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/zenith/pkg/link"
)

// bufferConn replays a fixed byte stream, then reports io.EOF
type bufferConn struct {
	*bytes.Reader
	written bytes.Buffer
	closed  bool
}

func (c *bufferConn) Write(p []byte) (int, error) { return c.written.Write(p) }
func (c *bufferConn) Close() error {
	c.closed = true
	return nil
}

func wire(t *testing.T, f *link.Frame) []byte {
	t.Helper()
	b, err := link.EncodeFrame(f)
	require.NoError(t, err)
	return b
}

func collect(r *linkReader) []linkEvent {
	var evs []linkEvent
	for ev := range r.Events() {
		evs = append(evs, ev)
	}
	return evs
}

func TestLinkReaderEvents(t *testing.T) {
	var stream []byte
	stream = append(stream, 0x01, link.StartByte, 0x05, link.EndByte) // truncated frame before sync
	stream = append(stream, wire(t, link.NewPong(7, 1000))...)
	bad := wire(t, link.NewPing(7))
	bad[2] ^= 0x01 // low address byte, so the CRC no longer matches
	stream = append(stream, bad...)
	stream = append(stream, wire(t, link.NewSelectProfile(7, 1))...)

	conn := &bufferConn{Reader: bytes.NewReader(stream)}
	r := newLinkReader(conn, "test", false)
	r.Start()
	evs := collect(r)

	require.Len(t, evs, 5)
	assert.True(t, evs[0].synced)
	assert.Equal(t, 1, evs[0].skipped)
	require.NotNil(t, evs[1].frame)
	assert.Equal(t, uint8(link.MsgPong), evs[1].frame.Type())
	assert.Empty(t, evs[1].anomalies)
	assert.Error(t, evs[2].err)
	require.NotNil(t, evs[3].frame)
	assert.Equal(t, uint8(link.MsgSelectProfile), evs[3].frame.Type())
	assert.True(t, evs[4].lost)
}

func TestLinkReaderSend(t *testing.T) {
	conn := &bufferConn{Reader: bytes.NewReader(nil)}
	r := newLinkReader(conn, "test", false)
	require.NoError(t, r.Send(link.NewPing(1)))

	frames, errs := link.NewDecoder().Decode(conn.written.Bytes())
	require.Empty(t, errs)
	require.Len(t, frames, 1)
	assert.Equal(t, uint8(link.MsgPing), frames[0].Type())

	r.Stop()
	r.Stop()
	assert.True(t, conn.closed)
}
