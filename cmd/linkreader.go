// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/Thermoquad/zenith/pkg/link"
)

// linkEvent is one thing that happened on the link
type linkEvent struct {
	frame     *link.Frame
	anomalies []link.ValidationError
	err       error // decode error, only reported once synchronized

	synced  bool // first frame since connect
	skipped int  // bytes dropped before the first frame

	lost        bool
	reconnected string // connection info after a successful redial
}

// maxReadErrors consecutive serial read errors count as a lost connection
const maxReadErrors = 10

// linkReader decodes frames from a connection on its own goroutine and,
// when asked to, redials with exponential backoff after the connection drops.
type linkReader struct {
	mu   sync.RWMutex
	conn Connection
	info string

	reconnect bool
	events    chan linkEvent
	done      chan struct{}
	stopOnce  sync.Once
}

func newLinkReader(conn Connection, info string, reconnect bool) *linkReader {
	return &linkReader{
		conn:      conn,
		info:      info,
		reconnect: reconnect,
		events:    make(chan linkEvent, 64),
		done:      make(chan struct{}),
	}
}

// Events is closed when the reader stops
func (r *linkReader) Events() <-chan linkEvent { return r.events }

func (r *linkReader) Start() { go r.loop() }

// Stop ends the reader and closes the current connection
func (r *linkReader) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		if c := r.getConn(); c != nil {
			c.Close()
		}
	})
}

// Send writes a frame to the current connection
func (r *linkReader) Send(f *link.Frame) error {
	return sendFrame(r.getConn(), f)
}

func (r *linkReader) getConn() Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn
}

func (r *linkReader) setConn(conn Connection, info string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = conn
	r.info = info
}

func (r *linkReader) stopping() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *linkReader) emit(ev linkEvent) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

func (r *linkReader) loop() {
	defer close(r.events)
	for {
		if !r.readFrom(r.getConn()) {
			return
		}
		logger.Warn("link lost", "conn", r.info)
		if !r.emit(linkEvent{lost: true}) || !r.reconnect || !r.redial() {
			return
		}
	}
}

// readFrom returns true when the connection was lost and false on shutdown
func (r *linkReader) readFrom(conn Connection) bool {
	decoder := link.NewDecoder()
	synced := false
	skipped := 0
	readErrors := 0
	buf := make([]byte, link.MaxFrameSize)

	for {
		if r.stopping() {
			return false
		}
		n, err := conn.Read(buf)
		if err != nil {
			if r.stopping() {
				return false
			}
			if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) {
				return true
			}
			readErrors++
			if readErrors >= maxReadErrors {
				return true
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		readErrors = 0

		for _, b := range buf[:n] {
			frame, decodeErr := decoder.DecodeByte(b)
			switch {
			case decodeErr != nil:
				if !synced {
					skipped++
					continue
				}
				logger.Debug("frame dropped", "err", decodeErr)
				if !r.emit(linkEvent{err: decodeErr}) {
					return false
				}
			case frame != nil:
				if !synced {
					synced = true
					if !r.emit(linkEvent{synced: true, skipped: skipped}) {
						return false
					}
				}
				if !r.emit(linkEvent{frame: frame, anomalies: link.ValidateFrame(frame)}) {
					return false
				}
			}
		}
	}
}

func (r *linkReader) redial() bool {
	if c := r.getConn(); c != nil {
		c.Close()
	}

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-r.done:
			return false
		case <-time.After(backoff):
		}

		conn, info, err := OpenConnection()
		if err == nil {
			r.setConn(conn, info)
			if r.stopping() {
				conn.Close()
				return false
			}
			logger.Info("link reconnected", "conn", info)
			return r.emit(linkEvent{reconnected: info})
		}
		logger.Debug("redial failed", "err", err, "retry", backoff)

		backoff = min(backoff*2, maxBackoff)
	}
}
