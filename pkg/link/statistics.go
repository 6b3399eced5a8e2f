// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Statistics counts received frames and the problems found in them
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	TotalFrames  uint64
	ValidFrames  uint64
	CRCErrors    uint64
	DecodeErrors uint64

	// frames with at least one anomaly, and per-type anomaly counts
	Anomalous uint64
	ByAnomaly map[AnomalyType]uint64

	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics starts an empty tracker
func NewStatistics() *Statistics {
	s := &Statistics{}
	s.Reset()
	return s
}

// Update records the outcome of one decoder result
func (s *Statistics) Update(frame *Frame, decodeErr error, anomalies []ValidationError) {
	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		if errors.Is(decodeErr, ErrCRCMismatch) {
			s.CRCErrors++
		} else {
			s.DecodeErrors++
		}
		return
	}
	if len(anomalies) == 0 {
		s.ValidFrames++
		return
	}
	s.Anomalous++
	for _, a := range anomalies {
		s.ByAnomaly[a.Type]++
	}
}

// Errors returns the number of frames that failed or carried anomalies
func (s *Statistics) Errors() uint64 {
	return s.CRCErrors + s.DecodeErrors + s.Anomalous
}

// CalculateRates refreshes FrameRate and ErrorRate
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

func percent(n, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

// String returns a summary table
func (s *Statistics) String() string {
	s.CalculateRates()

	var b strings.Builder
	fmt.Fprintf(&b, "=== Link statistics (%.0f seconds) ===\n", time.Since(s.StartTime).Seconds())
	fmt.Fprintf(&b, "Total Frames:    %8d\n", s.TotalFrames)
	fmt.Fprintf(&b, "Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, percent(s.ValidFrames, s.TotalFrames))
	if s.CRCErrors > 0 {
		fmt.Fprintf(&b, "CRC Errors:      %8d (%.1f%%)\n", s.CRCErrors, percent(s.CRCErrors, s.TotalFrames))
	}
	if s.DecodeErrors > 0 {
		fmt.Fprintf(&b, "Decode Errors:   %8d (%.1f%%)\n", s.DecodeErrors, percent(s.DecodeErrors, s.TotalFrames))
	}
	if s.Anomalous > 0 {
		fmt.Fprintf(&b, "Anomalous:       %8d (%.1f%%)\n", s.Anomalous, percent(s.Anomalous, s.TotalFrames))
		for t := AnomalyLengthMismatch; t <= AnomalyDecodeError; t++ {
			if n := s.ByAnomaly[t]; n > 0 {
				fmt.Fprintf(&b, "  %-17s %5d\n", t.String()+":", n)
			}
		}
	}
	fmt.Fprintf(&b, "Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	fmt.Fprintf(&b, "Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	b.WriteString("======================================\n")
	return b.String()
}

// Reset clears every counter and restarts the rate window
func (s *Statistics) Reset() {
	now := time.Now()
	*s = Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		ByAnomaly:      make(map[AnomalyType]uint64),
	}
}
