// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package ninebit

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
)

// SoftwareSender emulates the 9th bit on links without Mark/Space support.
//
// In the address phase every byte is sent with the parity (Odd or Even) that
// makes the UART append a 1. In the data phase bytes go out with DefaultMode
// as configured; it is expected to be a fixed mode such as ModeSpace and is
// not checked.
//
// SetMarkingEnabled is bookkeeping only, the link is reconfigured lazily by
// WriteData.
type SoftwareSender struct {
	core
}

var _ Sender = (*SoftwareSender)(nil)

func NewSoftwareSender(cfg Config) *SoftwareSender {
	return &SoftwareSender{core: newCore(cfg)}
}

// NeededMode returns the parity mode b has to be sent with in the current phase.
func (s *SoftwareSender) NeededMode(b byte) Mode {
	if !s.markingEnabled {
		return s.defaultMode
	}
	// Even parity sends popcount%2, Odd sends its complement: both yield 1 here.
	if SetBitsCount(b)%2 != 0 {
		return ModeEven
	}
	return ModeOdd
}

// UpdateParityMode reconfigures the link for b unless it is already set up.
func (s *SoftwareSender) UpdateParityMode(b byte) error {
	if s.link == nil {
		return ErrNoLink
	}
	m := s.NeededMode(b)
	if s.link.Parity() == m {
		return nil
	}
	slog.Debug("updating parity", "from", s.link.Parity(), "to", m)
	return s.setParity(m)
}

func (s *SoftwareSender) WriteData(p []byte) error {
	if s.link == nil {
		return ErrNoLink
	}

	for i, b := range p {
		if err := s.UpdateParityMode(b); err != nil {
			return fmt.Errorf("byte %d of %d: %w", i, len(p), err)
		}
		n, err := s.link.Write([]byte{b})
		if err != nil {
			return fmt.Errorf("%w at byte %d of %d: %w", ErrWrite, i, len(p), err)
		}
		if n != 1 {
			return fmt.Errorf("%w at byte %d of %d: %w", ErrWrite, i, len(p), io.ErrNoProgress)
		}
	}

	slog.Debug("TX", "data", hex.EncodeToString(p), "marking", s.markingEnabled)
	return nil
}
