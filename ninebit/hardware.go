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

// HardwareSender relies on the link to apply Mark/Space parity itself.
// The link is reconfigured on phase changes, never per byte.
//
// On links that do not implement MarkingCapable the phase has no effect on
// transmission; use SoftwareSender there.
type HardwareSender struct {
	core
}

var _ Sender = (*HardwareSender)(nil)

func NewHardwareSender(cfg Config) *HardwareSender {
	return &HardwareSender{core: newCore(cfg)}
}

// SetMarkingEnabled records the phase and pushes its mode to the link.
// The push is repeated on every call so a rejected configuration can be
// retried with the same argument. On rejection the phase stays recorded and
// the link keeps its previous mode.
func (s *HardwareSender) SetMarkingEnabled(enabled bool) error {
	if err := s.core.SetMarkingEnabled(enabled); err != nil {
		return err
	}
	if s.link == nil {
		return ErrNoLink
	}
	if !SupportsMarking(s.link) {
		return nil
	}
	return s.setParity(s.activeMode())
}

func (s *HardwareSender) WriteData(p []byte) error {
	if s.link == nil {
		return ErrNoLink
	}

	total := 0
	for total < len(p) {
		n, err := s.link.Write(p[total:])
		if err != nil {
			return fmt.Errorf("%w after %d of %d bytes: %w", ErrWrite, total, len(p), err)
		}
		if n <= 0 {
			return fmt.Errorf("%w after %d of %d bytes: %w", ErrWrite, total, len(p), io.ErrNoProgress)
		}
		total += n
	}

	slog.Debug("TX", "data", hex.EncodeToString(p), "marking", s.markingEnabled)
	return nil
}
