// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package ninebit

import "time"

// Link is the serial connection a sender transmits over.
// Senders borrow it: opening and closing stay with the caller.
type Link interface {
	// Write may accept fewer bytes than given.
	Write(p []byte) (int, error)
	// Read returns at most len(p) already buffered bytes and does not block.
	Read(p []byte) (int, error)
	// Buffered returns the number of bytes Read can return without blocking.
	Buffered() int
	// WaitReadable blocks up to timeout for data. It returns false on timeout.
	WaitReadable(timeout time.Duration) (bool, error)
	// Parity returns the currently configured parity mode.
	Parity() Mode
	// SetParity reconfigures the link. On error the previous mode stays active.
	SetParity(m Mode) error
}

// MarkingCapable is implemented by links that carry the 9th bit natively,
// i.e. apply Mark and Space parity in hardware.
type MarkingCapable interface {
	SupportsMarking() bool
}

// SupportsMarking reports whether l carries Mark/Space parity natively.
func SupportsMarking(l Link) bool {
	mc, ok := l.(MarkingCapable)
	return ok && mc.SupportsMarking()
}
