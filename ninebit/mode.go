// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package ninebit

import (
	"fmt"
	"strings"
)

// Mode is the parity setting of a serial link.
// Mark and Space force the parity bit to a constant 1 or 0, Odd and Even
// derive it from the data.
type Mode int

const (
	ModeNone Mode = iota
	ModeOdd
	ModeEven
	ModeMark
	ModeSpace
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeOdd:
		return "odd"
	case ModeEven:
		return "even"
	case ModeMark:
		return "mark"
	case ModeSpace:
		return "space"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Letter returns the single letter serial notation (N, O, E, M, S).
func (m Mode) Letter() string {
	switch m {
	case ModeOdd:
		return "O"
	case ModeEven:
		return "E"
	case ModeMark:
		return "M"
	case ModeSpace:
		return "S"
	default:
		return "N"
	}
}

// ParseMode accepts a mode name ("space") or its serial letter ("S").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "none":
		return ModeNone, nil
	case "o", "odd":
		return ModeOdd, nil
	case "e", "even":
		return ModeEven, nil
	case "m", "mark":
		return ModeMark, nil
	case "s", "space":
		return ModeSpace, nil
	}
	return ModeNone, fmt.Errorf("ninebit: unknown transmission mode %q", s)
}

// ParityBit returns the parity bit a UART configured with m appends to b.
// ok is false for ModeNone, where no parity bit is sent.
func ParityBit(m Mode, b byte) (bit byte, ok bool) {
	odd := byte(SetBitsCount(b) % 2)
	switch m {
	case ModeEven:
		return odd, true
	case ModeOdd:
		return 1 - odd, true
	case ModeMark:
		return 1, true
	case ModeSpace:
		return 0, true
	}
	return 0, false
}
