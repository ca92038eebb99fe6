// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package ninebit

import "fmt"

// SetBitsCount returns the number of set bits in b.
func SetBitsCount(b byte) int {
	n := 0
	for ; b > 0; b >>= 1 {
		n += int(b & 0x01)
	}
	return n
}

// SelfTest verifies the population count on one value per bit count.
// Call it once before the first transmission.
func SelfTest() error {
	samples := []byte{0x00, 0x01, 0x03, 0x07, 0x0F, 0x1F, 0x3F, 0x7F, 0xFF}
	for want, b := range samples {
		if got := SetBitsCount(b); got != want {
			return fmt.Errorf("ninebit: self test failed: SetBitsCount(0x%02X) = %d, want %d", b, got, want)
		}
	}
	return nil
}
