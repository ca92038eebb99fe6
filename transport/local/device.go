// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package local

// Device simulates a multidrop slave. It collects requestLen frames and
// answers with reply when the first one carried address with the 9th bit set
// and all others were data frames. Any other request is ignored.
func Device(address byte, requestLen int, reply []byte) Responder {
	var got []Frame
	return func(f Frame) []byte {
		got = append(got, f)
		if len(got) < requestLen {
			return nil
		}
		req := got
		got = nil
		if req[0].Data != address || !req[0].HasBit9 || req[0].Bit9 != 1 {
			return nil
		}
		for _, d := range req[1:] {
			if !d.HasBit9 || d.Bit9 != 0 {
				return nil
			}
		}
		return reply
	}
}
