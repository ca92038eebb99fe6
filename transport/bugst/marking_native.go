// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

//go:build linux || windows

package bugst

// Linux (CMSPAR) and Windows apply Mark/Space parity in the UART.
const nativeMarking = true
