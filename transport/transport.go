// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package transport

import (
	"errors"
	"io"

	"github.com/ffutop/ninebit-uart/ninebit"
)

var ErrClosed = errors.New("transport: link closed")

// Port is an opened serial link. Senders only borrow the ninebit.Link part;
// whoever opened the Port closes it.
type Port interface {
	ninebit.Link
	io.Closer
}

// RxBuffer keeps bytes a driver has already pulled from the device but the
// sender has not consumed yet. Drivers whose reads block use it to offer the
// non-blocking Read/Buffered pair of ninebit.Link.
type RxBuffer struct {
	pending []byte
}

// Fill appends p to the pending bytes.
func (b *RxBuffer) Fill(p []byte) {
	b.pending = append(b.pending, p...)
}

// Len returns the number of pending bytes.
func (b *RxBuffer) Len() int {
	return len(b.pending)
}

// Read moves up to len(p) pending bytes into p. It never blocks.
func (b *RxBuffer) Read(p []byte) int {
	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	if len(b.pending) == 0 {
		b.pending = nil
	}
	return n
}

// Reset drops all pending bytes.
func (b *RxBuffer) Reset() {
	b.pending = nil
}
