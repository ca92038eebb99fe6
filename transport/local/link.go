// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package local provides an in-process link. Every transmitted byte is
// recorded together with the 9th bit the configured parity would put on the
// wire, and replies come from a Responder instead of a device.
package local

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ffutop/ninebit-uart/ninebit"
	"github.com/ffutop/ninebit-uart/transport"
)

// Frame is one transmitted character.
type Frame struct {
	Data   byte
	Parity ninebit.Mode
	// Bit9 is the parity bit sent after Data, valid when HasBit9 is set.
	Bit9    byte
	HasBit9 bool
}

// Responder is called for every transmitted frame and returns the bytes the
// simulated device answers with, if any.
type Responder func(f Frame) []byte

// Echo answers every frame with its data byte, like a loopback plug.
func Echo(f Frame) []byte {
	return []byte{f.Data}
}

type Option func(*Link)

// WithResponder sets the simulated device.
func WithResponder(r Responder) Option {
	return func(l *Link) { l.responder = r }
}

// WithMarking makes the link report native Mark/Space support.
func WithMarking(enabled bool) Option {
	return func(l *Link) { l.marking = enabled }
}

// WithRejectedModes makes SetParity fail for the given modes.
func WithRejectedModes(modes ...ninebit.Mode) Option {
	return func(l *Link) {
		for _, m := range modes {
			l.rejected[m] = true
		}
	}
}

// WithParity sets the initial parity.
func WithParity(m ninebit.Mode) Option {
	return func(l *Link) { l.parity = m }
}

// Link is an in-memory ninebit.Link.
type Link struct {
	parity    ninebit.Mode
	marking   bool
	rejected  map[ninebit.Mode]bool
	responder Responder

	frames  []Frame
	reconfs int
	rx      transport.RxBuffer
	closed  bool
}

var _ transport.Port = (*Link)(nil)

func New(opts ...Option) *Link {
	l := &Link{rejected: map[ninebit.Mode]bool{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Link) Write(p []byte) (int, error) {
	if l.closed {
		return 0, transport.ErrClosed
	}
	for _, b := range p {
		f := Frame{Data: b, Parity: l.parity}
		f.Bit9, f.HasBit9 = ninebit.ParityBit(l.parity, b)
		l.frames = append(l.frames, f)
		if l.responder != nil {
			l.rx.Fill(l.responder(f))
		}
	}
	return len(p), nil
}

func (l *Link) Read(p []byte) (int, error) {
	if l.closed {
		return 0, transport.ErrClosed
	}
	return l.rx.Read(p), nil
}

func (l *Link) Buffered() int {
	return l.rx.Len()
}

// WaitReadable never sleeps: replies are produced synchronously by Write,
// so nothing can arrive while waiting.
func (l *Link) WaitReadable(timeout time.Duration) (bool, error) {
	if l.closed {
		return false, transport.ErrClosed
	}
	return l.rx.Len() > 0, nil
}

func (l *Link) Parity() ninebit.Mode {
	return l.parity
}

func (l *Link) SetParity(m ninebit.Mode) error {
	if l.rejected[m] {
		return fmt.Errorf("local: parity %s rejected", m)
	}
	l.reconfs++
	l.parity = m
	slog.Debug("local: parity changed", "parity", m)
	return nil
}

func (l *Link) SupportsMarking() bool {
	return l.marking
}

func (l *Link) Close() error {
	l.closed = true
	l.rx.Reset()
	return nil
}

// Frames returns the characters transmitted so far.
func (l *Link) Frames() []Frame {
	return l.frames
}

// Reconfigurations returns how many parity changes were applied.
func (l *Link) Reconfigurations() int {
	return l.reconfs
}
