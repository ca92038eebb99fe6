// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package ninebit emulates 9-bit UART addressing on 8-bit serial links.
//
// Multidrop protocols flag address bytes with a 9th bit set to 1 (mark) and
// data bytes with it cleared (space). HardwareSender relies on a link that
// applies Mark/Space parity itself. SoftwareSender picks Odd or Even parity per
// byte so that the computed parity bit carries the wanted value.
//
// A sender and its link must be used from one goroutine at a time. Nothing in
// this package locks; serializing access is up to the caller.
package ninebit

import (
	"fmt"
	"time"

	"k8s.io/utils/clock"
)

// Sender transmits bytes with a mark/space 9th bit and reads replies.
type Sender interface {
	SetLink(l Link)
	Link() Link

	SetDefaultMode(m Mode)
	DefaultMode() Mode
	SetMarkedMode(m Mode)
	MarkedMode() Mode

	// SetMarkingEnabled switches between the address (true) and data phase.
	SetMarkingEnabled(enabled bool) error
	MarkingEnabled() bool

	// WriteData sends all of p or fails.
	WriteData(p []byte) error
	// ReadData collects exactly size bytes within timeout. On failure the
	// bytes collected so far are returned with a *ReadError.
	ReadData(size int, timeout time.Duration) ([]byte, error)
}

// Config is handed to a sender constructor.
type Config struct {
	Link        Link
	DefaultMode Mode // data phase, normally ModeSpace
	MarkedMode  Mode // address phase, normally ModeMark
	// Clock measures the read deadline. Defaults to the real clock.
	Clock clock.PassiveClock
}

// NewConfig returns a Config with the usual Space/Mark modes.
func NewConfig(link Link) Config {
	return Config{
		Link:        link,
		DefaultMode: ModeSpace,
		MarkedMode:  ModeMark,
	}
}

// core holds the state shared by both senders.
type core struct {
	link           Link
	defaultMode    Mode
	markedMode     Mode
	markingEnabled bool
	clock          clock.PassiveClock
}

func newCore(cfg Config) core {
	c := core{
		link:        cfg.Link,
		defaultMode: cfg.DefaultMode,
		markedMode:  cfg.MarkedMode,
		clock:       cfg.Clock,
	}
	if c.clock == nil {
		c.clock = clock.RealClock{}
	}
	return c
}

func (c *core) SetLink(l Link) { c.link = l }

func (c *core) Link() Link { return c.link }

func (c *core) SetDefaultMode(m Mode) { c.defaultMode = m }

func (c *core) DefaultMode() Mode { return c.defaultMode }

func (c *core) SetMarkedMode(m Mode) { c.markedMode = m }

func (c *core) MarkedMode() Mode { return c.markedMode }

func (c *core) MarkingEnabled() bool { return c.markingEnabled }

// SetMarkingEnabled only records the phase.
func (c *core) SetMarkingEnabled(enabled bool) error {
	if enabled == c.markingEnabled {
		return nil
	}
	c.markingEnabled = enabled
	return nil
}

// activeMode is the mode the current phase asks for.
func (c *core) activeMode() Mode {
	if c.markingEnabled {
		return c.markedMode
	}
	return c.defaultMode
}

func (c *core) ReadData(size int, timeout time.Duration) ([]byte, error) {
	if c.link == nil {
		return nil, ErrNoLink
	}
	if size <= 0 {
		return []byte{}, nil
	}

	start := c.clock.Now()
	buf := make([]byte, size)
	n := 0

	for {
		if c.link.Buffered() == 0 {
			remaining := timeout - c.clock.Since(start)
			if remaining <= 0 {
				return buf[:n], &ReadError{Kind: ErrReadTimeout, Got: n, Want: size}
			}
			ready, err := c.link.WaitReadable(remaining)
			if err != nil {
				return buf[:n], &ReadError{Kind: ErrRead, Cause: err, Got: n, Want: size}
			}
			if !ready {
				return buf[:n], &ReadError{Kind: ErrReadTimeout, Got: n, Want: size}
			}
		}

		want := min(c.link.Buffered(), size-n)
		if want > 0 {
			got, err := c.link.Read(buf[n : n+want])
			if err != nil {
				return buf[:n], &ReadError{Kind: ErrRead, Cause: err, Got: n, Want: size}
			}
			n += got
		}

		if n == size {
			return buf, nil
		}
		if c.clock.Since(start) >= timeout {
			return buf[:n], &ReadError{Kind: ErrReadTimeout, Got: n, Want: size}
		}
	}
}

func (c *core) setParity(m Mode) error {
	if err := c.link.SetParity(m); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConfiguration, m, err)
	}
	return nil
}
