// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package ninebit_test

import (
	"errors"
	"time"

	clocktesting "k8s.io/utils/clock/testing"

	"github.com/ffutop/ninebit-uart/ninebit"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type arrival struct {
	at   time.Duration
	data []byte
}

type sentByte struct {
	b    byte
	mode ninebit.Mode
}

// fakeLink is a scripted link driven by a fake clock. Bytes in arrivals show
// up once the clock passes their offset; WaitReadable advances the clock.
type fakeLink struct {
	clk      *clocktesting.FakePassiveClock
	arrivals []arrival
	rx       []byte

	parity    ninebit.Mode
	reject    map[ninebit.Mode]bool
	setCalls  []ninebit.Mode
	marking   bool
	sent      []sentByte
	writes    [][]byte
	maxWrite  int   // 0 means unlimited
	zeroWrite bool  // accept nothing without error
	writeErr  error // returned from call number failWrite
	failWrite int   // 1-based, 0 never

	readErr  error
	failRead int // 1-based, 0 never
	reads    int
	waitErr  error
}

func newFakeLink(arrivals ...arrival) *fakeLink {
	return &fakeLink{
		clk:      clocktesting.NewFakePassiveClock(epoch),
		arrivals: arrivals,
		reject:   map[ninebit.Mode]bool{},
	}
}

func (f *fakeLink) elapsed() time.Duration { return f.clk.Since(epoch) }

func (f *fakeLink) deliver() {
	for len(f.arrivals) > 0 && f.arrivals[0].at <= f.elapsed() {
		f.rx = append(f.rx, f.arrivals[0].data...)
		f.arrivals = f.arrivals[1:]
	}
}

func (f *fakeLink) Write(p []byte) (int, error) {
	f.writes = append(f.writes, append([]byte(nil), p...))
	if f.failWrite > 0 && len(f.writes) == f.failWrite {
		return 0, f.writeErr
	}
	if f.zeroWrite {
		return 0, nil
	}
	n := len(p)
	if f.maxWrite > 0 && n > f.maxWrite {
		n = f.maxWrite
	}
	for _, b := range p[:n] {
		f.sent = append(f.sent, sentByte{b: b, mode: f.parity})
	}
	return n, nil
}

func (f *fakeLink) Read(p []byte) (int, error) {
	f.reads++
	if f.failRead > 0 && f.reads == f.failRead {
		return 0, f.readErr
	}
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	return n, nil
}

func (f *fakeLink) Buffered() int {
	f.deliver()
	return len(f.rx)
}

func (f *fakeLink) WaitReadable(timeout time.Duration) (bool, error) {
	if f.waitErr != nil {
		return false, f.waitErr
	}
	f.deliver()
	if len(f.rx) > 0 {
		return true, nil
	}
	now := f.elapsed()
	if len(f.arrivals) == 0 || f.arrivals[0].at-now > timeout {
		f.clk.SetTime(epoch.Add(now + timeout))
		return false, nil
	}
	f.clk.SetTime(epoch.Add(f.arrivals[0].at))
	f.deliver()
	return true, nil
}

func (f *fakeLink) Parity() ninebit.Mode { return f.parity }

func (f *fakeLink) SetParity(m ninebit.Mode) error {
	f.setCalls = append(f.setCalls, m)
	if f.reject[m] {
		return errors.New("fake: parity not supported")
	}
	f.parity = m
	return nil
}

func (f *fakeLink) SupportsMarking() bool { return f.marking }

func (f *fakeLink) sentBytes() []byte {
	out := make([]byte, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.b)
	}
	return out
}

func (f *fakeLink) sentModes() []ninebit.Mode {
	out := make([]ninebit.Mode, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.mode)
	}
	return out
}

func newConfig(link *fakeLink) ninebit.Config {
	cfg := ninebit.NewConfig(link)
	cfg.Clock = link.clk
	return cfg
}
