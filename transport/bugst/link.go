// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package bugst drives serial ports through go.bug.st/serial, which can
// switch parity on an open port, Mark and Space included.
package bugst

import (
	"fmt"
	"log/slog"
	"time"

	"go.bug.st/serial"

	"github.com/ffutop/ninebit-uart/internal/config"
	"github.com/ffutop/ninebit-uart/ninebit"
	"github.com/ffutop/ninebit-uart/transport"
)

// rxChunk bounds a single device read.
const rxChunk = 256

// Port is the subset of serial.Port the link uses.
type Port interface {
	SetMode(mode *serial.Mode) error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Link implements ninebit.Link on a go.bug.st/serial port.
type Link struct {
	port Port
	mode serial.Mode
	rx   transport.RxBuffer
	buf  []byte
}

var _ transport.Port = (*Link)(nil)

// Open opens the device described by cfg.
func Open(cfg config.SerialConfig) (*Link, error) {
	mode, err := modeFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(cfg.Device, &mode)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", cfg.Device, err)
	}
	slog.Info("serial port opened", "driver", "bugst", "device", cfg.Device, "baudRate", mode.BaudRate, "parity", cfg.Parity)
	return New(port, mode), nil
}

// New wraps an already opened port configured with mode.
func New(port Port, mode serial.Mode) *Link {
	return &Link{port: port, mode: mode, buf: make([]byte, rxChunk)}
}

func (l *Link) Write(p []byte) (int, error) {
	return l.port.Write(p)
}

func (l *Link) Read(p []byte) (int, error) {
	return l.rx.Read(p), nil
}

func (l *Link) Buffered() int {
	return l.rx.Len()
}

// WaitReadable blocks in a device read bounded by timeout.
// go.bug.st/serial reports a read timeout as (0, nil).
func (l *Link) WaitReadable(timeout time.Duration) (bool, error) {
	if l.rx.Len() > 0 {
		return true, nil
	}
	if timeout <= 0 {
		return false, nil
	}
	if err := l.port.SetReadTimeout(timeout); err != nil {
		return false, fmt.Errorf("set read timeout: %w", err)
	}
	n, err := l.port.Read(l.buf)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	l.rx.Fill(l.buf[:n])
	return true, nil
}

func (l *Link) Parity() ninebit.Mode {
	return toMode(l.mode.Parity)
}

func (l *Link) SetParity(m ninebit.Mode) error {
	p, err := toParity(m)
	if err != nil {
		return err
	}
	mode := l.mode
	mode.Parity = p
	if err := l.port.SetMode(&mode); err != nil {
		return err
	}
	l.mode = mode
	return nil
}

// SupportsMarking reports whether this platform applies Mark/Space parity.
func (l *Link) SupportsMarking() bool {
	return nativeMarking
}

func (l *Link) Close() error {
	l.rx.Reset()
	return l.port.Close()
}

func modeFromConfig(cfg config.SerialConfig) (serial.Mode, error) {
	mode := serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
	}
	switch cfg.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return mode, fmt.Errorf("unsupported stop bits: %d", cfg.StopBits)
	}
	m := ninebit.ModeNone
	if cfg.Parity != "" {
		var err error
		if m, err = ninebit.ParseMode(cfg.Parity); err != nil {
			return mode, err
		}
	}
	p, err := toParity(m)
	if err != nil {
		return mode, err
	}
	mode.Parity = p
	return mode, nil
}

func toParity(m ninebit.Mode) (serial.Parity, error) {
	switch m {
	case ninebit.ModeNone:
		return serial.NoParity, nil
	case ninebit.ModeOdd:
		return serial.OddParity, nil
	case ninebit.ModeEven:
		return serial.EvenParity, nil
	case ninebit.ModeMark:
		return serial.MarkParity, nil
	case ninebit.ModeSpace:
		return serial.SpaceParity, nil
	}
	return serial.NoParity, fmt.Errorf("bugst: unsupported parity %s", m)
}

func toMode(p serial.Parity) ninebit.Mode {
	switch p {
	case serial.OddParity:
		return ninebit.ModeOdd
	case serial.EvenParity:
		return ninebit.ModeEven
	case serial.MarkParity:
		return ninebit.ModeMark
	case serial.SpaceParity:
		return ninebit.ModeSpace
	}
	return ninebit.ModeNone
}
