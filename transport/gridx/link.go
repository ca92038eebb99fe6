// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package gridx drives serial ports through github.com/grid-x/serial.
//
// The library fixes parity at open time and knows only N, O and E, so a
// parity change reopens the port and Mark/Space are rejected. It is usable
// with SoftwareSender when the data phase runs at Odd, Even or None, and
// brings RS-485 RTS control for multidrop buses.
package gridx

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/grid-x/serial"

	"github.com/ffutop/ninebit-uart/internal/config"
	"github.com/ffutop/ninebit-uart/ninebit"
	"github.com/ffutop/ninebit-uart/transport"
)

const (
	// Default poll interval of a blocking device read
	serialTimeout = 50 * time.Millisecond

	rxChunk = 256
)

var ErrUnsupportedParity = errors.New("gridx: unsupported parity")

type openFunc func(c *serial.Config) (io.ReadWriteCloser, error)

func openSerial(c *serial.Config) (io.ReadWriteCloser, error) {
	p, err := serial.Open(c)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Link implements ninebit.Link on a grid-x/serial port.
type Link struct {
	// Serial port configuration.
	cfg serial.Config

	open openFunc
	// port is platform-dependent data structure for serial port.
	port io.ReadWriteCloser
	rx   transport.RxBuffer
	buf  []byte
	now  func() time.Time
}

var _ transport.Port = (*Link)(nil)

// Open opens the device described by cfg.
func Open(cfg config.SerialConfig) (*Link, error) {
	l := newLink(configFromSerial(cfg), openSerial)
	if err := l.connect(); err != nil {
		return nil, err
	}
	slog.Info("serial port opened", "driver", "gridx", "device", l.cfg.Address, "baudRate", l.cfg.BaudRate, "parity", l.cfg.Parity, "rs485", l.cfg.RS485.Enabled)
	return l, nil
}

func newLink(c serial.Config, open openFunc) *Link {
	if c.Timeout <= 0 {
		c.Timeout = serialTimeout
	}
	if c.Parity == "" {
		c.Parity = "N"
	}
	return &Link{cfg: c, open: open, buf: make([]byte, rxChunk), now: time.Now}
}

func configFromSerial(cfg config.SerialConfig) serial.Config {
	c := serial.Config{
		Address:  cfg.Device,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.Timeout,
	}
	if cfg.RS485 {
		c.RS485.Enabled = true
		c.RS485.DelayRtsBeforeSend = cfg.DelayRtsBeforeSend
		c.RS485.DelayRtsAfterSend = cfg.DelayRtsAfterSend
		c.RS485.RtsHighDuringSend = cfg.RtsHighDuringSend
		c.RS485.RtsHighAfterSend = cfg.RtsHighAfterSend
		c.RS485.RxDuringTx = cfg.RxDuringTx
	}
	return c
}

// connect opens the port if it is not open.
func (l *Link) connect() error {
	if l.port == nil {
		port, err := l.open(&l.cfg)
		if err != nil {
			return fmt.Errorf("could not open %s: %w", l.cfg.Address, err)
		}
		l.port = port
	}
	return nil
}

// close closes the port if it is open.
func (l *Link) close() (err error) {
	if l.port != nil {
		err = l.port.Close()
		l.port = nil
	}
	return
}

func (l *Link) Write(p []byte) (int, error) {
	if err := l.connect(); err != nil {
		return 0, err
	}
	return l.port.Write(p)
}

func (l *Link) Read(p []byte) (int, error) {
	return l.rx.Read(p), nil
}

func (l *Link) Buffered() int {
	return l.rx.Len()
}

// WaitReadable polls the device, each read bounded by the port timeout,
// until data arrives or timeout has passed.
func (l *Link) WaitReadable(timeout time.Duration) (bool, error) {
	if l.rx.Len() > 0 {
		return true, nil
	}
	if err := l.connect(); err != nil {
		return false, err
	}
	deadline := l.now().Add(timeout)
	for l.now().Before(deadline) {
		n, err := l.port.Read(l.buf)
		if n > 0 {
			l.rx.Fill(l.buf[:n])
			return true, nil
		}
		if err != nil && !errors.Is(err, serial.ErrTimeout) {
			return false, err
		}
	}
	return false, nil
}

func (l *Link) Parity() ninebit.Mode {
	m, err := ninebit.ParseMode(l.cfg.Parity)
	if err != nil {
		return ninebit.ModeNone
	}
	return m
}

// SetParity reopens the port with the new parity. Bytes already buffered
// by the driver are kept.
func (l *Link) SetParity(m ninebit.Mode) error {
	switch m {
	case ninebit.ModeNone, ninebit.ModeOdd, ninebit.ModeEven:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedParity, m)
	}

	prev := l.cfg.Parity
	if err := l.close(); err != nil {
		slog.Debug("gridx: close before reconfiguration failed", "device", l.cfg.Address, "err", err)
	}
	l.cfg.Parity = m.Letter()
	if err := l.connect(); err != nil {
		l.cfg.Parity = prev
		if rerr := l.connect(); rerr != nil {
			slog.Error("gridx: could not restore previous parity", "device", l.cfg.Address, "parity", prev, "err", rerr)
		}
		return err
	}
	return nil
}

// SupportsMarking is always false: grid-x/serial has no Mark/Space parity.
func (l *Link) SupportsMarking() bool {
	return false
}

func (l *Link) Close() error {
	l.rx.Reset()
	return l.close()
}
