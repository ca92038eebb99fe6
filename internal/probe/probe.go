// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package probe runs a single request/response exchange with a multidrop
// device: the address byte goes out marked, the rest as data.
package probe

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/ffutop/ninebit-uart/ninebit"
)

// RequestLength is the size of a request built by Packet.
const RequestLength = 4

// Options describes one exchange.
type Options struct {
	Address        byte
	Command        byte
	ResponseLength int
	ReadTimeout    time.Duration
}

// Packet builds the request {address, ^address, command, ^command}.
func Packet(address, command byte) []byte {
	return []byte{address, ^address, command, ^command}
}

// Run sends the request through s and waits for the reply.
// On a read failure the partial reply is returned with the error.
func Run(s ninebit.Sender, opts Options) ([]byte, error) {
	pkt := Packet(opts.Address, opts.Command)

	if err := s.SetMarkingEnabled(true); err != nil {
		return nil, fmt.Errorf("enable marking: %w", err)
	}
	if err := s.WriteData(pkt[:1]); err != nil {
		return nil, fmt.Errorf("write address: %w", err)
	}
	if err := s.SetMarkingEnabled(false); err != nil {
		return nil, fmt.Errorf("disable marking: %w", err)
	}
	if err := s.WriteData(pkt[1:]); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	resp, err := s.ReadData(opts.ResponseLength, opts.ReadTimeout)
	if err != nil {
		slog.Error("incomplete response", "received", hex.EncodeToString(resp), "want", opts.ResponseLength, "err", err)
		return resp, fmt.Errorf("read response: %w", err)
	}
	slog.Info("RX", "response", hex.EncodeToString(resp))
	return resp, nil
}
