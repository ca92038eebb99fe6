// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/ffutop/ninebit-uart/internal/config"
	"github.com/ffutop/ninebit-uart/internal/probe"
	"github.com/ffutop/ninebit-uart/ninebit"
	"github.com/ffutop/ninebit-uart/transport"
	"github.com/ffutop/ninebit-uart/transport/bugst"
	"github.com/ffutop/ninebit-uart/transport/gridx"
	"github.com/ffutop/ninebit-uart/transport/local"
)

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("Failed to parse flags: %v\n", err)
		os.Exit(2)
	}
	configFile, _ := flags.GetString("config")

	// Load Configuration
	cfg, err := config.LoadConfig(configFile, flags)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := ninebit.SelfTest(); err != nil {
		slog.Error("Self test failed", "err", err)
		os.Exit(1)
	}

	port, err := openPort(cfg)
	if err != nil {
		slog.Error("Failed to open serial link", "driver", cfg.Serial.Driver, "device", cfg.Serial.Device, "err", err)
		os.Exit(1)
	}
	defer port.Close()

	sender, err := newSender(cfg.NineBit, port)
	if err != nil {
		slog.Error("Failed to create sender", "err", err)
		port.Close()
		os.Exit(1)
	}

	_, err = probe.Run(sender, probe.Options{
		Address:        cfg.Probe.Address,
		Command:        cfg.Probe.Command,
		ResponseLength: cfg.Probe.ResponseLength,
		ReadTimeout:    cfg.Probe.ReadTimeout,
	})
	if err != nil {
		slog.Error("Probe failed", "address", cfg.Probe.Address, "err", err)
		port.Close()
		os.Exit(1)
	}
	slog.Info("Complete")
}

func openPort(cfg *config.Config) (transport.Port, error) {
	switch cfg.Serial.Driver {
	case "bugst":
		return bugst.Open(cfg.Serial)
	case "gridx":
		return gridx.Open(cfg.Serial)
	case "local":
		slog.Info("Using in-process simulated device", "address", cfg.Probe.Address)
		reply := deviceReply(cfg.Probe)
		return local.New(
			local.WithMarking(true),
			local.WithResponder(local.Device(cfg.Probe.Address, probe.RequestLength, reply)),
		), nil
	default:
		return nil, fmt.Errorf("unknown serial driver %q", cfg.Serial.Driver)
	}
}

// deviceReply is what the simulated device answers: address and command
// echoed, followed by zeroed status bytes up to the expected length.
func deviceReply(cfg config.ProbeConfig) []byte {
	if cfg.ResponseLength <= 0 {
		return nil
	}
	reply := make([]byte, cfg.ResponseLength)
	copy(reply, []byte{cfg.Address, cfg.Command})
	return reply
}

func newSender(cfg config.NineBitConfig, link ninebit.Link) (ninebit.Sender, error) {
	def, marked, err := cfg.Modes()
	if err != nil {
		return nil, err
	}
	nc := ninebit.NewConfig(link)
	nc.DefaultMode = def
	nc.MarkedMode = marked

	kind := cfg.Sender
	if kind == "auto" {
		kind = "software"
		if ninebit.SupportsMarking(link) {
			kind = "hardware"
		}
	}
	slog.Info("9th bit sender selected", "sender", kind, "defaultMode", def, "markedMode", marked)

	switch kind {
	case "hardware":
		if !ninebit.SupportsMarking(link) {
			slog.Warn("Link has no native mark/space parity, marking will have no effect")
		}
		return ninebit.NewHardwareSender(nc), nil
	case "software":
		return ninebit.NewSoftwareSender(nc), nil
	default:
		return nil, fmt.Errorf("unknown sender %q", cfg.Sender)
	}
}

func setupLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.File != "" && cfg.File != "-" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("Failed to open log file, falling back to stdout: %v\n", err)
			handler = slog.NewTextHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(f, opts)
		}
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
