// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ffutop/ninebit-uart/ninebit"
)

// Config defines the global configuration structure
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Serial  SerialConfig  `mapstructure:"serial"`
	NineBit NineBitConfig `mapstructure:"ninebit"`
	Probe   ProbeConfig   `mapstructure:"probe"`
}

// LogConfig defines logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`  // Log file path
}

// SerialConfig defines the serial link settings
type SerialConfig struct {
	Driver   string        `mapstructure:"driver"` // "bugst", "gridx", "local"
	Device   string        `mapstructure:"device"`
	BaudRate int           `mapstructure:"baud_rate"`
	DataBits int           `mapstructure:"data_bits"`
	StopBits int           `mapstructure:"stop_bits"`
	Parity   string        `mapstructure:"parity"`  // initial parity, N/O/E/M/S
	Timeout  time.Duration `mapstructure:"timeout"` // poll interval of blocking reads

	// RS485 specific, gridx driver only
	RS485              bool          `mapstructure:"rs485"`
	DelayRtsBeforeSend time.Duration `mapstructure:"delay_rts_before_send"`
	DelayRtsAfterSend  time.Duration `mapstructure:"delay_rts_after_send"`
	RtsHighDuringSend  bool          `mapstructure:"rts_high_during_send"`
	RtsHighAfterSend   bool          `mapstructure:"rts_high_after_send"`
	RxDuringTx         bool          `mapstructure:"rx_during_tx"`
}

// NineBitConfig selects the sender and its parity modes
type NineBitConfig struct {
	Sender      string `mapstructure:"sender"`       // "software", "hardware", "auto"
	DefaultMode string `mapstructure:"default_mode"` // data bytes
	MarkedMode  string `mapstructure:"marked_mode"`  // address bytes
}

// ProbeConfig defines the one-shot device exchange run by the CLI
type ProbeConfig struct {
	Address        uint8         `mapstructure:"address"`
	Command        uint8         `mapstructure:"command"`
	ResponseLength int           `mapstructure:"response_length"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
}

// Modes parses the configured default and marked modes.
func (c NineBitConfig) Modes() (def, marked ninebit.Mode, err error) {
	if def, err = ninebit.ParseMode(c.DefaultMode); err != nil {
		return def, marked, fmt.Errorf("ninebit.default_mode: %w", err)
	}
	if marked, err = ninebit.ParseMode(c.MarkedMode); err != nil {
		return def, marked, fmt.Errorf("ninebit.marked_mode: %w", err)
	}
	return def, marked, nil
}

// Flags returns the command line flags understood by LoadConfig.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("ninebit", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "Configuration file path.")
	fs.StringP("serial.driver", "d", "bugst", "Serial driver (bugst, gridx, local).")
	fs.StringP("serial.device", "p", "/dev/ttyUSB0", "Serial port device name.")
	fs.IntP("serial.baud_rate", "s", 38400, "Serial port speed.")
	fs.StringP("ninebit.sender", "m", "software", "9th bit sender (software, hardware, auto).")
	fs.Uint8P("probe.address", "a", 0x06, "Device address sent with the mark bit.")
	fs.Uint8P("probe.command", "C", 0x54, "Command byte.")
	fs.IntP("probe.response_length", "n", 5, "Expected response length in bytes.")
	fs.DurationP("probe.read_timeout", "W", 2*time.Second, "Response wait time.")
	fs.StringP("log.level", "v", "info", "Log verbosity level (debug, info, warn, error).")
	fs.StringP("log.file", "L", "", "Log file name ('-' for logging to STDOUT only).")
	return fs
}

// LoadConfig loads configuration from file and flags. Flags only override
// the file when set explicitly.
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/ninebit/")
		v.AddConfigPath("$HOME/.ninebit")
		v.AddConfigPath(".")
	}

	// Set defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("serial.driver", "bugst")
	v.SetDefault("serial.device", "/dev/ttyUSB0")
	v.SetDefault("serial.baud_rate", 38400)
	v.SetDefault("serial.data_bits", 8)
	v.SetDefault("serial.stop_bits", 1)
	v.SetDefault("serial.parity", "N")
	v.SetDefault("ninebit.sender", "software")
	v.SetDefault("ninebit.default_mode", "space")
	v.SetDefault("ninebit.marked_mode", "mark")
	v.SetDefault("probe.address", 0x06)
	v.SetDefault("probe.command", 0x54)
	v.SetDefault("probe.response_length", 5)
	v.SetDefault("probe.read_timeout", 2*time.Second)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind pflags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// The configuration may come from flags alone
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate / Fixups
	if err := fixupSerial(&config.Serial); err != nil {
		return nil, err
	}
	config.NineBit.Sender = strings.ToLower(config.NineBit.Sender)
	if _, _, err := config.NineBit.Modes(); err != nil {
		return nil, err
	}
	switch config.NineBit.Sender {
	case "software", "hardware", "auto":
	default:
		return nil, fmt.Errorf("unknown sender %q", config.NineBit.Sender)
	}

	return &config, nil
}

// fixupSerial normalises parity to its N/O/E/M/S letter, the form the
// serial drivers accept.
func fixupSerial(s *SerialConfig) error {
	if s.Parity != "" {
		m, err := ninebit.ParseMode(s.Parity)
		if err != nil {
			return fmt.Errorf("serial.parity: %w", err)
		}
		s.Parity = m.Letter()
	}
	s.Driver = strings.ToLower(s.Driver)
	if s.Timeout == 0 {
		s.Timeout = 50 * time.Millisecond
	}
	return nil
}
