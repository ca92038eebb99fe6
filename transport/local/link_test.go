// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.
package local

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ffutop/ninebit-uart/ninebit"
	"github.com/ffutop/ninebit-uart/transport"
)

func TestLink_EchoAndFrames(t *testing.T) {
	l := New(WithResponder(Echo), WithParity(ninebit.ModeSpace))

	if ready, _ := l.WaitReadable(time.Second); ready {
		t.Fatal("WaitReadable() = true on an idle link")
	}
	if n, err := l.Write([]byte{0x06, 0xF9}); n != 2 || err != nil {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if ready, _ := l.WaitReadable(time.Second); !ready || l.Buffered() != 2 {
		t.Fatalf("echo not buffered, Buffered() = %d", l.Buffered())
	}

	p := make([]byte, 2)
	if n, _ := l.Read(p); n != 2 || !bytes.Equal(p, []byte{0x06, 0xF9}) {
		t.Errorf("Read() = %d %X", n, p)
	}

	frames := l.Frames()
	if len(frames) != 2 {
		t.Fatalf("Frames() = %d, want 2", len(frames))
	}
	for _, f := range frames {
		if f.Parity != ninebit.ModeSpace || !f.HasBit9 || f.Bit9 != 0 {
			t.Errorf("frame %+v, want space with bit9 0", f)
		}
	}
}

func TestLink_Bit9FollowsParity(t *testing.T) {
	l := New()
	tests := []struct {
		mode    ninebit.Mode
		b       byte
		bit9    byte
		hasBit9 bool
	}{
		{ninebit.ModeNone, 0x01, 0, false},
		{ninebit.ModeOdd, 0x06, 1, true},
		{ninebit.ModeEven, 0x07, 1, true},
		{ninebit.ModeMark, 0x00, 1, true},
	}
	for i, tt := range tests {
		if err := l.SetParity(tt.mode); err != nil {
			t.Fatal(err)
		}
		if _, err := l.Write([]byte{tt.b}); err != nil {
			t.Fatal(err)
		}
		f := l.Frames()[i]
		if f.Bit9 != tt.bit9 || f.HasBit9 != tt.hasBit9 {
			t.Errorf("%s 0x%02X: got bit9=%d ok=%v", tt.mode, tt.b, f.Bit9, f.HasBit9)
		}
	}
	if l.Reconfigurations() != len(tests) {
		t.Errorf("Reconfigurations() = %d", l.Reconfigurations())
	}
}

func TestLink_RejectedModes(t *testing.T) {
	l := New(WithRejectedModes(ninebit.ModeMark, ninebit.ModeSpace), WithParity(ninebit.ModeOdd))

	if err := l.SetParity(ninebit.ModeMark); err == nil {
		t.Error("expected rejection")
	}
	if l.Parity() != ninebit.ModeOdd || l.Reconfigurations() != 0 {
		t.Errorf("rejected mode applied: parity=%s reconfs=%d", l.Parity(), l.Reconfigurations())
	}
}

func TestLink_Closed(t *testing.T) {
	l := New(WithMarking(true))
	if !l.SupportsMarking() {
		t.Error("SupportsMarking() = false")
	}
	_ = l.Close()

	if _, err := l.Write([]byte{1}); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("Write() after Close = %v", err)
	}
	if _, err := l.WaitReadable(time.Millisecond); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("WaitReadable() after Close = %v", err)
	}
}

func TestDevice(t *testing.T) {
	reply := []byte{0x06, 0x54, 0x00}
	tests := []struct {
		name   string
		frames []Frame
		want   []byte
	}{
		{
			name: "Addressed",
			frames: []Frame{
				{Data: 0x06, Bit9: 1, HasBit9: true},
				{Data: 0xF9, HasBit9: true},
				{Data: 0x54, HasBit9: true},
			},
			want: reply,
		},
		{
			name: "OtherAddress",
			frames: []Frame{
				{Data: 0x07, Bit9: 1, HasBit9: true},
				{Data: 0xF8, HasBit9: true},
				{Data: 0x54, HasBit9: true},
			},
		},
		{
			name: "AddressNotMarked",
			frames: []Frame{
				{Data: 0x06, HasBit9: true},
				{Data: 0xF9, HasBit9: true},
				{Data: 0x54, HasBit9: true},
			},
		},
		{
			name: "DataMarked",
			frames: []Frame{
				{Data: 0x06, Bit9: 1, HasBit9: true},
				{Data: 0xF9, Bit9: 1, HasBit9: true},
				{Data: 0x54, HasBit9: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Device(0x06, 3, reply)
			var got []byte
			for _, f := range tt.frames {
				got = append(got, d(f)...)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("reply = %X, want %X", got, tt.want)
			}
		})
	}
}
