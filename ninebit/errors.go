// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package ninebit

import (
	"errors"
	"fmt"
)

var (
	ErrNoLink        = errors.New("ninebit: no link attached")
	ErrConfiguration = errors.New("ninebit: link rejected parity mode")
	ErrWrite         = errors.New("ninebit: link write failed")
	ErrReadTimeout   = errors.New("ninebit: read deadline exceeded")
	ErrRead          = errors.New("ninebit: link read failed")
)

// ReadError reports a ReadData call that did not collect the requested size.
// The bytes collected so far are returned next to it.
type ReadError struct {
	Kind  error // ErrReadTimeout or ErrRead
	Cause error // link error, nil on timeout
	Got   int
	Want  int
}

func (e *ReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v after %d of %d bytes: %v", e.Kind, e.Got, e.Want, e.Cause)
	}
	return fmt.Sprintf("%v after %d of %d bytes", e.Kind, e.Got, e.Want)
}

func (e *ReadError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}
