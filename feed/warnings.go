// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package feed

import "fmt"

// Warnings is a typed sink for recoverable warnings (spec.md §7/§9):
// the builder, simplifier, and feed loader all append to it rather than
// raising mid-pipeline. Any warning having fired makes the driver exit 2.
type Warnings struct {
	messages []string
}

// NewWarnings returns an empty sink.
func NewWarnings() *Warnings {
	return &Warnings{}
}

// Add records a warning.
func (w *Warnings) Add(format string, args ...interface{}) {
	w.messages = append(w.messages, fmt.Sprintf(format, args...))
}

// Len returns the number of warnings recorded.
func (w *Warnings) Len() int {
	return len(w.messages)
}

// All returns every recorded warning, in the order they were added.
func (w *Warnings) All() []string {
	return w.messages
}
