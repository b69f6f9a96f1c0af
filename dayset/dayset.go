// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package dayset implements DaySet, a fixed-width bit vector representing a
// set of calendar days relative to some shared epoch. All DaySets in a single
// run of the pipeline share the same epoch; DaySet itself only ever deals in
// bit offsets.
package dayset

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Words is the number of 64-bit words backing a DaySet. 16 words gives 1024
// bits, comfortably covering any realistic GTFS feed (a couple of years of
// daily granularity) with slack left over for the +1 day shifts used by
// past-midnight continuations.
const Words = 16

// Bits is the total number of addressable day offsets in a DaySet.
const Bits = Words * 64

// DaySet is a fixed-size, comparable bit vector. Being a plain array (not a
// slice) it can be used directly as a map key, which the service-day reverse
// index (and the exporter's copy of it) relies on.
type DaySet [Words]uint64

// Set returns a copy of d with bit day set to true.
func (d DaySet) Set(day int) DaySet {
	if day < 0 || day >= Bits {
		return d
	}
	d[day/64] |= 1 << uint(day%64)
	return d
}

// Clear returns a copy of d with bit day set to false.
func (d DaySet) Clear(day int) DaySet {
	if day < 0 || day >= Bits {
		return d
	}
	d[day/64] &^= 1 << uint(day%64)
	return d
}

// Get reports whether day is a member of d.
func (d DaySet) Get(day int) bool {
	if day < 0 || day >= Bits {
		return false
	}
	return d[day/64]&(1<<uint(day%64)) != 0
}

// IsEmpty reports whether d has no members.
func (d DaySet) IsEmpty() bool {
	for _, w := range d {
		if w != 0 {
			return false
		}
	}
	return true
}

// Union returns the bitwise union of a and b.
func Union(a, b DaySet) DaySet {
	var r DaySet
	for i := range r {
		r[i] = a[i] | b[i]
	}
	return r
}

// Intersection returns the bitwise intersection of a and b.
func Intersection(a, b DaySet) DaySet {
	var r DaySet
	for i := range r {
		r[i] = a[i] & b[i]
	}
	return r
}

// Difference returns the days in a that are not in b.
func Difference(a, b DaySet) DaySet {
	var r DaySet
	for i := range r {
		r[i] = a[i] &^ b[i]
	}
	return r
}

// IsDisjoint reports whether a and b share no members.
func IsDisjoint(a, b DaySet) bool {
	return Intersection(a, b).IsEmpty()
}

// IsSubset reports whether every member of a is also a member of b.
func IsSubset(a, b DaySet) bool {
	return Intersection(a, b) == a
}

// Equal reports whether a and b contain exactly the same days.
func Equal(a, b DaySet) bool {
	return a == b
}

// Shift returns d with every member day offset by n (positive shifts later,
// negative shifts earlier). Days that would fall outside [0, Bits) are
// dropped silently, mirroring the Python implementation's use of an
// arbitrary-precision integer shift truncated to the feed's plausible range.
func Shift(d DaySet, n int) DaySet {
	if n == 0 {
		return d
	}
	var r DaySet
	for _, day := range d.Days() {
		r = r.Set(day + n)
	}
	return r
}

// Len returns the offset one past the highest set bit (0 if d is empty),
// i.e. the number of days of the underlying range that matter.
func (d DaySet) Len() int {
	for w := Words - 1; w >= 0; w-- {
		if d[w] == 0 {
			continue
		}
		for b := 63; b >= 0; b-- {
			if d[w]&(1<<uint(b)) != 0 {
				return w*64 + b + 1
			}
		}
	}
	return 0
}

// Days returns the sorted list of member day offsets.
func (d DaySet) Days() []int {
	days := make([]int, 0)
	for w, word := range d {
		if word == 0 {
			continue
		}
		for b := 0; b < 64; b++ {
			if word&(1<<uint(b)) != 0 {
				days = append(days, w*64+b)
			}
		}
	}
	slices.Sort(days)
	return days
}

// FromDays builds a DaySet from a slice of day offsets.
func FromDays(days []int) DaySet {
	var d DaySet
	for _, day := range days {
		d = d.Set(day)
	}
	return d
}

// String renders d as a compact list of offsets, used only for diagnostics.
func (d DaySet) String() string {
	days := d.Days()
	parts := make([]string, len(days))
	for i, day := range days {
		parts[i] = fmt.Sprint(day)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
