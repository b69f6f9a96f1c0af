// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package continuity is the blocks-to-transfers continuation pipeline:
// service-day indexing, block grouping, continuation inference and
// classification, continuation-graph building/repair/simplification, and
// export back into a feed.
package continuity

import (
	"sort"

	"github.com/patrickbr/gtfsblocks2transfers/dayset"
	"github.com/patrickbr/gtfsblocks2transfers/feed"
)

// ServiceIndex maps service identifiers to their DaySet, plus a reverse
// index letting the exporter reuse an existing service identifier when a
// generated DaySet happens to match one exactly (§4.1, §4.7).
type ServiceIndex struct {
	Epoch     feed.Date
	ByService map[string]dayset.DaySet
	ByDaySet  map[dayset.DaySet]string
}

// DaysFor is service_days.py's days_by_trip: a trip's own DaySet, not just
// its service's, folding in the trip's shift-days (§3) so a trip notated
// with a 24h+ first departure is expressed in its true calendar-day frame
// rather than the service's raw one.
func (idx *ServiceIndex) DaysFor(t *feed.Trip) dayset.DaySet {
	return dayset.Shift(idx.ByService[t.ServiceId], t.ShiftDays())
}

// BuildServiceIndex computes the epoch and per-service DaySets for every
// service in f (§4.1).
func BuildServiceIndex(f *feed.Feed, warn *feed.Warnings) *ServiceIndex {
	idx := &ServiceIndex{
		ByService: make(map[string]dayset.DaySet, len(f.Services)),
		ByDaySet:  make(map[dayset.DaySet]string, len(f.Services)),
	}

	idx.Epoch = computeEpoch(f)

	ids := make([]string, 0, len(f.Services))
	for id := range f.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		ds := daysForService(f.Services[id], idx.Epoch, warn)
		idx.ByService[id] = ds
		if _, exists := idx.ByDaySet[ds]; !exists {
			idx.ByDaySet[ds] = id
		}
	}

	return idx
}

func computeEpoch(f *feed.Feed) feed.Date {
	var epoch feed.Date
	first := true

	consider := func(d feed.Date) {
		if first || d.Before(epoch) {
			epoch = d
			first = false
		}
	}

	for _, svc := range f.Services {
		if svc.HasCalendar {
			consider(svc.StartDate)
		}
		for d, et := range svc.Exceptions {
			if et == feed.ExceptionAdd {
				consider(d)
			}
		}
	}

	return epoch
}

func daysForService(svc *feed.Service, epoch feed.Date, warn *feed.Warnings) dayset.DaySet {
	var ds dayset.DaySet

	if svc.HasCalendar {
		start := svc.StartDate.DaysSince(epoch)
		end := svc.EndDate.DaysSince(epoch)
		for off := start; off <= end; off++ {
			d := epoch.Offset(off)
			if svc.Weekday[int(d.Weekday())] {
				ds = ds.Set(off)
			}
		}
	}

	for d, et := range svc.Exceptions {
		off := d.DaysSince(epoch)
		switch et {
		case feed.ExceptionAdd:
			if ds.Get(off) {
				warn.Add("service %s: calendar_dates add on %s is already active", svc.Id, d)
			}
			ds = ds.Set(off)
		case feed.ExceptionRemove:
			if !ds.Get(off) {
				warn.Add("service %s: calendar_dates remove on %s is already inactive", svc.Id, d)
			}
			ds = ds.Clear(off)
		}
	}

	return ds
}
