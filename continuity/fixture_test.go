// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package continuity

import (
	"github.com/patrickbr/gtfsblocks2transfers/feed"
)

// epoch anchors every test fixture's day-offsets to a Monday, so offset 0..6
// read as Mon..Sun without any weekday-from-calendar arithmetic getting in
// the way of the scenario under test.
var epoch = feed.NewDate(2024, 1, 1)

const (
	mon = 0
	tue = 1
	wed = 2
	thu = 3
	fri = 4
	sat = 5
	sun = 6
)

func newTestFeed() *feed.Feed {
	return feed.NewFeed()
}

func addStop(f *feed.Feed, id string, lat, lon float64) *feed.Stop {
	s := &feed.Stop{Id: id, Name: id, Lat: lat, Lon: lon}
	f.Stops[id] = s
	return s
}

func addRoute(f *feed.Feed, id string) *feed.Route {
	r := &feed.Route{Id: id}
	f.Routes[id] = r
	return r
}

// addService registers a service active on exactly the given day-offsets
// (relative to epoch), expressed purely via calendar_dates add-exceptions so
// a test's intended DaySet is exact and free of weekday-matching surprises.
func addService(f *feed.Feed, id string, days ...int) *feed.Service {
	exceptions := make(map[feed.Date]feed.ExceptionType, len(days))
	for _, d := range days {
		exceptions[epoch.Offset(d)] = feed.ExceptionAdd
	}
	svc := &feed.Service{Id: id, Exceptions: exceptions}
	f.Services[id] = svc
	return svc
}

type stopTimeSpec struct {
	stop    *feed.Stop
	arrival feed.ServiceTime
	depart  feed.ServiceTime
}

func addTrip(f *feed.Feed, id, serviceID string, route *feed.Route, blockID string, sts ...stopTimeSpec) *feed.Trip {
	t := &feed.Trip{
		Id:        id,
		ServiceId: serviceID,
		Service:   f.Services[serviceID],
		BlockId:   blockID,
	}
	if route != nil {
		t.RouteId = route.Id
		t.Route = route
	}
	for i, s := range sts {
		t.StopTimes = append(t.StopTimes, &feed.StopTime{
			Stop:      s.stop,
			Sequence:  i,
			Arrival:   s.arrival,
			Departure: s.depart,
		})
	}
	f.Trips[id] = t
	return t
}

func hms(h, m, s int) feed.ServiceTime {
	return feed.NewServiceTime(h, m, s)
}
