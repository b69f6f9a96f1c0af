// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package feed

import "github.com/patrickbr/gtfsblocks2transfers/geo"

// Stop is a minimal stops.txt row — only the fields the continuation
// pipeline needs (location, name for banned_stops matching).
type Stop struct {
	Id            string
	Code          string
	Name          string
	Lat           float64
	Lon           float64
	LocationType  int
	ParentStation string
}

// Point returns the stop's location.
func (s *Stop) Point() geo.Point {
	return geo.Point{Lat: s.Lat, Lon: s.Lon}
}

// Route is a minimal routes.txt row. Per spec.md's non-goals, routes are
// treated only as identities (and, for the classifier, a short name) — not
// as first-class entities with their own merge/validation logic.
type Route struct {
	Id        string
	AgencyId  string
	ShortName string
	LongName  string
	Type      int
}

// ShapePoint is one point of a shapes.txt polyline.
type ShapePoint struct {
	Lat          float64
	Lon          float64
	Sequence     int
	DistTraveled float64
	HasDist      bool
}

// Shape is a shapes.txt polyline, keyed by shape_id.
type Shape struct {
	Id     string
	Points []ShapePoint
}

// Geo returns the shape as a geo.Shape for distance calculations.
func (sh *Shape) Geo() geo.Shape {
	if sh == nil {
		return nil
	}
	pts := make(geo.Shape, len(sh.Points))
	for i, p := range sh.Points {
		pts[i] = geo.Point{Lat: p.Lat, Lon: p.Lon}
	}
	return pts
}

// Service is a declared or synthetic calendar entry: a service identifier
// plus the set of calendar days it operates on, computed by the
// service-day index (§4.1).
type Service struct {
	Id          string
	Synthetic   bool
	Weekday     [7]bool // index by time.Weekday: Sunday=0 ... Saturday=6
	StartDate   Date
	EndDate     Date
	HasCalendar bool
	Exceptions  map[Date]ExceptionType // calendar_dates.txt entries
}

// StopTime is one stop_times.txt row attached to a Trip.
type StopTime struct {
	Stop         *Stop
	Sequence     int
	Arrival      ServiceTime
	Departure    ServiceTime
	Headsign     string
	PickupType   PickupDropOffType
	DropOffType  PickupDropOffType
	DistTraveled float64
	HasDist      bool
}

// Trip is a trips.txt row plus its ordered stop_times.txt rows and the
// derived fields spec.md §3 calls for.
type Trip struct {
	Id          string
	ServiceId   string
	Service     *Service
	BlockId     string
	RouteId     string
	Route       *Route
	DirectionId bool
	HasDirection bool
	Headsign    string
	ShortName   string
	ShapeId     string
	Shape       *Shape
	StopTimes   []*StopTime

	// ShapeRef is the canonical pointer for this trip's derived stop-shape
	// (tuple of stop locations in order), set by the block grouper's
	// dedup pass (§4.2) so the classifier's similarity cache can be keyed
	// by pointer equality instead of deep comparison.
	ShapeRef *StopShape
}

// StopShape is the tuple of stop locations (in order) a trip visits,
// distinct from shapes.txt's Shape (a trip may share this tuple with other
// trips even on different shapes.txt polylines).
type StopShape struct {
	Points geo.Shape
}

// FirstDeparture returns the trip's first stop-time's departure, normalized
// into [0, 24h).
func (t *Trip) FirstDeparture() ServiceTime {
	if len(t.StopTimes) == 0 {
		return 0
	}
	n, _ := t.StopTimes[0].Departure.Normalized()
	return n
}

// LastArrival returns the trip's last stop-time's arrival, normalized into
// [0, 24h).
func (t *Trip) LastArrival() ServiceTime {
	if len(t.StopTimes) == 0 {
		return 0
	}
	n, _ := t.StopTimes[len(t.StopTimes)-1].Arrival.Normalized()
	return n
}

// ShiftDays is 0 or 1 depending on whether the trip's first departure is
// notated past the 24-hour mark.
func (t *Trip) ShiftDays() int {
	if len(t.StopTimes) == 0 {
		return 0
	}
	_, shift := t.StopTimes[0].Departure.Normalized()
	return shift
}

// FirstPoint returns the location of the trip's first stop.
func (t *Trip) FirstPoint() geo.Point {
	if len(t.StopTimes) == 0 || t.StopTimes[0].Stop == nil {
		return geo.Point{}
	}
	return t.StopTimes[0].Stop.Point()
}

// LastPoint returns the location of the trip's last stop.
func (t *Trip) LastPoint() geo.Point {
	if len(t.StopTimes) == 0 || t.StopTimes[len(t.StopTimes)-1].Stop == nil {
		return geo.Point{}
	}
	return t.StopTimes[len(t.StopTimes)-1].Stop.Point()
}

// FirstStop and LastStop return the endpoint stops used by special-rule
// selectors (§4.4).
func (t *Trip) FirstStop() *Stop {
	if len(t.StopTimes) == 0 {
		return nil
	}
	return t.StopTimes[0].Stop
}

func (t *Trip) LastStop() *Stop {
	if len(t.StopTimes) == 0 {
		return nil
	}
	return t.StopTimes[len(t.StopTimes)-1].Stop
}

// ComputeStopShape builds the (uncached) tuple of stop locations in order.
func (t *Trip) ComputeStopShape() geo.Shape {
	pts := make(geo.Shape, len(t.StopTimes))
	for i, st := range t.StopTimes {
		if st.Stop != nil {
			pts[i] = st.Stop.Point()
		}
	}
	return pts
}

// Transfer is a transfers.txt row. Stop-to-stop/route-to-route transfers
// leave the trip fields empty; trip-to-trip transfers (including
// continuations) set FromTripId/ToTripId.
type Transfer struct {
	FromStopId      string
	ToStopId        string
	FromTripId      string
	ToTripId        string
	Type            TransferType
	MinTransferTime int

	// IsGenerated marks a transfer the exporter emitted for a continuation
	// edge rather than one read from the feed's own transfers.txt. Rank is
	// not set by the reader or the exporter; inferred continuations carry
	// their rank on graph.Edge instead.
	IsGenerated bool
	Rank        int
}

// Feed is the whole in-memory, cross-referenced GTFS-shaped feed.
type Feed struct {
	Stops    map[string]*Stop
	Routes   map[string]*Route
	Shapes   map[string]*Shape
	Services map[string]*Service
	Trips    map[string]*Trip
	Transfers []*Transfer

	// HasCalendar/HasCalendarDates/HasTransfers/HasShapes record which
	// optional tables the input feed actually carried, so the writer can
	// decide which files to (re)emit.
	HasCalendar      bool
	HasCalendarDates bool
	HasTransfers     bool
	HasShapes        bool
}

// NewFeed returns an empty Feed with all maps initialized.
func NewFeed() *Feed {
	return &Feed{
		Stops:    make(map[string]*Stop),
		Routes:   make(map[string]*Route),
		Shapes:   make(map[string]*Shape),
		Services: make(map[string]*Service),
		Trips:    make(map[string]*Trip),
	}
}

// TransfersByFromTrip indexes f.Transfers by from_trip_id, skipping
// stop-to-stop/route-to-route transfers.
func (f *Feed) TransfersByFromTrip() map[string][]*Transfer {
	idx := make(map[string][]*Transfer)
	for _, tr := range f.Transfers {
		if tr.FromTripId == "" {
			continue
		}
		idx[tr.FromTripId] = append(idx[tr.FromTripId], tr)
	}
	return idx
}
