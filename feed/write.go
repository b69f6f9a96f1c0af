// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package feed

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

func init() {
	// Register klauspost/compress's deflate implementation as the zip
	// writer's compressor — faster than compress/flate on the larger
	// exported feeds the simplifier can produce.
	zip.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})
}

// WriteOptions controls how Write lays out its output.
type WriteOptions struct {
	// Zip, if true, writes a single <dir>.zip file next to dir instead of
	// a plain directory of CSV files.
	Zip bool

	// RemoveExisting, if true, removes dir (or the target zip file)
	// before writing.
	RemoveExisting bool
}

// Write serializes f as a GTFS-shaped feed at dir, following opts.
func Write(f *Feed, dir string, opts WriteOptions) error {
	if opts.Zip {
		return writeZip(f, dir)
	}
	return writeDir(f, dir, opts)
}

func writeDir(f *Feed, dir string, opts WriteOptions) error {
	if opts.RemoveExisting {
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, "removing %s", dir)
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	return writeTables(f, func(name string) (io.WriteCloser, error) {
		fh, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "creating %s", name)
		}
		return fh, nil
	})
}

func writeZip(f *Feed, dir string) error {
	zipPath := dir
	if filepath.Ext(zipPath) != ".zip" {
		zipPath = dir + ".zip"
	}

	if err := os.MkdirAll(filepath.Dir(zipPath), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(zipPath))
	}

	if err := os.Remove(zipPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", zipPath)
	}

	fh, err := os.Create(zipPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", zipPath)
	}
	defer fh.Close()

	zw := zip.NewWriter(fh)
	defer zw.Close()

	return writeTables(f, func(name string) (io.WriteCloser, error) {
		w, err := zw.Create(name)
		if err != nil {
			return nil, errors.Wrapf(err, "adding %s to zip", name)
		}
		return nopCloser{w}, nil
	})
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeTables(f *Feed, open func(name string) (io.WriteCloser, error)) error {
	if err := writeStops(f, open); err != nil {
		return err
	}
	if err := writeRoutes(f, open); err != nil {
		return err
	}
	if f.HasShapes {
		if err := writeShapes(f, open); err != nil {
			return err
		}
	}
	if f.HasCalendar {
		if err := writeCalendar(f, open); err != nil {
			return err
		}
	}
	if err := writeCalendarDates(f, open); err != nil {
		return err
	}
	if err := writeTrips(f, open); err != nil {
		return err
	}
	if err := writeStopTimes(f, open); err != nil {
		return err
	}
	if err := writeTransfers(f, open); err != nil {
		return err
	}
	return nil
}

func sortedStopIds(f *Feed) []string {
	ids := make([]string, 0, len(f.Stops))
	for id := range f.Stops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedTripIds(f *Feed) []string {
	ids := make([]string, 0, len(f.Trips))
	for id := range f.Trips {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func writeStops(f *Feed, open func(string) (io.WriteCloser, error)) error {
	w, err := open("stops.txt")
	if err != nil {
		return err
	}
	defer w.Close()

	rows := make([]stopRow, 0, len(f.Stops))
	for _, id := range sortedStopIds(f) {
		s := f.Stops[id]
		rows = append(rows, stopRow{
			StopId:        s.Id,
			StopCode:      s.Code,
			StopName:      s.Name,
			StopLat:       formatCoord(s.Lat),
			StopLon:       formatCoord(s.Lon),
			LocationType:  formatIntOmitZero(s.LocationType),
			ParentStation: s.ParentStation,
		})
	}
	return gocsv.Marshal(rows, w)
}

func writeRoutes(f *Feed, open func(string) (io.WriteCloser, error)) error {
	w, err := open("routes.txt")
	if err != nil {
		return err
	}
	defer w.Close()

	ids := make([]string, 0, len(f.Routes))
	for id := range f.Routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]routeRow, 0, len(ids))
	for _, id := range ids {
		r := f.Routes[id]
		rows = append(rows, routeRow{
			RouteId:        r.Id,
			AgencyId:       r.AgencyId,
			RouteShortName: r.ShortName,
			RouteLongName:  r.LongName,
			RouteType:      formatIntOmitZero(r.Type),
		})
	}
	return gocsv.Marshal(rows, w)
}

func writeShapes(f *Feed, open func(string) (io.WriteCloser, error)) error {
	w, err := open("shapes.txt")
	if err != nil {
		return err
	}
	defer w.Close()

	ids := make([]string, 0, len(f.Shapes))
	for id := range f.Shapes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var rows []shapeRow
	for _, id := range ids {
		sh := f.Shapes[id]
		for _, p := range sh.Points {
			r := shapeRow{
				ShapeId:         id,
				ShapePtLat:      formatCoord(p.Lat),
				ShapePtLon:      formatCoord(p.Lon),
				ShapePtSequence: formatIntOmitZero(p.Sequence),
			}
			if p.HasDist {
				r.ShapeDistTraveled = formatCoord(p.DistTraveled)
			}
			rows = append(rows, r)
		}
	}
	return gocsv.Marshal(rows, w)
}

func writeCalendar(f *Feed, open func(string) (io.WriteCloser, error)) error {
	w, err := open("calendar.txt")
	if err != nil {
		return err
	}
	defer w.Close()

	ids := make([]string, 0, len(f.Services))
	for id, svc := range f.Services {
		if svc.HasCalendar {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	rows := make([]calendarRow, 0, len(ids))
	for _, id := range ids {
		svc := f.Services[id]
		rows = append(rows, calendarRow{
			ServiceId: svc.Id,
			Sunday:    Bool01(svc.Weekday[0]),
			Monday:    Bool01(svc.Weekday[1]),
			Tuesday:   Bool01(svc.Weekday[2]),
			Wednesday: Bool01(svc.Weekday[3]),
			Thursday:  Bool01(svc.Weekday[4]),
			Friday:    Bool01(svc.Weekday[5]),
			Saturday:  Bool01(svc.Weekday[6]),
			StartDate: svc.StartDate,
			EndDate:   svc.EndDate,
		})
	}
	return gocsv.Marshal(rows, w)
}

func writeCalendarDates(f *Feed, open func(string) (io.WriteCloser, error)) error {
	ids := make([]string, 0, len(f.Services))
	for id := range f.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var rows []calendarDateRow
	for _, id := range ids {
		svc := f.Services[id]
		dates := make([]Date, 0, len(svc.Exceptions))
		for d := range svc.Exceptions {
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		for _, d := range dates {
			rows = append(rows, calendarDateRow{
				ServiceId:     svc.Id,
				Date:          d,
				ExceptionType: svc.Exceptions[d],
			})
		}
	}

	if len(rows) == 0 && !f.HasCalendarDates {
		return nil
	}

	w, err := open("calendar_dates.txt")
	if err != nil {
		return err
	}
	defer w.Close()
	return gocsv.Marshal(rows, w)
}

func writeTrips(f *Feed, open func(string) (io.WriteCloser, error)) error {
	w, err := open("trips.txt")
	if err != nil {
		return err
	}
	defer w.Close()

	rows := make([]tripRow, 0, len(f.Trips))
	for _, id := range sortedTripIds(f) {
		t := f.Trips[id]
		r := tripRow{
			RouteId:       t.RouteId,
			ServiceId:     t.ServiceId,
			TripId:        t.Id,
			TripHeadsign:  t.Headsign,
			TripShortName: t.ShortName,
			BlockId:       t.BlockId,
			ShapeId:       t.ShapeId,
		}
		if t.HasDirection {
			if t.DirectionId {
				r.DirectionId = "1"
			} else {
				r.DirectionId = "0"
			}
		}
		rows = append(rows, r)
	}
	return gocsv.Marshal(rows, w)
}

func writeStopTimes(f *Feed, open func(string) (io.WriteCloser, error)) error {
	w, err := open("stop_times.txt")
	if err != nil {
		return err
	}
	defer w.Close()

	var rows []stopTimeRow
	for _, id := range sortedTripIds(f) {
		t := f.Trips[id]
		for _, st := range t.StopTimes {
			r := stopTimeRow{
				TripId:        t.Id,
				ArrivalTime:   st.Arrival,
				DepartureTime: st.Departure,
				StopHeadsign:  st.Headsign,
				StopSequence:  formatIntOmitZero(st.Sequence),
				PickupType:    st.PickupType,
				DropOffType:   st.DropOffType,
			}
			if st.Stop != nil {
				r.StopId = st.Stop.Id
			}
			if st.HasDist {
				r.ShapeDistTraveled = formatCoord(st.DistTraveled)
			}
			rows = append(rows, r)
		}
	}
	return gocsv.Marshal(rows, w)
}

func writeTransfers(f *Feed, open func(string) (io.WriteCloser, error)) error {
	if len(f.Transfers) == 0 && !f.HasTransfers {
		return nil
	}

	w, err := open("transfers.txt")
	if err != nil {
		return err
	}
	defer w.Close()

	rows := make([]transferRow, 0, len(f.Transfers))
	for _, tr := range f.Transfers {
		r := transferRow{
			FromStopId:   tr.FromStopId,
			ToStopId:     tr.ToStopId,
			FromTripId:   tr.FromTripId,
			ToTripId:     tr.ToTripId,
			TransferType: tr.Type,
		}
		if tr.MinTransferTime > 0 {
			r.MinTransferTime = formatIntOmitZero(tr.MinTransferTime)
		}
		rows = append(rows, r)
	}
	return gocsv.Marshal(rows, w)
}
