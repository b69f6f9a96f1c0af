// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtureFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func writeBasicFixture(t *testing.T, dir string) {
	t.Helper()

	writeFixtureFile(t, dir, "stops.txt", "stop_id,stop_name,stop_lat,stop_lon\n"+
		"S1,First Stop,52.5,13.4\n"+
		"S2,Second Stop,52.6,13.5\n"+
		"S3,Third Stop,52.7,13.6\n")

	writeFixtureFile(t, dir, "routes.txt", "route_id,route_short_name,route_type\n"+
		"R1,1,3\n")

	writeFixtureFile(t, dir, "calendar.txt", "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n"+
		"C1,1,1,1,1,1,0,0,20260101,20261231\n")

	writeFixtureFile(t, dir, "trips.txt", "route_id,service_id,trip_id,block_id\n"+
		"R1,C1,T1,B1\n"+
		"R1,C1,T2,B1\n")

	writeFixtureFile(t, dir, "stop_times.txt", "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n"+
		"T1,08:00:00,08:00:00,S1,0\n"+
		"T1,08:10:00,08:10:00,S2,1\n"+
		"T2,08:20:00,08:20:00,S2,0\n"+
		"T2,08:40:00,08:40:00,S3,1\n")
}

func TestParseBasicFeed(t *testing.T) {
	dir := t.TempDir()
	writeBasicFixture(t, dir)

	warn := NewWarnings()
	f, err := Parse(dir, warn)
	require.NoError(t, err)

	assert.Len(t, f.Stops, 3)
	assert.Len(t, f.Trips, 2)
	assert.Equal(t, 0, warn.Len())

	t1 := f.Trips["T1"]
	require.NotNil(t, t1)
	assert.Equal(t, "B1", t1.BlockId)
	assert.Len(t, t1.StopTimes, 2)
	assert.Equal(t, "S1", t1.StopTimes[0].Stop.Id)
	assert.Equal(t, "R1", t1.RouteId)
	assert.Equal(t, "1", t1.Route.ShortName)

	svc := f.Services["C1"]
	require.NotNil(t, svc)
	assert.True(t, svc.Weekday[1]) // Monday
	assert.False(t, svc.Weekday[6])
}

func TestParseMissingRequiredFile(t *testing.T) {
	dir := t.TempDir()
	writeFixtureFile(t, dir, "stops.txt", "stop_id,stop_name,stop_lat,stop_lon\nS1,A,1,1\n")
	// trips.txt and stop_times.txt deliberately absent.

	_, err := Parse(dir, NewWarnings())
	require.Error(t, err)
}

func TestParseOutOfRangeCoordinate(t *testing.T) {
	dir := t.TempDir()
	writeFixtureFile(t, dir, "stops.txt", "stop_id,stop_name,stop_lat,stop_lon\nS1,A,95,13\n")
	writeFixtureFile(t, dir, "trips.txt", "route_id,service_id,trip_id\nR1,C1,T1\n")
	writeFixtureFile(t, dir, "stop_times.txt", "trip_id,stop_id,stop_sequence,arrival_time,departure_time\nT1,S1,0,08:00:00,08:00:00\n")

	_, err := Parse(dir, NewWarnings())
	require.Error(t, err)
}

func TestParseTimeExceedingCapIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFixtureFile(t, dir, "stops.txt", "stop_id,stop_name,stop_lat,stop_lon\nS1,A,1,1\n")
	writeFixtureFile(t, dir, "trips.txt", "route_id,service_id,trip_id\nR1,C1,T1\n")
	writeFixtureFile(t, dir, "stop_times.txt", "trip_id,stop_id,stop_sequence,arrival_time,departure_time\nT1,S1,0,40:00:00,40:00:00\n")

	_, err := Parse(dir, NewWarnings())
	require.Error(t, err)
}

func TestParseMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	writeFixtureFile(t, dir, "stops.txt", "stop_id,stop_name,stop_lat,stop_lon\nS1,,1,1\n")
	writeFixtureFile(t, dir, "trips.txt", "route_id,service_id,trip_id\nR1,C1,T1\n")
	writeFixtureFile(t, dir, "stop_times.txt", "trip_id,stop_id,stop_sequence,arrival_time,departure_time\nT1,S1,0,08:00:00,08:00:00\n")

	_, err := Parse(dir, NewWarnings())
	require.Error(t, err)
}
