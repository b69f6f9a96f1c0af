// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsUsableWithoutOverrides(t *testing.T) {
	cfg := Default()
	assert.Greater(t, cfg.TripToTripTransfers.MaxWaitTime, 0)
	assert.Greater(t, cfg.InSeatTransfers.SameLocationDistance, 0.0)
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesLayerOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"TripToTripTransfers": {"max_wait_time": 1200, "overwrite_existing": true},
		"InSeatTransfers": {"same_location_distance": 25, "banned_stops": ["Bus Bay 3"]},
		"SpecialContinuations": {"Rules": [
			{"match": {"all": true}, "transfer_type": 5},
			{"match": {"from": {"route": "R1"}}, "op": "modify", "transfer_type": 4}
		]}
	}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1200, cfg.TripToTripTransfers.MaxWaitTime)
	assert.True(t, cfg.TripToTripTransfers.OverwriteExisting)
	// Untouched fields keep their defaults.
	assert.Equal(t, Default().TripToTripTransfers.MaxDeadheadingSpeed, cfg.TripToTripTransfers.MaxDeadheadingSpeed)

	assert.Equal(t, 25.0, cfg.InSeatTransfers.SameLocationDistance)
	assert.Equal(t, []string{"Bus Bay 3"}, cfg.InSeatTransfers.BannedStops)

	require.Len(t, cfg.SpecialContinuations.Rules, 2)
	assert.True(t, cfg.SpecialContinuations.Rules[0].All)
	assert.Equal(t, "R1", cfg.SpecialContinuations.Rules[1].From.Route)
}

func TestRuleMatchesAll(t *testing.T) {
	r := Rule{All: true}
	assert.True(t, r.Matches("R1", "S1", "R2", "S2"))
}

func TestRuleMatchesThrough(t *testing.T) {
	r := Rule{Through: MatchSelector{Stop: "Central"}}
	assert.True(t, r.Matches("R1", "Central", "R2", "S2"))
	assert.True(t, r.Matches("R1", "S1", "R2", "Central"))
	assert.False(t, r.Matches("R1", "S1", "R2", "S2"))
}

func TestRuleMatchesFromTo(t *testing.T) {
	r := Rule{From: MatchSelector{Route: "R1"}, To: MatchSelector{Route: "R2"}}
	assert.True(t, r.Matches("R1", "S1", "R2", "S2"))
	assert.False(t, r.Matches("R1", "S1", "R3", "S2"))
}

func TestLoadRejectsUnsupportedOp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"SpecialContinuations": {"Rules": [{"match": {"all": true}, "op": "delete"}]}
	}`), 0644))

	_, err := Load(path)
	require.Error(t, err)
}
