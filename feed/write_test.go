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

func TestWriteReadRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeBasicFixture(t, src)

	f, err := Parse(src, NewWarnings())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Write(f, out, WriteOptions{}))

	f2, err := Parse(out, NewWarnings())
	require.NoError(t, err)

	assert.Len(t, f2.Stops, len(f.Stops))
	assert.Len(t, f2.Trips, len(f.Trips))
	assert.Equal(t, f.Trips["T1"].BlockId, f2.Trips["T1"].BlockId)
	assert.Equal(t, f.Trips["T1"].StopTimes[0].Stop.Id, f2.Trips["T1"].StopTimes[0].Stop.Id)
}

func TestWriteZip(t *testing.T) {
	src := t.TempDir()
	writeBasicFixture(t, src)

	f, err := Parse(src, NewWarnings())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Write(f, out, WriteOptions{Zip: true}))

	_, err = os.Stat(out + ".zip")
	require.NoError(t, err)
}

func TestWriteRemoveExisting(t *testing.T) {
	src := t.TempDir()
	writeBasicFixture(t, src)

	f, err := Parse(src, NewWarnings())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Write(f, out, WriteOptions{}))
	writeFixtureFile(t, out, "stray.txt", "leftover")

	require.NoError(t, Write(f, out, WriteOptions{RemoveExisting: true}))

	_, err = os.Stat(filepath.Join(out, "stray.txt"))
	assert.True(t, os.IsNotExist(err))
}
