// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package main

import (
	"fmt"
	"os"
	"path"

	"github.com/patrickbr/gtfsblocks2transfers/config"
	"github.com/patrickbr/gtfsblocks2transfers/continuity"
	"github.com/patrickbr/gtfsblocks2transfers/feed"
	"github.com/patrickbr/gtfsblocks2transfers/geo"
	flag "github.com/spf13/pflag"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "gtfsb2t - turn block-implied vehicle continuations into explicit trip-to-trip transfers\n\nUsage:\n\n  %s [<options>] <input GTFS dir> <output dir>\n\nAllowed options:\n\n", os.Args[0])
		flag.PrintDefaults()
	}

	linearSimplify := flag.BoolP("linear-simplify", "l", false, "reduce the continuation graph to in-degree/out-degree <= 1 per trip")
	removeOutput := flag.BoolP("remove-output", "r", false, "remove the output directory (or zip file) first")
	itineraries := flag.BoolP("itineraries", "i", false, "share stop-time layout across day-split trip clones, cloning only on first edit")
	configPath := flag.StringP("config", "c", "", "JSON file overriding the default pipeline configuration")
	zipOutput := flag.BoolP("zip", "z", false, "write the output feed as a .zip file")
	debugGeoJSON := flag.StringP("debug-geojson", "", "", "dump the resolved continuation graph's edges as a GeoJSON file")
	help := flag.BoolP("help", "?", false, "this message")

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "expected exactly two positional arguments: <input GTFS dir> <output dir>, see --help")
		os.Exit(1)
	}
	inputDir, outputDir := args[0], args[1]

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(1)
	}

	warn := feed.NewWarnings()

	fmt.Fprintf(os.Stdout, "Parsing GTFS feed in '%s' ...", inputDir)
	f, err := feed.Parse(inputDir, warn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "\nError while parsing GTFS feed:")
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done.\n")

	var debugEdges *[]geo.Edge
	if *debugGeoJSON != "" {
		debugEdges = new([]geo.Edge)
	}

	out := continuity.Run(f, cfg, *linearSimplify, *itineraries, debugEdges, warn)

	if debugEdges != nil {
		if err := geo.WriteDebugGeoJSON(*debugGeoJSON, *debugEdges); err != nil {
			fmt.Fprintln(os.Stderr, "Error writing debug GeoJSON:", err.Error())
			os.Exit(1)
		}
	}

	if *zipOutput && path.Ext(outputDir) != ".zip" {
		outputDir += ".zip"
	}

	fmt.Fprintf(os.Stdout, "Writing GTFS feed to '%s' ...", outputDir)
	writeErr := feed.Write(out, outputDir, feed.WriteOptions{Zip: *zipOutput, RemoveExisting: *removeOutput})
	if writeErr != nil {
		fmt.Fprintln(os.Stderr, "\nError while writing GTFS feed:")
		fmt.Fprintln(os.Stderr, writeErr.Error())
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done.\n")

	for _, w := range warn.All() {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if warn.Len() > 0 {
		os.Exit(2)
	}
}
