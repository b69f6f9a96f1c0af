// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package config holds the continuation pipeline's tunables as an explicit,
// documented record (design notes §9), with JSON overrides layered onto
// defaults at start-up.
package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

// MatchSelector is one leg of a special-continuation rule's match predicate
// (§6: "through.{route,stop}", "from.{route,stop}", "to.{route,stop}").
type MatchSelector struct {
	Route string
	Stop  string
}

func (s MatchSelector) empty() bool {
	return s.Route == "" && s.Stop == ""
}

// Rule is one entry of SpecialContinuations.Rules. The last rule whose
// selectors all match a candidate wins (§4.4 step 2).
type Rule struct {
	All     bool
	Through MatchSelector
	From    MatchSelector
	To      MatchSelector

	// Op is only ever "modify" (§6); kept as a field so a future op kind
	// does not require a schema break.
	Op string

	TransferType int
}

// Matches reports whether r's selectors all apply to a candidate whose
// through point sits between fromRoute/fromStop (T's last stop) and
// toRoute/toStop (T''s first stop).
func (r Rule) Matches(fromRoute, fromStop, toRoute, toStop string) bool {
	if r.All {
		return true
	}
	if !r.Through.empty() {
		if r.Through.Route != "" && r.Through.Route != fromRoute && r.Through.Route != toRoute {
			return false
		}
		if r.Through.Stop != "" && r.Through.Stop != fromStop && r.Through.Stop != toStop {
			return false
		}
		return true
	}

	matched := false
	if !r.From.empty() {
		if r.From.Route != "" && r.From.Route != fromRoute {
			return false
		}
		if r.From.Stop != "" && r.From.Stop != fromStop {
			return false
		}
		matched = true
	}
	if !r.To.empty() {
		if r.To.Route != "" && r.To.Route != toRoute {
			return false
		}
		if r.To.Stop != "" && r.To.Stop != toStop {
			return false
		}
		matched = true
	}
	return matched
}

// TripToTripTransfers holds the inferrer's tunables (§4.3, §6).
type TripToTripTransfers struct {
	MaxWaitTime                  int
	MaxDeadheadingSpeed          float64
	MaxNearbyDeadheadingDistance float64
	ForceAllowInvalidBlocks      bool
	OverwriteExisting            bool
}

// InSeatTransfers holds the classifier's tunables (§4.4, §6).
type InSeatTransfers struct {
	MaxWaitTime                int
	SameLocationDistance       float64
	IgnoreReturnViaSameRoute   bool
	IgnoreReturnViaSimilarTrip bool
	SimilarityPercentile       float64
	SimilarityDistance         float64
	BannedStops                []string
}

// SpecialContinuations holds the ordered rule list (§4.4 step 2, §6).
type SpecialContinuations struct {
	Rules []Rule
}

// Config is the whole pipeline configuration.
type Config struct {
	TripToTripTransfers  TripToTripTransfers
	InSeatTransfers      InSeatTransfers
	SpecialContinuations SpecialContinuations
}

// Default returns the built-in defaults, chosen to match typical
// schedule-level GTFS feeds: a generous wait-time ceiling, a same-location
// radius tight enough to reject cross-platform walks, and similarity
// comparison disabled until a feed's operator opts in.
func Default() Config {
	return Config{
		TripToTripTransfers: TripToTripTransfers{
			MaxWaitTime:                  3600,
			MaxDeadheadingSpeed:          0,
			MaxNearbyDeadheadingDistance: 0,
			ForceAllowInvalidBlocks:      false,
			OverwriteExisting:            false,
		},
		InSeatTransfers: InSeatTransfers{
			MaxWaitTime:                600,
			SameLocationDistance:       50,
			IgnoreReturnViaSameRoute:   false,
			IgnoreReturnViaSimilarTrip: false,
			SimilarityPercentile:       0.9,
			SimilarityDistance:         100,
		},
	}
}

// Load reads path as JSON and layers its fields onto Default(). An empty
// path is not an error — callers that only want defaults can pass "" — but a
// path that cannot be read is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}

	v, err := fastjson.ParseBytes(b)
	if err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}

	if t := v.Get("TripToTripTransfers"); t != nil {
		applyTripToTripTransfers(&cfg.TripToTripTransfers, t)
	}
	if s := v.Get("InSeatTransfers"); s != nil {
		applyInSeatTransfers(&cfg.InSeatTransfers, s)
	}
	if sc := v.Get("SpecialContinuations"); sc != nil {
		rules, err := parseRules(sc)
		if err != nil {
			return cfg, errors.Wrapf(err, "parsing config %s", path)
		}
		cfg.SpecialContinuations.Rules = rules
	}

	return cfg, nil
}

func applyTripToTripTransfers(t *TripToTripTransfers, v *fastjson.Value) {
	if n := v.Get("max_wait_time"); n != nil {
		t.MaxWaitTime = n.GetInt()
	}
	if n := v.Get("max_deadheading_speed"); n != nil {
		t.MaxDeadheadingSpeed = n.GetFloat64()
	}
	if n := v.Get("max_nearby_deadheading_distance"); n != nil {
		t.MaxNearbyDeadheadingDistance = n.GetFloat64()
	}
	if n := v.Get("force_allow_invalid_blocks"); n != nil {
		t.ForceAllowInvalidBlocks = n.GetBool()
	}
	if n := v.Get("overwrite_existing"); n != nil {
		t.OverwriteExisting = n.GetBool()
	}
}

func applyInSeatTransfers(s *InSeatTransfers, v *fastjson.Value) {
	if n := v.Get("max_wait_time"); n != nil {
		s.MaxWaitTime = n.GetInt()
	}
	if n := v.Get("same_location_distance"); n != nil {
		s.SameLocationDistance = n.GetFloat64()
	}
	if n := v.Get("ignore_return_via_same_route"); n != nil {
		s.IgnoreReturnViaSameRoute = n.GetBool()
	}
	if n := v.Get("ignore_return_via_similar_trip"); n != nil {
		s.IgnoreReturnViaSimilarTrip = n.GetBool()
	}
	if n := v.Get("similarity_percentile"); n != nil {
		s.SimilarityPercentile = n.GetFloat64()
	}
	if n := v.Get("similarity_distance"); n != nil {
		s.SimilarityDistance = n.GetFloat64()
	}
	if arr := v.GetArray("banned_stops"); arr != nil {
		names := make([]string, 0, len(arr))
		for _, e := range arr {
			names = append(names, string(e.GetStringBytes()))
		}
		s.BannedStops = names
	}
}

func parseRules(v *fastjson.Value) ([]Rule, error) {
	arr := v.GetArray("Rules")
	if arr == nil {
		arr = v.GetArray("rules")
	}

	rules := make([]Rule, 0, len(arr))
	for _, rv := range arr {
		r := Rule{}

		if m := rv.Get("match"); m != nil {
			if b := m.Get("all"); b != nil {
				r.All = b.GetBool()
			}
			r.Through = parseSelector(m.Get("through"))
			r.From = parseSelector(m.Get("from"))
			r.To = parseSelector(m.Get("to"))
		}

		if op := rv.Get("op"); op != nil {
			opStr := string(op.GetStringBytes())
			if opStr != "" && opStr != "modify" {
				return nil, errors.Errorf("unsupported special-continuation op %q", opStr)
			}
			r.Op = opStr
		} else {
			r.Op = "modify"
		}

		if tt := rv.Get("transfer_type"); tt != nil {
			r.TransferType = tt.GetInt()
		}

		rules = append(rules, r)
	}
	return rules, nil
}

func parseSelector(v *fastjson.Value) MatchSelector {
	if v == nil {
		return MatchSelector{}
	}
	var s MatchSelector
	if r := v.Get("route"); r != nil {
		s.Route = string(r.GetStringBytes())
	}
	if st := v.Get("stop"); st != nil {
		s.Stop = string(st.GetStringBytes())
	}
	return s
}
