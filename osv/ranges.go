// Copyright 2016 Palantir Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package osv

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/palantir/crateaudit/advisory"
)

type bound struct {
	version   *semver.Version
	inclusive bool
}

// interval is a set of versions. A nil lo is unbounded below and a nil hi is unbounded above.
type interval struct {
	lo *bound
	hi *bound
}

// Events converts the versions of an advisory into OSV SEMVER range events. The affected versions are every version
// that is neither patched nor unaffected.
func Events(versions advisory.Versions) ([]Event, error) {
	var safe []interval
	for _, req := range append(append([]advisory.Requirement{}, versions.Patched...), versions.Unaffected...) {
		in, err := parseInterval(req.String())
		if err != nil {
			return nil, err
		}
		if in.empty() {
			continue
		}
		safe = append(safe, in)
	}
	return affectedEvents(mergeIntervals(safe)), nil
}

func affectedEvents(safe []interval) []Event {
	var events []Event
	from := &bound{version: semver.New(0, 0, 0, "", ""), inclusive: true}
	for _, s := range safe {
		if s.lo != nil && before(from, s.lo) {
			events = append(events, introduced(from.version))
			if s.lo.inclusive {
				events = append(events, Event{Fixed: s.lo.version.String()})
			} else {
				events = append(events, Event{LastAffected: s.lo.version.String()})
			}
		}
		if s.hi == nil {
			return events
		}
		if s.hi.inclusive {
			next := s.hi.version.IncPatch()
			from = &bound{version: &next, inclusive: true}
		} else {
			from = &bound{version: s.hi.version, inclusive: true}
		}
	}
	return append(events, introduced(from.version))
}

func introduced(v *semver.Version) Event {
	if v.Equal(semver.New(0, 0, 0, "", "")) {
		return Event{Introduced: "0"}
	}
	return Event{Introduced: v.String()}
}

// before returns true if some version at or after from lies below lo.
func before(from, lo *bound) bool {
	cmp := from.version.Compare(lo.version)
	return cmp < 0 || (cmp == 0 && !lo.inclusive)
}

func (in interval) empty() bool {
	if in.lo == nil || in.hi == nil {
		return false
	}
	cmp := in.lo.version.Compare(in.hi.version)
	return cmp > 0 || (cmp == 0 && !(in.lo.inclusive && in.hi.inclusive))
}

func mergeIntervals(in []interval) []interval {
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool {
		return lowerLess(in[i].lo, in[j].lo)
	})
	merged := []interval{in[0]}
	for _, next := range in[1:] {
		cur := &merged[len(merged)-1]
		if cur.hi == nil {
			break
		}
		if touches(cur.hi, next.lo) {
			if next.hi == nil || upperLess(cur.hi, next.hi) {
				cur.hi = next.hi
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// touches returns true if an interval ending at hi and an interval starting at lo overlap or are adjacent.
func touches(hi, lo *bound) bool {
	if lo == nil {
		return true
	}
	cmp := lo.version.Compare(hi.version)
	return cmp < 0 || (cmp == 0 && (lo.inclusive || hi.inclusive))
}

func lowerLess(a, b *bound) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	if cmp := a.version.Compare(b.version); cmp != 0 {
		return cmp < 0
	}
	return a.inclusive && !b.inclusive
}

func upperLess(a, b *bound) bool {
	if cmp := a.version.Compare(b.version); cmp != 0 {
		return cmp < 0
	}
	return !a.inclusive && b.inclusive
}

// parseInterval converts a comma-separated Cargo version requirement into the interval of versions it matches.
func parseInterval(req string) (interval, error) {
	var out interval
	for _, comparator := range strings.Split(req, ",") {
		comparator = strings.TrimSpace(comparator)
		if comparator == "" {
			continue
		}
		in, err := comparatorInterval(comparator)
		if err != nil {
			return interval{}, errors.Wrapf(err, "invalid version requirement %q", req)
		}
		if in.lo != nil && (out.lo == nil || lowerLess(out.lo, in.lo)) {
			out.lo = in.lo
		}
		if in.hi != nil && (out.hi == nil || upperLess(in.hi, out.hi)) {
			out.hi = in.hi
		}
	}
	return out, nil
}

func comparatorInterval(comparator string) (interval, error) {
	op, rest := splitOperator(comparator)
	components := len(strings.Split(strings.SplitN(strings.SplitN(rest, "-", 2)[0], "+", 2)[0], "."))
	v, err := semver.NewVersion(rest)
	if err != nil {
		return interval{}, errors.Wrapf(err, "invalid version %q", rest)
	}

	switch op {
	case ">=":
		return interval{lo: &bound{v, true}}, nil
	case ">":
		return interval{lo: &bound{v, false}}, nil
	case "<":
		return interval{hi: &bound{v, false}}, nil
	case "<=":
		return interval{hi: &bound{v, true}}, nil
	case "=":
		return interval{lo: &bound{v, true}, hi: &bound{v, true}}, nil
	case "~":
		var upper semver.Version
		if components == 1 {
			upper = v.IncMajor()
		} else {
			upper = v.IncMinor()
		}
		return interval{lo: &bound{v, true}, hi: &bound{&upper, false}}, nil
	default:
		var upper semver.Version
		switch {
		case v.Major() > 0 || components == 1:
			upper = v.IncMajor()
		case v.Minor() > 0 || components == 2:
			upper = v.IncMinor()
		default:
			upper = v.IncPatch()
		}
		return interval{lo: &bound{v, true}, hi: &bound{&upper, false}}, nil
	}
}

func splitOperator(comparator string) (string, string) {
	for _, op := range []string{">=", "<=", ">", "<", "=", "^", "~"} {
		if strings.HasPrefix(comparator, op) {
			return op, strings.TrimSpace(strings.TrimPrefix(comparator, op))
		}
	}
	return "^", comparator
}
