// Package version implements the application version model.
//
// Ordering is deliberately not semver: a release tag carries up to four
// integers (major, minor, patch and an optional release-candidate ordinal),
// and an absent RC sorts below any present RC, so a final release precedes
// its own release candidates ("1.0.0" < "1.0.0-rc1"). This matches the
// policy the release pipeline has always used and must be preserved.
package version

import (
	"fmt"
	"regexp"
	"strconv"
)

var integerPattern = regexp.MustCompile(`\d+`)

// ParseError reports a tag string that does not contain enough integer
// components to form a version.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed version %q: need at least 3 integer components", e.Input)
}

// Version is an immutable value type. Two versions compare equal only when
// all four components match, including RC presence.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
	RC    uint64
	HasRC bool
}

// Parse extracts up to four integers from text, ignoring any surrounding
// non-digit characters ("v1.2.3", "1.2.3-rc4" and "release 1.2.3" all
// parse). Fewer than three integers is a *ParseError. A fourth integer, if
// present, becomes the RC ordinal; anything beyond it is ignored.
func Parse(text string) (Version, error) {
	parts := integerPattern.FindAllString(text, -1)
	if len(parts) < 3 {
		return Version{}, &ParseError{Input: text}
	}

	numbers := make([]uint64, 0, 4)
	for _, part := range parts[:min(len(parts), 4)] {
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return Version{}, &ParseError{Input: text}
		}
		numbers = append(numbers, n)
	}

	v := Version{Major: numbers[0], Minor: numbers[1], Patch: numbers[2]}
	if len(numbers) > 3 {
		v.RC = numbers[3]
		v.HasRC = true
	}
	return v, nil
}

// MustParse is Parse for trusted inputs such as compiled-in constants.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders "MAJOR.MINOR.PATCH" or "MAJOR.MINOR.PATCH-rcN". An RC
// ordinal of zero collapses to the plain form, so Version{1,0,0,0,true}
// stringifies as "1.0.0" and re-parses without an RC. Accepted lossy edge
// case, inherited behavior.
func (v Version) String() string {
	if v.HasRC && v.RC != 0 {
		return fmt.Sprintf("%d.%d.%d-rc%d", v.Major, v.Minor, v.Patch, v.RC)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// rcKey maps the optional RC ordinal onto a totally ordered axis where
// "no RC" sorts below every present RC, including rc0.
func (v Version) rcKey() int64 {
	if !v.HasRC {
		return -1
	}
	return int64(v.RC)
}

// Compare returns -1, 0 or 1 ordering a against b lexicographically over
// (major, minor, patch, rc).
func Compare(a, b Version) int {
	if c := compareUint(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareUint(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := compareUint(a.Patch, b.Patch); c != 0 {
		return c
	}
	switch {
	case a.rcKey() < b.rcKey():
		return -1
	case a.rcKey() > b.rcKey():
		return 1
	default:
		return 0
	}
}

// Less reports a < b under Compare.
func (v Version) Less(other Version) bool {
	return Compare(v, other) < 0
}

// Greater reports a > b under Compare.
func (v Version) Greater(other Version) bool {
	return Compare(v, other) > 0
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
