package tomcat

import (
	"fmt"
	"regexp"
	"strconv"
)

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.\d+)?`)

// Version is a Tomcat major.minor release line.
type Version struct {
	Major int
	Minor int
}

// Baseline is the lowest supported release. It is assumed for servers that
// do not report a usable version.
var Baseline = Version{Major: 8, Minor: 5}

// ParseVersion finds the first major.minor[.patch] run in s, so both
// "9.0" and "Apache Tomcat/9.0.41 (Ubuntu)" parse.
func ParseVersion(s string) (Version, bool) {
	m := versionRe.FindStringSubmatch(s)
	if m == nil {
		return Version{}, false
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Version{}, false
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return Version{}, false
	}
	return Version{Major: major, Minor: minor}, true
}

// Less orders versions by major, then minor.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

// AtLeast reports whether v >= min.
func (v Version) AtLeast(min Version) bool {
	return !v.Less(min)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Supported reports whether v is at or above Baseline.
func (v Version) Supported() bool {
	return v.AtLeast(Baseline)
}
