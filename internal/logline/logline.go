package logline

import (
	"regexp"
	"strconv"
)

// Missing is the sentinel value for string fields that were absent from a
// log line. Callers compare against it instead of branching on absence.
const Missing = "-"

// Entry is one parsed access log line. Every field is always populated:
// absent string fields hold Missing, absent time fields hold "0", and an
// absent or malformed status holds 0.
type Entry struct {
	Timestamp            string
	Method               string
	URI                  string
	Status               int
	Pool                 string
	Release              string
	UpstreamAddr         string
	UpstreamStatus       string
	RequestTime          string
	UpstreamResponseTime string
	Client               string
}

// timestampPattern matches the mandatory bracketed timestamp anchor, e.g.
// [28/Jan/2025:10:30:45 +0000]. The timestamp is kept as an opaque string.
var timestampPattern = regexp.MustCompile(`\[([^\]]+)\]`)

var fieldPatterns = compileFieldPatterns(
	"method",
	"uri",
	"status",
	"pool",
	"release",
	"upstream_addr",
	"upstream_status",
	"request_time",
	"upstream_response_time",
	"client",
)

func compileFieldPatterns(keys ...string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(keys))
	for _, key := range keys {
		patterns[key] = regexp.MustCompile(`(?:^|\s)` + key + `=(\S+)`)
	}
	return patterns
}

// Parse converts a raw log line into an Entry. It reports false when the
// line lacks the bracketed timestamp anchor. All key=value fields after the
// anchor are optional and extracted independently of each other, so a proxy
// that omits fields still yields a usable Entry with sentinel defaults.
func Parse(line string) (Entry, bool) {
	loc := timestampPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return Entry{}, false
	}

	// Only the text after the timestamp carries key=value tokens.
	rest := line[loc[1]:]

	entry := Entry{
		Timestamp:            line[loc[2]:loc[3]],
		Method:               field(rest, "method", Missing),
		URI:                  field(rest, "uri", Missing),
		Pool:                 field(rest, "pool", Missing),
		Release:              field(rest, "release", Missing),
		UpstreamAddr:         field(rest, "upstream_addr", Missing),
		UpstreamStatus:       field(rest, "upstream_status", Missing),
		RequestTime:          field(rest, "request_time", "0"),
		UpstreamResponseTime: field(rest, "upstream_response_time", "0"),
		Client:               field(rest, "client", Missing),
	}

	// Best effort: a missing or non-numeric status stays 0, which is never
	// counted as an error downstream.
	if status, err := strconv.Atoi(field(rest, "status", "")); err == nil {
		entry.Status = status
	}

	return entry, true
}

// field extracts a single key=value token, falling back to def when the key
// is absent.
func field(rest, key, def string) string {
	match := fieldPatterns[key].FindStringSubmatch(rest)
	if match == nil {
		return def
	}
	return match[1]
}
