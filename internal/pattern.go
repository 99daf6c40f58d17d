package internal

import (
	"fmt"
	"net/url"
	"strings"
)

// Params holds named URL parameters extracted during route matching.
// Values are percent-decoded. A trailing wildcard binds the remainder
// of the path under the key "*". Produced fresh per match; treat as
// read-only once handed to a handler.
type Params map[string]string

// Get returns the parameter value by name, or "" if absent.
func (p Params) Get(name string) string {
	return p[name]
}

// segmentKind discriminates compiled pattern segments.
type segmentKind uint8

const (
	segLiteral segmentKind = iota
	segParam
	segWildcard
)

// segment is one /-delimited piece of a compiled pattern: a literal
// string, a named parameter slot (:name), or a trailing wildcard (*).
type segment struct {
	value string
	kind  segmentKind
}

// compiledPattern is the matcher derived from a raw route pattern.
// Compilation happens once, at registration.
type compiledPattern struct {
	segments []segment
	wildcard bool
}

// compilePattern parses a route pattern into segment descriptors.
// The wildcard is only valid as the final segment.
func compilePattern(pattern string) (compiledPattern, error) {
	if !strings.HasPrefix(pattern, "/") {
		return compiledPattern{}, fmt.Errorf("route pattern %q must start with /", pattern)
	}

	raw := splitPath(pattern)
	cp := compiledPattern{segments: make([]segment, 0, len(raw))}

	for i, s := range raw {
		switch {
		case s == "*":
			if i != len(raw)-1 {
				return compiledPattern{}, fmt.Errorf("route pattern %q: wildcard must be the final segment", pattern)
			}
			cp.wildcard = true
			cp.segments = append(cp.segments, segment{kind: segWildcard})
		case strings.HasPrefix(s, ":"):
			name := s[1:]
			if name == "" {
				return compiledPattern{}, fmt.Errorf("route pattern %q: empty parameter name", pattern)
			}
			cp.segments = append(cp.segments, segment{kind: segParam, value: name})
		default:
			cp.segments = append(cp.segments, segment{kind: segLiteral, value: s})
		}
	}

	return cp, nil
}

// match tests the compiled pattern against already-split, still-escaped
// path segments. On success it returns the extracted parameters with
// percent-decoded values. Mismatched literals reject immediately; there
// is no backtracking across alternatives.
func (cp compiledPattern) match(pathSegs []string) (Params, bool) {
	if cp.wildcard {
		// Wildcard absorbs the remainder; everything before it must align.
		if len(pathSegs) < len(cp.segments)-1 {
			return nil, false
		}
	} else if len(pathSegs) != len(cp.segments) {
		return nil, false
	}

	params := make(Params, len(cp.segments))

	for i, seg := range cp.segments {
		switch seg.kind {
		case segLiteral:
			if decodeSegment(pathSegs[i]) != seg.value {
				return nil, false
			}
		case segParam:
			params[seg.value] = decodeSegment(pathSegs[i])
		case segWildcard:
			rest := make([]string, 0, len(pathSegs)-i)
			for _, s := range pathSegs[i:] {
				rest = append(rest, decodeSegment(s))
			}
			params["*"] = strings.Join(rest, "/")
			return params, true
		}
	}

	return params, true
}

// splitPath splits a path on / after trimming the leading slash.
// "/" yields no segments so it matches the root pattern exactly.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// decodeSegment percent-decodes one path segment, falling back to the
// raw value when the encoding is malformed.
func decodeSegment(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
