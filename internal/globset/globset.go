// Package globset compiles and matches gitignore-style glob patterns,
// including recursive "**" segments, against slash-separated relative
// paths. No third-party glob library capable of "**" exists anywhere in
// the retrieved example pack (only stdlib path/filepath.Match, which
// cannot express "**" at all) — see DESIGN.md for the full justification.
package globset

import (
	"fmt"
	"strings"
)

// Pattern is one compiled glob pattern.
type Pattern struct {
	raw      string
	segments []string
}

// Compile parses pattern into its slash-separated segments. It fails only
// for an empty pattern: any sequence of non-slash runes is a valid
// segment, including a bare "**".
func Compile(pattern string) (*Pattern, error) {
	if pattern == "" {
		return nil, fmt.Errorf("globset: %w", errEmptyPattern)
	}

	return &Pattern{raw: pattern, segments: strings.Split(pattern, "/")}, nil
}

var errEmptyPattern = fmt.Errorf("empty pattern")

// String returns the original pattern text.
func (p *Pattern) String() string { return p.raw }

// Match reports whether path (slash-separated, relative, no leading
// slash) matches the pattern.
func (p *Pattern) Match(path string) bool {
	pathSegments := strings.Split(path, "/")

	return matchSegments(p.segments, pathSegments)
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}

	head := pattern[0]

	if head == "**" {
		if len(pattern) == 1 {
			return true
		}

		for i := 0; i <= len(path); i++ {
			if matchSegments(pattern[1:], path[i:]) {
				return true
			}
		}

		return false
	}

	if len(path) == 0 {
		return false
	}

	if !matchSegment(head, path[0]) {
		return false
	}

	return matchSegments(pattern[1:], path[1:])
}

// matchSegment matches one path segment against one pattern segment
// supporting "*" (any run of characters) and "?" (any single character).
func matchSegment(pattern, segment string) bool {
	return matchRunes([]rune(pattern), []rune(segment))
}

func matchRunes(pattern, segment []rune) bool {
	if len(pattern) == 0 {
		return len(segment) == 0
	}

	switch pattern[0] {
	case '*':
		for i := 0; i <= len(segment); i++ {
			if matchRunes(pattern[1:], segment[i:]) {
				return true
			}
		}

		return false
	case '?':
		if len(segment) == 0 {
			return false
		}

		return matchRunes(pattern[1:], segment[1:])
	default:
		if len(segment) == 0 || segment[0] != pattern[0] {
			return false
		}

		return matchRunes(pattern[1:], segment[1:])
	}
}

// Set is a compiled collection of patterns matched as a disjunction: a
// path matches the set if it matches any one pattern.
type Set struct {
	patterns []*Pattern
}

// NewSet compiles every pattern in patterns into a Set.
func NewSet(patterns []string) (*Set, error) {
	s := &Set{patterns: make([]*Pattern, 0, len(patterns))}

	for _, raw := range patterns {
		p, err := Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("globset: compile %q: %w", raw, err)
		}

		s.patterns = append(s.patterns, p)
	}

	return s, nil
}

// Match reports whether path matches any pattern in the set. An empty set
// never matches.
func (s *Set) Match(path string) bool {
	if s == nil {
		return false
	}

	for _, p := range s.patterns {
		if p.Match(path) {
			return true
		}
	}

	return false
}

// Len returns the number of compiled patterns in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.patterns)
}
