package usecase

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternMode controls how keyword and exclusion strings become matchers
type PatternMode string

const (
	// PatternLiteral escapes every token, giving plain substring semantics
	PatternLiteral PatternMode = "literal"
	// PatternRegex uses tokens as RE2 expressions; invalid ones are skipped
	PatternRegex PatternMode = "regex"
)

// ParsePatternMode parses a mode name, defaulting to PatternLiteral
func ParsePatternMode(s string) (PatternMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PatternLiteral):
		return PatternLiteral, nil
	case string(PatternRegex):
		return PatternRegex, nil
	default:
		return PatternLiteral, fmt.Errorf("unknown pattern mode %q", s)
	}
}

// PatternError reports a token that could not be compiled
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// Matchers is a compiled keyword or exclusion set. It matches if any member matches.
type Matchers []*regexp.Regexp

// MatchAny reports whether any matcher fires on text
func (m Matchers) MatchAny(text string) bool {
	for _, rx := range m {
		if rx.MatchString(text) {
			return true
		}
	}
	return false
}

// CompilePatterns turns raw strings into case-insensitive "contains" matchers.
// Empty tokens are skipped since they would match everything. Tokens that fail
// to compile are left out of the set and reported in errs.
func CompilePatterns(raw []string, mode PatternMode) (m Matchers, errs []error) {
	for _, token := range raw {
		if token == "" {
			continue
		}

		expr := token
		if mode != PatternRegex {
			expr = regexp.QuoteMeta(token)
		}

		// RE2 matching is linear in the input, unanchored search equals .*tok.*
		rx, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			errs = append(errs, &PatternError{Pattern: token, Err: err})
			continue
		}
		m = append(m, rx)
	}
	return m, errs
}
