// FILE: internal/annotation/annotation.go
// Package annotation recovers clock and evaluation commands embedded in
// PGN move commentary, e.g. "{[%clk 0:04:58.3] [%eval -0.41]}".
package annotation

import (
	"regexp"
	"strconv"
	"strings"

	"chesspipe/internal/core"
)

var (
	clockPattern = regexp.MustCompile(`\[%clk\s+(\d+:[0-5]\d:[0-5]\d(?:\.\d+)?)\s*\]`)
	evalPattern  = regexp.MustCompile(`\[%eval\s+([^\]\s]+)[^\]]*\]`)

	// Plain decimal only, Go literal forms like "0x1p4" or "1_0" are malformed
	scorePattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	matePattern  = regexp.MustCompile(`^[+-]?\d+$`)
)

// Annotation holds what was found in one comment. Clock is empty and Eval
// unset when the corresponding command is absent or malformed.
type Annotation struct {
	Clock string
	Eval  core.Eval
}

// Extract parses a single comment. It never fails: anything it cannot read
// is left unset.
func Extract(comment string) Annotation {
	var a Annotation
	if comment == "" {
		return a
	}

	if m := clockPattern.FindStringSubmatch(comment); m != nil {
		a.Clock = m[1]
	}
	if m := evalPattern.FindStringSubmatch(comment); m != nil {
		a.Eval = parseEval(m[1])
	}
	return a
}

// parseEval reads "1.25", "-0.4", "+3", "#3", "#-2" and the "0.17,23" form
// some tools write with a depth suffix
func parseEval(v string) core.Eval {
	v, _, _ = strings.Cut(v, ",")

	if rest, ok := strings.CutPrefix(v, "#"); ok {
		if !matePattern.MatchString(rest) {
			return core.Eval{}
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			return core.Eval{}
		}
		return core.Mate(n)
	}

	if !scorePattern.MatchString(v) {
		return core.Eval{}
	}
	p, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return core.Eval{}
	}
	return core.Score(p)
}

