// FILE: internal/fetch/period.go
package fetch

import (
	"fmt"
	"regexp"
	"strings"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Range is an inclusive YYYY-MM window, empty bounds are open
type Range struct {
	From string
	To   string
}

func (r Range) Validate() error {
	for _, p := range []string{r.From, r.To} {
		if p != "" && !periodPattern.MatchString(p) {
			return fmt.Errorf("invalid period %q (want YYYY-MM)", p)
		}
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return fmt.Errorf("period %s is after %s", r.From, r.To)
	}
	return nil
}

// Contains compares periods as text, which orders correctly for YYYY-MM
func (r Range) Contains(period string) bool {
	if r.From != "" && period < r.From {
		return false
	}
	if r.To != "" && period > r.To {
		return false
	}
	return true
}

// Filter keeps archive URLs whose period is in range, preserving order
func (r Range) Filter(archives []string) []string {
	out := make([]string, 0, len(archives))
	for _, a := range archives {
		if r.Contains(Period(a)) {
			out = append(out, a)
		}
	}
	return out
}

// Period extracts YYYY-MM from an archive URL ending in /YYYY/MM
func Period(archiveURL string) string {
	parts := strings.Split(strings.TrimRight(archiveURL, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2] + "-" + parts[len(parts)-1]
}
