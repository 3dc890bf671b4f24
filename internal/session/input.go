package session

import (
	"math"
	"strconv"
	"strings"
)

// ParseInputs reads the two form fields. A blank field counts as zero, which
// is what a freshly reset form holds.
func ParseInputs(earned, total string) (float64, float64, error) {
	e, err := parseField("earned", earned)
	if err != nil {
		return 0, 0, err
	}
	t, err := parseField("total", total)
	if err != nil {
		return 0, 0, err
	}
	return e, t, nil
}

func parseField(field, in string) (float64, error) {
	s := strings.TrimSpace(in)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Input: in, Err: err}
	}
	if !finite(v) {
		return 0, &ParseError{Field: field, Input: in, Err: errNotFinite}
	}
	return v, nil
}

// Validate applies the submission rules in order; the first failing rule wins.
// A zero total is reported as such even when earned is positive. NaN and
// infinities never reach the other rules.
func Validate(earned, total float64) error {
	switch {
	case !finite(earned) || !finite(total):
		return &ValidationError{Cause: CauseNotFinite}
	case total == 0:
		return &ValidationError{Cause: CauseZeroTotal}
	case earned > total:
		return &ValidationError{Cause: CauseEarnedExceedsTotal}
	case earned < 0 || total < 0:
		return &ValidationError{Cause: CauseNegativeValue}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
