package measure

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// CodeParseError is the error code reported for malformed measurement text.
const CodeParseError = "PARSE_ERROR"

// ErrParse matches any *ParseError via errors.Is.
var ErrParse = errors.New("measurement parse error")

// ParseError reports measurement text that matches none of the accepted
// grammars. Input is the text exactly as the user entered it.
type ParseError struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid measurement %q: %s", e.Input, e.Reason)
}

// Is lets errors.Is(err, ErrParse) match.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Code returns CodeParseError.
func (e *ParseError) Code() string { return CodeParseError }

var (
	unitSuffixRe = regexp.MustCompile(`(?i)\s*(?:"|''|in\.?|inch(?:es)?)$`)
	mixedRe      = regexp.MustCompile(`^([+-]?)(\d+)(?:\s+|-)(\d+)\s*/\s*(\d+)$`)
	fractionRe   = regexp.MustCompile(`^([+-]?)(\d+)\s*/\s*(\d+)$`)
	decimalRe    = regexp.MustCompile(`^([+-]?)(\d*\.\d+|\d+\.)$`)
	wholeRe      = regexp.MustCompile(`^([+-]?)(\d+)$`)
)

// Parse reads a measurement in one of four grammars: whole ("24"),
// fraction ("3/4", "49/2"), decimal ("24.5") or mixed ("24 1/2", "-24 1/2",
// "24-1/2"). A trailing inch mark (`"`, "in", "inches") is ignored.
func Parse(text string) (Measurement, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Measurement{}, &ParseError{Input: text, Reason: "empty input"}
	}
	s = strings.TrimSpace(unitSuffixRe.ReplaceAllString(s, ""))
	if s == "" {
		return Measurement{}, &ParseError{Input: text, Reason: "no numeric value"}
	}

	if m := mixedRe.FindStringSubmatch(s); m != nil {
		whole, _ := new(big.Int).SetString(m[2], 10)
		frac, err := ratio(text, m[3], m[4])
		if err != nil {
			return Measurement{}, err
		}
		r := new(big.Rat).Add(new(big.Rat).SetInt(whole), frac)
		return signed(m[1], r), nil
	}

	if m := fractionRe.FindStringSubmatch(s); m != nil {
		r, err := ratio(text, m[2], m[3])
		if err != nil {
			return Measurement{}, err
		}
		return signed(m[1], r), nil
	}

	if m := decimalRe.FindStringSubmatch(s); m != nil {
		digits := m[2]
		if strings.HasSuffix(digits, ".") {
			digits += "0"
		}
		if strings.HasPrefix(digits, ".") {
			digits = "0" + digits
		}
		r, ok := new(big.Rat).SetString(digits)
		if !ok {
			return Measurement{}, &ParseError{Input: text, Reason: "malformed decimal"}
		}
		return signed(m[1], r), nil
	}

	if m := wholeRe.FindStringSubmatch(s); m != nil {
		n, _ := new(big.Int).SetString(m[2], 10)
		return signed(m[1], new(big.Rat).SetInt(n)), nil
	}

	if strings.Contains(s, "/") {
		return Measurement{}, &ParseError{Input: text, Reason: "malformed fraction"}
	}
	return Measurement{}, &ParseError{Input: text, Reason: "not a whole number, fraction, decimal or mixed number"}
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(text string) Measurement {
	m, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return m
}

// Validate reports whether text parses as a measurement.
func Validate(text string) bool {
	_, err := Parse(text)
	return err == nil
}

func ratio(input, num, den string) (*big.Rat, error) {
	n, _ := new(big.Int).SetString(num, 10)
	d, _ := new(big.Int).SetString(den, 10)
	if d.Sign() == 0 {
		return nil, &ParseError{Input: input, Reason: "zero denominator"}
	}
	return new(big.Rat).SetFrac(n, d), nil
}

func signed(sign string, r *big.Rat) Measurement {
	if sign == "-" {
		r.Neg(r)
	}
	return Measurement{r: r}
}
