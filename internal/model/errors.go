package model

import (
	"errors"
	"fmt"

	"github.com/piwi3910/GlassCut/internal/measure"
)

// Error codes reported to callers alongside the message.
const (
	CodeParseError    = measure.CodeParseError
	CodeConfigMissing = "CONFIG_MISSING"
	CodeInvalidSpec   = "INVALID_SPEC"
	CodeInvalidCut    = "INVALID_CUT"
)

// Sentinels for errors.Is matching.
var (
	ErrParse         = measure.ErrParse
	ErrConfigMissing = errors.New("pricing configuration missing")
	ErrInvalidSpec   = errors.New("invalid glass item specification")
	ErrInvalidCut    = errors.New("invalid cut request")
)

// ParseError is re-exported so callers only need this package for the taxonomy.
type ParseError = measure.ParseError

// ConfigMissingError reports a rate-table lookup with no entry. Either
// Thickness/GlassType or Key is set, never both.
type ConfigMissingError struct {
	Thickness string `json:"thickness,omitempty"`
	GlassType string `json:"glass_type,omitempty"`
	Key       string `json:"key,omitempty"`
}

func (e *ConfigMissingError) Error() string {
	switch {
	case e.Key != "" && e.Thickness != "":
		return fmt.Sprintf("no %s rate configured for thickness %s", e.Key, e.Thickness)
	case e.Key != "":
		return fmt.Sprintf("no pricing configuration for key %q", e.Key)
	default:
		return fmt.Sprintf("no rate configured for thickness %s, glass type %q", e.Thickness, e.GlassType)
	}
}

func (e *ConfigMissingError) Is(target error) bool { return target == ErrConfigMissing }
func (e *ConfigMissingError) Code() string         { return CodeConfigMissing }

// InvalidSpecError reports a GlassItemSpec field that breaks a business rule.
type InvalidSpecError struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidSpecError) Is(target error) bool { return target == ErrInvalidSpec }
func (e *InvalidSpecError) Code() string         { return CodeInvalidSpec }

// InvalidCutError reports a piece that can never be packed into the stock.
type InvalidCutError struct {
	Label       string              `json:"label"`
	Length      measure.Measurement `json:"length"`
	StockLength measure.Measurement `json:"stock_length"`
	Reason      string              `json:"reason"`
}

func (e *InvalidCutError) Error() string {
	return fmt.Sprintf("cannot cut %q (%s\"): %s (stock %s\")",
		e.Label, e.Length.Exact(), e.Reason, e.StockLength.Exact())
}

func (e *InvalidCutError) Is(target error) bool { return target == ErrInvalidCut }
func (e *InvalidCutError) Code() string         { return CodeInvalidCut }

// ErrorCode returns the taxonomy code carried by err, or "" when err is not
// one of the domain errors.
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
