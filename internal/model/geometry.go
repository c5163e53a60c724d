package model

import (
	"fmt"

	"github.com/piwi3910/GlassCut/internal/measure"
)

// RectPerimeter returns 2·(w+h). Pricing uses it for edge work and the
// cutting side uses it for spacer frames.
func RectPerimeter(w, h measure.Measurement) measure.Measurement {
	return w.Add(h).MulInt(2)
}

// SpacerLength is the total spacer bar needed to frame one window.
func SpacerLength(width, height measure.Measurement) measure.Measurement {
	return RectPerimeter(width, height)
}

// PaneDimensions returns the glass size for a window once the spacer or
// frame thickness is taken off each side of both axes.
func PaneDimensions(width, height, thickness measure.Measurement) (measure.Measurement, measure.Measurement, error) {
	if thickness.Sign() < 0 {
		return measure.Measurement{}, measure.Measurement{}, &InvalidSpecError{
			Field: "spacer_thickness", Value: thickness.Exact(), Reason: "must not be negative",
		}
	}
	twice := thickness.MulInt(2)
	w := width.Sub(twice)
	h := height.Sub(twice)
	if w.Sign() <= 0 {
		return measure.Measurement{}, measure.Measurement{}, &InvalidSpecError{
			Field: "width", Value: width.Exact(),
			Reason: fmt.Sprintf("leaves no glass after removing %s\" per side", thickness.Exact()),
		}
	}
	if h.Sign() <= 0 {
		return measure.Measurement{}, measure.Measurement{}, &InvalidSpecError{
			Field: "height", Value: height.Exact(),
			Reason: fmt.Sprintf("leaves no glass after removing %s\" per side", thickness.Exact()),
		}
	}
	return w, h, nil
}

// Window is an opening measured on site; it drives spacer and pane sizes.
type Window struct {
	Label    string              `json:"label" yaml:"label"`
	Width    measure.Measurement `json:"width" yaml:"width"`
	Height   measure.Measurement `json:"height" yaml:"height"`
	Quantity int                 `json:"quantity" yaml:"quantity"`
}
