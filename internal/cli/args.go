package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
)

// splitLabel splits "Kitchen:48 1/2" into its label and the rest.
func splitLabel(arg string) (string, string) {
	if i := strings.Index(arg, ":"); i >= 0 {
		return strings.TrimSpace(arg[:i]), strings.TrimSpace(arg[i+1:])
	}
	return "", strings.TrimSpace(arg)
}

// splitQuantity splits a trailing "*3" (or "x3" when allowX is set) from s.
// A suffix that is not a positive whole number is left in place.
func splitQuantity(s string, allowX bool) (string, int, error) {
	seps := "*"
	if allowX {
		seps = "*xX"
	}
	i := strings.LastIndexAny(s, seps)
	if i < 0 {
		return s, 1, nil
	}
	qty, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if err != nil {
		if s[i] == '*' {
			return "", 0, fmt.Errorf("invalid quantity %q", s[i+1:])
		}
		return s, 1, nil
	}
	if qty < 1 {
		return "", 0, fmt.Errorf("quantity must be at least 1, got %d", qty)
	}
	return strings.TrimSpace(s[:i]), qty, nil
}

// parsePieceArg reads one cut request written as [label:]length[*qty], for
// example "A:48 1/2*4" or "36.5x2".
func parsePieceArg(arg string) (model.CutRequest, error) {
	label, rest := splitLabel(arg)
	text, qty, err := splitQuantity(rest, true)
	if err != nil {
		return model.CutRequest{}, fmt.Errorf("piece %q: %w", arg, err)
	}
	length, err := measure.Parse(text)
	if err != nil {
		return model.CutRequest{}, err
	}
	if label == "" {
		label = length.Exact() + `"`
	}
	return model.NewCutRequest(label, length, qty), nil
}

// parseWindowArg reads one window written as [label:]WxH[*qty], for example
// "Kitchen:24 1/2x36*2".
func parseWindowArg(arg string, n int) (model.Window, error) {
	label, rest := splitLabel(arg)
	text, qty, err := splitQuantity(rest, false)
	if err != nil {
		return model.Window{}, fmt.Errorf("window %q: %w", arg, err)
	}
	i := strings.IndexAny(text, "xX")
	if i < 0 {
		return model.Window{}, fmt.Errorf("window %q: expected WIDTHxHEIGHT", arg)
	}
	w, err := measure.Parse(strings.TrimSpace(text[:i]))
	if err != nil {
		return model.Window{}, err
	}
	h, err := measure.Parse(strings.TrimSpace(text[i+1:]))
	if err != nil {
		return model.Window{}, err
	}
	if label == "" {
		label = fmt.Sprintf("Window %d", n)
	}
	return model.Window{Label: label, Width: w, Height: h, Quantity: qty}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
