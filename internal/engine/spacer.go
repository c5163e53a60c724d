package engine

import (
	"fmt"

	"github.com/piwi3910/GlassCut/internal/model"
)

// SpacerRequests turns windows into cut requests, one bent spacer frame per
// window unit. The frame length is the window perimeter.
func SpacerRequests(windows []model.Window) []model.CutRequest {
	requests := make([]model.CutRequest, 0, len(windows))
	for _, w := range windows {
		if w.Quantity <= 0 {
			continue
		}
		requests = append(requests, model.NewCutRequest(w.Label, model.SpacerLength(w.Width, w.Height), w.Quantity))
	}
	return requests
}

// SpacerSideRequests is SpacerRequests for shops that cut straight spacer
// sides and join them with corner keys: two widths and two heights per unit.
func SpacerSideRequests(windows []model.Window) []model.CutRequest {
	requests := make([]model.CutRequest, 0, 2*len(windows))
	for _, w := range windows {
		if w.Quantity <= 0 {
			continue
		}
		requests = append(requests,
			model.NewCutRequest(fmt.Sprintf("%s width", w.Label), w.Width, 2*w.Quantity),
			model.NewCutRequest(fmt.Sprintf("%s height", w.Label), w.Height, 2*w.Quantity),
		)
	}
	return requests
}
