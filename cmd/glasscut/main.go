// GlassCut: glass quoting and spacer cut optimizer for window shops
//
// Prices glass pieces from a configurable rate table, packs spacer bar
// cuts onto stock sticks with minimal waste, and serves both over HTTP.
//
// Build:
//   go build -o glasscut ./cmd/glasscut
//
// Quick start:
//   glasscut config init
//   glasscut quote --width 24 --height 36 --thickness 1/4 --polished
//   glasscut cut "A:48 1/2*4" "B:36 1/2*4" "C:42*4" --pdf plan.pdf
//   glasscut serve --port 8080

package main

import "github.com/piwi3910/GlassCut/internal/cli"

func main() {
	cli.Execute()
}
