package importer

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
)

// DXFOptions supplies what a drawing cannot: the glass to quote and the
// drawing scale.
type DXFOptions struct {
	Thickness    string
	GlassType    model.GlassType
	UnitsPerInch float64 // 1 for inch drawings, 25.4 for millimetres
	Graduation   int64   // sizes are snapped to 1/Graduation inch, default 16
	Polished     bool
	Tempered     bool
	Tolerance    float64 // max deviation, in drawing units, for a shape to count as a rectangle
}

func (o DXFOptions) withDefaults() DXFOptions {
	if o.UnitsPerInch <= 0 {
		o.UnitsPerInch = 1
	}
	if o.Graduation <= 0 {
		o.Graduation = measure.DefaultMaxDenominator
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 0.01
	}
	return o
}

type point struct{ X, Y float64 }

// outline is a closed polygon; the last point connects back to the first.
type outline []point

func (o outline) boundingBox() (point, point) {
	min := point{math.Inf(1), math.Inf(1)}
	max := point{math.Inf(-1), math.Inf(-1)}
	for _, p := range o {
		min.X, min.Y = math.Min(min.X, p.X), math.Min(min.Y, p.Y)
		max.X, max.Y = math.Max(max.X, p.X), math.Max(max.Y, p.Y)
	}
	return min, max
}

// isRectangle reports whether every vertex sits on a bounding-box corner.
func (o outline) isRectangle(tol float64) bool {
	if len(o) != 4 {
		return false
	}
	min, max := o.boundingBox()
	for _, p := range o {
		onX := math.Abs(p.X-min.X) <= tol || math.Abs(p.X-max.X) <= tol
		onY := math.Abs(p.Y-min.Y) <= tol || math.Abs(p.Y-max.Y) <= tol
		if !onX || !onY {
			return false
		}
	}
	return true
}

// shape is one closed figure found in the drawing.
type shape struct {
	outline  outline
	circular bool
	diameter float64
}

// segment represents a line segment between two points, used for chaining
// disconnected LINE and ARC entities into closed outlines.
type segment struct {
	start point
	end   point
}

// ImportDXF turns every closed shape in a drawing into a glass item:
// circles become circular pieces, axis-aligned rectangles plain pieces and
// anything else a non-rectangular piece priced on its bounding box.
func ImportDXF(path string, opts DXFOptions) ImportResult {
	result := ImportResult{}
	opts = opts.withDefaults()

	if opts.Thickness == "" || opts.GlassType == "" {
		result.Errors = append(result.Errors, "DXF import needs a thickness and glass type")
		return result
	}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var shapes []shape
	var segments []segment

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			o := lwPolylineToOutline(e)
			if len(o) >= 3 {
				shapes = append(shapes, shape{outline: o})
			} else {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			shapes = append(shapes, shape{
				outline:  circleToOutline(e.Center[0], e.Center[1], e.Radius, 64),
				circular: true,
				diameter: 2 * e.Radius,
			})

		case *entity.Arc:
			pts := arcToPoints(e, 32)
			if len(pts) >= 2 {
				segments = append(segments, pointsToSegments(pts)...)
			}

		case *entity.Line:
			segments = append(segments, segment{
				start: point{X: e.Start[0], Y: e.Start[1]},
				end:   point{X: e.End[0], Y: e.End[1]},
			})
		}
	}

	for _, o := range chainSegments(segments, opts.Tolerance) {
		if len(o) >= 3 {
			shapes = append(shapes, shape{outline: o})
		}
	}

	if len(shapes) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	for _, s := range shapes {
		spec, ok := shapeToSpec(s, opts, len(result.Items)+1)
		if !ok {
			min, max := s.outline.boundingBox()
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.3f x %.3f)", max.X-min.X, max.Y-min.Y))
			continue
		}
		result.Items = append(result.Items, spec)
	}

	return result
}

// shapeToSpec sizes a shape in inches, snapped to the graduation.
func shapeToSpec(s shape, opts DXFOptions, n int) (model.GlassItemSpec, bool) {
	spec := model.GlassItemSpec{
		Label:     fmt.Sprintf("DXF piece %d", n),
		Thickness: opts.Thickness,
		GlassType: opts.GlassType,
		Quantity:  1,
		Polished:  opts.Polished,
		Tempered:  opts.Tempered,
	}

	if s.circular {
		spec.Circular = true
		spec.Diameter = toInches(s.diameter, opts)
		return spec, spec.Diameter.Sign() > 0
	}

	min, max := s.outline.boundingBox()
	spec.Width = toInches(max.X-min.X, opts)
	spec.Height = toInches(max.Y-min.Y, opts)
	spec.NonRectangular = !s.outline.isRectangle(opts.Tolerance)
	return spec, spec.Width.Sign() > 0 && spec.Height.Sign() > 0
}

func toInches(v float64, opts DXFOptions) measure.Measurement {
	r := new(big.Rat).SetFloat64(v / opts.UnitsPerInch)
	if r == nil {
		return measure.Measurement{}
	}
	return measure.Round(measure.FromRat(r), opts.Graduation)
}

// lwPolylineToOutline converts a DXF LWPOLYLINE entity to an outline.
// Bulge values on vertices produce interpolated arc segments.
func lwPolylineToOutline(lw *entity.LwPolyline) outline {
	var o outline
	n := len(lw.Vertices)
	// A duplicated closing vertex adds nothing.
	if n > 3 && lw.Vertices[0][0] == lw.Vertices[n-1][0] && lw.Vertices[0][1] == lw.Vertices[n-1][1] {
		n--
	}

	for i := 0; i < n; i++ {
		v := lw.Vertices[i]
		current := point{X: v[0], Y: v[1]}

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}

		if math.Abs(bulge) > 1e-9 {
			nextIdx := (i + 1) % n
			next := point{X: lw.Vertices[nextIdx][0], Y: lw.Vertices[nextIdx][1]}
			arcPts := bulgeArcPoints(current, next, bulge, 32)
			o = append(o, arcPts[:len(arcPts)-1]...)
		} else {
			o = append(o, current)
		}
	}

	return o
}

// bulgeArcPoints generates points along an arc defined by two endpoints and a
// DXF bulge factor. The bulge is the tangent of 1/4 the included angle.
func bulgeArcPoints(p1, p2 point, bulge float64, numSegments int) outline {
	mx := (p1.X + p2.X) / 2
	my := (p1.Y + p2.Y) / 2
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	chordLen := math.Hypot(dx, dy)
	if chordLen < 1e-9 {
		return outline{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	perpX := -dy / chordLen
	perpY := dx / chordLen
	dist := radius - sagitta
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	cx := mx + perpX*dist
	cy := my + perpY*dist

	startAngle := math.Atan2(p1.Y-cy, p1.X-cx)
	endAngle := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}

	pts := make(outline, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts = append(pts, point{X: cx + radius*math.Cos(angle), Y: cy + radius*math.Sin(angle)})
	}
	return pts
}

// circleToOutline approximates a circle as a regular polygon.
func circleToOutline(cx, cy, r float64, numSegments int) outline {
	o := make(outline, numSegments)
	for i := 0; i < numSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numSegments)
		o[i] = point{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return o
}

// arcToPoints converts a DXF ARC entity to a series of line points.
func arcToPoints(a *entity.Arc, numSegments int) []point {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius
	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]point, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = point{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return pts
}

func pointsToSegments(pts []point) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects individual segments into closed outlines. Chains
// that do not close are dropped. Results are ordered largest area first.
func chainSegments(segs []segment, tolerance float64) []outline {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var outlines []outline

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := outline{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		for changed := true; changed; {
			changed = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
				} else if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
				} else {
					continue
				}
				used[i] = true
				changed = true
				break
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		}
	}

	sort.SliceStable(outlines, func(i, j int) bool {
		return outlineArea(outlines[i]) > outlineArea(outlines[j])
	})
	return outlines
}

func pointsClose(a, b point, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}

// outlineArea computes the absolute area of a polygon using the shoelace formula.
func outlineArea(o outline) float64 {
	n := len(o)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += o[i].X*o[j].Y - o[j].X*o[i].Y
	}
	return math.Abs(area) / 2
}
