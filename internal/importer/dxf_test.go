package importer

import (
	"path/filepath"
	"testing"

	"github.com/yofu/dxf"

	"github.com/piwi3910/GlassCut/internal/model"
)

func TestOutlineIsRectangle(t *testing.T) {
	rect := outline{{0, 0}, {24, 0}, {24, 36}, {0, 36}}
	if !rect.isRectangle(0.01) {
		t.Error("expected rectangle")
	}
	trapezoid := outline{{0, 0}, {24, 0}, {20, 36}, {4, 36}}
	if trapezoid.isRectangle(0.01) {
		t.Error("trapezoid is not a rectangle")
	}
	triangle := outline{{0, 0}, {24, 0}, {12, 20}}
	if triangle.isRectangle(0.01) {
		t.Error("triangle is not a rectangle")
	}
}

func TestChainSegments(t *testing.T) {
	segs := []segment{
		{point{0, 0}, point{10, 0}},
		{point{10, 10}, point{10, 0}}, // reversed
		{point{10, 10}, point{0, 10}},
		{point{0, 10}, point{0, 0}},
		{point{50, 50}, point{60, 50}}, // open, dropped
	}
	outlines := chainSegments(segs, 0.01)
	if len(outlines) != 1 {
		t.Fatalf("expected 1 closed outline, got %d", len(outlines))
	}
	if len(outlines[0]) != 4 {
		t.Errorf("expected 4 vertices, got %d", len(outlines[0]))
	}
	if area := outlineArea(outlines[0]); area != 100 {
		t.Errorf("expected area 100, got %f", area)
	}
}

func TestShapeToSpec(t *testing.T) {
	opts := DXFOptions{Thickness: `1/4"`, GlassType: model.GlassClear, UnitsPerInch: 25.4}.withDefaults()

	rect := shape{outline: outline{{0, 0}, {622.3, 0}, {622.3, 914.4}, {0, 914.4}}}
	spec, ok := shapeToSpec(rect, opts, 1)
	if !ok {
		t.Fatal("expected valid spec")
	}
	if spec.Width.Exact() != "24 1/2" || spec.Height.Exact() != "36" {
		t.Errorf("expected 24 1/2 x 36, got %s x %s", spec.Width.Exact(), spec.Height.Exact())
	}
	if spec.NonRectangular || spec.Circular {
		t.Errorf("unexpected shape flags %+v", spec)
	}

	circle := shape{circular: true, diameter: 609.6, outline: circleToOutline(0, 0, 304.8, 16)}
	spec, ok = shapeToSpec(circle, opts, 2)
	if !ok || !spec.Circular || spec.Diameter.Exact() != "24" {
		t.Errorf("unexpected circle spec %+v", spec)
	}

	tri := shape{outline: outline{{0, 0}, {254, 0}, {127, 254}}}
	spec, _ = shapeToSpec(tri, opts, 3)
	if !spec.NonRectangular || spec.Label != "DXF piece 3" {
		t.Errorf("unexpected triangle spec %+v", spec)
	}

	flat := shape{outline: outline{{0, 0}, {10, 0}, {20, 0}}}
	if _, ok := shapeToSpec(flat, opts, 4); ok {
		t.Error("expected degenerate shape to be rejected")
	}
}

func TestImportDXF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lites.dxf")
	d := dxf.NewDrawing()
	d.Line(0, 0, 0, 24, 0, 0)
	d.Line(24, 0, 0, 24, 36, 0)
	d.Line(24, 36, 0, 0, 36, 0)
	d.Line(0, 36, 0, 0, 0, 0)
	d.Circle(100, 100, 0, 12)
	if err := d.SaveAs(path); err != nil {
		t.Fatalf("failed to write DXF: %v", err)
	}

	result := ImportDXF(path, DXFOptions{Thickness: `1/4"`, GlassType: model.GlassClear})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}

	var rect, circle *model.GlassItemSpec
	for i := range result.Items {
		if result.Items[i].Circular {
			circle = &result.Items[i]
		} else {
			rect = &result.Items[i]
		}
	}
	if rect == nil || rect.Width.Exact() != "24" || rect.Height.Exact() != "36" || rect.NonRectangular {
		t.Errorf("unexpected rectangle %+v", rect)
	}
	if circle == nil || circle.Diameter.Exact() != "24" {
		t.Errorf("unexpected circle %+v", circle)
	}
}

func TestImportDXF_Errors(t *testing.T) {
	result := ImportDXF("whatever.dxf", DXFOptions{})
	if len(result.Errors) != 1 {
		t.Errorf("expected missing glass error, got %v", result.Errors)
	}
	result = ImportDXF("/nonexistent.dxf", DXFOptions{Thickness: "1/4", GlassType: model.GlassClear})
	if len(result.Errors) != 1 {
		t.Errorf("expected open error, got %v", result.Errors)
	}
}
