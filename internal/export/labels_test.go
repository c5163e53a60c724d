package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
)

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")
	plan, _ := buildTestPlan(t)

	if err := ExportLabels(path, plan); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportLabels_EmptyPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := ExportLabels(path, model.CuttingPlan{}); err == nil {
		t.Fatal("expected error for empty plan, got nil")
	}
}

func TestExportLabels_NoCuts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no_cuts.pdf")
	plan := model.CuttingPlan{
		StockLength: measure.FromInt(152),
		Sticks:      []model.Stick{{Index: 0}},
	}
	if err := ExportLabels(path, plan); err == nil {
		t.Fatal("expected error for plan with no cuts, got nil")
	}
}

func TestCollectLabelInfos(t *testing.T) {
	plan, _ := buildTestPlan(t)
	labels := CollectLabelInfos(plan)

	if len(labels) != 12 {
		t.Fatalf("expected 12 labels, got %d", len(labels))
	}

	first := labels[0]
	if first.Label != "A" || first.Length != "48 1/2" {
		t.Errorf("first label = %s %s, want A 48 1/2", first.Label, first.Length)
	}
	if first.Stick != 1 || first.Position != 1 {
		t.Errorf("first label at stick %d cut %d, want stick 1 cut 1", first.Stick, first.Position)
	}
	if first.RequestID != "a" {
		t.Errorf("expected request id a, got %q", first.RequestID)
	}

	// Stick 2 opens with the fourth A.
	if labels[3].Stick != 2 || labels[3].Position != 1 || labels[3].Label != "A" {
		t.Errorf("label 4 = %+v, want A at stick 2 cut 1", labels[3])
	}

	last := labels[len(labels)-1]
	if last.Stick != 4 || last.Position != 3 || last.Length != "36 1/2" {
		t.Errorf("last label = %+v, want 36 1/2 at stick 4 cut 3", last)
	}
}

func TestLabelInfo_QRPayload(t *testing.T) {
	info := LabelInfo{Label: "W1 top", Length: "24 1/2", Stick: 3, Position: 2, RequestID: "abc12345"}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	want := `{"label":"W1 top","length":"24 1/2","stick":3,"pos":2,"request_id":"abc12345"}`
	if string(data) != want {
		t.Errorf("payload = %s, want %s", data, want)
	}
}

func TestExportLabels_ManyCuts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many_labels.pdf")

	// 35 cuts spill onto a second label sheet.
	cuts := make([]model.Cut, 35)
	for i := range cuts {
		cuts[i] = model.Cut{Label: "Piece " + string(rune('A'+i%26)), Length: measure.FromInt(4)}
	}
	plan := model.CuttingPlan{
		StockLength: measure.FromInt(152),
		Sticks:      []model.Stick{{Index: 0, Cuts: cuts}},
	}

	if err := ExportLabels(path, plan); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("PDF file is empty")
	}
}

func TestLabelSheetOrigin(t *testing.T) {
	x, y := Avery5160.origin(0)
	if x != Avery5160.MarginLeft || y != Avery5160.MarginTop {
		t.Errorf("first label at (%v, %v), want the page margins", x, y)
	}

	// Fifth label: second row, middle column.
	x, y = Avery5160.origin(4)
	wantX := Avery5160.MarginLeft + Avery5160.Width + Avery5160.GapX
	wantY := Avery5160.MarginTop + Avery5160.Height
	if x != wantX || y != wantY {
		t.Errorf("label 5 at (%v, %v), want (%v, %v)", x, y, wantX, wantY)
	}

	// Label 31 starts the next page.
	x, y = Avery5160.origin(30)
	if x != Avery5160.MarginLeft || y != Avery5160.MarginTop {
		t.Errorf("label 31 at (%v, %v), want the page margins", x, y)
	}
}

func TestExportLabelsOn_RejectsTinySheet(t *testing.T) {
	plan, _ := buildTestPlan(t)
	tiny := LabelSheet{Name: "tiny", PageSize: "Letter", Width: 10, Height: 10, Cols: 1, Rows: 1}

	if err := ExportLabelsOn(filepath.Join(t.TempDir(), "tiny.pdf"), plan, tiny); err == nil {
		t.Fatal("expected error for a label narrower than its QR code")
	}
}
