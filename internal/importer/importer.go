// Package importer provides CSV and Excel import of window lists, spacer cut
// lists and glass orders. It supports automatic delimiter detection, flexible
// column mapping, case-insensitive header recognition and shop-floor
// measurement notation ("24 1/2", "3/4", "24.5").
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
)

// Kind selects what each imported row describes.
type Kind int

const (
	KindWindows Kind = iota // label, width, height, quantity
	KindCutList             // label, length, quantity
	KindGlass               // label, width, height, quantity, thickness, glass type, options
)

func (k Kind) String() string {
	switch k {
	case KindCutList:
		return "cut list"
	case KindGlass:
		return "glass"
	default:
		return "windows"
	}
}

// ImportResult holds the results of an import operation. Only the slice
// matching the requested Kind is filled.
type ImportResult struct {
	Windows  []model.Window
	Requests []model.CutRequest
	Items    []model.GlassItemSpec
	Errors   []string
	Warnings []string
}

// Count returns how many rows were imported.
func (r ImportResult) Count() int {
	return len(r.Windows) + len(r.Requests) + len(r.Items)
}

// ColumnMapping maps semantic column roles to their indices in the data.
// -1 means the column is absent.
type ColumnMapping struct {
	Label     int
	Width     int
	Height    int
	Length    int
	Quantity  int
	Thickness int
	GlassType int
	Polished  int
	Beveled   int
	Tempered  int
	Shape     int
	Diameter  int
	Clips     int
	ClipSize  int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label":     {"label", "name", "window", "description", "desc", "piece", "item", "mark", "location"},
	"width":     {"width", "w", "x"},
	"height":    {"height", "h", "y"},
	"length":    {"length", "len", "cut", "cut length", "size"},
	"quantity":  {"quantity", "qty", "count", "num", "pcs", "pieces"},
	"thickness": {"thickness", "thick", "t", "glass thickness"},
	"glasstype": {"type", "glass", "glass type", "glass_type", "material"},
	"polished":  {"polished", "polish", "polished edges"},
	"beveled":   {"beveled", "bevel", "bevelled"},
	"tempered":  {"tempered", "temper", "tempering"},
	"shape":     {"shape", "non rectangular", "non_rectangular", "pattern"},
	"diameter":  {"diameter", "dia", "circle"},
	"clips":     {"clips", "clipped corners", "clipped_corners", "corners"},
	"clipsize":  {"clip size", "clip_size", "corner size"},
}

func emptyMapping() ColumnMapping {
	return ColumnMapping{
		Label: -1, Width: -1, Height: -1, Length: -1, Quantity: -1,
		Thickness: -1, GlassType: -1, Polished: -1, Beveled: -1, Tempered: -1,
		Shape: -1, Diameter: -1, Clips: -1, ClipSize: -1,
	}
}

// positionalMapping is used when the file has no recognizable header.
func positionalMapping(kind Kind) ColumnMapping {
	m := emptyMapping()
	m.Label = 0
	switch kind {
	case KindCutList:
		m.Length, m.Quantity = 1, 2
	case KindGlass:
		m.Width, m.Height, m.Quantity, m.Thickness, m.GlassType = 1, 2, 3, 4, 5
	default:
		m.Width, m.Height, m.Quantity = 1, 2, 3
	}
	return m
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping for kind and false if no header was found.
func DetectColumns(row []string, kind Kind) (ColumnMapping, bool) {
	mapping := emptyMapping()
	slots := map[string]*int{
		"label": &mapping.Label, "width": &mapping.Width, "height": &mapping.Height,
		"length": &mapping.Length, "quantity": &mapping.Quantity, "thickness": &mapping.Thickness,
		"glasstype": &mapping.GlassType, "polished": &mapping.Polished, "beveled": &mapping.Beveled,
		"tempered": &mapping.Tempered, "shape": &mapping.Shape, "diameter": &mapping.Diameter,
		"clips": &mapping.Clips, "clipsize": &mapping.ClipSize,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias && *slots[role] == -1 {
					*slots[role] = i
					isHeader = true
				}
			}
		}
	}

	if !isHeader {
		return positionalMapping(kind), false
	}
	return mapping, true
}

// requiredColumns lists the roles a header must provide for kind.
func requiredColumns(m ColumnMapping, kind Kind) []string {
	var missing []string
	need := func(idx int, name string) {
		if idx == -1 {
			missing = append(missing, name)
		}
	}
	switch kind {
	case KindCutList:
		need(m.Length, "Length")
	case KindGlass:
		if m.Diameter == -1 {
			need(m.Width, "Width")
			need(m.Height, "Height")
		}
		need(m.Thickness, "Thickness")
		need(m.GlassType, "Type")
	default:
		need(m.Width, "Width")
		need(m.Height, "Height")
	}
	need(m.Quantity, "Quantity")
	return missing
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseFlag reads yes/no style cells. Unknown text reports ok=false.
func parseFlag(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1", "x":
		return true, true
	case "", "n", "no", "false", "0", "-":
		return false, true
	}
	return false, false
}

// parseGlassType maps common spellings onto the known glass types. Anything
// else passes through lower-cased so shop-specific rows still match the table.
func parseGlassType(s string) model.GlassType {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "low e", "lowe", "low_e", "low-e":
		return model.GlassLowE
	case "grey":
		return model.GlassGray
	case "obscure", "satin", "acid etched":
		return model.GlassFrosted
	}
	return model.GlassType(t)
}

func parseLength(row []string, idx int, name, rowLabel string) (measure.Measurement, string) {
	text := getCell(row, idx)
	if text == "" {
		return measure.Measurement{}, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
	}
	m, err := measure.Parse(text)
	if err != nil {
		return measure.Measurement{}, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, text)
	}
	if m.Sign() <= 0 {
		return measure.Measurement{}, fmt.Sprintf("%s: %s must be positive", rowLabel, strings.ToUpper(name[:1])+name[1:])
	}
	return m, ""
}

func parseQuantity(row []string, idx int, rowLabel string) (int, string) {
	text := getCell(row, idx)
	if text == "" {
		return 0, fmt.Sprintf("%s: Missing quantity value", rowLabel)
	}
	qty, err := strconv.Atoi(text)
	if err != nil {
		// Excel hands whole numbers back as "2.0" at times
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, text)
		}
		qty = int(f)
	}
	if qty <= 0 {
		return 0, fmt.Sprintf("%s: Quantity must be positive", rowLabel)
	}
	return qty, ""
}

// rowLabelOr returns the label cell or a numbered fallback.
func rowLabelOr(row []string, mapping ColumnMapping, prefix string, n int) string {
	if label := getCell(row, mapping.Label); label != "" {
		return label
	}
	return fmt.Sprintf("%s %d", prefix, n+1)
}

func parseWindowRow(row []string, mapping ColumnMapping, rowLabel string, n int) (model.Window, string) {
	width, msg := parseLength(row, mapping.Width, "width", rowLabel)
	if msg != "" {
		return model.Window{}, msg
	}
	height, msg := parseLength(row, mapping.Height, "height", rowLabel)
	if msg != "" {
		return model.Window{}, msg
	}
	qty, msg := parseQuantity(row, mapping.Quantity, rowLabel)
	if msg != "" {
		return model.Window{}, msg
	}
	return model.Window{
		Label:    rowLabelOr(row, mapping, "Window", n),
		Width:    width,
		Height:   height,
		Quantity: qty,
	}, ""
}

func parseCutRow(row []string, mapping ColumnMapping, rowLabel string, n int) (model.CutRequest, string) {
	length, msg := parseLength(row, mapping.Length, "length", rowLabel)
	if msg != "" {
		return model.CutRequest{}, msg
	}
	qty, msg := parseQuantity(row, mapping.Quantity, rowLabel)
	if msg != "" {
		return model.CutRequest{}, msg
	}
	return model.NewCutRequest(rowLabelOr(row, mapping, "Cut", n), length, qty), ""
}

// parseGlassRow returns the item, an error message and any warnings.
func parseGlassRow(row []string, mapping ColumnMapping, rowLabel string, n int) (model.GlassItemSpec, string, []string) {
	var warnings []string
	spec := model.GlassItemSpec{Label: rowLabelOr(row, mapping, "Item", n)}

	if dia := getCell(row, mapping.Diameter); dia != "" {
		d, msg := parseLength(row, mapping.Diameter, "diameter", rowLabel)
		if msg != "" {
			return model.GlassItemSpec{}, msg, nil
		}
		spec.Circular = true
		spec.Diameter = d
	} else {
		var msg string
		if spec.Width, msg = parseLength(row, mapping.Width, "width", rowLabel); msg != "" {
			return model.GlassItemSpec{}, msg, nil
		}
		if spec.Height, msg = parseLength(row, mapping.Height, "height", rowLabel); msg != "" {
			return model.GlassItemSpec{}, msg, nil
		}
	}

	qty, msg := parseQuantity(row, mapping.Quantity, rowLabel)
	if msg != "" {
		return model.GlassItemSpec{}, msg, nil
	}
	spec.Quantity = qty

	spec.Thickness = getCell(row, mapping.Thickness)
	if spec.Thickness == "" {
		return model.GlassItemSpec{}, fmt.Sprintf("%s: Missing thickness value", rowLabel), nil
	}
	glassType := getCell(row, mapping.GlassType)
	if glassType == "" {
		return model.GlassItemSpec{}, fmt.Sprintf("%s: Missing glass type", rowLabel), nil
	}
	spec.GlassType = parseGlassType(glassType)

	flags := []struct {
		idx  int
		name string
		dst  *bool
	}{
		{mapping.Polished, "polished", &spec.Polished},
		{mapping.Beveled, "beveled", &spec.Beveled},
		{mapping.Tempered, "tempered", &spec.Tempered},
		{mapping.Shape, "shape", &spec.NonRectangular},
	}
	for _, f := range flags {
		text := getCell(row, f.idx)
		v, ok := parseFlag(text)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown %s value '%s', treating as no", rowLabel, f.name, text))
		}
		*f.dst = v
	}

	if clips := getCell(row, mapping.Clips); clips != "" {
		count, err := strconv.Atoi(clips)
		if err != nil || count < 0 || count > 4 {
			return model.GlassItemSpec{}, fmt.Sprintf("%s: Invalid clipped corner count '%s'", rowLabel, clips), nil
		}
		spec.ClippedCorners.Count = count
		if count > 0 {
			size := model.ClipSize(strings.ToLower(getCell(row, mapping.ClipSize)))
			if size == "" {
				size = model.ClipUnder1
				warnings = append(warnings, fmt.Sprintf("%s: No clip size given, assuming %s", rowLabel, size))
			}
			spec.ClippedCorners.Size = size
		}
	}

	return spec, "", warnings
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportFile picks the reader from the file extension: .csv and .txt as CSV,
// .xlsx/.xlsm as Excel and .dxf as drawn glass shapes.
func ImportFile(path string, kind Kind, dxfOpts DXFOptions) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ImportExcel(path, kind)
	case ".dxf":
		if kind != KindGlass {
			return ImportResult{Errors: []string{"DXF files can only be imported as glass items"}}
		}
		return ImportDXF(path, dxfOpts)
	default:
		return ImportCSV(path, kind)
	}
}

// ImportCSV imports rows from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string, kind Kind) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, kind, "Line", result.Warnings)
}

// ImportCSVFromReader imports rows from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune, kind Kind) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, kind, "Line", nil)
}

// ImportExcel imports rows from the first sheet of an Excel workbook.
func ImportExcel(path string, kind Kind) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, kind, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, kind Kind, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0], kind)
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		if missing := requiredColumns(mapping, kind); len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 2 && !measure.Validate(getCell(rows[0], 1)) {
		// Second column should be a measurement; an unrecognized header otherwise.
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)

		switch kind {
		case KindCutList:
			req, msg := parseCutRow(row, mapping, rowLabel, len(result.Requests))
			if msg != "" {
				result.Errors = append(result.Errors, msg)
				continue
			}
			result.Requests = append(result.Requests, req)
		case KindGlass:
			spec, msg, warnings := parseGlassRow(row, mapping, rowLabel, len(result.Items))
			if msg != "" {
				result.Errors = append(result.Errors, msg)
				continue
			}
			result.Warnings = append(result.Warnings, warnings...)
			result.Items = append(result.Items, spec)
		default:
			w, msg := parseWindowRow(row, mapping, rowLabel, len(result.Windows))
			if msg != "" {
				result.Errors = append(result.Errors, msg)
				continue
			}
			result.Windows = append(result.Windows, w)
		}
	}

	if result.Count() == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}
