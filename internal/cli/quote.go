package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/GlassCut/internal/export"
	"github.com/piwi3910/GlassCut/internal/importer"
	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
	"github.com/piwi3910/GlassCut/internal/pricing"
	"github.com/piwi3910/GlassCut/internal/project"
	"github.com/piwi3910/GlassCut/internal/store"
)

type quoteOptions struct {
	label      string
	width      string
	height     string
	diameter   string
	thickness  string
	glassType  string
	quantity   int
	polished   bool
	beveled    bool
	clips      int
	clipSize   string
	tempered   bool
	shape      bool
	contractor bool

	file         string
	unitsPerInch float64
	pricingFile  string

	pdf      string
	xlsx     string
	jsonOut  bool
	save     bool
	number   int
	customer string
	job      string
	author   string
}

func newQuoteCmd(a *app) *cobra.Command {
	o := &quoteOptions{}

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price glass pieces against the rate table",
		Long: `Price one piece described by flags, or a whole order read from a CSV,
Excel, DXF or project file. Prints the itemized breakdown and the quote price.`,
		Example: `  glasscut quote --width "24" --height "36" --thickness 1/4 --type clear --polished
  glasscut quote --diameter 30 --type mirror --thickness 1/4
  glasscut quote --file order.xlsx --contractor --pdf order.pdf
  glasscut quote --file drawing.dxf --units-per-inch 25.4 --save --customer "Acme Homes"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuote(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.label, "label", "", "label for the piece")
	f.StringVar(&o.width, "width", "", `width in inches, e.g. "24 1/2"`)
	f.StringVar(&o.height, "height", "", "height in inches")
	f.StringVar(&o.diameter, "diameter", "", "diameter in inches for a circular piece")
	f.StringVar(&o.thickness, "thickness", `1/4"`, "glass thickness")
	f.StringVar(&o.glassType, "type", string(model.GlassClear), "glass type (clear, mirror, bronze, gray, frosted, low-e)")
	f.IntVarP(&o.quantity, "qty", "q", 1, "number of identical pieces")
	f.BoolVar(&o.polished, "polished", false, "polish every edge")
	f.BoolVar(&o.beveled, "beveled", false, "bevel every edge")
	f.IntVar(&o.clips, "clips", 0, "number of clipped corners (0-4)")
	f.StringVar(&o.clipSize, "clip-size", string(model.ClipUnder1), "clip size bucket (under_1, over_1)")
	f.BoolVar(&o.tempered, "tempered", false, "temper the piece")
	f.BoolVar(&o.shape, "shape", false, "piece is not a rectangle (shape markup)")
	f.BoolVar(&o.contractor, "contractor", false, "apply the contractor discount")

	f.StringVarP(&o.file, "file", "f", "", "read items from a .csv, .xlsx, .dxf, .json or .yaml file")
	f.Float64Var(&o.unitsPerInch, "units-per-inch", 1, "DXF drawing units per inch (25.4 for millimetres)")
	f.StringVar(&o.pricingFile, "pricing", "", "rate table file (default from configuration)")

	f.StringVar(&o.pdf, "pdf", "", "write the quote as PDF to this path")
	f.StringVar(&o.xlsx, "xlsx", "", "write the quote as an Excel workbook to this path")
	f.BoolVar(&o.jsonOut, "json", false, "print the priced job as JSON")
	f.BoolVar(&o.save, "save", false, "save the quote to the quote history")
	f.IntVar(&o.number, "quote-number", 0, "save as the next version of this quote number")
	f.StringVar(&o.customer, "customer", "", "customer name for the saved quote")
	f.StringVar(&o.job, "job", "", "job name for the saved quote")
	f.StringVar(&o.author, "created-by", "", "who prepared the quote")
	return cmd
}

func (a *app) runQuote(cmd *cobra.Command, o *quoteOptions) error {
	specs, err := a.quoteItems(cmd, o)
	if err != nil {
		return err
	}

	path := a.pricingPath(o.pricingFile)
	cfg, err := project.LoadPricingConfig(path)
	if err != nil {
		return fmt.Errorf("%w (run \"glasscut config init\" to create a starter rate table)", err)
	}
	a.logger.Debug("pricing loaded", zap.String("path", path), zap.Int("rates", len(cfg.Rates)))

	job, err := pricing.CalculateBatch(cfg, specs)
	if err != nil {
		return err
	}

	header := export.QuoteHeader{
		Company:  a.appCfg.CompanyName,
		Customer: o.customer,
		JobName:  o.job,
		Date:     time.Now(),
	}
	if o.save {
		rec, err := a.saveQuote(cmd.Context(), o, specs, job)
		if err != nil {
			return err
		}
		header.QuoteNumber = rec.QuoteNumber
		header.Version = rec.Version
		header.Date = rec.CreatedAt
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("Saved quote #%d version %d", rec.QuoteNumber, rec.Version))
	}

	out := cmd.OutOrStdout()
	if o.jsonOut {
		if err := writeJSON(out, job); err != nil {
			return err
		}
	} else {
		printQuote(out, job)
	}

	if o.pdf != "" {
		if err := export.ExportQuotePDF(o.pdf, job, header); err != nil {
			return fmt.Errorf("failed to write PDF: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("Wrote %s", o.pdf))
	}
	if o.xlsx != "" {
		if err := export.ExportWorkbook(o.xlsx, nil, &job); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("Wrote %s", o.xlsx))
	}
	return nil
}

// quoteItems builds the specs from --file or from the single-piece flags.
func (a *app) quoteItems(cmd *cobra.Command, o *quoteOptions) ([]model.GlassItemSpec, error) {
	if o.file == "" {
		spec, err := o.spec()
		if err != nil {
			return nil, err
		}
		return []model.GlassItemSpec{spec}, nil
	}

	var specs []model.GlassItemSpec
	if isProjectFile(o.file) {
		p, err := project.LoadProject(o.file)
		if err != nil {
			return nil, err
		}
		specs = p.Items
	} else {
		result := importer.ImportFile(o.file, importer.KindGlass, importer.DXFOptions{
			Thickness:    o.thickness,
			GlassType:    model.GlassType(o.glassType),
			UnitsPerInch: o.unitsPerInch,
			Graduation:   a.graduation(),
			Polished:     o.polished,
			Tempered:     o.tempered,
		})
		reportImport(cmd.ErrOrStderr(), o.file, result)
		specs = result.Items
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no glass items found in %s", o.file)
	}
	if o.contractor {
		for i := range specs {
			specs[i].Contractor = true
		}
	}
	return specs, nil
}

func (o *quoteOptions) spec() (model.GlassItemSpec, error) {
	spec := model.GlassItemSpec{
		Label:          o.label,
		Thickness:      o.thickness,
		GlassType:      model.GlassType(o.glassType),
		Quantity:       o.quantity,
		Polished:       o.polished,
		Beveled:        o.beveled,
		Tempered:       o.tempered,
		NonRectangular: o.shape,
		Contractor:     o.contractor,
	}
	if o.clips > 0 {
		spec.ClippedCorners = model.ClippedCorners{Count: o.clips, Size: model.ClipSize(o.clipSize)}
	}

	if o.diameter != "" {
		d, err := measure.Parse(o.diameter)
		if err != nil {
			return spec, err
		}
		spec.Circular = true
		spec.Diameter = d
		return spec, nil
	}

	if o.width == "" || o.height == "" {
		return spec, fmt.Errorf("either --width and --height, --diameter or --file is required")
	}
	w, err := measure.Parse(o.width)
	if err != nil {
		return spec, err
	}
	h, err := measure.Parse(o.height)
	if err != nil {
		return spec, err
	}
	spec.Width = w
	spec.Height = h
	return spec, nil
}

func (a *app) saveQuote(ctx context.Context, o *quoteOptions, specs []model.GlassItemSpec, job model.JobQuote) (store.QuoteRecord, error) {
	if strings.TrimSpace(o.customer) == "" {
		return store.QuoteRecord{}, fmt.Errorf("--customer is required with --save")
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return store.QuoteRecord{}, err
	}
	defer st.Close()

	return st.SaveQuote(ctx, store.QuoteRecord{
		QuoteNumber: o.number,
		Customer:    o.customer,
		JobName:     o.job,
		CreatedBy:   o.author,
		Specs:       specs,
		Job:         job,
	})
}

// openStore opens the quote database, creating its directory first.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	path := a.cfg.Database.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return store.Open(ctx, path)
}

func printQuote(w io.Writer, job model.JobQuote) {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	for i, item := range job.Items {
		label := item.Label
		if label == "" {
			label = fmt.Sprintf("Item %d", i+1)
		}
		fmt.Fprintf(w, "%s  %s sq ft (billed %s)\n", bold(label), item.SqFt.StringFixed(2), item.BillableSqFt.StringFixed(2))
		for _, line := range item.Lines {
			fmt.Fprintf(w, "  %-18s %10s  %s\n", line.Name, line.Amount.StringFixed(2), faint(line.Detail))
		}
		if item.Discount.IsPositive() {
			fmt.Fprintf(w, "  %-18s %10s\n", "discount", item.Discount.Neg().StringFixed(2))
		}
		fmt.Fprintf(w, "  %-18s %10s  x %d = %s\n", "per unit", item.PerUnitTotal.StringFixed(2), item.Quantity, bold(item.Total.StringFixed(2)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-20s %10s\n", "Job total", job.Total.StringFixed(2))
	fmt.Fprintf(w, "%-20s %10s\n", "Quote price", color.GreenString("%s", job.QuotePrice.StringFixed(2)))
}

func isProjectFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", project.ProjectExt:
		return true
	}
	return false
}

// reportImport prints row warnings and errors to w.
func reportImport(w io.Writer, path string, r importer.ImportResult) {
	for _, msg := range r.Warnings {
		fmt.Fprintln(w, color.YellowString("warning: %s", msg))
	}
	for _, msg := range r.Errors {
		fmt.Fprintln(w, color.RedString("error: %s", msg))
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "Imported %d rows from %s, skipped %d\n", r.Count(), filepath.Base(path), len(r.Errors))
	}
}
