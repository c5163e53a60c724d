package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/GlassCut/internal/engine"
	"github.com/piwi3910/GlassCut/internal/export"
	"github.com/piwi3910/GlassCut/internal/importer"
	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
	"github.com/piwi3910/GlassCut/internal/project"
)

// recentLimit caps the recent job list kept in the shop preferences.
const recentLimit = 10

// saveProject writes a job file and puts it at the top of the recent list.
func (a *app) saveProject(cmd *cobra.Command, path string, proj model.Project) error {
	if err := project.SaveProject(path, proj); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("Saved %s", path))

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	project.AddRecentProject(&a.appCfg, path, recentLimit)
	if err := project.SaveAppConfig(a.appConfigPath(), a.appCfg); err != nil {
		return fmt.Errorf("failed to record recent job: %w", err)
	}
	return nil
}

// planFlags are shared by every command that produces a cutting plan.
type planFlags struct {
	stock       string
	kerf        string
	algorithm   string
	stockPreset string
	blade       string
	offcutMin   string

	compare bool
	pdf     string
	labels  string
	xlsx    string
	jsonOut bool
	saveAs  string
}

func (p *planFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.stock, "stock", "", "stock stick length in inches")
	f.StringVar(&p.kerf, "kerf", "", "blade kerf in inches")
	f.StringVar(&p.algorithm, "algorithm", "", "placement: first-fit, best-fit or genetic")
	f.StringVar(&p.stockPreset, "stock-preset", "", "use a stock preset from the inventory by name")
	f.StringVar(&p.blade, "blade", "", "use a blade profile from the inventory by name")
	f.StringVar(&p.offcutMin, "offcut-min", "", `shortest remnant worth keeping (default 12")`)

	f.BoolVar(&p.compare, "compare", false, "compare algorithms, kerfs and stock lengths side by side")
	f.StringVar(&p.pdf, "pdf", "", "write the cut diagram as PDF to this path")
	f.StringVar(&p.labels, "labels", "", "write QR-coded piece labels as PDF to this path")
	f.StringVar(&p.xlsx, "xlsx", "", "write the plan as an Excel workbook to this path")
	f.BoolVar(&p.jsonOut, "json", false, "print the plan as JSON")
	f.StringVar(&p.saveAs, "save-project", "", "save the job and its plan as a project file")
}

// resolveSettings layers inventory presets and then explicit flags over the defaults.
// It returns the stick price of the chosen preset, or zero.
func (a *app) resolveSettings(p *planFlags) (model.CutSettings, decimal.Decimal, error) {
	settings, err := a.settings()
	if err != nil {
		return settings, decimal.Zero, err
	}
	price := decimal.Zero

	if p.stockPreset != "" || p.blade != "" {
		inv, err := project.LoadInventory(project.DefaultInventoryPath())
		if err != nil {
			return settings, price, fmt.Errorf("failed to load inventory: %w", err)
		}
		if p.stockPreset != "" {
			preset := inv.FindStockByName(p.stockPreset)
			if preset == nil {
				return settings, price, fmt.Errorf("no stock preset named %q (have: %s)", p.stockPreset, strings.Join(inv.StockNames(), ", "))
			}
			preset.ApplyToSettings(&settings)
			price = preset.PricePerStick
		}
		if p.blade != "" {
			blade := inv.FindBladeByName(p.blade)
			if blade == nil {
				return settings, price, fmt.Errorf("no blade named %q (have: %s)", p.blade, strings.Join(inv.BladeNames(), ", "))
			}
			blade.ApplyToSettings(&settings)
		}
	}

	if p.stock != "" {
		m, err := measure.Parse(p.stock)
		if err != nil {
			return settings, price, err
		}
		settings.StockLength = m
	}
	if p.kerf != "" {
		m, err := measure.Parse(p.kerf)
		if err != nil {
			return settings, price, err
		}
		settings.Kerf = m
	}
	if p.algorithm != "" {
		settings.Algorithm = model.Algorithm(p.algorithm)
		if !settings.Algorithm.Valid() {
			return settings, price, fmt.Errorf("unknown algorithm %q", p.algorithm)
		}
	}
	return settings, price, nil
}

func (p *planFlags) minOffcut() (measure.Measurement, error) {
	if p.offcutMin == "" {
		return model.MinOffcutLength, nil
	}
	return measure.Parse(p.offcutMin)
}

type cutOptions struct {
	planFlags
	file    string
	windows bool
	sides   bool
	project string
}

func newCutCmd(a *app) *cobra.Command {
	o := &cutOptions{}

	cmd := &cobra.Command{
		Use:   "cut [piece]...",
		Short: "Plan spacer bar cuts with minimal waste",
		Long: `Pack the required pieces onto stock sticks. Pieces are written as
[label:]length[*qty], e.g. "A:48 1/2*4", or read from a cut list file.
The first cut on each stick pays no kerf; every later cut pays one.`,
		Example: `  glasscut cut "A:48 1/2*4" "B:36 1/2*4" "C:42*4"
  glasscut cut --file cutlist.csv --stock 192 --kerf 1/8 --pdf plan.pdf --labels labels.pdf
  glasscut cut --file windows.xlsx --windows --sides --compare
  glasscut cut --project kitchen.glasscut --algorithm genetic`,
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, proj, err := a.cutRequests(cmd, o, args)
			if err != nil {
				return err
			}
			settings, price, err := a.resolveSettings(&o.planFlags)
			if err != nil {
				return err
			}
			plan, err := a.runPlan(cmd, &o.planFlags, settings, price, requests)
			if err != nil {
				return err
			}
			if o.saveAs != "" {
				proj.Settings = settings
				proj.Plan = &plan
				return a.saveProject(cmd, o.saveAs, proj)
			}
			return nil
		},
	}

	o.planFlags.register(cmd)
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "read pieces from a .csv or .xlsx cut list")
	cmd.Flags().BoolVar(&o.windows, "windows", false, "the file lists windows; cut one spacer frame per window")
	cmd.Flags().BoolVar(&o.sides, "sides", false, "with --windows, cut two widths and two heights per window instead of a frame")
	cmd.Flags().StringVar(&o.project, "project", "", "read pieces or windows from a project file")
	return cmd
}

// cutRequests gathers pieces from args, a file and a project. Windows are
// turned into spacer pieces.
func (a *app) cutRequests(cmd *cobra.Command, o *cutOptions, args []string) ([]model.CutRequest, model.Project, error) {
	proj := model.NewProject()
	var requests []model.CutRequest
	var windows []model.Window

	if o.project != "" {
		p, err := project.LoadProject(o.project)
		if err != nil {
			return nil, proj, err
		}
		proj = p
		requests = append(requests, p.Requests...)
		windows = append(windows, p.Windows...)
	}

	if o.file != "" {
		kind := importer.KindCutList
		if o.windows {
			kind = importer.KindWindows
		}
		result := importer.ImportFile(o.file, kind, importer.DXFOptions{})
		reportImport(cmd.ErrOrStderr(), o.file, result)
		if result.Count() == 0 {
			return nil, proj, fmt.Errorf("no %s rows found in %s", kind, o.file)
		}
		requests = append(requests, result.Requests...)
		windows = append(windows, result.Windows...)
	}

	for _, arg := range args {
		r, err := parsePieceArg(arg)
		if err != nil {
			return nil, proj, err
		}
		requests = append(requests, r)
	}

	proj.Requests = append([]model.CutRequest(nil), requests...)
	if len(windows) > 0 {
		proj.Windows = windows
		if o.sides {
			requests = append(requests, engine.SpacerSideRequests(windows)...)
		} else {
			requests = append(requests, engine.SpacerRequests(windows)...)
		}
	}
	if len(requests) == 0 {
		return nil, proj, fmt.Errorf("no pieces given: pass pieces as arguments, --file or --project")
	}
	return requests, proj, nil
}

// runPlan optimizes, prints and exports a plan according to p.
func (a *app) runPlan(cmd *cobra.Command, p *planFlags, settings model.CutSettings, price decimal.Decimal, requests []model.CutRequest) (model.CuttingPlan, error) {
	out := cmd.OutOrStdout()

	if p.compare {
		results := engine.CompareScenarios(engine.BuildDefaultScenarios(settings), requests)
		best := engine.BestScenario(results)
		if best >= 0 && !p.jsonOut {
			a.printComparison(out, results, best)
			fmt.Fprintln(out)
		}
	}

	plan, err := engine.New(settings).Optimize(requests)
	if err != nil {
		return plan, err
	}
	a.logger.Debug("plan built",
		zap.String("algorithm", string(plan.Algorithm)),
		zap.Int("sticks", plan.TotalSticks),
		zap.Int("pieces", plan.TotalPieces),
	)

	minOffcut, err := p.minOffcut()
	if err != nil {
		return plan, err
	}
	offcuts := model.DetectAllOffcuts(plan, settings.StockLabel, minOffcut, price)
	estimate := model.CalculatePurchaseEstimate(requests, settings.StockLength, settings.Kerf, a.appCfg.WastePercent, price)

	if p.jsonOut {
		err = writeJSON(out, struct {
			Plan     model.CuttingPlan      `json:"plan"`
			Offcuts  []model.Offcut         `json:"offcuts"`
			Purchase model.PurchaseEstimate `json:"purchase"`
		}{plan, offcuts, estimate})
		if err != nil {
			return plan, err
		}
	} else {
		a.printPlan(out, plan)
		a.printOffcuts(out, offcuts)
		a.printEstimate(out, estimate, plan, price)
	}

	if p.pdf != "" {
		if err := export.ExportPlanPDF(p.pdf, plan, settings); err != nil {
			return plan, fmt.Errorf("failed to write PDF: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("Wrote %s", p.pdf))
	}
	if p.labels != "" {
		if err := export.ExportLabels(p.labels, plan); err != nil {
			return plan, fmt.Errorf("failed to write labels: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("Wrote %s", p.labels))
	}
	if p.xlsx != "" {
		if err := export.ExportWorkbook(p.xlsx, &plan, nil); err != nil {
			return plan, err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("Wrote %s", p.xlsx))
	}
	return plan, nil
}

func (a *app) printPlan(w io.Writer, plan model.CuttingPlan) {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(w, "%s  stock %s  kerf %s  %s\n", bold("Cutting plan"), a.inch(plan.StockLength), a.inch(plan.Kerf), faint(plan.Algorithm))
	for _, s := range plan.Sticks {
		cuts := make([]string, len(s.Cuts))
		for i, c := range s.Cuts {
			cuts[i] = fmt.Sprintf("%s %s", c.Label, a.inch(c.Length))
		}
		fmt.Fprintf(w, "  Stick %-3d %s  %s\n", s.Index+1, strings.Join(cuts, " | "), faint("waste "+a.inch(s.Waste)))
	}
	fmt.Fprintf(w, "%d sticks, %d pieces, kerf loss %s, waste %s\n",
		plan.TotalSticks, plan.TotalPieces, a.inch(plan.TotalKerfLoss), a.inch(plan.TotalWaste))
	fmt.Fprintf(w, "Efficiency %s (pieces only %.1f%%)\n", color.GreenString("%.1f%%", plan.Efficiency), plan.MaterialEfficiency)
}

func (a *app) printOffcuts(w io.Writer, offcuts []model.Offcut) {
	if len(offcuts) == 0 {
		return
	}
	fmt.Fprintf(w, "\nReusable offcuts (%s total)\n", a.inch(model.TotalOffcutLength(offcuts)))
	for _, o := range offcuts {
		line := fmt.Sprintf("  stick %-3d %s", o.StickIndex+1, a.inch(o.Length))
		if o.Value.IsPositive() {
			line += "  worth " + o.Value.StringFixed(2)
		}
		fmt.Fprintln(w, line)
	}
}

func (a *app) printEstimate(w io.Writer, e model.PurchaseEstimate, plan model.CuttingPlan, price decimal.Decimal) {
	fmt.Fprintf(w, "\nPurchase: %d sticks minimum, %d with %.0f%% allowance (%.1f linear ft)\n",
		e.SticksNeededMin, e.SticksWithWaste, e.WastePercent, e.TotalLinearFeet)
	if price.IsPositive() {
		fmt.Fprintf(w, "Material cost: plan %s, estimate %s\n", plan.MaterialCost(price).StringFixed(2), e.EstimatedCost.StringFixed(2))
	}
}

func (a *app) printComparison(w io.Writer, results []engine.ComparisonResult, best int) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintln(w, bold("Scenario comparison"))
	fmt.Fprintf(w, "  %-28s %7s %7s %12s %8s\n", "Scenario", "Sticks", "Pieces", "Waste", "Waste %")
	for i, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "  %-28s %s\n", r.Scenario.Name, color.RedString("%s", r.Error))
			continue
		}
		line := fmt.Sprintf("  %-28s %7d %7d %12s %7.1f%%", r.Scenario.Name, r.SticksUsed, r.TotalCuts, a.inch(r.TotalWaste), r.WastePercent)
		if i == best {
			line = color.GreenString("%s  best", line)
		}
		fmt.Fprintln(w, line)
	}
}
