package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/piwi3910/GlassCut/internal/engine"
	"github.com/piwi3910/GlassCut/internal/importer"
	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
)

type spacerOptions struct {
	planFlags
	file      string
	thickness string
	plan      bool
	sides     bool
}

func newSpacersCmd(a *app) *cobra.Command {
	o := &spacerOptions{}

	cmd := &cobra.Command{
		Use:   "spacers [window]...",
		Short: "Work out spacer length and pane sizes for a window list",
		Long: `Windows are written as [label:]WIDTHxHEIGHT[*qty], e.g. "Kitchen:24 1/2x36*2",
or read from a CSV or Excel window list. Prints each window's spacer frame
length and pane size, the total spacer with waste allowance, and with --plan
the spacer cutting plan.`,
		Example: `  glasscut spacers "Kitchen:24 1/2x36*2" "Bath:18x24"
  glasscut spacers --file windows.csv --plan --sides --pdf spacers.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			windows, err := a.spacerWindows(cmd, o, args)
			if err != nil {
				return err
			}

			thickness := a.appCfg.SpacerThickness
			if o.thickness != "" {
				if thickness, err = measure.Parse(o.thickness); err != nil {
					return err
				}
			}
			rows, err := model.CalculatePerWindowSpacer(windows, thickness)
			if err != nil {
				return err
			}
			summary := model.CalculateSpacer(windows, a.appCfg.WastePercent)

			out := cmd.OutOrStdout()
			switch {
			case !o.jsonOut:
				a.printSpacers(out, rows, summary, thickness)
			case !o.plan:
				err := writeJSON(out, struct {
					Windows []model.PerWindowSpacer `json:"windows"`
					Summary model.SpacerSummary     `json:"summary"`
				}{rows, summary})
				if err != nil {
					return err
				}
			}

			proj := model.NewProject()
			proj.Windows = windows
			if o.plan {
				requests := engine.SpacerRequests(windows)
				if o.sides {
					requests = engine.SpacerSideRequests(windows)
				}
				settings, price, err := a.resolveSettings(&o.planFlags)
				if err != nil {
					return err
				}
				if !o.jsonOut {
					fmt.Fprintln(out)
				}
				plan, err := a.runPlan(cmd, &o.planFlags, settings, price, requests)
				if err != nil {
					return err
				}
				proj.Settings = settings
				proj.Plan = &plan
			}
			if o.saveAs != "" {
				return a.saveProject(cmd, o.saveAs, proj)
			}
			return nil
		},
	}

	o.planFlags.register(cmd)
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "read windows from a .csv or .xlsx file")
	cmd.Flags().StringVar(&o.thickness, "spacer-thickness", "", "spacer width taken off each side for the pane size")
	cmd.Flags().BoolVar(&o.plan, "plan", false, "also plan the spacer cuts")
	cmd.Flags().BoolVar(&o.sides, "sides", false, "cut two widths and two heights per window instead of one bent frame")
	return cmd
}

func (a *app) spacerWindows(cmd *cobra.Command, o *spacerOptions, args []string) ([]model.Window, error) {
	var windows []model.Window
	if o.file != "" {
		result := importer.ImportFile(o.file, importer.KindWindows, importer.DXFOptions{})
		reportImport(cmd.ErrOrStderr(), o.file, result)
		windows = append(windows, result.Windows...)
	}
	for _, arg := range args {
		w, err := parseWindowArg(arg, len(windows)+1)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows given: pass windows as arguments or --file")
	}
	return windows, nil
}

func (a *app) printSpacers(w io.Writer, rows []model.PerWindowSpacer, s model.SpacerSummary, thickness measure.Measurement) {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s  spacer %s\n", bold("Windows"), a.inch(thickness))
	fmt.Fprintf(w, "  %-16s %-18s %4s %-18s %12s %12s\n", "Label", "Size", "Qty", "Pane", "Spacer/unit", "Spacer")
	for _, r := range rows {
		fmt.Fprintf(w, "  %-16s %-18s %4d %-18s %12s %12s\n",
			r.Label,
			a.inch(r.Width)+" x "+a.inch(r.Height),
			r.Quantity,
			a.inch(r.PaneWidth)+" x "+a.inch(r.PaneHeight),
			a.inch(r.LengthPerUnit),
			a.inch(r.TotalLength))
	}
	fmt.Fprintf(w, "%d windows, %d corners, %s spacer (%.2f ft)\n", s.WindowCount, s.CornerCount, a.inch(s.TotalLength), s.TotalLinearFeet)
	fmt.Fprintf(w, "With %.0f%% waste: %s (%.2f ft)\n", s.WastePercent, color.GreenString("%.0f\"", s.TotalWithWasteIn), s.TotalWithWasteFt)
}
