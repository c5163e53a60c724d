package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/piwi3910/GlassCut/internal/measure"
)

func newParseCmd(a *app) *cobra.Command {
	var graduation int64

	cmd := &cobra.Command{
		Use:   "parse <measurement>...",
		Short: "Read shop-floor measurements and show them exact, decimal and rounded",
		Example: `  glasscut parse "48 1/2" 36.375 3/4
  glasscut parse --graduation 8 "23 13/16"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if graduation == 0 {
				graduation = a.graduation()
			}
			if graduation < 1 {
				return fmt.Errorf("graduation must be at least 1, got %d", graduation)
			}

			out := cmd.OutOrStdout()
			bold := color.New(color.Bold).SprintFunc()
			failed := 0
			for _, arg := range args {
				m, err := measure.Parse(arg)
				if err != nil {
					fmt.Fprintf(out, "%s %s\n", color.RedString("✗"), err)
					failed++
					continue
				}
				fmt.Fprintf(out, "%s %-14q exact %s  decimal %s  nearest %s  rounded %s\n",
					color.GreenString("✓"), arg, bold(m.Exact()),
					strconv.FormatFloat(m.Float64(), 'f', -1, 64),
					measure.Format(m, graduation),
					measure.FormatRounded(m, graduation))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d measurements could not be parsed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&graduation, "graduation", 0, "round to this fraction of an inch (default from shop preferences)")
	return cmd
}
