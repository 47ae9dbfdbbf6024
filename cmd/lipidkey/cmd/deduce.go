package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/lipidkey/pkg/composer"
	"github.com/ChrisMcGann/lipidkey/pkg/lipidclass"
)

var deduceAdduct string

var deduceCmd = &cobra.Command{
	Use:   "deduce [m/z...]",
	Short: "Deduce triglyceride compositions from precursor m/z",
	Long: `Recover the TG(C:DB) composition of triglyceride precursors observed as
[M+H]+ or [M+Na]+, together with the alternative reading under the other
adduct, and report the matching [M+NH4]+ precursor.

Example:
  lipidkey deduce 881.7571 --adduct "[M+Na]+"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDeduce,
}

func init() {
	deduceCmd.Flags().StringVarP(&deduceAdduct, "adduct", "a", "[M+H]+", "Adduct the precursors were labelled with: [M+H]+ or [M+Na]+")
}

func runDeduce(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry(registryFile)
	if err != nil {
		return err
	}

	mzs := make([]float64, len(args))
	for i, a := range args {
		if mzs[i], err = strconv.ParseFloat(a, 64); err != nil {
			return fmt.Errorf("invalid m/z %q: %w", a, err)
		}
	}
	return printDeductions(os.Stdout, reg, mzs, deduceAdduct)
}

// printDeductions writes every hypothesis of every precursor. It fails only
// when a precursor has no acceptable reading at all.
func printDeductions(out io.Writer, reg *lipidclass.Registry, mzs []float64, adduct string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MZ\tAdduct\tTG\tError\t[M+NH4]+\tFormula")

	unresolved := 0
	for _, mz := range mzs {
		d, err := composer.DisambiguateAmmoniated(reg, mz, adduct)
		if err != nil {
			return err
		}
		for _, h := range []composer.Hypothesis{d.Labelled, d.Alternative} {
			if h.Err != nil {
				fmt.Fprintf(tw, "%.4f\t%s\t-\t-\t-\t%v\n", mz, h.Adduct, h.Err)
				continue
			}
			t := h.Deduction
			fmt.Fprintf(tw, "%.4f\t%s\t%s\t%.4f\t%.6f\t%s\n", mz, h.Adduct, t.Abbr, t.MZError, t.AmmoniatedMZ, t.AmmoniatedFormula)
		}
		if len(d.Resolved()) == 0 {
			unresolved++
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if unresolved > 0 {
		return fmt.Errorf("%d of %d precursors could not be resolved", unresolved, len(mzs))
	}
	return nil
}
