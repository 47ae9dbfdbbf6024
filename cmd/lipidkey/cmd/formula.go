package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/lipidkey/pkg/composer"
)

var formulaAdducts []string

var formulaCmd = &cobra.Command{
	Use:   "formula [abbreviation...]",
	Short: "Print formula and exact mass of lipid abbreviations",
	Long: `Compute the elemental formula and monoisotopic mass of each abbreviation,
neutral or charged with the given adducts.

Examples:
  lipidkey formula "PC(36:3)" "TG(P-48:2)"
  lipidkey formula "PC(34:1)" --adduct "[M+HCOO]-" --adduct "[M-H]-"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFormula,
}

func init() {
	formulaCmd.Flags().StringArrayVarP(&formulaAdducts, "adduct", "a", nil, "Adduct label, repeatable (default: neutral)")
}

func runFormula(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry(registryFile)
	if err != nil {
		return err
	}

	adducts := formulaAdducts
	if len(adducts) == 0 {
		adducts = []string{""}
	}

	var results []composer.FormulaResult
	for _, adduct := range adducts {
		results = append(results, composer.FormulaBatch(reg, args, adduct)...)
	}
	return printFormulas(os.Stdout, results)
}

// printFormulas writes one row per result and fails when any entry failed.
func printFormulas(out io.Writer, results []composer.FormulaResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Abbreviation\tAdduct\tFormula\tMass")

	failed := 0
	for _, r := range results {
		adduct := r.Adduct
		if composer.IsNeutral(adduct) {
			adduct = "neutral"
		}
		if r.Err != nil {
			warnf("%s %s: %v\n", r.Abbr, adduct, r.Err)
			failed++
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.6f\n", r.Abbr, adduct, r.Formula, r.Mass)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d formulas failed", failed, len(results))
	}
	return nil
}
