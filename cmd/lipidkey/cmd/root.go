// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/lipidkey/pkg/lipidclass"
)

var (
	// Global flags
	registryFile string
	quiet        bool
)

var rootCmd = &cobra.Command{
	Use:   "lipidkey",
	Short: "LipidKey - Lipid formula and fragment library generator",
	Long: `LipidKey computes formulas and exact masses of lipid species and builds
fragment libraries for LC-MS/MS lipid identification.

Supported operations:
- Formula and m/z of a lipid abbreviation under any adduct
- Combinatorial species generation from a fatty acid whitelist
- Fragment ion prediction with ppm windows
- Triglyceride composition deduction from ammoniated or sodiated precursors`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&registryFile, "registry", "", "Path to a lipid class registry JSON replacing the built-in classes")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(formulaCmd)
	rootCmd.AddCommand(deduceCmd)
	rootCmd.AddCommand(classesCmd)
}

// loadRegistry returns the registry named by path, or the built-in one.
func loadRegistry(path string) (*lipidclass.Registry, error) {
	if path == "" {
		return lipidclass.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	defer f.Close()

	reg, err := lipidclass.LoadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry %s: %w", path, err)
	}
	return reg, nil
}

// logf prints progress unless --quiet is set.
func logf(format string, args ...any) {
	if !quiet {
		fmt.Printf(format, args...)
	}
}

// warnf always reports to stderr.
func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format, args...)
}
