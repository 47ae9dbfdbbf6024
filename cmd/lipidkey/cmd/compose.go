package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ChrisMcGann/lipidkey/pkg/composer"
	"github.com/ChrisMcGann/lipidkey/pkg/core"
	"github.com/ChrisMcGann/lipidkey/pkg/reader/whitelist"
	csvwriter "github.com/ChrisMcGann/lipidkey/pkg/writer/csv"
	"github.com/ChrisMcGann/lipidkey/pkg/writer/sqlite"
)

var configFile string

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Generate a lipid fragment library from a fatty acid whitelist",
	Long: `Enumerate every chain combination allowed by a fatty acid whitelist for
the selected lipid classes and write species, precursor ions and predicted
fragments to a SQLite database and/or a CSV master table.

Examples:
  # Compose phospholipids with default adducts
  lipidkey compose --whitelist fa_whitelist.csv --classes PC,PE --out library.db

  # Compose from a run file, overriding the fragment tolerance
  lipidkey compose --config lipidkey.yaml --ppm 10

  # Keep positional isomers and limit the precursor range
  lipidkey compose -w fa_whitelist.csv -c TG --adducts "[M+NH4]+" --exact-position --mz-start 600 --mz-end 1000 --csv tg.csv`,
	RunE: runCompose,
}

func init() {
	addComposeFlags(composeCmd.Flags())
}

// addComposeFlags registers the flags RunConfig.ApplyFlags understands.
func addComposeFlags(f *pflag.FlagSet) {
	f.StringVar(&configFile, "config", "", "YAML run file (flags override its values)")
	f.StringP("whitelist", "w", "", "Fatty acid whitelist CSV")
	f.StringSliceP("classes", "c", nil, "Comma-separated lipid classes, or 'all'")
	f.StringArray("adducts", nil, "Adduct label, repeatable (default: every adduct of each class)")
	f.Bool("exact-position", false, "Keep every positional isomer")
	f.Float64("ppm", composer.DefaultPPM, "MS2 fragment tolerance in ppm")
	f.Float64("mz-start", 0, "Lowest precursor m/z to keep (0 = no limit)")
	f.Float64("mz-end", 0, "Highest precursor m/z to keep (0 = no limit)")
	f.Int("max-db", 0, "Highest summed double bond count to keep (0 = no limit)")
	f.StringSlice("links", nil, "Comma-separated chain links to keep: "+linkNames())
	f.Int("threads", 1, "Number of classes composed in parallel")
	f.StringP("out", "o", "", "Output SQLite database")
	f.String("csv", "", "Output CSV master table")
	f.String("description", "", "Library description stored in the database header")
}

func runCompose(cmd *cobra.Command, args []string) error {
	cfg := &RunConfig{}
	if configFile != "" {
		var err error
		if cfg, err = LoadConfig(configFile); err != nil {
			return err
		}
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}

	summary, err := compose(cfg)
	if err != nil {
		return err
	}

	logf("\nComposition complete!\n")
	logf("Species: %d\n", summary.Species)
	logf("Ions: %d\n", summary.Ions)
	if summary.Filtered > 0 {
		logf("Filtered: %d species\n", summary.Filtered)
	}
	if len(summary.Failed) > 0 {
		logf("Failed classes: %s\n", strings.Join(summary.Failed, ", "))
	}
	if cfg.Output != "" {
		logf("Output: %s\n", cfg.Output)
	}
	if cfg.CSVOutput != "" {
		logf("CSV: %s\n", cfg.CSVOutput)
	}
	return nil
}

// composeSummary counts what a run wrote.
type composeSummary struct {
	Species  int
	Ions     int
	Filtered int
	Failed   []string
}

// speciesWriter is implemented by the SQLite and CSV library writers.
type speciesWriter interface {
	WriteSpecies(*core.LipidSpecies) error
}

// compose runs generation, filtering and output for a normalized config.
func compose(cfg *RunConfig) (*composeSummary, error) {
	reg, err := loadRegistry(cfg.Registry)
	if err != nil {
		return nil, err
	}

	wl, err := whitelist.ReadFile(cfg.Whitelist)
	if err != nil {
		return nil, err
	}
	logf("Loaded %d whitelist entries (%s)\n", wl.Len(), strings.Join(wl.Columns(), ","))

	classes := cfg.Classes
	if cfg.AllClasses() {
		classes = reg.Classes()
	}
	flt, err := cfg.Filter()
	if err != nil {
		return nil, err
	}

	var writers []speciesWriter

	var db *sqlite.Writer
	if cfg.Output != "" {
		if db, err = sqlite.NewWriter(cfg.Output); err != nil {
			return nil, fmt.Errorf("failed to create output database: %w", err)
		}
		defer db.Close()
		db.SetDescription(cfg.Description)
		writers = append(writers, db)
	}

	var table *csvwriter.Writer
	if cfg.CSVOutput != "" {
		if table, err = csvwriter.Create(cfg.CSVOutput); err != nil {
			return nil, err
		}
		defer table.Close()
		writers = append(writers, table)
	}

	logf("Composing %d classes with %d threads...\n", len(classes), cfg.Workers)

	summary := &composeSummary{}
	for _, res := range composer.GenerateAll(reg, classes, wl, cfg.Options()) {
		if res.Err != nil {
			warnf("failed to compose %s: %v\n", res.Class, res.Err)
			summary.Failed = append(summary.Failed, res.Class)
			continue
		}

		kept := flt.Species(res.Species)
		summary.Filtered += len(res.Species) - len(kept)
		logf("%s: %d species\n", res.Class, len(kept))

		for _, s := range kept {
			if err := s.Validate(); err != nil {
				warnf("invalid species %s: %v\n", s.Key(), err)
				summary.Filtered++
				continue
			}
			for _, w := range writers {
				if err := w.WriteSpecies(s); err != nil {
					return nil, err
				}
			}
			summary.Species++
			summary.Ions += len(s.Ions)
		}
	}

	if len(summary.Failed) == len(classes) && len(classes) > 0 {
		return nil, fmt.Errorf("no class could be composed")
	}

	if db != nil {
		chains, err := composer.ChainTable(wl, cfg.MS2PPM)
		if err != nil {
			return nil, err
		}
		if err := db.WriteChainTable(chains); err != nil {
			return nil, err
		}
		if err := db.Finalize(); err != nil {
			return nil, fmt.Errorf("failed to finalize database: %w", err)
		}
	}
	if table != nil {
		if err := table.Close(); err != nil {
			return nil, fmt.Errorf("failed to write CSV: %w", err)
		}
	}

	return summary, nil
}
