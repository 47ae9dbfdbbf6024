package composer

import (
	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
	"github.com/ChrisMcGann/lipidkey/pkg/lipidclass"
)

// ClassResult is the outcome of generating one class.
type ClassResult struct {
	Class   string
	Species []*core.LipidSpecies
	Err     error
}

// GenerateAll runs Generate for every class with up to opts.Workers
// classes in flight. Results are returned in input order; a failing class
// does not stop the others.
func GenerateAll(reg *lipidclass.Registry, classes []string, wl *core.Whitelist, opts Options) []ClassResult {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]ClassResult, len(classes))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, class := range classes {
		g.Go(func() error {
			classOpts := opts
			classOpts.Adducts = adductsFor(reg, class, opts.Adducts)
			species, err := Generate(reg, class, wl, classOpts)
			results[i] = ClassResult{Class: class, Species: species, Err: err}
			return nil
		})
	}
	g.Wait()
	return results
}

// adductsFor narrows a run wide adduct list to those the class supports.
// An empty run list keeps the class defaults.
func adductsFor(reg *lipidclass.Registry, class string, adducts []string) []string {
	if len(adducts) == 0 {
		return nil
	}
	c, err := reg.Class(class)
	if err != nil {
		return adducts
	}
	var out []string
	for _, a := range adducts {
		if c.Supports(a) {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return adducts
	}
	return out
}

// FormulaResult is the formula and mass of one abbreviation.
type FormulaResult struct {
	Abbr    string
	Adduct  string
	Formula string
	Mass    float64
	Err     error
}

// FormulaBatch computes Formula and Mass for each abbreviation. Errors are
// reported per entry.
func FormulaBatch(reg *lipidclass.Registry, abbrs []string, adduct string) []FormulaResult {
	out := make([]FormulaResult, len(abbrs))
	for i, abbr := range abbrs {
		r := FormulaResult{Abbr: abbr, Adduct: adduct}
		formula, ec, err := Formula(reg, abbr, adduct)
		if err == nil {
			r.Formula = formula
			r.Mass, err = core.ExactMass(ec)
		}
		r.Err = err
		out[i] = r
	}
	return out
}
