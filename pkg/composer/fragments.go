package composer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
	"github.com/ChrisMcGann/lipidkey/pkg/lipidclass"
)

// Predict computes the diagnostic fragments of a species under one adduct
// from the rules the class registers for it. Fragments are sorted by m/z
// and carry a ppm window. Rules yielding the same label collapse into one
// fragment.
func Predict(class lipidclass.Class, s *core.LipidSpecies, adduct lipidclass.Adduct, ppm float64) ([]core.FragmentIon, error) {
	if !class.Supports(adduct.Label) {
		return nil, &core.LookupError{Kind: core.ErrUnsupportedAdduct, Class: class.Name, Name: adduct.Label}
	}
	precursor, err := applyAdduct(s.Formula, adduct)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	frags := []core.FragmentIon{}
	emit := func(label string, formula core.ElementCount) error {
		if seen[label] || hasNegative(formula) {
			return nil
		}
		mz, err := core.ExactMass(formula)
		if err != nil {
			return fmt.Errorf("fragment %s: %w", label, err)
		}
		if mz <= 0 {
			return nil
		}
		seen[label] = true
		low, high := core.Window(mz, ppm)
		frags = append(frags, core.FragmentIon{Label: label, MZ: mz, PPM: ppm, Low: low, High: high})
		return nil
	}

	for _, rule := range class.Fragments[adduct.Label] {
		switch rule.Kind {
		case lipidclass.NeutralLoss:
			err = emit(fragmentLabel(rule.Label, class.Name, ""), precursor.Add(rule.Delta))
		case lipidclass.FixedIon:
			err = emit(fragmentLabel(rule.Label, class.Name, ""), rule.Delta)
		case lipidclass.ChainLoss, lipidclass.ChainIon:
			for i, c := range s.Chains {
				if !rule.Applies(i+1, c) {
					continue
				}
				f := c.Free().Add(rule.Delta)
				if rule.Kind == lipidclass.ChainLoss {
					f = precursor.Sub(c.Free()).Add(rule.Delta)
				}
				if err = emit(fragmentLabel(rule.Label, class.Name, c.Abbr()), f); err != nil {
					break
				}
			}
		default:
			err = fmt.Errorf("fragment %s: unknown kind %q", rule.Label, rule.Kind)
		}
		if err != nil {
			return nil, err
		}
	}

	core.SortFragments(frags)
	return frags, nil
}

func fragmentLabel(tmpl, class, chain string) string {
	return strings.NewReplacer("{chain}", chain, "{class}", class).Replace(tmpl)
}

func hasNegative(ec core.ElementCount) bool {
	for _, n := range ec {
		if n < 0 {
			return true
		}
	}
	return false
}

// ChainIons is the free fatty acid table entry of one whitelisted chain.
type ChainIons struct {
	Abbr          string
	Chain         core.Chain
	Formula       core.ElementCount
	FormulaString string
	ExactMass     float64
	Ions          []core.FragmentIon
}

// freeAcidIons are the ions searched for every acyl chain regardless of class.
var freeAcidIons = []struct {
	label    string
	delta    core.ElementCount
	polarity string
}{
	{"[FA-H]-", core.ElementCount{"H": -1}, "-"},
	{"[FA-H2O-H]-", core.ElementCount{"H": -3, "O": -1}, "-"},
	{"[FA-H2O+H]+", core.ElementCount{"H": -1, "O": -1}, "+"},
}

// ChainTable lists the free fatty acid ions of every acyl chain in the
// whitelist, once per chain, ordered by chain.
func ChainTable(wl *core.Whitelist, ppm float64) ([]ChainIons, error) {
	seen := make(map[string]bool)
	var table []ChainIons
	for _, e := range wl.Entries {
		c := e.Chain
		if c.Link != core.LinkAcyl || seen[c.Abbr()] {
			continue
		}
		seen[c.Abbr()] = true

		free := c.Free()
		mass, err := core.ExactMass(free)
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", c.Abbr(), err)
		}
		row := ChainIons{
			Abbr:          c.Abbr(),
			Chain:         c,
			Formula:       free,
			FormulaString: core.RenderFormula(free, ""),
			ExactMass:     mass,
		}
		for _, ion := range freeAcidIons {
			mz, err := core.ExactMass(free.Add(ion.delta))
			if err != nil {
				return nil, fmt.Errorf("chain %s: %w", c.Abbr(), err)
			}
			low, high := core.Window(mz, ppm)
			row.Ions = append(row.Ions, core.FragmentIon{Label: ion.label, MZ: mz, PPM: ppm, Low: low, High: high})
		}
		core.SortFragments(row.Ions)
		table = append(table, row)
	}

	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Chain.Less(table[j].Chain)
	})
	return table, nil
}
