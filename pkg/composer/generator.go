package composer

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
	"github.com/ChrisMcGann/lipidkey/pkg/lipidclass"
)

// DefaultPPM is the MS2 fragment tolerance used when none is given.
const DefaultPPM = 20.0

// Options controls library generation.
type Options struct {
	Adducts         []string // adduct labels; all configured adducts of the class when empty
	ResolvePosition bool     // keep every positional isomer instead of one per discrete identity
	PPM             float64  // fragment window
	Workers         int      // GenerateAll concurrency; 1 when zero
}

// Candidates returns the whitelist chains allowed at each position of the
// class, in position order. Entries are selected by the class column (the
// first of Class.Columns the whitelist has) and the position column. Base
// positions read one column per base marker and re-mark the chain with it.
func Candidates(class lipidclass.Class, wl *core.Whitelist) [][]core.Chain {
	col := classColumn(class, wl)
	out := make([][]core.Chain, len(class.Positions))
	if col == "" {
		return out
	}

	for p, pos := range class.Positions {
		if pos.IsBase() {
			for _, link := range pos.Links {
				if !link.IsBase() {
					continue
				}
				for _, e := range wl.Entries {
					if e.Flag(col) && e.Flag(string(link)) {
						c := e.Chain
						c.Link = link
						out[p] = append(out[p], c)
					}
				}
			}
			continue
		}
		for _, e := range wl.Entries {
			if e.Flag(col) && e.Flag(pos.Name) && !e.Chain.Link.IsBase() {
				out[p] = append(out[p], e.Chain)
			}
		}
	}
	return out
}

// classColumn picks the first of the class columns the whitelist carries.
func classColumn(class lipidclass.Class, wl *core.Whitelist) string {
	for _, col := range class.Columns() {
		if wl.HasColumn(col) {
			return col
		}
	}
	return ""
}

// Generate enumerates every chain combination the whitelist allows for a
// class and builds its species with ions and fragments. Without
// ResolvePosition one species is kept per discrete identity. A position
// without candidates gives an empty result.
func Generate(reg *lipidclass.Registry, className string, wl *core.Whitelist, opts Options) ([]*core.LipidSpecies, error) {
	class, err := reg.Class(className)
	if err != nil {
		return nil, err
	}
	adducts, err := resolveAdducts(reg, class, opts.Adducts)
	if err != nil {
		return nil, err
	}

	cands := Candidates(class, wl)
	lens := make([]int, len(cands))
	for i, c := range cands {
		if len(c) == 0 {
			return []*core.LipidSpecies{}, nil
		}
		lens[i] = len(c)
	}

	// Combinations with ether or plasmalogen chains are kept apart and only
	// where every link is allowed at its position.
	var acyl, linked [][]core.Chain
	gen := combin.NewCartesianGenerator(lens)
	idx := make([]int, len(lens))
	for gen.Next() {
		idx = gen.Product(idx)
		chains := make([]core.Chain, len(idx))
		alkyl := false
		for p, i := range idx {
			chains[p] = cands[p][i]
			alkyl = alkyl || chains[p].Link.IsAlkyl()
		}
		if !allowed(class, chains) {
			continue
		}
		if alkyl {
			linked = append(linked, chains)
		} else {
			acyl = append(acyl, chains)
		}
	}

	seen := make(map[string]bool)
	species := []*core.LipidSpecies{}
	for _, chains := range append(acyl, linked...) {
		key := PositionalName(class.Name, chains)
		if !opts.ResolvePosition {
			key = DiscreteName(class, chains)
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		s, err := buildSpecies(class, chains, adducts, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		species = append(species, s)
	}
	return Dedup(species), nil
}

func resolveAdducts(reg *lipidclass.Registry, class lipidclass.Class, labels []string) ([]lipidclass.Adduct, error) {
	if len(labels) == 0 {
		labels = class.Adducts
	}
	adducts := make([]lipidclass.Adduct, 0, len(labels))
	for _, label := range labels {
		_, a, err := reg.ClassAdduct(class.Name, label)
		if err != nil {
			return nil, err
		}
		adducts = append(adducts, a)
	}
	return adducts, nil
}

func allowed(class lipidclass.Class, chains []core.Chain) bool {
	for p, c := range chains {
		if !class.Positions[p].Allows(c.Link) {
			return false
		}
	}
	return true
}

// DiscreteName renders the position independent identity, e.g.
// "TG(16:0_18:1_18:1)". Acyl chains are sorted unless the class fixes its
// positions; other chains keep their order ahead of them.
func DiscreteName(class lipidclass.Class, chains []core.Chain) string {
	if class.FixedPositions {
		return class.Name + "(" + core.ChainString(chains, "_") + ")"
	}
	var lead, acyl []core.Chain
	for _, c := range chains {
		if c.Link == core.LinkAcyl {
			acyl = append(acyl, c)
		} else {
			lead = append(lead, c)
		}
	}
	sort.SliceStable(acyl, func(i, j int) bool { return acyl[i].Less(acyl[j]) })
	return class.Name + "(" + core.ChainString(append(lead, acyl...), "_") + ")"
}

// PositionalName renders the identity with chains in position order, e.g.
// "PC(16:0/18:1)".
func PositionalName(class string, chains []core.Chain) string {
	return class + "(" + core.ChainString(chains, "/") + ")"
}

func buildSpecies(class lipidclass.Class, chains []core.Chain, adducts []lipidclass.Adduct, opts Options) (*core.LipidSpecies, error) {
	bulk, err := Aggregate(class.Name, chains)
	if err != nil {
		return nil, err
	}
	formula, err := ChainsFormula(class, chains)
	if err != nil {
		return nil, err
	}
	mass, err := core.ExactMass(formula)
	if err != nil {
		return nil, err
	}

	s := &core.LipidSpecies{
		Class:          class.Name,
		Chains:         append([]core.Chain(nil), chains...),
		DiscreteAbbr:   DiscreteName(class, chains),
		PositionalAbbr: PositionalName(class.Name, chains),
		BulkAbbr:       bulk.String(),
		Positional:     opts.ResolvePosition,
		Formula:        formula,
		FormulaString:  core.RenderFormula(formula, ""),
		ExactMass:      mass,
	}

	for _, a := range adducts {
		charged, err := applyAdduct(formula, a)
		if err != nil {
			return nil, err
		}
		mz, err := core.ExactMass(charged)
		if err != nil {
			return nil, err
		}
		frags, err := Predict(class, s, a, opts.PPM)
		if err != nil {
			return nil, err
		}
		s.Ions = append(s.Ions, core.Ion{
			Adduct:        a.Label,
			Formula:       charged,
			FormulaString: core.RenderFormula(charged, a.Polarity),
			MZ:            mz,
			Fragments:     frags,
		})
	}
	return s, nil
}

// Dedup keeps the first species per key and returns them sorted by key.
// It is idempotent.
func Dedup(species []*core.LipidSpecies) []*core.LipidSpecies {
	sorted := append([]*core.LipidSpecies(nil), species...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key() < sorted[j].Key()
	})
	out := make([]*core.LipidSpecies, 0, len(sorted))
	for i, s := range sorted {
		if i > 0 && s.Key() == sorted[i-1].Key() {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Index maps each species by its key.
func Index(species []*core.LipidSpecies) map[string]*core.LipidSpecies {
	idx := make(map[string]*core.LipidSpecies, len(species))
	for _, s := range species {
		if _, ok := idx[s.Key()]; !ok {
			idx[s.Key()] = s
		}
	}
	return idx
}

// Bulk groups species by bulk abbreviation, e.g. PC(34:1) to every
// discrete PC(34:1) species, with keys in sorted order.
func Bulk(species []*core.LipidSpecies) ([]string, map[string][]*core.LipidSpecies) {
	groups := make(map[string][]*core.LipidSpecies)
	for _, s := range species {
		groups[s.BulkAbbr] = append(groups[s.BulkAbbr], s)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}
