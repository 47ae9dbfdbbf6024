// Package core provides the records produced by the lipid library generator
// and their validation logic.
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// LipidSpecies is one predicted lipid with its neutral and charged forms.
// Instances are built once by the composer and not modified afterwards.
type LipidSpecies struct {
	Class  string
	Chains []Chain // one per position, in position order

	DiscreteAbbr   string // position independent identity, e.g. "PC(16:0_18:1)"
	PositionalAbbr string // identity with positions, e.g. "PC(16:0/18:1)"
	BulkAbbr       string // summed chains, e.g. "PC(34:1)"
	Positional     bool   // true when generated with exact positions

	Formula       ElementCount
	FormulaString string
	ExactMass     float64

	Ions []Ion // one per requested adduct
}

// Ion is the charged form of a species under one adduct.
type Ion struct {
	Adduct        string
	Formula       ElementCount
	FormulaString string
	MZ            float64
	Fragments     []FragmentIon
}

// FragmentIon is a predicted fragment and its tolerance window.
type FragmentIon struct {
	Label string
	MZ    float64
	PPM   float64
	Low   float64
	High  float64
}

// Query renders the window the way the search step expects it.
func (f FragmentIon) Query() string {
	return fmt.Sprintf("%.6f <= mz <= %.6f", f.Low, f.High)
}

// Key returns the lookup key: the positional identity when positions are
// resolved, the discrete identity otherwise.
func (s *LipidSpecies) Key() string {
	if s.Positional {
		return s.PositionalAbbr
	}
	return s.DiscreteAbbr
}

// Ion returns the charged form for an adduct label.
func (s *LipidSpecies) Ion(adduct string) (Ion, bool) {
	for _, ion := range s.Ions {
		if ion.Adduct == adduct {
			return ion, true
		}
	}
	return Ion{}, false
}

// Bulk returns the summed chain: total carbons, double bonds and hydroxyls.
func (s *LipidSpecies) Bulk() (c, db, o int) {
	for _, ch := range s.Chains {
		c += ch.C
		db += ch.DB
		o += ch.O
	}
	return c, db, o
}

// Validate checks that a species is internally consistent.
func (s *LipidSpecies) Validate() error {
	var errs []string

	if s.Class == "" {
		errs = append(errs, "class is required")
	}
	if len(s.Chains) == 0 {
		errs = append(errs, "at least one chain is required")
	}
	if s.DiscreteAbbr == "" {
		errs = append(errs, "discrete abbreviation is required")
	}
	if s.ExactMass <= 0 || math.IsNaN(s.ExactMass) || math.IsInf(s.ExactMass, 0) {
		errs = append(errs, "exact mass must be positive")
	}

	if bulk, err := Decode(s.BulkAbbr); err != nil {
		errs = append(errs, fmt.Sprintf("bulk abbreviation: %v", err))
	} else {
		c, db, _ := s.Bulk()
		if bulk.C != c || bulk.DB != db {
			errs = append(errs, fmt.Sprintf("bulk %s does not match chain sum %d:%d", s.BulkAbbr, c, db))
		}
	}

	for _, ion := range s.Ions {
		if ion.MZ <= 0 {
			errs = append(errs, fmt.Sprintf("%s m/z must be positive", ion.Adduct))
		}
		if !AreFragmentsSorted(ion.Fragments) {
			errs = append(errs, fmt.Sprintf("%s fragments must be sorted by m/z", ion.Adduct))
		}
		for _, f := range ion.Fragments {
			if f.Low > f.MZ || f.High < f.MZ {
				errs = append(errs, fmt.Sprintf("fragment %s window does not contain its m/z", f.Label))
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   s.Key(),
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// AreFragmentsSorted checks if fragments are sorted by m/z in ascending order.
func AreFragmentsSorted(frags []FragmentIon) bool {
	for i := 1; i < len(frags); i++ {
		if frags[i].MZ < frags[i-1].MZ {
			return false
		}
	}
	return true
}

// SortFragments sorts fragments by m/z, then label, in place.
func SortFragments(frags []FragmentIon) {
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].MZ != frags[j].MZ {
			return frags[i].MZ < frags[j].MZ
		}
		return frags[i].Label < frags[j].Label
	})
}

// ChainString returns the chains joined with sep, e.g. "16:0_18:1".
func ChainString(chains []Chain, sep string) string {
	parts := make([]string, len(chains))
	for i, c := range chains {
		parts[i] = c.Abbr()
	}
	return strings.Join(parts, sep)
}
