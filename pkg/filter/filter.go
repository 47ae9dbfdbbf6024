// Package filter provides species and fragment filtering for generated libraries
package filter

import (
	"strings"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	MinMZ          float64     // Drop ions below this precursor m/z (0 = no limit)
	MaxMZ          float64     // Drop ions above this precursor m/z (0 = no limit)
	MaxDB          int         // Drop species with more summed double bonds (0 = no limit)
	Links          []core.Link // Keep only species whose chains all use these links (nil = all)
	FragmentLabels []string    // Keep only fragments whose label starts with one of these (nil = all)
}

// Active reports whether any filter is configured.
func (c *Config) Active() bool {
	return c.MinMZ > 0 || c.MaxMZ > 0 || c.MaxDB > 0 || len(c.Links) > 0 || len(c.FragmentLabels) > 0
}

// Apply applies all configured filters to a species. Species are never
// modified; a filtered copy is returned when ions or fragments are dropped.
// The boolean is false when nothing of the species survives.
func (c *Config) Apply(s *core.LipidSpecies) (*core.LipidSpecies, bool) {
	if c.MaxDB > 0 {
		if _, db, _ := s.Bulk(); db > c.MaxDB {
			return nil, false
		}
	}

	if len(c.Links) > 0 && !c.linksAllowed(s.Chains) {
		return nil, false
	}

	if c.MinMZ <= 0 && c.MaxMZ <= 0 && len(c.FragmentLabels) == 0 {
		return s, true
	}

	out := *s
	out.Ions = nil
	for _, ion := range s.Ions {
		if !c.inRange(ion.MZ) {
			continue
		}
		if len(c.FragmentLabels) > 0 {
			ion.Fragments = c.filterFragments(ion.Fragments)
		}
		out.Ions = append(out.Ions, ion)
	}

	// A species generated without adducts has no ions to range-check.
	if len(s.Ions) > 0 && len(out.Ions) == 0 {
		return nil, false
	}
	return &out, true
}

// Species filters a whole library, preserving order.
func (c *Config) Species(species []*core.LipidSpecies) []*core.LipidSpecies {
	if !c.Active() {
		return species
	}
	var kept []*core.LipidSpecies
	for _, s := range species {
		if f, ok := c.Apply(s); ok {
			kept = append(kept, f)
		}
	}
	return kept
}

func (c *Config) inRange(mz float64) bool {
	if c.MinMZ > 0 && mz < c.MinMZ {
		return false
	}
	if c.MaxMZ > 0 && mz > c.MaxMZ {
		return false
	}
	return true
}

func (c *Config) linksAllowed(chains []core.Chain) bool {
	for _, ch := range chains {
		ok := false
		for _, l := range c.Links {
			if ch.Link == l {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// filterFragments keeps only fragments matching the configured labels
func (c *Config) filterFragments(frags []core.FragmentIon) []core.FragmentIon {
	var filtered []core.FragmentIon
	for _, f := range frags {
		if matchesLabel(f.Label, c.FragmentLabels) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// matchesLabel checks if a fragment label starts with any of the prefixes
func matchesLabel(label string, prefixes []string) bool {
	if label == "" {
		return false
	}

	for _, p := range prefixes {
		// Match at start of label (e.g. "[M-H]-", "[18:1-H]-")
		if strings.HasPrefix(label, p) {
			return true
		}
	}
	return false
}

// RemoveEmptyIons drops ions that have no predicted fragments. The species
// is returned unchanged when every ion has fragments.
func RemoveEmptyIons(s *core.LipidSpecies) *core.LipidSpecies {
	var ions []core.Ion
	for _, ion := range s.Ions {
		if len(ion.Fragments) > 0 {
			ions = append(ions, ion)
		}
	}
	if len(ions) == len(s.Ions) {
		return s
	}
	out := *s
	out.Ions = ions
	return &out
}
