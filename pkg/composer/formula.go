// Package composer builds lipid formulas, species libraries and fragment
// predictions from the class registry and a chain whitelist.
package composer

import (
	"fmt"
	"strings"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
	"github.com/ChrisMcGann/lipidkey/pkg/lipidclass"
)

// NeutralFormula composes the neutral formula of a lipid from its bulk
// chain: head group, backbone and the chain contribution.
func NeutralFormula(class lipidclass.Class, bulk core.Chain) (core.ElementCount, error) {
	if !bulk.Link.Valid() {
		return nil, fmt.Errorf("%s: unknown link %q", bulk, bulk.Link)
	}
	return class.Base().Add(bulk.Contribution()), nil
}

// ChainsFormula composes the neutral formula from individual chains. The
// result equals NeutralFormula of the aggregated chain.
func ChainsFormula(class lipidclass.Class, chains []core.Chain) (core.ElementCount, error) {
	ec := class.Base()
	for _, c := range chains {
		if !c.Link.Valid() {
			return nil, fmt.Errorf("%s: unknown link %q", c.Abbr(), c.Link)
		}
		ec = ec.Add(c.Contribution())
	}
	return ec, nil
}

// ChargedFormula adds an adduct delta to the neutral formula. A negative
// element count means the adduct cannot form from this lipid.
func ChargedFormula(class lipidclass.Class, bulk core.Chain, adduct lipidclass.Adduct) (core.ElementCount, error) {
	neutral, err := NeutralFormula(class, bulk)
	if err != nil {
		return nil, err
	}
	return applyAdduct(neutral, adduct)
}

func applyAdduct(neutral core.ElementCount, adduct lipidclass.Adduct) (core.ElementCount, error) {
	charged := neutral.Add(adduct.Delta)
	for _, el := range charged.Elements() {
		if charged[el] < 0 {
			return nil, fmt.Errorf("%s: negative %s count in %s", adduct.Label, el, neutral)
		}
	}
	return charged, nil
}

// Aggregate sums chains into the bulk chain of a lipid, e.g. 16:0 and 18:1
// into PC(34:1). At most one chain may carry a marker other than acyl; the
// bulk takes that marker.
func Aggregate(class string, chains []core.Chain) (core.Chain, error) {
	bulk := core.Chain{Class: class, Link: core.LinkAcyl}
	for _, c := range chains {
		bulk.C += c.C
		bulk.DB += c.DB
		bulk.O += c.O
		if c.Link == core.LinkAcyl {
			continue
		}
		if bulk.Link != core.LinkAcyl {
			return core.Chain{}, fmt.Errorf("%s(%s): more than one non-acyl chain", class, core.ChainString(chains, "_"))
		}
		bulk.Link = c.Link
	}
	return bulk, nil
}

// IsNeutral reports whether an adduct label asks for the neutral molecule.
func IsNeutral(adduct string) bool {
	return adduct == "" || strings.EqualFold(adduct, "neutral")
}

// Formula returns the formula string and composition of an abbreviation.
// An empty or "neutral" adduct gives the neutral formula; any other label
// gives the charged formula with its polarity appended. The adduct does not
// need to be one the class is configured for.
func Formula(reg *lipidclass.Registry, abbr, adduct string) (string, core.ElementCount, error) {
	bulk, err := core.Decode(abbr)
	if err != nil {
		return "", nil, err
	}
	class, err := reg.Class(bulk.Class)
	if err != nil {
		return "", nil, err
	}
	neutral, err := NeutralFormula(class, bulk)
	if err != nil {
		return "", nil, err
	}
	if IsNeutral(adduct) {
		return core.RenderFormula(neutral, ""), neutral, nil
	}

	a, err := reg.Adduct(adduct)
	if err != nil {
		return "", nil, err
	}
	charged, err := applyAdduct(neutral, a)
	if err != nil {
		return "", nil, err
	}
	return core.RenderFormula(charged, a.Polarity), charged, nil
}

// Mass returns the monoisotopic mass (or m/z for a charged adduct) of an
// abbreviation.
func Mass(reg *lipidclass.Registry, abbr, adduct string) (float64, error) {
	_, ec, err := Formula(reg, abbr, adduct)
	if err != nil {
		return 0, err
	}
	return core.ExactMass(ec)
}
