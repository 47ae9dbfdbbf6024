package composer

import (
	"fmt"
	"math"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
	"github.com/ChrisMcGann/lipidkey/pkg/lipidclass"
)

const (
	// MaxDeductionIterations bounds the double bond search of DeduceTG.
	MaxDeductionIterations = 200
	// DeductionTolerance is the largest accepted difference in Da between
	// the observed m/z and the reconstructed TG.
	DeductionTolerance = 0.05
	// MaxDeductionMZ is the largest precursor DeduceTG accepts. TG(999:0),
	// the largest bulk an abbreviation can spell, is below it.
	MaxDeductionMZ = 20000.0

	ammoniated = "[M+NH4]+"
)

// Glycerol C3H5 plus the ester oxygens and terminal carbons of three
// chains, C6H9O6. What remains of a TG is CH2 units less two H per double
// bond.
var tgCore = core.ElementCount{"C": 9, "H": 14, "O": 6}

// TGDeduction is a TG bulk composition recovered from a precursor m/z.
type TGDeduction struct {
	MZ         float64 // observed precursor
	Adduct     string  // adduct the precursor was interpreted as
	Bulk       core.Chain
	Abbr       string // e.g. "TG(52:2)"
	Formula    core.ElementCount
	MZError    float64 // observed minus reconstructed, in Da
	Iterations int

	AmmoniatedMZ      float64 // [M+NH4]+ of the deduced TG
	AmmoniatedFormula string
}

// DeduceTG recovers the C:DB of a triglyceride precursor observed as the
// given adduct. The search steps one double bond at a time and fails with
// ErrDisambiguation when it exceeds MaxDeductionIterations, runs out of
// mass, or yields a TG whose m/z misses the observation by more than
// DeductionTolerance. Seven or more double bonds alias to fewer and are
// rejected by that check.
func DeduceTG(reg *lipidclass.Registry, mz float64, adduct string) (*TGDeduction, error) {
	class, a, err := reg.ClassAdduct("TG", adduct)
	if err != nil {
		return nil, err
	}
	nh4, err := reg.Adduct(ammoniated)
	if err != nil {
		return nil, err
	}
	fail := func(it int, format string, args ...any) error {
		return &core.DisambiguationError{MZ: mz, Adduct: adduct, Iterations: it, Reason: fmt.Sprintf(format, args...)}
	}

	delta, err := core.ExactMass(a.Delta)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(mz) || math.IsInf(mz, 0) {
		return nil, fail(0, "m/z is not a finite number")
	}
	if mz > MaxDeductionMZ {
		return nil, fail(0, "m/z above %g is beyond any triglyceride", MaxDeductionMZ)
	}
	rest := mz - delta - core.MustExactMass(tgCore)
	if rest < 1 {
		return nil, fail(0, "m/z too low for a triglyceride")
	}
	residual := int(rest)

	db, it := 0, 0
	for residual%14 > 1 {
		if it >= MaxDeductionIterations {
			return nil, fail(it, "no CH2 multiple found")
		}
		db++
		it++
		residual -= 26
		if residual <= 0 {
			return nil, fail(it, "residual mass exhausted at %d double bonds", db)
		}
	}
	bulk := core.Chain{Class: class.Name, Link: core.LinkAcyl, C: residual/14 + 6 + 2*db, DB: db}
	if bulk.DB > bulk.C {
		return nil, fail(it, "%s has more double bonds than carbons", bulk)
	}

	neutral, err := NeutralFormula(class, bulk)
	if err != nil {
		return nil, err
	}
	charged, err := applyAdduct(neutral, a)
	if err != nil {
		return nil, err
	}
	reconstructed, err := core.ExactMass(charged)
	if err != nil {
		return nil, err
	}
	diff := core.RoundFloat(mz-reconstructed, core.MassDecimals)
	if math.Abs(diff) > DeductionTolerance {
		return nil, fail(it, "%s%s at m/z %.4f differs by %.4f", bulk, adduct, reconstructed, diff)
	}

	amm := neutral.Add(nh4.Delta)
	ammMZ, err := core.ExactMass(amm)
	if err != nil {
		return nil, err
	}
	return &TGDeduction{
		MZ:                mz,
		Adduct:            adduct,
		Bulk:              bulk,
		Abbr:              bulk.String(),
		Formula:           neutral,
		MZError:           diff,
		Iterations:        it,
		AmmoniatedMZ:      ammMZ,
		AmmoniatedFormula: core.RenderFormula(amm, nh4.Polarity),
	}, nil
}

// Hypothesis is one interpretation of an ambiguous precursor.
type Hypothesis struct {
	Adduct    string
	Deduction *TGDeduction
	Err       error
}

// Disambiguation holds both readings of a TG precursor labelled [M+H]+ or
// [M+Na]+: as labelled, and as the other adduct. Each carries its own error.
type Disambiguation struct {
	MZ          float64
	Labelled    Hypothesis
	Alternative Hypothesis
}

// Resolved returns the hypotheses that produced a deduction.
func (d *Disambiguation) Resolved() []Hypothesis {
	var out []Hypothesis
	for _, h := range []Hypothesis{d.Labelled, d.Alternative} {
		if h.Err == nil {
			out = append(out, h)
		}
	}
	return out
}

var alternativeAdduct = map[string]string{
	"[M+H]+":  "[M+Na]+",
	"[M+Na]+": "[M+H]+",
}

// DisambiguateAmmoniated evaluates a TG precursor under its labelled adduct
// and the alternative one, each mapped to its [M+NH4]+ form. Only labels
// with an alternative are accepted.
func DisambiguateAmmoniated(reg *lipidclass.Registry, mz float64, adduct string) (*Disambiguation, error) {
	alt, ok := alternativeAdduct[adduct]
	if !ok {
		return nil, &core.DisambiguationError{MZ: mz, Adduct: adduct, Reason: "only [M+H]+ and [M+Na]+ have an alternative"}
	}
	d := &Disambiguation{MZ: mz}
	d.Labelled.Adduct = adduct
	d.Labelled.Deduction, d.Labelled.Err = DeduceTG(reg, mz, adduct)
	d.Alternative.Adduct = alt
	d.Alternative.Deduction, d.Alternative.Err = DeduceTG(reg, mz, alt)
	return d, nil
}
