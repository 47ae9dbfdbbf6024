// Package core provides chemistry calculations for lipid formula and mass calculations
package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Atomic masses (monoisotopic, most abundant isotope)
const (
	MassH  = 1.0078250321
	MassD  = 2.0141017780
	MassC  = 12.0000000000
	MassN  = 14.0030740052
	MassO  = 15.9949146221
	MassNa = 22.98976967
	MassP  = 30.97376151
	MassS  = 31.97207069
	MassK  = 38.9637069

	// Proton mass for ppm error reporting against charged library values
	ProtonMass = 1.00727646688
)

// MassDecimals is the number of decimals every exact mass is rounded to.
const MassDecimals = 6

// ElementMasses maps element symbols to their monoisotopic mass
var ElementMasses = map[string]float64{
	"H":  MassH,
	"D":  MassD,
	"C":  MassC,
	"N":  MassN,
	"O":  MassO,
	"Na": MassNa,
	"P":  MassP,
	"S":  MassS,
	"K":  MassK,
}

// ElementCount stores an elemental composition. Counts may be negative for
// losses. Methods never modify the receiver.
type ElementCount map[string]int

// Clone returns an independent copy.
func (ec ElementCount) Clone() ElementCount {
	out := make(ElementCount, len(ec))
	for el, n := range ec {
		out[el] = n
	}
	return out
}

// Add returns ec + other.
func (ec ElementCount) Add(other ElementCount) ElementCount {
	out := ec.Clone()
	for el, n := range other {
		out[el] += n
	}
	return out
}

// Sub returns ec - other.
func (ec ElementCount) Sub(other ElementCount) ElementCount {
	return ec.Add(other.Scale(-1))
}

// Scale returns ec with every count multiplied by k.
func (ec ElementCount) Scale(k int) ElementCount {
	out := make(ElementCount, len(ec))
	for el, n := range ec {
		out[el] = n * k
	}
	return out
}

// Count returns the count of a single element (0 if absent).
func (ec ElementCount) Count(el string) int {
	return ec[el]
}

// Equal compares two compositions, treating absent and zero counts alike.
func (ec ElementCount) Equal(other ElementCount) bool {
	for el, n := range ec {
		if other[el] != n {
			return false
		}
	}
	for el, n := range other {
		if ec[el] != n {
			return false
		}
	}
	return true
}

// Elements returns the non-zero element symbols in Hill order: C, H, then
// the rest alphabetically.
func (ec ElementCount) Elements() []string {
	var els []string
	for el, n := range ec {
		if n != 0 {
			els = append(els, el)
		}
	}
	sort.Slice(els, func(i, j int) bool {
		ri, rj := hillRank(els[i]), hillRank(els[j])
		if ri != rj {
			return ri < rj
		}
		return els[i] < els[j]
	})
	return els
}

func hillRank(el string) int {
	switch el {
	case "C":
		return 0
	case "H":
		return 1
	default:
		return 2
	}
}

// String renders the composition without polarity.
func (ec ElementCount) String() string {
	return RenderFormula(ec, "")
}

// RenderFormula renders a formula string in Hill order, omitting the count
// for single atoms and zero-count elements, then appends the polarity sign
// ("+", "-" or "" for neutral).
func RenderFormula(ec ElementCount, polarity string) string {
	var sb strings.Builder
	for _, el := range ec.Elements() {
		n := ec[el]
		sb.WriteString(el)
		if n != 1 {
			sb.WriteString(strconv.Itoa(n))
		}
	}
	sb.WriteString(polarity)
	return sb.String()
}

// ExactMass computes the monoisotopic mass of a composition, rounded to
// MassDecimals. An element missing from ElementMasses is an error.
func ExactMass(ec ElementCount) (float64, error) {
	mass := 0.0
	for _, el := range sortedKeys(ec) {
		m, ok := ElementMasses[el]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownElement, el)
		}
		mass += float64(ec[el]) * m
	}
	return RoundFloat(mass, MassDecimals), nil
}

// MustExactMass is ExactMass for compositions built from static tables.
func MustExactMass(ec ElementCount) float64 {
	m, err := ExactMass(ec)
	if err != nil {
		panic(err)
	}
	return m
}

// sortedKeys fixes the summation order so masses are reproducible bit for bit.
func sortedKeys(ec ElementCount) []string {
	keys := make([]string, 0, len(ec))
	for el := range ec {
		keys = append(keys, el)
	}
	sort.Strings(keys)
	return keys
}

// PPMError returns the deviation of an observed m/z from a theoretical one in ppm.
func PPMError(observed, theoretical float64) float64 {
	return 1e6 * (observed - theoretical) / theoretical
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
