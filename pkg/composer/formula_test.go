package composer

import (
	"errors"
	"math"
	"testing"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
	"github.com/ChrisMcGann/lipidkey/pkg/lipidclass"
)

func TestFormula(t *testing.T) {
	reg := lipidclass.Default()

	tests := []struct {
		abbr   string
		adduct string
		want   string
	}{
		{"PC(34:1)", "", "C42H82NO8P"},
		{"PC(36:3)", "", "C44H82NO8P"},
		{"PC(36:3)", "[M-H]-", "C44H81NO8P-"},
		{"PC(O-34:1)", "neutral", "C42H84NO7P"},
		{"PC(P-34:1)", "Neutral", "C42H82NO7P"},
		{"TG(P-48:2)", "[M+NH4]+", "C51H98NO5+"},
		{"Cer(d34:0)", "", "C34H69NO3"},
		{"LPC(16:0)", "", "C24H50NO7P"},
		{"LPC(16:0)", "[M+HCOO]-", "C25H51NO9P-"},
		{"FA10:0", "", "C10H20O2"},
		{"t10:0", "", "C10H20O5"},
		{"SM(d36:1)", "[M+H]+", "C41H84N2O6P+"},
	}

	for _, tt := range tests {
		t.Run(tt.abbr+tt.adduct, func(t *testing.T) {
			got, _, err := Formula(reg, tt.abbr, tt.adduct)
			if err != nil {
				t.Fatalf("Formula(%s, %s) error = %v", tt.abbr, tt.adduct, err)
			}
			if got != tt.want {
				t.Errorf("Formula(%s, %s) = %s, want %s", tt.abbr, tt.adduct, got, tt.want)
			}
		})
	}
}

func TestFormulaErrors(t *testing.T) {
	reg := lipidclass.Default()

	tests := []struct {
		abbr   string
		adduct string
		want   error
	}{
		{"PC(36:3", "", core.ErrParse},
		{"PC36:3)", "", core.ErrParse},
		{"XX(34:1)", "", core.ErrUnknownClass},
		{"PC(34:1)", "[M+Li]+", core.ErrUnknownAdduct},
		{"", "", core.ErrParse},
	}

	for _, tt := range tests {
		_, _, err := Formula(reg, tt.abbr, tt.adduct)
		if !errors.Is(err, tt.want) {
			t.Errorf("Formula(%q, %q) error = %v, want %v", tt.abbr, tt.adduct, err, tt.want)
		}
	}
}

func TestPC341Mass(t *testing.T) {
	m, err := Mass(lipidclass.Default(), "PC(34:1)", "")
	if err != nil {
		t.Fatalf("Mass() error = %v", err)
	}
	if math.Abs(m-759.578) > 0.001 {
		t.Errorf("PC(34:1) mass = %f, want 759.578 +- 0.001", m)
	}
}

func TestChargedMassIsNeutralPlusAdduct(t *testing.T) {
	reg := lipidclass.Default()

	for _, abbr := range []string{"PC(34:1)", "PE(O-38:4)", "TG(52:2)", "Cer(d42:1)", "LPI(18:0)"} {
		neutral, err := Mass(reg, abbr, "")
		if err != nil {
			t.Fatalf("Mass(%s) error = %v", abbr, err)
		}
		for _, label := range reg.Adducts() {
			a, _ := reg.Adduct(label)
			charged, err := Mass(reg, abbr, label)
			if err != nil {
				// Water losses cannot form from every class.
				continue
			}
			delta := core.MustExactMass(a.Delta)
			if math.Abs(charged-(neutral+delta)) > 2e-6 {
				t.Errorf("%s %s: m/z %f != %f + %f", abbr, label, charged, neutral, delta)
			}
		}
	}
}

func TestMassGrowsWithCarbons(t *testing.T) {
	reg := lipidclass.Default()
	ch2 := core.MustExactMass(core.ElementCount{"C": 1, "H": 2})

	prev, _ := Mass(reg, "PC(30:1)", "")
	for c := 31; c <= 44; c++ {
		bulk := core.Chain{Class: "PC", Link: core.LinkAcyl, C: c, DB: 1}
		m, err := Mass(reg, bulk.String(), "")
		if err != nil {
			t.Fatalf("Mass(%s) error = %v", bulk, err)
		}
		if m <= prev || math.Abs(m-prev-ch2) > 2e-6 {
			t.Errorf("%s: mass %f does not add CH2 to %f", bulk, m, prev)
		}
		prev = m
	}
}

func TestChainsFormulaMatchesBulk(t *testing.T) {
	reg := lipidclass.Default()

	tests := []struct {
		class  string
		chains []string
	}{
		{"PC", []string{"16:0", "18:1"}},
		{"PE", []string{"P-18:0", "20:4"}},
		{"TG", []string{"O-16:0", "18:1", "18:2"}},
		{"DG", []string{"16:0", "18:1"}},
		{"Cer", []string{"d18:1", "24:0"}},
		{"SM", []string{"t18:0", "16:0;1"}},
		{"LPA", []string{"18:1"}},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			class, err := reg.Class(tt.class)
			if err != nil {
				t.Fatal(err)
			}
			chains := make([]core.Chain, len(tt.chains))
			for i, s := range tt.chains {
				chains[i] = core.MustDecode(s)
			}
			bulk, err := Aggregate(class.Name, chains)
			if err != nil {
				t.Fatalf("Aggregate() error = %v", err)
			}
			want, _ := NeutralFormula(class, bulk)
			got, err := ChainsFormula(class, chains)
			if err != nil {
				t.Fatalf("ChainsFormula() error = %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("ChainsFormula = %s, bulk %s formula = %s", got, bulk, want)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	bulk, err := Aggregate("Cer", []core.Chain{core.MustDecode("d18:1"), core.MustDecode("24:0;1")})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if got := bulk.String(); got != "Cer(d42:1;1)" {
		t.Errorf("Aggregate() = %s, want Cer(d42:1;1)", got)
	}

	if _, err := Aggregate("PC", []core.Chain{core.MustDecode("O-16:0"), core.MustDecode("P-18:0")}); err == nil {
		t.Error("Aggregate() should reject two non-acyl chains")
	}
}

func TestChargedFormulaRejectsNegativeCounts(t *testing.T) {
	class, _ := lipidclass.Default().Class("FA")
	lossOfNa := lipidclass.Adduct{Label: "[M-Na]-", Delta: core.ElementCount{"Na": -1}, Polarity: "-"}
	if _, err := ChargedFormula(class, core.MustDecode("16:0"), lossOfNa); err == nil {
		t.Error("ChargedFormula() expected error for negative sodium count")
	}
}

func TestFormulaBatchIsolatesErrors(t *testing.T) {
	results := FormulaBatch(lipidclass.Default(), []string{"PC(34:1)", "PC(34", "TG(52:2)"}, "")

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Formula != "C42H82NO8P" {
		t.Errorf("result 0 = %+v", results[0])
	}
	if !errors.Is(results[1].Err, core.ErrParse) {
		t.Errorf("result 1 error = %v, want ErrParse", results[1].Err)
	}
	if results[2].Err != nil || results[2].Mass <= 0 {
		t.Errorf("result 2 = %+v", results[2])
	}
}
