package composer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
	"github.com/ChrisMcGann/lipidkey/pkg/lipidclass"
)

func testWhitelist() *core.Whitelist {
	wl := core.NewWhitelist("PL", "TG", "CER", "FA1", "FA2", "FA3", "D", "T", "M")
	add := func(abbr string, flags ...string) {
		wl.Add(abbr, core.MustDecode(abbr), flags...)
	}
	add("16:0", "PL", "TG", "FA1", "FA2", "FA3")
	add("18:1", "PL", "TG", "FA1", "FA2", "FA3")
	add("18:2", "PL", "TG", "FA1", "FA2", "FA3")
	add("O-16:0", "PL", "FA1", "FA2")
	add("P-18:0", "PL", "FA1")
	add("18:1", "CER", "D")
	add("18:0", "CER", "D", "T")
	add("24:0", "CER", "FA1")
	return wl
}

func keys(species []*core.LipidSpecies) []string {
	out := make([]string, len(species))
	for i, s := range species {
		out[i] = s.Key()
	}
	return out
}

func TestGenerateTriglycerides(t *testing.T) {
	reg := lipidclass.Default()
	wl := testWhitelist()
	opts := Options{Adducts: []string{"[M+NH4]+"}, PPM: 20}

	tg, _ := reg.Class("TG")
	cands := Candidates(tg, wl)
	bound := 1
	for _, c := range cands {
		bound *= len(c)
	}
	if bound != 27 {
		t.Fatalf("candidate product = %d, want 27", bound)
	}

	discrete, err := Generate(reg, "TG", wl, opts)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// Multisets of three chains out of three.
	if len(discrete) != 10 || len(discrete) > bound {
		t.Errorf("discrete species = %d, want 10", len(discrete))
	}

	opts.ResolvePosition = true
	positional, err := Generate(reg, "TG", wl, opts)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(positional) != bound {
		t.Errorf("positional species = %d, want %d", len(positional), bound)
	}

	idx := Index(discrete)
	s, ok := idx["TG(16:0_18:1_18:1)"]
	if !ok {
		t.Fatalf("TG(16:0_18:1_18:1) missing from %v", keys(discrete))
	}
	if s.BulkAbbr != "TG(52:2)" {
		t.Errorf("bulk = %s, want TG(52:2)", s.BulkAbbr)
	}
	if ion, ok := s.Ion("[M+NH4]+"); !ok || len(ion.Fragments) == 0 {
		t.Errorf("expected [M+NH4]+ ion with fragments, got %+v", ion)
	}
}

func TestDiscreteNameIgnoresSymmetricPositions(t *testing.T) {
	tg, _ := lipidclass.Default().Class("TG")
	a := []core.Chain{core.MustDecode("16:0"), core.MustDecode("18:1"), core.MustDecode("18:1")}
	b := []core.Chain{core.MustDecode("18:1"), core.MustDecode("16:0"), core.MustDecode("18:1")}

	if DiscreteName(tg, a) != DiscreteName(tg, b) {
		t.Errorf("%s != %s", DiscreteName(tg, a), DiscreteName(tg, b))
	}
	if got := DiscreteName(tg, b); got != "TG(16:0_18:1_18:1)" {
		t.Errorf("DiscreteName() = %s", got)
	}
	if PositionalName("TG", a) == PositionalName("TG", b) {
		t.Error("positional names should differ")
	}

	ether := []core.Chain{core.MustDecode("O-18:0"), core.MustDecode("20:4"), core.MustDecode("16:0")}
	if got := DiscreteName(tg, ether); got != "TG(O-18:0_16:0_20:4)" {
		t.Errorf("DiscreteName() = %s, want TG(O-18:0_16:0_20:4)", got)
	}

	cer, _ := lipidclass.Default().Class("Cer")
	fixed := []core.Chain{core.MustDecode("d18:1"), core.MustDecode("16:0")}
	if got := DiscreteName(cer, fixed); got != "Cer(d18:1_16:0)" {
		t.Errorf("DiscreteName() = %s, want Cer(d18:1_16:0)", got)
	}
}

func TestGeneratePhosphatidylcholines(t *testing.T) {
	reg := lipidclass.Default()
	wl := testWhitelist()
	opts := Options{Adducts: []string{"[M+HCOO]-", "[M+H]+"}, PPM: 20}

	species, err := Generate(reg, "PC", wl, opts)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := []string{
		"PC(16:0_16:0)", "PC(16:0_18:1)", "PC(16:0_18:2)",
		"PC(18:1_18:1)", "PC(18:1_18:2)", "PC(18:2_18:2)",
		"PC(O-16:0_16:0)", "PC(O-16:0_18:1)", "PC(O-16:0_18:2)",
		"PC(P-18:0_16:0)", "PC(P-18:0_18:1)", "PC(P-18:0_18:2)",
	}
	if diff := cmp.Diff(want, keys(species)); diff != "" {
		t.Errorf("species mismatch (-want +got):\n%s", diff)
	}

	class, _ := reg.Class("PC")
	for _, s := range species {
		if err := s.Validate(); err != nil {
			t.Errorf("%s: %v", s.Key(), err)
		}
		if len(s.Ions) != 2 {
			t.Errorf("%s: %d ions, want 2", s.Key(), len(s.Ions))
		}
		bulk, _ := core.Decode(s.BulkAbbr)
		neutral, _ := NeutralFormula(class, bulk)
		if !neutral.Equal(s.Formula) {
			t.Errorf("%s: formula %s, bulk %s gives %s", s.Key(), s.FormulaString, s.BulkAbbr, neutral)
		}
	}

	s := Index(species)["PC(16:0_18:1)"]
	if s.FormulaString != "C42H82NO8P" || s.ExactMass != core.MustExactMass(s.Formula) || s.BulkAbbr != "PC(34:1)" {
		t.Errorf("PC(16:0_18:1) = %s %f %s", s.FormulaString, s.ExactMass, s.BulkAbbr)
	}
	if ether := Index(species)["PC(O-16:0_18:1)"]; ether.BulkAbbr != "PC(O-34:1)" {
		t.Errorf("ether bulk = %s, want PC(O-34:1)", ether.BulkAbbr)
	}

	opts.ResolvePosition = true
	positional, err := Generate(reg, "PC", wl, opts)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// 3x3 acyl combinations plus two alkyl chains at sn-1 with three acyl chains.
	if len(positional) != 15 {
		t.Errorf("positional species = %d, want 15", len(positional))
	}
	if _, ok := Index(positional)["PC(18:1/16:0)"]; !ok {
		t.Error("PC(18:1/16:0) missing from positional library")
	}
}

func TestGenerateCeramides(t *testing.T) {
	reg := lipidclass.Default()
	species, err := Generate(reg, "Cer", testWhitelist(), Options{Adducts: []string{"[M+H]+"}, PPM: 10})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := []string{"Cer(d18:0_24:0)", "Cer(d18:1_24:0)", "Cer(t18:0_24:0)"}
	if diff := cmp.Diff(want, keys(species)); diff != "" {
		t.Errorf("species mismatch (-want +got):\n%s", diff)
	}

	s := Index(species)["Cer(d18:1_24:0)"]
	if s.FormulaString != "C42H83NO3" || s.BulkAbbr != "Cer(d42:1)" {
		t.Errorf("Cer(d18:1_24:0) = %s %s", s.FormulaString, s.BulkAbbr)
	}
	if s.Chains[0].Link != core.LinkDiBase {
		t.Errorf("base link = %s, want d", s.Chains[0].Link)
	}
}

func TestGenerateLysoFromPLColumn(t *testing.T) {
	reg := lipidclass.Default()

	// No LPL or LPC column: lyso classes read the PL column.
	species, err := Generate(reg, "LPC", testWhitelist(), Options{Adducts: []string{"[M+H]+"}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := []string{"LPC(16:0)", "LPC(18:1)", "LPC(18:2)", "LPC(O-16:0)", "LPC(P-18:0)"}
	if diff := cmp.Diff(want, keys(species)); diff != "" {
		t.Errorf("LPC species mismatch (-want +got):\n%s", diff)
	}

	// An LPL column takes precedence over PL.
	wl := core.NewWhitelist("PL", "LPL", "FA1", "FA2")
	wl.Add("16:0", core.MustDecode("16:0"), "PL", "FA1", "FA2")
	wl.Add("20:4", core.MustDecode("20:4"), "LPL", "FA1")
	species, err = Generate(reg, "LPE", wl, Options{Adducts: []string{"[M-H]-"}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if diff := cmp.Diff([]string{"LPE(20:4)"}, keys(species)); diff != "" {
		t.Errorf("LPE species mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateEmptyPosition(t *testing.T) {
	reg := lipidclass.Default()

	// No column of any kind for the class.
	noClass := core.NewWhitelist("FA1", "FA2")
	noClass.Add("16:0", core.MustDecode("16:0"), "FA1", "FA2")
	species, err := Generate(reg, "LPC", noClass, Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if species == nil || len(species) != 0 {
		t.Errorf("expected empty non-nil result, got %v", species)
	}

	wl := core.NewWhitelist("TG", "FA1", "FA2", "FA3")
	wl.Add("16:0", core.MustDecode("16:0"), "TG", "FA1", "FA2")
	species, err = Generate(reg, "TG", wl, Options{})
	if err != nil || len(species) != 0 {
		t.Errorf("Generate() = %v, %v; want empty result", keys(species), err)
	}
}

func TestGenerateErrors(t *testing.T) {
	reg := lipidclass.Default()
	wl := testWhitelist()

	if _, err := Generate(reg, "XYZ", wl, Options{}); !errors.Is(err, core.ErrUnknownClass) {
		t.Errorf("unknown class error = %v", err)
	}
	if _, err := Generate(reg, "TG", wl, Options{Adducts: []string{"[M-H]-"}}); !errors.Is(err, core.ErrUnsupportedAdduct) {
		t.Errorf("unsupported adduct error = %v", err)
	}
	if _, err := Generate(reg, "TG", wl, Options{Adducts: []string{"[M+Xe]+"}}); !errors.Is(err, core.ErrUnknownAdduct) {
		t.Errorf("unknown adduct error = %v", err)
	}
}

func TestSpeciesDoNotShareState(t *testing.T) {
	species, err := Generate(lipidclass.Default(), "TG", testWhitelist(), Options{Adducts: []string{"[M+Na]+"}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(species) < 2 {
		t.Fatalf("need at least two species, got %d", len(species))
	}

	first, second := species[0], species[1]
	wantChains := append([]core.Chain(nil), second.Chains...)
	wantFormula := second.Formula.Clone()
	wantIon := second.Ions[0].Formula.Clone()

	first.Chains[0].C = 99
	first.Formula["C"] = 1000
	first.Ions[0].Formula["Na"] = 5

	if diff := cmp.Diff(wantChains, second.Chains); diff != "" {
		t.Errorf("chains changed through another species:\n%s", diff)
	}
	if !wantFormula.Equal(second.Formula) || !wantIon.Equal(second.Ions[0].Formula) {
		t.Error("formulas changed through another species")
	}
}

func TestDedup(t *testing.T) {
	mk := func(key string, mass float64) *core.LipidSpecies {
		return &core.LipidSpecies{DiscreteAbbr: key, ExactMass: mass}
	}
	in := []*core.LipidSpecies{mk("b", 1), mk("a", 2), mk("b", 3), mk("a", 4), mk("c", 5)}

	once := Dedup(in)
	if diff := cmp.Diff([]string{"a", "b", "c"}, keys(once)); diff != "" {
		t.Errorf("Dedup() mismatch:\n%s", diff)
	}
	if once[0].ExactMass != 2 || once[1].ExactMass != 1 {
		t.Error("Dedup() should keep the first species per key")
	}

	twice := Dedup(once)
	if diff := cmp.Diff(keys(once), keys(twice)); diff != "" {
		t.Errorf("Dedup() is not idempotent:\n%s", diff)
	}
	if len(in) != 5 {
		t.Error("Dedup() modified its input")
	}
}

func TestBulkGroups(t *testing.T) {
	species, _ := Generate(lipidclass.Default(), "PC", testWhitelist(), Options{Adducts: []string{"[M+H]+"}})
	names, groups := Bulk(species)

	if len(groups["PC(34:1)"]) != 1 {
		t.Errorf("PC(34:1) group = %v", keys(groups["PC(34:1)"]))
	}
	if len(groups["PC(34:2)"]) != 1 {
		t.Errorf("PC(34:2) group = %v", keys(groups["PC(34:2)"]))
	}
	if len(groups["PC(36:3)"]) != 1 {
		t.Errorf("PC(36:3) group = %v", keys(groups["PC(36:3)"]))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("bulk names not sorted: %v", names)
		}
	}
}
