package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
)

func species(abbr string, chains []string, ions ...core.Ion) *core.LipidSpecies {
	s := &core.LipidSpecies{Class: "PC", DiscreteAbbr: abbr, Ions: ions}
	for _, c := range chains {
		s.Chains = append(s.Chains, core.MustDecode(c))
	}
	return s
}

func ion(adduct string, mz float64, labels ...string) core.Ion {
	in := core.Ion{Adduct: adduct, MZ: mz}
	for i, l := range labels {
		in.Fragments = append(in.Fragments, core.FragmentIon{Label: l, MZ: float64(100 + i)})
	}
	return in
}

func names(list []*core.LipidSpecies) []string {
	var out []string
	for _, s := range list {
		out = append(out, s.DiscreteAbbr)
	}
	return out
}

func TestSpeciesFilters(t *testing.T) {
	library := []*core.LipidSpecies{
		species("PC(16:0_18:1)", []string{"16:0", "18:1"}, ion("[M+H]+", 760.585)),
		species("PC(18:2_20:4)", []string{"18:2", "20:4"}, ion("[M+H]+", 806.569)),
		species("PC(O-16:0_18:1)", []string{"O-16:0", "18:1"}, ion("[M+H]+", 746.606)),
		species("PC(14:0_14:0)", []string{"14:0", "14:0"}, ion("[M+H]+", 678.507)),
	}

	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"inactive", Config{}, []string{"PC(16:0_18:1)", "PC(18:2_20:4)", "PC(O-16:0_18:1)", "PC(14:0_14:0)"}},
		{"max db", Config{MaxDB: 2}, []string{"PC(16:0_18:1)", "PC(O-16:0_18:1)", "PC(14:0_14:0)"}},
		{"mz range", Config{MinMZ: 700, MaxMZ: 800}, []string{"PC(16:0_18:1)", "PC(O-16:0_18:1)"}},
		{"min mz only", Config{MinMZ: 750}, []string{"PC(16:0_18:1)", "PC(18:2_20:4)"}},
		{"acyl only", Config{Links: []core.Link{core.LinkAcyl}}, []string{"PC(16:0_18:1)", "PC(18:2_20:4)", "PC(14:0_14:0)"}},
		{"combined", Config{MaxMZ: 780, Links: []core.Link{core.LinkAcyl}}, []string{"PC(16:0_18:1)", "PC(14:0_14:0)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(tt.cfg.Species(library))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Species() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyDoesNotModify(t *testing.T) {
	s := species("PC(16:0_18:1)", []string{"16:0", "18:1"},
		ion("[M+H]+", 760.585, "[M+H-H2O]+", "[16:0+H]+"),
		ion("[M+Na]+", 782.567, "[M+Na-N(CH3)3]+"),
	)
	cfg := Config{MaxMZ: 770, FragmentLabels: []string{"[16:0"}}

	got, ok := cfg.Apply(s)
	if !ok {
		t.Fatal("Apply() dropped the species")
	}
	if len(got.Ions) != 1 || len(got.Ions[0].Fragments) != 1 || got.Ions[0].Fragments[0].Label != "[16:0+H]+" {
		t.Errorf("Apply() ions = %+v", got.Ions)
	}
	if len(s.Ions) != 2 || len(s.Ions[0].Fragments) != 2 {
		t.Errorf("Apply() modified its input: %+v", s.Ions)
	}

	if _, ok := (&Config{MinMZ: 900}).Apply(s); ok {
		t.Error("Apply() kept a species with no ion in range")
	}

	bare := species("PC(16:0_18:1)", []string{"16:0", "18:1"})
	if got, ok := (&Config{MinMZ: 900}).Apply(bare); !ok || got.DiscreteAbbr != bare.DiscreteAbbr {
		t.Error("Apply() dropped a species without ions")
	}
}

func TestRemoveEmptyIons(t *testing.T) {
	full := species("PC(16:0_18:1)", []string{"16:0", "18:1"}, ion("[M+H]+", 760.585, "a"))
	if got := RemoveEmptyIons(full); got != full {
		t.Error("RemoveEmptyIons() copied a species with no empty ions")
	}

	mixed := species("PC(16:0_18:1)", []string{"16:0", "18:1"}, ion("[M+H]+", 760.585), ion("[M+HCOO]-", 804.577, "b"))
	got := RemoveEmptyIons(mixed)
	if len(got.Ions) != 1 || got.Ions[0].Adduct != "[M+HCOO]-" {
		t.Errorf("RemoveEmptyIons() = %+v", got.Ions)
	}
	if len(mixed.Ions) != 2 {
		t.Error("RemoveEmptyIons() modified its input")
	}
}
