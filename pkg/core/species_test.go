package core

import (
	"testing"
)

func validSpecies() *LipidSpecies {
	return &LipidSpecies{
		Class:          "PC",
		Chains:         []Chain{MustDecode("16:0"), MustDecode("18:1")},
		DiscreteAbbr:   "PC(16:0_18:1)",
		PositionalAbbr: "PC(16:0/18:1)",
		BulkAbbr:       "PC(34:1)",
		Formula:        ElementCount{"C": 42, "H": 82, "N": 1, "O": 8, "P": 1},
		FormulaString:  "C42H82NO8P",
		ExactMass:      759.577805,
		Ions: []Ion{
			{
				Adduct: "[M+H]+",
				MZ:     760.58563,
				Fragments: []FragmentIon{
					{Label: "[PC-HG]+", MZ: 184.073871, Low: 184.073, High: 184.074},
					{Label: "[M+H-FA(16:0)]+", MZ: 504.3, Low: 504.29, High: 504.31},
				},
			},
		},
	}
}

func TestSpeciesValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *LipidSpecies)
		wantErr bool
	}{
		{
			name:    "valid species",
			mutate:  func(s *LipidSpecies) {},
			wantErr: false,
		},
		{
			name:    "missing class",
			mutate:  func(s *LipidSpecies) { s.Class = "" },
			wantErr: true,
		},
		{
			name:    "no chains",
			mutate:  func(s *LipidSpecies) { s.Chains = nil },
			wantErr: true,
		},
		{
			name:    "bulk does not match chains",
			mutate:  func(s *LipidSpecies) { s.BulkAbbr = "PC(36:1)" },
			wantErr: true,
		},
		{
			name:    "malformed bulk",
			mutate:  func(s *LipidSpecies) { s.BulkAbbr = "PC(34)" },
			wantErr: true,
		},
		{
			name: "unsorted fragments",
			mutate: func(s *LipidSpecies) {
				f := s.Ions[0].Fragments
				s.Ions[0].Fragments = []FragmentIon{f[1], f[0]}
			},
			wantErr: true,
		},
		{
			name:    "window misses m/z",
			mutate:  func(s *LipidSpecies) { s.Ions[0].Fragments[0].High = 184.0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSpecies()
			tt.mutate(s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSortFragments(t *testing.T) {
	frags := []FragmentIon{
		{Label: "c", MZ: 300.0},
		{Label: "a", MZ: 100.0},
		{Label: "b", MZ: 200.0},
	}

	SortFragments(frags)

	expected := []float64{100.0, 200.0, 300.0}
	for i, f := range frags {
		if f.MZ != expected[i] {
			t.Errorf("Fragment %d: expected m/z %.1f, got %.1f", i, expected[i], f.MZ)
		}
	}
}

func TestSpeciesKey(t *testing.T) {
	s := validSpecies()
	if s.Key() != "PC(16:0_18:1)" {
		t.Errorf("Expected discrete key, got %s", s.Key())
	}
	s.Positional = true
	if s.Key() != "PC(16:0/18:1)" {
		t.Errorf("Expected positional key, got %s", s.Key())
	}
}

func TestSpeciesIon(t *testing.T) {
	s := validSpecies()
	if _, ok := s.Ion("[M+H]+"); !ok {
		t.Error("Expected [M+H]+ ion")
	}
	if _, ok := s.Ion("[M-H]-"); ok {
		t.Error("Did not expect [M-H]- ion")
	}
}

func TestChainString(t *testing.T) {
	got := ChainString([]Chain{MustDecode("d18:1"), MustDecode("24:0")}, "_")
	if got != "d18:1_24:0" {
		t.Errorf("Expected d18:1_24:0, got %s", got)
	}
}

func TestFragmentQuery(t *testing.T) {
	f := FragmentIon{Low: 184.07, High: 184.08}
	if got := f.Query(); got != "184.070000 <= mz <= 184.080000" {
		t.Errorf("Query() = %s", got)
	}
}
