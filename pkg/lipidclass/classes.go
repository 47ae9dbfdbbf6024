package lipidclass

import "github.com/ChrisMcGann/lipidkey/pkg/core"

type ec = core.ElementCount

// Head groups
var (
	paHG  = ec{"H": 3, "O": 4, "P": 1}
	pcHG  = ec{"C": 5, "H": 14, "O": 4, "P": 1, "N": 1}
	peHG  = ec{"C": 2, "H": 8, "O": 4, "P": 1, "N": 1}
	pgHG  = ec{"C": 3, "H": 9, "O": 6, "P": 1}
	piHG  = ec{"C": 6, "H": 13, "O": 9, "P": 1}
	pipHG = ec{"C": 6, "H": 14, "O": 12, "P": 2}
	psHG  = ec{"C": 3, "H": 8, "O": 6, "P": 1, "N": 1}
	smHG  = ec{"C": 5, "H": 12, "O": 3, "P": 1, "N": 1} // phosphocholine less water
	noHG  = ec{}
)

// Backbones. Chains contribute C carbons and 2C-2DB hydrogens on top.
var (
	plBackbone  = ec{"C": 3, "H": 2, "O": 4}
	lplBackbone = ec{"C": 3, "H": 4, "O": 3}
	tgBackbone  = ec{"C": 3, "H": 2, "O": 6}
	dgBackbone  = ec{"C": 3, "H": 4, "O": 5}
	faBackbone  = ec{"O": 2}
	cerBackbone = ec{"H": 1, "O": 1, "N": 1}
)

var (
	acylOnly  = []core.Link{core.LinkAcyl}
	anyLinked = []core.Link{core.LinkAcyl, core.LinkEther, core.LinkPlasmalogen}
	bases     = []core.Link{core.LinkDiBase, core.LinkTriBase, core.LinkMonoBase}
)

func defaultAdducts() []Adduct {
	return []Adduct{
		{Label: "[M-H]-", Delta: ec{"H": -1}, Polarity: "-"},
		{Label: "[M+HCOO]-", Delta: ec{"H": 1, "C": 1, "O": 2}, Polarity: "-"},
		{Label: "[M+FA-H]-", Delta: ec{"H": 1, "C": 1, "O": 2}, Polarity: "-"},
		{Label: "[M+CH3COO]-", Delta: ec{"H": 3, "C": 2, "O": 2}, Polarity: "-"},
		{Label: "[M+OAc]-", Delta: ec{"H": 3, "C": 2, "O": 2}, Polarity: "-"},
		{Label: "[M+H]+", Delta: ec{"H": 1}, Polarity: "+"},
		{Label: "[M+NH4]+", Delta: ec{"N": 1, "H": 4}, Polarity: "+"},
		{Label: "[M+Na]+", Delta: ec{"Na": 1}, Polarity: "+"},
		{Label: "[M+K]+", Delta: ec{"K": 1}, Polarity: "+"},
		{Label: "[M+H-H2O]+", Delta: ec{"H": -1, "O": -1}, Polarity: "+"},
		{Label: "[M+H-2xH2O]+", Delta: ec{"H": -3, "O": -2}, Polarity: "+"},
	}
}

func loss(label string, delta ec) FragmentRule {
	return FragmentRule{Label: label, Kind: NeutralLoss, Delta: delta}
}

func ion(label string, formula ec) FragmentRule {
	return FragmentRule{Label: label, Kind: FixedIon, Delta: formula}
}

func chainLoss(label string, delta ec) FragmentRule {
	return FragmentRule{Label: label, Kind: ChainLoss, Delta: delta}
}

func chainIon(label string, delta ec) FragmentRule {
	return FragmentRule{Label: label, Kind: ChainIon, Delta: delta}
}

func baseIon(label string, delta ec, links ...core.Link) FragmentRule {
	return FragmentRule{Label: label, Kind: ChainIon, Delta: delta, Links: links}
}

// Fragments shared by glycerophospholipids in negative mode.
func plNegative(extra ...FragmentRule) []FragmentRule {
	rules := []FragmentRule{
		chainIon("[FA({chain})-H]-", ec{"H": -1}),
		chainLoss("[M-H-FA({chain})]-", ec{}),
		chainLoss("[M-H-FA({chain})+H2O]-", ec{"H": 2, "O": 1}),
	}
	return append(rules, extra...)
}

func lplNegative(extra ...FragmentRule) []FragmentRule {
	rules := []FragmentRule{
		chainIon("[FA({chain})-H]-", ec{"H": -1}),
		loss("[M-H-H2O]-", ec{"H": -2, "O": -1}),
	}
	return append(rules, extra...)
}

// Demethylation of choline head groups from formate or acetate adducts.
func pcAnion(adductLoss ec, chains bool) []FragmentRule {
	rules := []FragmentRule{loss("[M-CH3]-", adductLoss)}
	if chains {
		rules = append(rules,
			chainIon("[FA({chain})-H]-", ec{"H": -1}),
			chainLoss("[M-CH3-FA({chain})]-", adductLoss),
			chainLoss("[M-CH3-FA({chain})+H2O]-", adductLoss.Add(ec{"H": 2, "O": 1})),
		)
	} else {
		rules = append(rules, chainIon("[FA({chain})-H]-", ec{"H": -1}))
	}
	return rules
}

var (
	formateLoss = ec{"C": -2, "H": -4, "O": -2} // HCOOCH3
	acetateLoss = ec{"C": -3, "H": -6, "O": -2} // CH3COOCH3

	gpIon      = ion("[GP-H2O-H]-", ec{"C": 3, "H": 6, "O": 5, "P": 1})
	h2po4Ion   = ion("[H2PO4]-", ec{"H": 2, "O": 4, "P": 1})
	cholineIon = ion("[PC-HG+H]+", ec{"C": 5, "H": 15, "N": 1, "O": 4, "P": 1})
	peHGLoss   = loss("[M+H-C2H8NO4P]+", ec{"C": -2, "H": -8, "N": -1, "O": -4, "P": -1})
	psHGLoss   = loss("[M+H-C3H8NO6P]+", ec{"C": -3, "H": -8, "N": -1, "O": -6, "P": -1})
	serineLoss = loss("[M-H-C3H5NO2]-", ec{"C": -3, "H": -5, "N": -1, "O": -2})
	tmaLoss    = loss("[M+Na-C3H9N]+", ec{"C": -3, "H": -9, "N": -1})
	pcHGLoss   = loss("[M+Na-C5H14NO4P]+", ec{"C": -5, "H": -14, "N": -1, "O": -4, "P": -1})

	peIons  = []FragmentRule{ion("[PE-HG-H]-", ec{"C": 2, "H": 7, "N": 1, "O": 4, "P": 1}), ion("[GPE-H2O-H]-", ec{"C": 5, "H": 11, "N": 1, "O": 5, "P": 1})}
	pgIons  = []FragmentRule{gpIon, ion("[GP-H]-", ec{"C": 3, "H": 8, "O": 6, "P": 1})}
	piIons  = []FragmentRule{gpIon, ion("[IP-H2O-H]-", ec{"C": 6, "H": 10, "O": 8, "P": 1}), ion("[IP-2H2O-H]-", ec{"C": 6, "H": 8, "O": 7, "P": 1})}
	pipIons = []FragmentRule{ion("[IP2-H2O-H]-", ec{"C": 6, "H": 11, "O": 11, "P": 2}), ion("[IP-H2O-H]-", ec{"C": 6, "H": 10, "O": 8, "P": 1})}
	paIons  = []FragmentRule{gpIon, h2po4Ion}
)

func glycerophospholipid(name string, hg ec, neg []FragmentRule, extra map[string][]FragmentRule) (Class, Class) {
	pl := Class{
		Name:      name,
		Family:    "PL",
		HeadGroup: hg,
		Backbone:  plBackbone,
		Positions: []Position{{Name: "FA1", Links: anyLinked}, {Name: "FA2", Links: acylOnly}},
		Adducts:   []string{"[M-H]-"},
		Fragments: map[string][]FragmentRule{"[M-H]-": plNegative(neg...)},
	}
	lpl := Class{
		Name:      "L" + name,
		Family:    "LPL",
		Fallbacks: []string{"PL"},
		HeadGroup: hg,
		Backbone:  lplBackbone,
		Positions: []Position{{Name: "FA1", Links: anyLinked}},
		Adducts:   []string{"[M-H]-"},
		Fragments: map[string][]FragmentRule{"[M-H]-": lplNegative(neg...)},
	}
	for _, adduct := range sortedKeys(extra) {
		rules := extra[adduct]
		pl.Adducts = append(pl.Adducts, adduct)
		pl.Fragments[adduct] = rules
		lpl.Adducts = append(lpl.Adducts, adduct)
		lpl.Fragments[adduct] = rules
	}
	return pl, lpl
}

func defaultClasses() []Class {
	var classes []Class

	pa, lpa := glycerophospholipid("PA", paHG, paIons, nil)
	pe, lpe := glycerophospholipid("PE", peHG, peIons, map[string][]FragmentRule{
		"[M+H]+": {peHGLoss, chainLoss("[M+H-FA({chain})]+", ec{})},
	})
	pg, lpg := glycerophospholipid("PG", pgHG, pgIons, nil)
	pi, lpi := glycerophospholipid("PI", piHG, piIons, nil)
	pip, lpip := glycerophospholipid("PIP", pipHG, pipIons, nil)
	ps, lps := glycerophospholipid("PS", psHG, []FragmentRule{serineLoss}, map[string][]FragmentRule{
		"[M+H]+": {psHGLoss, chainLoss("[M+H-FA({chain})]+", ec{})},
	})
	classes = append(classes, pa, lpa, pe, lpe, pg, lpg, pi, lpi, pip, lpip, ps, lps)

	// Choline lipids ionise as formate/acetate adducts in negative mode.
	pcPositive := []FragmentRule{
		cholineIon,
		chainLoss("[M+H-FA({chain})]+", ec{}),
		chainLoss("[M+H-FA({chain})+H2O]+", ec{"H": 2, "O": 1}),
	}
	pcSodium := []FragmentRule{tmaLoss, pcHGLoss, chainLoss("[M+Na-FA({chain})]+", ec{})}
	pc := Class{
		Name:      "PC",
		Family:    "PL",
		HeadGroup: pcHG,
		Backbone:  plBackbone,
		Positions: []Position{{Name: "FA1", Links: anyLinked}, {Name: "FA2", Links: acylOnly}},
		Adducts:   []string{"[M+HCOO]-", "[M+FA-H]-", "[M+CH3COO]-", "[M+OAc]-", "[M+H]+", "[M+Na]+"},
		Fragments: map[string][]FragmentRule{
			"[M+HCOO]-":   pcAnion(formateLoss, true),
			"[M+FA-H]-":   pcAnion(formateLoss, true),
			"[M+CH3COO]-": pcAnion(acetateLoss, true),
			"[M+OAc]-":    pcAnion(acetateLoss, true),
			"[M+H]+":      pcPositive,
			"[M+Na]+":     pcSodium,
		},
	}
	lpc := Class{
		Name:      "LPC",
		Family:    "LPL",
		Fallbacks: []string{"PL"},
		HeadGroup: pcHG,
		Backbone:  lplBackbone,
		Positions: []Position{{Name: "FA1", Links: anyLinked}},
		Adducts:   []string{"[M+HCOO]-", "[M+FA-H]-", "[M+CH3COO]-", "[M+OAc]-", "[M+H]+"},
		Fragments: map[string][]FragmentRule{
			"[M+HCOO]-":   pcAnion(formateLoss, false),
			"[M+FA-H]-":   pcAnion(formateLoss, false),
			"[M+CH3COO]-": pcAnion(acetateLoss, false),
			"[M+OAc]-":    pcAnion(acetateLoss, false),
			"[M+H]+":      {cholineIon, loss("[M+H-H2O]+", ec{"H": -2, "O": -1})},
		},
	}
	classes = append(classes, pc, lpc)

	mgIon := chainIon("[MG({chain})-H2O+H]+", ec{"C": 3, "H": 5, "O": 1})
	acylium := chainIon("[FA({chain})-H2O+H]+", ec{"H": -1, "O": -1})
	tg := Class{
		Name:      "TG",
		HeadGroup: noHG,
		Backbone:  tgBackbone,
		Positions: []Position{
			{Name: "FA1", Links: anyLinked},
			{Name: "FA2", Links: acylOnly},
			{Name: "FA3", Links: acylOnly},
		},
		Adducts: []string{"[M+NH4]+", "[M+H]+", "[M+Na]+"},
		Fragments: map[string][]FragmentRule{
			"[M+NH4]+": {chainLoss("[M+NH4-FA({chain})-NH3]+", ec{"N": -1, "H": -3}), mgIon, acylium},
			"[M+H]+":   {chainLoss("[M+H-FA({chain})]+", ec{}), mgIon, acylium},
			"[M+Na]+":  {chainLoss("[M+Na-FA({chain})]+", ec{}), acylium},
		},
	}
	dg := Class{
		Name:      "DG",
		Family:    "TG",
		HeadGroup: noHG,
		Backbone:  dgBackbone,
		Positions: []Position{{Name: "FA1", Links: anyLinked}, {Name: "FA2", Links: acylOnly}},
		Adducts:   []string{"[M+NH4]+", "[M+H]+", "[M+Na]+"},
		Fragments: map[string][]FragmentRule{
			"[M+NH4]+": {
				loss("[M+NH4-NH3-H2O]+", ec{"N": -1, "H": -5, "O": -1}),
				chainLoss("[M+NH4-FA({chain})-NH3]+", ec{"N": -1, "H": -3}),
				acylium,
			},
			"[M+H]+":  {loss("[M+H-H2O]+", ec{"H": -2, "O": -1}), chainLoss("[M+H-FA({chain})]+", ec{}), acylium},
			"[M+Na]+": {chainLoss("[M+Na-FA({chain})]+", ec{})},
		},
	}
	fa := Class{
		Name:      "FA",
		HeadGroup: noHG,
		Backbone:  faBackbone,
		Positions: []Position{{Name: "FA1", Links: acylOnly}},
		Adducts:   []string{"[M-H]-"},
		Fragments: map[string][]FragmentRule{
			"[M-H]-": {loss("[M-H-H2O]-", ec{"H": -2, "O": -1}), loss("[M-H-CO2]-", ec{"C": -1, "O": -2})},
		},
	}
	classes = append(classes, tg, dg, fa)

	lcb2 := baseIon("[LCB({chain})-2H2O+H]+", ec{"H": -3, "O": -2}, core.LinkDiBase, core.LinkTriBase)
	lcb1 := baseIon("[LCB({chain})-H2O+H]+", ec{"H": -1, "O": -1}, bases...)
	sphingoid := []Position{{Name: "BASE", Links: bases}, {Name: "FA1", Links: acylOnly}}
	cer := Class{
		Name:           "Cer",
		Family:         "CER",
		HeadGroup:      noHG,
		Backbone:       cerBackbone,
		Positions:      sphingoid,
		FixedPositions: true,
		Adducts:        []string{"[M+H]+", "[M+H-H2O]+", "[M-H]-", "[M+HCOO]-"},
		Fragments: map[string][]FragmentRule{
			"[M+H]+": {
				loss("[M+H-H2O]+", ec{"H": -2, "O": -1}),
				loss("[M+H-2H2O]+", ec{"H": -4, "O": -2}),
				lcb2, lcb1,
			},
			"[M+H-H2O]+": {lcb2},
			"[M-H]-": {
				loss("[M-H-H2O]-", ec{"H": -2, "O": -1}),
				loss("[M-H-CH2O]-", ec{"C": -1, "H": -2, "O": -1}),
				{Label: "[FA({chain})+NH3-H2O-H]-", Kind: ChainIon, Delta: ec{"N": 1, "H": 0, "O": -1}, Positions: []int{2}},
			},
			"[M+HCOO]-": {
				loss("[M-H]-", ec{"C": -1, "H": -2, "O": -2}),
				loss("[M-H-H2O]-", ec{"C": -1, "H": -4, "O": -3}),
			},
		},
	}
	sm := Class{
		Name:           "SM",
		Family:         "SM",
		HeadGroup:      smHG,
		Backbone:       cerBackbone,
		Positions:      sphingoid,
		FixedPositions: true,
		Adducts:        []string{"[M+H]+", "[M+Na]+", "[M+HCOO]-"},
		Fragments: map[string][]FragmentRule{
			"[M+H]+":    {cholineIon, lcb2},
			"[M+Na]+":   {tmaLoss, pcHGLoss},
			"[M+HCOO]-": {loss("[M-CH3]-", formateLoss)},
		},
	}
	classes = append(classes, cer, sm)

	return classes
}
