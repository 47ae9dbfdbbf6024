// Package lipidclass provides the lipid class registry: head groups,
// backbones, chain positions, adducts and fragment rules per class.
package lipidclass

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
)

// Adduct is an ionisation form with its elemental delta.
type Adduct struct {
	Label    string            `json:"label"`
	Delta    core.ElementCount `json:"delta"`
	Polarity string            `json:"polarity"` // "+" or "-"
}

// Position is one chain position of a class.
type Position struct {
	Name  string      `json:"name"`  // whitelist column, e.g. "FA1"
	Links []core.Link `json:"links"` // markers allowed at this position
}

// IsBase reports whether the position holds a sphingoid base. Base
// candidates are read from one whitelist column per marker ("D", "T", "M").
func (p Position) IsBase() bool {
	for _, l := range p.Links {
		if l.IsBase() {
			return true
		}
	}
	return false
}

// Allows reports whether a chain with link l may occupy the position.
func (p Position) Allows(l core.Link) bool {
	for _, allowed := range p.Links {
		if allowed == l {
			return true
		}
	}
	return false
}

// FragmentKind selects how a fragment rule computes its m/z.
type FragmentKind string

const (
	// NeutralLoss: precursor m/z + delta.
	NeutralLoss FragmentKind = "neutral_loss"
	// FixedIon: mass of delta alone, e.g. a head group ion.
	FixedIon FragmentKind = "ion"
	// ChainLoss: precursor m/z - free chain + delta, once per eligible chain.
	ChainLoss FragmentKind = "chain_loss"
	// ChainIon: free chain + delta, once per eligible chain.
	ChainIon FragmentKind = "chain_ion"
)

// FragmentRule predicts one diagnostic fragment. Labels of chain rules may
// contain "{chain}", replaced by the chain abbreviation, and "{class}".
type FragmentRule struct {
	Label     string            `json:"label"`
	Kind      FragmentKind      `json:"kind"`
	Delta     core.ElementCount `json:"delta"`
	Links     []core.Link       `json:"links,omitempty"`     // eligible chain links, acyl when empty
	Positions []int             `json:"positions,omitempty"` // 1-based, all when empty
}

// PerChain reports whether the rule is evaluated once per chain.
func (r FragmentRule) PerChain() bool {
	return r.Kind == ChainLoss || r.Kind == ChainIon
}

// Applies reports whether the rule is evaluated for chain c at 1-based position pos.
func (r FragmentRule) Applies(pos int, c core.Chain) bool {
	if len(r.Positions) > 0 {
		found := false
		for _, p := range r.Positions {
			if p == pos {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(r.Links) == 0 {
		return c.Link == core.LinkAcyl
	}
	for _, l := range r.Links {
		if l == c.Link {
			return true
		}
	}
	return false
}

// Class is the configuration of one lipid class.
type Class struct {
	Name           string                    `json:"name"`
	Family         string                    `json:"family,omitempty"`    // fallback whitelist column, e.g. "PL"
	Fallbacks      []string                  `json:"fallbacks,omitempty"` // further columns tried after Family
	HeadGroup      core.ElementCount         `json:"head_group"`
	Backbone       core.ElementCount         `json:"backbone"`
	Positions      []Position                `json:"positions"`
	FixedPositions bool                      `json:"fixed_positions,omitempty"` // identity keeps position order
	Adducts        []string                  `json:"adducts"`
	Fragments      map[string][]FragmentRule `json:"fragments,omitempty"`
}

// Base returns head group plus backbone.
func (c Class) Base() core.ElementCount {
	return c.HeadGroup.Add(c.Backbone)
}

// Columns returns the whitelist columns that select the class, in the
// order they are tried: the class name, the family, then the fallbacks.
func (c Class) Columns() []string {
	var cols []string
	seen := make(map[string]bool)
	for _, col := range append([]string{c.Name, c.Family}, c.Fallbacks...) {
		key := strings.ToUpper(col)
		if col == "" || seen[key] {
			continue
		}
		seen[key] = true
		cols = append(cols, col)
	}
	return cols
}

// Supports reports whether the class is configured for an adduct.
func (c Class) Supports(adduct string) bool {
	for _, a := range c.Adducts {
		if a == adduct {
			return true
		}
	}
	return false
}

// AllowsAlkyl reports whether any position accepts ether or plasmalogen chains.
func (c Class) AllowsAlkyl() bool {
	for _, p := range c.Positions {
		for _, l := range p.Links {
			if l.IsAlkyl() {
				return true
			}
		}
	}
	return false
}

func (c Class) clone() Class {
	out := c
	out.HeadGroup = c.HeadGroup.Clone()
	out.Backbone = c.Backbone.Clone()
	out.Positions = make([]Position, len(c.Positions))
	for i, p := range c.Positions {
		out.Positions[i] = Position{Name: p.Name, Links: append([]core.Link(nil), p.Links...)}
	}
	out.Adducts = append([]string(nil), c.Adducts...)
	out.Fallbacks = append([]string(nil), c.Fallbacks...)
	out.Fragments = make(map[string][]FragmentRule, len(c.Fragments))
	for adduct, rules := range c.Fragments {
		cp := make([]FragmentRule, len(rules))
		for i, r := range rules {
			cp[i] = r
			cp[i].Delta = r.Delta.Clone()
			cp[i].Links = append([]core.Link(nil), r.Links...)
			cp[i].Positions = append([]int(nil), r.Positions...)
		}
		out.Fragments[adduct] = cp
	}
	return out
}

// Registry stores class and adduct definitions. A registry is read-only
// once built; lookups hand out copies.
type Registry struct {
	classes map[string]Class
	adducts map[string]Adduct
}

// document is the JSON form of a registry.
type document struct {
	Adducts []Adduct `json:"adducts"`
	Classes []Class  `json:"classes"`
}

// NewRegistry builds and validates a registry.
func NewRegistry(classes []Class, adducts []Adduct) (*Registry, error) {
	r := &Registry{
		classes: make(map[string]Class, len(classes)),
		adducts: make(map[string]Adduct, len(adducts)),
	}
	for _, a := range adducts {
		if _, dup := r.adducts[a.Label]; dup {
			return nil, fmt.Errorf("duplicate adduct %s", a.Label)
		}
		r.adducts[a.Label] = Adduct{Label: a.Label, Delta: a.Delta.Clone(), Polarity: a.Polarity}
	}
	for _, c := range classes {
		if _, dup := r.classes[c.Name]; dup {
			return nil, fmt.Errorf("duplicate class %s", c.Name)
		}
		r.classes[c.Name] = c.clone()
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the built-in registry. It is built on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry(defaultClasses(), defaultAdducts())
		if err != nil {
			panic(fmt.Sprintf("lipidclass: built-in registry is invalid: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Validate checks coverage: every class has 1 to 4 positions with valid
// links, every supported adduct exists, every fragment rule is keyed by a
// supported adduct, and every composition uses known elements.
func (r *Registry) Validate() error {
	var errs []string

	checkElems := func(where string, ec core.ElementCount) {
		for el := range ec {
			if _, ok := core.ElementMasses[el]; !ok {
				errs = append(errs, fmt.Sprintf("%s: %v %q", where, core.ErrUnknownElement, el))
			}
		}
	}

	for _, label := range sortedKeys(r.adducts) {
		a := r.adducts[label]
		if a.Polarity != "+" && a.Polarity != "-" {
			errs = append(errs, fmt.Sprintf("adduct %s: polarity must be + or -", label))
		}
		checkElems("adduct "+label, a.Delta)
	}

	for _, name := range sortedKeys(r.classes) {
		c := r.classes[name]
		where := "class " + name
		if n := len(c.Positions); n < 1 || n > 4 {
			errs = append(errs, fmt.Sprintf("%s: %d chain positions, want 1 to 4", where, n))
		}
		for _, p := range c.Positions {
			if p.Name == "" || len(p.Links) == 0 {
				errs = append(errs, fmt.Sprintf("%s: position needs a name and links", where))
			}
			for _, l := range p.Links {
				if !l.Valid() {
					errs = append(errs, fmt.Sprintf("%s: position %s: unknown link %q", where, p.Name, l))
				}
			}
		}
		checkElems(where+" head group", c.HeadGroup)
		checkElems(where+" backbone", c.Backbone)
		for _, a := range c.Adducts {
			if _, ok := r.adducts[a]; !ok {
				errs = append(errs, fmt.Sprintf("%s: %v %s", where, core.ErrUnknownAdduct, a))
			}
		}
		for a, rules := range c.Fragments {
			if !c.Supports(a) {
				errs = append(errs, fmt.Sprintf("%s: fragment rules for unsupported adduct %s", where, a))
			}
			for _, rule := range rules {
				switch rule.Kind {
				case NeutralLoss, FixedIon, ChainLoss, ChainIon:
				default:
					errs = append(errs, fmt.Sprintf("%s: rule %s: unknown kind %q", where, rule.Label, rule.Kind))
				}
				for _, p := range rule.Positions {
					if p < 1 || p > len(c.Positions) {
						errs = append(errs, fmt.Sprintf("%s: rule %s: position %d out of range", where, rule.Label, p))
					}
				}
				checkElems(where+" rule "+rule.Label, rule.Delta)
			}
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return &core.ValidationError{Field: "Registry", Message: strings.Join(errs, "; ")}
	}
	return nil
}

// Class returns a copy of the named class. An exact match is preferred,
// then a case-insensitive one.
func (r *Registry) Class(name string) (Class, error) {
	if c, ok := r.classes[name]; ok {
		return c.clone(), nil
	}
	for n, c := range r.classes {
		if strings.EqualFold(n, name) {
			return c.clone(), nil
		}
	}
	return Class{}, &core.LookupError{Kind: core.ErrUnknownClass, Class: name}
}

// Adduct returns the named adduct.
func (r *Registry) Adduct(label string) (Adduct, error) {
	a, ok := r.adducts[label]
	if !ok {
		return Adduct{}, &core.LookupError{Kind: core.ErrUnknownAdduct, Name: label}
	}
	a.Delta = a.Delta.Clone()
	return a, nil
}

// ClassAdduct resolves a class and one of its configured adducts.
func (r *Registry) ClassAdduct(class, label string) (Class, Adduct, error) {
	c, err := r.Class(class)
	if err != nil {
		return Class{}, Adduct{}, err
	}
	a, err := r.Adduct(label)
	if err != nil {
		return Class{}, Adduct{}, err
	}
	if !c.Supports(label) {
		return Class{}, Adduct{}, &core.LookupError{Kind: core.ErrUnsupportedAdduct, Class: c.Name, Name: label}
	}
	return c, a, nil
}

// Classes returns the class names in sorted order.
func (r *Registry) Classes() []string {
	return sortedKeys(r.classes)
}

// Adducts returns the adduct labels in sorted order.
func (r *Registry) Adducts() []string {
	return sortedKeys(r.adducts)
}

// LoadJSON reads a registry document. The document is checked against the
// embedded JSON schema before it is decoded.
func LoadJSON(rd io.Reader) (*Registry, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("error reading registry: %w", err)
	}

	v, err := newSchemaValidator()
	if err != nil {
		return nil, err
	}
	if errs := v.validate(data); len(errs) > 0 {
		return nil, &core.ValidationError{Field: "registry document", Message: strings.Join(errs, "; ")}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode registry: %w", err)
	}
	return NewRegistry(doc.Classes, doc.Adducts)
}

// WriteJSON writes the registry in the form LoadJSON reads.
func (r *Registry) WriteJSON(w io.Writer) error {
	doc := document{}
	for _, label := range r.Adducts() {
		doc.Adducts = append(doc.Adducts, r.adducts[label])
	}
	for _, name := range r.Classes() {
		doc.Classes = append(doc.Classes, r.classes[name])
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
