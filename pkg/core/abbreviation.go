package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Link is the attachment marker of a chain.
type Link string

const (
	LinkAcyl        Link = "A-" // ester bound fatty acyl
	LinkEther       Link = "O-" // alkyl ether
	LinkPlasmalogen Link = "P-" // vinyl ether
	LinkMonoBase    Link = "m"  // 1-deoxy sphingoid base
	LinkDiBase      Link = "d"  // dihydroxy sphingoid base
	LinkTriBase     Link = "t"  // trihydroxy sphingoid base
)

// Links lists every known link marker.
var Links = []Link{LinkAcyl, LinkEther, LinkPlasmalogen, LinkMonoBase, LinkDiBase, LinkTriBase}

// linkElem is the adjustment of a chain relative to a plain acyl chain.
var linkElem = map[Link]ElementCount{
	LinkAcyl:        {},
	LinkEther:       {"O": -1, "H": 2},
	LinkPlasmalogen: {"O": -1},
	LinkMonoBase:    {"O": 1},
	LinkDiBase:      {"O": 2},
	LinkTriBase:     {"O": 3},
}

// Valid reports whether l is a known marker.
func (l Link) Valid() bool {
	_, ok := linkElem[l]
	return ok
}

// IsBase reports whether l marks a sphingoid base.
func (l Link) IsBase() bool {
	return l == LinkMonoBase || l == LinkDiBase || l == LinkTriBase
}

// IsAlkyl reports whether l marks an ether or plasmalogen chain.
func (l Link) IsAlkyl() bool {
	return l == LinkEther || l == LinkPlasmalogen
}

// Prefix is the marker as written in an abbreviation. Acyl chains carry none.
func (l Link) Prefix() string {
	if l == LinkAcyl || l == "" {
		return ""
	}
	return string(l)
}

// Adjustment returns the element delta of the marker.
func (l Link) Adjustment() ElementCount {
	return linkElem[l].Clone()
}

// ParseLink maps whitelist and shorthand spellings onto a marker.
// "SPB" has no marker of its own; it resolves to the dihydroxy base.
func ParseLink(s string) (Link, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "A", "A-", "FA":
		return LinkAcyl, nil
	case "O", "O-":
		return LinkEther, nil
	case "P", "P-":
		return LinkPlasmalogen, nil
	case "M":
		return LinkMonoBase, nil
	case "D", "SPB":
		return LinkDiBase, nil
	case "T":
		return LinkTriBase, nil
	}
	return "", fmt.Errorf("unknown link marker %q", s)
}

// Chain is a decoded abbreviation: a single chain or the bulk chain sum of a
// lipid. It is a value type and is never modified once decoded.
type Chain struct {
	Class string // class prefix, "FA" for bare chains
	Link  Link
	C     int // carbons
	DB    int // double bonds
	O     int // additional hydroxyl oxygens
}

// Abbr renders the chain without class prefix, e.g. "16:0", "O-18:1", "d18:1", "24:0;1".
func (c Chain) Abbr() string {
	s := fmt.Sprintf("%s%d:%d", c.Link.Prefix(), c.C, c.DB)
	if c.O > 0 {
		s += ";" + strconv.Itoa(c.O)
	}
	return s
}

// String renders the chain with its class, e.g. "PC(34:1)".
func (c Chain) String() string {
	return fmt.Sprintf("%s(%s)", c.Class, c.Abbr())
}

// Contribution is what the chain adds to a lipid on top of head group and
// backbone: C carbons, 2C-2DB hydrogens, O hydroxyls and the link delta.
func (c Chain) Contribution() ElementCount {
	ec := ElementCount{"C": c.C, "H": 2*c.C - 2*c.DB, "O": c.O}
	return ec.Add(linkElem[c.Link])
}

// Free is the composition of the chain as a free molecule: the fatty acid
// for acyl chains, the fatty alcohol for ether chains and the long chain
// base for sphingoid bases.
func (c Chain) Free() ElementCount {
	if c.Link.IsBase() {
		return c.Contribution().Add(ElementCount{"N": 1, "H": 3})
	}
	return c.Contribution().Add(ElementCount{"O": 2})
}

// Less orders chains by carbons, double bonds, then hydroxyls.
func (c Chain) Less(o Chain) bool {
	if c.C != o.C {
		return c.C < o.C
	}
	if c.DB != o.DB {
		return c.DB < o.DB
	}
	if c.O != o.O {
		return c.O < o.O
	}
	return c.Link < o.Link
}

// abbrRgx is the shorthand grammar:
//
//	abbr  := class "(" chain ")" | class chain | chain
//	chain := [link] carbon ":" dbonds [";" ["O"] hydroxyl]
//
// The class is matched lazily, so a trailing d, t or m before the carbon
// count is read as the base link: "PCd36:1" is PC with a d link.
var abbrRgx = regexp.MustCompile(
	`^(?:(?P<class>[A-Z][A-Za-z]*?)(?P<open>\()?)?` +
		`(?P<link>O-|P-|A-|d|t|m)?` +
		`(?P<c>\d{1,3}):(?P<db>\d{1,2})` +
		`(?:;(?P<oh>O?\d{1,2}|O))?` +
		`(?P<close>\))?$`)

// Decode parses a lipid shorthand such as "PC(36:3)", "TG(P-48:2)",
// "Cer(d34:0)" or "t10:0". The link defaults to acyl and the class to FA.
func Decode(abbr string) (Chain, error) {
	s := strings.TrimSpace(abbr)
	m := abbrRgx.FindStringSubmatch(s)
	if m == nil {
		return Chain{}, &ParseError{Abbr: abbr, Reason: "does not match [class(][link]C:DB[;O][)]"}
	}
	group := func(name string) string {
		return m[abbrRgx.SubexpIndex(name)]
	}

	if (group("open") == "") != (group("close") == "") {
		return Chain{}, &ParseError{Abbr: abbr, Reason: "unbalanced parentheses"}
	}

	c, err := strconv.Atoi(group("c"))
	if err != nil {
		return Chain{}, &ParseError{Abbr: abbr, Reason: "invalid carbon count"}
	}
	db, err := strconv.Atoi(group("db"))
	if err != nil {
		return Chain{}, &ParseError{Abbr: abbr, Reason: "invalid double bond count"}
	}
	if db > c {
		return Chain{}, &ParseError{Abbr: abbr, Reason: "more double bonds than carbons"}
	}

	o := 0
	if oh := group("oh"); oh != "" {
		oh = strings.TrimPrefix(oh, "O")
		if oh == "" {
			o = 1
		} else if o, err = strconv.Atoi(oh); err != nil {
			return Chain{}, &ParseError{Abbr: abbr, Reason: "invalid hydroxyl count"}
		}
	}

	chain := Chain{
		Class: group("class"),
		Link:  Link(group("link")),
		C:     c,
		DB:    db,
		O:     o,
	}
	if chain.Class == "" {
		chain.Class = "FA"
	}
	if chain.Link == "" {
		chain.Link = LinkAcyl
	}
	return chain, nil
}

// MustDecode is Decode for literals; it panics on error.
func MustDecode(abbr string) Chain {
	c, err := Decode(abbr)
	if err != nil {
		panic(err)
	}
	return c
}
