package core

import (
	"sort"
	"strings"
)

// WhitelistEntry is one fatty acid or sphingoid base row of a whitelist.
type WhitelistEntry struct {
	Abbr  string          // as written in the FATTYACID column
	Chain Chain           // decoded chain, class "FA"
	Flags map[string]bool // upper-case column name -> flag
}

// Flag reports whether the entry is flagged in a column. Column names are
// case-insensitive.
func (e WhitelistEntry) Flag(col string) bool {
	return e.Flags[strings.ToUpper(col)]
}

// Whitelist is the user supplied set of chains with their class and
// position flags.
type Whitelist struct {
	columns map[string]bool
	Entries []WhitelistEntry
}

// NewWhitelist creates an empty whitelist with the given flag columns.
func NewWhitelist(columns ...string) *Whitelist {
	w := &Whitelist{columns: make(map[string]bool, len(columns))}
	for _, c := range columns {
		w.columns[strings.ToUpper(c)] = true
	}
	return w
}

// HasColumn reports whether the whitelist carries a flag column.
func (w *Whitelist) HasColumn(col string) bool {
	return w.columns[strings.ToUpper(col)]
}

// Columns returns the flag columns in sorted order.
func (w *Whitelist) Columns() []string {
	cols := make([]string, 0, len(w.columns))
	for c := range w.columns {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Add appends a chain flagged in the given columns. Unknown columns are
// registered.
func (w *Whitelist) Add(abbr string, chain Chain, flagged ...string) {
	if w.columns == nil {
		w.columns = make(map[string]bool)
	}
	flags := make(map[string]bool, len(flagged))
	for _, c := range flagged {
		c = strings.ToUpper(c)
		flags[c] = true
		w.columns[c] = true
	}
	w.Entries = append(w.Entries, WhitelistEntry{Abbr: abbr, Chain: chain, Flags: flags})
}

// Len returns the number of entries.
func (w *Whitelist) Len() int {
	return len(w.Entries)
}
