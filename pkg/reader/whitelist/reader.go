// Package whitelist provides streaming readers for fatty acid whitelist tables
package whitelist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
)

// Columns with a fixed meaning. Every other column is a flag column.
const (
	colAbbr = "FATTYACID"
	colC    = "C"
	colDB   = "DB"
	colO    = "O"
	colLink = "LINK"
)

var reserved = map[string]bool{colAbbr: true, colC: true, colDB: true, colO: true, colLink: true}

// Reader provides streaming access to whitelist CSV files
type Reader struct {
	csv     *csv.Reader
	header  []string
	flags   []string
	index   map[string]int
	lineNum int
	current core.WhitelistEntry
	err     error
}

// NewReader creates a new whitelist reader and consumes the header row.
// Header names are case-insensitive; FATTYACID is required.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty whitelist")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	rd := &Reader{csv: cr, index: make(map[string]int), lineNum: 1}
	for i, h := range header {
		h = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		rd.header = append(rd.header, h)
		if h != "" {
			rd.index[h] = i
		}
	}
	if _, ok := rd.index[colAbbr]; !ok {
		return nil, fmt.Errorf("missing %s column in header", colAbbr)
	}
	for _, h := range rd.header {
		if h != "" && !reserved[h] {
			rd.flags = append(rd.flags, h)
		}
	}
	return rd, nil
}

// Columns returns the flag columns of the header in file order.
func (r *Reader) Columns() []string {
	return append([]string(nil), r.flags...)
}

// Next advances to the next entry. Returns false when no more entries or error.
func (r *Reader) Next() bool {
	for {
		record, err := r.csv.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			return false
		}
		r.lineNum++

		entry, ok, err := r.parseRecord(record)
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", r.lineNum, err)
			return false
		}
		if ok {
			r.current = entry
			return true
		}
	}
}

// Entry returns the current entry
func (r *Reader) Entry() core.WhitelistEntry {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) field(record []string, col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseRecord decodes one row. Rows without a chain are skipped.
func (r *Reader) parseRecord(record []string) (core.WhitelistEntry, bool, error) {
	abbr := r.field(record, colAbbr)
	if abbr == "" {
		return core.WhitelistEntry{}, false, nil
	}

	chain, err := core.Decode(abbr)
	if err != nil {
		return core.WhitelistEntry{}, false, err
	}
	chain.Class = "FA"

	if s := r.field(record, colC); s != "" {
		if chain.C, err = strconv.Atoi(s); err != nil {
			return core.WhitelistEntry{}, false, fmt.Errorf("invalid C value %q: %w", s, err)
		}
	}
	if s := r.field(record, colDB); s != "" {
		if chain.DB, err = strconv.Atoi(s); err != nil {
			return core.WhitelistEntry{}, false, fmt.Errorf("invalid DB value %q: %w", s, err)
		}
	}
	if s := r.field(record, colO); s != "" {
		if chain.O, err = strconv.Atoi(s); err != nil {
			return core.WhitelistEntry{}, false, fmt.Errorf("invalid O value %q: %w", s, err)
		}
	}
	if s := r.field(record, colLink); s != "" && chain.Link == core.LinkAcyl {
		if chain.Link, err = core.ParseLink(s); err != nil {
			return core.WhitelistEntry{}, false, err
		}
	}
	if chain.DB > chain.C {
		return core.WhitelistEntry{}, false, fmt.Errorf("%s: more double bonds than carbons", abbr)
	}

	flags := make(map[string]bool)
	for _, col := range r.flags {
		if isTrue(r.field(record, col)) {
			flags[col] = true
		}
	}
	return core.WhitelistEntry{Abbr: abbr, Chain: chain, Flags: flags}, true, nil
}

func isTrue(s string) bool {
	switch strings.ToUpper(s) {
	case "T", "TRUE", "1", "Y", "YES":
		return true
	}
	return false
}

// Read loads a whole whitelist.
func Read(r io.Reader) (*core.Whitelist, error) {
	rd, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	wl := core.NewWhitelist(rd.Columns()...)
	for rd.Next() {
		e := rd.Entry()
		wl.Entries = append(wl.Entries, e)
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	return wl, nil
}

// ReadFile loads a whitelist from a CSV file.
func ReadFile(path string) (*core.Whitelist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open whitelist: %w", err)
	}
	defer f.Close()
	return Read(f)
}
