// Package csv writes lipid libraries as a flat master table, one row per ion.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
)

// Header is the master table header.
var Header = []string{
	"Class", "DiscreteAbbr", "PositionalAbbr", "BulkAbbr", "Chains",
	"Formula", "ExactMass", "Adduct", "IonFormula", "MZ", "Fragments",
}

// Writer streams species rows to a CSV master table
type Writer struct {
	csv   *csv.Writer
	file  *os.File
	rows  int
	wrote bool
}

// NewWriter wraps w. The header is written with the first row.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// Create opens path for writing and returns a writer that owns the file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := NewWriter(f)
	w.file = f
	return w, nil
}

// WriteSpecies writes one row per ion of s.
func (w *Writer) WriteSpecies(s *core.LipidSpecies) error {
	if !w.wrote {
		if err := w.csv.Write(Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		w.wrote = true
	}

	for _, ion := range s.Ions {
		record := []string{
			s.Class,
			s.DiscreteAbbr,
			s.PositionalAbbr,
			s.BulkAbbr,
			core.ChainString(s.Chains, "_"),
			s.FormulaString,
			formatMass(s.ExactMass),
			ion.Adduct,
			ion.FormulaString,
			formatMass(ion.MZ),
			formatFragments(ion.Fragments),
		}
		if err := w.csv.Write(record); err != nil {
			return fmt.Errorf("failed to write %s %s: %w", s.Key(), ion.Adduct, err)
		}
		w.rows++
	}
	return nil
}

// Rows returns the number of ion rows written.
func (w *Writer) Rows() int {
	return w.rows
}

// Close flushes buffered rows and closes the file when the writer owns one.
func (w *Writer) Close() error {
	if !w.wrote {
		if err := w.csv.Write(Header); err != nil {
			return err
		}
		w.wrote = true
	}
	w.csv.Flush()
	err := w.csv.Error()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
		w.file = nil
	}
	return err
}

func formatMass(v float64) string {
	return strconv.FormatFloat(v, 'f', core.MassDecimals, 64)
}

// formatFragments renders "label@mz" pairs separated by ";".
func formatFragments(frags []core.FragmentIon) string {
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.Label + "@" + formatMass(f.MZ)
	}
	return strings.Join(parts, ";")
}
