// Package sqlite provides SQLite database writing for lipid libraries
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/lipidkey/pkg/composer"
	"github.com/ChrisMcGann/lipidkey/pkg/core"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// Date format for MaintenanceTable
	maintenanceDateFormat = "2006 01 02"

	schemaVersion = 1
)

// Writer handles writing lipid species to SQLite database files
type Writer struct {
	db           *sql.DB
	outputPath   string
	lipidStmt    *sql.Stmt
	ionStmt      *sql.Stmt
	fragmentStmt *sql.Stmt
	chainStmt    *sql.Stmt
	lipidID      int
	ionID        int
	description  string
	closed       bool
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		lipidID:    1,
		ionID:      1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// SetDescription sets the HeaderTable description written by Finalize.
func (w *Writer) SetDescription(desc string) {
	w.description = desc
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS LipidTable (
		LipidId INTEGER PRIMARY KEY,
		Class TEXT,
		DiscreteAbbr TEXT,
		PositionalAbbr TEXT,
		BulkAbbr TEXT,
		Chains TEXT,
		Formula TEXT,
		ExactMass DOUBLE
	);

	CREATE TABLE IF NOT EXISTS IonTable (
		IonId INTEGER PRIMARY KEY,
		LipidId INTEGER REFERENCES LipidTable(LipidId),
		Adduct TEXT,
		Polarity TEXT,
		Formula TEXT,
		PrecursorMZ DOUBLE,
		blobFragmentMass BLOB
	);

	CREATE TABLE IF NOT EXISTS FragmentTable (
		IonId INTEGER REFERENCES IonTable(IonId),
		Label TEXT,
		MZ DOUBLE,
		PPM DOUBLE,
		Low DOUBLE,
		High DOUBLE
	);

	CREATE TABLE IF NOT EXISTS FattyAcidTable (
		Abbr TEXT,
		Formula TEXT,
		ExactMass DOUBLE,
		Ion TEXT,
		MZ DOUBLE,
		Low DOUBLE,
		High DOUBLE,
		PRIMARY KEY (Abbr, Ion)
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		LastModifiedDate TEXT,
		Description TEXT
	);

	CREATE TABLE IF NOT EXISTS MaintenanceTable (
		CreationDate TEXT,
		NoofLipids INTEGER,
		NoofIons INTEGER
	);

	CREATE INDEX IF NOT EXISTS IonMZIndex ON IonTable (PrecursorMZ);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.lipidStmt, err = w.db.Prepare(`
		INSERT INTO LipidTable (
			LipidId, Class, DiscreteAbbr, PositionalAbbr, BulkAbbr, Chains, Formula, ExactMass
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare lipid statement: %w", err)
	}

	w.ionStmt, err = w.db.Prepare(`
		INSERT INTO IonTable (
			IonId, LipidId, Adduct, Polarity, Formula, PrecursorMZ, blobFragmentMass
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare ion statement: %w", err)
	}

	w.fragmentStmt, err = w.db.Prepare(`
		INSERT INTO FragmentTable (IonId, Label, MZ, PPM, Low, High) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare fragment statement: %w", err)
	}

	w.chainStmt, err = w.db.Prepare(`
		INSERT OR REPLACE INTO FattyAcidTable (Abbr, Formula, ExactMass, Ion, MZ, Low, High)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare fatty acid statement: %w", err)
	}

	return nil
}

// WriteSpecies writes a species with its ions and fragments
func (w *Writer) WriteSpecies(s *core.LipidSpecies) error {
	_, err := w.lipidStmt.Exec(
		w.lipidID,
		s.Class,
		s.DiscreteAbbr,
		s.PositionalAbbr,
		s.BulkAbbr,
		core.ChainString(s.Chains, "_"),
		s.FormulaString,
		s.ExactMass,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lipid %s: %w", s.Key(), err)
	}

	for _, ion := range s.Ions {
		frags := ion.Fragments
		if !core.AreFragmentsSorted(frags) {
			frags = append([]core.FragmentIon(nil), frags...)
			core.SortFragments(frags)
		}

		_, err := w.ionStmt.Exec(
			w.ionID,
			w.lipidID,
			ion.Adduct,
			polarity(ion.Adduct),
			ion.FormulaString,
			ion.MZ,
			encodeFragmentsFloat64(frags),
		)
		if err != nil {
			return fmt.Errorf("failed to insert ion %s %s: %w", s.Key(), ion.Adduct, err)
		}

		for _, f := range frags {
			if _, err := w.fragmentStmt.Exec(w.ionID, f.Label, f.MZ, f.PPM, f.Low, f.High); err != nil {
				return fmt.Errorf("failed to insert fragment %s: %w", f.Label, err)
			}
		}
		w.ionID++
	}

	w.lipidID++
	return nil
}

// WriteChainTable writes the free fatty acid ions of the whitelist
func (w *Writer) WriteChainTable(rows []composer.ChainIons) error {
	for _, row := range rows {
		for _, ion := range row.Ions {
			_, err := w.chainStmt.Exec(row.Abbr, row.FormulaString, row.ExactMass, ion.Label, ion.MZ, ion.Low, ion.High)
			if err != nil {
				return fmt.Errorf("failed to insert fatty acid %s: %w", row.Abbr, err)
			}
		}
	}
	return nil
}

// polarity derives the sign from an adduct label such as "[M-H]-".
func polarity(adduct string) string {
	if strings.HasSuffix(adduct, "-") {
		return "-"
	}
	return "+"
}

// encodeFragmentsFloat64 encodes fragment m/z values as little-endian float64 blob
func encodeFragmentsFloat64(frags []core.FragmentIon) []byte {
	buf := make([]byte, len(frags)*8)
	for i, f := range frags {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f.MZ))
	}
	return buf
}

// DecodeFragmentsFloat64 reverses encodeFragmentsFloat64.
func DecodeFragmentsFloat64(blob []byte) []float64 {
	out := make([]float64, len(blob)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return out
}

// Finalize writes the header and maintenance tables and closes the
// database. The database is closed even when a write fails.
func (w *Writer) Finalize() error {
	if w.closed {
		return nil
	}
	w.closed = true
	now := time.Now()

	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, LastModifiedDate, Description)
		VALUES (?, ?, ?, ?)
	`, schemaVersion, now.Format(headerDateFormat), now.Format(headerDateFormat), w.description)
	if err != nil {
		w.closeAll()
		return fmt.Errorf("failed to insert header: %w", err)
	}

	_, err = w.db.Exec(`
		INSERT INTO MaintenanceTable (CreationDate, NoofLipids, NoofIons)
		VALUES (?, ?, ?)
	`, now.Format(maintenanceDateFormat), w.lipidID-1, w.ionID-1)
	if err != nil {
		w.closeAll()
		return fmt.Errorf("failed to insert maintenance: %w", err)
	}

	if err := w.closeAll(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// closeAll releases the prepared statements and the database.
func (w *Writer) closeAll() error {
	for _, stmt := range []*sql.Stmt{w.lipidStmt, w.ionStmt, w.fragmentStmt, w.chainStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return w.db.Close()
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
