package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers test them with errors.Is.
var (
	// ErrParse reports an abbreviation that does not match the shorthand grammar.
	ErrParse = errors.New("malformed lipid abbreviation")
	// ErrUnknownClass reports a lipid class missing from the registry.
	ErrUnknownClass = errors.New("unknown lipid class")
	// ErrUnknownAdduct reports an adduct label missing from the registry.
	ErrUnknownAdduct = errors.New("unknown adduct")
	// ErrUnsupportedAdduct reports a known adduct the class is not configured for.
	ErrUnsupportedAdduct = errors.New("adduct not configured for class")
	// ErrUnknownElement reports a composition using an element with no mass.
	ErrUnknownElement = errors.New("unknown element")
	// ErrDisambiguation reports a failed ammoniated-adduct deduction.
	ErrDisambiguation = errors.New("adduct disambiguation failed")
)

// ParseError describes why an abbreviation was rejected.
type ParseError struct {
	Abbr   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v %q: %s", ErrParse, e.Abbr, e.Reason)
}

// Unwrap lets errors.Is match ErrParse.
func (e *ParseError) Unwrap() error { return ErrParse }

// LookupError describes a failed registry lookup.
type LookupError struct {
	Kind  error // ErrUnknownClass, ErrUnknownAdduct or ErrUnsupportedAdduct
	Class string
	Name  string
}

func (e *LookupError) Error() string {
	if e.Class != "" && e.Name != "" {
		return fmt.Sprintf("%v: %s %s", e.Kind, e.Class, e.Name)
	}
	if e.Name != "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Name)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Class)
}

func (e *LookupError) Unwrap() error { return e.Kind }

// DisambiguationError carries the precursor that could not be resolved.
type DisambiguationError struct {
	MZ         float64
	Adduct     string
	Iterations int
	Reason     string
}

func (e *DisambiguationError) Error() string {
	return fmt.Sprintf("%v for %s at m/z %.4f after %d iterations: %s",
		ErrDisambiguation, e.Adduct, e.MZ, e.Iterations, e.Reason)
}

func (e *DisambiguationError) Unwrap() error { return ErrDisambiguation }

// ValidationError represents an error found during species validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}
