// Package w9 extracts labeled W-9 fields from raw OCR text.
package w9

import (
	"strings"
)

// Field names a value the extractor can locate. The string is the record field name.
type Field string

const (
	LegalName         Field = "legalName"
	BusinessName      Field = "businessName"
	TaxClassification Field = "taxClassification"
	EIN               Field = "ein"
	SSNLast4          Field = "ssnLast4"
	AddressLine1      Field = "addressLine1"
	AddressLine2      Field = "addressLine2"
	City              Field = "city"
	State             Field = "state"
	Zip               Field = "zip"
)

// RequiredFields drive the confidence level.
var RequiredFields = []Field{LegalName, AddressLine1, City, State, Zip}

// Confidence is a coarse completeness signal, not a probability.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// TIN types.
const (
	TinTypeEIN = "EIN"
	TinTypeSSN = "SSN"
)

// Fields maps found fields to their values. Absent keys are null.
type Fields map[Field]string

// Get returns the value of f, or "" when it was not found.
func (f Fields) Get(field Field) string {
	return f[field]
}

// Has reports whether field was found with a non-empty value.
func (f Fields) Has(field Field) bool {
	return f[field] != ""
}

// setIfEmpty records a value unless the field was already found.
func (f Fields) setIfEmpty(field Field, value string) {
	value = strings.TrimSpace(value)
	if value == "" || f.Has(field) {
		return
	}
	f[field] = value
}

// ParseResult is the outcome of one extraction pass.
type ParseResult struct {
	Fields     Fields     `json:"fields"`
	Confidence Confidence `json:"confidence"`
}

// ConfidenceFor derives the confidence level from how many required fields are present.
func ConfidenceFor(fields Fields) Confidence {
	found := 0
	for _, f := range RequiredFields {
		if fields.Has(f) {
			found++
		}
	}
	switch {
	case found < 3:
		return ConfidenceLow
	case found < len(RequiredFields):
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// TIN resolves the taxpayer id type and its last four digits. An EIN wins over an SSN.
func TIN(fields Fields) (tinType, last4 string) {
	if ein := fields.Get(EIN); ein != "" {
		return TinTypeEIN, einLast4(ein)
	}
	if ssn := fields.Get(SSNLast4); ssn != "" {
		return TinTypeSSN, ssn
	}
	return "", ""
}

// einLast4 takes the last four digits of the 7-digit segment of a DD-DDDDDDD EIN.
func einLast4(ein string) string {
	_, seg, ok := strings.Cut(ein, "-")
	if !ok {
		seg = ein
	}
	if len(seg) <= 4 {
		return seg
	}
	return seg[len(seg)-4:]
}

// DisplayName prefers the business name over the legal name.
func DisplayName(fields Fields) string {
	if b := fields.Get(BusinessName); b != "" {
		return b
	}
	return fields.Get(LegalName)
}

// FormatAddress composes a single-line postal address from the found parts.
func FormatAddress(fields Fields) string {
	var parts []string
	for _, f := range []Field{AddressLine1, AddressLine2, City} {
		if v := fields.Get(f); v != "" {
			parts = append(parts, v)
		}
	}
	stateZip := strings.TrimSpace(fields.Get(State) + " " + fields.Get(Zip))
	if stateZip != "" {
		parts = append(parts, stateZip)
	}
	return strings.Join(parts, ", ")
}
