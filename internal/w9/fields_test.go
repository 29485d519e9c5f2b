package w9

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceFor_MonotonicInRequiredCount(t *testing.T) {
	// Every subset of the five required fields.
	for mask := 0; mask < 1<<len(RequiredFields); mask++ {
		fields := Fields{BusinessName: "ignored", EIN: "12-3456789"}
		count := 0
		for i, f := range RequiredFields {
			if mask&(1<<i) != 0 {
				fields[f] = "x"
				count++
			}
		}

		want := ConfidenceHigh
		switch {
		case count <= 2:
			want = ConfidenceLow
		case count <= 4:
			want = ConfidenceMedium
		}
		assert.Equal(t, want, ConfidenceFor(fields), "mask=%05b", mask)
	}
}

func TestConfidenceFor_IgnoresEmptyValues(t *testing.T) {
	fields := Fields{LegalName: "a", AddressLine1: "b", City: "", State: "", Zip: ""}
	assert.Equal(t, ConfidenceLow, ConfidenceFor(fields))
}

func TestTIN(t *testing.T) {
	tests := []struct {
		name     string
		fields   Fields
		wantType string
		want4    string
	}{
		{"ein takes last four of seven digit segment", Fields{EIN: "12-3456789"}, TinTypeEIN, "6789"},
		{"ein wins over ssn", Fields{EIN: "98-7654321", SSNLast4: "1111"}, TinTypeEIN, "4321"},
		{"ssn only", Fields{SSNLast4: "1234"}, TinTypeSSN, "1234"},
		{"none", Fields{}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, got4 := TIN(tt.fields)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.want4, got4)
		})
	}
}

func TestDisplayNameAndAddress(t *testing.T) {
	f := Fields{LegalName: "John Smith", AddressLine1: "1 Main St", City: "Austin", State: "TX", Zip: "78701"}
	assert.Equal(t, "John Smith", DisplayName(f))
	assert.Equal(t, "1 Main St, Austin, TX 78701", FormatAddress(f))

	f[BusinessName] = "Smith Roofing"
	f[AddressLine2] = "Unit 5"
	assert.Equal(t, "Smith Roofing", DisplayName(f))
	assert.Equal(t, "1 Main St, Unit 5, Austin, TX 78701", FormatAddress(f))
}
