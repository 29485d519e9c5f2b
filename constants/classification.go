package constants

import (
	"strings"
)

// TaxClassification is the federal tax classification checked on a W-9 (line 3).
type TaxClassification string

const (
	Individual  TaxClassification = "Individual/sole proprietor"
	CCorp       TaxClassification = "C-Corporation"
	SCorp       TaxClassification = "S-Corporation"
	Partnership TaxClassification = "Partnership"
	TrustEstate TaxClassification = "Trust/estate"
	LLC         TaxClassification = "LLC"
)

var allClassifications = []TaxClassification{
	Individual,
	CCorp,
	SCorp,
	Partnership,
	TrustEstate,
	LLC,
}

// ClassificationsAsStrings returns the canonical classification names in form order.
func ClassificationsAsStrings() []string {
	result := make([]string, len(allClassifications))
	for i, c := range allClassifications {
		result[i] = string(c)
	}
	return result
}

// classificationAliases are matched as whole words of a lowercased, punctuation-folded line, in order.
// The W-9 individual box mentions "single-member LLC", so individual is tried before LLC.
var classificationAliases = []struct {
	alias string
	class TaxClassification
}{
	{"individual", Individual},
	{"sole proprietor", Individual},
	{"limited liability company", LLC},
	{"llc", LLC},
	{"s corporation", SCorp},
	{"s corp", SCorp},
	{"scorp", SCorp},
	{"c corporation", CCorp},
	{"c corp", CCorp},
	{"ccorp", CCorp},
	{"partnership", Partnership},
	{"trust", TrustEstate},
	{"estate", TrustEstate},
}

// CanonicalizeClassification maps free OCR text to a canonical classification.
func CanonicalizeClassification(input string) (TaxClassification, bool) {
	if strings.TrimSpace(input) == "" {
		return "", false
	}
	normalized := strings.ToLower(input)
	normalized = strings.NewReplacer("-", " ", "/", " ", ".", " ", "_", " ").Replace(normalized)
	normalized = " " + strings.Join(strings.Fields(normalized), " ") + " "

	for _, a := range classificationAliases {
		if strings.Contains(normalized, " "+a.alias+" ") {
			return a.class, true
		}
	}
	return "", false
}
