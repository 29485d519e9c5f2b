package w9

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
)

// rule locates one field group: the first line matching any label wins.
type rule struct {
	name    string
	labels  []*regexp.Regexp
	extract func(doc *document, line int, labelEnd int, out Fields)
}

// lookahead bounds how many lines after a label are considered for its value.
const lookahead = 4

var (
	legalNameLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)name\s*\(\s*as\s+shown\s+on\s+(your|the\s+owner'?s?)\s+income\s+tax\s+return\s*\)`),
		regexp.MustCompile(`(?i)\blegal\s+name\b`),
		regexp.MustCompile(`(?i)^(1[.)]?\s+)?name\s*:`),
	}
	businessNameLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)business\s+name\s*/?\s*(disregarded\s+entity\s+name)?`),
		regexp.MustCompile(`(?i)disregarded\s+entity\s+name`),
		regexp.MustCompile(`(?i)^(dba|doing\s+business\s+as)\b`),
	}
	addressLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)address\s*\(\s*number,?\s*street`),
		regexp.MustCompile(`(?i)\bmailing\s+address\b`),
		regexp.MustCompile(`(?i)^(5[.)]?\s+)?(street\s+)?address\s*:`),
	}
	cityStateZipLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)city,?\s*state,?\s*(and\s+)?zip(\s*code)?`),
		regexp.MustCompile(`(?i)city\s*/\s*state\s*/\s*zip`),
		regexp.MustCompile(`(?i)^(6[.)]?\s+)?city\s*:`),
	}
	classificationLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(federal\s+)?tax\s+classification\s*:`),
	}

	// stopLabels mark lines that start another form section; a value search never crosses them.
	stopLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)check\s+(the\s+)?appropriate\s+box`),
		regexp.MustCompile(`(?i)\bexemptions?\b`),
		regexp.MustCompile(`(?i)taxpayer\s+identification\s+number`),
		regexp.MustCompile(`(?i)social\s+security\s+number`),
		regexp.MustCompile(`(?i)employer\s+identification\s+number`),
		regexp.MustCompile(`(?i)list\s+account\s+number`),
		regexp.MustCompile(`(?i)^part\s+i+\b`),
		regexp.MustCompile(`(?i)^(signature|sign\s+here)\b`),
		regexp.MustCompile(`[☐☒☑]|\[\s*[xX✓✔ ]?\s*\]`),
	}

	// noiseLines are form boilerplate skipped while looking for a value.
	noiseLines = []*regexp.Regexp{
		regexp.MustCompile(`(?i)requester'?s\s+name`),
		regexp.MustCompile(`(?i)^form\s+w-?9\b`),
		regexp.MustCompile(`(?i)request\s+for\s+taxpayer`),
		regexp.MustCompile(`(?i)give\s+form\s+to\s+the`),
		regexp.MustCompile(`(?i)department\s+of\s+the\s+treasury`),
		regexp.MustCompile(`(?i)internal\s+revenue\s+service`),
		regexp.MustCompile(`(?i)print\s+or\s+type`),
		regexp.MustCompile(`(?i)see\s+specific\s+instructions`),
		regexp.MustCompile(`(?i)^\(?rev\.`),
	}

	trivialLine = regexp.MustCompile(`^[\d\W_]*$`)

	cityStateZipPrimary  = regexp.MustCompile(`^\s*,?\s*([A-Za-z][A-Za-z .'-]*?)\s*,\s*([A-Z]{2})\s+(\d{5}(?:-\d{4})?)\s*$`)
	cityStateZipFallback = regexp.MustCompile(`([A-Za-z][A-Za-z .'-]*?)[,\s]+([A-Za-z]{2})[,\s]+(\d{5}(?:-?\d{4})?)\b`)

	einPattern = regexp.MustCompile(`\b\d{2}-\d{7}\b`)
	ssnPattern = regexp.MustCompile(`\b\d{3}-\d{2}-(\d{4})\b`)

	checkedBox = regexp.MustCompile(`(?:[☒☑✓✔■]|\[\s*[xX✓✔]\s*\]|\(\s*[xX]\s*\))\s*([^☐☒☑✓✔■\[\]]+)`)
)

// fieldLabels is every label a rule searches for.
var fieldLabels = concatPatterns(legalNameLabels, businessNameLabels, addressLabels, cityStateZipLabels, classificationLabels)

func concatPatterns(groups ...[]*regexp.Regexp) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// rules are evaluated in order; a field set by an earlier rule is never overwritten.
var rules = []rule{
	{name: "legal_name", labels: legalNameLabels, extract: singleValue(LegalName)},
	{name: "business_name", labels: businessNameLabels, extract: singleValue(BusinessName)},
	{name: "address", labels: addressLabels, extract: extractAddress},
	{name: "city_state_zip", labels: cityStateZipLabels, extract: extractCityStateZip},
	{name: "tax_classification", labels: classificationLabels, extract: extractClassificationInline},
}

// singleValue takes the inline value after a colon, else the next non-trivial line.
func singleValue(field Field) func(*document, int, int, Fields) {
	return func(doc *document, line, labelEnd int, out Fields) {
		if v := doc.inlineValue(line, labelEnd); v != "" {
			out.setIfEmpty(field, v)
			return
		}
		if j := doc.nextValueLine(line); j >= 0 {
			out.setIfEmpty(field, doc.lines[j])
		}
	}
}

func extractAddress(doc *document, line, labelEnd int, out Fields) {
	valueLine := line
	v := doc.inlineValue(line, labelEnd)
	if v == "" {
		valueLine = doc.nextValueLine(line)
		if valueLine < 0 {
			return
		}
		v = doc.lines[valueLine]
	}
	out.setIfEmpty(AddressLine1, v)

	next := valueLine + 1
	if next >= len(doc.lines) {
		return
	}
	candidate := doc.lines[next]
	if city, state, zip, ok := parseCityStateZip(candidate); ok {
		setCityStateZip(out, city, state, zip)
		return
	}
	if isTrivial(candidate) || isStop(candidate) || isNoise(candidate) || isLabel(candidate) {
		return
	}
	out.setIfEmpty(AddressLine2, candidate)

	// a second address line pushes city/state/zip one line down
	if next+1 < len(doc.lines) {
		if city, state, zip, ok := parseCityStateZip(doc.lines[next+1]); ok {
			setCityStateZip(out, city, state, zip)
		}
	}
}

func extractCityStateZip(doc *document, line, labelEnd int, out Fields) {
	if out.Has(City) {
		return
	}
	if v := doc.inlineValue(line, labelEnd); v != "" {
		if city, state, zip, ok := parseCityStateZip(v); ok {
			setCityStateZip(out, city, state, zip)
			return
		}
	}
	if j := doc.nextValueLine(line); j >= 0 {
		if city, state, zip, ok := parseCityStateZip(doc.lines[j]); ok {
			setCityStateZip(out, city, state, zip)
		}
	}
}

func extractClassificationInline(doc *document, line, labelEnd int, out Fields) {
	if c, ok := constants.CanonicalizeClassification(doc.inlineValue(line, labelEnd)); ok {
		out.setIfEmpty(TaxClassification, string(c))
	}
}

// extractCheckedClassification reads the first checked box whose caption names a classification.
func extractCheckedClassification(doc *document, out Fields) {
	for _, l := range doc.lines {
		for _, m := range checkedBox.FindAllStringSubmatch(l, -1) {
			if c, ok := constants.CanonicalizeClassification(m[1]); ok {
				out.setIfEmpty(TaxClassification, string(c))
				return
			}
		}
	}
}

// parseCityStateZip tries the strict "City, ST 12345" form first, then a looser one.
func parseCityStateZip(line string) (city, state, zip string, ok bool) {
	if m := cityStateZipPrimary.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), m[2], m[3], true
	}
	if m := cityStateZipFallback.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.ToUpper(m[2]), m[3], true
	}
	return "", "", "", false
}

func setCityStateZip(out Fields, city, state, zip string) {
	out.setIfEmpty(City, city)
	out.setIfEmpty(State, state)
	out.setIfEmpty(Zip, zip)
}

func isTrivial(line string) bool {
	return len(strings.TrimSpace(line)) <= 2 || trivialLine.MatchString(line)
}

func isStop(line string) bool {
	return matchesAny(stopLabels, line)
}

func isNoise(line string) bool {
	return matchesAny(noiseLines, line)
}

func isLabel(line string) bool {
	return matchesAny(fieldLabels, line)
}

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, p := range patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}
