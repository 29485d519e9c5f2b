package w9

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/docintel/constants"
)

// document is the immutable view the rules scan: trimmed non-blank lines plus the full text.
type document struct {
	text  string
	lines []string
}

func newDocument(raw string) *document {
	// NFKC folds OCR ligatures and full-width glyphs into plain ASCII where possible.
	text := norm.NFKC.String(strings.ReplaceAll(raw, "\r\n", "\n"))
	text = strings.ReplaceAll(text, "\r", "\n")

	doc := &document{text: text}
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			doc.lines = append(doc.lines, l)
		}
	}
	return doc
}

// inlineValue returns the text after a colon that follows the label on the same line.
func (d *document) inlineValue(line, labelEnd int) string {
	l := d.lines[line]
	matched := strings.TrimSpace(l[:labelEnd])
	rest := l[labelEnd:]
	if !strings.HasSuffix(matched, ":") {
		i := strings.Index(rest, ":")
		if i < 0 {
			return ""
		}
		rest = rest[i+1:]
	}
	v := strings.TrimSpace(rest)
	if isTrivial(v) {
		return ""
	}
	return v
}

// nextValueLine finds the first non-trivial line after a label, skipping boilerplate.
// It gives up at the next label or section marker, or after lookahead lines.
func (d *document) nextValueLine(line int) int {
	for j := line + 1; j < len(d.lines) && j <= line+lookahead; j++ {
		l := d.lines[j]
		if isNoise(l) || isTrivial(l) {
			continue
		}
		if isStop(l) || isLabel(l) {
			return -1
		}
		return j
	}
	return -1
}

// Parse runs every rule over raw OCR text and scores the result.
func Parse(raw string) ParseResult {
	doc := newDocument(raw)
	out := Fields{}

	for _, r := range rules {
		for i, l := range doc.lines {
			if loc := firstMatch(r.labels, l); loc != nil {
				r.extract(doc, i, loc[1], out)
				break
			}
		}
	}
	extractCheckedClassification(doc, out)

	if ein := einPattern.FindString(doc.text); ein != "" {
		out[EIN] = ein
	} else if m := ssnPattern.FindStringSubmatch(doc.text); m != nil {
		out[SSNLast4] = m[1]
	}
	if out.Has(EIN) && !out.Has(TaxClassification) {
		// Placeholder for the user to confirm.
		out[TaxClassification] = string(constants.CCorp)
	}

	return ParseResult{Fields: out, Confidence: ConfidenceFor(out)}
}

func firstMatch(patterns []*regexp.Regexp, line string) []int {
	for _, p := range patterns {
		if loc := p.FindStringIndex(line); loc != nil {
			return loc
		}
	}
	return nil
}
