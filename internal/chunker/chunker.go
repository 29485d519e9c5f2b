// Package chunker splits long text into pieces that fit a provider's per-request size limit.
//
// Lengths are measured in runes. Splitting prefers paragraph breaks, then sentence
// boundaries, and hard-cuts only a single sentence that is still too long.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Separator joins paragraphs packed into the same chunk, and translated chunks on reassembly.
const Separator = "\n\n"

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Split returns text as an ordered sequence of chunks, each at most maxSize runes long.
// Empty input yields nil; input no longer than maxSize yields exactly one chunk equal to the input.
func Split(text string, maxSize int) []string {
	if text == "" {
		return nil
	}
	if maxSize <= 0 {
		return []string{text}
	}
	if runeLen(text) <= maxSize {
		return []string{text}
	}

	var paragraphs []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return hardSplit(text, maxSize)
	}

	var chunks []string
	p := packer{max: maxSize, sep: Separator}
	for _, para := range paragraphs {
		if runeLen(para) <= maxSize {
			p.add(para)
			continue
		}
		// An oversized paragraph never shares a chunk with its neighbours.
		chunks = append(chunks, p.flush()...)
		chunks = append(chunks, splitParagraph(para, maxSize)...)
	}
	chunks = append(chunks, p.flush()...)

	return enforce(chunks, maxSize)
}

// splitParagraph packs the sentences of one oversized paragraph; sentences keep their
// trailing whitespace so they concatenate back to the paragraph exactly.
func splitParagraph(para string, maxSize int) []string {
	var chunks []string
	p := packer{max: maxSize}
	for _, s := range Sentences(para) {
		if runeLen(s) <= maxSize {
			p.add(s)
			continue
		}
		chunks = append(chunks, p.flush()...)
		chunks = append(chunks, hardSplit(s, maxSize)...)
	}
	return append(chunks, p.flush()...)
}

// Sentences cuts text after '.', '!' or '?' when followed by whitespace.
// The terminator and the following whitespace stay with the preceding sentence.
func Sentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + utf8.RuneLen(r)
		if j >= len(text) {
			break
		}
		next, _ := utf8.DecodeRuneInString(text[j:])
		if !unicode.IsSpace(next) {
			continue
		}
		for j < len(text) {
			next, size := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(next) {
				break
			}
			j += size
		}
		out = append(out, text[start:j])
		start = j
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// hardSplit slices text into maxSize-rune pieces.
func hardSplit(text string, maxSize int) []string {
	var out []string
	for text != "" {
		n, cut := 0, len(text)
		for i := range text {
			if n == maxSize {
				cut = i
				break
			}
			n++
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	return out
}

// enforce re-checks every chunk and hard-splits any that still exceed maxSize.
func enforce(chunks []string, maxSize int) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c == "" {
			continue
		}
		if runeLen(c) > maxSize {
			out = append(out, hardSplit(c, maxSize)...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// packer greedily accumulates units into chunks of at most max runes.
type packer struct {
	max    int
	sep    string
	chunks []string
	buf    strings.Builder
	size   int
}

func (p *packer) add(unit string) {
	n := runeLen(unit)
	if p.size > 0 && p.size+runeLen(p.sep)+n > p.max {
		p.cut()
	}
	if p.size > 0 {
		p.buf.WriteString(p.sep)
		p.size += runeLen(p.sep)
	}
	p.buf.WriteString(unit)
	p.size += n
}

func (p *packer) cut() {
	if p.size == 0 {
		return
	}
	p.chunks = append(p.chunks, p.buf.String())
	p.buf.Reset()
	p.size = 0
}

// flush returns everything packed so far and resets the packer.
func (p *packer) flush() []string {
	p.cut()
	out := p.chunks
	p.chunks = nil
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
