package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyAndShortInput(t *testing.T) {
	assert.Empty(t, Split("", 10))

	chunks := Split("hello world", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])

	exact := strings.Repeat("x", 50)
	assert.Equal(t, []string{exact}, Split(exact, 50))
}

func TestSplit_BoundsAndNonEmpty(t *testing.T) {
	inputs := []string{
		"a",
		strings.Repeat("word ", 400),
		strings.Repeat("Sentence one is here. Another one! And a question? ", 60),
		strings.Repeat("para\n\n", 100),
		strings.Repeat("ñandú ", 300),
		"\n\n\n   \n\n",
		strings.Repeat("x", 1234),
	}
	for _, in := range inputs {
		for _, max := range []int{1, 7, 64, 100, 1000} {
			chunks := Split(in, max)
			assert.Equal(t, in != "", len(chunks) > 0, "max=%d", max)
			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), max, "max=%d", max)
				assert.NotEmpty(t, c)
			}
		}
	}
}

func TestSplit_PacksParagraphsGreedily(t *testing.T) {
	para := strings.Repeat("y", 498)
	paras := make([]string, 500)
	for i := range paras {
		paras[i] = para
	}
	text := strings.Join(paras, "\n\n")
	require.Equal(t, 249_998, len(text))

	chunks := Split(text, 100_000)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100_000)
		for _, p := range strings.Split(c, Separator) {
			assert.Equal(t, para, p, "paragraph split mid-way")
		}
	}
	assert.Equal(t, text, strings.Join(chunks, Separator))
}

func TestSplit_250kCharactersMakesThreeChunks(t *testing.T) {
	// 500 paragraphs of 500 characters each (including the break).
	var b strings.Builder
	for b.Len() < 250_000 {
		b.WriteString(strings.Repeat("z", 497))
		b.WriteString(".\n\n")
	}
	text := strings.TrimRight(b.String(), "\n")

	chunks := Split(text, 100_000)
	assert.Len(t, chunks, 3)
}

func TestSplit_OversizedParagraphFallsBackToSentences(t *testing.T) {
	sentence := "This sentence is exactly forty chars!!! "
	long := strings.Repeat(sentence, 10)
	text := "short intro\n\n" + long + "\n\nshort outro"

	chunks := Split(text, 100)
	require.GreaterOrEqual(t, len(chunks), 4)
	assert.Equal(t, "short intro", chunks[0])
	assert.Equal(t, "short outro", chunks[len(chunks)-1])

	middle := strings.Join(chunks[1:len(chunks)-1], "")
	assert.Equal(t, long, middle, "sentence pieces must concatenate back to the paragraph")
	for _, c := range chunks[1 : len(chunks)-1] {
		assert.True(t, strings.HasSuffix(c, "!! "), "chunk %q cut mid-sentence", c)
	}
}

func TestSplit_HardSplitsRunOnSentence(t *testing.T) {
	text := strings.Repeat("é", 250)
	chunks := Split(text, 100)
	require.Len(t, chunks, 3)
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[1]))
	assert.Equal(t, 50, utf8.RuneCountInString(chunks[2]))
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplit_RejoinIsStable(t *testing.T) {
	var paras []string
	for i := 0; i < 40; i++ {
		paras = append(paras, strings.Repeat("w", 20+i))
	}
	text := strings.Join(paras, "\n\n")

	first := Split(text, 200)
	second := Split(strings.Join(first, Separator), 200)
	assert.Equal(t, first, second)
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "No terminator", []string{"No terminator"}},
		{"three", "One. Two! Three?", []string{"One. ", "Two! ", "Three?"}},
		{"keeps whitespace run", "A.\n\tB", []string{"A.\n\t", "B"}},
		{"decimal is not a boundary", "Pay 3.50 now. Thanks", []string{"Pay 3.50 now. ", "Thanks"}},
		{"trailing terminator", "Done.", []string{"Done."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.in))
		})
	}
}
