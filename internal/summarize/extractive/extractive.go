// Package extractive implements a local summarizer that picks the
// highest-scoring sentences of a document by word frequency.
package extractive

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"tenant-ingest/internal/summarize"
)

const defaultSentences = 5

// Summarizer returns the top Sentences sentences in their original order.
type Summarizer struct {
	Sentences int
}

// New returns a Summarizer keeping n sentences.
func New(n int) Summarizer {
	if n <= 0 {
		n = defaultSentences
	}
	return Summarizer{Sentences: n}
}

func (s Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return "", summarize.ErrEmpty
	}
	n := s.Sentences
	if n <= 0 {
		n = defaultSentences
	}
	if len(sentences) <= n {
		return strings.Join(sentences, " "), nil
	}

	freq := make(map[string]int)
	words := make([][]string, len(sentences))
	for i, sentence := range sentences {
		words[i] = contentWords(sentence)
		for _, w := range words[i] {
			freq[w]++
		}
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i := range sentences {
		var total int
		for _, w := range words[i] {
			total += freq[w]
		}
		score := 0.0
		if len(words[i]) > 0 {
			score = float64(total) / float64(len(words[i]))
		}
		ranked[i] = scored{index: i, score: score}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	keep := make([]int, 0, n)
	for _, r := range ranked[:n] {
		keep = append(keep, r.index)
	}
	sort.Ints(keep)

	out := make([]string, 0, n)
	for _, i := range keep {
		out = append(out, sentences[i])
	}
	return strings.Join(out, " "), nil
}

// splitSentences breaks text on terminal punctuation followed by
// whitespace, and on blank lines. Whitespace inside a sentence collapses.
func splitSentences(text string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		s := strings.Join(strings.Fields(cur.String()), " ")
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			flush()
			continue
		}
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return out
}

func contentWords(sentence string) []string {
	fields := strings.FieldsFunc(strings.ToLower(sentence), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; stop || len(f) < 2 {
			continue
		}
		out = append(out, f)
	}
	return out
}

var stopWords = func() map[string]struct{} {
	list := strings.Fields(`a an and are as at be been but by for from has have he her his i if in
		into is it its of on or our she so than that the their them then there these they this to
		was we were what when which who will with you your`)
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}()
