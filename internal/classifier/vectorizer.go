package classifier

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\p{L}+`)

// vectorizer holds a fitted TF-IDF transform: a term vocabulary and the
// inverse-document-frequency weight of each term. Terms are indexed in
// sorted order so a fit over the same corpus is always identical.
type vectorizer struct {
	Vocabulary map[string]int
	IDF        []float64
}

// fitVectorizer builds the vocabulary and IDF weights from the corpus.
func fitVectorizer(corpus []string) *vectorizer {
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v := &vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		v.Vocabulary[term] = i
		// Smoothed IDF so unseen-document terms never divide by zero.
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return v
}

// transform maps text to its L2-normalized TF-IDF vector. Terms outside the
// vocabulary are dropped; a text with no known terms yields the zero vector.
func (v *vectorizer) transform(text string) []float64 {
	vec := make([]float64, len(v.IDF))
	for _, tok := range tokenize(text) {
		if idx, ok := v.Vocabulary[tok]; ok {
			vec[idx] += v.IDF[idx]
		}
	}
	norm := 0.0
	for _, x := range vec {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// tokenize lowercases the text, extracts letter runs and removes English
// stopwords.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, isStop := stopwords[tok]; isStop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was",
		"were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than",
		"so", "such", "into", "about", "between", "through", "during",
		"before", "after", "above", "below", "out", "off", "own", "same",
		"too", "very", "can", "will", "just", "should", "now", "do", "does",
		"did", "have", "has", "had", "i", "me", "my", "we", "our", "you",
		"your", "he", "him", "his", "she", "her", "they", "them", "their",
		"what", "which", "who", "whom", "where", "when", "why", "how", "not",
		"no", "nor", "only", "there", "here", "all", "any", "both", "each",
		"few", "more", "most", "other", "some",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
