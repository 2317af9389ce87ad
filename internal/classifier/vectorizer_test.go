package classifier

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitVectorizer_SortedVocabulary(t *testing.T) {
	v := fitVectorizer([]string{"bank balance", "bank transfer"})

	require.Len(t, v.Vocabulary, 3)
	assert.Equal(t, 0, v.Vocabulary["balance"])
	assert.Equal(t, 1, v.Vocabulary["bank"])
	assert.Equal(t, 2, v.Vocabulary["transfer"])

	// "bank" appears in both documents so it carries the lowest weight.
	assert.Less(t, v.IDF[v.Vocabulary["bank"]], v.IDF[v.Vocabulary["balance"]])
}

func TestTransform_L2Normalized(t *testing.T) {
	v := fitVectorizer([]string{"bank balance inquiry", "vaccine side effects"})
	vec := v.transform("bank balance")

	norm := 0.0
	for _, x := range vec {
		norm += x * x
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestTransform_UnknownTermsYieldZeroVector(t *testing.T) {
	v := fitVectorizer([]string{"bank balance"})
	vec := v.transform("completely unrelated words")

	for _, x := range vec {
		assert.Zero(t, x)
	}
}

func TestTokenize_StopwordsAndCase(t *testing.T) {
	toks := tokenize("Where should I go to ask about Bank details?")
	assert.Equal(t, []string{"go", "ask", "bank", "details"}, toks)
}
