package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terms(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Term
	}
	return out
}

func TestTokenizeStemsAndDropsStopWords(t *testing.T) {
	tokens := Tokenize("The Runners were running quickly!")
	assert.Equal(t, []string{"runner", "run", "quick"}, terms(tokens))
	for i, tok := range tokens {
		assert.Equal(t, i, tok.Position)
	}
}

func TestTokenizeNormalisesCompatibilityForms(t *testing.T) {
	assert.Equal(t, []string{"fish"}, terms(Tokenize("ﬁshing")))
	assert.Equal(t, []string{"goal"}, terms(Tokenize("ＧＯＡＬ")))
}

func TestOptions(t *testing.T) {
	tk, err := New(Options{Language: "English", Stemming: false, MinLength: 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"runners", "running"}, terms(tk.Tokenize("a big dog runners running")))

	_, err = New(Options{Language: "klingon"})
	assert.Error(t, err)
}

func TestCounts(t *testing.T) {
	assert.Equal(t, map[string]int{"match": 2, "goal": 1}, Counts(Tokenize("match goal matches")))
}
