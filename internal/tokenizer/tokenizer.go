// Package tokenizer turns raw document text into index terms. Text is
// NFKC-normalised and lower-cased, split on non-alphanumeric boundaries,
// stripped of stop-words and optionally reduced with a Snowball stemmer.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"
	"golang.org/x/text/unicode/norm"
)

var englishStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Token represents a single normalised term and its position among the
// kept terms of the text.
type Token struct {
	Term     string
	Position int
}

type Options struct {
	Language  string
	Stemming  bool
	MinLength int
}

// DefaultOptions stems English and drops one-rune words.
func DefaultOptions() Options {
	return Options{Language: "english", Stemming: true, MinLength: 2}
}

type Tokenizer struct {
	opts Options
	stop map[string]struct{}
}

// New checks that the Snowball stemmer knows opts.Language. Stop-word
// removal only applies to English.
func New(opts Options) (*Tokenizer, error) {
	opts.Language = strings.ToLower(opts.Language)
	if opts.MinLength < 1 {
		opts.MinLength = 1
	}
	if _, err := snowball.Stem("probe", opts.Language, true); err != nil {
		return nil, fmt.Errorf("tokenizer language %q: %w", opts.Language, err)
	}
	t := &Tokenizer{opts: opts}
	if opts.Language == "english" {
		t.stop = englishStopWords
	}
	return t, nil
}

// Tokenize breaks text into normalised Tokens.
func (t *Tokenizer) Tokenize(text string) []Token {
	text = strings.ToLower(norm.NFKC.String(text))
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words)/2)
	pos := 0
	for _, word := range words {
		if utf8.RuneCountInString(word) < t.opts.MinLength {
			continue
		}
		if _, isStop := t.stop[word]; isStop {
			continue
		}
		term := word
		if t.opts.Stemming {
			// The language was validated in New.
			term, _ = snowball.Stem(word, t.opts.Language, false)
		}
		if term == "" {
			continue
		}
		tokens = append(tokens, Token{Term: term, Position: pos})
		pos++
	}
	return tokens
}

// Counts returns the term frequencies of tokens.
func Counts(tokens []Token) map[string]int {
	out := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		out[tok.Term]++
	}
	return out
}

var defaultTokenizer, _ = New(DefaultOptions())

// Tokenize uses the default English options.
func Tokenize(text string) []Token {
	return defaultTokenizer.Tokenize(text)
}
