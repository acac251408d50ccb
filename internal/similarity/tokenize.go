// Package similarity computes a normalized fuzzy similarity score between two
// strings. It blends token-multiset overlap with a character-level metric and
// applies chunked, sliding-window partial matching so that a short query found
// anywhere inside a long target still scores highly.
//
// Every function in this package is pure: no I/O, no shared mutable state, no
// allocation of substrings. Tokens, windows and chunks are byte ranges into the
// caller's strings.
package similarity

import "unicode"

// Token is a maximal run of non-whitespace bytes, identified by its byte range
// within the owning string.
type Token struct {
	Start int
	End   int
}

// Tokenize splits s on Unicode whitespace. The returned tokens reference s by
// offset and preserve order. Empty or all-whitespace input yields no tokens.
func Tokenize(s string) []Token {
	var tokens []Token
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, Token{Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Start: start, End: len(s)})
	}
	return tokens
}

// Prepared pairs a string with its token sequence so the sequence is computed
// once per call and shared by every window and chunk derived from it.
type Prepared struct {
	src    string
	text   string
	tokens []Token
}

// Prepare tokenizes s. The prepared text is s itself, including any leading
// or trailing whitespace.
func Prepare(s string) Prepared {
	return Prepared{src: s, text: s, tokens: Tokenize(s)}
}

// Span returns the contiguous run of tokens [i, j). Its text runs from the
// first token's start to the last token's end, sliced from the source string.
func (p Prepared) Span(i, j int) Prepared {
	if i >= j {
		return Prepared{src: p.src}
	}
	toks := p.tokens[i:j]
	return Prepared{
		src:    p.src,
		text:   p.src[toks[0].Start:toks[len(toks)-1].End],
		tokens: toks,
	}
}

// Text returns the text compared by the character metric.
func (p Prepared) Text() string {
	return p.text
}

// Len returns the number of tokens.
func (p Prepared) Len() int {
	return len(p.tokens)
}

// TokenText returns the text of the i-th token.
func (p Prepared) TokenText(i int) string {
	t := p.tokens[i]
	return p.src[t.Start:t.End]
}
