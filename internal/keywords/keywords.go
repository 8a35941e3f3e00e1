// Package keywords holds the term matching and tokenizing helpers shared by the
// extractors and the JD matcher.
package keywords

import (
	"sort"
	"strings"
	"unicode"
)

// stopWords filters common English words that add noise to keyword overlap.
var stopWords = map[string]bool{
	"a": true, "an": true, "as": true, "at": true, "be": true, "by": true,
	"do": true, "if": true, "in": true, "is": true, "it": true, "of": true,
	"on": true, "or": true, "so": true, "to": true, "up": true, "us": true,
	"we": true, "my": true, "me": true, "no": true, "etc": true,
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"work": true, "team": true, "role": true, "job": true, "join": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "high": true,
	"good": true, "able": true, "get": true, "set": true, "such": true,
	"should": true, "must": true, "would": true, "may": true, "any": true,
	"other": true, "some": true, "one": true,
	"experience": true, "strong": true, "looking": true, "plus": true,
}

// IsStopWord reports whether w is filtered out of keyword sets.
func IsStopWord(w string) bool {
	return stopWords[strings.ToLower(w)]
}

// ContainsTerm reports whether text contains term as a whole term. The match is
// case-insensitive and a hit must not be glued to a letter or digit on either
// side, nor followed by '+' or '#', so "java" does not match "javascript" and
// "c" does not match "c++". A glued version number or "js" suffix still
// counts, so "python3" and "reactjs" match their bare terms.
func ContainsTerm(text, term string) bool {
	text = strings.ToLower(text)
	for _, t := range Spellings(term) {
		if containsTerm(text, t) {
			return true
		}
	}
	return false
}

// Spellings returns term lower-cased plus its common glued spelling:
// "node.js" is also written "nodejs".
func Spellings(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	if base, ok := strings.CutSuffix(term, ".js"); ok && base != "" {
		return []string{term, base + "js"}
	}
	return []string{term}
}

func containsTerm(text, term string) bool {
	from := 0
	for from <= len(text)-len(term) {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if boundaryBefore(text, start) && (boundaryAfter(text, end) || gluedSuffixEnds(text, end)) {
			return true
		}
		from = start + 1
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r := lastRune(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r := firstRune(text[i:])
	return !isWordRune(r) && r != '+' && r != '#'
}

// gluedSuffixEnds reports whether a version ("3", "3.11") or "js" suffix
// starts at i and is itself followed by a term boundary.
func gluedSuffixEnds(text string, i int) bool {
	j := i
	if strings.HasPrefix(text[i:], "js") {
		j = i + 2
	} else {
		for j < len(text) && (isDigit(text[j]) || (j > i && text[j] == '.' && j+1 < len(text) && isDigit(text[j+1]))) {
			j++
		}
	}
	return j > i && boundaryAfter(text, j)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) rune {
	var last rune
	for _, r := range s {
		last = r
	}
	return last
}

// Tokenize splits text into lowercase tokens of at least two characters,
// skipping stop words. Tech suffixes like "c++", "c#" and "node.js" survive
// because + # . are kept as word characters.
func Tokenize(text string) []string {
	var (
		out  []string
		word strings.Builder
	)
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		w = strings.TrimLeft(w, ".")
		word.Reset()
		if len([]rune(w)) >= 2 && !stopWords[w] {
			out = append(out, w)
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

// Set returns the distinct tokens of text.
func Set(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokenize(text) {
		set[tok] = true
	}
	return set
}

// Top returns up to n tokens of text ordered by frequency, ties broken
// alphabetically.
func Top(text string, n int) []string {
	if n <= 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		counts[tok]++
	}
	toks := make([]string, 0, len(counts))
	for tok := range counts {
		toks = append(toks, tok)
	}
	sort.Slice(toks, func(i, j int) bool {
		if counts[toks[i]] != counts[toks[j]] {
			return counts[toks[i]] > counts[toks[j]]
		}
		return toks[i] < toks[j]
	})
	if len(toks) > n {
		toks = toks[:n]
	}
	return toks
}
