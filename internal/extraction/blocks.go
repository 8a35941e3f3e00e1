package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"resume-ranker/internal/keywords"
	"resume-ranker/internal/schema"
)

var (
	blockSplit    = regexp.MustCompile(`\n\s*\n|•|- |\d+\.\s+`)
	leadingBullet = regexp.MustCompile(`^[\s•\-–—*·▪●◦]+`)
)

// splitBlocks cuts section content on blank lines, bullets and numbered list
// markers. Empty blocks are dropped.
func splitBlocks(content string) []string {
	parts := blockSplit.Split(content, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// contentLines returns the non-empty lines of content with bullets removed.
func contentLines(content string) []string {
	var out []string
	for _, l := range strings.Split(content, "\n") {
		l = strings.TrimSpace(leadingBullet.ReplaceAllString(l, ""))
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func sectionsOf(all []schema.RawSection, want schema.Section) []schema.RawSection {
	var out []schema.RawSection
	for _, s := range all {
		if s.MappedTo == want && strings.TrimSpace(s.Content) != "" {
			out = append(out, s)
		}
	}
	return out
}

// substringHits returns the entries of table found in text, in table order.
func substringHits(text string, table []string) []string {
	out := []string{}
	for _, t := range table {
		for _, spelling := range keywords.Spellings(t) {
			if strings.Contains(text, spelling) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func firstLine(block string) (string, bool) {
	i := strings.IndexByte(block, '\n')
	if i < 0 {
		return block, false
	}
	return strings.TrimSpace(block[:i]), true
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}
