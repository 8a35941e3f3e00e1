// Package sections splits resume text into heading-delimited blocks and maps
// each heading onto a canonical section.
package sections

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"resume-ranker/internal/schema"
)

const (
	ConfidenceExact      = 0.95
	ConfidenceInternship = 0.8
	ConfidenceSubstring  = 0.75
	ConfidenceUnknown    = 0.3

	// maxAliasLengthGap bounds how much longer a heading may be than the
	// alias it contains.
	maxAliasLengthGap = 10
)

var (
	internshipWord   = regexp.MustCompile(`(?i)\binternships?\b`)
	remainderLeading = regexp.MustCompile(`^[\s|:,\-–—•]+`)
)

// Match is the classification of one line.
type Match struct {
	Section    schema.Section
	Confidence float64
	// Heading is the text kept as the section heading.
	Heading string
	// Remainder is content that shared the heading's line.
	Remainder string
}

// Classify decides whether line is a section heading. ok is false for
// content lines.
func Classify(line string) (Match, bool) {
	line = strings.TrimSpace(line)
	norm := Normalize(line)
	if norm == "" {
		return Match{}, false
	}

	if sec, found := exactAliases[norm]; found {
		return Match{Section: sec, Confidence: ConfidenceExact, Heading: line}, true
	}

	if m, found := matchInternship(line, norm); found {
		return m, true
	}

	if sec, found := substringAlias(norm); found {
		return Match{Section: sec, Confidence: ConfidenceSubstring, Heading: line}, true
	}
	return Match{}, false
}

// substringAlias finds an alias contained in the heading within the length
// gap. Glued headings such as "workexperience" still match; when several
// aliases fit, one sitting on word boundaries wins over one buried in a word.
func substringAlias(norm string) (schema.Section, bool) {
	var (
		fallback schema.Section
		found    bool
	)
	for _, g := range aliasTable {
		for _, alias := range g.aliases {
			if !strings.Contains(norm, alias) || lengthGap(norm, alias) > maxAliasLengthGap {
				continue
			}
			if containsAligned(norm, alias) {
				return g.section, true
			}
			if !found {
				fallback, found = g.section, true
			}
		}
	}
	return fallback, found
}

// matchInternship catches PDF extractions that glue the "Internships" heading
// to the first entry, as in "Internships | Acme Corp, Backend Intern".
func matchInternship(line, norm string) (Match, bool) {
	fields := strings.Fields(norm)
	if len(fields) < 2 || (fields[0] != "internship" && fields[0] != "internships") {
		return Match{}, false
	}
	loc := internshipWord.FindStringIndex(line)
	if loc == nil {
		return Match{}, false
	}
	rest := remainderLeading.ReplaceAllString(line[loc[1]:], "")
	// "Internship Experience" is a heading, not heading plus entry.
	if _, alias := exactAliases[Normalize(rest)]; alias {
		return Match{Section: schema.SectionExperience, Confidence: ConfidenceInternship, Heading: line}, true
	}
	return Match{
		Section:    schema.SectionExperience,
		Confidence: ConfidenceInternship,
		Heading:    line[loc[0]:loc[1]],
		Remainder:  strings.TrimSpace(rest),
	}, true
}

func containsAligned(heading, alias string) bool {
	if alias == "" {
		return false
	}
	return heading == alias ||
		strings.HasPrefix(heading, alias+" ") ||
		strings.HasSuffix(heading, " "+alias) ||
		strings.Contains(heading, " "+alias+" ")
}

func lengthGap(a, b string) int {
	d := utf8.RuneCountInString(a) - utf8.RuneCountInString(b)
	if d < 0 {
		return -d
	}
	return d
}

// Segment splits text into sections in a single pass. Lines before the first
// recognised heading are collected into an unknown section.
func Segment(text string) []schema.RawSection {
	var (
		out     []schema.RawSection
		current *openSection
	)
	closeCurrent := func() {
		if current != nil {
			out = append(out, current.build())
			current = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if m, ok := Classify(line); ok {
			closeCurrent()
			current = &openSection{heading: m.Heading, section: m.Section, confidence: m.Confidence}
			if m.Remainder != "" {
				current.lines = append(current.lines, m.Remainder)
			}
			continue
		}
		if current == nil {
			current = &openSection{heading: "unknown", section: schema.SectionUnknown, confidence: ConfidenceUnknown}
		}
		current.lines = append(current.lines, line)
	}
	closeCurrent()

	if out == nil {
		return []schema.RawSection{}
	}
	return out
}

type openSection struct {
	heading    string
	section    schema.Section
	confidence float64
	lines      []string
}

func (s *openSection) build() schema.RawSection {
	return schema.RawSection{
		Heading:    s.heading,
		Content:    strings.Join(s.lines, "\n"),
		MappedTo:   s.section,
		Confidence: s.confidence,
	}
}

func isLetterOrDigit(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
