package extraction

import (
	"regexp"
	"strings"

	"resume-ranker/internal/schema"
)

const (
	minExperienceChars  = 40
	longExperienceChars = 150
)

var experienceTech = []string{
	"python", "java", "c++", "javascript", "typescript",
	"react", "next.js", "node.js", "express",
	"mysql", "postgresql", "mongodb",
	"docker", "aws", "linux",
}

var roleKeywords = []string{
	"intern",
	"developer",
	"engineer",
	"software",
	"backend",
	"frontend",
	"full stack",
	"research",
	"analyst",
}

var (
	companyMarker = regexp.MustCompile(`(?i)\s+at\s+|@\s*`)
	companyEnd    = regexp.MustCompile(`\s*(?:[,|(]|\s-\s|\s–\s|\s—\s).*$`)
)

// Experience extracts one record per block of every experience section.
// Blocks shorter than 40 characters are skipped.
func Experience(sections []schema.RawSection) []schema.Experience {
	out := []schema.Experience{}
	for _, sec := range sectionsOf(sections, schema.SectionExperience) {
		for _, block := range splitBlocks(sec.Content) {
			if charLen(block) < minExperienceChars {
				continue
			}
			text := strings.ToLower(block)
			tech := substringHits(text, experienceTech)
			role := detectRole(text)

			conf := sectionConfWeight * sec.Confidence
			if role != "" {
				conf += 0.2
			}
			if len(tech) > 0 {
				conf += 0.15
			}
			if charLen(block) > longExperienceChars {
				conf += 0.05
			}

			first, _ := firstLine(block)
			out = append(out, schema.Experience{
				Role:         role,
				Company:      detectCompany(first),
				Description:  block,
				Technologies: tech,
				Confidence:   clamp01(conf),
			})
		}
	}
	return out
}

func detectRole(text string) string {
	for _, r := range roleKeywords {
		if strings.Contains(text, r) {
			return r
		}
	}
	return ""
}

// detectCompany reads "Backend Intern at Acme Corp, Pune" as "Acme Corp".
func detectCompany(line string) string {
	loc := companyMarker.FindStringIndex(line)
	if loc == nil {
		return ""
	}
	name := companyEnd.ReplaceAllString(line[loc[1]:], "")
	return strings.TrimRight(strings.TrimSpace(name), ".;:")
}
