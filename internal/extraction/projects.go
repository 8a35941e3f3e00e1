package extraction

import (
	"strings"

	"resume-ranker/internal/schema"
)

const (
	minProjectChars   = 30
	longProjectChars  = 120
	maxTitleChars     = 80
	projectTechBonus  = 0.25
	projectLongBonus  = 0.15
	sectionConfWeight = 0.6
)

var projectTech = []string{
	"python", "java", "c++", "javascript", "typescript",
	"react", "next.js", "node.js", "express",
	"mysql", "postgresql", "mongodb",
	"machine learning", "deep learning", "nlp",
	"docker", "aws", "linux",
}

var projectDomains = []struct {
	domain   string
	keywords []string
}{
	{"web", []string{"react", "next", "frontend", "backend", "web"}},
	{"ml", []string{"machine learning", "ml", "deep learning", "model"}},
	{"systems", []string{"os", "kernel", "system"}},
	{"data", []string{"data", "analysis", "pipeline"}},
}

// Projects extracts one record per block of every projects section. Blocks
// shorter than 30 characters are noise and skipped.
func Projects(sections []schema.RawSection) []schema.Project {
	out := []schema.Project{}
	for _, sec := range sectionsOf(sections, schema.SectionProjects) {
		for _, block := range splitBlocks(sec.Content) {
			if charLen(block) < minProjectChars {
				continue
			}
			text := strings.ToLower(block)
			tech := substringHits(text, projectTech)

			conf := sectionConfWeight * sec.Confidence
			if len(tech) > 0 {
				conf += projectTechBonus
			}
			if charLen(block) > longProjectChars {
				conf += projectLongBonus
			}

			p := schema.Project{
				Description:  block,
				Technologies: tech,
				Domain:       detectDomain(text),
				Confidence:   clamp01(conf),
			}
			if first, multi := firstLine(block); multi && charLen(first) <= maxTitleChars {
				p.Title = first
			}
			out = append(out, p)
		}
	}
	return out
}

func detectDomain(text string) string {
	for _, d := range projectDomains {
		for _, k := range d.keywords {
			if strings.Contains(text, k) {
				return d.domain
			}
		}
	}
	return ""
}
