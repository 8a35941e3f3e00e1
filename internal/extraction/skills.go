// Package extraction turns classified resume sections into typed records with
// a confidence score. Extractors never fail: no evidence means an empty list.
package extraction

import (
	"resume-ranker/internal/keywords"
	"resume-ranker/internal/schema"
)

type vocabEntry struct {
	name     string
	category schema.SkillCategory
}

// skillVocabulary is the fixed set of recognised skills, in output order.
var skillVocabulary = []vocabEntry{
	{"python", schema.CategoryProgramming},
	{"java", schema.CategoryProgramming},
	{"c", schema.CategoryProgramming},
	{"c++", schema.CategoryProgramming},
	{"javascript", schema.CategoryProgramming},
	{"typescript", schema.CategoryProgramming},

	{"html", schema.CategoryOther},
	{"css", schema.CategoryOther},
	{"react", schema.CategoryFramework},
	{"next.js", schema.CategoryFramework},
	{"node.js", schema.CategoryFramework},
	{"express", schema.CategoryFramework},

	{"mysql", schema.CategoryDatabase},
	{"postgresql", schema.CategoryDatabase},
	{"mongodb", schema.CategoryDatabase},
	{"sqlite", schema.CategoryDatabase},

	{"machine learning", schema.CategoryML},
	{"deep learning", schema.CategoryML},
	{"nlp", schema.CategoryML},
	{"computer vision", schema.CategoryML},

	{"git", schema.CategoryTool},
	{"github", schema.CategoryTool},
	{"docker", schema.CategoryTool},
	{"linux", schema.CategoryTool},

	{"aws", schema.CategoryCloud},
	{"azure", schema.CategoryCloud},
	{"gcp", schema.CategoryCloud},
}

// SourceWeight ranks how much a mention in the given section says about a
// skill actually being used.
func SourceWeight(s schema.Section) float64 {
	switch s {
	case schema.SectionProjects:
		return 0.9
	case schema.SectionExperience:
		return 0.8
	case schema.SectionSkills:
		return 0.6
	default:
		return 0.4
	}
}

// Skills scans every section for known skills. A skill seen in several
// sections keeps its highest confidence.
func Skills(sections []schema.RawSection) []schema.Skill {
	best := make(map[string]float64)
	for _, sec := range sections {
		conf := clamp01(0.5 + SourceWeight(sec.MappedTo)*sec.Confidence)
		for _, v := range skillVocabulary {
			if !keywords.ContainsTerm(sec.Content, v.name) {
				continue
			}
			if cur, ok := best[v.name]; !ok || conf > cur {
				best[v.name] = conf
			}
		}
	}

	out := []schema.Skill{}
	for _, v := range skillVocabulary {
		if conf, ok := best[v.name]; ok {
			out = append(out, schema.Skill{Name: v.name, Category: v.category, Confidence: conf})
		}
	}
	return out
}
