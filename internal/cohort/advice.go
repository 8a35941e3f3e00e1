package cohort

import (
	"fmt"
	"strings"
)

const (
	maxAdvice      = 6
	NoPeersAdvice  = "Not enough peer resumes available to compare."
	alignedAdvice  = "Your resume is broadly aligned with your top peers. Focus on clarity and measurable impact."
	adviceSkillCap = 6
)

// FallbackAdvice derives advice bullets from gaps alone. It is used whenever
// no language model is configured or it fails.
func FallbackAdvice(g GapSummary) []string {
	var out []string
	if len(g.MissingSkills) > 0 {
		out = append(out, fmt.Sprintf("Add or highlight these common skills: %s.", strings.Join(first(g.MissingSkills, adviceSkillCap), ", ")))
	}
	if len(g.MissingProjectDomains) > 0 {
		out = append(out, fmt.Sprintf("Add a project aligned with: %s.", strings.Join(first(g.MissingProjectDomains, 3), ", ")))
	}
	if g.ExperienceGap != nil {
		out = append(out, *g.ExperienceGap)
	}
	for _, s := range first(g.StructureGaps, 3) {
		out = append(out, fmt.Sprintf("Consider adding a %s section if applicable.", s))
	}
	if len(out) == 0 {
		out = append(out, alignedAdvice)
	}
	return first(out, maxAdvice)
}

func first(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
