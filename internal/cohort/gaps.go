package cohort

import (
	"sort"

	"resume-ranker/internal/schema"
)

const (
	maxMissingSkills   = 12
	maxDomains         = 6
	maxStructureGaps   = 6
	maxEvidenceSkills  = 12
	maxEvidenceDomains = 8
	maxEvidenceSection = 8

	ExperienceGapMessage = "Top peers commonly list internships/experience. Consider adding internships, freelance work, or relevant roles with measurable impact."
)

// GapSummary lists what the peer group commonly has that the student lacks.
type GapSummary struct {
	MissingSkills         []string `json:"missingSkills"`
	CommonProjectDomains  []string `json:"commonProjectDomains"`
	MissingProjectDomains []string `json:"missingProjectDomains"`
	ExperienceGap         *string  `json:"experienceGap"`
	StructureGaps         []string `json:"structureGaps"`
}

type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

type SectionCount struct {
	Section string `json:"section"`
	Count   int    `json:"count"`
}

// GapEvidence holds the counts behind a GapSummary.
type GapEvidence struct {
	GroupSize      int            `json:"groupSize"`
	CommonSkills   []SkillCount   `json:"commonSkills"`
	CommonDomains  []DomainCount  `json:"commonDomains"`
	CommonSections []SectionCount `json:"commonSections"`
}

// EmptyGaps is the summary used when there is no peer group.
func EmptyGaps() (GapSummary, GapEvidence) {
	return GapSummary{
			MissingSkills:         []string{},
			CommonProjectDomains:  []string{},
			MissingProjectDomains: []string{},
			StructureGaps:         []string{},
		}, GapEvidence{
			CommonSkills:   []SkillCount{},
			CommonDomains:  []DomainCount{},
			CommonSections: []SectionCount{},
		}
}

// sectionNames is the fixed order structure gaps are reported in.
var sectionNames = []string{
	"Certifications", "Achievements", "Experience", "Projects", "Skills", "Summary", "Positions",
}

func sectionPresence(r schema.Resume) map[string]bool {
	return map[string]bool{
		"Certifications": len(r.Certifications) > 0,
		"Achievements":   len(r.Achievements) > 0,
		"Experience":     len(r.Experience) > 0,
		"Projects":       len(r.Projects) > 0,
		"Skills":         len(r.Skills) > 0,
		"Summary":        r.HasSection(schema.SectionSummary),
		"Positions":      r.HasSection(schema.SectionPositions),
	}
}

// Gaps compares student against group, which should not contain the student.
func Gaps(student schema.Resume, group []schema.Resume, p Policy) (GapSummary, GapEvidence) {
	gaps, ev := EmptyGaps()
	n := len(group)
	ev.GroupSize = n

	// skills
	have := skillSet(student)
	common := commonSkills(group, p.Skills)
	for _, c := range common {
		if !have[c.Skill] && len(gaps.MissingSkills) < maxMissingSkills {
			gaps.MissingSkills = append(gaps.MissingSkills, titleCase(c.Skill))
		}
	}
	for i, c := range common {
		if i == maxEvidenceSkills {
			break
		}
		ev.CommonSkills = append(ev.CommonSkills, SkillCount{Skill: titleCase(c.Skill), Count: c.Count})
	}

	// project domains
	studentDomains := toSet(projectDomains(student))
	domainCounts := make(map[string]int)
	for _, r := range group {
		for d := range toSet(projectDomains(r)) {
			domainCounts[d]++
		}
	}
	minDomains := p.Domains.MinCount(n)
	var domains []DomainCount
	for d, c := range domainCounts {
		if c >= minDomains {
			domains = append(domains, DomainCount{Domain: d, Count: c})
		}
	}
	sort.Slice(domains, func(i, j int) bool {
		if domains[i].Count != domains[j].Count {
			return domains[i].Count > domains[j].Count
		}
		return domains[i].Domain < domains[j].Domain
	})
	for i, d := range domains {
		if i < maxDomains {
			gaps.CommonProjectDomains = append(gaps.CommonProjectDomains, d.Domain)
		}
		if i < maxEvidenceDomains {
			ev.CommonDomains = append(ev.CommonDomains, d)
		}
		if !studentDomains[d.Domain] && len(gaps.MissingProjectDomains) < maxDomains {
			gaps.MissingProjectDomains = append(gaps.MissingProjectDomains, d.Domain)
		}
	}

	// experience
	withExp := 0
	for _, r := range group {
		if len(r.Experience) > 0 {
			withExp++
		}
	}
	if len(student.Experience) == 0 && n > 0 && withExp >= p.Experience.MinCount(n) {
		msg := ExperienceGapMessage
		gaps.ExperienceGap = &msg
	}

	// structure
	studentSections := sectionPresence(student)
	sectionCounts := make(map[string]int)
	for _, r := range group {
		for name, present := range sectionPresence(r) {
			if present {
				sectionCounts[name]++
			}
		}
	}
	minSections := p.Sections.MinCount(n)
	var sections []SectionCount
	for _, name := range sectionNames {
		if c := sectionCounts[name]; c > 0 && c >= minSections {
			sections = append(sections, SectionCount{Section: name, Count: c})
		}
	}
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Count > sections[j].Count })
	for i, s := range sections {
		if i < maxEvidenceSection {
			ev.CommonSections = append(ev.CommonSections, s)
		}
		if !studentSections[s.Section] && len(gaps.StructureGaps) < maxStructureGaps {
			gaps.StructureGaps = append(gaps.StructureGaps, s.Section)
		}
	}

	return gaps, ev
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
