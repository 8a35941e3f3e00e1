package cohort

import (
	"math"
	"sort"
	"strings"

	"resume-ranker/internal/schema"
)

type SkillComparison struct {
	Student       int      `json:"student"`
	Average       int      `json:"average"`
	MissingCommon []string `json:"missingCommon"`
}

type CountComparison struct {
	Student int `json:"student"`
	Average int `json:"average"`
}

type Comparisons struct {
	Skills     SkillComparison `json:"skills"`
	Projects   CountComparison `json:"projects"`
	Experience CountComparison `json:"experience"`
}

// Comparison places a student within a cohort.
type Comparison struct {
	Rank        int         `json:"rank"`
	Total       int         `json:"total"`
	Percentile  int         `json:"percentile"`
	Comparisons Comparisons `json:"comparisons"`
}

// RankingScore is the cohort ranking weight of a resume. It differs from the
// rubric score on purpose: it only counts extracted records.
func RankingScore(r schema.Resume) int {
	return len(r.Skills)*2 + len(r.Projects)*5 + len(r.Experience)*4
}

// Compare ranks student within cohort. The student joins the cohort when it
// is not already a member, so the result is always well defined.
func Compare(student schema.Resume, cohort []schema.Resume, p Policy) Comparison {
	members := withStudent(student, cohort)
	total := len(members)

	ranked := make([]schema.Resume, total)
	copy(ranked, members)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := RankingScore(ranked[i]), RankingScore(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i].Meta.ResumeID < ranked[j].Meta.ResumeID
	})
	rank := 1
	for i, r := range ranked {
		if r.Meta.ResumeID == student.Meta.ResumeID {
			rank = i + 1
			break
		}
	}

	var skills, projects, exp []int
	for _, m := range members {
		skills = append(skills, len(m.Skills))
		projects = append(projects, len(m.Projects))
		exp = append(exp, len(m.Experience))
	}

	have := skillSet(student)
	missing := []string{}
	for _, c := range commonSkills(members, p.Skills) {
		if !have[c.Skill] {
			missing = append(missing, c.Skill)
		}
	}

	return Comparison{
		Rank:       rank,
		Total:      total,
		Percentile: int(math.Round(float64(total-rank) / float64(total) * 100)),
		Comparisons: Comparisons{
			Skills:     SkillComparison{Student: len(student.Skills), Average: average(skills), MissingCommon: missing},
			Projects:   CountComparison{Student: len(student.Projects), Average: average(projects)},
			Experience: CountComparison{Student: len(student.Experience), Average: average(exp)},
		},
	}
}

func withStudent(student schema.Resume, cohort []schema.Resume) []schema.Resume {
	for _, r := range cohort {
		if r.Meta.ResumeID == student.Meta.ResumeID {
			return cohort
		}
	}
	out := make([]schema.Resume, 0, len(cohort)+1)
	out = append(out, cohort...)
	return append(out, student)
}

func average(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}

// SkillCount is a skill and the number of group members listing it.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// commonSkills counts each skill once per resume and keeps those meeting t,
// most common first.
func commonSkills(group []schema.Resume, t Threshold) []SkillCount {
	counts := make(map[string]int)
	for _, r := range group {
		for s := range skillSet(r) {
			counts[s]++
		}
	}
	minCount := t.MinCount(len(group))
	out := []SkillCount{}
	for s, c := range counts {
		if c >= minCount {
			out = append(out, SkillCount{Skill: s, Count: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Skill < out[j].Skill
	})
	return out
}

func skillSet(r schema.Resume) map[string]bool {
	set := make(map[string]bool, len(r.Skills))
	for _, s := range r.Skills {
		if name := strings.ToLower(strings.TrimSpace(s.Name)); name != "" {
			set[name] = true
		}
	}
	return set
}
