// Package scoring rates a resume schema on a fixed 0-100 rubric.
package scoring

import (
	"math"

	"resume-ranker/internal/schema"
)

const (
	MaxSkills     = 30
	MaxProjects   = 35
	MaxExperience = 25
	MaxStructure  = 10

	skillCap            = 10
	strongConfidence    = 0.75
	strongProjectPoints = 12
	weakProjectPoints   = 8
	strongExpPoints     = 15
	weakExpPoints       = 10
)

type Breakdown struct {
	Skills     int `json:"skills"`
	Projects   int `json:"projects"`
	Experience int `json:"experience"`
	Structure  int `json:"structure"`
}

// Result is a resume score. It is derived data and never stored as the
// source of truth.
type Result struct {
	Total     int       `json:"totalScore"`
	Breakdown Breakdown `json:"breakdown"`
}

// Compute scores r. Each part is capped so the total stays within 0-100.
func Compute(r schema.Resume) Result {
	b := Breakdown{
		Skills:     skills(len(r.Skills)),
		Projects:   projects(r.Projects),
		Experience: experience(r.Experience),
		Structure:  structure(r),
	}
	return Result{
		Total:     b.Skills + b.Projects + b.Experience + b.Structure,
		Breakdown: b,
	}
}

func skills(n int) int {
	if n > skillCap {
		n = skillCap
	}
	return int(math.Round(float64(n) / skillCap * MaxSkills))
}

func projects(ps []schema.Project) int {
	total := 0
	for _, p := range ps {
		if p.Confidence >= strongConfidence {
			total += strongProjectPoints
		} else {
			total += weakProjectPoints
		}
	}
	return min(MaxProjects, total)
}

func experience(es []schema.Experience) int {
	total := 0
	for _, e := range es {
		if e.Confidence >= strongConfidence {
			total += strongExpPoints
		} else {
			total += weakExpPoints
		}
	}
	return min(MaxExperience, total)
}

func structure(r schema.Resume) int {
	s := 0
	if len(r.Skills) > 0 {
		s += 2
	}
	if len(r.Projects) > 0 {
		s += 3
	}
	if len(r.Experience) > 0 {
		s += 3
	}
	if len(r.Education) > 0 {
		s += 2
	}
	return s
}
