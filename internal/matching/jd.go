// Package matching ranks resumes against a job description, either by rule
// based skill matching or by blending embedding similarity with keyword
// overlap.
package matching

import (
	"fmt"
	"math"
	"sort"

	"resume-ranker/internal/keywords"
	"resume-ranker/internal/schema"
)

const DefaultTopN = 10

var jdVocabulary = []string{
	"python", "java", "c++", "javascript", "typescript",
	"react", "node.js", "express",
	"sql", "mysql", "postgresql", "mongodb",
	"machine learning", "deep learning",
	"docker", "aws",
}

// ParsedJD is the part of a job description the matcher understands.
type ParsedJD struct {
	Skills []string `json:"skills"`
}

// ParseJD picks the known skills out of a job description.
func ParseJD(text string) ParsedJD {
	out := ParsedJD{Skills: []string{}}
	for _, s := range jdVocabulary {
		if keywords.ContainsTerm(text, s) {
			out.Skills = append(out.Skills, s)
		}
	}
	return out
}

// Result is one resume scored against a job description.
type Result struct {
	ResumeID      string   `json:"resumeId"`
	Score         int      `json:"score"`
	Reasons       []string `json:"reasons"`
	MatchedSkills []string `json:"matchedSkills"`
}

// ScoreAgainstJD scores r out of 100: 60 for skill coverage, up to 25 for
// projects and up to 15 for experience.
func ScoreAgainstJD(r schema.Resume, jd ParsedJD) Result {
	res := Result{ResumeID: r.Meta.ResumeID, Reasons: []string{}, MatchedSkills: []string{}}

	have := make(map[string]bool, len(r.Skills))
	for _, s := range r.Skills {
		have[s.Name] = true
	}

	var score float64
	if len(jd.Skills) > 0 {
		for _, s := range jd.Skills {
			if have[s] {
				res.MatchedSkills = append(res.MatchedSkills, s)
			}
		}
		score += float64(len(res.MatchedSkills)) / float64(len(jd.Skills)) * 60
		if len(res.MatchedSkills) > 0 {
			res.Reasons = append(res.Reasons, fmt.Sprintf("Matched %d/%d required skills", len(res.MatchedSkills), len(jd.Skills)))
		}
	}
	if n := len(r.Projects); n > 0 {
		score += math.Min(25, float64(n*12))
		res.Reasons = append(res.Reasons, "Relevant project experience")
	}
	if n := len(r.Experience); n > 0 {
		score += math.Min(15, float64(n*15))
		res.Reasons = append(res.Reasons, "Industry experience present")
	}
	res.Score = int(math.Round(score))
	return res
}

// MatchJDToResumes scores every resume against jdText and returns the best
// topN, highest first. Ties keep resume id order. topN <= 0 means 10.
func MatchJDToResumes(jdText string, resumes []schema.Resume, topN int) []Result {
	if topN <= 0 {
		topN = DefaultTopN
	}
	jd := ParseJD(jdText)
	out := make([]Result, 0, len(resumes))
	for _, r := range resumes {
		out = append(out, ScoreAgainstJD(r, jd))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ResumeID < out[j].ResumeID
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
