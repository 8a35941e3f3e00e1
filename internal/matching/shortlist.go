package matching

import (
	"math"
	"sort"

	"resume-ranker/internal/keywords"
	"resume-ranker/internal/schema"
)

// ShortlistOptions tunes the semantic shortlist. Zero TopN, KeywordTopN and
// weights take the defaults from DefaultShortlistOptions. The relevance
// floors are pointers so an explicit 0 turns a floor off; nil means default.
type ShortlistOptions struct {
	TopN           int      `yaml:"top_n"`
	SemanticWeight float64  `yaml:"semantic_weight"`
	KeywordWeight  float64  `yaml:"keyword_weight"`
	MinCombined    *float64 `yaml:"min_combined"`
	MinKeyword     *float64 `yaml:"min_keyword"`
	KeywordTopN    int      `yaml:"keyword_top_n"`
}

const (
	defaultMinCombined = 0.18
	defaultMinKeyword  = 0.08
)

func DefaultShortlistOptions() ShortlistOptions {
	return ShortlistOptions{
		TopN:           DefaultTopN,
		SemanticWeight: 0.75,
		KeywordWeight:  0.25,
		MinCombined:    Floor(defaultMinCombined),
		MinKeyword:     Floor(defaultMinKeyword),
		KeywordTopN:    DefaultKeywordTopN,
	}
}

// Floor returns a relevance floor for ShortlistOptions.
func Floor(v float64) *float64 {
	return &v
}

func (o ShortlistOptions) withDefaults() ShortlistOptions {
	d := DefaultShortlistOptions()
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	if o.SemanticWeight == 0 && o.KeywordWeight == 0 {
		o.SemanticWeight, o.KeywordWeight = d.SemanticWeight, d.KeywordWeight
	}
	if o.MinCombined == nil {
		o.MinCombined = d.MinCombined
	}
	if o.MinKeyword == nil {
		o.MinKeyword = d.MinKeyword
	}
	if o.KeywordTopN <= 0 {
		o.KeywordTopN = d.KeywordTopN
	}
	return o
}

// Candidate is a resume with a stored embedding.
type Candidate struct {
	ResumeID  string
	Embedding []float64
	Text      string
	BaseScore int
}

// ShortlistResult is one shortlisted resume. MatchScore is the blended score
// rounded to four decimals.
type ShortlistResult struct {
	ResumeID     string  `json:"resumeId"`
	MatchScore   float64 `json:"matchScore"`
	Similarity   float64 `json:"similarity"`
	KeywordMatch float64 `json:"keywordMatch"`
	BaseScore    int     `json:"baseScore"`
}

// Shortlist ranks candidates against a job description by blending cosine
// similarity with keyword overlap. Candidates below both relevance floors
// are dropped, so fewer than TopN results may come back. Candidates whose
// embedding is missing or of the wrong dimension are skipped.
func Shortlist(jdText string, jdVec []float64, candidates []Candidate, opts ShortlistOptions) []ShortlistResult {
	opts = opts.withDefaults()
	top := keywords.Top(jdText, opts.KeywordTopN)

	type scored struct {
		ShortlistResult
		combined float64
	}
	var kept []scored
	for _, c := range candidates {
		if !schema.ValidEmbedding(c.Embedding) {
			continue
		}
		sim, err := Cosine(jdVec, c.Embedding)
		if err != nil {
			continue
		}
		kw := overlap(top, keywords.Set(c.Text))
		combined := opts.SemanticWeight*sim + opts.KeywordWeight*kw
		if combined < *opts.MinCombined && kw < *opts.MinKeyword {
			continue
		}
		kept = append(kept, scored{
			ShortlistResult: ShortlistResult{
				ResumeID:     c.ResumeID,
				MatchScore:   round4(combined),
				Similarity:   round4(sim),
				KeywordMatch: round4(kw),
				BaseScore:    c.BaseScore,
			},
			combined: combined,
		})
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].combined != kept[j].combined {
			return kept[i].combined > kept[j].combined
		}
		return kept[i].ResumeID < kept[j].ResumeID
	})
	if len(kept) > opts.TopN {
		kept = kept[:opts.TopN]
	}

	out := make([]ShortlistResult, 0, len(kept))
	for _, k := range kept {
		out = append(out, k.ShortlistResult)
	}
	return out
}

// RankBySimilarity orders candidates by cosine similarity to vec and keeps
// the first n. It backs the "jd" peer group mode.
func RankBySimilarity(vec []float64, candidates []Candidate, n int) []Candidate {
	type scored struct {
		c   Candidate
		sim float64
	}
	var list []scored
	for _, c := range candidates {
		if !schema.ValidEmbedding(c.Embedding) {
			continue
		}
		sim, err := Cosine(vec, c.Embedding)
		if err != nil {
			continue
		}
		list = append(list, scored{c: c, sim: sim})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].sim != list[j].sim {
			return list[i].sim > list[j].sim
		}
		return list[i].c.ResumeID < list[j].c.ResumeID
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	out := make([]Candidate, 0, len(list))
	for _, s := range list {
		out = append(out, s.c)
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
