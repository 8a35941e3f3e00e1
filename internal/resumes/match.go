package resumes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"resume-ranker/internal/cohort"
	"resume-ranker/internal/embeddings"
	"resume-ranker/internal/llm"
	"resume-ranker/internal/matching"
	"resume-ranker/internal/quota"
	"resume-ranker/internal/shared/telemetry"
)

const (
	ModeScore = "score"
	ModeJD    = "jd"

	// QuotaEndpointMissing names the advice endpoint in quota keys.
	QuotaEndpointMissing = "student_missing"

	AdviceSourceLLM      = "llm"
	AdviceSourceFallback = "fallback"
)

// MissingRequest asks what a student's top peers have that they lack.
type MissingRequest struct {
	Mode   string `json:"mode"`
	TopN   int    `json:"topN"`
	JDText string `json:"jdText"`
}

// Group describes the peer group a gap summary was computed against.
type Group struct {
	Mode       string `json:"mode"`
	Size       int    `json:"size"`
	Batch      string `json:"batch,omitempty"`
	Department string `json:"department,omitempty"`
}

// MissingResult is the gap summary plus advice for one student.
type MissingResult struct {
	Group         Group              `json:"group"`
	Gaps          cohort.GapSummary  `json:"gaps"`
	AdviceBullets []string           `json:"adviceBullets"`
	AdviceSource  string             `json:"adviceSource"`
	Evidence      cohort.GapEvidence `json:"evidence"`
	Quota         *quota.Result      `json:"quota,omitempty"`
}

// Missing compares a student with the top peers of their cohort. In score
// mode peers are ranked by stored score; in jd mode by embedding similarity
// to the job description. jd mode without a job description falls back to
// score mode.
func (s *Service) Missing(ctx context.Context, id string, req MissingRequest) (MissingResult, error) {
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	switch mode {
	case "", ModeScore:
		mode = ModeScore
	case ModeJD:
		if strings.TrimSpace(req.JDText) == "" {
			mode = ModeScore
		}
	default:
		return MissingResult{}, ErrInvalidMode
	}
	limit := req.TopN
	if limit <= 0 {
		limit = matching.DefaultTopN
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return MissingResult{}, err
	}

	peers := CohortFilter(student)
	peers.ExcludeID = student.ID

	var group []Record
	if mode == ModeJD {
		group, err = s.peersBySimilarity(ctx, req.JDText, peers, limit)
	} else {
		group, err = s.peersByScore(ctx, peers, limit)
	}
	if err != nil {
		return MissingResult{}, err
	}

	info := Group{Mode: mode, Size: len(group), Batch: student.Batch, Department: student.Department}
	if len(group) == 0 {
		gaps, evidence := cohort.EmptyGaps()
		return MissingResult{
			Group:         info,
			Gaps:          gaps,
			AdviceBullets: []string{cohort.NoPeersAdvice},
			AdviceSource:  AdviceSourceFallback,
			Evidence:      evidence,
		}, nil
	}

	gaps, evidence := cohort.Gaps(student.Resume, resumesOf(group), s.gapPolicy())
	info.Size = evidence.GroupSize
	res := MissingResult{Group: info, Gaps: gaps, Evidence: evidence}
	res.AdviceBullets, res.AdviceSource, res.Quota = s.advise(ctx, student, groupContext(info), gaps)
	return res, nil
}

func (s *Service) peersByScore(ctx context.Context, f Filter, limit int) ([]Record, error) {
	recs, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ID < recs[j].ID
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (s *Service) peersBySimilarity(ctx context.Context, jdText string, f Filter, limit int) ([]Record, error) {
	vec, err := s.embedQuery(ctx, jdText)
	if err != nil {
		return nil, err
	}
	f.EmbeddingStatus = EmbeddingDone
	recs, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Record, len(recs))
	candidates := make([]matching.Candidate, 0, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
		candidates = append(candidates, matching.Candidate{ResumeID: r.ID, Embedding: r.Embedding, BaseScore: r.Score})
	}
	ranked := matching.RankBySimilarity(vec, candidates, limit)
	out := make([]Record, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, byID[c.ResumeID])
	}
	return out, nil
}

func groupContext(g Group) string {
	batch, dept := g.Batch, g.Department
	if batch == "" {
		batch = "?"
	}
	if dept == "" {
		dept = "?"
	}
	return fmt.Sprintf("Compared to the top %d resumes in batch=%s, department=%s (mode=%s).", g.Size, batch, dept, g.Mode)
}

// advise asks the language model for bullets when one is configured and the
// student still has quota; every other path yields the deterministic advice.
func (s *Service) advise(ctx context.Context, student Record, groupCtx string, gaps cohort.GapSummary) ([]string, string, *quota.Result) {
	fallback := cohort.FallbackAdvice(gaps)
	if s.Advisor == nil {
		return fallback, AdviceSourceFallback, nil
	}

	var used *quota.Result
	if s.Quota != nil {
		principal := student.StudentID
		if principal == "" {
			principal = student.ID
		}
		res, err := s.Quota.Consume(ctx, principal, QuotaEndpointMissing)
		if err != nil {
			telemetry.Warn("resumes.quota_failed", map[string]any{"resume_id": student.ID, "error": err.Error()})
			return fallback, AdviceSourceFallback, nil
		}
		used = &res
		if !res.Allowed {
			telemetry.Info("resumes.quota_exhausted", map[string]any{
				"resume_id": student.ID,
				"limit":     res.Limit,
				"reset_at":  res.ResetAt,
			})
			return fallback, AdviceSourceFallback, used
		}
	}

	bullets, err := s.Advisor.Advise(ctx, groupCtx, gaps)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			telemetry.Warn("resumes.advice_failed", map[string]any{"resume_id": student.ID, "error": err.Error()})
		}
		return fallback, AdviceSourceFallback, used
	}
	return bullets, AdviceSourceLLM, used
}

// MatchRequest scores resumes against a job description by keyword rules.
type MatchRequest struct {
	JDText     string `json:"jdText"`
	TopN       int    `json:"topN"`
	Batch      string `json:"batch"`
	Department string `json:"department"`
}

// MatchJD ranks stored resumes against a job description.
func (s *Service) MatchJD(ctx context.Context, req MatchRequest) ([]matching.Result, error) {
	if strings.TrimSpace(req.JDText) == "" {
		return nil, invalidInput("JD text required")
	}
	recs, err := s.Repo.List(ctx, Filter{Batch: req.Batch, Department: req.Department})
	if err != nil {
		return nil, err
	}
	return matching.MatchJDToResumes(req.JDText, resumesOf(recs), req.TopN), nil
}

// ShortlistRequest ranks embedded resumes against a job description.
type ShortlistRequest struct {
	JDText     string `json:"jdText"`
	TopN       int    `json:"topN"`
	Batch      string `json:"batch"`
	Department string `json:"department"`
}

// Shortlist blends embedding similarity with keyword overlap. When no resume
// has an embedding yet the result is empty and the embedding service is not
// called.
func (s *Service) Shortlist(ctx context.Context, req ShortlistRequest) ([]matching.ShortlistResult, error) {
	if strings.TrimSpace(req.JDText) == "" {
		return nil, invalidInput("JD text required")
	}
	recs, err := s.Repo.List(ctx, Filter{
		Batch:           req.Batch,
		Department:      req.Department,
		EmbeddingStatus: EmbeddingDone,
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return []matching.ShortlistResult{}, nil
	}

	vec, err := s.embedQuery(ctx, req.JDText)
	if err != nil {
		return nil, err
	}

	candidates := make([]matching.Candidate, 0, len(recs))
	for _, r := range recs {
		candidates = append(candidates, matching.Candidate{
			ResumeID:  r.ID,
			Embedding: r.Embedding,
			Text:      embeddings.BuildText(r.Resume),
			BaseScore: r.Score,
		})
	}
	opts := s.ShortlistOptions
	if req.TopN > 0 {
		opts.TopN = req.TopN
	}
	out := matching.Shortlist(req.JDText, vec, candidates, opts)
	if out == nil {
		out = []matching.ShortlistResult{}
	}
	return out, nil
}
