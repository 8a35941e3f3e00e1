package resumes

import (
	"context"
	"sort"
	"time"

	"resume-ranker/internal/cohort"
	"resume-ranker/internal/export"
)

// CohortReport lists a cohort in the order Compare ranks it.
func (s *Service) CohortReport(ctx context.Context, batch, department string) ([]export.CohortRow, error) {
	recs, err := s.Repo.List(ctx, Filter{Batch: batch, Department: department})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		si, sj := cohort.RankingScore(recs[i].Resume), cohort.RankingScore(recs[j].Resume)
		if si != sj {
			return si > sj
		}
		return recs[i].ID < recs[j].ID
	})

	rows := make([]export.CohortRow, 0, len(recs))
	for i, r := range recs {
		rows = append(rows, export.CohortRow{
			Rank:         i + 1,
			ResumeID:     r.ID,
			StudentID:    r.StudentID,
			Score:        r.Score,
			RankingScore: cohort.RankingScore(r.Resume),
			Skills:       len(r.Resume.Skills),
			Projects:     len(r.Resume.Projects),
			Experience:   len(r.Resume.Experience),
			Embedding:    string(r.EmbeddingStatus),
		})
	}
	return rows, nil
}

// ShortlistReport runs Shortlist and wraps the result for export.
func (s *Service) ShortlistReport(ctx context.Context, req ShortlistRequest) (export.ShortlistReport, error) {
	results, err := s.Shortlist(ctx, req)
	if err != nil {
		return export.ShortlistReport{}, err
	}
	now := time.Now().UTC()
	if s.Builder.Now != nil {
		now = s.Builder.Now().UTC()
	}
	return export.ShortlistReport{JDText: req.JDText, GeneratedAt: now, Results: results}, nil
}
