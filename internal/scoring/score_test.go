package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-ranker/internal/schema"
)

func resumeWith(nSkills, nStrongProjects, nWeakProjects, nStrongExp, nWeakExp, nEdu int) schema.Resume {
	var r schema.Resume
	for i := 0; i < nSkills; i++ {
		r.Skills = append(r.Skills, schema.Skill{Name: fmt.Sprintf("s%d", i), Confidence: 0.8})
	}
	for i := 0; i < nStrongProjects; i++ {
		r.Projects = append(r.Projects, schema.Project{Confidence: 0.9})
	}
	for i := 0; i < nWeakProjects; i++ {
		r.Projects = append(r.Projects, schema.Project{Confidence: 0.5})
	}
	for i := 0; i < nStrongExp; i++ {
		r.Experience = append(r.Experience, schema.Experience{Confidence: 0.75})
	}
	for i := 0; i < nWeakExp; i++ {
		r.Experience = append(r.Experience, schema.Experience{Confidence: 0.74})
	}
	for i := 0; i < nEdu; i++ {
		r.Education = append(r.Education, schema.Education{Confidence: 0.8})
	}
	return r
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		r    schema.Resume
		want Result
	}{
		{
			name: "empty",
			r:    schema.Resume{},
			want: Result{},
		},
		{
			name: "rounded skills",
			r:    resumeWith(3, 0, 0, 0, 0, 0),
			want: Result{Total: 11, Breakdown: Breakdown{Skills: 9, Structure: 2}},
		},
		{
			name: "mixed confidence",
			r:    resumeWith(5, 1, 1, 0, 1, 1),
			want: Result{Total: 15 + 20 + 10 + 10, Breakdown: Breakdown{Skills: 15, Projects: 20, Experience: 10, Structure: 10}},
		},
		{
			name: "everything capped",
			r:    resumeWith(25, 4, 0, 2, 0, 1),
			want: Result{Total: 100, Breakdown: Breakdown{Skills: 30, Projects: 35, Experience: 25, Structure: 10}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.r))
		})
	}
}

func TestComputeStaysInBounds(t *testing.T) {
	for skills := 0; skills <= 15; skills += 3 {
		for projects := 0; projects <= 6; projects++ {
			for exp := 0; exp <= 4; exp++ {
				res := Compute(resumeWith(skills, projects, projects, exp, exp, exp%2))
				b := res.Breakdown
				assert.LessOrEqual(t, b.Skills, MaxSkills)
				assert.LessOrEqual(t, b.Projects, MaxProjects)
				assert.LessOrEqual(t, b.Experience, MaxExperience)
				assert.LessOrEqual(t, b.Structure, MaxStructure)
				assert.GreaterOrEqual(t, res.Total, 0)
				assert.LessOrEqual(t, res.Total, 100)
				assert.Equal(t, b.Skills+b.Projects+b.Experience+b.Structure, res.Total)
			}
		}
	}
}
