package cohort

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/schema"
)

func resume(id string, skills ...string) schema.Resume {
	r := schema.Resume{Meta: schema.Meta{ResumeID: id}}
	for _, s := range skills {
		r.Skills = append(r.Skills, schema.Skill{Name: s, Confidence: 0.8})
	}
	return r
}

func dockerCohort() []schema.Resume {
	var out []schema.Resume
	for i := 0; i < 10; i++ {
		skills := []string{"python"}
		if i < 6 {
			skills = append(skills, "docker")
		}
		out = append(out, resume(fmt.Sprintf("peer-%02d", i), skills...))
	}
	return out
}

func TestMinCount(t *testing.T) {
	assert.Equal(t, 4, Threshold{Share: 0.4}.MinCount(10))
	assert.Equal(t, 5, Threshold{Share: 0.4}.MinCount(11))
	assert.Equal(t, 0, Threshold{Share: 0.4}.MinCount(0))
	assert.Equal(t, 1, Threshold{Share: 0.5, Floor: 1}.MinCount(1))
	assert.Equal(t, 2, Threshold{Share: 0.4, Floor: 2}.MinCount(3))
	assert.Equal(t, 4, Threshold{Share: 0.4, Floor: 2}.MinCount(10))
}

func TestCompareMissingCommonDocker(t *testing.T) {
	student := resume("student", "python")

	got := Compare(student, dockerCohort(), ComparatorPolicy)

	assert.Equal(t, 11, got.Total)
	assert.Contains(t, got.Comparisons.Skills.MissingCommon, "docker")
	assert.NotContains(t, got.Comparisons.Skills.MissingCommon, "python")
}

func TestGapsMissingDocker(t *testing.T) {
	student := resume("student", "python")

	gaps, ev := Gaps(student, dockerCohort(), GapPolicy)

	assert.Equal(t, []string{"Docker"}, gaps.MissingSkills)
	assert.Equal(t, 10, ev.GroupSize)
	assert.Equal(t, []SkillCount{{Skill: "Python", Count: 10}, {Skill: "Docker", Count: 6}}, ev.CommonSkills)
}

func TestThresholdsDifferBetweenPolicies(t *testing.T) {
	// 4 of 10 peers list docker: common at 40%, not at 50%.
	var group []schema.Resume
	for i := 0; i < 10; i++ {
		if i < 4 {
			group = append(group, resume(fmt.Sprintf("p%d", i), "docker"))
		} else {
			group = append(group, resume(fmt.Sprintf("p%d", i), "git"))
		}
	}
	student := resume("student", "git")

	cmp := Compare(student, append(group[:9:9], student), ComparatorPolicy)
	assert.Contains(t, cmp.Comparisons.Skills.MissingCommon, "docker")

	gaps, _ := Gaps(student, group, GapPolicy)
	assert.NotContains(t, gaps.MissingSkills, "Docker")
}

func TestCompareRankAndPercentile(t *testing.T) {
	strong := resume("a", "python", "java", "docker")
	strong.Projects = []schema.Project{{Description: "x"}, {Description: "y"}}
	mid := resume("b", "python")
	mid.Projects = []schema.Project{{Description: "x"}}
	weak := resume("c")

	got := Compare(strong, []schema.Resume{weak, mid, strong}, ComparatorPolicy)
	assert.Equal(t, 1, got.Rank)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 67, got.Percentile)
	assert.Equal(t, 3, got.Comparisons.Skills.Student)
	assert.Equal(t, 1, got.Comparisons.Skills.Average)
	assert.Equal(t, 1, got.Comparisons.Projects.Average)

	got = Compare(weak, []schema.Resume{weak, mid, strong}, ComparatorPolicy)
	assert.Equal(t, 3, got.Rank)
	assert.Equal(t, 0, got.Percentile)
}

func TestCompareTiesBreakByResumeID(t *testing.T) {
	a, b := resume("a", "go"), resume("b", "go")

	assert.Equal(t, 2, Compare(b, []schema.Resume{b, a}, ComparatorPolicy).Rank)
	assert.Equal(t, 1, Compare(a, []schema.Resume{b, a}, ComparatorPolicy).Rank)
}

func TestComparePercentileBounds(t *testing.T) {
	for size := 1; size <= 12; size++ {
		var cohort []schema.Resume
		for i := 0; i < size; i++ {
			skills := make([]string, i)
			for j := range skills {
				skills[j] = fmt.Sprintf("s%d", j)
			}
			cohort = append(cohort, resume(fmt.Sprintf("r%02d", i), skills...))
		}
		best := 0
		for _, r := range cohort {
			got := Compare(r, cohort, ComparatorPolicy)
			assert.GreaterOrEqual(t, got.Percentile, 0)
			assert.LessOrEqual(t, got.Percentile, 100)
			if got.Percentile > best {
				best = got.Percentile
			}
		}
		top := Compare(cohort[size-1], cohort, ComparatorPolicy)
		assert.Equal(t, 1, top.Rank)
		assert.Equal(t, best, top.Percentile)
	}
}

func TestGapsDomainsStructureAndExperience(t *testing.T) {
	var group []schema.Resume
	for i := 0; i < 4; i++ {
		r := resume(fmt.Sprintf("p%d", i), "python")
		r.Projects = []schema.Project{
			{Description: "Image classifier", Technologies: []string{"pytorch"}},
			{Description: "Portfolio site", Domain: "web"},
		}
		r.Experience = []schema.Experience{{Description: "intern"}}
		r.Certifications = []schema.Certification{{Name: "AWS CCP"}}
		r.RawSections = []schema.RawSection{{MappedTo: schema.SectionSummary}}
		group = append(group, r)
	}
	student := resume("student", "python")
	student.Projects = []schema.Project{{Description: "Blog", Domain: "web"}}

	gaps, ev := Gaps(student, group, GapPolicy)

	assert.Equal(t, []string{"Machine Learning", "Web"}, gaps.CommonProjectDomains)
	assert.Equal(t, []string{"Machine Learning"}, gaps.MissingProjectDomains)
	require.NotNil(t, gaps.ExperienceGap)
	assert.Equal(t, ExperienceGapMessage, *gaps.ExperienceGap)
	assert.Equal(t, []string{"Certifications", "Experience", "Summary"}, gaps.StructureGaps)
	assert.Equal(t, []SectionCount{
		{Section: "Certifications", Count: 4},
		{Section: "Experience", Count: 4},
		{Section: "Projects", Count: 4},
		{Section: "Skills", Count: 4},
		{Section: "Summary", Count: 4},
	}, ev.CommonSections)
}

func TestGapsSmallGroupNeedsTwoForDomains(t *testing.T) {
	peer := resume("p", "go")
	peer.Projects = []schema.Project{{Description: "Flutter app", Technologies: []string{"flutter"}}}

	gaps, _ := Gaps(resume("s"), []schema.Resume{peer}, GapPolicy)

	assert.Empty(t, gaps.CommonProjectDomains)
	assert.Equal(t, []string{"Go"}, gaps.MissingSkills)
}

func TestInferDomainUsesWordBoundaries(t *testing.T) {
	assert.Equal(t, "Web", InferDomain("Static site in HTML and CSS"))
	assert.Equal(t, "", InferDomain("Build a rapid prototype"))
	assert.Equal(t, "DevOps", InferDomain("CI/CD pipeline with Docker"))
	assert.Equal(t, "Mobile", InferDomain("Android app"))
}

func TestFallbackAdvice(t *testing.T) {
	msg := ExperienceGapMessage
	got := FallbackAdvice(GapSummary{
		MissingSkills:         []string{"Docker", "Git", "Aws", "Java", "Sql", "React", "Linux"},
		MissingProjectDomains: []string{"Web", "Data", "DevOps", "Mobile"},
		ExperienceGap:         &msg,
		StructureGaps:         []string{"Summary", "Certifications", "Achievements", "Positions"},
	})

	require.Len(t, got, 6)
	assert.Equal(t, "Add or highlight these common skills: Docker, Git, Aws, Java, Sql, React.", got[0])
	assert.Equal(t, "Add a project aligned with: Web, Data, DevOps.", got[1])
	assert.Equal(t, msg, got[2])
	assert.Equal(t, "Consider adding a Summary section if applicable.", got[3])

	empty, _ := EmptyGaps()
	assert.Equal(t, []string{alignedAdvice}, FallbackAdvice(empty))
}
