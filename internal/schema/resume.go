package schema

import "time"

// Version is the schema version written into every built resume.
const Version = "v1"

// Section is a canonical resume section.
type Section string

const (
	SectionSkills         Section = "skills"
	SectionProjects       Section = "projects"
	SectionExperience     Section = "experience"
	SectionEducation      Section = "education"
	SectionCertifications Section = "certifications"
	SectionAchievements   Section = "achievements"
	SectionPositions      Section = "positions"
	SectionSummary        Section = "summary"
	SectionInterests      Section = "interests"
	SectionUnknown        Section = "unknown"
)

// CanonicalSections lists the known sections in classification order.
var CanonicalSections = []Section{
	SectionSkills,
	SectionProjects,
	SectionExperience,
	SectionEducation,
	SectionCertifications,
	SectionAchievements,
	SectionPositions,
	SectionSummary,
	SectionInterests,
}

// SkillCategory groups skills for reporting.
type SkillCategory string

const (
	CategoryProgramming SkillCategory = "programming"
	CategoryFramework   SkillCategory = "framework"
	CategoryTool        SkillCategory = "tool"
	CategoryDatabase    SkillCategory = "database"
	CategoryML          SkillCategory = "ml"
	CategoryCloud       SkillCategory = "cloud"
	CategoryOther       SkillCategory = "other"
)

// RawSection is one heading-delimited block of the source text.
type RawSection struct {
	Heading    string  `json:"heading"`
	Content    string  `json:"content"`
	MappedTo   Section `json:"mappedTo"`
	Confidence float64 `json:"confidence"`
}

type Skill struct {
	Name       string        `json:"name"`
	Category   SkillCategory `json:"category,omitempty"`
	Confidence float64       `json:"confidence"`
}

type Project struct {
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Domain       string   `json:"domain,omitempty"`
	Confidence   float64  `json:"confidence"`
}

type Experience struct {
	Role         string   `json:"role,omitempty"`
	Company      string   `json:"company,omitempty"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Confidence   float64  `json:"confidence"`
}

type Education struct {
	Degree      string  `json:"degree,omitempty"`
	Institution string  `json:"institution,omitempty"`
	StartYear   int     `json:"startYear,omitempty"`
	EndYear     int     `json:"endYear,omitempty"`
	Score       string  `json:"score,omitempty"`
	Confidence  float64 `json:"confidence"`
}

type Certification struct {
	Name       string  `json:"name"`
	Issuer     string  `json:"issuer,omitempty"`
	Year       int     `json:"year,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Meta carries identity and parsing metadata for a resume.
type Meta struct {
	ResumeID       string    `json:"resumeId"`
	StudentID      string    `json:"studentId,omitempty"`
	Batch          string    `json:"batch,omitempty"`
	Department     string    `json:"department,omitempty"`
	GraduationYear int       `json:"graduationYear,omitempty"`
	ParsedAt       time.Time `json:"parsedAt"`
	SchemaVersion  string    `json:"schemaVersion"`
	Confidence     float64   `json:"confidence"`
}

// Resume is the structured document built from resume text.
type Resume struct {
	Meta           Meta            `json:"meta"`
	Skills         []Skill         `json:"skills"`
	Projects       []Project       `json:"projects"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Certifications []Certification `json:"certifications"`
	Achievements   []string        `json:"achievements"`
	RawSections    []RawSection    `json:"rawSections"`
}

// SkillNames returns skill names in stored order.
func (r Resume) SkillNames() []string {
	out := make([]string, 0, len(r.Skills))
	for _, s := range r.Skills {
		out = append(out, s.Name)
	}
	return out
}

// HasSection reports whether any raw section was classified as s.
func (r Resume) HasSection(s Section) bool {
	for _, raw := range r.RawSections {
		if raw.MappedTo == s {
			return true
		}
	}
	return false
}
