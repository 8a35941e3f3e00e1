package embeddings

import (
	"strings"

	"resume-ranker/internal/schema"
)

// BuildText renders the parts of a resume that feed its embedding.
func BuildText(r schema.Resume) string {
	var b strings.Builder
	b.WriteString("Skills: ")
	b.WriteString(strings.Join(r.SkillNames(), ", "))
	b.WriteString("\n\nProjects:\n")
	for i, p := range r.Projects {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(p.Description)
	}
	b.WriteString("\n\nExperience:\n")
	for i, e := range r.Experience {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(e.Description)
	}
	return strings.TrimSpace(b.String())
}
