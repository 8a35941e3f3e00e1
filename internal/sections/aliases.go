package sections

import "resume-ranker/internal/schema"

type aliasGroup struct {
	section schema.Section
	aliases []string
}

// aliasTable maps each canonical section to the headings people actually
// write. Order matters: it is the order substring matches are tried in.
var aliasTable = []aliasGroup{
	{schema.SectionSkills, []string{
		"skills",
		"technical skills",
		"key skills",
		"core skills",
		"core competencies",
		"technical competencies",
		"technologies",
		"tools",
		"tools and technologies",
		"software skills",
		"programming skills",
		"areas of expertise",
		"expertise",
	}},
	{schema.SectionProjects, []string{
		"projects",
		"project",
		"academic projects",
		"personal projects",
		"key projects",
		"major projects",
		"minor projects",
		"selected projects",
		"notable projects",
		"engineering projects",
		"college projects",
		"what i built",
		"what i have built",
		"my work",
		"work samples",
		"practical work",
		"hands on projects",
		"hands on experience",
		"capstone project",
		"capstone projects",
	}},
	{schema.SectionExperience, []string{
		"experience",
		"work experience",
		"professional experience",
		"industry experience",
		"internship",
		"internships",
		"industrial training",
		"training",
		"employment",
		"work history",
		"job experience",
		"corporate experience",
		"professional background",
		"career experience",
	}},
	{schema.SectionEducation, []string{
		"education",
		"educational background",
		"academic background",
		"academics",
		"academic qualifications",
		"educational qualifications",
		"education details",
		"academic details",
		"qualification",
		"qualifications",
		"degrees",
		"degree",
	}},
	{schema.SectionCertifications, []string{
		"certifications",
		"certification",
		"certificates",
		"certificate",
		"courses",
		"online courses",
		"professional courses",
		"completed courses",
		"licenses",
		"training and certification",
		"training courses",
	}},
	{schema.SectionAchievements, []string{
		"achievements",
		"awards",
		"honors",
		"honours",
		"recognition",
		"accomplishments",
		"merits",
		"distinctions",
		"scholarships",
		"competitive achievements",
	}},
	{schema.SectionPositions, []string{
		"positions of responsibility",
		"por",
		"leadership",
		"leadership experience",
		"responsibilities",
		"roles and responsibilities",
		"extra responsibilities",
		"positions held",
		"organizational roles",
		"committee roles",
	}},
	{schema.SectionSummary, []string{
		"summary",
		"profile",
		"professional summary",
		"career summary",
		"about me",
		"objective",
		"career objective",
		"resume objective",
		"personal statement",
		"introduction",
	}},
	{schema.SectionInterests, []string{
		"interests",
		"hobbies",
		"hobbies and interests",
		"extracurricular activities",
		"extra curricular activities",
		"activities",
		"co curricular activities",
		"personal interests",
	}},
}

// exactAliases resolves a normalized heading to its section. The first
// section in table order wins when an alias is listed twice.
var exactAliases = func() map[string]schema.Section {
	m := make(map[string]schema.Section)
	for _, g := range aliasTable {
		for _, a := range g.aliases {
			if _, ok := m[a]; !ok {
				m[a] = g.section
			}
		}
	}
	return m
}()
