package cohort

import (
	"regexp"
	"strings"

	"resume-ranker/internal/schema"
)

var domainRules = []struct {
	label string
	re    *regexp.Regexp
}{
	{"Machine Learning", regexp.MustCompile(`\b(machine learning|ml|deep learning|nlp|computer vision|pytorch|tensorflow|transformers?)\b`)},
	{"Web", regexp.MustCompile(`\b(react|next\.js|frontend|web app|ui|html|css|tailwind|angular|vue)\b`)},
	{"Backend", regexp.MustCompile(`\b(api|rest|graphql|microservices?|express|fastapi|django|spring|backend)\b`)},
	{"Data", regexp.MustCompile(`\b(data pipeline|etl|spark|hadoop|data analysis|pandas|analytics)\b`)},
	{"DevOps", regexp.MustCompile(`\b(docker|kubernetes|ci/cd|devops|terraform|aws|gcp|azure)\b`)},
	{"Mobile", regexp.MustCompile(`\b(android|ios|flutter|react native)\b`)},
	{"Security", regexp.MustCompile(`\b(security|oauth|jwt|encryption|vulnerability)\b`)},
}

// domainLabels maps the short domain tags written by the project extractor
// onto the labels used by the inference rules.
var domainLabels = map[string]string{
	"ml": "Machine Learning",
}

// InferDomain classifies free project text into a domain label, or "".
func InferDomain(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, r := range domainRules {
		if r.re.MatchString(t) {
			return r.label
		}
	}
	return ""
}

// projectDomains returns the domain of every project that has one. An
// explicit domain wins over inference.
func projectDomains(r schema.Resume) []string {
	var out []string
	for _, p := range r.Projects {
		if d := strings.ToLower(strings.TrimSpace(p.Domain)); d != "" {
			if label, ok := domainLabels[d]; ok {
				out = append(out, label)
			} else {
				out = append(out, titleCase(d))
			}
			continue
		}
		text := strings.Join(append([]string{p.Title, p.Description}, p.Technologies...), " ")
		if d := InferDomain(text); d != "" {
			out = append(out, d)
		}
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
