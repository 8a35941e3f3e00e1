package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"resume-ranker/internal/keywords"
	"resume-ranker/internal/schema"
)

const minAchievementChars = 10

var degreeTerms = []string{
	"b.tech", "btech", "b.e", "b.sc", "bsc", "bca", "b.com", "bachelor",
	"m.tech", "mtech", "m.e", "m.sc", "msc", "mca", "mba", "master",
	"phd", "ph.d", "diploma", "hsc", "ssc", "class xii", "class x",
	"higher secondary", "senior secondary", "secondary school",
}

var institutionTerms = []string{
	"university", "college", "institute", "school", "academy", "iit", "nit", "iiit",
}

var certIssuers = []struct{ term, name string }{
	{"coursera", "Coursera"},
	{"udemy", "Udemy"},
	{"edx", "edX"},
	{"nptel", "NPTEL"},
	{"aws", "AWS"},
	{"google", "Google"},
	{"microsoft", "Microsoft"},
	{"oracle", "Oracle"},
	{"cisco", "Cisco"},
	{"ibm", "IBM"},
	{"meta", "Meta"},
	{"linkedin", "LinkedIn"},
	{"hackerrank", "HackerRank"},
	{"freecodecamp", "freeCodeCamp"},
	{"red hat", "Red Hat"},
	{"comptia", "CompTIA"},
	{"kaggle", "Kaggle"},
	{"great learning", "Great Learning"},
}

var (
	yearRange  = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s*(?:-|–|—|to)\s*((?:19|20)\d{2}|present|current|now)\b`)
	singleYear = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	gradeScore = regexp.MustCompile(`(?i)\b(?:cgpa|gpa|sgpa|cpi)\s*[:\-]?\s*(\d{1,2}(?:\.\d+)?(?:\s*/\s*\d{1,2}(?:\.\d+)?)?)|\b(\d{2,3}(?:\.\d+)?\s*%)`)
)

// Education groups the lines of education sections into entries. A line that
// names a degree starts a new entry; institution, year and grade lines attach
// to the entry they follow.
func Education(sections []schema.RawSection) []schema.Education {
	out := []schema.Education{}
	for _, sec := range sectionsOf(sections, schema.SectionEducation) {
		var cur *schema.Education
		flush := func() {
			if cur != nil {
				cur.Confidence = educationConfidence(*cur, sec.Confidence)
				out = append(out, *cur)
				cur = nil
			}
		}
		for _, line := range contentLines(sec.Content) {
			lower := strings.ToLower(line)
			isDegree := hasAnyTerm(lower, degreeTerms)
			isInstitution := hasAnyTerm(lower, institutionTerms)

			if isDegree && (cur == nil || cur.Degree != "") {
				flush()
				cur = &schema.Education{}
			}
			if cur == nil {
				if !isInstitution {
					continue
				}
				cur = &schema.Education{}
			}

			if isDegree && cur.Degree == "" {
				cur.Degree = trimDetails(line)
			}
			if isInstitution && cur.Institution == "" {
				cur.Institution = institutionName(line, isDegree)
			}
			if start, end, ok := parseYearRange(line); ok && cur.StartYear == 0 {
				cur.StartYear, cur.EndYear = start, end
			} else if cur.EndYear == 0 && cur.StartYear == 0 {
				if y, ok := lastYear(line); ok {
					cur.EndYear = y
				}
			}
			if score := parseScore(line); score != "" && cur.Score == "" {
				cur.Score = score
			}
		}
		flush()
	}
	return out
}

func educationConfidence(e schema.Education, sectionConf float64) float64 {
	conf := sectionConfWeight * sectionConf
	if e.Degree != "" {
		conf += 0.2
	}
	if e.Institution != "" {
		conf += 0.1
	}
	if e.StartYear != 0 || e.EndYear != 0 {
		conf += 0.1
	}
	return clamp01(conf)
}

// Certifications reads one certification per line of certification sections.
func Certifications(sections []schema.RawSection) []schema.Certification {
	out := []schema.Certification{}
	for _, sec := range sectionsOf(sections, schema.SectionCertifications) {
		for _, line := range contentLines(sec.Content) {
			name := trimDetails(line)
			if charLen(name) < 4 {
				continue
			}
			lower := strings.ToLower(line)
			c := schema.Certification{Name: name}
			for _, issuer := range certIssuers {
				if keywords.ContainsTerm(lower, issuer.term) {
					c.Issuer = issuer.name
					break
				}
			}
			if y, ok := lastYear(line); ok {
				c.Year = y
			}

			conf := sectionConfWeight * sec.Confidence
			if c.Issuer != "" {
				conf += 0.2
			}
			if c.Year != 0 {
				conf += 0.1
			}
			c.Confidence = clamp01(conf)
			out = append(out, c)
		}
	}
	return out
}

// Achievements returns the lines of achievement sections that are long
// enough to say something.
func Achievements(sections []schema.RawSection) []string {
	out := []string{}
	for _, sec := range sectionsOf(sections, schema.SectionAchievements) {
		for _, line := range contentLines(sec.Content) {
			if charLen(line) >= minAchievementChars {
				out = append(out, line)
			}
		}
	}
	return out
}

func hasAnyTerm(text string, terms []string) bool {
	for _, t := range terms {
		if keywords.ContainsTerm(text, t) {
			return true
		}
	}
	return false
}

// trimDetails cuts trailing "| 2020 - 2024", "(CGPA 8.1)" and similar
// details off a line.
func trimDetails(line string) string {
	cut := len(line)
	for _, sep := range []string{" | ", "|", " (", " – ", " — ", " - ", ","} {
		if i := strings.Index(line, sep); i > 0 && i < cut {
			cut = i
		}
	}
	if loc := singleYear.FindStringIndex(line); loc != nil && loc[0] > 0 && loc[0] < cut {
		cut = loc[0]
	}
	return strings.TrimRight(strings.TrimSpace(line[:cut]), " ,;:-–—")
}

// institutionName returns the part of line naming a school. When the same
// line also names the degree, the school is usually after a comma or "from".
func institutionName(line string, sharedWithDegree bool) string {
	if !sharedWithDegree {
		return trimDetails(line)
	}
	for _, sep := range []string{",", " from ", " at ", "|", " - "} {
		if i := strings.Index(strings.ToLower(line), sep); i >= 0 {
			rest := strings.TrimSpace(line[i+len(sep):])
			if hasAnyTerm(strings.ToLower(rest), institutionTerms) {
				return trimDetails(rest)
			}
		}
	}
	return ""
}

func parseYearRange(line string) (int, int, bool) {
	m := yearRange.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	start, _ := strconv.Atoi(m[1])
	end, err := strconv.Atoi(m[2])
	if err != nil {
		end = 0
	}
	return start, end, true
}

func lastYear(line string) (int, bool) {
	all := singleYear.FindAllString(line, -1)
	if len(all) == 0 {
		return 0, false
	}
	y, err := strconv.Atoi(all[len(all)-1])
	return y, err == nil
}

func parseScore(line string) string {
	m := gradeScore.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return strings.ReplaceAll(m[1], " ", "")
	}
	return strings.ReplaceAll(m[2], " ", "")
}
