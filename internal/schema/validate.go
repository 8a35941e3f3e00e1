package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Validation is the result of Check: either Valid or Invalid.
type Validation interface {
	isValidation()
}

// Valid wraps a resume that passed validation.
type Valid struct {
	Resume Resume
}

// Invalid explains why a payload is not a usable resume.
type Invalid struct {
	Reason string
}

func (Valid) isValidation()   {}
func (Invalid) isValidation() {}

// Check decodes raw JSON and validates it as a Resume.
func Check(raw []byte) Validation {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Invalid{Reason: "empty payload"}
	}
	if !strings.HasPrefix(trimmed, "{") {
		return Invalid{Reason: "payload is not a JSON object"}
	}
	var probe struct {
		Meta *json.RawMessage `json:"meta"`
	}
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return Invalid{Reason: fmt.Sprintf("decode: %v", err)}
	}
	if probe.Meta == nil {
		return Invalid{Reason: "missing meta"}
	}

	var r Resume
	if err := json.Unmarshal([]byte(trimmed), &r); err != nil {
		return Invalid{Reason: fmt.Sprintf("decode: %v", err)}
	}
	return CheckResume(r)
}

// CheckResume validates an already decoded resume.
func CheckResume(r Resume) Validation {
	if strings.TrimSpace(r.Meta.ResumeID) == "" {
		return Invalid{Reason: "missing meta.resumeId"}
	}
	if r.Meta.SchemaVersion != "" && r.Meta.SchemaVersion != Version {
		return Invalid{Reason: fmt.Sprintf("unsupported schema version %q", r.Meta.SchemaVersion)}
	}
	if !unitInterval(r.Meta.Confidence) {
		return Invalid{Reason: "meta.confidence out of range"}
	}
	for i, s := range r.Skills {
		if strings.TrimSpace(s.Name) == "" {
			return Invalid{Reason: fmt.Sprintf("skills[%d] has empty name", i)}
		}
		if !unitInterval(s.Confidence) {
			return Invalid{Reason: fmt.Sprintf("skills[%d].confidence out of range", i)}
		}
	}
	for i, p := range r.Projects {
		if !unitInterval(p.Confidence) {
			return Invalid{Reason: fmt.Sprintf("projects[%d].confidence out of range", i)}
		}
	}
	for i, e := range r.Experience {
		if !unitInterval(e.Confidence) {
			return Invalid{Reason: fmt.Sprintf("experience[%d].confidence out of range", i)}
		}
	}
	for i, s := range r.RawSections {
		if !unitInterval(s.Confidence) {
			return Invalid{Reason: fmt.Sprintf("rawSections[%d].confidence out of range", i)}
		}
	}
	return Valid{Resume: normalize(r)}
}

func normalize(r Resume) Resume {
	if r.Meta.SchemaVersion == "" {
		r.Meta.SchemaVersion = Version
	}
	if r.Skills == nil {
		r.Skills = []Skill{}
	}
	if r.Projects == nil {
		r.Projects = []Project{}
	}
	for i := range r.Projects {
		if r.Projects[i].Technologies == nil {
			r.Projects[i].Technologies = []string{}
		}
	}
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	for i := range r.Experience {
		if r.Experience[i].Technologies == nil {
			r.Experience[i].Technologies = []string{}
		}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	if r.Certifications == nil {
		r.Certifications = []Certification{}
	}
	if r.Achievements == nil {
		r.Achievements = []string{}
	}
	if r.RawSections == nil {
		r.RawSections = []RawSection{}
	}
	return r
}

func unitInterval(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}

// DecodeEmbedding parses a stored embedding vector. It rejects empty vectors and
// any element that is not a finite number.
func DecodeEmbedding(raw []byte) ([]float64, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, false
	}
	var values []any
	if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
		return nil, false
	}
	if len(values) == 0 {
		return nil, false
	}
	out := make([]float64, 0, len(values))
	for _, v := range values {
		f, ok := v.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

// ValidEmbedding reports whether vec is non-empty and entirely finite.
func ValidEmbedding(vec []float64) bool {
	if len(vec) == 0 {
		return false
	}
	for _, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
