package llm

import (
	"context"
	_ "embed"
	"encoding/json"
	"regexp"
	"strings"

	"resume-ranker/internal/cohort"
)

//go:embed prompts/advice_v1.txt
var adviceInstructionV1 string

// MaxAdviceBullets caps how many bullets are kept from a model answer.
const MaxAdviceBullets = 8

const adviceSystemPrompt = "You are a helpful career coach."

// BuildAdviceMessages renders the chat prompt for a gap summary. context
// describes the peer group the gaps were computed against.
func BuildAdviceMessages(context string, gaps cohort.GapSummary) ([]Message, error) {
	payload, err := json.MarshalIndent(gaps, "", "  ")
	if err != nil {
		return nil, err
	}
	var user strings.Builder
	user.WriteString(context)
	user.WriteString("\n\nGAPS_JSON:\n")
	user.Write(payload)
	user.WriteString("\n\n")
	user.WriteString(strings.TrimSpace(adviceInstructionV1))

	return []Message{
		{Role: "system", Content: adviceSystemPrompt},
		{Role: "user", Content: user.String()},
	}, nil
}

var bulletMarker = regexp.MustCompile(`^\s*[-*\x{2022}]\s+`)

// ParseBullets splits a model answer into at most MaxAdviceBullets lines
// with list markers removed.
func ParseBullets(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(bulletMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == MaxAdviceBullets {
			break
		}
	}
	return out
}

// Advisor asks a Client for gap advice.
type Advisor struct {
	Client Client
}

// Advise returns model-written bullets for gaps. Callers fall back to
// cohort.FallbackAdvice on any error.
func (a *Advisor) Advise(ctx context.Context, groupContext string, gaps cohort.GapSummary) ([]string, error) {
	if a == nil || a.Client == nil {
		return nil, ErrNotConfigured
	}
	messages, err := BuildAdviceMessages(groupContext, gaps)
	if err != nil {
		return nil, err
	}
	text, err := a.Client.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	bullets := ParseBullets(text)
	if len(bullets) == 0 {
		return nil, ErrNoAdvice
	}
	return bullets, nil
}
