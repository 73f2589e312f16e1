package ai

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// HighlightSpan is a text selection within a vignette, by rune-agnostic byte
// offsets as supplied by the client.
type HighlightSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// ExpertHighlight is a clinical indicator located within the vignette.
type ExpertHighlight struct {
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Text       string `json:"text"`
	Importance string `json:"importance"`
}

// EvidenceAnalysis compares a learner's highlights against expert clinical
// indicators. This endpoint degrades instead of failing: any error path
// yields a zero-score analysis with a generic tip.
type EvidenceAnalysis struct {
	ExpertHighlights []ExpertHighlight `json:"expert_highlights"`
	MatchedCount     int               `json:"matched_count"`
	MissedIndicators []ExpertHighlight `json:"missed_indicators"`
	PerceptualTip    string            `json:"perceptual_tip"`
	Score            int               `json:"score"`
}

type expertIndicator struct {
	Text       string `json:"text"`
	Importance string `json:"importance"`
}

type evidenceResult struct {
	ExpertIndicators []expertIndicator `json:"expert_indicators"`
	PerceptualTip    string            `json:"perceptual_tip"`
}

func emptyAnalysis(tip string) *EvidenceAnalysis {
	return &EvidenceAnalysis{
		ExpertHighlights: []ExpertHighlight{},
		MissedIndicators: []ExpertHighlight{},
		PerceptualTip:    tip,
		Score:            0,
	}
}

// AnalyzeEvidence asks the provider to name the vignette's key clinical
// indicators, locates them, and scores the learner's highlights against
// them.
func (c *Client) AnalyzeEvidence(ctx context.Context, vignette, questionStem, correctAnswer, correctRationale string, userHighlights []HighlightSpan) *EvidenceAnalysis {
	texts := make([]string, 0, len(userHighlights))
	for _, h := range userHighlights {
		texts = append(texts, h.Text)
	}

	raw, err := c.complete(ctx, evidencePrompt(vignette, questionStem, correctAnswer, correctRationale, texts))
	if err != nil {
		return emptyAnalysis("AI analysis unavailable.")
	}

	var result evidenceResult
	if err := json.Unmarshal([]byte(cleanJSONText(raw)), &result); err != nil {
		c.log.Error("Evidence analysis parse failure", zap.Error(err))
		return emptyAnalysis("Analysis failed. Please try again.")
	}

	tip := result.PerceptualTip
	if tip == "" {
		tip = "Review the highlighted clinical indicators."
	}
	return scoreEvidence(vignette, result.ExpertIndicators, userHighlights, tip)
}

// scoreEvidence locates each expert indicator in the vignette and diffs the
// set against the user's highlights. Pure function; the AI call above is the
// only impure part of the analysis.
func scoreEvidence(vignette string, indicators []expertIndicator, userHighlights []HighlightSpan, tip string) *EvidenceAnalysis {
	expert := locateIndicators(vignette, indicators)

	matched := 0
	missed := []ExpertHighlight{}
	for _, eh := range expert {
		if highlightMatches(eh, userHighlights) {
			matched++
		} else {
			missed = append(missed, eh)
		}
	}

	// Truncating division; zero indicators scores zero rather than dividing.
	score := 0
	if len(expert) > 0 {
		score = matched * 100 / len(expert)
	}

	return &EvidenceAnalysis{
		ExpertHighlights: expert,
		MatchedCount:     matched,
		MissedIndicators: missed,
		PerceptualTip:    tip,
		Score:            score,
	}
}

// locateIndicators resolves each indicator phrase to its first verbatim
// occurrence in the vignette. Phrases not found verbatim are silently
// dropped from scoring.
func locateIndicators(vignette string, indicators []expertIndicator) []ExpertHighlight {
	located := []ExpertHighlight{}
	for _, ind := range indicators {
		if ind.Text == "" {
			continue
		}
		importance := ind.Importance
		if importance == "" {
			importance = "supporting"
		}
		start := strings.Index(vignette, ind.Text)
		if start == -1 {
			continue
		}
		located = append(located, ExpertHighlight{
			Start:      start,
			End:        start + len(ind.Text),
			Text:       ind.Text,
			Importance: importance,
		})
	}
	return located
}

// highlightMatches applies the match rule: interval overlap OR
// case-insensitive substring containment.
func highlightMatches(eh ExpertHighlight, userHighlights []HighlightSpan) bool {
	for _, uh := range userHighlights {
		if (uh.Start <= eh.Start && eh.Start < uh.End) || (uh.Start < eh.End && eh.End <= uh.End) {
			return true
		}
		if strings.Contains(strings.ToLower(uh.Text), strings.ToLower(eh.Text)) {
			return true
		}
	}
	return false
}
