package ai

import (
	"errors"
	"fmt"
)

// ErrUnavailable is the uniform signal for a failed generation: the provider
// is unreachable, no credential is configured, the call timed out, or the
// output could not be parsed. Callers treat all of these the same way.
var ErrUnavailable = errors.New("generation unavailable")

// ErrMalformedOutput marks provider output that decoded but failed schema
// validation. It wraps ErrUnavailable so callers checking the uniform signal
// still match.
var ErrMalformedOutput = fmt.Errorf("%w: malformed output", ErrUnavailable)

// Option is one labeled answer choice of a standalone question.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// GeneratedQuestion is the parsed shape of a standalone practice question.
type GeneratedQuestion struct {
	Stem                string            `json:"stem"`
	Options             []Option          `json:"options"`
	CorrectLabel        string            `json:"correct_label"`
	CorrectRationale    string            `json:"correct_rationale"`
	IncorrectRationales map[string]string `json:"incorrect_rationales"`
	Topic               string            `json:"topic"`
}

// Validate rejects questions with missing fields rather than silently
// defaulting them.
func (q *GeneratedQuestion) Validate() error {
	if q.Stem == "" {
		return fmt.Errorf("%w: empty stem", ErrMalformedOutput)
	}
	if len(q.Options) != 4 {
		return fmt.Errorf("%w: expected 4 options, got %d", ErrMalformedOutput, len(q.Options))
	}
	if q.CorrectLabel == "" {
		return fmt.Errorf("%w: missing correct_label", ErrMalformedOutput)
	}
	found := false
	for _, opt := range q.Options {
		if opt.Label == q.CorrectLabel {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: correct_label %q not among options", ErrMalformedOutput, q.CorrectLabel)
	}
	return nil
}

// GeneratedDistractor is one labeled option within a generated case question.
type GeneratedDistractor struct {
	Label              string `json:"label"`
	Text               string `json:"text"`
	IncorrectRationale string `json:"incorrect_rationale"`
}

// GeneratedCaseQuestion belongs to a generated case study.
type GeneratedCaseQuestion struct {
	Stem             string                `json:"stem"`
	Domain           string                `json:"domain"`
	CorrectLabel     string                `json:"correct_label"`
	CorrectRationale string                `json:"correct_rationale"`
	Distractors      []GeneratedDistractor `json:"distractors"`
}

// GeneratedCase is the parsed shape of a full vignette-based case study.
type GeneratedCase struct {
	Title     string                  `json:"title"`
	Vignette  string                  `json:"vignette"`
	Setting   string                  `json:"setting"`
	Questions []GeneratedCaseQuestion `json:"questions"`
}

// Validate checks the structural contract of a generated case.
func (c *GeneratedCase) Validate() error {
	if c.Title == "" || c.Vignette == "" {
		return fmt.Errorf("%w: case missing title or vignette", ErrMalformedOutput)
	}
	if len(c.Questions) == 0 {
		return fmt.Errorf("%w: case has no questions", ErrMalformedOutput)
	}
	for i, q := range c.Questions {
		if q.Stem == "" || q.CorrectLabel == "" {
			return fmt.Errorf("%w: question %d missing stem or correct_label", ErrMalformedOutput, i+1)
		}
		if len(q.Distractors) != 4 {
			return fmt.Errorf("%w: question %d has %d distractors, want 4", ErrMalformedOutput, i+1, len(q.Distractors))
		}
	}
	return nil
}

// HasEquityQuestion reports whether at least one question carries the
// culture/equity/justice domain, a blueprint requirement the prompt demands
// but the provider does not always honor.
func (c *GeneratedCase) HasEquityQuestion() bool {
	for _, q := range c.Questions {
		if q.Domain == "CEJ_JUSTICE" {
			return true
		}
	}
	return false
}

// PivotScenario is a "what if" variant of a question: one changed clinical
// variable and the resulting reasoning shift.
type PivotScenario struct {
	PivotVariable      string `json:"pivot_variable"`
	NewScenarioSnippet string `json:"new_scenario_snippet"`
	ChangeExplanation  string `json:"change_explanation"`
}

// TipParams condition an evolutionary tip on the learner's path so far.
type TipParams struct {
	QuestionStem          string
	CorrectRationale      string
	PreviousAnswerCorrect bool
	PreviousSelectedLabel string
	AllPreviousCorrect    bool
}
