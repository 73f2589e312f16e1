package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuestion() *GeneratedQuestion {
	return &GeneratedQuestion{
		Stem: "Which approach is most client-centred?",
		Options: []Option{
			{Label: "A", Text: "a"},
			{Label: "B", Text: "b"},
			{Label: "C", Text: "c"},
			{Label: "D", Text: "d"},
		},
		CorrectLabel: "C",
	}
}

func TestGeneratedQuestionValidate(t *testing.T) {
	require.NoError(t, validQuestion().Validate())

	q := validQuestion()
	q.Stem = ""
	assert.ErrorIs(t, q.Validate(), ErrMalformedOutput)

	q = validQuestion()
	q.Options = q.Options[:3]
	assert.ErrorIs(t, q.Validate(), ErrMalformedOutput)

	q = validQuestion()
	q.CorrectLabel = "E"
	assert.ErrorIs(t, q.Validate(), ErrMalformedOutput)

	q = validQuestion()
	q.CorrectLabel = ""
	assert.ErrorIs(t, q.Validate(), ErrMalformedOutput)
}

func TestMalformedOutputIsUnavailable(t *testing.T) {
	// Schema failures must trip the same switch callers use for outages.
	q := validQuestion()
	q.Stem = ""
	assert.ErrorIs(t, q.Validate(), ErrUnavailable)
}

func TestGeneratedCaseValidate(t *testing.T) {
	distractors := []GeneratedDistractor{
		{Label: "A", Text: "a"}, {Label: "B", Text: "b"},
		{Label: "C", Text: "c"}, {Label: "D", Text: "d"},
	}
	valid := &GeneratedCase{
		Title:    "t",
		Vignette: "v",
		Questions: []GeneratedCaseQuestion{
			{Stem: "s", Domain: "OT_EXP", CorrectLabel: "A", Distractors: distractors},
		},
	}
	require.NoError(t, valid.Validate())

	noQuestions := &GeneratedCase{Title: "t", Vignette: "v"}
	assert.ErrorIs(t, noQuestions.Validate(), ErrMalformedOutput)

	shortOptions := &GeneratedCase{
		Title:    "t",
		Vignette: "v",
		Questions: []GeneratedCaseQuestion{
			{Stem: "s", CorrectLabel: "A", Distractors: distractors[:2]},
		},
	}
	assert.ErrorIs(t, shortOptions.Validate(), ErrMalformedOutput)
}

func TestHasEquityQuestion(t *testing.T) {
	c := &GeneratedCase{Questions: []GeneratedCaseQuestion{{Domain: "OT_EXP"}, {Domain: "CEJ_JUSTICE"}}}
	assert.True(t, c.HasEquityQuestion())

	c = &GeneratedCase{Questions: []GeneratedCaseQuestion{{Domain: "OT_EXP"}}}
	assert.False(t, c.HasEquityQuestion())
}

func TestCleanJSONText(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSONText("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSONText("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSONText("  {\"a\":1}  "))
	assert.Equal(t, `{"a":1}`, cleanJSONText("Here you go:\n```json\n{\"a\":1}\n```\nLet me know!"))
	assert.Equal(t, "", cleanJSONText(""))
}
