package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVignette = "Mr. Lee reports left-sided neglect and fatigue after 30 minutes of sustained attention. He forgets the stove is on while multitasking."

func TestLocateIndicatorsFindsFirstOccurrence(t *testing.T) {
	located := locateIndicators(testVignette, []expertIndicator{
		{Text: "left-sided neglect", Importance: "critical"},
		{Text: "forgets the stove is on"},
	})

	require.Len(t, located, 2)
	assert.Equal(t, 16, located[0].Start)
	assert.Equal(t, 16+len("left-sided neglect"), located[0].End)
	assert.Equal(t, "critical", located[0].Importance)
	assert.Equal(t, "supporting", located[1].Importance, "missing importance defaults")
}

func TestLocateIndicatorsDropsUnfindablePhrases(t *testing.T) {
	located := locateIndicators(testVignette, []expertIndicator{
		{Text: "left-sided neglect"},
		{Text: "phrase that is not in the vignette"},
		{Text: ""},
	})
	require.Len(t, located, 1)
	assert.Equal(t, "left-sided neglect", located[0].Text)
}

func TestHighlightMatchesByOverlap(t *testing.T) {
	expert := ExpertHighlight{Start: 20, End: 38, Text: "left-sided neglect"}

	assert.True(t, highlightMatches(expert, []HighlightSpan{{Start: 30, End: 50, Text: "unrelated"}}),
		"partial interval overlap counts")
	assert.True(t, highlightMatches(expert, []HighlightSpan{{Start: 10, End: 60, Text: "unrelated"}}),
		"full containment counts")
	assert.False(t, highlightMatches(expert, []HighlightSpan{{Start: 38, End: 60, Text: "unrelated"}}),
		"intervals touching at the boundary do not overlap")
}

func TestHighlightMatchesByTextContainment(t *testing.T) {
	expert := ExpertHighlight{Start: 20, End: 38, Text: "left-sided neglect"}

	// Offsets miss entirely but the highlighted text contains the
	// indicator, case-insensitively.
	user := []HighlightSpan{{Start: 500, End: 540, Text: "He has LEFT-SIDED NEGLECT here"}}
	assert.True(t, highlightMatches(expert, user))
}

func TestScoreEvidenceTruncates(t *testing.T) {
	indicators := []expertIndicator{
		{Text: "left-sided neglect"},
		{Text: "fatigue"},
		{Text: "forgets the stove is on"},
	}
	// Only the first indicator is highlighted: 1/3 = 33 after truncation.
	result := scoreEvidence(testVignette, indicators, []HighlightSpan{{Start: 20, End: 38, Text: "left-sided neglect"}}, "tip")

	assert.Equal(t, 33, result.Score)
	assert.Equal(t, 1, result.MatchedCount)
	assert.Len(t, result.MissedIndicators, 2)
	assert.Equal(t, "tip", result.PerceptualTip)
}

func TestScoreEvidenceThreeOfFour(t *testing.T) {
	indicators := []expertIndicator{
		{Text: "left-sided neglect"},
		{Text: "fatigue"},
		{Text: "forgets the stove is on"},
		{Text: "multitasking"},
	}
	// Highlight stops right where "multitasking" begins, so only the
	// first three indicators overlap: 3/4 = 75.
	cutoff := strings.Index(testVignette, "multitasking")
	user := []HighlightSpan{{Start: 0, End: cutoff, Text: "everything up to the final clause"}}

	result := scoreEvidence(testVignette, indicators, user, "tip")
	assert.Equal(t, 75, result.Score)
	assert.Equal(t, 3, result.MatchedCount)
	require.Len(t, result.MissedIndicators, 1)
	assert.Equal(t, "multitasking", result.MissedIndicators[0].Text)
}

func TestScoreEvidenceZeroIndicators(t *testing.T) {
	result := scoreEvidence(testVignette, nil, []HighlightSpan{{Start: 0, End: 10, Text: "Mr. Lee"}}, "tip")

	assert.Zero(t, result.Score)
	assert.Empty(t, result.ExpertHighlights)
	assert.Empty(t, result.MissedIndicators)
}

func TestScoreEvidencePerfect(t *testing.T) {
	indicators := []expertIndicator{{Text: "fatigue"}, {Text: "multitasking"}}
	user := []HighlightSpan{{Start: 0, End: len(testVignette), Text: testVignette}}

	result := scoreEvidence(testVignette, indicators, user, "tip")
	assert.Equal(t, 100, result.Score)
	assert.Empty(t, result.MissedIndicators)
}
