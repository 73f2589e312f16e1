package ai

import (
	"fmt"
	"strings"
)

var difficultyGuidance = map[string]string{
	"Easy":   "foundational recall-based question testing basic knowledge and definitions",
	"Medium": "application-focused question requiring moderate clinical reasoning",
	"Hard":   "advanced multi-step reasoning question with complex clinical scenarios",
}

var domainNames = map[string]string{
	"OT_EXP":      "Occupational Therapy Expertise (clinical evaluation, intervention, outcomes)",
	"CEJ_JUSTICE": "Culture, Equity, and Justice (cultural safety, anti-racism, equity)",
	"COMM_COLLAB": "Communication and Collaboration (interprofessional, client-centered)",
	"PROF_RESP":   "Professional Responsibility (ethics, documentation, supervision)",
	"EXCELLENCE":  "Excellence in Practice (evidence-based, quality improvement)",
	"ENGAGEMENT":  "Engagement in the Profession (advocacy, leadership, lifelong learning)",
}

// practiceQuestionPrompt builds the prompt for a single standalone question.
// Unknown domains and difficulties are passed through leniently: the domain
// falls back to its raw name and the difficulty to the Medium guidance.
func practiceQuestionPrompt(domain, difficulty string, questionNumber, totalQuestions int, topicsCovered []string) string {
	domainFull, ok := domainNames[domain]
	if !ok {
		domainFull = domain
	}
	diffGuidance, ok := difficultyGuidance[difficulty]
	if !ok {
		diffGuidance = difficultyGuidance["Medium"]
	}

	avoidTopics := ""
	if len(topicsCovered) > 0 {
		avoidTopics = fmt.Sprintf("Avoid these specific topics already covered: [%s]", strings.Join(topicsCovered, ", "))
	}

	return fmt.Sprintf(`
Generate a single Occupational Therapy practice question for NBCOT exam preparation.

DOMAIN: %s
DIFFICULTY: %s - %s

This is question %d of %d in a quick practice session.
%s

REQUIREMENTS:
- Create a standalone question (no extended vignette needed, but include brief clinical context if helpful)
- Provide 4 answer options (A, B, C, D)
- Include educational rationales for both correct and incorrect answers
- Identify a topic tag for this question (e.g., "sensory processing", "ethics documentation")

Output strictly valid JSON:
{
    "stem": "The question text with brief clinical context if needed...",
    "options": [
        {"label": "A", "text": "First option"},
        {"label": "B", "text": "Second option"},
        {"label": "C", "text": "Third option"},
        {"label": "D", "text": "Fourth option"}
    ],
    "correct_label": "A",
    "correct_rationale": "Detailed explanation of why this is correct...",
    "incorrect_rationales": {
        "B": "Why B is incorrect...",
        "C": "Why C is incorrect...",
        "D": "Why D is incorrect..."
    },
    "topic": "brief topic tag"
}

Do not wrap in markdown code blocks. Just raw JSON.
`, domainFull, difficulty, diffGuidance, questionNumber, totalQuestions, avoidTopics)
}

func caseStudyPrompt(domain, difficulty string) string {
	return fmt.Sprintf(`
Generate a comprehensive Occupational Therapy case study for an exam prep application.
The case should focus on domain: "%s" with difficulty: "%s".

CRITICAL REQUIREMENT: Per the 2026 NBCOT Blueprint, at least ONE question MUST have domain "CEJ_JUSTICE" (Culture, Equity, and Justice). This is mandatory.

Output strictly valid JSON with the following structure:
{
    "title": "Case Title",
    "vignette": "A detailed clinical scenario...",
    "setting": "Specific clinical setting (e.g., Acute Care, School-based)",
    "questions": [
        {
            "stem": "Question text...",
            "domain": "OT_EXP",
            "correct_label": "A",
            "correct_rationale": "Detailed explanation...",
            "distractors": [
                { "label": "A", "text": "Option text...", "incorrect_rationale": "Why this is wrong..." },
                { "label": "B", "text": "Option text...", "incorrect_rationale": "Why this is wrong..." },
                { "label": "C", "text": "Option text...", "incorrect_rationale": "Why this is wrong..." },
                { "label": "D", "text": "Option text...", "incorrect_rationale": "Why this is wrong..." }
            ]
        }
    ]
}
The "domain" of each question must be one of: OT_EXP, CEJ_JUSTICE, COMM_COLLAB, PROF_RESP, EXCELLENCE, ENGAGEMENT.
Generate 6 connected questions for this case. At least one question MUST have domain="CEJ_JUSTICE".
Ensure rationales are educational.
Do not wrap in markdown code blocks. Just raw JSON.
`, domain, difficulty)
}

func evolvingTipPrompt(p TipParams) string {
	performance := "Had some struggle."
	if p.AllPreviousCorrect {
		performance = "All correct so far."
	}
	previous := "Correct"
	if !p.PreviousAnswerCorrect {
		previous = fmt.Sprintf("Incorrect (Selected %s)", p.PreviousSelectedLabel)
	}

	return fmt.Sprintf(`
You are an OT exam tutor. The student is answering a series of linked case-study questions.
Current Question Stem: "%s"
Correct Rationale: "%s"

The user's previous performance in this case: %s
Previous answer was: %s

Generate a 2-sentence "Evolutionary Tip" that acknowledges their path and reinforces the logic for this CURRENT question.
If they were wrong previously, guide them back to the "competent" path.
`, p.QuestionStem, p.CorrectRationale, performance, previous)
}

func pivotPrompt(stem, correctLabel, correctRationale string) string {
	return fmt.Sprintf(`
You are an expert Clinical OT Exam Tutor.

ORIGINAL QUESTION CONTEXT:
"%s"

ORIGINAL CORRECT ANSWER: Option %s
RATIONALE: %s

TASK:
Create a "Clinical Pivot" (What If?) scenario.
1. Identify a key clinical variable in the original context (e.g., patient's social support, acuity level, setting, age).
2. Change ONLY that variable to create a hypothetical alternative scenario.
3. Explain how this change shifts the proper clinical priority or answer.

OUTPUT JSON ONLY:
{
    "pivot_variable": "The variable you changed (e.g., 'From Inpatient to Home Health')",
    "new_scenario_snippet": "A 1-2 sentence description of the modified context...",
    "change_explanation": "Explain clearly how the correct clinical action would change and WHY. Focus on the reasoning shift."
}
`, stem, correctLabel, correctRationale)
}

func evidencePrompt(vignette, questionStem, correctAnswer, correctRationale string, userHighlightTexts []string) string {
	highlighted := "No highlights made."
	if len(userHighlightTexts) > 0 {
		highlighted = fmt.Sprintf("[%s]", strings.Join(userHighlightTexts, ", "))
	}

	return fmt.Sprintf(`
You are an expert Occupational Therapy clinical reasoning analyzer.

CLINICAL VIGNETTE:
"%s"

QUESTION: "%s"
CORRECT ANSWER: "%s"
RATIONALE: "%s"

USER'S HIGHLIGHTED TEXT (what the student thought was important):
%s

TASK: Identify the KEY CLINICAL INDICATORS in the vignette that a competent clinician would need
to recognize to answer this question correctly. For each indicator:
1. Extract the EXACT text from the vignette (must match exactly)
2. Classify importance as "critical" (essential for correct answer) or "supporting" (helpful context)

Then compare with what the user highlighted and provide a "Perceptual Training" tip.

Output strictly valid JSON:
{
    "expert_indicators": [
        {"text": "exact phrase from vignette", "importance": "critical"},
        {"text": "another phrase", "importance": "supporting"}
    ],
    "perceptual_tip": "Educational feedback about what they missed or did well. Be specific about which indicators were key. Max 2 sentences."
}
`, vignette, questionStem, correctAnswer, correctRationale, highlighted)
}
