// Command seed loads the built-in demonstration case so a fresh database
// has content before any AI generation happens. Safe to run repeatedly.
package main

import (
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/config"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/database"
	logger "github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/logging"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

func main() {
	log, err := logger.Init(".")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	database.Init(log)

	cs := seedCase()
	if err := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(cs).Error; err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	log.Info("Seeding complete", zap.String("case", cs.ID))
}

func seedCase() *models.CaseStudy {
	vignette := `Mr. Thompson is a 42-year-old male who sustained a moderate traumatic brain injury (TBI) six months ago following a motor vehicle accident. He was recently discharged from an inpatient rehabilitation unit and has returned to his two-story home, which he shares with his spouse and two teenage children. Prior to his injury, he worked as a senior software engineer.

Currently, Mr. Thompson presents with executive functioning deficits, specifically in multi-tasking and cognitive flexibility. He also experiences mild left-sided neglect and fatigue after 30 minutes of sustained attention. His spouse reports that he is "not himself," often becoming irritable during family dinners or when trying to manage household finances. Mr. Thompson expresses a strong desire to return to work, but he is struggling with basic instrumental activities of daily living (IADLs) like meal preparation and route finding in his local neighborhood.

During an initial home visit, the OT observes Mr. Thompson attempting to boil water for tea while simultaneously trying to answer a text message. He forgets the stove is on until the kettle whistles persistently, causing him visible distress.`

	return &models.CaseStudy{
		ID:       "case-001",
		Title:    "Community Integration Post-TBI",
		Setting:  "Community Rehabilitation",
		Vignette: vignette,
		Questions: []models.Question{
			{
				ID:               "q-1",
				CaseStudyID:      "case-001",
				Stem:             "Based on the initial observation of Mr. Thompson in his home, which assessment should the OT prioritize to evaluate his safety during IADLs?",
				Domain:           models.DomainOTExpertise,
				CorrectLabel:     "C",
				CorrectRationale: "The Kettle Test is a top-down, functional assessment of complex IADLs that specifically evaluates executive function and safety in a familiar task, mirroring the exact breakdown observed.",
				Distractors: []models.Distractor{
					{QuestionID: "q-1", Label: "A", Text: "Montreal Cognitive Assessment (MoCA)", IncorrectRationale: "The MoCA is a screening tool, not a functional assessment of IADL safety."},
					{QuestionID: "q-1", Label: "B", Text: "Assessment of Motor and Process Skills (AMPS)", IncorrectRationale: "While AMPS is excellent, it requires specific certification and may be more time-consuming than necessary for an initial safety screen."},
					{QuestionID: "q-1", Label: "C", Text: "Kettle Test"},
					{QuestionID: "q-1", Label: "D", Text: "Catherine Bergego Scale (CBS)", IncorrectRationale: "The CBS focuses on unilateral neglect; while relevant, cognitive safety in tasks is the more immediate functional priority."},
				},
			},
			{
				ID:               "q-2",
				CaseStudyID:      "case-001",
				Stem:             `Mr. Thompson identifies as an Indigenous person and expresses concern that the "Standardized Canadian Work Assessments" do not reflect his community values or his role within his family. How should the OT proceed?`,
				Domain:           models.DomainEquity,
				CorrectLabel:     "B",
				CorrectRationale: "In alignment with the 2026 Blueprint on Cultural Safety, OTs must move beyond just noting bias; they must actively collaborate to modify or select assessments that respect Indigenous worldviews.",
				Distractors: []models.Distractor{
					{QuestionID: "q-2", Label: "A", Text: "Explain that the assessments are validated for all Canadians and necessary for insurance.", IncorrectRationale: "This dismisses the client's valid concerns and reinforces systemic bias."},
					{QuestionID: "q-2", Label: "B", Text: "Collaborate with Mr. Thompson to integrate his cultural values and traditional occupations into the assessment process."},
					{QuestionID: "q-2", Label: "C", Text: "Refer him to an Indigenous health liaison and postpone the work assessment.", IncorrectRationale: `While a liaison is helpful, the OT must still exercise clinical leadership and not "pass off" the responsibility for cultural safety.`},
					{QuestionID: "q-2", Label: "D", Text: "Use the assessments as written but add a footnote about his cultural background.", IncorrectRationale: "A footnote is a passive approach that does not fix the inherent mismatch in the assessment process."},
				},
			},
			{
				ID:               "q-3",
				CaseStudyID:      "case-001",
				Stem:             `Mr. Thompson’s employer is hesitant to provide accommodations, citing the "high-stakes" nature of software engineering. What is the most effective advocacy role for the OT in this scenario?`,
				Domain:           models.DomainCommCollab,
				CorrectLabel:     "C",
				CorrectRationale: "Collaboration involves bridging the gap between clinical needs and employer requirements. A job-site analysis provides evidence-based data for reasonable accommodations.",
				Distractors: []models.Distractor{
					{QuestionID: "q-3", Label: "A", Text: "Advise Mr. Thompson to seek legal counsel for a human rights complaint.", IncorrectRationale: "This is premature and might damage the relationship with the employer."},
					{QuestionID: "q-3", Label: "B", Text: "Provide the employer with a generic brochure on TBI recovery in the workplace.", IncorrectRationale: "Generic information is rarely effective for specific complex cognitive cases."},
					{QuestionID: "q-3", Label: "C", Text: "Request a meeting with HR to present a job-site analysis and propose specific, incremental cognitive accommodations."},
					{QuestionID: "q-3", Label: "D", Text: "Recommend that Mr. Thompson consider a career change to a less demanding field.", IncorrectRationale: "This is non-collaborative and gives up on the client's stated goal of returning to his chosen profession."},
				},
			},
		},
	}
}
