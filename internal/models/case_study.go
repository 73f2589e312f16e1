package models

import (
	"time"

	"gorm.io/datatypes"
)

// Domain tags from the NBCOT 2026 blueprint. Every question carries exactly
// one of these.
const (
	DomainOTExpertise = "OT_EXP"
	DomainEquity      = "CEJ_JUSTICE"
	DomainCommCollab  = "COMM_COLLAB"
	DomainProfResp    = "PROF_RESP"
	DomainExcellence  = "EXCELLENCE"
	DomainEngagement  = "ENGAGEMENT"
)

// DomainTags lists the valid domain classifications.
var DomainTags = []string{
	DomainOTExpertise,
	DomainEquity,
	DomainCommCollab,
	DomainProfResp,
	DomainExcellence,
	DomainEngagement,
}

// IsValidDomain reports whether tag is one of the six fixed domains.
func IsValidDomain(tag string) bool {
	for _, d := range DomainTags {
		if d == tag {
			return true
		}
	}
	return false
}

// CaseStudy is a vignette-based case owning an ordered set of questions.
// IDs use the manual 'case-xxxxxxxx' format so seeded and generated cases
// share a namespace. Immutable after creation except tags.
type CaseStudy struct {
	ID        string         `gorm:"primaryKey;size:50" json:"id"`
	Title     string         `gorm:"size:255" json:"title"`
	Vignette  string         `gorm:"type:text" json:"vignette"`
	Setting   string         `gorm:"size:100" json:"setting"`
	Tags      datatypes.JSON `json:"tags"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`

	Questions []Question `gorm:"foreignKey:CaseStudyID" json:"questions"`
}

type Question struct {
	ID               string `gorm:"primaryKey;size:50" json:"id"`
	CaseStudyID      string `gorm:"size:50;index" json:"-"`
	Stem             string `gorm:"type:text" json:"stem"`
	Domain           string `gorm:"size:20" json:"domain"`
	CorrectLabel     string `gorm:"size:1" json:"correct_label"`
	CorrectRationale string `gorm:"type:text" json:"correct_rationale"`

	Distractors []Distractor `gorm:"foreignKey:QuestionID" json:"distractors"`
}

// Distractor is one labeled option for a question. The row matching the
// question's correct label carries no incorrect rationale.
type Distractor struct {
	ID                 uint   `gorm:"primaryKey" json:"-"`
	QuestionID         string `gorm:"size:50;uniqueIndex:idx_question_label" json:"-"`
	Label              string `gorm:"size:1;uniqueIndex:idx_question_label" json:"label"`
	Text               string `gorm:"size:500" json:"text"`
	IncorrectRationale string `gorm:"type:text" json:"incorrect_rationale,omitempty"`
}
