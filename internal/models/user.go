package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex" json:"username"`
	Email     string `gorm:"uniqueIndex" json:"email"`
	Password  string `json:"-"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Profile *UserProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// CheckPassword compares a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// UserProfile mirrors subscription and verification state for a user. The
// payment fields are a reflection of the provider's records, updated by
// webhook or manual sync.
type UserProfile struct {
	ID                uint   `gorm:"primaryKey" json:"-"`
	UserID            uint   `gorm:"uniqueIndex" json:"-"`
	SubscriptionTier  string `json:"subscription_tier"`
	IsPaid            bool   `json:"is_paid"`
	StripeCustomerID  string `json:"-"`
	EmailVerified     bool   `json:"email_verified"`
	VerificationToken string `gorm:"index" json:"-"`
	TrialStartDate    *time.Time `json:"trial_start_date,omitempty"`
	TargetExamDate    *time.Time `json:"target_exam_date,omitempty"`
	CreatedAt         time.Time  `json:"-"`
	UpdatedAt         time.Time  `json:"-"`
}
