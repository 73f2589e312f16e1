package services

import (
	"fmt"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/config"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// EmailService sends transactional mail over SMTP.
type EmailService struct {
	cfg config.EmailConfig
	log *zap.Logger
}

func NewEmailService(cfg config.EmailConfig, log *zap.Logger) *EmailService {
	return &EmailService{cfg: cfg, log: log}
}

func (s *EmailService) send(to, subject, plain, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plain)
	if html != "" {
		m.AddAlternative("text/html", html)
	}

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		s.log.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return err
	}
	s.log.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// SendVerificationEmail delivers the account verification link issued at
// registration.
func (s *EmailService) SendVerificationEmail(user *models.User, verifyLink string) error {
	plain := fmt.Sprintf("Welcome %s! Please verify your account at: %s", user.Username, verifyLink)
	html := fmt.Sprintf(`
<body style="font-family: Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #134e4a 0%%, #0d9488 100%%); padding: 40px; border-radius: 24px; color: white; text-align: center; margin-bottom: 30px;">
    <h1 style="margin: 0; font-size: 28px; font-weight: 900;">NOTCE AI Tutor</h1>
    <p style="opacity: 0.9; margin-top: 10px;">Master your O.T. journey.</p>
  </div>
  <h2 style="font-size: 24px; font-weight: 800; color: #111;">Welcome to the future of Prep, %s!</h2>
  <p style="font-size: 16px; color: #444;">
    You're one step away from unlocking personalized AI tutoring designed specifically for the NOTCE.
    Click the button below to verify your email and get started with your 7-day free trial.
  </p>
  <div style="text-align: center; margin: 40px 0;">
    <a href="%s" style="background-color: #0d9488; color: white; padding: 12px 24px; text-decoration: none; border-radius: 12px; font-weight: bold;">Verify My Account</a>
  </div>
  <p style="font-size: 14px; color: #666;">
    If the button doesn't work, copy and paste this link into your browser:<br>
    <a href="%s" style="color: #0d9488;">%s</a>
  </p>
  <p style="font-size: 12px; color: #999; text-align: center;">
    If you did not sign up for NOTCE AI Tutor, please ignore this email.
  </p>
</body>`, user.Username, verifyLink, verifyLink, verifyLink)

	return s.send(user.Email, "Verify your NOTCE AI Tutor Account", plain, html)
}

// SendPaymentConfirmation confirms a completed checkout.
func (s *EmailService) SendPaymentConfirmation(user *models.User, tier string) error {
	plain := fmt.Sprintf(
		"Hi %s,\n\nYour payment was successful and your account has been upgraded to the %s tier.\n\nThank you for your business!",
		user.Username, tier)
	return s.send(user.Email, "Payment Successful - NOTCE AI Tutor", plain, "")
}

// SendDiagnostic verifies the SMTP configuration end to end.
func (s *EmailService) SendDiagnostic(to string) error {
	return s.send(to, "Diagnostic: NOTCE AI Tutor Email Test",
		"If you are reading this, your production SMTP settings are working correctly.", "")
}
