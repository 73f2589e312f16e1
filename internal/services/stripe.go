package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/config"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/repository"

	"github.com/stripe/stripe-go/v81"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// PaymentService mirrors the payment provider's state onto user profiles.
// Checkout sessions flow out; webhook events and manual syncs flow back in.
type PaymentService struct {
	cfg   config.StripeConfig
	email *EmailService
	log   *zap.Logger
}

func NewPaymentService(cfg config.StripeConfig, email *EmailService, log *zap.Logger) *PaymentService {
	stripe.Key = cfg.SecretKey
	return &PaymentService{cfg: cfg, email: email, log: log}
}

// CheckoutResult carries what the frontend needs to redirect to checkout.
type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CreateCheckout opens a provider checkout session for the given tier,
// creating the provider-side customer on first use. The 'beta' tier is a
// subscription; the others are one-time payments.
func (s *PaymentService) CreateCheckout(ctx context.Context, user *models.User, tier, successURL, cancelURL string) (*CheckoutResult, error) {
	priceID, ok := s.cfg.PriceIDs[tier]
	if !ok {
		return nil, fmt.Errorf("invalid tier: %s", tier)
	}

	mode := string(stripe.CheckoutSessionModePayment)
	if tier == "beta" {
		mode = string(stripe.CheckoutSessionModeSubscription)
	}

	profile, err := repository.GetProfileByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if profile.StripeCustomerID == "" {
		custParams := &stripe.CustomerParams{
			Email: stripe.String(user.Email),
			Name:  stripe.String(user.Username),
		}
		custParams.AddMetadata("user_id", strconv.FormatUint(uint64(user.ID), 10))
		cust, err := customer.New(custParams)
		if err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
		profile.StripeCustomerID = cust.ID
		if err := repository.SaveProfile(ctx, profile); err != nil {
			return nil, err
		}
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(profile.StripeCustomerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(1),
		}},
		Mode:       stripe.String(mode),
		SuccessURL: stripe.String(successURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(cancelURL),
	}
	params.AddMetadata("user_id", strconv.FormatUint(uint64(user.ID), 10))
	params.AddMetadata("tier", tier)

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleWebhook verifies the event signature and fulfills completed
// checkouts. A signature failure rejects the whole delivery; no event
// processing happens.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.cfg.WebhookSecret)
	if err != nil {
		return fmt.Errorf("webhook verification: %w", err)
	}

	if event.Type == "checkout.session.completed" {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		s.fulfillOrder(ctx, &sess)
	}
	return nil
}

// fulfillOrder flips the mirrored paid state from the checkout session's
// metadata and sends the confirmation email best-effort.
func (s *PaymentService) fulfillOrder(ctx context.Context, sess *stripe.CheckoutSession) {
	userIDStr := sess.Metadata["user_id"]
	tier := sess.Metadata["tier"]
	if userIDStr == "" || tier == "" {
		s.log.Warn("Checkout session missing fulfillment metadata", zap.String("session", sess.ID))
		return
	}
	userID, err := strconv.ParseUint(userIDStr, 10, 64)
	if err != nil {
		s.log.Warn("Checkout session has malformed user_id metadata",
			zap.String("user_id", userIDStr), zap.String("session", sess.ID))
		return
	}

	user, err := repository.GetUserByID(ctx, uint(userID))
	if err != nil {
		s.log.Error("Fulfillment for unknown user", zap.Uint64("userID", userID), zap.Error(err))
		return
	}
	profile, err := repository.GetProfileByUserID(ctx, user.ID)
	if err != nil {
		s.log.Error("Fulfillment without profile", zap.Uint("userID", user.ID), zap.Error(err))
		return
	}

	profile.SubscriptionTier = tier
	profile.IsPaid = true
	if err := repository.SaveProfile(ctx, profile); err != nil {
		s.log.Error("Failed to persist fulfillment", zap.Uint("userID", user.ID), zap.Error(err))
		return
	}
	s.log.Info("Fulfilled checkout", zap.Uint("userID", user.ID), zap.String("tier", tier))

	if err := s.email.SendPaymentConfirmation(user, strings.ToUpper(tier)); err != nil {
		s.log.Error("Failed to send confirmation email", zap.Uint("userID", user.ID), zap.Error(err))
	}
}

// SyncPayment re-queries the provider for recent successful checkout
// sessions, covering missed webhooks. Idempotent: an already-paid profile is
// left alone so no duplicate notification fires. Returns whether anything
// was updated.
func (s *PaymentService) SyncPayment(ctx context.Context, user *models.User) (bool, error) {
	profile, err := repository.GetProfileByUserID(ctx, user.ID)
	if err != nil {
		return false, err
	}
	if profile.StripeCustomerID == "" {
		return false, nil
	}

	params := &stripe.CheckoutSessionListParams{
		Customer: stripe.String(profile.StripeCustomerID),
	}
	params.Limit = stripe.Int64(5)

	iter := checkoutsession.List(params)
	for iter.Next() {
		sess := iter.CheckoutSession()
		if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
			if !profile.IsPaid {
				s.fulfillOrder(ctx, sess)
				return true, nil
			}
		}
	}
	if err := iter.Err(); err != nil {
		s.log.Error("Error listing checkout sessions", zap.Uint("userID", user.ID), zap.Error(err))
		return false, err
	}
	return false, nil
}
