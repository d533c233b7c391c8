package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
)

const (
	stripeEventAccountUpdated         = "account.updated"
	stripeEventPaymentIntentSucceeded = "payment_intent.succeeded"
)

// StartStripeOnboarding creates the tester's Express account on first use and
// returns a fresh onboarding link.
func (s *Service) StartStripeOnboarding(ctx context.Context, actor Actor) (StripeOnboardingResult, error) {
	if err := requireRole(actor, domain.RoleTester); err != nil {
		return StripeOnboardingResult{}, err
	}
	if s.payments == nil {
		return StripeOnboardingResult{}, fmt.Errorf("%w: payments are not configured", domain.ErrDependencyUnavailable)
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return StripeOnboardingResult{}, err
	}
	if user.StripeAccountID == "" {
		country := user.Country
		if country == "" {
			country = s.cfg.StripeDefaultCountry
		}
		accountID, err := s.payments.CreateConnectedAccount(ctx, user.Email, country)
		if err != nil {
			return StripeOnboardingResult{}, fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
		}
		user.StripeAccountID = accountID
		user.UpdatedAt = s.nowFn()
		if err := s.users.Update(ctx, user); err != nil {
			return StripeOnboardingResult{}, err
		}
		s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryWallet, "stripe account created", uuidPtr(user.UserID), map[string]string{"account_id": accountID})
	}
	link, err := s.payments.CreateOnboardingLink(ctx, user.StripeAccountID, s.cfg.StripeRefreshURL, s.cfg.StripeReturnURL)
	if err != nil {
		return StripeOnboardingResult{}, fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
	}
	return StripeOnboardingResult{AccountID: user.StripeAccountID, OnboardingURL: link}, nil
}

func (s *Service) RefreshStripeStatus(ctx context.Context, actor Actor) (StripeStatus, error) {
	if err := requireRole(actor, domain.RoleTester); err != nil {
		return StripeStatus{}, err
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return StripeStatus{}, err
	}
	if user.StripeAccountID == "" {
		return StripeStatus{}, nil
	}
	if s.payments == nil {
		return StripeStatus{}, fmt.Errorf("%w: payments are not configured", domain.ErrDependencyUnavailable)
	}
	account, err := s.payments.GetConnectedAccount(ctx, user.StripeAccountID)
	if err != nil {
		return StripeStatus{}, fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
	}
	user, err = s.syncConnectedAccount(ctx, user, account)
	if err != nil {
		return StripeStatus{}, err
	}
	return stripeStatus(user), nil
}

func stripeStatus(u domain.User) StripeStatus {
	return StripeStatus{
		AccountID:           u.StripeAccountID,
		OnboardingCompleted: u.StripeOnboardingCompleted,
		PayoutsEnabled:      u.StripePayoutsEnabled,
	}
}

func (s *Service) syncConnectedAccount(ctx context.Context, user domain.User, account ports.ConnectedAccount) (domain.User, error) {
	if user.StripeOnboardingCompleted == account.DetailsSubmitted && user.StripePayoutsEnabled == account.PayoutsEnabled {
		return user, nil
	}
	user.StripeOnboardingCompleted = account.DetailsSubmitted
	user.StripePayoutsEnabled = account.PayoutsEnabled
	user.UpdatedAt = s.nowFn()
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// HandleStripeWebhook verifies and applies a Stripe event. Unknown event types
// are acknowledged and ignored.
func (s *Service) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.payments == nil {
		return fmt.Errorf("%w: payments are not configured", domain.ErrDependencyUnavailable)
	}
	event, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if s.eventDedup != nil && event.EventID != "" {
		dup, err := s.eventDedup.IsDuplicate(ctx, "stripe:"+event.EventID, s.nowFn())
		if err != nil {
			return err
		}
		if dup {
			return nil
		}
	}
	switch event.Type {
	case stripeEventAccountUpdated:
		if event.Account != nil {
			if err := s.applyAccountUpdate(ctx, *event.Account); err != nil {
				return err
			}
		}
	case stripeEventPaymentIntentSucceeded:
		if event.Intent != nil {
			if err := s.applyPaymentSucceeded(ctx, *event.Intent, event.Metadata); err != nil {
				return err
			}
		}
	default:
		slog.Default().InfoContext(ctx, "stripe event ignored",
			"module", "application",
			"layer", "service",
			"operation", "handle_stripe_webhook",
			"outcome", "ignored",
			"event_type", event.Type,
		)
	}
	if s.eventDedup != nil && event.EventID != "" {
		return s.eventDedup.MarkProcessed(ctx, "stripe:"+event.EventID, event.Type, s.nowFn().Add(s.cfg.EventDedupTTL))
	}
	return nil
}

func (s *Service) applyAccountUpdate(ctx context.Context, account ports.ConnectedAccount) error {
	user, err := s.users.GetByStripeAccount(ctx, account.AccountID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	_, err = s.syncConnectedAccount(ctx, user, account)
	return err
}

func (s *Service) applyPaymentSucceeded(ctx context.Context, intent ports.PaymentIntent, metadata map[string]string) error {
	campaign, err := s.campaigns.GetByPaymentIntent(ctx, intent.IntentID)
	if err != nil && isNotFound(err) {
		if raw, ok := metadata["campaign_id"]; ok {
			if id, parseErr := uuid.Parse(raw); parseErr == nil {
				campaign, err = s.campaigns.GetByID(ctx, id)
			}
		}
	}
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if campaign.Status != domain.CampaignStatusPendingPayment {
		return nil
	}
	_, err = s.confirmPayment(ctx, campaign)
	return err
}
