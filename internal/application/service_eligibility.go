package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
)

// testerAttributes is the `tester` object exposed to custom CEL rules.
func testerAttributes(u domain.User, now time.Time) map[string]any {
	categories := make([]string, 0, len(u.PreferredCategories))
	for _, id := range u.PreferredCategories {
		categories = append(categories, id.String())
	}
	attrs := map[string]any{
		"id":                 u.UserID.String(),
		"rating":             u.AverageRating,
		"rating_count":       int64(u.RatingCount),
		"completed_sessions": int64(u.CompletedSessions),
		"gender":             string(u.Gender),
		"country":            u.Country,
		"city":               u.City,
		"categories":         categories,
		"has_birth_date":     u.BirthDate != nil,
		"age":                int64(-1),
		"stripe_ready":       u.StripePayoutsEnabled,
	}
	if age, ok := u.AgeAt(now); ok {
		attrs["age"] = int64(age)
	}
	return attrs
}

// criteriaReasons evaluates every criteria predicate plus the custom rule.
func (s *Service) criteriaReasons(ctx context.Context, campaign domain.Campaign, tester domain.User) []string {
	now := s.nowFn()
	reasons := make([]string, 0)
	if !tester.IsActive() {
		reasons = append(reasons, domain.ReasonTesterInactive)
	}
	reasons = append(reasons, campaign.Criteria.FilterAt(now).Reasons(tester)...)
	if !s.passesCustomRule(ctx, campaign, tester, now) {
		reasons = append(reasons, domain.ReasonCustomRuleFailed)
	}
	return reasons
}

func (s *Service) passesCustomRule(ctx context.Context, campaign domain.Campaign, tester domain.User, now time.Time) bool {
	rule := strings.TrimSpace(campaign.Criteria.CustomRule)
	if rule == "" {
		return true
	}
	if s.rules == nil {
		return false
	}
	ok, err := s.rules.Evaluate(rule, testerAttributes(tester, now))
	if err != nil {
		slog.Default().WarnContext(ctx, "custom eligibility rule failed",
			"module", "application",
			"layer", "service",
			"operation", "evaluate_custom_rule",
			"outcome", "failure",
			"campaign_id", campaign.CampaignID.String(),
			"error", err,
		)
		return false
	}
	return ok
}

// CheckTesterEligibility reports whether the tester can apply to the campaign
// and lists one reason per failed check.
func (s *Service) CheckTesterEligibility(ctx context.Context, actor Actor, campaignID, testerID uuid.UUID) (domain.EligibilityResult, error) {
	if actor.UserID == uuid.Nil && !actor.IsAdmin() {
		return domain.EligibilityResult{}, domain.ErrUnauthorized
	}
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return domain.EligibilityResult{}, err
	}
	switch {
	case actor.IsAdmin():
	case actor.Role == domain.RoleTester && actor.UserID == testerID:
	case actor.Role == domain.RoleSeller && campaign.SellerID == actor.UserID:
	default:
		return domain.EligibilityResult{}, domain.ErrForbidden
	}
	tester, err := s.getTester(ctx, testerID)
	if err != nil {
		return domain.EligibilityResult{}, err
	}
	reasons := s.criteriaReasons(ctx, campaign, tester)
	if !campaign.AcceptsApplications(s.nowFn()) {
		reasons = append(reasons, domain.ReasonCampaignNotOpen)
	}
	if _, err := s.sessions.FindOpen(ctx, campaign.CampaignID, tester.UserID); err == nil {
		reasons = append(reasons, domain.ReasonAlreadyParticipating)
	} else if !isNotFound(err) {
		return domain.EligibilityResult{}, err
	}
	return domain.EligibilityResult{
		TesterID:   tester.UserID,
		CampaignID: campaign.CampaignID,
		Eligible:   len(reasons) == 0,
		Reasons:    reasons,
	}, nil
}

// GetEligibleTesters lists active testers matching the campaign criteria. The
// structured predicates run in the repository; the custom rule is applied on
// the returned rows.
func (s *Service) GetEligibleTesters(ctx context.Context, actor Actor, campaignID uuid.UUID, limit, offset int) (EligibleTestersPage, error) {
	campaign, err := s.ownedCampaign(ctx, actor, campaignID)
	if err != nil {
		return EligibleTestersPage{}, err
	}
	limit, offset = domain.NormalizePage(limit, offset)
	now := s.nowFn()
	filter := campaign.Criteria.FilterAt(now)
	page := EligibleTestersPage{Items: make([]EligibleTester, 0, limit), Limit: limit, Offset: offset}

	if strings.TrimSpace(campaign.Criteria.CustomRule) == "" {
		users, err := s.users.ListEligibleTesters(ctx, filter, limit+1, offset)
		if err != nil {
			return EligibleTestersPage{}, err
		}
		for i, u := range users {
			if i == limit {
				page.HasMore = true
				break
			}
			page.Items = append(page.Items, toEligibleTester(u))
		}
		return page, nil
	}

	batchSize := s.cfg.EligibilityScanBatch
	skipped := 0
	for batch := 0; batch < s.cfg.EligibilityScanMaxPages; batch++ {
		users, err := s.users.ListEligibleTesters(ctx, filter, batchSize, batch*batchSize)
		if err != nil {
			return EligibleTestersPage{}, err
		}
		for _, u := range users {
			if !s.passesCustomRule(ctx, campaign, u, now) {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			if len(page.Items) == limit {
				page.HasMore = true
				return page, nil
			}
			page.Items = append(page.Items, toEligibleTester(u))
		}
		if len(users) < batchSize {
			return page, nil
		}
	}
	// The scan stopped at its cap with rows still unread.
	page.HasMore = true
	return page, nil
}

func toEligibleTester(u domain.User) EligibleTester {
	return EligibleTester{
		TesterID:          u.UserID,
		FirstName:         u.FirstName,
		Gender:            u.Gender,
		Country:           u.Country,
		City:              u.City,
		AverageRating:     u.AverageRating,
		CompletedSessions: u.CompletedSessions,
	}
}

func notEligibleError(reasons []string) error {
	return fmt.Errorf("%w: %s", domain.ErrNotEligible, strings.Join(reasons, ","))
}
