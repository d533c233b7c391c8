package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Adelipop59/super-try-api-sub002/internal/contracts"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxCampaignSlots = 1000

func validateCampaignInput(input CampaignInput) error {
	if input.CategoryID == uuid.Nil {
		return fmt.Errorf("%w: category_id is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateText("title", input.Title, 3, 200); err != nil {
		return err
	}
	if err := domain.ValidateText("description", input.Description, 0, 5000); err != nil {
		return err
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() || !input.EndDate.After(input.StartDate) {
		return fmt.Errorf("%w: end_date must be after start_date", domain.ErrInvalidInput)
	}
	if input.TotalSlots < 1 || input.TotalSlots > maxCampaignSlots {
		return fmt.Errorf("%w: total_slots must be between 1 and %d", domain.ErrInvalidInput, maxCampaignSlots)
	}
	return nil
}

func (s *Service) CreateCampaign(ctx context.Context, actor Actor, input CampaignInput) (domain.Campaign, error) {
	if err := requireRole(actor, domain.RoleSeller); err != nil {
		return domain.Campaign{}, err
	}
	if err := validateCampaignInput(input); err != nil {
		return domain.Campaign{}, err
	}
	if err := s.requireActiveCategory(ctx, input.CategoryID); err != nil {
		return domain.Campaign{}, err
	}
	now := s.nowFn()
	campaign := domain.Campaign{
		CampaignID:             uuid.New(),
		SellerID:               actor.UserID,
		CategoryID:             input.CategoryID,
		Title:                  strings.TrimSpace(input.Title),
		Description:            strings.TrimSpace(input.Description),
		StartDate:              input.StartDate.UTC(),
		EndDate:                input.EndDate.UTC(),
		TotalSlots:             input.TotalSlots,
		AvailableSlots:         input.TotalSlots,
		AutoAcceptApplications: input.AutoAcceptApplications,
		Status:                 domain.CampaignStatusDraft,
		Offers:                 []domain.CampaignOffer{},
		Procedure:              []domain.ProcedureStep{},
		Criteria:               domain.CampaignCriteria{}.Normalize(),
		EscrowAmount:           decimal.Zero,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return domain.Campaign{}, err
	}
	return campaign, nil
}

// draftCampaign loads a campaign the actor owns and that can still be edited.
func (s *Service) draftCampaign(ctx context.Context, actor Actor, campaignID uuid.UUID) (domain.Campaign, error) {
	campaign, err := s.ownedCampaign(ctx, actor, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if !campaign.IsEditable() {
		return domain.Campaign{}, fmt.Errorf("%w: campaign is %s and can no longer be edited", domain.ErrConflict, campaign.Status)
	}
	return campaign, nil
}

func (s *Service) ownedCampaign(ctx context.Context, actor Actor, campaignID uuid.UUID) (domain.Campaign, error) {
	if err := requireRole(actor, domain.RoleSeller, domain.RoleAdmin); err != nil {
		return domain.Campaign{}, err
	}
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if campaign.SellerID != actor.UserID && !actor.IsAdmin() {
		return domain.Campaign{}, domain.ErrForbidden
	}
	return campaign, nil
}

func (s *Service) UpdateCampaign(ctx context.Context, actor Actor, campaignID uuid.UUID, input CampaignInput) (domain.Campaign, error) {
	campaign, err := s.draftCampaign(ctx, actor, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if err := validateCampaignInput(input); err != nil {
		return domain.Campaign{}, err
	}
	if input.CategoryID != campaign.CategoryID {
		if err := s.requireActiveCategory(ctx, input.CategoryID); err != nil {
			return domain.Campaign{}, err
		}
	}
	campaign.CategoryID = input.CategoryID
	campaign.Title = strings.TrimSpace(input.Title)
	campaign.Description = strings.TrimSpace(input.Description)
	campaign.StartDate = input.StartDate.UTC()
	campaign.EndDate = input.EndDate.UTC()
	campaign.TotalSlots = input.TotalSlots
	campaign.AvailableSlots = input.TotalSlots
	campaign.AutoAcceptApplications = input.AutoAcceptApplications
	campaign.UpdatedAt = s.nowFn()
	if err := s.campaigns.Update(ctx, campaign, domain.CampaignStatusDraft); err != nil {
		return domain.Campaign{}, err
	}
	return campaign, nil
}

func (s *Service) SetOffers(ctx context.Context, actor Actor, campaignID uuid.UUID, offers []domain.CampaignOffer) (domain.Campaign, error) {
	campaign, err := s.draftCampaign(ctx, actor, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if len(offers) == 0 {
		return domain.Campaign{}, fmt.Errorf("%w: at least one offer is required", domain.ErrInvalidInput)
	}
	seen := make(map[uuid.UUID]struct{}, len(offers))
	normalized := make([]domain.CampaignOffer, 0, len(offers))
	for _, offer := range offers {
		if _, dup := seen[offer.ProductID]; dup {
			return domain.Campaign{}, fmt.Errorf("%w: product %s listed twice", domain.ErrInvalidInput, offer.ProductID)
		}
		seen[offer.ProductID] = struct{}{}
		product, err := s.products.GetByID(ctx, offer.ProductID)
		if err != nil {
			if isNotFound(err) {
				return domain.Campaign{}, fmt.Errorf("%w: unknown product %s", domain.ErrInvalidInput, offer.ProductID)
			}
			return domain.Campaign{}, err
		}
		if product.SellerID != campaign.SellerID || !product.IsActive {
			return domain.Campaign{}, fmt.Errorf("%w: product %s is not an active product of this seller", domain.ErrInvalidInput, offer.ProductID)
		}
		if offer.Quantity < 1 {
			return domain.Campaign{}, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
		}
		if err := domain.ValidateMoney("expected_price", offer.ExpectedPrice, false); err != nil {
			return domain.Campaign{}, err
		}
		if err := domain.ValidateMoney("shipping_cost", offer.ShippingCost, true); err != nil {
			return domain.Campaign{}, err
		}
		if err := domain.ValidateMoney("bonus", offer.Bonus, true); err != nil {
			return domain.Campaign{}, err
		}
		if offer.MaxReimbursedPrice != nil {
			if err := domain.ValidateMoney("max_reimbursed_price", *offer.MaxReimbursedPrice, false); err != nil {
				return domain.Campaign{}, err
			}
			capped := offer.MaxReimbursedPrice.Round(2)
			offer.MaxReimbursedPrice = &capped
		}
		offer.ExpectedPrice = offer.ExpectedPrice.Round(2)
		offer.ShippingCost = offer.ShippingCost.Round(2)
		offer.Bonus = offer.Bonus.Round(2)
		normalized = append(normalized, offer)
	}
	campaign.Offers = normalized
	campaign.UpdatedAt = s.nowFn()
	if err := s.campaigns.Update(ctx, campaign, domain.CampaignStatusDraft); err != nil {
		return domain.Campaign{}, err
	}
	return campaign, nil
}

func (s *Service) SetProcedure(ctx context.Context, actor Actor, campaignID uuid.UUID, steps []ProcedureStepInput) (domain.Campaign, error) {
	campaign, err := s.draftCampaign(ctx, actor, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if len(steps) == 0 || len(steps) > 50 {
		return domain.Campaign{}, fmt.Errorf("%w: procedure needs between 1 and 50 steps", domain.ErrInvalidInput)
	}
	procedure := make([]domain.ProcedureStep, 0, len(steps))
	for i, in := range steps {
		stepType := domain.StepType(strings.ToUpper(strings.TrimSpace(in.Type)))
		if !domain.IsValidStepType(stepType) {
			return domain.Campaign{}, fmt.Errorf("%w: unknown step type %q", domain.ErrInvalidInput, in.Type)
		}
		if err := domain.ValidateText("step title", in.Title, 2, 200); err != nil {
			return domain.Campaign{}, err
		}
		items := cleanStrings(in.ChecklistItems)
		if stepType == domain.StepTypeChecklist && len(items) == 0 {
			return domain.Campaign{}, fmt.Errorf("%w: checklist step %q needs items", domain.ErrInvalidInput, in.Title)
		}
		if stepType != domain.StepTypeChecklist {
			items = nil
		}
		procedure = append(procedure, domain.ProcedureStep{
			StepID:         uuid.New(),
			Title:          strings.TrimSpace(in.Title),
			Description:    strings.TrimSpace(in.Description),
			Type:           stepType,
			Order:          i + 1,
			IsRequired:     in.IsRequired,
			ChecklistItems: items,
		})
	}
	campaign.Procedure = procedure
	campaign.UpdatedAt = s.nowFn()
	if err := s.campaigns.Update(ctx, campaign, domain.CampaignStatusDraft); err != nil {
		return domain.Campaign{}, err
	}
	return campaign, nil
}

func (s *Service) SetCriteria(ctx context.Context, actor Actor, campaignID uuid.UUID, criteria domain.CampaignCriteria) (domain.Campaign, error) {
	campaign, err := s.draftCampaign(ctx, actor, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	criteria = criteria.Normalize()
	if err := criteria.Validate(); err != nil {
		return domain.Campaign{}, err
	}
	for _, categoryID := range criteria.RequiredCategories {
		if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
			if isNotFound(err) {
				return domain.Campaign{}, fmt.Errorf("%w: unknown category %s", domain.ErrInvalidInput, categoryID)
			}
			return domain.Campaign{}, err
		}
	}
	if criteria.CustomRule != "" {
		if s.rules == nil {
			return domain.Campaign{}, fmt.Errorf("%w: custom rules are not enabled", domain.ErrInvalidInput)
		}
		if err := s.rules.Validate(criteria.CustomRule); err != nil {
			return domain.Campaign{}, fmt.Errorf("%w: custom_rule: %v", domain.ErrInvalidInput, err)
		}
	}
	campaign.Criteria = criteria
	campaign.UpdatedAt = s.nowFn()
	if err := s.campaigns.Update(ctx, campaign, domain.CampaignStatusDraft); err != nil {
		return domain.Campaign{}, err
	}
	return campaign, nil
}

func (s *Service) ActivateCampaign(ctx context.Context, actor Actor, campaignID uuid.UUID) (ActivateCampaignResult, error) {
	return runIdempotent(ctx, s, actor, "activate_campaign", campaignID, func() (ActivateCampaignResult, error) {
		campaign, err := s.draftCampaign(ctx, actor, campaignID)
		if err != nil {
			return ActivateCampaignResult{}, err
		}
		now := s.nowFn()
		if err := campaign.ValidateForActivation(now); err != nil {
			return ActivateCampaignResult{}, err
		}
		campaign.EscrowAmount = campaign.ComputeEscrow(s.cfg.CommissionPercent)
		campaign.AvailableSlots = campaign.TotalSlots
		campaign.UpdatedAt = now
		result := ActivateCampaignResult{AmountDue: campaign.EscrowAmount}

		if s.cfg.PaymentsEnabled && s.payments != nil && campaign.EscrowAmount.IsPositive() {
			intent, err := s.payments.CreatePaymentIntent(ctx, campaign.EscrowAmount, s.cfg.Currency, map[string]string{
				"campaign_id": campaign.CampaignID.String(),
				"seller_id":   campaign.SellerID.String(),
			})
			if err != nil {
				return ActivateCampaignResult{}, fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
			}
			campaign.Status = domain.CampaignStatusPendingPayment
			campaign.PaymentIntentID = intent.IntentID
			result.PaymentClientSecret = intent.ClientSecret
			if err := s.campaigns.Update(ctx, campaign, domain.CampaignStatusDraft); err != nil {
				return ActivateCampaignResult{}, err
			}
			result.Campaign = campaign
			s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryCampaign, "campaign awaiting payment", uuidPtr(campaign.SellerID), map[string]string{
				"campaign_id": campaign.CampaignID.String(),
				"escrow":      campaign.EscrowAmount.StringFixed(2),
			})
			return result, nil
		}

		campaign.Status = domain.CampaignStatusActive
		campaign.ActivatedAt = timePtr(now)
		if err := s.campaigns.Update(ctx, campaign, domain.CampaignStatusDraft); err != nil {
			return ActivateCampaignResult{}, err
		}
		s.afterCampaignActivated(ctx, campaign)
		result.Campaign = campaign
		return result, nil
	})
}

func (s *Service) afterCampaignActivated(ctx context.Context, campaign domain.Campaign) {
	s.invalidateCampaignCache(ctx)
	s.emit(ctx, domain.EventCampaignActivated, "campaign_id", campaign.CampaignID.String(), campaignPayload(campaign))
	s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryCampaign, "campaign activated", uuidPtr(campaign.SellerID), map[string]string{
		"campaign_id": campaign.CampaignID.String(),
		"escrow":      campaign.EscrowAmount.StringFixed(2),
	})
}

// ConfirmCampaignPayment is the admin path for marking the escrow as paid.
func (s *Service) ConfirmCampaignPayment(ctx context.Context, actor Actor, campaignID uuid.UUID) (domain.Campaign, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Campaign{}, err
	}
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	return s.confirmPayment(ctx, campaign)
}

func (s *Service) confirmPayment(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	if campaign.Status == domain.CampaignStatusActive {
		return campaign, nil
	}
	if campaign.Status != domain.CampaignStatusPendingPayment {
		return domain.Campaign{}, fmt.Errorf("%w: campaign is not awaiting payment", domain.ErrInvalidStateTransition)
	}
	now := s.nowFn()
	campaign.Status = domain.CampaignStatusActive
	campaign.ActivatedAt = timePtr(now)
	campaign.UpdatedAt = now
	if err := s.campaigns.Update(ctx, campaign, domain.CampaignStatusPendingPayment); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// The webhook and the admin path raced; report whatever won.
			if current, getErr := s.campaigns.GetByID(ctx, campaign.CampaignID); getErr == nil && current.Status == domain.CampaignStatusActive {
				return current, nil
			}
		}
		return domain.Campaign{}, err
	}
	s.afterCampaignActivated(ctx, campaign)
	return campaign, nil
}

func (s *Service) CancelCampaign(ctx context.Context, actor Actor, campaignID uuid.UUID, input ReasonInput) (domain.Campaign, error) {
	campaign, err := s.ownedCampaign(ctx, actor, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if err := domain.ValidateCampaignTransition(campaign.Status, domain.CampaignStatusCancelled); err != nil {
		return domain.Campaign{}, err
	}
	engaged, err := s.sessions.CountByCampaign(ctx, campaign.CampaignID,
		domain.SessionStatusAccepted,
		domain.SessionStatusInProgress,
		domain.SessionStatusSubmitted,
		domain.SessionStatusDisputed,
	)
	if err != nil {
		return domain.Campaign{}, err
	}
	if engaged > 0 {
		return domain.Campaign{}, fmt.Errorf("%w: %d sessions are still running", domain.ErrConflict, engaged)
	}
	now := s.nowFn()
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "campaign cancelled"
	}
	campaignRef := campaign.CampaignID
	pending, _, err := s.sessions.List(ctx, ports.SessionFilter{CampaignID: &campaignRef, Status: domain.SessionStatusPending, Limit: maxCampaignSlots * 10})
	if err != nil {
		return domain.Campaign{}, err
	}
	for _, session := range pending {
		if _, err := s.transitionSession(ctx, session, domain.SessionStatusCancelled, actor.UserID, reason, func(sess *domain.Session) {
			sess.CancellationReason = reason
			sess.CancelledAt = timePtr(now)
		}); err != nil {
			return domain.Campaign{}, err
		}
	}
	from := campaign.Status
	campaign.Status = domain.CampaignStatusCancelled
	campaign.CancelledAt = timePtr(now)
	campaign.UpdatedAt = now
	if err := s.campaigns.Update(ctx, campaign, from); err != nil {
		return domain.Campaign{}, err
	}
	s.invalidateCampaignCache(ctx)
	s.emit(ctx, domain.EventCampaignCancelled, "campaign_id", campaign.CampaignID.String(), campaignPayload(campaign))
	s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryCampaign, "campaign cancelled", uuidPtr(actor.UserID), map[string]string{
		"campaign_id": campaign.CampaignID.String(),
		"reason":      reason,
	})
	return campaign, nil
}

// completeCampaign closes an ACTIVE campaign. Already closed campaigns are left alone.
func (s *Service) completeCampaign(ctx context.Context, campaign domain.Campaign) (bool, error) {
	if campaign.Status != domain.CampaignStatusActive {
		return false, nil
	}
	now := s.nowFn()
	campaign.Status = domain.CampaignStatusCompleted
	campaign.CompletedAt = timePtr(now)
	campaign.UpdatedAt = now
	if err := s.campaigns.Update(ctx, campaign, domain.CampaignStatusActive); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	s.invalidateCampaignCache(ctx)
	s.emit(ctx, domain.EventCampaignCompleted, "campaign_id", campaign.CampaignID.String(), campaignPayload(campaign))
	return true, nil
}

func (s *Service) ListActiveCampaigns(ctx context.Context, query ListCampaignsQuery) (Page[domain.Campaign], error) {
	limit, offset := domain.NormalizePage(query.Limit, query.Offset)
	query.Limit, query.Offset = limit, offset
	query.Search = strings.TrimSpace(query.Search)
	cacheKey := campaignCachePrefix + "active:" + hashPayload(query)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil && raw != "" {
			var cached Page[domain.Campaign]
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}
	items, total, err := s.campaigns.List(ctx, ports.CampaignFilter{
		CategoryID: query.CategoryID,
		Status:     domain.CampaignStatusActive,
		Search:     query.Search,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return Page[domain.Campaign]{}, err
	}
	page := Page[domain.Campaign]{Items: items, Total: total, Limit: limit, Offset: offset}
	if s.cache != nil {
		if raw, err := json.Marshal(page); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(raw), s.cfg.CampaignCacheTTL); err != nil {
				slog.Default().WarnContext(ctx, "campaign cache write failed",
					"module", "application",
					"layer", "service",
					"operation", "list_active_campaigns",
					"outcome", "failure",
					"error", err,
				)
			}
		}
	}
	return page, nil
}

func (s *Service) ListMyCampaigns(ctx context.Context, actor Actor, status string, limit, offset int) (Page[domain.Campaign], error) {
	if err := requireRole(actor, domain.RoleSeller); err != nil {
		return Page[domain.Campaign]{}, err
	}
	limit, offset = domain.NormalizePage(limit, offset)
	sellerID := actor.UserID
	items, total, err := s.campaigns.List(ctx, ports.CampaignFilter{
		SellerID: &sellerID,
		Status:   domain.CampaignStatus(strings.ToUpper(strings.TrimSpace(status))),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return Page[domain.Campaign]{}, err
	}
	return Page[domain.Campaign]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// GetCampaign hides drafts and unpaid campaigns from everyone but the owner and admins.
func (s *Service) GetCampaign(ctx context.Context, actor Actor, campaignID uuid.UUID) (domain.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	switch campaign.Status {
	case domain.CampaignStatusDraft, domain.CampaignStatusPendingPayment:
		if campaign.SellerID != actor.UserID && !actor.IsAdmin() {
			return domain.Campaign{}, domain.ErrNotFound
		}
	}
	return campaign, nil
}

func campaignPayload(c domain.Campaign) contracts.CampaignPayload {
	return contracts.CampaignPayload{
		CampaignID: c.CampaignID.String(),
		SellerID:   c.SellerID.String(),
		Title:      c.Title,
		Status:     string(c.Status),
	}
}
