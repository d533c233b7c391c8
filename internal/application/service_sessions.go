package application

import (
	"context"
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

// transitionSession applies a validated status change, persists it and writes
// a history row.
func (s *Service) transitionSession(ctx context.Context, session domain.Session, to domain.SessionStatus, changedBy uuid.UUID, reason string, mutate func(*domain.Session)) (domain.Session, error) {
	from := session.Status
	if err := domain.ValidateSessionTransition(from, to); err != nil {
		return domain.Session{}, err
	}
	now := s.nowFn()
	session.Status = to
	if mutate != nil {
		mutate(&session)
	}
	session.UpdatedAt = now
	if err := s.sessions.Update(ctx, session, from); err != nil {
		return domain.Session{}, err
	}
	s.recordSessionHistory(ctx, session.SessionID, from, to, changedBy, reason)
	return session, nil
}

func (s *Service) recordSessionHistory(ctx context.Context, sessionID uuid.UUID, from, to domain.SessionStatus, changedBy uuid.UUID, reason string) {
	_ = s.sessions.AppendHistory(ctx, domain.SessionStateHistory{
		HistoryID:  uuid.New(),
		SessionID:  sessionID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
		Reason:     reason,
		ChangedAt:  s.nowFn(),
	})
}

func sessionPayload(session domain.Session, campaign domain.Campaign, reason string) contracts.SessionPayload {
	payload := contracts.SessionPayload{
		SessionID:     session.SessionID.String(),
		CampaignID:    session.CampaignID.String(),
		CampaignTitle: campaign.Title,
		TesterID:      session.TesterID.String(),
		SellerID:      session.SellerID.String(),
		Status:        string(session.Status),
		Reason:        reason,
	}
	if session.RewardAmount.IsPositive() {
		payload.RewardAmount = session.RewardAmount.StringFixed(2)
	}
	return payload
}

func (s *Service) ApplyToCampaign(ctx context.Context, actor Actor, campaignID uuid.UUID, input ApplyInput) (domain.Session, error) {
	if err := requireRole(actor, domain.RoleTester); err != nil {
		return domain.Session{}, err
	}
	message := strings.TrimSpace(input.Message)
	if err := domain.ValidateText("message", message, 0, 1000); err != nil {
		return domain.Session{}, err
	}
	return runIdempotent(ctx, s, actor, "apply_campaign", struct {
		CampaignID uuid.UUID
		Input      ApplyInput
	}{campaignID, input}, func() (domain.Session, error) {
		campaign, err := s.campaigns.GetByID(ctx, campaignID)
		if err != nil {
			return domain.Session{}, err
		}
		now := s.nowFn()
		if campaign.Status != domain.CampaignStatusActive || now.After(campaign.EndDate) {
			return domain.Session{}, fmt.Errorf("%w: campaign is not accepting applications", domain.ErrConflict)
		}
		if campaign.AvailableSlots <= 0 {
			return domain.Session{}, domain.ErrNoSlotsAvailable
		}
		tester, err := s.getTester(ctx, actor.UserID)
		if err != nil {
			return domain.Session{}, err
		}
		if _, err := s.sessions.FindOpen(ctx, campaign.CampaignID, tester.UserID); err == nil {
			return domain.Session{}, fmt.Errorf("%w: already applied to this campaign", domain.ErrConflict)
		} else if !isNotFound(err) {
			return domain.Session{}, err
		}
		if reasons := s.criteriaReasons(ctx, campaign, tester); len(reasons) > 0 {
			return domain.Session{}, notEligibleError(reasons)
		}

		session := domain.Session{
			SessionID:          uuid.New(),
			CampaignID:         campaign.CampaignID,
			TesterID:           tester.UserID,
			SellerID:           campaign.SellerID,
			Status:             domain.SessionStatusPending,
			ApplicationMessage: message,
			ProductPrice:       decimal.Zero,
			ShippingCost:       decimal.Zero,
			RewardAmount:       decimal.Zero,
			AppliedAt:          now,
			UpdatedAt:          now,
		}
		if campaign.AutoAcceptApplications {
			if err := s.campaigns.ReserveSlot(ctx, campaign.CampaignID); err != nil {
				return domain.Session{}, err
			}
			session.Status = domain.SessionStatusAccepted
			session.AcceptedAt = timePtr(now)
		}
		if err := s.sessions.Create(ctx, session); err != nil {
			if campaign.AutoAcceptApplications {
				_ = s.campaigns.ReleaseSlot(ctx, campaign.CampaignID)
			}
			return domain.Session{}, err
		}
		s.recordSessionHistory(ctx, session.SessionID, "", domain.SessionStatusPending, tester.UserID, "applied")
		s.emit(ctx, domain.EventSessionApplied, "session_id", session.SessionID.String(), sessionPayload(session, campaign, ""))
		if campaign.AutoAcceptApplications {
			s.recordSessionHistory(ctx, session.SessionID, domain.SessionStatusPending, domain.SessionStatusAccepted, campaign.SellerID, "auto accepted")
			s.emit(ctx, domain.EventSessionAccepted, "session_id", session.SessionID.String(), sessionPayload(session, campaign, ""))
			s.invalidateCampaignCache(ctx)
		}
		return session, nil
	})
}

// sellerSession loads a session of a campaign owned by the actor.
func (s *Service) sellerSession(ctx context.Context, actor Actor, sessionID uuid.UUID) (domain.Session, domain.Campaign, error) {
	if err := requireRole(actor, domain.RoleSeller, domain.RoleAdmin); err != nil {
		return domain.Session{}, domain.Campaign{}, err
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.Session{}, domain.Campaign{}, err
	}
	if session.SellerID != actor.UserID && !actor.IsAdmin() {
		return domain.Session{}, domain.Campaign{}, domain.ErrForbidden
	}
	campaign, err := s.campaigns.GetByID(ctx, session.CampaignID)
	if err != nil {
		return domain.Session{}, domain.Campaign{}, err
	}
	return session, campaign, nil
}

func (s *Service) testerSession(ctx context.Context, actor Actor, sessionID uuid.UUID) (domain.Session, domain.Campaign, error) {
	if err := requireRole(actor, domain.RoleTester); err != nil {
		return domain.Session{}, domain.Campaign{}, err
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.Session{}, domain.Campaign{}, err
	}
	if session.TesterID != actor.UserID {
		return domain.Session{}, domain.Campaign{}, domain.ErrForbidden
	}
	campaign, err := s.campaigns.GetByID(ctx, session.CampaignID)
	if err != nil {
		return domain.Session{}, domain.Campaign{}, err
	}
	return session, campaign, nil
}

func (s *Service) AcceptSession(ctx context.Context, actor Actor, sessionID uuid.UUID) (domain.Session, error) {
	session, campaign, err := s.sellerSession(ctx, actor, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if err := domain.ValidateSessionTransition(session.Status, domain.SessionStatusAccepted); err != nil {
		return domain.Session{}, err
	}
	if campaign.Status != domain.CampaignStatusActive {
		return domain.Session{}, fmt.Errorf("%w: campaign is %s", domain.ErrConflict, campaign.Status)
	}
	if err := s.campaigns.ReserveSlot(ctx, campaign.CampaignID); err != nil {
		return domain.Session{}, err
	}
	now := s.nowFn()
	session, err = s.transitionSession(ctx, session, domain.SessionStatusAccepted, actor.UserID, "accepted", func(sess *domain.Session) {
		sess.AcceptedAt = timePtr(now)
	})
	if err != nil {
		_ = s.campaigns.ReleaseSlot(ctx, campaign.CampaignID)
		return domain.Session{}, err
	}
	s.invalidateCampaignCache(ctx)
	s.emit(ctx, domain.EventSessionAccepted, "session_id", session.SessionID.String(), sessionPayload(session, campaign, ""))
	return session, nil
}

func (s *Service) RejectSession(ctx context.Context, actor Actor, sessionID uuid.UUID, input ReasonInput) (domain.Session, error) {
	reason := strings.TrimSpace(input.Reason)
	if err := domain.ValidateText("reason", reason, 3, 1000); err != nil {
		return domain.Session{}, err
	}
	session, campaign, err := s.sellerSession(ctx, actor, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	now := s.nowFn()
	session, err = s.transitionSession(ctx, session, domain.SessionStatusRejected, actor.UserID, reason, func(sess *domain.Session) {
		sess.RejectionReason = reason
		sess.RejectedAt = timePtr(now)
	})
	if err != nil {
		return domain.Session{}, err
	}
	s.emit(ctx, domain.EventSessionRejected, "session_id", session.SessionID.String(), sessionPayload(session, campaign, reason))
	return session, nil
}

// CancelSession lets the tester withdraw at any point before submission. The
// seller may only cancel sessions that have not started.
func (s *Service) CancelSession(ctx context.Context, actor Actor, sessionID uuid.UUID, input ReasonInput) (domain.Session, error) {
	if actor.UserID == uuid.Nil && !actor.IsAdmin() {
		return domain.Session{}, domain.ErrUnauthorized
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	switch {
	case actor.IsAdmin():
	case actor.Role == domain.RoleTester && session.TesterID == actor.UserID:
	case actor.Role == domain.RoleSeller && session.SellerID == actor.UserID:
		if session.Status != domain.SessionStatusPending && session.Status != domain.SessionStatusAccepted {
			return domain.Session{}, fmt.Errorf("%w: sellers can only cancel sessions that have not started", domain.ErrForbidden)
		}
	default:
		return domain.Session{}, domain.ErrForbidden
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "cancelled by " + strings.ToLower(string(actor.Role))
	}
	campaign, err := s.campaigns.GetByID(ctx, session.CampaignID)
	if err != nil {
		return domain.Session{}, err
	}
	return s.cancelSession(ctx, session, campaign, actor.UserID, reason)
}

func (s *Service) cancelSession(ctx context.Context, session domain.Session, campaign domain.Campaign, changedBy uuid.UUID, reason string) (domain.Session, error) {
	heldSlot := session.Status == domain.SessionStatusAccepted || session.Status == domain.SessionStatusInProgress
	now := s.nowFn()
	session, err := s.transitionSession(ctx, session, domain.SessionStatusCancelled, changedBy, reason, func(sess *domain.Session) {
		sess.CancellationReason = reason
		sess.CancelledAt = timePtr(now)
	})
	if err != nil {
		return domain.Session{}, err
	}
	if heldSlot {
		if err := s.campaigns.ReleaseSlot(ctx, session.CampaignID); err != nil {
			return domain.Session{}, err
		}
		s.invalidateCampaignCache(ctx)
	}
	s.emit(ctx, domain.EventSessionCancelled, "session_id", session.SessionID.String(), sessionPayload(session, campaign, reason))
	return session, nil
}

func (s *Service) ValidatePurchase(ctx context.Context, actor Actor, sessionID uuid.UUID, input ValidatePurchaseInput) (domain.Session, error) {
	orderNumber := strings.TrimSpace(input.OrderNumber)
	if err := domain.ValidateText("order_number", orderNumber, 1, 100); err != nil {
		return domain.Session{}, err
	}
	if !domain.IsHTTPURL(input.ProofURL) {
		return domain.Session{}, fmt.Errorf("%w: proof_url must be an http(s) url", domain.ErrInvalidInput)
	}
	if err := domain.ValidateMoney("product_price", input.ProductPrice, false); err != nil {
		return domain.Session{}, err
	}
	if err := domain.ValidateMoney("shipping_cost", input.ShippingCost, true); err != nil {
		return domain.Session{}, err
	}
	session, _, err := s.testerSession(ctx, actor, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	now := s.nowFn()
	return s.transitionSession(ctx, session, domain.SessionStatusInProgress, actor.UserID, "purchase validated", func(sess *domain.Session) {
		sess.OrderNumber = orderNumber
		sess.PurchaseProofURL = strings.TrimSpace(input.ProofURL)
		sess.ProductPrice = input.ProductPrice.Round(2)
		sess.ShippingCost = input.ShippingCost.Round(2)
		sess.PurchasedAt = timePtr(now)
	})
}

func (s *Service) SubmitTest(ctx context.Context, actor Actor, sessionID uuid.UUID, input SubmitTestInput) (domain.Session, error) {
	session, campaign, err := s.testerSession(ctx, actor, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if err := domain.ValidateSessionTransition(session.Status, domain.SessionStatusSubmitted); err != nil {
		return domain.Session{}, err
	}
	if err := domain.ValidateAnswers(campaign.Procedure, input.Answers); err != nil {
		return domain.Session{}, err
	}
	now := s.nowFn()
	return s.transitionSession(ctx, session, domain.SessionStatusSubmitted, actor.UserID, "test submitted", func(sess *domain.Session) {
		sess.Answers = input.Answers
		sess.SubmittedAt = timePtr(now)
	})
}

func (s *Service) CompleteSession(ctx context.Context, actor Actor, sessionID uuid.UUID, input CompleteSessionInput) (domain.Session, error) {
	if input.Rating != nil {
		if err := domain.ValidateRating(*input.Rating); err != nil {
			return domain.Session{}, err
		}
	}
	if err := domain.ValidateText("comment", input.Comment, 0, 2000); err != nil {
		return domain.Session{}, err
	}
	return runIdempotent(ctx, s, actor, "complete_session", struct {
		SessionID uuid.UUID
		Input     CompleteSessionInput
	}{sessionID, input}, func() (domain.Session, error) {
		session, campaign, err := s.sellerSession(ctx, actor, sessionID)
		if err != nil {
			return domain.Session{}, err
		}
		if err := domain.ValidateSessionTransition(session.Status, domain.SessionStatusCompleted); err != nil {
			return domain.Session{}, err
		}
		if session.Status == domain.SessionStatusDisputed {
			return domain.Session{}, fmt.Errorf("%w: disputed sessions are settled by dispute resolution", domain.ErrConflict)
		}
		reward := campaign.ComputeReward(session.ProductPrice, session.ShippingCost)
		if _, err := s.creditWallet(ctx, domain.LedgerEntry{
			UserID:        session.TesterID,
			Amount:        reward,
			Reason:        domain.ReasonSessionReward,
			ReferenceType: "session",
			ReferenceID:   session.SessionID,
			Description:   "reward for " + campaign.Title,
		}); err != nil {
			return domain.Session{}, err
		}
		now := s.nowFn()
		session, err = s.transitionSession(ctx, session, domain.SessionStatusCompleted, actor.UserID, "completed", func(sess *domain.Session) {
			sess.RewardAmount = reward
			sess.RewardCredited = true
			sess.SellerRating = input.Rating
			sess.SellerComment = strings.TrimSpace(input.Comment)
			sess.CompletedAt = timePtr(now)
		})
		if err != nil {
			return domain.Session{}, err
		}
		s.emit(ctx, domain.EventSessionCompleted, "session_id", session.SessionID.String(), sessionPayload(session, campaign, ""))
		s.settleCompletion(ctx, session.TesterID, campaign.CampaignID, "complete_session")
		return session, nil
	})
}

// settleCompletion brings the tester counters and the campaign in line with a
// stored completion. Both steps are recounts, so a failure is logged and the
// next completion or the campaign sweep repairs it.
func (s *Service) settleCompletion(ctx context.Context, testerID, campaignID uuid.UUID, operation string) {
	if err := s.refreshTesterStats(ctx, testerID); err != nil {
		slog.Default().WarnContext(ctx, "tester stats refresh failed",
			"module", "application",
			"layer", "service",
			"operation", operation,
			"outcome", "failure",
			"tester_id", testerID.String(),
			"error", err,
		)
	}
	if err := s.maybeCompleteCampaign(ctx, campaignID); err != nil {
		slog.Default().WarnContext(ctx, "campaign completion check failed",
			"module", "application",
			"layer", "service",
			"operation", operation,
			"outcome", "failure",
			"campaign_id", campaignID.String(),
			"error", err,
		)
	}
}

func (s *Service) refreshTesterStats(ctx context.Context, testerID uuid.UUID) error {
	stats, err := s.sessions.TesterStats(ctx, testerID)
	if err != nil {
		return err
	}
	tester, err := s.users.GetByID(ctx, testerID)
	if err != nil {
		return err
	}
	tester = tester.WithStats(stats)
	tester.UpdatedAt = s.nowFn()
	return s.users.Update(ctx, tester)
}

// maybeCompleteCampaign closes the campaign once every slot has a completed session.
func (s *Service) maybeCompleteCampaign(ctx context.Context, campaignID uuid.UUID) error {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != domain.CampaignStatusActive {
		return nil
	}
	completed, err := s.sessions.CountByCampaign(ctx, campaignID, domain.SessionStatusCompleted)
	if err != nil {
		return err
	}
	if completed < campaign.TotalSlots {
		return nil
	}
	_, err = s.completeCampaign(ctx, campaign)
	return err
}

func (s *Service) GetSession(ctx context.Context, actor Actor, sessionID uuid.UUID) (SessionDetail, error) {
	if actor.UserID == uuid.Nil && !actor.IsAdmin() {
		return SessionDetail{}, domain.ErrUnauthorized
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return SessionDetail{}, err
	}
	if !session.IsParticipant(actor.UserID) && !actor.IsAdmin() {
		return SessionDetail{}, domain.ErrNotFound
	}
	history, err := s.sessions.ListHistory(ctx, sessionID)
	if err != nil {
		return SessionDetail{}, err
	}
	detail := SessionDetail{Session: session, History: history, BonusTasks: []domain.BonusTask{}}
	if s.bonusTasks != nil {
		tasks, err := s.bonusTasks.ListBySession(ctx, sessionID)
		if err != nil {
			return SessionDetail{}, err
		}
		detail.BonusTasks = tasks
	}
	return detail, nil
}

func (s *Service) ListMySessions(ctx context.Context, actor Actor, query ListSessionsQuery) (Page[domain.Session], error) {
	if actor.UserID == uuid.Nil && !actor.IsAdmin() {
		return Page[domain.Session]{}, domain.ErrUnauthorized
	}
	limit, offset := domain.NormalizePage(query.Limit, query.Offset)
	filter := ports.SessionFilter{
		CampaignID: query.CampaignID,
		Status:     domain.SessionStatus(strings.ToUpper(strings.TrimSpace(query.Status))),
		Limit:      limit,
		Offset:     offset,
	}
	userID := actor.UserID
	switch actor.Role {
	case domain.RoleTester:
		filter.TesterID = &userID
	case domain.RoleSeller:
		filter.SellerID = &userID
	case domain.RoleAdmin:
	default:
		return Page[domain.Session]{}, domain.ErrForbidden
	}
	items, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return Page[domain.Session]{}, err
	}
	return Page[domain.Session]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// creditWallet applies a ledger credit. It reports false when the same
// credit was already applied.
func (s *Service) creditWallet(ctx context.Context, entry domain.LedgerEntry) (bool, error) {
	if entry.At.IsZero() {
		entry.At = s.nowFn()
	}
	if entry.Amount.IsZero() {
		return false, nil
	}
	tx, err := s.wallets.Credit(ctx, entry)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryWallet, "wallet credited", uuidPtr(entry.UserID), map[string]string{
		"reason":         string(entry.Reason),
		"amount":         tx.Amount.StringFixed(2),
		"reference_type": entry.ReferenceType,
		"reference_id":   entry.ReferenceID.String(),
	})
	return true, nil
}
