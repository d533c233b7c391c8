package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adelipop59/super-try-api-sub002/internal/contracts"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func disputePayload(d domain.Dispute) contracts.DisputePayload {
	payload := contracts.DisputePayload{
		DisputeID:  d.DisputeID.String(),
		SessionID:  d.SessionID.String(),
		TesterID:   d.TesterID.String(),
		SellerID:   d.SellerID.String(),
		OpenedBy:   d.OpenedBy.String(),
		Reason:     string(d.Reason),
		Status:     string(d.Status),
		Resolution: string(d.Resolution),
	}
	if d.RefundAmount.IsPositive() {
		payload.RefundAmount = d.RefundAmount.StringFixed(2)
	}
	return payload
}

func (s *Service) recordDisputeHistory(ctx context.Context, disputeID uuid.UUID, from, to domain.DisputeStatus, changedBy uuid.UUID, reason string) {
	_ = s.disputes.AppendHistory(ctx, domain.DisputeStateHistory{
		HistoryID:  uuid.New(),
		DisputeID:  disputeID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
		Reason:     reason,
		ChangedAt:  s.nowFn(),
	})
}

func (s *Service) transitionDispute(ctx context.Context, dispute domain.Dispute, to domain.DisputeStatus, changedBy uuid.UUID, reason string, mutate func(*domain.Dispute)) (domain.Dispute, error) {
	from := dispute.Status
	if err := domain.ValidateDisputeTransition(from, to); err != nil {
		return domain.Dispute{}, err
	}
	dispute.Status = to
	if mutate != nil {
		mutate(&dispute)
	}
	dispute.UpdatedAt = s.nowFn()
	if err := s.disputes.Update(ctx, dispute, from); err != nil {
		return domain.Dispute{}, err
	}
	s.recordDisputeHistory(ctx, dispute.DisputeID, from, to, changedBy, reason)
	return dispute, nil
}

func (s *Service) OpenDispute(ctx context.Context, actor Actor, input OpenDisputeInput) (domain.Dispute, error) {
	if err := requireRole(actor, domain.RoleTester, domain.RoleSeller); err != nil {
		return domain.Dispute{}, err
	}
	reason := domain.DisputeReason(strings.ToUpper(strings.TrimSpace(input.Reason)))
	if !domain.IsValidDisputeReason(reason) {
		return domain.Dispute{}, fmt.Errorf("%w: unknown dispute reason %q", domain.ErrInvalidInput, input.Reason)
	}
	if err := domain.ValidateDisputeDescription(input.Description); err != nil {
		return domain.Dispute{}, err
	}
	evidence := cleanStrings(input.EvidenceURLs)
	if err := domain.ValidateURLs("evidence_urls", evidence, 10); err != nil {
		return domain.Dispute{}, err
	}
	return runIdempotent(ctx, s, actor, "open_dispute", input, func() (domain.Dispute, error) {
		session, err := s.sessions.GetByID(ctx, input.SessionID)
		if err != nil {
			return domain.Dispute{}, err
		}
		if !session.IsParticipant(actor.UserID) {
			return domain.Dispute{}, domain.ErrForbidden
		}
		if !session.Status.Disputable() {
			return domain.Dispute{}, fmt.Errorf("%w: a %s session cannot be disputed", domain.ErrInvalidStateTransition, session.Status)
		}
		if _, err := s.disputes.GetOpenBySession(ctx, session.SessionID); err == nil {
			return domain.Dispute{}, fmt.Errorf("%w: session already has an open dispute", domain.ErrConflict)
		} else if !isNotFound(err) {
			return domain.Dispute{}, err
		}
		now := s.nowFn()
		dispute := domain.Dispute{
			DisputeID:             uuid.New(),
			SessionID:             session.SessionID,
			CampaignID:            session.CampaignID,
			TesterID:              session.TesterID,
			SellerID:              session.SellerID,
			OpenedBy:              actor.UserID,
			Reason:                reason,
			Description:           strings.TrimSpace(input.Description),
			EvidenceURLs:          evidence,
			Status:                domain.DisputeStatusOpen,
			RefundAmount:          decimal.Zero,
			PreviousSessionStatus: session.Status,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := s.disputes.Create(ctx, dispute); err != nil {
			return domain.Dispute{}, err
		}
		s.recordDisputeHistory(ctx, dispute.DisputeID, "", domain.DisputeStatusOpen, actor.UserID, "dispute opened")
		if _, err := s.transitionSession(ctx, session, domain.SessionStatusDisputed, actor.UserID, "dispute opened", nil); err != nil {
			return domain.Dispute{}, err
		}
		s.emit(ctx, domain.EventDisputeOpened, "dispute_id", dispute.DisputeID.String(), disputePayload(dispute))
		s.recordLog(ctx, domain.LogLevelWarn, domain.LogCategoryDispute, "dispute opened", uuidPtr(actor.UserID), map[string]string{
			"dispute_id": dispute.DisputeID.String(),
			"session_id": session.SessionID.String(),
			"reason":     string(reason),
		})
		return dispute, nil
	})
}

func (s *Service) visibleDispute(ctx context.Context, actor Actor, disputeID uuid.UUID) (domain.Dispute, error) {
	if actor.UserID == uuid.Nil && !actor.IsAdmin() {
		return domain.Dispute{}, domain.ErrUnauthorized
	}
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, err
	}
	if !dispute.IsParty(actor.UserID) && !actor.IsAdmin() {
		return domain.Dispute{}, domain.ErrNotFound
	}
	return dispute, nil
}

func (s *Service) GetDispute(ctx context.Context, actor Actor, disputeID uuid.UUID) (domain.DisputeDetail, error) {
	dispute, err := s.visibleDispute(ctx, actor, disputeID)
	if err != nil {
		return domain.DisputeDetail{}, err
	}
	messages, err := s.disputes.ListMessages(ctx, disputeID)
	if err != nil {
		return domain.DisputeDetail{}, err
	}
	history, err := s.disputes.ListHistory(ctx, disputeID)
	if err != nil {
		return domain.DisputeDetail{}, err
	}
	return domain.DisputeDetail{Dispute: dispute, Messages: messages, StateHistory: history}, nil
}

func (s *Service) ListDisputes(ctx context.Context, actor Actor, query ListDisputesQuery) (Page[domain.Dispute], error) {
	if actor.UserID == uuid.Nil && !actor.IsAdmin() {
		return Page[domain.Dispute]{}, domain.ErrUnauthorized
	}
	limit, offset := domain.NormalizePage(query.Limit, query.Offset)
	filter := ports.DisputeFilter{
		Status: domain.DisputeStatus(strings.ToUpper(strings.TrimSpace(query.Status))),
		Limit:  limit,
		Offset: offset,
	}
	if !actor.IsAdmin() {
		userID := actor.UserID
		filter.UserID = &userID
	}
	items, total, err := s.disputes.List(ctx, filter)
	if err != nil {
		return Page[domain.Dispute]{}, err
	}
	return Page[domain.Dispute]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) AddDisputeMessage(ctx context.Context, actor Actor, disputeID uuid.UUID, input DisputeMessageInput) (domain.DisputeMessage, error) {
	body := strings.TrimSpace(input.Body)
	if err := domain.ValidateText("body", body, 1, 2000); err != nil {
		return domain.DisputeMessage{}, err
	}
	attachments := cleanStrings(input.AttachmentURLs)
	if err := domain.ValidateURLs("attachment_urls", attachments, 10); err != nil {
		return domain.DisputeMessage{}, err
	}
	dispute, err := s.visibleDispute(ctx, actor, disputeID)
	if err != nil {
		return domain.DisputeMessage{}, err
	}
	if dispute.Status == domain.DisputeStatusClosed {
		return domain.DisputeMessage{}, fmt.Errorf("%w: dispute is closed", domain.ErrConflict)
	}
	msg := domain.DisputeMessage{
		MessageID:      uuid.New(),
		DisputeID:      dispute.DisputeID,
		SenderID:       actor.UserID,
		Body:           body,
		AttachmentURLs: attachments,
		CreatedAt:      s.nowFn(),
	}
	if err := s.disputes.CreateMessage(ctx, msg); err != nil {
		return domain.DisputeMessage{}, err
	}
	return msg, nil
}

func (s *Service) TakeDispute(ctx context.Context, actor Actor, disputeID uuid.UUID) (domain.Dispute, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Dispute{}, err
	}
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, err
	}
	return s.transitionDispute(ctx, dispute, domain.DisputeStatusInReview, actor.UserID, "taken in review", func(d *domain.Dispute) {
		d.AssignedAdminID = uuidPtr(actor.UserID)
	})
}

// ResolveDispute applies the admin ruling to the session and the tester wallet.
func (s *Service) ResolveDispute(ctx context.Context, actor Actor, disputeID uuid.UUID, input ResolveDisputeInput) (domain.Dispute, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Dispute{}, err
	}
	resolution := domain.DisputeResolution(strings.ToUpper(strings.TrimSpace(input.Resolution)))
	if !domain.IsValidResolution(resolution) {
		return domain.Dispute{}, fmt.Errorf("%w: unknown resolution %q", domain.ErrInvalidInput, input.Resolution)
	}
	notes := strings.TrimSpace(input.Notes)
	if err := domain.ValidateText("notes", notes, 0, 2000); err != nil {
		return domain.Dispute{}, err
	}
	return runIdempotent(ctx, s, actor, "resolve_dispute", struct {
		DisputeID uuid.UUID
		Input     ResolveDisputeInput
	}{disputeID, input}, func() (domain.Dispute, error) {
		dispute, err := s.disputes.GetByID(ctx, disputeID)
		if err != nil {
			return domain.Dispute{}, err
		}
		if !dispute.Status.IsOpen() {
			return domain.Dispute{}, fmt.Errorf("%w: dispute is %s", domain.ErrInvalidStateTransition, dispute.Status)
		}
		session, err := s.sessions.GetByID(ctx, dispute.SessionID)
		if err != nil {
			return domain.Dispute{}, err
		}
		campaign, err := s.campaigns.GetByID(ctx, dispute.CampaignID)
		if err != nil {
			return domain.Dispute{}, err
		}
		reward := session.RewardAmount
		if !session.RewardCredited {
			reward = campaign.ComputeReward(session.ProductPrice, session.ShippingCost)
		}
		refund := decimal.Zero
		switch resolution {
		case domain.ResolutionFavorTester:
			if !session.RewardCredited {
				refund = reward
			}
		case domain.ResolutionPartialRefund:
			if err := domain.ValidateMoney("refund_amount", input.RefundAmount, false); err != nil {
				return domain.Dispute{}, err
			}
			if input.RefundAmount.GreaterThan(reward) {
				return domain.Dispute{}, fmt.Errorf("%w: refund_amount exceeds the session reward %s", domain.ErrInvalidInput, reward.StringFixed(2))
			}
			refund = input.RefundAmount.Round(2)
		}

		if refund.IsPositive() {
			if _, err := s.creditWallet(ctx, domain.LedgerEntry{
				UserID:        dispute.TesterID,
				Amount:        refund,
				Reason:        domain.ReasonDisputeRefund,
				ReferenceType: "dispute",
				ReferenceID:   dispute.DisputeID,
				Description:   "dispute " + string(resolution),
			}); err != nil {
				return domain.Dispute{}, err
			}
		}
		if err := s.applyDisputeOutcome(ctx, dispute, session, resolution, refund, actor.UserID); err != nil {
			return domain.Dispute{}, err
		}

		now := s.nowFn()
		dispute, err = s.transitionDispute(ctx, dispute, domain.DisputeStatusResolved, actor.UserID, string(resolution), func(d *domain.Dispute) {
			d.Resolution = resolution
			d.RefundAmount = refund
			d.ResolutionNotes = notes
			d.ResolvedBy = uuidPtr(actor.UserID)
			d.ResolvedAt = timePtr(now)
		})
		if err != nil {
			return domain.Dispute{}, err
		}
		s.emit(ctx, domain.EventDisputeResolved, "dispute_id", dispute.DisputeID.String(), disputePayload(dispute))
		s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryDispute, "dispute resolved", uuidPtr(actor.UserID), map[string]string{
			"dispute_id": dispute.DisputeID.String(),
			"resolution": string(resolution),
			"refund":     refund.StringFixed(2),
		})
		return dispute, nil
	})
}

// applyDisputeOutcome moves the disputed session to the status the ruling implies.
func (s *Service) applyDisputeOutcome(ctx context.Context, dispute domain.Dispute, session domain.Session, resolution domain.DisputeResolution, refund decimal.Decimal, adminID uuid.UUID) error {
	if session.Status != domain.SessionStatusDisputed {
		return nil
	}
	previous := dispute.PreviousSessionStatus
	note := "dispute " + strings.ToLower(string(resolution))
	switch resolution {
	case domain.ResolutionFavorTester, domain.ResolutionPartialRefund:
		now := s.nowFn()
		_, err := s.transitionSession(ctx, session, domain.SessionStatusCompleted, adminID, note, func(sess *domain.Session) {
			if !sess.RewardCredited {
				sess.RewardAmount = refund
				sess.RewardCredited = refund.IsPositive()
			}
			if sess.CompletedAt == nil {
				sess.CompletedAt = timePtr(now)
			}
		})
		if err != nil {
			return err
		}
		s.settleCompletion(ctx, session.TesterID, session.CampaignID, "resolve_dispute")
		return nil
	case domain.ResolutionFavorSeller:
		if previous == domain.SessionStatusCompleted {
			_, err := s.transitionSession(ctx, session, domain.SessionStatusCompleted, adminID, note, nil)
			return err
		}
		now := s.nowFn()
		if _, err := s.transitionSession(ctx, session, domain.SessionStatusCancelled, adminID, note, func(sess *domain.Session) {
			sess.CancellationReason = note
			sess.CancelledAt = timePtr(now)
		}); err != nil {
			return err
		}
		if err := s.campaigns.ReleaseSlot(ctx, session.CampaignID); err != nil {
			return err
		}
		s.invalidateCampaignCache(ctx)
		return nil
	default:
		_, err := s.transitionSession(ctx, session, previous, adminID, note, nil)
		return err
	}
}

// WithdrawDispute lets the opener drop a dispute nobody has picked up yet.
func (s *Service) WithdrawDispute(ctx context.Context, actor Actor, disputeID uuid.UUID) (domain.Dispute, error) {
	dispute, err := s.visibleDispute(ctx, actor, disputeID)
	if err != nil {
		return domain.Dispute{}, err
	}
	if dispute.OpenedBy != actor.UserID {
		return domain.Dispute{}, domain.ErrForbidden
	}
	if dispute.Status != domain.DisputeStatusOpen {
		return domain.Dispute{}, fmt.Errorf("%w: only open disputes can be withdrawn", domain.ErrInvalidStateTransition)
	}
	session, err := s.sessions.GetByID(ctx, dispute.SessionID)
	if err != nil {
		return domain.Dispute{}, err
	}
	if session.Status == domain.SessionStatusDisputed {
		if _, err := s.transitionSession(ctx, session, dispute.PreviousSessionStatus, actor.UserID, "dispute withdrawn", nil); err != nil {
			return domain.Dispute{}, err
		}
	}
	return s.transitionDispute(ctx, dispute, domain.DisputeStatusClosed, actor.UserID, "withdrawn", nil)
}

func (s *Service) CloseDispute(ctx context.Context, actor Actor, disputeID uuid.UUID) (domain.Dispute, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Dispute{}, err
	}
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, err
	}
	if dispute.Status != domain.DisputeStatusResolved {
		return domain.Dispute{}, fmt.Errorf("%w: only resolved disputes can be closed", domain.ErrInvalidStateTransition)
	}
	return s.transitionDispute(ctx, dispute, domain.DisputeStatusClosed, actor.UserID, "closed", nil)
}
