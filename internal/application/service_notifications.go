package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/contracts"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
)

func (s *Service) ListNotifications(ctx context.Context, actor Actor, unreadOnly bool, limit, offset int) (Page[domain.Notification], error) {
	if actor.UserID == uuid.Nil {
		return Page[domain.Notification]{}, domain.ErrUnauthorized
	}
	limit, offset = domain.NormalizePage(limit, offset)
	items, total, err := s.notifications.List(ctx, actor.UserID, unreadOnly, limit, offset)
	if err != nil {
		return Page[domain.Notification]{}, err
	}
	return Page[domain.Notification]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, notificationID uuid.UUID) error {
	if actor.UserID == uuid.Nil {
		return domain.ErrUnauthorized
	}
	return s.notifications.MarkRead(ctx, actor.UserID, notificationID, s.nowFn())
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor Actor) (int, error) {
	if actor.UserID == uuid.Nil {
		return 0, domain.ErrUnauthorized
	}
	return s.notifications.MarkAllRead(ctx, actor.UserID, s.nowFn())
}

func (s *Service) UnreadNotificationCount(ctx context.Context, actor Actor) (int, error) {
	if actor.UserID == uuid.Nil {
		return 0, domain.ErrUnauthorized
	}
	return s.notifications.CountUnread(ctx, actor.UserID)
}

// BroadcastNotification sends one notification to every active user, or to
// every active user of a role.
func (s *Service) BroadcastNotification(ctx context.Context, actor Actor, input BroadcastInput) (BroadcastResult, error) {
	if err := requireAdmin(actor); err != nil {
		return BroadcastResult{}, err
	}
	title := strings.TrimSpace(input.Title)
	body := strings.TrimSpace(input.Body)
	if err := domain.ValidateText("title", title, 1, 200); err != nil {
		return BroadcastResult{}, err
	}
	if err := domain.ValidateText("body", body, 1, 2000); err != nil {
		return BroadcastResult{}, err
	}
	var role domain.Role
	if raw := strings.TrimSpace(input.Role); raw != "" && !strings.EqualFold(raw, "ALL") {
		role = domain.NormalizeRole(raw)
		if role == "" {
			return BroadcastResult{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, input.Role)
		}
	}
	return runIdempotent(ctx, s, actor, "broadcast_notification", input, func() (BroadcastResult, error) {
		ids, err := s.users.ListActiveIDs(ctx, role)
		if err != nil {
			return BroadcastResult{}, err
		}
		now := s.nowFn()
		rows := make([]domain.Notification, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, domain.Notification{
				NotificationID: uuid.New(),
				UserID:         id,
				Type:           domain.NotificationBroadcast,
				Title:          title,
				Body:           body,
				CreatedAt:      now,
			})
		}
		if len(rows) > 0 {
			if err := s.notifications.CreateMany(ctx, rows); err != nil {
				return BroadcastResult{}, err
			}
		}
		s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryAdmin, "notification broadcast", uuidPtr(actor.UserID), map[string]string{
			"role":       string(role),
			"recipients": fmt.Sprint(len(rows)),
		})
		return BroadcastResult{Recipients: len(rows)}, nil
	})
}

// HandleDomainEvent turns a platform event into user notifications. Each event
// id is applied at most once per partition key. partitionKey is the broker
// message key and may be empty when the transport has none.
func (s *Service) HandleDomainEvent(ctx context.Context, eventType, partitionKey string, payload []byte) error {
	var envelope contracts.EventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("%w: malformed envelope: %v", domain.ErrInvalidInput, err)
	}
	if envelope.EventType == "" {
		envelope.EventType = eventType
	}
	if envelope.EventID == "" {
		return fmt.Errorf("%w: envelope without event_id", domain.ErrInvalidInput)
	}
	switch {
	case envelope.PartitionKey == "":
		envelope.PartitionKey = partitionKey
	case partitionKey != "" && partitionKey != envelope.PartitionKey:
		return fmt.Errorf("%w: message key %q does not match envelope partition key %q", domain.ErrInvalidInput, partitionKey, envelope.PartitionKey)
	}
	dedupKey := eventDedupKey(envelope)
	now := s.nowFn()
	if s.eventDedup != nil {
		dup, err := s.eventDedup.IsDuplicate(ctx, dedupKey, now)
		if err != nil {
			return err
		}
		if dup {
			return nil
		}
	}
	rows, err := notificationsForEvent(envelope, now)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		if err := s.notifications.CreateMany(ctx, rows); err != nil {
			return err
		}
	}
	if s.eventDedup != nil {
		return s.eventDedup.MarkProcessed(ctx, dedupKey, envelope.EventType, now.Add(s.cfg.EventDedupTTL))
	}
	return nil
}

func eventDedupKey(envelope contracts.EventEnvelope) string {
	if envelope.PartitionKey == "" {
		return envelope.EventID
	}
	return envelope.PartitionKey + ":" + envelope.EventID
}

type notificationDraft struct {
	userID string
	kind   domain.NotificationType
	title  string
	body   string
	data   map[string]string
}

func notificationsForEvent(envelope contracts.EventEnvelope, now time.Time) ([]domain.Notification, error) {
	var drafts []notificationDraft
	switch envelope.EventType {
	case domain.EventSessionApplied, domain.EventSessionAccepted, domain.EventSessionRejected, domain.EventSessionCompleted:
		var p contracts.SessionPayload
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		data := map[string]string{"session_id": p.SessionID, "campaign_id": p.CampaignID}
		switch envelope.EventType {
		case domain.EventSessionApplied:
			drafts = append(drafts, notificationDraft{p.SellerID, domain.NotificationSessionApplied, "New application", "A tester applied to " + p.CampaignTitle + ".", data})
		case domain.EventSessionAccepted:
			drafts = append(drafts, notificationDraft{p.TesterID, domain.NotificationSessionAccepted, "Application accepted", "You can now buy the product for " + p.CampaignTitle + ".", data})
		case domain.EventSessionRejected:
			drafts = append(drafts, notificationDraft{p.TesterID, domain.NotificationSessionRejected, "Application rejected", "Your application to " + p.CampaignTitle + " was rejected: " + p.Reason, data})
		case domain.EventSessionCompleted:
			drafts = append(drafts, notificationDraft{p.TesterID, domain.NotificationSessionCompleted, "Test completed", "Your reward of " + p.RewardAmount + " was credited to your wallet.", data})
		}
	case domain.EventBonusTaskCreated:
		var p contracts.BonusTaskPayload
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		drafts = append(drafts, notificationDraft{p.TesterID, domain.NotificationBonusTaskCreated, "New bonus task", p.Title + " (" + p.Reward + ")", map[string]string{"task_id": p.TaskID, "session_id": p.SessionID}})
	case domain.EventDisputeOpened, domain.EventDisputeResolved:
		var p contracts.DisputePayload
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		data := map[string]string{"dispute_id": p.DisputeID, "session_id": p.SessionID}
		kind, title, body := domain.NotificationDisputeOpened, "Dispute opened", "A dispute was opened on one of your sessions."
		if envelope.EventType == domain.EventDisputeResolved {
			kind, title, body = domain.NotificationDisputeResolved, "Dispute resolved", "The dispute was resolved: "+p.Resolution+"."
		}
		for _, userID := range []string{p.TesterID, p.SellerID} {
			drafts = append(drafts, notificationDraft{userID, kind, title, body, data})
		}
	case domain.EventWithdrawalCompleted, domain.EventWithdrawalFailed:
		var p contracts.WithdrawalPayload
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		data := map[string]string{"withdrawal_id": p.WithdrawalID}
		if envelope.EventType == domain.EventWithdrawalCompleted {
			drafts = append(drafts, notificationDraft{p.UserID, domain.NotificationWithdrawalComplete, "Withdrawal completed", p.Amount + " " + p.Currency + " is on its way.", data})
		} else {
			drafts = append(drafts, notificationDraft{p.UserID, domain.NotificationWithdrawalFailed, "Withdrawal failed", "Your withdrawal was refunded: " + p.FailureReason, data})
		}
	default:
		return nil, nil
	}

	rows := make([]domain.Notification, 0, len(drafts))
	for _, d := range drafts {
		userID, err := uuid.Parse(d.userID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid recipient %q", domain.ErrInvalidInput, d.userID)
		}
		rows = append(rows, domain.Notification{
			NotificationID: uuid.New(),
			UserID:         userID,
			Type:           d.kind,
			Title:          d.title,
			Body:           d.body,
			Data:           d.data,
			CreatedAt:      now,
		})
	}
	return rows, nil
}
