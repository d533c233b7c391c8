package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adelipop59/super-try-api-sub002/internal/contracts"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
)

func bonusTaskPayload(task domain.BonusTask) contracts.BonusTaskPayload {
	return contracts.BonusTaskPayload{
		TaskID:    task.TaskID.String(),
		SessionID: task.SessionID.String(),
		TesterID:  task.TesterID.String(),
		SellerID:  task.SellerID.String(),
		Type:      string(task.Type),
		Title:     task.Title,
		Reward:    task.Reward.StringFixed(2),
		Status:    string(task.Status),
	}
}

func (s *Service) CreateBonusTask(ctx context.Context, actor Actor, sessionID uuid.UUID, input CreateBonusTaskInput) (domain.BonusTask, error) {
	taskType := domain.BonusTaskType(strings.ToUpper(strings.TrimSpace(input.Type)))
	if !domain.IsValidBonusTaskType(taskType) {
		return domain.BonusTask{}, fmt.Errorf("%w: unknown bonus task type %q", domain.ErrInvalidInput, input.Type)
	}
	if err := domain.ValidateText("title", input.Title, 3, 200); err != nil {
		return domain.BonusTask{}, err
	}
	if err := domain.ValidateText("description", input.Description, 0, 2000); err != nil {
		return domain.BonusTask{}, err
	}
	if err := domain.ValidateMoney("reward", input.Reward, false); err != nil {
		return domain.BonusTask{}, err
	}
	return runIdempotent(ctx, s, actor, "create_bonus_task", struct {
		SessionID uuid.UUID
		Input     CreateBonusTaskInput
	}{sessionID, input}, func() (domain.BonusTask, error) {
		session, _, err := s.sellerSession(ctx, actor, sessionID)
		if err != nil {
			return domain.BonusTask{}, err
		}
		if !domain.BonusTaskAllowedOn(session.Status) {
			return domain.BonusTask{}, fmt.Errorf("%w: bonus tasks cannot be added to a %s session", domain.ErrConflict, session.Status)
		}
		now := s.nowFn()
		task := domain.BonusTask{
			TaskID:      uuid.New(),
			SessionID:   session.SessionID,
			CampaignID:  session.CampaignID,
			SellerID:    session.SellerID,
			TesterID:    session.TesterID,
			Type:        taskType,
			Title:       strings.TrimSpace(input.Title),
			Description: strings.TrimSpace(input.Description),
			Reward:      input.Reward.Round(2),
			Status:      domain.BonusTaskStatusRequested,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if taskType == domain.BonusTaskTip {
			// A tip is stored VALIDATED only once the tester holds the money.
			if err := s.payBonusTask(ctx, task, domain.ReasonTip); err != nil {
				return domain.BonusTask{}, err
			}
			task.Status = domain.BonusTaskStatusValidated
			task.ValidatedAt = timePtr(now)
		}
		if err := s.bonusTasks.Create(ctx, task); err != nil {
			return domain.BonusTask{}, err
		}
		s.emit(ctx, domain.EventBonusTaskCreated, "session_id", task.SessionID.String(), bonusTaskPayload(task))
		if taskType == domain.BonusTaskTip {
			s.emit(ctx, domain.EventBonusTaskValidated, "session_id", task.SessionID.String(), bonusTaskPayload(task))
		}
		return task, nil
	})
}

// payBonusTask credits the reward. A task already paid is a no-op, so a retry
// after a failed status write never pays twice.
func (s *Service) payBonusTask(ctx context.Context, task domain.BonusTask, reason domain.TransactionReason) error {
	_, err := s.creditWallet(ctx, domain.LedgerEntry{
		UserID:        task.TesterID,
		Amount:        task.Reward,
		Reason:        reason,
		ReferenceType: "bonus_task",
		ReferenceID:   task.TaskID,
		Description:   task.Title,
	})
	return err
}

func (s *Service) transitionBonusTask(ctx context.Context, task domain.BonusTask, to domain.BonusTaskStatus, mutate func(*domain.BonusTask)) (domain.BonusTask, error) {
	from := task.Status
	if err := domain.ValidateBonusTaskTransition(from, to); err != nil {
		return domain.BonusTask{}, err
	}
	task.Status = to
	if mutate != nil {
		mutate(&task)
	}
	task.UpdatedAt = s.nowFn()
	if err := s.bonusTasks.Update(ctx, task, from); err != nil {
		return domain.BonusTask{}, err
	}
	return task, nil
}

func (s *Service) testerBonusTask(ctx context.Context, actor Actor, taskID uuid.UUID) (domain.BonusTask, error) {
	if err := requireRole(actor, domain.RoleTester); err != nil {
		return domain.BonusTask{}, err
	}
	task, err := s.bonusTasks.GetByID(ctx, taskID)
	if err != nil {
		return domain.BonusTask{}, err
	}
	if task.TesterID != actor.UserID {
		return domain.BonusTask{}, domain.ErrForbidden
	}
	return task, nil
}

func (s *Service) sellerBonusTask(ctx context.Context, actor Actor, taskID uuid.UUID) (domain.BonusTask, error) {
	if err := requireRole(actor, domain.RoleSeller, domain.RoleAdmin); err != nil {
		return domain.BonusTask{}, err
	}
	task, err := s.bonusTasks.GetByID(ctx, taskID)
	if err != nil {
		return domain.BonusTask{}, err
	}
	if task.SellerID != actor.UserID && !actor.IsAdmin() {
		return domain.BonusTask{}, domain.ErrForbidden
	}
	return task, nil
}

func (s *Service) AcceptBonusTask(ctx context.Context, actor Actor, taskID uuid.UUID) (domain.BonusTask, error) {
	task, err := s.testerBonusTask(ctx, actor, taskID)
	if err != nil {
		return domain.BonusTask{}, err
	}
	return s.transitionBonusTask(ctx, task, domain.BonusTaskStatusAccepted, nil)
}

func (s *Service) DeclineBonusTask(ctx context.Context, actor Actor, taskID uuid.UUID) (domain.BonusTask, error) {
	task, err := s.testerBonusTask(ctx, actor, taskID)
	if err != nil {
		return domain.BonusTask{}, err
	}
	return s.transitionBonusTask(ctx, task, domain.BonusTaskStatusDeclined, nil)
}

func (s *Service) SubmitBonusTask(ctx context.Context, actor Actor, taskID uuid.UUID, input SubmitBonusTaskInput) (domain.BonusTask, error) {
	urls := cleanStrings(input.SubmissionURLs)
	if len(urls) == 0 {
		return domain.BonusTask{}, fmt.Errorf("%w: at least one submission url is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateURLs("submission_urls", urls, 20); err != nil {
		return domain.BonusTask{}, err
	}
	task, err := s.testerBonusTask(ctx, actor, taskID)
	if err != nil {
		return domain.BonusTask{}, err
	}
	now := s.nowFn()
	return s.transitionBonusTask(ctx, task, domain.BonusTaskStatusSubmitted, func(t *domain.BonusTask) {
		t.SubmissionURLs = urls
		t.RejectionReason = ""
		t.SubmittedAt = timePtr(now)
	})
}

func (s *Service) ValidateBonusTask(ctx context.Context, actor Actor, taskID uuid.UUID) (domain.BonusTask, error) {
	return runIdempotent(ctx, s, actor, "validate_bonus_task", taskID, func() (domain.BonusTask, error) {
		task, err := s.sellerBonusTask(ctx, actor, taskID)
		if err != nil {
			return domain.BonusTask{}, err
		}
		if task.Status != domain.BonusTaskStatusSubmitted {
			return domain.BonusTask{}, fmt.Errorf("%w: bonus task %s -> %s", domain.ErrInvalidStateTransition, task.Status, domain.BonusTaskStatusValidated)
		}
		// A failed credit leaves the task SUBMITTED so the seller can retry.
		if err := s.payBonusTask(ctx, task, domain.ReasonBonusTask); err != nil {
			return domain.BonusTask{}, err
		}
		now := s.nowFn()
		task, err = s.transitionBonusTask(ctx, task, domain.BonusTaskStatusValidated, func(t *domain.BonusTask) {
			t.ValidatedAt = timePtr(now)
		})
		if err != nil {
			return domain.BonusTask{}, err
		}
		s.emit(ctx, domain.EventBonusTaskValidated, "session_id", task.SessionID.String(), bonusTaskPayload(task))
		return task, nil
	})
}

func (s *Service) RejectBonusTask(ctx context.Context, actor Actor, taskID uuid.UUID, input ReasonInput) (domain.BonusTask, error) {
	reason := strings.TrimSpace(input.Reason)
	if err := domain.ValidateText("reason", reason, 3, 1000); err != nil {
		return domain.BonusTask{}, err
	}
	task, err := s.sellerBonusTask(ctx, actor, taskID)
	if err != nil {
		return domain.BonusTask{}, err
	}
	return s.transitionBonusTask(ctx, task, domain.BonusTaskStatusRejected, func(t *domain.BonusTask) {
		t.RejectionReason = reason
	})
}

func (s *Service) CancelBonusTask(ctx context.Context, actor Actor, taskID uuid.UUID) (domain.BonusTask, error) {
	task, err := s.sellerBonusTask(ctx, actor, taskID)
	if err != nil {
		return domain.BonusTask{}, err
	}
	return s.transitionBonusTask(ctx, task, domain.BonusTaskStatusCancelled, nil)
}

func (s *Service) ListSessionBonusTasks(ctx context.Context, actor Actor, sessionID uuid.UUID) ([]domain.BonusTask, error) {
	detail, err := s.GetSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	return detail.BonusTasks, nil
}
