package postgres

import (
	"strings"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
)

func toUserModel(u domain.User) userModel {
	return userModel{
		UserID:                    u.UserID,
		Email:                     strings.ToLower(u.Email),
		PasswordHash:              u.PasswordHash,
		Role:                      string(u.Role),
		Status:                    string(u.Status),
		FirstName:                 u.FirstName,
		LastName:                  u.LastName,
		BirthDate:                 u.BirthDate,
		Gender:                    string(u.Gender),
		Country:                   u.Country,
		City:                      u.City,
		CompanyName:               u.CompanyName,
		PreferredCategories:       jsonText(u.PreferredCategories, "[]"),
		AverageRating:             u.AverageRating,
		RatingCount:               u.RatingCount,
		CompletedSessions:         u.CompletedSessions,
		StripeAccountID:           u.StripeAccountID,
		StripeOnboardingCompleted: u.StripeOnboardingCompleted,
		StripePayoutsEnabled:      u.StripePayoutsEnabled,
		CreatedAt:                 u.CreatedAt,
		UpdatedAt:                 u.UpdatedAt,
	}
}

func toDomainUser(m userModel) domain.User {
	categories := fromJSON[[]uuid.UUID](m.PreferredCategories)
	if categories == nil {
		categories = []uuid.UUID{}
	}
	return domain.User{
		UserID:                    m.UserID,
		Email:                     m.Email,
		PasswordHash:              m.PasswordHash,
		Role:                      domain.Role(m.Role),
		Status:                    domain.UserStatus(m.Status),
		FirstName:                 m.FirstName,
		LastName:                  m.LastName,
		BirthDate:                 m.BirthDate,
		Gender:                    domain.Gender(m.Gender),
		Country:                   m.Country,
		City:                      m.City,
		CompanyName:               m.CompanyName,
		PreferredCategories:       categories,
		AverageRating:             m.AverageRating,
		RatingCount:               m.RatingCount,
		CompletedSessions:         m.CompletedSessions,
		StripeAccountID:           m.StripeAccountID,
		StripeOnboardingCompleted: m.StripeOnboardingCompleted,
		StripePayoutsEnabled:      m.StripePayoutsEnabled,
		CreatedAt:                 m.CreatedAt,
		UpdatedAt:                 m.UpdatedAt,
	}
}

func toCategoryModel(c domain.Category) categoryModel {
	return categoryModel{
		CategoryID: c.CategoryID, Name: c.Name, Slug: c.Slug, Description: c.Description,
		Icon: c.Icon, IsActive: c.IsActive, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func toDomainCategory(m categoryModel) domain.Category {
	return domain.Category{
		CategoryID: m.CategoryID, Name: m.Name, Slug: m.Slug, Description: m.Description,
		Icon: m.Icon, IsActive: m.IsActive, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toProductModel(p domain.Product) productModel {
	return productModel{
		ProductID:    p.ProductID,
		SellerID:     p.SellerID,
		CategoryID:   p.CategoryID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		ShippingCost: p.ShippingCost,
		ImageURLs:    jsonText(p.ImageURLs, "[]"),
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toDomainProduct(m productModel) domain.Product {
	return domain.Product{
		ProductID:    m.ProductID,
		SellerID:     m.SellerID,
		CategoryID:   m.CategoryID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		ShippingCost: m.ShippingCost,
		ImageURLs:    fromJSON[[]string](m.ImageURLs),
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toCampaignModel(c domain.Campaign) campaignModel {
	return campaignModel{
		CampaignID:             c.CampaignID,
		SellerID:               c.SellerID,
		CategoryID:             c.CategoryID,
		Title:                  c.Title,
		Description:            c.Description,
		StartDate:              c.StartDate,
		EndDate:                c.EndDate,
		TotalSlots:             c.TotalSlots,
		AvailableSlots:         c.AvailableSlots,
		AutoAcceptApplications: c.AutoAcceptApplications,
		Status:                 string(c.Status),
		Offers:                 jsonText(c.Offers, "[]"),
		Procedure:              jsonText(c.Procedure, "[]"),
		Criteria:               jsonText(c.Criteria, "{}"),
		EscrowAmount:           c.EscrowAmount,
		PaymentIntentID:        c.PaymentIntentID,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
		ActivatedAt:            c.ActivatedAt,
		CompletedAt:            c.CompletedAt,
		CancelledAt:            c.CancelledAt,
	}
}

func toDomainCampaign(m campaignModel) domain.Campaign {
	return domain.Campaign{
		CampaignID:             m.CampaignID,
		SellerID:               m.SellerID,
		CategoryID:             m.CategoryID,
		Title:                  m.Title,
		Description:            m.Description,
		StartDate:              m.StartDate,
		EndDate:                m.EndDate,
		TotalSlots:             m.TotalSlots,
		AvailableSlots:         m.AvailableSlots,
		AutoAcceptApplications: m.AutoAcceptApplications,
		Status:                 domain.CampaignStatus(m.Status),
		Offers:                 fromJSON[[]domain.CampaignOffer](m.Offers),
		Procedure:              fromJSON[[]domain.ProcedureStep](m.Procedure),
		Criteria:               fromJSON[domain.CampaignCriteria](m.Criteria),
		EscrowAmount:           m.EscrowAmount,
		PaymentIntentID:        m.PaymentIntentID,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
		ActivatedAt:            m.ActivatedAt,
		CompletedAt:            m.CompletedAt,
		CancelledAt:            m.CancelledAt,
	}
}

func toSessionModel(s domain.Session) sessionModel {
	return sessionModel{
		SessionID:          s.SessionID,
		CampaignID:         s.CampaignID,
		TesterID:           s.TesterID,
		SellerID:           s.SellerID,
		Status:             string(s.Status),
		ApplicationMessage: s.ApplicationMessage,
		RejectionReason:    s.RejectionReason,
		CancellationReason: s.CancellationReason,
		OrderNumber:        s.OrderNumber,
		PurchaseProofURL:   s.PurchaseProofURL,
		ProductPrice:       s.ProductPrice,
		ShippingCost:       s.ShippingCost,
		Answers:            jsonText(s.Answers, "[]"),
		SellerRating:       s.SellerRating,
		SellerComment:      s.SellerComment,
		RewardAmount:       s.RewardAmount,
		RewardCredited:     s.RewardCredited,
		AppliedAt:          s.AppliedAt,
		AcceptedAt:         s.AcceptedAt,
		RejectedAt:         s.RejectedAt,
		PurchasedAt:        s.PurchasedAt,
		SubmittedAt:        s.SubmittedAt,
		CompletedAt:        s.CompletedAt,
		CancelledAt:        s.CancelledAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func toDomainSession(m sessionModel) domain.Session {
	return domain.Session{
		SessionID:          m.SessionID,
		CampaignID:         m.CampaignID,
		TesterID:           m.TesterID,
		SellerID:           m.SellerID,
		Status:             domain.SessionStatus(m.Status),
		ApplicationMessage: m.ApplicationMessage,
		RejectionReason:    m.RejectionReason,
		CancellationReason: m.CancellationReason,
		OrderNumber:        m.OrderNumber,
		PurchaseProofURL:   m.PurchaseProofURL,
		ProductPrice:       m.ProductPrice,
		ShippingCost:       m.ShippingCost,
		Answers:            fromJSON[[]domain.StepAnswer](m.Answers),
		SellerRating:       m.SellerRating,
		SellerComment:      m.SellerComment,
		RewardAmount:       m.RewardAmount,
		RewardCredited:     m.RewardCredited,
		AppliedAt:          m.AppliedAt,
		AcceptedAt:         m.AcceptedAt,
		RejectedAt:         m.RejectedAt,
		PurchasedAt:        m.PurchasedAt,
		SubmittedAt:        m.SubmittedAt,
		CompletedAt:        m.CompletedAt,
		CancelledAt:        m.CancelledAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toBonusTaskModel(t domain.BonusTask) bonusTaskModel {
	return bonusTaskModel{
		TaskID:          t.TaskID,
		SessionID:       t.SessionID,
		CampaignID:      t.CampaignID,
		SellerID:        t.SellerID,
		TesterID:        t.TesterID,
		Type:            string(t.Type),
		Title:           t.Title,
		Description:     t.Description,
		Reward:          t.Reward,
		Status:          string(t.Status),
		SubmissionURLs:  jsonText(t.SubmissionURLs, "[]"),
		RejectionReason: t.RejectionReason,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		SubmittedAt:     t.SubmittedAt,
		ValidatedAt:     t.ValidatedAt,
	}
}

func toDomainBonusTask(m bonusTaskModel) domain.BonusTask {
	return domain.BonusTask{
		TaskID:          m.TaskID,
		SessionID:       m.SessionID,
		CampaignID:      m.CampaignID,
		SellerID:        m.SellerID,
		TesterID:        m.TesterID,
		Type:            domain.BonusTaskType(m.Type),
		Title:           m.Title,
		Description:     m.Description,
		Reward:          m.Reward,
		Status:          domain.BonusTaskStatus(m.Status),
		SubmissionURLs:  fromJSON[[]string](m.SubmissionURLs),
		RejectionReason: m.RejectionReason,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		SubmittedAt:     m.SubmittedAt,
		ValidatedAt:     m.ValidatedAt,
	}
}

func toDisputeModel(d domain.Dispute) disputeModel {
	return disputeModel{
		DisputeID:             d.DisputeID,
		SessionID:             d.SessionID,
		CampaignID:            d.CampaignID,
		TesterID:              d.TesterID,
		SellerID:              d.SellerID,
		OpenedBy:              d.OpenedBy,
		Reason:                string(d.Reason),
		Description:           d.Description,
		EvidenceURLs:          jsonText(d.EvidenceURLs, "[]"),
		Status:                string(d.Status),
		Resolution:            string(d.Resolution),
		RefundAmount:          d.RefundAmount,
		ResolutionNotes:       d.ResolutionNotes,
		ResolvedBy:            d.ResolvedBy,
		AssignedAdminID:       d.AssignedAdminID,
		PreviousSessionStatus: string(d.PreviousSessionStatus),
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
		ResolvedAt:            d.ResolvedAt,
	}
}

func toDomainDispute(m disputeModel) domain.Dispute {
	return domain.Dispute{
		DisputeID:             m.DisputeID,
		SessionID:             m.SessionID,
		CampaignID:            m.CampaignID,
		TesterID:              m.TesterID,
		SellerID:              m.SellerID,
		OpenedBy:              m.OpenedBy,
		Reason:                domain.DisputeReason(m.Reason),
		Description:           m.Description,
		EvidenceURLs:          fromJSON[[]string](m.EvidenceURLs),
		Status:                domain.DisputeStatus(m.Status),
		Resolution:            domain.DisputeResolution(m.Resolution),
		RefundAmount:          m.RefundAmount,
		ResolutionNotes:       m.ResolutionNotes,
		ResolvedBy:            m.ResolvedBy,
		AssignedAdminID:       m.AssignedAdminID,
		PreviousSessionStatus: domain.SessionStatus(m.PreviousSessionStatus),
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
		ResolvedAt:            m.ResolvedAt,
	}
}

func toDomainWallet(m walletModel) domain.Wallet {
	return domain.Wallet{
		WalletID: m.WalletID, UserID: m.UserID, Balance: m.Balance, TotalEarned: m.TotalEarned,
		TotalWithdrawn: m.TotalWithdrawn, Currency: m.Currency, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toDomainTransaction(m walletTransactionModel) domain.WalletTransaction {
	return domain.WalletTransaction{
		TransactionID: m.TransactionID,
		WalletID:      m.WalletID,
		UserID:        m.UserID,
		Type:          domain.TransactionType(m.Type),
		Reason:        domain.TransactionReason(m.Reason),
		Amount:        m.Amount,
		BalanceAfter:  m.BalanceAfter,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
}

func toWithdrawalModel(w domain.Withdrawal) withdrawalModel {
	return withdrawalModel{
		WithdrawalID:     w.WithdrawalID,
		UserID:           w.UserID,
		Amount:           w.Amount,
		Currency:         w.Currency,
		Method:           string(w.Method),
		GiftCardProvider: string(w.GiftCardProvider),
		GiftCardCode:     w.GiftCardCode,
		Status:           string(w.Status),
		StripeTransferID: w.StripeTransferID,
		FailureReason:    w.FailureReason,
		ProcessedBy:      w.ProcessedBy,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
		ProcessedAt:      w.ProcessedAt,
		CompletedAt:      w.CompletedAt,
	}
}

func toDomainWithdrawal(m withdrawalModel) domain.Withdrawal {
	return domain.Withdrawal{
		WithdrawalID:     m.WithdrawalID,
		UserID:           m.UserID,
		Amount:           m.Amount,
		Currency:         m.Currency,
		Method:           domain.WithdrawalMethod(m.Method),
		GiftCardProvider: domain.GiftCardProvider(m.GiftCardProvider),
		GiftCardCode:     m.GiftCardCode,
		Status:           domain.WithdrawalStatus(m.Status),
		StripeTransferID: m.StripeTransferID,
		FailureReason:    m.FailureReason,
		ProcessedBy:      m.ProcessedBy,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		ProcessedAt:      m.ProcessedAt,
		CompletedAt:      m.CompletedAt,
	}
}

func toDomainReview(m reviewModel) domain.Review {
	return domain.Review{
		ReviewID: m.ReviewID, SessionID: m.SessionID, CampaignID: m.CampaignID, ProductID: m.ProductID,
		TesterID: m.TesterID, Rating: m.Rating, Comment: m.Comment, CreatedAt: m.CreatedAt,
	}
}

func toDomainNotification(m notificationModel) domain.Notification {
	return domain.Notification{
		NotificationID: m.NotificationID,
		UserID:         m.UserID,
		Type:           domain.NotificationType(m.Type),
		Title:          m.Title,
		Body:           m.Body,
		Data:           fromJSON[map[string]string](m.Data),
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

func toDomainSystemLog(m systemLogModel) domain.SystemLog {
	return domain.SystemLog{
		LogID:     m.LogID,
		Level:     domain.LogLevel(m.Level),
		Category:  domain.LogCategory(m.Category),
		Message:   m.Message,
		UserID:    m.UserID,
		Metadata:  fromJSON[map[string]string](m.Metadata),
		CreatedAt: m.CreatedAt,
	}
}

func toOutboxRecord(m outboxModel) ports.OutboxRecord {
	return ports.OutboxRecord{
		OutboxID: m.OutboxID, EventType: m.EventType, PartitionKey: m.PartitionKey,
		Payload: []byte(m.Payload), RetryCount: m.RetryCount, PublishedAt: m.PublishedAt,
		LastError: m.LastError, LastErrorAt: m.LastErrorAt, FirstSeenAt: m.FirstSeenAt,
	}
}
