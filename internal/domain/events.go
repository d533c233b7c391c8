package domain

const (
	EventClassDomain = "domain"
	EventClassOps    = "ops"
)

const (
	EventUserRegistered      = "user.registered"
	EventCampaignActivated   = "campaign.activated"
	EventCampaignCompleted   = "campaign.completed"
	EventCampaignCancelled   = "campaign.cancelled"
	EventSessionApplied      = "session.applied"
	EventSessionAccepted     = "session.accepted"
	EventSessionRejected     = "session.rejected"
	EventSessionCancelled    = "session.cancelled"
	EventSessionCompleted    = "session.completed"
	EventBonusTaskCreated    = "bonus_task.created"
	EventBonusTaskValidated  = "bonus_task.validated"
	EventDisputeOpened       = "dispute.opened"
	EventDisputeResolved     = "dispute.resolved"
	EventWithdrawalRequested = "withdrawal.requested"
	EventWithdrawalCompleted = "withdrawal.completed"
	EventWithdrawalFailed    = "withdrawal.failed"
	EventReviewCreated       = "review.created"
)

// NotifiableEvents are the event types the notification consumer subscribes to.
var NotifiableEvents = []string{
	EventSessionApplied,
	EventSessionAccepted,
	EventSessionRejected,
	EventSessionCompleted,
	EventBonusTaskCreated,
	EventDisputeOpened,
	EventDisputeResolved,
	EventWithdrawalCompleted,
	EventWithdrawalFailed,
}
