package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CampaignStatus string

const (
	CampaignStatusDraft          CampaignStatus = "DRAFT"
	CampaignStatusPendingPayment CampaignStatus = "PENDING_PAYMENT"
	CampaignStatusActive         CampaignStatus = "ACTIVE"
	CampaignStatusCompleted      CampaignStatus = "COMPLETED"
	CampaignStatusCancelled      CampaignStatus = "CANCELLED"
)

var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignStatusDraft:          {CampaignStatusPendingPayment, CampaignStatusActive, CampaignStatusCancelled},
	CampaignStatusPendingPayment: {CampaignStatusActive, CampaignStatusCancelled},
	CampaignStatusActive:         {CampaignStatusCompleted, CampaignStatusCancelled},
}

func ValidateCampaignTransition(from, to CampaignStatus) error {
	for _, allowed := range campaignTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: campaign %s -> %s", ErrInvalidStateTransition, from, to)
}

type StepType string

const (
	StepTypeText      StepType = "TEXT"
	StepTypePhoto     StepType = "PHOTO"
	StepTypeVideo     StepType = "VIDEO"
	StepTypeChecklist StepType = "CHECKLIST"
	StepTypeRating    StepType = "RATING"
)

func IsValidStepType(t StepType) bool {
	switch t {
	case StepTypeText, StepTypePhoto, StepTypeVideo, StepTypeChecklist, StepTypeRating:
		return true
	default:
		return false
	}
}

type ProcedureStep struct {
	StepID         uuid.UUID `json:"step_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Type           StepType  `json:"type"`
	Order          int       `json:"order"`
	IsRequired     bool      `json:"is_required"`
	ChecklistItems []string  `json:"checklist_items,omitempty"`
}

// CampaignOffer is one product bundled into a campaign along with what the
// seller reimburses for it.
type CampaignOffer struct {
	ProductID          uuid.UUID        `json:"product_id"`
	Quantity           int              `json:"quantity"`
	ExpectedPrice      decimal.Decimal  `json:"expected_price"`
	ShippingCost       decimal.Decimal  `json:"shipping_cost"`
	ReimbursedPrice    bool             `json:"reimbursed_price"`
	ReimbursedShipping bool             `json:"reimbursed_shipping"`
	MaxReimbursedPrice *decimal.Decimal `json:"max_reimbursed_price,omitempty"`
	Bonus              decimal.Decimal  `json:"bonus"`
}

func (o CampaignOffer) priceCap() decimal.Decimal {
	if !o.ReimbursedPrice {
		return decimal.Zero
	}
	if o.MaxReimbursedPrice != nil {
		return *o.MaxReimbursedPrice
	}
	return o.ExpectedPrice
}

func (o CampaignOffer) shippingCap() decimal.Decimal {
	if !o.ReimbursedShipping {
		return decimal.Zero
	}
	return o.ShippingCost
}

// ExpectedReward is what one tester earns for this offer when the purchase
// matches the expected price.
func (o CampaignOffer) ExpectedReward() decimal.Decimal {
	qty := decimal.NewFromInt(int64(o.Quantity))
	price := decimal.Zero
	if o.ReimbursedPrice {
		price = decimal.Min(o.ExpectedPrice, o.priceCap())
	}
	return price.Add(o.shippingCap()).Add(o.Bonus).Mul(qty)
}

type Campaign struct {
	CampaignID             uuid.UUID        `json:"campaign_id"`
	SellerID               uuid.UUID        `json:"seller_id"`
	CategoryID             uuid.UUID        `json:"category_id"`
	Title                  string           `json:"title"`
	Description            string           `json:"description"`
	StartDate              time.Time        `json:"start_date"`
	EndDate                time.Time        `json:"end_date"`
	TotalSlots             int              `json:"total_slots"`
	AvailableSlots         int              `json:"available_slots"`
	AutoAcceptApplications bool             `json:"auto_accept_applications"`
	Status                 CampaignStatus   `json:"status"`
	Offers                 []CampaignOffer  `json:"offers"`
	Procedure              []ProcedureStep  `json:"procedure"`
	Criteria               CampaignCriteria `json:"criteria"`
	EscrowAmount           decimal.Decimal  `json:"escrow_amount"`
	PaymentIntentID        string           `json:"payment_intent_id,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
	ActivatedAt            *time.Time       `json:"activated_at,omitempty"`
	CompletedAt            *time.Time       `json:"completed_at,omitempty"`
	CancelledAt            *time.Time       `json:"cancelled_at,omitempty"`
}

func (c Campaign) IsEditable() bool {
	return c.Status == CampaignStatusDraft
}

func (c Campaign) AcceptsApplications(now time.Time) bool {
	return c.Status == CampaignStatusActive && c.AvailableSlots > 0 && !now.After(c.EndDate)
}

// RewardPerSlot is the amount one tester earns when every purchase matches
// the expected prices.
func (c Campaign) RewardPerSlot() decimal.Decimal {
	total := decimal.Zero
	for _, offer := range c.Offers {
		total = total.Add(offer.ExpectedReward())
	}
	return total
}

// ComputeReward caps the actual purchase amounts by what the offers reimburse
// and adds the bonuses.
func (c Campaign) ComputeReward(actualPrice, actualShipping decimal.Decimal) decimal.Decimal {
	priceCap := decimal.Zero
	shippingCap := decimal.Zero
	bonus := decimal.Zero
	for _, offer := range c.Offers {
		qty := decimal.NewFromInt(int64(offer.Quantity))
		priceCap = priceCap.Add(offer.priceCap().Mul(qty))
		shippingCap = shippingCap.Add(offer.shippingCap().Mul(qty))
		bonus = bonus.Add(offer.Bonus.Mul(qty))
	}
	price := decimal.Max(decimal.Zero, decimal.Min(actualPrice, priceCap))
	shipping := decimal.Max(decimal.Zero, decimal.Min(actualShipping, shippingCap))
	return price.Add(shipping).Add(bonus).Round(2)
}

// ComputeEscrow is the amount the seller pays up front: every slot at its
// expected reward plus the platform commission.
func (c Campaign) ComputeEscrow(commissionPercent decimal.Decimal) decimal.Decimal {
	base := c.RewardPerSlot().Mul(decimal.NewFromInt(int64(c.TotalSlots)))
	commission := base.Mul(commissionPercent).Div(decimal.NewFromInt(100))
	return base.Add(commission).Round(2)
}

func (c Campaign) ValidateForActivation(now time.Time) error {
	if len(c.Offers) == 0 {
		return fmt.Errorf("%w: campaign needs at least one product", ErrInvalidInput)
	}
	if len(c.Procedure) == 0 {
		return fmt.Errorf("%w: campaign needs a testing procedure", ErrInvalidInput)
	}
	if c.TotalSlots < 1 {
		return fmt.Errorf("%w: campaign needs at least one slot", ErrInvalidInput)
	}
	if !c.EndDate.After(c.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidInput)
	}
	if !c.EndDate.After(now) {
		return fmt.Errorf("%w: end date is in the past", ErrInvalidInput)
	}
	return nil
}

func (c Campaign) StepByID(stepID uuid.UUID) (ProcedureStep, bool) {
	for _, step := range c.Procedure {
		if step.StepID == stepID {
			return step, true
		}
	}
	return ProcedureStep{}, false
}
