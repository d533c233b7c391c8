package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adelipop59/super-try-api-sub002/internal/contracts"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
)

func (s *Service) CreateReview(ctx context.Context, actor Actor, input ReviewInput) (domain.Review, error) {
	if err := requireRole(actor, domain.RoleTester); err != nil {
		return domain.Review{}, err
	}
	if err := domain.ValidateRating(input.Rating); err != nil {
		return domain.Review{}, err
	}
	comment := strings.TrimSpace(input.Comment)
	if err := domain.ValidateText("comment", comment, 0, 2000); err != nil {
		return domain.Review{}, err
	}
	session, campaign, err := s.testerSession(ctx, actor, input.SessionID)
	if err != nil {
		return domain.Review{}, err
	}
	if session.Status != domain.SessionStatusCompleted {
		return domain.Review{}, fmt.Errorf("%w: only completed sessions can be reviewed", domain.ErrConflict)
	}
	if len(campaign.Offers) == 0 {
		return domain.Review{}, fmt.Errorf("%w: campaign has no product", domain.ErrConflict)
	}
	review := domain.Review{
		ReviewID:   uuid.New(),
		SessionID:  session.SessionID,
		CampaignID: campaign.CampaignID,
		ProductID:  campaign.Offers[0].ProductID,
		TesterID:   actor.UserID,
		Rating:     input.Rating,
		Comment:    comment,
		CreatedAt:  s.nowFn(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return domain.Review{}, err
	}
	s.emit(ctx, domain.EventReviewCreated, "product_id", review.ProductID.String(), contracts.ReviewPayload{
		ReviewID:   review.ReviewID.String(),
		SessionID:  review.SessionID.String(),
		ProductID:  review.ProductID.String(),
		TesterID:   review.TesterID.String(),
		Rating:     review.Rating,
		CampaignID: review.CampaignID.String(),
	})
	return review, nil
}

func (s *Service) ListProductReviews(ctx context.Context, productID uuid.UUID, limit, offset int) (Page[domain.Review], error) {
	limit, offset = domain.NormalizePage(limit, offset)
	items, total, err := s.reviews.ListByProduct(ctx, productID, limit, offset)
	if err != nil {
		return Page[domain.Review]{}, err
	}
	return Page[domain.Review]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) ListCampaignReviews(ctx context.Context, campaignID uuid.UUID, limit, offset int) (Page[domain.Review], error) {
	limit, offset = domain.NormalizePage(limit, offset)
	items, total, err := s.reviews.ListByCampaign(ctx, campaignID, limit, offset)
	if err != nil {
		return Page[domain.Review]{}, err
	}
	return Page[domain.Review]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}
