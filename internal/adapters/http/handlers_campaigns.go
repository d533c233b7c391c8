package http

import (
	"errors"
	"net/http"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
)

type setOffersRequest struct {
	Offers []domain.CampaignOffer `json:"offers"`
}

type setProcedureRequest struct {
	Steps []application.ProcedureStepInput `json:"steps"`
}

func (h *Handler) createCampaign(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req application.CampaignInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_campaign", err)
		return
	}
	campaign, err := h.service.CreateCampaign(r.Context(), actor, req)
	respond(w, r, "create_campaign", http.StatusCreated, campaign, err)
}

func (h *Handler) updateCampaign(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "update_campaign", err)
		return
	}
	var req application.CampaignInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_campaign", err)
		return
	}
	campaign, err := h.service.UpdateCampaign(r.Context(), actor, campaignID, req)
	respond(w, r, "update_campaign", http.StatusOK, campaign, err)
}

func (h *Handler) setOffers(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "set_offers", err)
		return
	}
	var req setOffersRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "set_offers", err)
		return
	}
	campaign, err := h.service.SetOffers(r.Context(), actor, campaignID, req.Offers)
	respond(w, r, "set_offers", http.StatusOK, campaign, err)
}

func (h *Handler) setProcedure(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "set_procedure", err)
		return
	}
	var req setProcedureRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "set_procedure", err)
		return
	}
	campaign, err := h.service.SetProcedure(r.Context(), actor, campaignID, req.Steps)
	respond(w, r, "set_procedure", http.StatusOK, campaign, err)
}

func (h *Handler) setCriteria(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "set_criteria", err)
		return
	}
	var req domain.CampaignCriteria
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "set_criteria", err)
		return
	}
	campaign, err := h.service.SetCriteria(r.Context(), actor, campaignID, req)
	respond(w, r, "set_criteria", http.StatusOK, campaign, err)
}

func (h *Handler) activateCampaign(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "activate_campaign", err)
		return
	}
	result, err := h.service.ActivateCampaign(r.Context(), actor, campaignID)
	respond(w, r, "activate_campaign", http.StatusOK, result, err)
}

func (h *Handler) confirmCampaignPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "confirm_campaign_payment", err)
		return
	}
	campaign, err := h.service.ConfirmCampaignPayment(r.Context(), actor, campaignID)
	respond(w, r, "confirm_campaign_payment", http.StatusOK, campaign, err)
}

func (h *Handler) cancelCampaign(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "cancel_campaign", err)
		return
	}
	var req application.ReasonInput
	if err := decodeOptionalBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "cancel_campaign", err)
		return
	}
	campaign, err := h.service.CancelCampaign(r.Context(), actor, campaignID, req)
	respond(w, r, "cancel_campaign", http.StatusOK, campaign, err)
}

func (h *Handler) listActiveCampaigns(w http.ResponseWriter, r *http.Request) {
	categoryID, err := optionalUUIDQuery(r, "category_id")
	if err != nil {
		writeValidationError(r.Context(), w, "list_active_campaigns", err)
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.ListActiveCampaigns(r.Context(), application.ListCampaignsQuery{
		CategoryID: categoryID,
		Search:     r.URL.Query().Get("search"),
		Limit:      limit,
		Offset:     offset,
	})
	respond(w, r, "list_active_campaigns", http.StatusOK, page, err)
}

func (h *Handler) listMyCampaigns(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.ListMyCampaigns(r.Context(), actor, r.URL.Query().Get("status"), limit, offset)
	respond(w, r, "list_my_campaigns", http.StatusOK, page, err)
}

func (h *Handler) getCampaign(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_campaign", err)
		return
	}
	campaign, err := h.service.GetCampaign(r.Context(), actor, campaignID)
	respond(w, r, "get_campaign", http.StatusOK, campaign, err)
}

// checkEligibility defaults to the calling tester when no tester_id is given.
func (h *Handler) checkEligibility(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "check_tester_eligibility", err)
		return
	}
	testerID := actor.UserID
	explicit, err := optionalUUIDQuery(r, "tester_id")
	if err != nil {
		writeValidationError(r.Context(), w, "check_tester_eligibility", err)
		return
	}
	if explicit != nil {
		testerID = *explicit
	} else if actor.Role != domain.RoleTester {
		writeValidationError(r.Context(), w, "check_tester_eligibility", errors.New("tester_id is required"))
		return
	}
	result, err := h.service.CheckTesterEligibility(r.Context(), actor, campaignID, testerID)
	respond(w, r, "check_tester_eligibility", http.StatusOK, result, err)
}

func (h *Handler) eligibleTesters(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_eligible_testers", err)
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.GetEligibleTesters(r.Context(), actor, campaignID, limit, offset)
	respond(w, r, "get_eligible_testers", http.StatusOK, page, err)
}
