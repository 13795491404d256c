package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/Rrens/parley/internal/api/middleware"
	"github.com/Rrens/parley/internal/api/response"
	"github.com/Rrens/parley/internal/domain"
)

// CampaignService is the campaign surface used by CampaignHandler
type CampaignService interface {
	Create(ctx context.Context, userID uuid.UUID, input domain.CampaignCreate) (*domain.Campaign, error)
	GetByID(ctx context.Context, userID, campaignID uuid.UUID) (*domain.Campaign, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Campaign, error)
	AddMember(ctx context.Context, userID, campaignID uuid.UUID, input domain.MemberAdd) (*domain.CampaignMember, error)
	History(ctx context.Context, userID, campaignID uuid.UUID, limit int) ([]domain.HistoryEntry, error)
}

// CampaignHandler handles campaign endpoints
type CampaignHandler struct {
	campaignService CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignService CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// Create handles campaign creation
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.CampaignCreate
	if !bind(w, r, &input, false) {
		return
	}

	campaign, err := h.campaignService.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, campaign)
}

// List handles listing the caller's campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	campaigns, err := h.campaignService.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, campaigns)
}

// Get handles getting a campaign by ID
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, campaignID, ok := scope(w, r)
	if !ok {
		return
	}

	campaign, err := h.campaignService.GetByID(r.Context(), userID, campaignID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, campaign)
}

// AddMember handles inviting an existing user into the campaign
func (h *CampaignHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, campaignID, ok := scope(w, r)
	if !ok {
		return
	}

	var input domain.MemberAdd
	if !bind(w, r, &input, false) {
		return
	}

	member, err := h.campaignService.AddMember(r.Context(), userID, campaignID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, member)
}

// History handles listing the campaign's narrative record
func (h *CampaignHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, campaignID, ok := scope(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.campaignService.History(r.Context(), userID, campaignID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.List(w, entries, len(entries), limit, 0)
}

// scope reads the caller and campaign placed in context by middleware
func scope(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	campaignID, ok := middleware.GetCampaignID(r.Context())
	if !ok {
		response.BadRequest(w, "missing campaign ID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, campaignID, true
}
