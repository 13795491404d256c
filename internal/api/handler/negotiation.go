package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Rrens/parley/internal/api/response"
	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/llm"
)

// NegotiationService is the negotiation surface used by NegotiationHandler
type NegotiationService interface {
	Create(ctx context.Context, userID, campaignID uuid.UUID, input domain.NegotiationCreate) (*domain.Negotiation, error)
	Get(ctx context.Context, userID, campaignID uuid.UUID, id string) (*domain.Negotiation, error)
	List(ctx context.Context, userID, campaignID uuid.UUID, limit, offset int) ([]domain.Negotiation, error)
	Start(ctx context.Context, userID, campaignID uuid.UUID, id string) (*domain.Negotiation, error)
	RevealMotivation(ctx context.Context, userID, campaignID uuid.UUID, id, motivationType string) (*domain.Negotiation, error)
	RevealPitfall(ctx context.Context, userID, campaignID uuid.UUID, id string, index int) (*domain.Negotiation, error)
	ApplyArgument(ctx context.Context, userID, campaignID uuid.UUID, id string, input domain.ArgumentCreate) (*domain.ArgumentApplied, error)
	Complete(ctx context.Context, userID, campaignID uuid.UUID, id string) (*domain.Negotiation, error)
	Delete(ctx context.Context, userID, campaignID uuid.UUID, id string) error
	Traits(ctx context.Context, userID, campaignID uuid.UUID, id string) (*domain.TraitView, error)
	Suggest(ctx context.Context, userID, campaignID uuid.UUID, id string, input domain.SuggestionRequest) (*llm.Response, error)
}

// NegotiationHandler handles negotiation endpoints
type NegotiationHandler struct {
	negotiationService NegotiationService
}

// NewNegotiationHandler creates a new negotiation handler
func NewNegotiationHandler(negotiationService NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{negotiationService: negotiationService}
}

// Create handles negotiation authoring
func (h *NegotiationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, campaignID, ok := scope(w, r)
	if !ok {
		return
	}

	var input domain.NegotiationCreate
	if !bind(w, r, &input, false) {
		return
	}

	n, err := h.negotiationService.Create(r.Context(), userID, campaignID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, n)
}

// List handles listing a campaign's negotiations
func (h *NegotiationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, campaignID, ok := scope(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	items, err := h.negotiationService.List(r.Context(), userID, campaignID, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.List(w, items, len(items), limit, offset)
}

// Get handles reading one negotiation
func (h *NegotiationHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.negotiation(w, r, h.negotiationService.Get)
}

// Start handles moving a negotiation from preparing to active
func (h *NegotiationHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.negotiation(w, r, h.negotiationService.Start)
}

// Complete handles ending a negotiation
func (h *NegotiationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.negotiation(w, r, h.negotiationService.Complete)
}

// RevealMotivation handles revealing a motivation by type
func (h *NegotiationHandler) RevealMotivation(w http.ResponseWriter, r *http.Request) {
	motivationType := chi.URLParam(r, "motivationType")
	h.negotiation(w, r, func(ctx context.Context, userID, campaignID uuid.UUID, id string) (*domain.Negotiation, error) {
		return h.negotiationService.RevealMotivation(ctx, userID, campaignID, id, motivationType)
	})
}

// RevealPitfall handles revealing a pitfall by position
func (h *NegotiationHandler) RevealPitfall(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		response.BadRequest(w, "invalid pitfall index")
		return
	}
	h.negotiation(w, r, func(ctx context.Context, userID, campaignID uuid.UUID, id string) (*domain.Negotiation, error) {
		return h.negotiationService.RevealPitfall(ctx, userID, campaignID, id, index)
	})
}

// ApplyArgument handles recording an argument
func (h *NegotiationHandler) ApplyArgument(w http.ResponseWriter, r *http.Request) {
	userID, campaignID, ok := scope(w, r)
	if !ok {
		return
	}

	var input domain.ArgumentCreate
	if !bind(w, r, &input, false) {
		return
	}

	result, err := h.negotiationService.ApplyArgument(r.Context(), userID, campaignID, chi.URLParam(r, "negotiationID"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, result)
}

// Delete handles removing a negotiation that has not been completed
func (h *NegotiationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, campaignID, ok := scope(w, r)
	if !ok {
		return
	}

	if err := h.negotiationService.Delete(r.Context(), userID, campaignID, chi.URLParam(r, "negotiationID")); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w)
}

// Traits handles the known/concealed trait projection
func (h *NegotiationHandler) Traits(w http.ResponseWriter, r *http.Request) {
	userID, campaignID, ok := scope(w, r)
	if !ok {
		return
	}

	view, err := h.negotiationService.Traits(r.Context(), userID, campaignID, chi.URLParam(r, "negotiationID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, view)
}

// Suggest handles requesting argument ideas from a content provider
func (h *NegotiationHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	userID, campaignID, ok := scope(w, r)
	if !ok {
		return
	}

	var input domain.SuggestionRequest
	if !bind(w, r, &input, true) {
		return
	}

	resp, err := h.negotiationService.Suggest(r.Context(), userID, campaignID, chi.URLParam(r, "negotiationID"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, resp)
}

type negotiationOp func(ctx context.Context, userID, campaignID uuid.UUID, id string) (*domain.Negotiation, error)

func (h *NegotiationHandler) negotiation(w http.ResponseWriter, r *http.Request, op negotiationOp) {
	userID, campaignID, ok := scope(w, r)
	if !ok {
		return
	}

	n, err := op(r.Context(), userID, campaignID, chi.URLParam(r, "negotiationID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, n)
}
