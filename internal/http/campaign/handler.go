package campaign

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aidbridge/aidbridge/internal/campaign"
	"github.com/aidbridge/aidbridge/internal/money"
)

type Handler struct {
	svc   *campaign.Service
	asset money.Asset
}

func NewHandler(svc *campaign.Service, asset money.Asset) *Handler {
	return &Handler{svc: svc, asset: asset}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}/status", h.updateStatus)
}

type createCampaignRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	TargetAmount string    `json:"target_amount"`
	NGOWallet    string    `json:"ngo_wallet"`
	Location     string    `json:"location"`
	EndDate      time.Time `json:"end_date"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	target, err := money.Parse(req.TargetAmount, h.asset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.svc.Create(r.Context(), campaign.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Target:      target,
		NGOWallet:   req.NGOWallet,
		Location:    req.Location,
		EndDate:     req.EndDate,
	})
	if err != nil {
		if errors.Is(err, campaign.ErrInvalid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(c)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := campaign.ListFilter{
		Search:    r.URL.Query().Get("search"),
		NGOWallet: r.URL.Query().Get("ngo"),
	}

	if s := r.URL.Query().Get("category"); s != "" && s != "all" {
		filter.Category = new(s)
	}

	if s := r.URL.Query().Get("status"); s != "" && s != "all" {
		filter.Status = new(campaign.Status(s))
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			filter.Limit = n
		}
	}

	if s := r.URL.Query().Get("skip"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			filter.Skip = n
		}
	}

	campaigns, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toListResponse(campaigns, total, filter)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			http.Error(w, "campaign not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(c)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateStatusRequest struct {
	Status campaign.Status `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.svc.TransitionStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, campaign.ErrNotFound):
			http.Error(w, "campaign not found", http.StatusNotFound)
		case errors.Is(err, campaign.ErrInvalid):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
