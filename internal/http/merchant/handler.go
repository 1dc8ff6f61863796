package merchant

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aidbridge/aidbridge/internal/merchant"
)

type Handler struct {
	svc *merchant.Service
}

func NewHandler(svc *merchant.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.register)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/verify", h.verify)
}

type registerMerchantRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	WalletAddress string `json:"wallet_address"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

type merchantResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	WalletAddress string     `json:"wallet_address"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Verified      bool       `json:"verified"`
	TotalOrders   int64      `json:"total_orders"`
	TotalRevenue  string     `json:"total_revenue"`
	CreatedAt     time.Time  `json:"created_at"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
}

func toResponse(m *merchant.Merchant) merchantResponse {
	return merchantResponse{
		ID:            m.ID,
		Name:          m.Name,
		Category:      m.Category,
		WalletAddress: m.WalletAddress,
		Email:         m.Email,
		Phone:         m.Phone,
		Verified:      m.Verified,
		TotalOrders:   m.TotalOrders,
		TotalRevenue:  m.TotalRevenue.Display(),
		CreatedAt:     m.CreatedAt,
		VerifiedAt:    m.VerifiedAt,
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerMerchantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.svc.Register(r.Context(), merchant.RegisterParams{
		Name:          req.Name,
		Category:      req.Category,
		WalletAddress: req.WalletAddress,
		Email:         req.Email,
		Phone:         req.Phone,
	})
	if err != nil {
		if errors.Is(err, merchant.ErrInvalid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(m)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := merchant.ListFilter{}

	if s := r.URL.Query().Get("category"); s != "" {
		filter.Category = new(s)
	}

	if s := r.URL.Query().Get("verified"); s != "" {
		filter.Verified = new(s == "true")
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

	merchants, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]merchantResponse, len(merchants))
	for i, m := range merchants {
		items[i] = toResponse(m)
	}

	w.Header().Set("Content-Type", "application/json")

	err = json.NewEncoder(w).Encode(map[string]any{
		"merchants": items,
		"total":     total,
		"limit":     filter.Limit,
		"skip":      filter.Skip,
	})
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, merchant.ErrNotFound) {
			http.Error(w, "merchant not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(m)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Verify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, merchant.ErrNotFound) {
			http.Error(w, "merchant not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
