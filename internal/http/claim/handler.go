package claim

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidbridge/aidbridge/internal/campaign"
	"github.com/aidbridge/aidbridge/internal/merchant"
	"github.com/aidbridge/aidbridge/internal/money"
	"github.com/aidbridge/aidbridge/internal/reconcile"
)

type Handler struct {
	reconciler *reconcile.Reconciler
	asset      money.Asset
}

func NewHandler(reconciler *reconcile.Reconciler, asset money.Asset) *Handler {
	return &Handler{reconciler: reconciler, asset: asset}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.submit)
}

type submitClaimRequest struct {
	Reference   string `json:"reference"`
	TargetKind  string `json:"target_kind"`
	TargetID    string `json:"target_id"`
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
	Donor       string `json:"donor,omitempty"`
}

type submitClaimResponse struct {
	ClaimID string `json:"claim_id"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	amount, err := money.Parse(req.Amount, h.asset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.reconciler.Submit(r.Context(), reconcile.Claim{
		Reference:   req.Reference,
		TargetKind:  reconcile.TargetKind(req.TargetKind),
		TargetID:    req.TargetID,
		Destination: req.Destination,
		Amount:      amount,
		Donor:       req.Donor,
	})
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrInvalidClaim):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, campaign.ErrNotFound), errors.Is(err, merchant.ErrNotFound):
			http.Error(w, "claim target not found", http.StatusNotFound)
		case errors.Is(err, money.ErrAssetMismatch):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	status := http.StatusOK
	if result.State == reconcile.StatePending {
		// Nothing was credited; the caller should resubmit later.
		status = http.StatusAccepted
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := submitClaimResponse{
		ClaimID: result.ClaimID.String(),
		Status:  string(result.State),
		Reason:  string(result.Reason),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
