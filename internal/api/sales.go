package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"polycare/m/domain"
	"polycare/m/internal/ledger"
)

func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.DashboardStats(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

type checkoutRequest struct {
	MedicineID     string          `json:"medicineId" validate:"required"`
	QuantitySold   decimal.Decimal `json:"quantitySold"`
	PharmacistName string          `json:"pharmacistName"`
}

type checkoutResponse struct {
	Msg         string              `json:"msg"`
	SoldQty     decimal.Decimal     `json:"soldQty"`
	TotalPrice  decimal.Decimal     `json:"totalPrice"`
	Sale        *domain.Sale        `json:"sale"`
	Allocations []ledger.Allocation `json:"allocations"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.ledger.Checkout(r.Context(), ledger.CheckoutInput{
		MedicineID:     req.MedicineID,
		QuantitySold:   req.QuantitySold,
		PharmacistName: req.PharmacistName,
	})
	if err != nil {
		h.fail(w, r, err, "Medicine not found")
		return
	}
	respondJSON(w, http.StatusOK, checkoutResponse{
		Msg:         "Sold successfully",
		SoldQty:     res.SoldQty,
		TotalPrice:  res.TotalPrice,
		Sale:        res.Sale,
		Allocations: res.Allocations,
	})
}

func (h *Handler) profitSummary(w http.ResponseWriter, r *http.Request) {
	start, err := h.reports.ParseDay(r.URL.Query().Get("start"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "start must be a date (YYYY-MM-DD)")
		return
	}
	end, err := h.reports.ParseDay(r.URL.Query().Get("end"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "end must be a date (YYYY-MM-DD)")
		return
	}
	if end.Before(start) {
		respondError(w, http.StatusBadRequest, "end must not be before start")
		return
	}
	lines, err := h.reports.ProfitSummary(r.Context(), start, end)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, lines)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	day, err := h.reports.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be a date (YYYY-MM-DD)")
		return
	}
	sales, err := h.reports.History(r.Context(), day)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

func (h *Handler) reverseSale(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ledger.ReverseSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "Sale not found")
		return
	}
	respondMessage(w, http.StatusOK, "Sale reversed successfully")
}
