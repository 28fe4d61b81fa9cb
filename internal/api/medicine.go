package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"polycare/m/domain"
	"polycare/m/internal/ledger"
	"polycare/m/internal/reports"
)

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.reports.Medicines(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, medicines)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.reports.LowStock(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, medicines)
}

func (h *Handler) expiryAlerts(w http.ResponseWriter, r *http.Request) {
	days := reports.DefaultExpiryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive number")
			return
		}
		days = parsed
	}
	alerts, err := h.reports.ExpiryAlerts(r.Context(), days)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

func (h *Handler) listBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.reports.SellableBatches(r.Context(), chi.URLParam(r, "medicineId"))
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, batches)
}

func (h *Handler) stockValue(w http.ResponseWriter, r *http.Request) {
	lines, err := h.reports.StockValue(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, lines)
}

type restockRequest struct {
	MedicineID     string           `json:"medicineId" validate:"required"`
	Name           string           `json:"name" validate:"required"`
	Company        string           `json:"company"`
	Formulation    string           `json:"formulation"`
	Category       string           `json:"category"`
	ReorderLevel   *decimal.Decimal `json:"reorderLevel"`
	Quantity       decimal.Decimal  `json:"quantity"`
	BuyingPrice    decimal.Decimal  `json:"buyingPrice"`
	SellingPrice   decimal.Decimal  `json:"sellingPrice"`
	BatchNumber    string           `json:"batchNumber" validate:"required"`
	ExpiryDate     string           `json:"expiryDate" validate:"required"`
	ReceiptNo      string           `json:"receiptNo"`
	PharmacistName string           `json:"pharmacistName"`
}

type restockResponse struct {
	Msg        string          `json:"msg"`
	TotalStock decimal.Decimal `json:"totalStock"`
	Batch      *domain.Batch   `json:"batch"`
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	formulation, ok := domain.ParseFormulation(req.Formulation)
	if !ok {
		respondError(w, http.StatusBadRequest, "Unknown formulation")
		return
	}
	expiry, err := h.parseDate(req.ExpiryDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "expiryDate must be a date (YYYY-MM-DD)")
		return
	}

	res, err := h.ledger.Restock(r.Context(), ledger.RestockInput{
		MedicineID:     req.MedicineID,
		Name:           req.Name,
		Company:        req.Company,
		Formulation:    formulation,
		Category:       req.Category,
		ReorderLevel:   req.ReorderLevel,
		Quantity:       req.Quantity,
		BuyingPrice:    req.BuyingPrice,
		SellingPrice:   req.SellingPrice,
		BatchNumber:    req.BatchNumber,
		ExpiryDate:     expiry,
		ReceiptNo:      req.ReceiptNo,
		PharmacistName: req.PharmacistName,
	})
	if err != nil {
		h.fail(w, r, err, "Medicine not found")
		return
	}
	respondJSON(w, http.StatusOK, restockResponse{Msg: res.Message, TotalStock: res.TotalStock, Batch: res.Batch})
}

// parseDate accepts a calendar date in the report location or a full
// RFC 3339 timestamp.
func (h *Handler) parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return h.reports.ParseDay(value)
}
