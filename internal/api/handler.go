package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"polycare/m/domain"
	"polycare/m/internal/ledger"
	"polycare/m/internal/observability"
	"polycare/m/internal/reports"
	"polycare/m/internal/store"
)

// Config carries the settings the HTTP layer needs.
type Config struct {
	Secret         string
	TokenTTL       time.Duration
	AllowedOrigins []string
	Production     bool
	// LoginRateLimit is the number of login and register attempts allowed
	// per client IP per minute.
	LoginRateLimit int
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	ledger   *ledger.Ledger
	reports  *reports.Service
	metrics  *observability.Metrics
	log      *zap.Logger
	validate *validator.Validate
	cfg      Config
}

func New(s *store.Store, l *ledger.Ledger, rep *reports.Service, metrics *observability.Metrics, log *zap.Logger, cfg Config) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.LoginRateLimit < 1 {
		cfg.LoginRateLimit = 10
	}
	return &Handler{
		store:    s,
		ledger:   l,
		reports:  rep,
		metrics:  metrics,
		log:      log,
		validate: validator.New(),
		cfg:      cfg,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(h.secureHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", "X-Auth-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(h.metrics.Middleware)

	r.Get("/", h.root)
	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(httprate.Limit(h.cfg.LoginRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
				r.Post("/register", h.register)
				r.Post("/login", h.login)
			})
			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware)
				r.Get("/profile", h.getProfile)
				r.Put("/profile", h.updateProfile)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware)

			r.Route("/medicine", func(r chi.Router) {
				r.Get("/all", h.listMedicines)
				r.Get("/low-stock", h.lowStock)
				r.Get("/expiry-alert", h.expiryAlerts)
				r.Get("/batches/{medicineId}", h.listBatches)
				r.With(h.requireRole(domain.RoleAdmin, domain.RolePharmacist)).Post("/add", h.restock)
				r.With(h.requireRole(domain.RoleAdmin)).Get("/admin/stock-value", h.stockValue)
			})

			r.Route("/sales", func(r chi.Router) {
				r.Get("/dashboard-stats", h.dashboardStats)
				r.Post("/checkout", h.checkout)
				r.Get("/profit-summary", h.profitSummary)
				r.Get("/history", h.history)
				r.With(h.requireRole(domain.RoleAdmin)).Delete("/{id}", h.reverseSale)
			})

			r.Route("/reports", func(r chi.Router) {
				r.With(h.requireRole(domain.RoleAdmin)).Get("/logs", h.auditLogs)
				r.Get("/business-summary", h.businessSummary)
			})
		})
	})

	return r
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Polycare API is live and running"))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.DB().PingContext(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail maps a domain or store error onto a status code and message.
// notFound is the message used when the error is store.ErrNotFound.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var stockErr *ledger.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		respondError(w, http.StatusBadRequest, stockErr.Error())
	case errors.Is(err, ledger.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "Please enter a valid quantity greater than 0")
	case errors.Is(err, ledger.ErrInvalidPrice):
		respondError(w, http.StatusBadRequest, "Prices must be zero or greater")
	case errors.Is(err, ledger.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNoValidBatches):
		respondError(w, http.StatusBadRequest, "No valid unexpired batches found!")
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrDuplicate):
		respondError(w, http.StatusBadRequest, "Record already exists")
	case errors.Is(err, ledger.ErrConcurrentUpdate):
		respondError(w, http.StatusConflict, "Stock changed while saving, please retry")
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "Server Error")
	}
}

// decodeAndValidate reads a JSON body and applies its validate tags.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := decodeJSON(r, dest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "Invalid request"
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "min":
			parts = append(parts, fe.Field()+" must be at least "+fe.Param()+" characters")
		case "oneof":
			parts = append(parts, fe.Field()+" must be one of "+fe.Param())
		case "email":
			parts = append(parts, fe.Field()+" must be a valid email")
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

// Helpers

// decodeJSON tolerates unknown fields; the web client posts whole forms.
func decodeJSON(r *http.Request, dest any) error {
	return json.NewDecoder(r.Body).Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondMessage(w, status, message)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"msg": message})
}
