// Package cargo_api exposes the shipments service as a JSON HTTP API.
package cargo_api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/BearBump/CargoBox/internal/models"
	"github.com/BearBump/CargoBox/internal/services/shipments"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Service interface {
	Onboard(ctx context.Context, in shipments.OnboardInput) (*models.User, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	Home(ctx context.Context) (shipments.Home, error)
	Profile(ctx context.Context) (shipments.Profile, error)
	ListMyShipments(ctx context.Context) ([]shipments.ShipmentView, error)
	CreateShipment(ctx context.Context, trackNumber string) (*models.Shipment, error)
	ConfirmPayment(ctx context.Context, shipmentID string) (*models.Shipment, error)
	Settings(ctx context.Context) (shipments.Settings, error)
	UpdateSettings(ctx context.Context, lang models.Language, theme models.Theme) (shipments.Settings, error)
	AdminSearch(ctx context.Context, query string, awaitingOnly bool) ([]shipments.ShipmentView, error)
	PendingVerificationCount(ctx context.Context) (int, error)
	AssignWeightPrice(ctx context.Context, shipmentID string, weight float64, price int64) (*models.Shipment, error)
	VerifyPayment(ctx context.Context, shipmentID string, approve bool) (*models.Shipment, error)
	MarkDelivered(ctx context.Context, shipmentID string) (*models.Shipment, error)
	Logout(ctx context.Context) error
}

type CargoAPI struct {
	svc Service
	log *zap.Logger
}

func New(svc Service, logger *zap.Logger) *CargoAPI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CargoAPI{svc: svc, log: logger.With(zap.String("handler", "cargo"))}
}

// Routes mounts the API with request logging and panic recovery.
func (a *CargoAPI) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(Recover(a.log), RequestLogger(a.log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ok(w, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/onboarding", a.Onboard)
		r.Get("/me", a.Me)
		r.Get("/home", a.Home)
		r.Get("/profile", a.Profile)

		r.Get("/shipments", a.ListShipments)
		r.Post("/shipments", a.CreateShipment)
		r.Post("/shipments/{id}/payment-claim", a.ClaimPayment)

		r.Get("/settings", a.GetSettings)
		r.Put("/settings", a.UpdateSettings)
		r.Post("/logout", a.Logout)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/shipments", a.AdminSearch)
			r.Get("/pending-count", a.PendingCount)
			r.Put("/shipments/{id}/weight-price", a.AssignWeightPrice)
			r.Post("/shipments/{id}/verify", a.VerifyPayment)
			r.Post("/shipments/{id}/deliver", a.MarkDelivered)
		})
	})
	return r
}

// handleServiceError maps service errors to HTTP codes. Unknown errors are logged and hidden.
func (a *CargoAPI) handleServiceError(w http.ResponseWriter, err error, op string) {
	var le *shipments.LocalizedError
	switch {
	case errors.As(err, &le):
		badRequest(w, le.Message, nil)
	case errors.Is(err, shipments.ErrInvalidInput), errors.Is(err, shipments.ErrInvalidTrackNumber):
		badRequest(w, err.Error(), nil)
	case errors.Is(err, shipments.ErrNoUser):
		writeJSON(w, http.StatusUnauthorized, false, "Onboarding required", nil, nil)
	case errors.Is(err, shipments.ErrForbidden):
		writeJSON(w, http.StatusForbidden, false, "Forbidden", nil, nil)
	case errors.Is(err, shipments.ErrNotFound):
		writeJSON(w, http.StatusNotFound, false, "Shipment not found", nil, nil)
	case errors.Is(err, shipments.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, false, err.Error(), nil, nil)
	default:
		a.log.Error(op+" failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, false, "Internal server error", nil, nil)
	}
}

type onboardingRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	TelegramID string `json:"telegramId" validate:"required,max=32"`
	Phone      string `json:"phone" validate:"required,min=7,max=20"`
}

func (a *CargoAPI) Onboard(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := a.svc.Onboard(r.Context(), shipments.OnboardInput{
		Name:       req.Name,
		ExternalID: req.TelegramID,
		Phone:      req.Phone,
	})
	if err != nil {
		a.handleServiceError(w, err, "onboard")
		return
	}
	created(w, u)
}

func (a *CargoAPI) Me(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.CurrentUser(r.Context())
	if err != nil {
		a.handleServiceError(w, err, "current user")
		return
	}
	ok(w, u)
}

func (a *CargoAPI) Home(w http.ResponseWriter, r *http.Request) {
	h, err := a.svc.Home(r.Context())
	if err != nil {
		a.handleServiceError(w, err, "home")
		return
	}
	ok(w, h)
}

func (a *CargoAPI) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.Profile(r.Context())
	if err != nil {
		a.handleServiceError(w, err, "profile")
		return
	}
	ok(w, p)
}

func (a *CargoAPI) ListShipments(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.ListMyShipments(r.Context())
	if err != nil {
		a.handleServiceError(w, err, "list shipments")
		return
	}
	ok(w, list)
}

type createShipmentRequest struct {
	TrackNumber string `json:"trackNumber" validate:"required,max=64"`
}

func (a *CargoAPI) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var req createShipmentRequest
	if !decode(w, r, &req) {
		return
	}
	sh, err := a.svc.CreateShipment(r.Context(), req.TrackNumber)
	if err != nil {
		a.handleServiceError(w, err, "create shipment")
		return
	}
	created(w, sh)
}

func (a *CargoAPI) ClaimPayment(w http.ResponseWriter, r *http.Request) {
	sh, err := a.svc.ConfirmPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.handleServiceError(w, err, "confirm payment")
		return
	}
	ok(w, sh)
}

func (a *CargoAPI) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.Settings(r.Context())
	if err != nil {
		a.handleServiceError(w, err, "settings")
		return
	}
	ok(w, st)
}

type settingsRequest struct {
	Language string `json:"language" validate:"omitempty,oneof=uz ru en"`
	Theme    string `json:"theme" validate:"omitempty,oneof=light dark"`
}

func (a *CargoAPI) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := a.svc.UpdateSettings(r.Context(), models.Language(req.Language), models.Theme(req.Theme))
	if err != nil {
		a.handleServiceError(w, err, "update settings")
		return
	}
	ok(w, st)
}

func (a *CargoAPI) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Logout(r.Context()); err != nil {
		a.handleServiceError(w, err, "logout")
		return
	}
	ok(w, nil)
}

func (a *CargoAPI) AdminSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	awaiting := false
	if v := q.Get("awaiting"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "awaiting must be a boolean", nil)
			return
		}
		awaiting = b
	}
	list, err := a.svc.AdminSearch(r.Context(), q.Get("q"), awaiting)
	if err != nil {
		a.handleServiceError(w, err, "admin search")
		return
	}
	ok(w, list)
}

func (a *CargoAPI) PendingCount(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.PendingVerificationCount(r.Context())
	if err != nil {
		a.handleServiceError(w, err, "pending count")
		return
	}
	ok(w, map[string]int{"count": n})
}

type weightPriceRequest struct {
	Weight *float64 `json:"weight" validate:"required,gte=0"`
	Price  *int64   `json:"price" validate:"required,gte=0"`
}

func (a *CargoAPI) AssignWeightPrice(w http.ResponseWriter, r *http.Request) {
	var req weightPriceRequest
	if !decode(w, r, &req) {
		return
	}
	sh, err := a.svc.AssignWeightPrice(r.Context(), chi.URLParam(r, "id"), *req.Weight, *req.Price)
	if err != nil {
		a.handleServiceError(w, err, "assign weight and price")
		return
	}
	ok(w, sh)
}

type verifyRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

func (a *CargoAPI) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decode(w, r, &req) {
		return
	}
	sh, err := a.svc.VerifyPayment(r.Context(), chi.URLParam(r, "id"), *req.Approve)
	if err != nil {
		a.handleServiceError(w, err, "verify payment")
		return
	}
	ok(w, sh)
}

func (a *CargoAPI) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	sh, err := a.svc.MarkDelivered(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.handleServiceError(w, err, "mark delivered")
		return
	}
	ok(w, sh)
}
