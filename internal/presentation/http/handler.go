package httppresentation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/application"
	apporder "github.com/subham007-coder/Supar-Admin-Backend/internal/application/order"
	apppay "github.com/subham007-coder/Supar-Admin-Backend/internal/application/payment"
	domorder "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
	dompay "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/payment"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	headerUserID         = "X-User-ID"
	maxBodyBytes         = 1 << 20
)

// UseCases are the application entry points the router exposes.
type UseCases struct {
	PlaceOrder   application.UseCase[apporder.PlaceOrderInput, *apporder.PlaceOrderResult]
	GetOrder     application.UseCase[string, *domorder.Order]
	ListOrders   application.UseCase[apporder.ListUserOrdersInput, *domorder.UserOrders]
	UpdateStatus application.UseCase[apporder.UpdateStatusInput, *domorder.Order]
	EnsureIntent application.UseCase[apppay.EnsureIntentInput, *apppay.EnsureIntentResult]
}

type Options struct {
	// Currency applies to requests that omit one and to list aggregates.
	Currency string
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

type Handler struct {
	uc   UseCases
	opts Options
	log  observability.Logger
	tel  observability.Observability

	reqCounter   observability.Counter   // http_requests_total{method,route,status}
	durHistogram observability.Histogram // http_request_duration_seconds{method,route,status}
}

func NewHandler(uc UseCases, opts Options, tel observability.Observability) *Handler {
	tel = observability.Or(tel)
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	m := tel.Metrics()
	return &Handler{
		uc:           uc,
		opts:         opts,
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:          tel,
		reqCounter:   m.Counter(observability.MHTTPRequests),
		durHistogram: m.Histogram(observability.MHTTPRequestDuration),
	}
}

// Router wires Recoverer → trace/request logger → metrics → access log → route.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ObservabilityMiddleware(h.log, h.tel))
	r.Use(h.withHTTPMetrics)
	r.Use(h.withAccessLog)

	r.Post("/orders", h.handlePlaceOrder)
	r.Get("/orders/{id}", h.handleGetOrder)
	r.Patch("/orders/{id}/status", h.handleUpdateStatus)
	r.Get("/users/{userID}/orders", h.handleListUserOrders)
	r.Post("/payments/intent", h.handleEnsureIntent)
	r.Get("/health", h.handleHealth)
	if h.opts.Metrics != nil {
		r.Handle("/metrics", h.opts.Metrics)
	}
	return r
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := strings.TrimSpace(r.Header.Get(headerUserID))
	if userID == "" {
		writeError(w, http.StatusBadRequest, headerUserID+" header is required")
		return
	}

	in, err := req.toInput(userID, h.opts.Currency)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.uc.PlaceOrder.Execute(r.Context(), in)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCreateOrderResponse(res))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.GetOrder.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *Handler) handleListUserOrders(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.uc.ListOrders.Execute(r.Context(), apporder.ListUserOrdersInput{
		UserID: chi.URLParam(r, "userID"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserOrdersResponse(res, h.opts.Currency))
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.uc.UpdateStatus.Execute(r.Context(), apporder.UpdateStatusInput{
		OrderID: chi.URLParam(r, "id"),
		Status:  req.Status,
	})
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *Handler) handleEnsureIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = h.opts.Currency
	}

	amount, err := dompay.ToMinorUnits(req.Total, currency)
	if err != nil {
		writeError(w, http.StatusBadRequest, "total: "+err.Error())
		return
	}

	res, err := h.uc.EnsureIntent.Execute(r.Context(), apppay.EnsureIntentInput{
		IntentID: req.PaymentIntentID,
		Amount:   amount,
		Currency: currency,
	})
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaymentIntentResponse(res.Intent, res.Created))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

// writeUseCaseError maps the application error kind onto a status code.
func writeUseCaseError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), application.Message(err))
}

func statusFor(err error) int {
	switch application.KindOf(err) {
	case application.KindValidation:
		return http.StatusBadRequest
	case application.KindNotFound:
		return http.StatusNotFound
	case application.KindConflict:
		return http.StatusConflict
	case application.KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
