package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"uziwear-be/internal/auth"
	"uziwear-be/internal/catalog"
	"uziwear-be/internal/config"
	"uziwear-be/internal/coupon"
	"uziwear-be/internal/db"
	"uziwear-be/internal/logger"
	"uziwear-be/internal/metrics"
	"uziwear-be/internal/order"
	"uziwear-be/internal/payment"
	"uziwear-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	products  catalog.Service
	coupons   coupon.Service
	orders    order.Service
	statusSvc order.StatusService
	gateway   payment.Gateway
	cfg       *config.Config
}

func NewHandler(
	products catalog.Service,
	coupons coupon.Service,
	orders order.Service,
	statusSvc order.StatusService,
	gateway payment.Gateway,
	cfg *config.Config,
) *Handler {
	return &Handler{
		products:  products,
		coupons:   coupons,
		orders:    orders,
		statusSvc: statusSvc,
		gateway:   gateway,
		cfg:       cfg,
	}
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *catalog.InsufficientStockError
	var couponErr *coupon.InvalidError
	var validationErr *order.ValidationError

	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrVariantNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.As(err, &stockErr):
		writeError(w, http.StatusUnprocessableEntity, stockErr.Error(), "insufficient-stock")
	case errors.As(err, &couponErr):
		writeError(w, http.StatusUnprocessableEntity, couponErr.Error(), string(couponErr.Reason))
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error(), "")
	case errors.Is(err, db.ErrTxConflict):
		writeError(w, http.StatusConflict, "could not complete the operation, please retry", "conflict")
	default:
		writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}

// --- Storefront ---

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := &catalog.ProductFilter{}
	if v := q.Get("category"); v != "" {
		filter.Category = &v
	}
	if v := q.Get("gender"); v != "" {
		filter.Gender = &v
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if v := q.Get("status"); v != "" {
		status := catalog.ProductStatus(v)
		filter.Status = &status
	}

	limit := parseInt32(q.Get("limit"), 20)
	page := parseInt32(q.Get("page"), 1)

	products, err := h.products.ListProducts(r.Context(), filter, limit, page)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var input order.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload", "")
		return
	}

	// Identity comes from the verified token, never from the body.
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		input.UserID = userID
	} else {
		input.UserID = utils.GuestUserID
	}

	created, err := h.orders.CreateOrder(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := newCheckoutResponse(created)

	// Online methods get a payment link after the order is committed. A
	// gateway failure never undoes the order; the shopper retries payment
	// and the webhook settles the final status.
	if created.PaymentMethod != order.MethodCOD {
		link, err := h.gateway.CreateCheckout(r.Context(), created.ID, created.CustomerEmail, created.Total)
		if err != nil {
			logger.FromCtx(r.Context()).Error("failed to create payment link",
				zap.String("order_id", created.ID),
				zap.Error(err),
			)
		} else {
			resp.CheckoutURL = link.CheckoutURL
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload", "")
		return
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		userID = utils.GuestUserID
	}

	snap, err := h.coupons.Validate(r.Context(), req.Code, req.CartTotal, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := &order.OrderFilterInput{}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if v := q.Get("status"); v != "" {
		status := order.OrderStatus(v)
		filter.Status = &status
	}
	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.DateTo = &t
		}
	}

	var sort *order.OrderSortInput
	if v := q.Get("sort"); v != "" {
		sort = &order.OrderSortInput{
			Field:     order.OrderSortField(v),
			Direction: q.Get("direction"),
		}
	}

	orders, err := h.orders.ListOrders(r.Context(), filter, sort,
		parseInt32(q.Get("limit"), 20), parseInt32(q.Get("page"), 1))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// --- Admin back office ---

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload", "")
		return
	}

	if req.Email != h.cfg.AdminEmail ||
		!auth.CheckPasswordHash(req.Password, h.cfg.AdminPasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials", "")
		return
	}

	token, err := auth.GenerateJWT("admin", "admin", req.Email)
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to issue admin token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload", "")
		return
	}

	created, err := h.products.CreateProduct(r.Context(), &p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload", "")
		return
	}
	p.ID = chi.URLParam(r, "id")

	if err := h.products.UpdateProduct(r.Context(), &p); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var c coupon.Coupon
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload", "")
		return
	}

	if err := h.coupons.Create(r.Context(), &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coupons)
}

func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		var couponErr *coupon.InvalidError
		if errors.As(err, &couponErr) {
			writeError(w, http.StatusNotFound, couponErr.Error(), string(couponErr.Reason))
			return
		}
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload", "")
		return
	}

	err := h.statusSvc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), order.OrderStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *Handler) AttachTracking(w http.ResponseWriter, r *http.Request) {
	var req trackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload", "")
		return
	}

	err := h.statusSvc.AttachTracking(r.Context(), chi.URLParam(r, "id"), req.TrackingNumber, req.Carrier)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":          string(order.StatusShipped),
		"tracking_number": req.TrackingNumber,
		"carrier":         req.Carrier,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint64{
		"orders_created":   metrics.OrdersCreated.Load(),
		"checkouts_failed": metrics.CheckoutsFailed.Load(),
	})
}

func parseInt32(s string, fallback int32) int32 {
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(n)
}
