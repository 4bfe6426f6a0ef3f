package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"uziwear-be/internal/auth"
	"uziwear-be/internal/catalog"
	"uziwear-be/internal/config"
	"uziwear-be/internal/coupon"
	"uziwear-be/internal/db"
	"uziwear-be/internal/order"
	"uziwear-be/internal/payment"
	"uziwear-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderService struct {
	order.Service

	createErr   error
	created     *order.Order
	gotUserID   string
	orderByID   *order.Order
	getOrderErr error
}

func (s *stubOrderService) CreateOrder(_ context.Context, input order.CheckoutInput) (*order.Order, error) {
	s.gotUserID = input.UserID
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.created, nil
}

func (s *stubOrderService) GetOrder(context.Context, string) (*order.Order, error) {
	return s.orderByID, s.getOrderErr
}

type stubGateway struct {
	checkoutCalls int
	gotReference  string
	gotAmount     int64
	checkoutURL   string
	checkoutErr   error
}

func (g *stubGateway) CreateCheckout(_ context.Context, reference, _ string, amountCOP int64) (*payment.CheckoutResponse, error) {
	g.checkoutCalls++
	g.gotReference = reference
	g.gotAmount = amountCOP
	if g.checkoutErr != nil {
		return nil, g.checkoutErr
	}
	return &payment.CheckoutResponse{
		Reference:   reference,
		CheckoutURL: g.checkoutURL,
	}, nil
}

func (g *stubGateway) GetStatus(context.Context, string) (*payment.TransactionStatus, error) {
	return nil, errors.New("not implemented")
}

func (g *stubGateway) VerifyCallback(*http.Request) error { return nil }

func checkoutBody() string {
	return `{
		"customer_name": "Laura Gomez",
		"customer_email": "laura@example.com",
		"customer_phone": "3001234567",
		"address": "Calle 10 # 43-12",
		"city": "Medellin",
		"department": "Antioquia",
		"items": [{"product_id": "prod-1", "size": "M", "quantity": 2}],
		"shipping_method": "estandar",
		"payment_method": "contraentrega"
	}`
}

func TestHandler_Checkout(t *testing.T) {
	t.Run("IdentityComesFromContext", func(t *testing.T) {
		svc := &stubOrderService{created: &order.Order{
			ID:            "order-1",
			OrderNumber:   "UZI-20250810-0042",
			Total:         192000,
			Status:        order.StatusPreparing,
			PaymentStatus: order.PaymentPending,
		}}
		h := NewHandler(nil, nil, svc, nil, &stubGateway{}, &config.Config{})

		body := `{"user_id": "forged-admin", ` + checkoutBody()[1:]
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
		ctx := utils.SetUserContext(req.Context(), "user-1", "laura@example.com", "customer")
		rec := httptest.NewRecorder()

		h.Checkout(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "user-1", svc.gotUserID)

		var resp checkoutResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "order-1", resp.OrderID)
		assert.Equal(t, int64(192000), resp.Total)
	})

	t.Run("AnonymousCheckoutIsGuest", func(t *testing.T) {
		svc := &stubOrderService{created: &order.Order{ID: "order-2"}}
		h := NewHandler(nil, nil, svc, nil, &stubGateway{}, &config.Config{})

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(checkoutBody()))
		rec := httptest.NewRecorder()

		h.Checkout(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, utils.GuestUserID, svc.gotUserID)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		h := NewHandler(nil, nil, &stubOrderService{}, nil, &stubGateway{}, &config.Config{})

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader("{oops"))
		rec := httptest.NewRecorder()

		h.Checkout(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Checkout_PaymentLink(t *testing.T) {
	cardBody := strings.Replace(checkoutBody(), "contraentrega", "tarjeta", 1)

	t.Run("OnlineMethodGetsCheckoutURL", func(t *testing.T) {
		svc := &stubOrderService{created: &order.Order{
			ID:            "order-1",
			CustomerEmail: "laura@example.com",
			Total:         192000,
			PaymentMethod: order.MethodCard,
			PaymentStatus: order.PaymentInitiated,
		}}
		gw := &stubGateway{checkoutURL: "https://checkout.wompi.co/l/link-1"}
		h := NewHandler(nil, nil, svc, nil, gw, &config.Config{})

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(cardBody))
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, gw.checkoutCalls)
		assert.Equal(t, "order-1", gw.gotReference)
		assert.Equal(t, int64(192000), gw.gotAmount)

		var resp checkoutResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "https://checkout.wompi.co/l/link-1", resp.CheckoutURL)
	})

	t.Run("CashOnDeliverySkipsGateway", func(t *testing.T) {
		svc := &stubOrderService{created: &order.Order{
			ID:            "order-2",
			PaymentMethod: order.MethodCOD,
		}}
		gw := &stubGateway{}
		h := NewHandler(nil, nil, svc, nil, gw, &config.Config{})

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(checkoutBody()))
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Zero(t, gw.checkoutCalls)

		var resp checkoutResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.CheckoutURL)
	})

	t.Run("GatewayFailureDoesNotFailCheckout", func(t *testing.T) {
		svc := &stubOrderService{created: &order.Order{
			ID:            "order-3",
			PaymentMethod: order.MethodPSE,
		}}
		gw := &stubGateway{checkoutErr: errors.New("wompi returned status 500")}
		h := NewHandler(nil, nil, svc, nil, gw, &config.Config{})

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(cardBody))
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp checkoutResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "order-3", resp.OrderID)
		assert.Empty(t, resp.CheckoutURL)
	})
}

func TestHandler_Checkout_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{
			"InsufficientStock",
			&catalog.InsufficientStockError{ProductID: "prod-1", Size: "M", Requested: 6, Available: 5},
			http.StatusUnprocessableEntity,
			"insufficient-stock",
		},
		{
			"InvalidCoupon",
			&coupon.InvalidError{Code: "vencido", Reason: coupon.ReasonExpired},
			http.StatusUnprocessableEntity,
			string(coupon.ReasonExpired),
		},
		{
			"ExhaustedCoupon",
			&coupon.InvalidError{Code: "launch", Reason: coupon.ReasonUsageExhausted},
			http.StatusUnprocessableEntity,
			string(coupon.ReasonUsageExhausted),
		},
		{
			"Validation",
			&order.ValidationError{Reason: "cart is empty"},
			http.StatusBadRequest,
			"",
		},
		{
			"VariantNotFound",
			catalog.ErrVariantNotFound,
			http.StatusNotFound,
			"",
		},
		{
			"TxConflict",
			db.ErrTxConflict,
			http.StatusConflict,
			"conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubOrderService{createErr: tt.err}
			h := NewHandler(nil, nil, svc, nil, &stubGateway{}, &config.Config{})

			req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(checkoutBody()))
			rec := httptest.NewRecorder()

			h.Checkout(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantReason, resp.Reason)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandler_GetOrder_NotFound(t *testing.T) {
	svc := &stubOrderService{getOrderErr: order.ErrOrderNotFound}
	h := NewHandler(nil, nil, svc, nil, &stubGateway{}, &config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/ghost", nil)
	rec := httptest.NewRecorder()

	h.GetOrder(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_AdminLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)

	cfg := &config.Config{
		AdminEmail:        "admin@uziwear.co",
		AdminPasswordHash: hash,
	}
	h := NewHandler(nil, nil, nil, nil, &stubGateway{}, cfg)

	login := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.AdminLogin(rec, req)
		return rec
	}

	t.Run("Success", func(t *testing.T) {
		rec := login(`{"email": "admin@uziwear.co", "password": "hunter2"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp loginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		claims, err := auth.ParseJWT(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		rec := login(`{"email": "admin@uziwear.co", "password": "hunter3"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongEmail", func(t *testing.T) {
		rec := login(`{"email": "otro@uziwear.co", "password": "hunter2"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestParseInt32(t *testing.T) {
	assert.Equal(t, int32(20), parseInt32("", 20))
	assert.Equal(t, int32(5), parseInt32("5", 20))
	assert.Equal(t, int32(20), parseInt32("abc", 20))
	assert.Equal(t, int32(20), parseInt32("99999999999999", 20))
}
