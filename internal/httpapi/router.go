package httpapi

import (
	"net/http"

	"uziwear-be/internal/middleware"
	"uziwear-be/internal/payment/webhook"

	"github.com/go-chi/chi/v5"
)

func NewRouter(h *Handler, webhookHandler *webhook.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.AuthMiddleware)
	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)

		r.Post("/checkout", h.Checkout)
		r.Post("/coupons/validate", h.ValidateCoupon)

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{id}", h.GetOrder)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.AdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Post("/products", h.CreateProduct)
				r.Put("/products/{id}", h.UpdateProduct)
				r.Delete("/products/{id}", h.DeleteProduct)

				r.Get("/coupons", h.ListCoupons)
				r.Post("/coupons", h.CreateCoupon)
				r.Delete("/coupons/{code}", h.DeleteCoupon)

				r.Patch("/orders/{id}/status", h.UpdateOrderStatus)
				r.Post("/orders/{id}/tracking", h.AttachTracking)

				r.Get("/stats", h.Stats)
			})
		})
	})

	r.Post("/webhooks/payment", webhookHandler.HandleCallback)

	return r
}
