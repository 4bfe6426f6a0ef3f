package main

import (
	"net/http"

	"uziwear-be/internal/catalog"
	"uziwear-be/internal/config"
	"uziwear-be/internal/coupon"
	"uziwear-be/internal/db"
	"uziwear-be/internal/httpapi"
	"uziwear-be/internal/logger"
	"uziwear-be/internal/notify"
	"uziwear-be/internal/order"
	"uziwear-be/internal/payment"
	"uziwear-be/internal/payment/webhook"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	var notifier notify.Notifier = notify.Nop{}
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.L().Warn("notifications disabled", zap.Error(err))
		} else {
			notifier = amqpNotifier
			defer amqpNotifier.Close()
		}
	}

	catalogRepo := catalog.NewRepository(database)
	catalogSvc := catalog.NewService(catalogRepo)

	couponRepo := coupon.NewRepository(database)
	couponSvc := coupon.NewService(couponRepo, database)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(database, orderRepo, catalogRepo, couponSvc, notifier)
	statusSvc := order.NewStatusService(database, orderRepo, catalogRepo, notifier)

	gateway := payment.NewWompiGateway(cfg.WompiPublicKey, cfg.WompiPrivateKey, cfg.WompiCallbackToken)
	webhookHandler := webhook.NewHandler(orderSvc, gateway)

	handler := httpapi.NewHandler(catalogSvc, couponSvc, orderSvc, statusSvc, gateway, cfg)
	router := httpapi.NewRouter(handler, webhookHandler)

	logger.L().Info("server starting", zap.String("port", cfg.AppPort))
	if err := http.ListenAndServe(":"+cfg.AppPort, router); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
