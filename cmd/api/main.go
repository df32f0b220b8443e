package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-checkout/internal/core/cache"
	"storefront-checkout/internal/core/config"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/metrics"
	"storefront-checkout/internal/core/server"
	"storefront-checkout/internal/core/storefront"
	cartadapter "storefront-checkout/internal/features/cart/adapters"
	carthandler "storefront-checkout/internal/features/cart/handler"
	cartservice "storefront-checkout/internal/features/cart/service"
	orderadapter "storefront-checkout/internal/features/orders/adapters"
	orderhandler "storefront-checkout/internal/features/orders/handler"
	orderservice "storefront-checkout/internal/features/orders/service"
	paymentadapter "storefront-checkout/internal/features/payments/adapters"
	paymenthandler "storefront-checkout/internal/features/payments/handler"
	paymentservice "storefront-checkout/internal/features/payments/service"
	sessionadapter "storefront-checkout/internal/features/session/adapters"
	sessionhandler "storefront-checkout/internal/features/session/handler"
	sessionservice "storefront-checkout/internal/features/session/service"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// @title Storefront Checkout API
// @version 1.0
// @description Backend-for-frontend of the storefront: sessions, cart, orders and payment reconciliation.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("storefront_url", cfg.Storefront.URL),
	)

	m := metrics.New()

	redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL, "checkout:")
	if err != nil {
		l.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisCache.Close()

	client := storefront.NewClient(cfg.Storefront, m)

	// Session
	sessionStore := sessionadapter.NewRedisSessionStore(redisCache, cfg.Redis.SessionTTL())
	sessionSvc := sessionservice.NewSessionService(sessionadapter.NewStorefrontAuthAdapter(client), sessionStore)
	requireSession := sessionhandler.RequireSession(sessionSvc)

	// Cart
	cartHdl := carthandler.NewCartHandler(cartservice.NewCartService(cartadapter.NewStorefrontCartAdapter(client)))

	// Orders
	orderAdapter := orderadapter.NewStorefrontOrderAdapter(client)
	orderHdl := orderhandler.NewOrderHandler(orderservice.NewOrderService(orderAdapter))

	// Payments
	widget := paymentadapter.NewCallbackWidget()
	checkout := paymentservice.NewCheckoutService(paymentservice.CheckoutDeps{
		Gateway:   paymentadapter.NewStorefrontPaymentAdapter(client),
		Orders:    orderAdapter,
		Widget:    widget,
		Callbacks: widget,
		Store:     paymentadapter.NewRedisStatusStore(redisCache),
		Sessions:  sessionStore,
		Metrics:   m,
	}, cfg.Payments)
	paymentHdl := paymenthandler.NewPaymentHandler(checkout, cfg.Payments.GatewayKeyID)

	// Logging out stops the session's reconciliations.
	sessionHdl := sessionhandler.NewSessionHandler(sessionSvc, cfg.Redis.SessionTTL(), checkout)

	srv := server.New(cfg, m)
	srv.RegisterHealth(map[string]server.HealthCheck{
		"redis":      redisCache.Ping,
		"storefront": client.Ping,
	})

	// Register Routes
	auth := srv.App.Group("/auth")
	auth.Post("/login", sessionHdl.Login)
	auth.Post("/register", sessionHdl.Register)
	auth.Post("/logout", sessionHdl.Logout)
	auth.Get("/role", requireSession, sessionHdl.Role)

	app := srv.App
	app.Get("/cart", requireSession, cartHdl.GetCart)
	app.Post("/cart/add", requireSession, cartHdl.AddItem)
	app.Put("/cart/reduce", requireSession, cartHdl.ReduceItem)
	app.Post("/orders", requireSession, orderHdl.PlaceOrder)
	app.Get("/orders/:id", requireSession, orderHdl.GetOrder)

	payments := app.Group("/payments", requireSession)
	payments.Post("/:orderId", paymentHdl.StartPayment)
	payments.Get("/:orderId", paymentHdl.GetStatus)
	payments.Delete("/:orderId", paymentHdl.CancelPayment)
	payments.Post("/:orderId/callback", paymentHdl.Callback)
	payments.Post("/:orderId/retry", paymentHdl.RetryPayment)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		l.Info("Shutting down", zap.String("signal", sig.String()))

		checkout.Shutdown()
		if err := srv.Shutdown(shutdownTimeout); err != nil {
			l.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
	l.Info("Server stopped")
}
