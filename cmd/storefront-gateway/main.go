package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/milsabores/storefront-gateway/internal/api/handlers"
	"github.com/milsabores/storefront-gateway/internal/api/middleware"
	"github.com/milsabores/storefront-gateway/internal/cache"
	"github.com/milsabores/storefront-gateway/internal/config"
	"github.com/milsabores/storefront-gateway/internal/health"
	"github.com/milsabores/storefront-gateway/internal/metrics"
	service "github.com/milsabores/storefront-gateway/internal/services"
	"github.com/milsabores/storefront-gateway/internal/store"
	"github.com/milsabores/storefront-gateway/pkg/bakery"
	"github.com/milsabores/storefront-gateway/pkg/sendGrid"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// State store setup, backend chosen at deploy time
	var (
		st           store.Store
		productCache cache.Cache
		err          error
	)

	switch cfg.Storage.Backend {
	case "memory":
		st = store.NewMemoryStore()
		productCache = cache.NewMemoryCache(cfg.Cache.CatalogTTL)
	case "file":
		st, err = store.NewFileStore(cfg.Storage.FileDir)
		if err != nil {
			slog.Error("❌ Error opening the state directory", "error", err.Error())
			os.Exit(1)
		}
		productCache = cache.NewMemoryCache(cfg.Cache.CatalogTTL)
	case "redis":
		redisClient, redisErr := store.NewRedisClient(cfg)
		if redisErr != nil {
			slog.Error("❌ Error accessing the redis instance", "error", redisErr.Error())
			os.Exit(1)
		}
		st = store.NewRedisStore(redisClient)
		productCache = cache.NewRedisCache(redisClient, cfg.Cache.CatalogTTL)
	case "postgres":
		db, dbErr := store.OpenPostgres(cfg)
		if dbErr != nil {
			slog.Error("❌ Error accessing the database", "error", dbErr.Error())
			os.Exit(1)
		}
		st = store.NewPostgresStore(db)
		productCache = cache.NewMemoryCache(cfg.Cache.CatalogTTL)
	default:
		slog.Error("❌ Unknown storage backend", slog.String("backend", cfg.Storage.Backend))
		os.Exit(1)
	}

	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("⚠️ Error closing the state store", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ State store closed")
		}
	}()

	jwtKey := []byte(cfg.Security.JWTKey)
	bakeryClient := bakery.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	sendGridClient := sendGrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	notificationService := service.NewNotificationService(st)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	sessionService := service.NewSessionService(bakeryClient, st, notificationService, jwtKey, cfg.Security.SessionTTL, cfg.Security.RevalidateInterval)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	productService := service.NewProductService(bakeryClient, productCache, cfg.Cache.CatalogTTL)
	productHandler := handlers.NewProductHandler(productService)
	cartService := service.NewCartService(st)
	cartHandler := handlers.NewCartHandler(cartService, productService)
	checkoutService := service.NewCheckoutService(st, bakeryClient, cartService, notificationService, sendGridClient, cfg.Checkout.MinLeadTime, cfg.Checkout.SyncRetryAfter)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	orderService := service.NewOrderService(st)
	orderHandler := handlers.NewOrderHandler(orderService)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey, sessionService)

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error creating the health instance", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("backend", cfg.Storage.Backend), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/sessions/login", sessionHandler.Login())
	routerMux.HandleFunc("POST /api/v1/sessions/logout", authMiddleware.Authenticate(sessionHandler.Logout()))
	routerMux.HandleFunc("POST /api/v1/sessions/register", sessionHandler.Register())
	routerMux.HandleFunc("GET /api/v1/sessions/profile", authMiddleware.Authenticate(sessionHandler.Profile()))
	routerMux.HandleFunc("PATCH /api/v1/sessions/profile", authMiddleware.Authenticate(sessionHandler.UpdateProfile()))
	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{code}", productHandler.GetProduct())
	routerMux.HandleFunc("GET /api/v1/carts", authMiddleware.Identify(cartHandler.GetCart()))
	routerMux.HandleFunc("POST /api/v1/carts/items", authMiddleware.Identify(cartHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/v1/carts/items/{id}/quantity", authMiddleware.Identify(cartHandler.UpdateQuantity()))
	routerMux.HandleFunc("PUT /api/v1/carts/items/{id}/message", authMiddleware.Identify(cartHandler.UpdateMessage()))
	routerMux.HandleFunc("DELETE /api/v1/carts/items/{id}", authMiddleware.Identify(cartHandler.RemoveItem()))
	routerMux.HandleFunc("DELETE /api/v1/carts", authMiddleware.Identify(cartHandler.Clear()))
	routerMux.HandleFunc("POST /api/v1/checkout", authMiddleware.Identify(checkoutHandler.Commit()))
	routerMux.HandleFunc("POST /api/v1/orders/{id}/sync", authMiddleware.Identify(checkoutHandler.Sync()))
	routerMux.HandleFunc("GET /api/v1/orders/last", authMiddleware.Identify(orderHandler.LastOrder()))
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Identify(orderHandler.History()))
	routerMux.HandleFunc("POST /api/v1/orders/track", orderHandler.Track())
	routerMux.HandleFunc("GET /api/v1/admin/orders", authMiddleware.RequireAdmin(orderHandler.ListAll()))
	routerMux.HandleFunc("GET /api/v1/notifications", authMiddleware.Identify(notificationHandler.List()))
	routerMux.HandleFunc("DELETE /api/v1/notifications", authMiddleware.Identify(notificationHandler.Clear()))
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /status", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = metrics.Middleware(routerMux)
	handler = middleware.Logging(handler)

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {

		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

}
