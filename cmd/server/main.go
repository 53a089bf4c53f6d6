package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sampada-shukla/workeye/internal/client"
	"github.com/sampada-shukla/workeye/internal/config"
	"github.com/sampada-shukla/workeye/internal/handler"
	appMiddleware "github.com/sampada-shukla/workeye/internal/middleware"
	"github.com/sampada-shukla/workeye/internal/repository"
	"github.com/sampada-shukla/workeye/internal/service"
	"github.com/sampada-shukla/workeye/internal/ws"
	"github.com/sampada-shukla/workeye/pkg/payment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()

	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	if err := repository.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Println("database connected & migrated")

	// External collaborators
	licensing := client.NewLicensingClient(cfg.LicensingURL, cfg.LicensingAPIKey)
	gateway := payment.NewClient(cfg.PaymentsURL, cfg.LicensingAPIKey, cfg.RazorpayKeySecret)

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	txnRepo := repository.NewTransactionRepository(db)
	checkoutSvc := service.NewCheckoutService(licensing, licensing, gateway, txnRepo, cfg.AppURL, cfg.GatewayTimeout)

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	plansHandler := handler.NewPlansHandler()
	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc)
	adminHandler := handler.NewAdminHandler(checkoutSvc)
	streamHandler := ws.NewCheckoutStreamHandler(checkoutSvc, authSvc)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	// Public routes
	r.Get("/health", healthHandler.Check)
	r.Get("/api/plans", plansHandler.List)

	// Checkout status stream (auth via query param)
	r.HandleFunc("/api/payment/checkout/{attemptId}/events", streamHandler.Handle)

	// Protected API routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(authSvc))

		r.Post("/api/payment/checkout", checkoutHandler.Confirm)
		r.Get("/api/payment/transaction/{id}", checkoutHandler.GetTransaction)

		// Verification gets a stricter limit: one callback per payment.
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.StrictRateLimiter())
			r.Post("/api/payment/verify", checkoutHandler.Verify)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.AdminOnly)
			r.Get("/api/admin/transactions/stuck", adminHandler.StuckTransactions)
		})
	})

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// WriteTimeout stays 0 for the WebSocket status stream
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("WorkEye billing service listening at http://%s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
