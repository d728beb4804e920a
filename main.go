package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"questBoardAPI/handlers"
	"questBoardAPI/internal/db"
	"questBoardAPI/internal/notification"
	"questBoardAPI/internal/realtime"
	"questBoardAPI/middleware"
	"questBoardAPI/services"
)

var (
	dbPool              *pgxpool.Pool
	hub                 *realtime.Hub
	userService         *services.UserService
	notificationService *services.NotificationService
	catalogService      *services.CatalogService
	walletService       *services.WalletService
	goalService         *services.GoalService
	ledgerService       *services.LedgerService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	dbPool, err = db.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	log.Println("Successfully connected to Postgres")

	hub = realtime.NewHub()

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool)
	catalogService = services.NewCatalogService(dbPool, hub)
	walletService = services.NewWalletService(dbPool, hub)
	goalService = services.NewGoalService(dbPool, notificationService)
	ledgerService = services.NewLedgerService(dbPool, hub, walletService, notificationService)

	walletService.SetGoalEvaluator(goalService)
	walletService.Start()

	if err := catalogService.SeedCatalog(ctx); err != nil {
		log.Printf("Warning: Could not seed catalog: %v", err)
	}

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		walletService.Stop()
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	walletHandler := handlers.NewWalletHandler(walletService)
	goalHandler := handlers.NewGoalHandler(goalService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService)
	realtimeHandler := handlers.NewRealtimeHandler(hub)

	r := mux.NewRouter()

	// Websocket feed skips the rate limiter: one long-lived connection,
	// not per-request traffic.
	r.HandleFunc("/api/v1/realtime/ws", realtimeHandler.Subscribe)

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "questBoard-api"}`))
	}).Methods("GET")

	standardRouter.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")

	protected.HandleFunc("/board", catalogHandler.GetBoard).Methods("GET")
	protected.HandleFunc("/quests", catalogHandler.CreateQuest).Methods("POST")
	protected.HandleFunc("/shop-items", catalogHandler.CreateShopItem).Methods("POST")
	protected.HandleFunc("/catalog/{id}", catalogHandler.GetEntry).Methods("GET")
	protected.HandleFunc("/catalog/{id}", catalogHandler.UpdateEntry).Methods("PUT")
	protected.HandleFunc("/catalog/{id}", catalogHandler.DeleteEntry).Methods("DELETE")

	protected.HandleFunc("/quests/{id}/complete", ledgerHandler.CompleteQuest).Methods("POST")
	protected.HandleFunc("/shop-items/{id}/purchase", ledgerHandler.PurchaseShopItem).Methods("POST")
	protected.HandleFunc("/stats/streaks", ledgerHandler.GetStats).Methods("GET")
	protected.HandleFunc("/stats/recap", ledgerHandler.GetWeeklyRecap).Methods("GET")
	protected.HandleFunc("/progress/reset", ledgerHandler.ResetProgress).Methods("POST")

	protected.HandleFunc("/wallet", walletHandler.GetWallet).Methods("GET")
	protected.HandleFunc("/wallet/reset", walletHandler.ResetWallet).Methods("POST")

	protected.HandleFunc("/goals", goalHandler.GetGoals).Methods("GET")
	protected.HandleFunc("/goals", goalHandler.CreateGoal).Methods("POST")
	protected.HandleFunc("/goals/{id}", goalHandler.UpdateGoal).Methods("PUT")
	protected.HandleFunc("/goals/{id}", goalHandler.DeleteGoal).Methods("DELETE")

	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
