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

	"decorly/admin"
	"decorly/auth"
	"decorly/bookings"
	"decorly/db"
	"decorly/decorators"
	"decorly/gateway"
	"decorly/globals"
	"decorly/live"
	"decorly/middleware"
	"decorly/mq"
	"decorly/payments"
	"decorly/ratelim"
	"decorly/rdx"
	"decorly/routes"
	"decorly/services"
	"decorly/trackings"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}
	globals.Init()

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	if err := db.Connect(mongoURI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	if err := rdx.Init(redisAddr); err != nil {
		log.Printf("Redis unavailable, running without cache and event bus: %v", err)
	}

	guard := middleware.NewAuthGuard(db.UserCollection, rdx.Conn)
	emitter := mq.NewEmitter(rdx.Conn)
	gw := gateway.New(os.Getenv("GATEWAY_KEY"))
	feed := live.NewFeed(db.BookingsCollection, db.ServicesCollection, guard)

	authSvc := auth.NewService(db.UserCollection, rdx.Conn)
	decSvc := decorators.NewService(db.ApplicationsCollection, db.UserCollection, guard)
	bookingSvc := bookings.NewService(db.BookingsCollection)
	paySvc := payments.NewService(db.BookingsCollection, db.PaymentsCollection, db.TrackingsCollection, gw, emitter)
	serviceSvc := services.NewService(db.ServicesCollection, db.BookingsCollection, db.PaymentsCollection, db.TrackingsCollection, emitter)
	trackSvc := trackings.NewService(db.TrackingsCollection, db.BookingsCollection, db.ServicesCollection, guard)
	adminSvc := admin.NewService(db.UserCollection, guard)

	// lifecycle events → websocket subscribers
	notifierCtx, stopNotifier := context.WithCancel(context.Background())
	go emitter.StartNotifier(notifierCtx, feed.Broadcast)

	rateLimiter := ratelim.NewRateLimiter()

	router := httprouter.New()
	router.GET("/health", Index)
	routes.AddAuthRoutes(router, rateLimiter, authSvc)
	routes.AddDecoratorRoutes(router, rateLimiter, guard, decSvc)
	routes.AddBookingRoutes(router, rateLimiter, guard, bookingSvc)
	routes.AddPaymentRoutes(router, rateLimiter, paySvc)
	routes.AddServiceRoutes(router, rateLimiter, guard, serviceSvc)
	routes.AddTrackingRoutes(router, trackSvc)
	routes.AddLiveRoutes(router, feed)
	routes.AddAdminRoutes(router, guard, adminSvc)

	// middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		stopNotifier()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			log.Printf("Failed to close MongoDB connection: %v", err)
		}
		if rdx.Conn != nil {
			if err := rdx.Conn.Close(); err != nil {
				log.Printf("Failed to close Redis connection: %v", err)
			}
		}
	})

	go func() {
		log.Printf("Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	log.Println("Server stopped cleanly")
}
