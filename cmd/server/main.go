package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/invision-app/backend/internal/auth"
	"github.com/invision-app/backend/internal/chat"
	"github.com/invision-app/backend/internal/config"
	"github.com/invision-app/backend/internal/logger"
	"github.com/invision-app/backend/internal/middleware"
	"github.com/invision-app/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg := logger.New(cfg.Environment)
	defer logg.Sync()

	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	// Connect only fails on an unusable URI; an unreachable server shows
	// up at ping time instead.
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		// Keep serving; requests that need the store fail individually
		// with 500 instead of taking the whole process down.
		logg.Errorf("failed to connect to MongoDB: %v", err)
	} else {
		logg.Infof("connected to MongoDB")
	}
	cancelPing()

	users := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))

	// ── Redis (optional, enables auth rate limiting) ─────────
	var limiter middleware.Limiter
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logg.Errorf("redis connect: %v", err)
		} else {
			defer rdb.Close()
			limiter = middleware.NewRedisLimiter(rdb)
		}
	}

	// ── Handlers ─────────────────────────────────────────────
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	authHandler := auth.NewHandler(users, tokens, logg)

	gemini := chat.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, logg)
	chatHandler := chat.NewHandler(gemini, logg)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logg))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome to InVision"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.With(middleware.AuthRateLimit(limiter)).Post("/register", authHandler.Register)
	r.With(middleware.AuthRateLimit(limiter)).Post("/login", authHandler.Login)

	// /chat takes no bearer token; see DESIGN.md before changing that.
	r.Post("/chat", chatHandler.Chat)

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logg.Infof("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Infof("shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
