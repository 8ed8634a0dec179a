package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shortlink-service/internal/config"
	"shortlink-service/internal/handler"
	"shortlink-service/internal/repository"
	"shortlink-service/internal/service"
	"shortlink-service/internal/throttle"

	"github.com/gorilla/handlers"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := db.Ping(); err != nil {
		log.Fatal("db ping:", err)
	}

	repo := repository.NewRepo(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		log.Fatal("schema:", err)
	}

	// Redis optional
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Println("redis ping failed:", err)
			rdb = nil
		} else {
			log.Println("redis connected")
		}
	}

	svc := service.NewService(repo, rdb, cfg.ShortHost)

	guard := throttle.NewGuard(cfg.GuardRPS, cfg.GuardBurst)
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	guard.StartJanitor(janitorCtx)

	h := handler.NewHandler(
		svc,
		throttle.NewCreateLimiter(cfg.CreateLimit, cfg.CreateWindow),
		throttle.NewDelayer(cfg.DelayWindow, cfg.DelayAfter, cfg.DelayStep, cfg.DelayMax),
		guard,
	)

	r := h.Routes()

	// CORS
	allowed := handlers.AllowedOrigins([]string{"*"})
	allowedHeaders := handlers.AllowedHeaders([]string{"Content-Type"})
	allowedMethods := handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handlers.CORS(allowed, allowedHeaders, allowedMethods)(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// graceful shutdown
	go func() {
		log.Printf("server listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown: %v", err)
	}

	if rdb != nil {
		_ = rdb.Close()
	}
	_ = db.Close()
	log.Println("server gracefully stopped")
}
