package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/gatekey"
	"github.com/MrEthical07/gatekey/httpapi"
	"github.com/MrEthical07/gatekey/session"
	"github.com/MrEthical07/gatekey/store"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	secret := os.Getenv("GATEKEY_JWT_SECRET")
	if secret == "" {
		return errors.New("GATEKEY_JWT_SECRET is required")
	}

	cfg := gatekey.DefaultConfig()
	cfg.Token.Secret = []byte(secret)
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true

	var userStore gatekey.UserStore
	if addr := os.Getenv("GATEKEY_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()
		userStore = store.NewRedis(client, "")
		log.Printf("using redis store at %s", addr)
	} else {
		userStore = store.NewMemory()
		log.Print("GATEKEY_REDIS_ADDR not set; using in-memory store (accounts are lost on restart)")
	}

	engine, err := gatekey.New().
		WithConfig(cfg).
		WithUserStore(userStore).
		WithAuditSink(gatekey.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	limiter, err := httpapi.NewLimiter(cfg.RateLimit)
	if err != nil {
		return err
	}
	defer limiter.Close()

	transport, err := session.NewTransport(session.Config{
		Name:     cfg.Cookie.Name,
		Path:     cfg.Cookie.Path,
		Secure:   cfg.Cookie.Secure,
		SameSite: cfg.Cookie.SameSite,
		TTL:      cfg.Token.TTL,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           httpapi.New(engine, limiter, transport),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Print("shutting down")
	return server.Shutdown(shutdownCtx)
}
