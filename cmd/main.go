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

	"chatgogo/store/internal/api/handler"
	"chatgogo/store/internal/app"
	"chatgogo/store/internal/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.Println("Starting chat store bridge...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Storage and stores
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start store: %v", err)
	}
	defer a.Close()

	// 2. Gin routes
	r := gin.Default()
	handler.NewHandler(a.Hub).Register(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 3. Hub and HTTP server until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Printf("INFO: Listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("ERROR: %v", err)
	}
	log.Println("Chat store bridge stopped.")
}
