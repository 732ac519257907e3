package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/obi2na/courier/config"
	"github.com/obi2na/courier/internal/api"
	"github.com/obi2na/courier/internal/db"
	"github.com/obi2na/courier/internal/logger"
	"github.com/obi2na/courier/internal/service/bootstrap"
	"go.uber.org/zap"
)

func main() {
	var env string
	var useSecretManager bool
	flag.StringVar(&env, "env", "", "environment name")
	flag.BoolVar(&useSecretManager, "secrets", false, "read secrets from Google Secret Manager")
	flag.Parse()

	_ = godotenv.Load() //load .env if present

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var injector config.SecretInjector
	if useSecretManager {
		gcp, err := config.NewGCPSecretInjector(ctx)
		if err != nil {
			log.Fatalf("secret manager: %v", err)
		}
		defer gcp.Close()
		injector = gcp
	}

	c, err := config.LoadConfig(env, injector)
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger.Init()
	defer logger.Sync()

	pool, err := db.Connect(ctx, c.DB)
	if err != nil {
		logger.With(ctx).Fatal("database unavailable", zap.Error(err))
	}
	defer pool.Close()

	container := bootstrap.NewServiceContainer(pool, c)

	router := gin.New()
	router.Use(gin.Recovery())
	api.RegisterRoutes(router, container, c)

	srv := &http.Server{
		Addr:              ":" + c.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.With(ctx).Info("Starting Courier", zap.String("port", c.Port), zap.String("env", c.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.With(ctx).Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.With(ctx).Error("graceful shutdown failed", zap.Error(err))
	}
}
