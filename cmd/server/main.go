package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/arnavshah/pair-overlap-api/pkg/auth"
	"github.com/arnavshah/pair-overlap-api/pkg/config"
	"github.com/arnavshah/pair-overlap-api/pkg/database"
	"github.com/arnavshah/pair-overlap-api/pkg/handlers"
	"github.com/arnavshah/pair-overlap-api/pkg/logging"
	"github.com/arnavshah/pair-overlap-api/pkg/metrics"
	"github.com/arnavshah/pair-overlap-api/pkg/middleware"
	"github.com/arnavshah/pair-overlap-api/pkg/store"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("could not load configuration")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("could not open database")
	}

	authSvc := auth.NewService(cfg.Auth)
	if created, err := authSvc.EnsureAdminExists(db, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		logger.WithError(err).Fatal("could not ensure admin user")
	} else if created {
		logger.WithField("username", cfg.Auth.AdminUsername).Info("created admin user")
	}

	sessions := store.NewRegistry(nil)
	sweeper, err := store.StartSweeper(sessions, cfg.Session.TTL, cfg.Session.SweepInterval, logger)
	if err != nil {
		logger.WithError(err).Fatal("could not start session sweeper")
	}
	defer sweeper.Stop()

	h := handlers.New(db, authSvc, sessions, cfg, logger)

	r := gin.New()
	r.Use(logging.Middleware(logger), gin.Recovery(), middleware.CORS(cfg.CORSOrigins), metrics.Instrument())

	var apiMiddleware []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		limit, err := middleware.RateLimit(cfg.RateLimit, logger)
		if err != nil {
			logger.WithError(err).Fatal("could not configure rate limiting")
		}
		apiMiddleware = append(apiMiddleware, limit)
	}
	h.Register(r, apiMiddleware...)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gziphandler.GzipHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("could not run server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("forced shutdown")
	}
}
