package handler

import (
	"net/http"
	"os"

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

var app http.Handler

func init() {
	// .env is only present under vercel dev
	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		logrus.WithError(err).Fatal("could not load configuration")
	}
	logger := logging.New(cfg.Log.Level, "json", os.Stdout)

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("could not open database")
	}
	authSvc := auth.NewService(cfg.Auth)
	if _, err := authSvc.EnsureAdminExists(db, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		logger.WithError(err).Error("could not ensure admin user")
	}

	// Function instances are short lived, so sessions expire with them
	// and no sweeper runs here.
	h := handlers.New(db, authSvc, store.NewRegistry(nil), cfg, logger)

	gin.SetMode(gin.ReleaseMode)
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

	app = gziphandler.GzipHandler(r)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	app.ServeHTTP(w, req)
}
