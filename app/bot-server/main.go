package main

import (
	"clanManager/app/bot-server/router"
	"clanManager/business/anomaly"
	"clanManager/business/automation"
	"clanManager/business/battlestats"
	"clanManager/business/deckstats"
	"clanManager/business/deckusage"
	"clanManager/business/member"
	"clanManager/business/prediction"
	"clanManager/business/strikes"
	"clanManager/internal/middleware"
	"clanManager/internal/repository/clashapi"
	"clanManager/internal/repository/notification"
	psqlRepo "clanManager/internal/repository/postgres"
	redisRepo "clanManager/internal/repository/redis"
	"clanManager/internal/rest"
	"clanManager/pkg/config"
	"clanManager/pkg/database"
	"clanManager/pkg/database/redis"
	"clanManager/pkg/logger"
	"clanManager/pkg/metrics"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Clan Manager", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	logger.Info("Database connected successfully")

	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err := redis.Connect(redisCtx, cfg.Redis)
	redisCancel()
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}

	metrics.Init()

	// Init external repositories
	cache := redisRepo.NewCacheRepository(redisClient)
	warningQueue := redisRepo.NewOutsideBattlesQueue(redisClient)
	clashRepo := clashapi.NewClashAPIRepository(
		clashapi.ClashAPIConfig{
			BaseURL:   cfg.ClashAPI.BaseURL,
			Token:     cfg.ClashAPI.Token,
			RateLimit: cfg.ClashAPI.RateLimit,
		},
		cache,
	)
	discord := notification.NewDiscordRepository(
		notification.DiscordConfig{
			WebhookURL: cfg.Discord.WebhookURL,
		},
	)

	// Init validate
	validate := validator.New()

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	clanRepo := psqlRepo.NewClanRepository(db)
	affiliationRepo := psqlRepo.NewAffiliationRepository(db)
	seasonRepo := psqlRepo.NewSeasonRepository(db)
	raceRepo := psqlRepo.NewRaceRepository(db)
	participationRepo := psqlRepo.NewParticipationRepository(db)
	battleRepo := psqlRepo.NewBattleRepository(db)
	standingRepo := psqlRepo.NewStandingRepository(db)

	// Init service
	ledgerService := deckusage.NewLedgerService(raceRepo, participationRepo, clashRepo, warningQueue)
	memberService := member.NewMemberService(userRepo, affiliationRepo, clanRepo, raceRepo, participationRepo, clashRepo, ledgerService, validate)
	battleStatsService := battlestats.NewBattleStatsService(clashRepo, raceRepo, participationRepo, battleRepo, memberService)
	predictionService := prediction.NewPredictionService(raceRepo, standingRepo, clashRepo)
	strikesService := strikes.NewStrikesService(clanRepo, raceRepo, participationRepo, userRepo, discord)
	reconcilerService := anomaly.NewReconcilerService(raceRepo, participationRepo, battleRepo)

	catalog, err := deckstats.NewCardCatalog(clashRepo, time.Now)
	if err != nil {
		logger.Fatal("Failed to load card catalog", "error", err)
	}
	deckStatsService := deckstats.NewDeckStatsService(battleRepo, catalog)

	var scheduler *automation.Scheduler
	if cfg.Automation.Enabled {
		automationService := automation.NewAutomationService(
			automation.Services{
				Ledger:     ledgerService,
				Stats:      battleStatsService,
				Standings:  predictionService,
				Reconciler: reconcilerService,
				Strikes:    strikesService,
				Members:    memberService,
			},
			automation.Repositories{
				Clans:         clanRepo,
				Races:         raceRepo,
				Seasons:       seasonRepo,
				Affiliations:  affiliationRepo,
				Participation: participationRepo,
				Clash:         clashRepo,
				Warnings:      warningQueue,
				Notifications: discord,
			},
		)

		scheduler, err = automation.NewScheduler(automationService)
		if err != nil {
			logger.Fatal("Failed to create scheduler", "error", err)
		}
		scheduler.Start()
		logger.Info("Automation scheduler started", "jobs", len(scheduler.Jobs()))
	}

	// Init handler
	clanHandler := rest.NewClanHandler(strikesService, predictionService, ledgerService)
	deckHandler := rest.NewDeckHandler(deckStatsService)
	memberHandler := rest.NewMemberHandler(memberService, strikesService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = rest.NewValidator(validate)

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	authRequired := middleware.AuthMiddleware()
	leaderOnly := middleware.LeaderOnly()

	api := e.Group("/api/v1")
	router.SetupClanRoutes(api, clanHandler, authRequired)
	router.SetupDeckRoutes(api, deckHandler)
	router.SetupMemberRoutes(api, memberHandler, authRequired, leaderOnly)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("Scheduler shutdown error", "error", err)
		}
	}

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if err := redis.Close(redisClient); err != nil {
		logger.Error("Redis close error", "error", err)
	}

	logger.Info("Server stopped")
}
