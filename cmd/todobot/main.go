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

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrMeowMurk/ToDoBot/internal/bot"
	"github.com/mrMeowMurk/ToDoBot/internal/config"
	"github.com/mrMeowMurk/ToDoBot/internal/dialog"
	"github.com/mrMeowMurk/ToDoBot/internal/logger"
	"github.com/mrMeowMurk/ToDoBot/internal/metrics"
	"github.com/mrMeowMurk/ToDoBot/internal/notifier"
	"github.com/mrMeowMurk/ToDoBot/internal/repository"
	"github.com/mrMeowMurk/ToDoBot/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logg := logger.New(cfg.LogLevel)

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal().Err(err).Msg("open database")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	taskSvc := service.NewTaskService(taskRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	userSvc := service.NewUserService(userRepo)
	transferSvc := service.NewTransferService(taskRepo, categorySvc)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logg.Fatal().Err(err).Msg("telegram auth")
	}

	channel := bot.NewChannel(api)
	engine := dialog.NewEngine(dialog.NewStore(), taskSvc, categorySvc, userSvc, transferSvc, channel, logg)
	telegramBot := bot.New(api, engine, userRepo, taskSvc, categorySvc, logg)

	sweeper := notifier.New(userRepo, taskRepo, channel, logg)
	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.NotifyInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := sweeper.Sweep(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error().Err(err).Msg("reminder sweep")
		}
	}); err != nil {
		logg.Fatal().Err(err).Msg("schedule reminder sweep")
	}
	scheduler.Start()
	defer scheduler.Stop()

	metrics.Register()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error().Err(err).Msg("http server")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logg.Info().Msg("todo bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Fatal().Err(err).Msg("bot stopped")
	}
	logg.Info().Msg("shutdown complete")
}
