// Package app собирает зависимости бота из конфигурации
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivanoskov/budget_bot/internal/ai"
	"github.com/ivanoskov/budget_bot/internal/budget"
	"github.com/ivanoskov/budget_bot/internal/classifier"
	"github.com/ivanoskov/budget_bot/internal/config"
	"github.com/ivanoskov/budget_bot/internal/repository"
	"github.com/ivanoskov/budget_bot/internal/server"
	"github.com/ivanoskov/budget_bot/internal/service"
	"github.com/ivanoskov/budget_bot/internal/sink"
	"github.com/ivanoskov/budget_bot/internal/twilio"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Tracker   *service.ExpenseTracker
	AI        *ai.Client
	WhatsApp  *server.WhatsApp
	Validator *twilio.Validator
	Sink      *sink.Async
}

// New собирает приложение. Вызывающий обязан вызвать cleanup.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	var supabaseRepo *repository.SupabaseRepository
	if cfg.StoreBackend == config.StoreSupabase || cfg.LogSink == config.SinkSupabase {
		supabaseRepo, err = repository.NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, nil, err
		}
	}

	storeOpts := []budget.Option{budget.WithLocation(loc)}
	var redisClient *redis.Client
	switch cfg.StoreBackend {
	case config.StoreRedis:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		repo := repository.NewRedisRepository(redisClient, "budget", 0)
		if err := repo.Ping(ctx); err != nil {
			_ = redisClient.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		storeOpts = append(storeOpts, budget.WithRepository(repo))
	case config.StoreSupabase:
		storeOpts = append(storeOpts, budget.WithRepository(supabaseRepo))
	}

	var logSink sink.Sink = sink.Discard{}
	switch cfg.LogSink {
	case config.SinkSheets:
		logSink, err = sink.NewSheetsSink(ctx, cfg.GoogleCredentialsFile, cfg.SheetsSpreadsheetID, cfg.SheetsRange)
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, nil, err
		}
	case config.SinkSupabase:
		logSink = supabaseRepo
	}
	async := sink.NewAsync(logSink, cfg.SinkBuffer, cfg.CollaboratorTimeout, logger)

	aiClient := ai.NewClient(ai.Config{
		APIKey:             cfg.OpenAIAPIKey,
		BaseURL:            cfg.OpenAIBaseURL,
		TranscriptionModel: cfg.OpenAITranscriptionModel,
		ChatModel:          cfg.OpenAIChatModel,
		Timeout:            cfg.CollaboratorTimeout,
	})

	var trackerOpts []service.Option
	if cfg.LLMHelpReplies && cfg.OpenAIAPIKey != "" {
		trackerOpts = append(trackerOpts, service.WithHelpWriter(aiClient))
	}
	tracker := service.NewExpenseTracker(budget.NewStore(storeOpts...), classifier.NewDefault(), async, logger, trackerOpts...)

	var validator *twilio.Validator
	if cfg.TwilioValidateSignature {
		validator = twilio.NewValidator(cfg.TwilioAuthToken)
	}

	media := twilio.NewMediaClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.CollaboratorTimeout)

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Tracker:   tracker,
		AI:        aiClient,
		WhatsApp:  server.NewWhatsApp(tracker, media, aiClient),
		Validator: validator,
		Sink:      async,
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := async.Close(ctx); err != nil {
			logger.Warn("log sink did not drain", zap.Error(err))
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}
	return a, cleanup, nil
}
