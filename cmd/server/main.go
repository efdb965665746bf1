package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"papertrade/internal/api"
	"papertrade/internal/bot"
	"papertrade/internal/config"
	"papertrade/internal/exchange"
	"papertrade/internal/models"
	"papertrade/internal/repository"
	"papertrade/internal/service"
	"papertrade/internal/websocket"
	"papertrade/pkg/retry"
	"papertrade/pkg/utils"

	_ "github.com/lib/pq"
)

// Период фоновой очистки журналов и лимиты хранения
const (
	cleanupInterval   = 1 * time.Hour
	notificationsKeep = 500
	signalsMaxAge     = 7 * 24 * time.Hour
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", utils.Err(err))
	}
	defer db.Close()

	logger.Info("connected to database", utils.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Инициализация репозиториев
	positionRepo := repository.NewPositionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	signalRepo := repository.NewSignalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Поток цен и клиент биржи
	tracker := bot.NewPriceTracker()
	binance := exchange.NewBinanceClient()

	// Инициализация сервисов
	notificationService := service.NewNotificationService(notificationRepo, settingsRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	signalService := service.NewSignalService(signalRepo, notificationService)
	positionService := service.NewPositionService(
		positionRepo,
		settingsRepo,
		notificationService,
		tracker,
		binance,
	)

	// WebSocket hub для real-time обновлений дашборда
	hub := websocket.NewHub()
	go hub.Run()

	notificationService.SetWebSocketHub(hub)
	positionService.SetWebSocketHub(hub)

	// Подписка на биржевой поток цен
	// Биржа может быть недоступна при старте - подключаемся в фоне
	// с backoff, сервис тем временем работает на REST API
	go func() {
		streamCfg := retry.NetworkConfig()
		streamCfg.MaxRetries = 0 // поток цен критичен - пробуем бесконечно
		streamCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
			logger.Warn("ticker stream connect retry",
				utils.Int("attempt", attempt),
				utils.Err(err),
			)
		}

		err := retry.Do(context.Background(), func() error {
			return binance.StartTickerStream(cfg.Feed.Symbols, func(symbol string, price float64, at time.Time) {
				tracker.Update(symbol, price)
				hub.BroadcastPriceUpdate(symbol, price, at)
			})
		}, streamCfg)
		if err != nil {
			logger.Error("ticker stream unavailable", utils.Err(err))
		}
	}()

	// Риск-монитор: проверка TP/SL целей открытых позиций
	watcher := bot.StartWatcher(bot.WatcherConfig{
		Interval: cfg.Watcher.Interval,
		CacheTTL: cfg.Watcher.CacheTTL,
		FetchPositions: func(ctx context.Context) ([]models.Position, error) {
			return positionRepo.GetOpen()
		},
		LastPrice: tracker.Last,
		OnTrigger: positionService.HandleTrigger,
	})

	// Фоновая очистка журналов уведомлений и сигналов
	cleanupStop := make(chan struct{})
	go runCleanup(notificationService, signalService, cleanupStop)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		PositionService:     positionService,
		SettingsService:     settingsService,
		SignalService:       signalService,
		NotificationService: notificationService,
		WSHandler: func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		},
		AuthUsername:     cfg.Auth.Username,
		AuthPasswordHash: cfg.Auth.PasswordHash,
	}

	router := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("starting server", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", utils.Err(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Останавливаем фоновые компоненты: монитор первым, чтобы не было
	// новых закрытий во время остановки
	watcher.Stop()
	close(cleanupStop)

	if err := binance.Close(); err != nil {
		logger.Warn("error closing exchange stream", utils.Err(err))
	}
	exchange.CloseGlobalClient()

	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", utils.Err(err))
	}

	logger.Info("server exited")
}

// runCleanup периодически подрезает журналы уведомлений и сигналов
func runCleanup(notifications *service.NotificationService, signals *service.SignalService, stop <-chan struct{}) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if deleted, err := notifications.CleanupOld(notificationsKeep); err != nil {
				utils.L().Warn("notification cleanup failed", utils.Err(err))
			} else if deleted > 0 {
				utils.L().Info("notification journal trimmed", utils.Int64("deleted", deleted))
			}

			if deleted, err := signals.CleanupOld(signalsMaxAge); err != nil {
				utils.L().Warn("signal cleanup failed", utils.Err(err))
			} else if deleted > 0 {
				utils.L().Info("signal journal trimmed", utils.Int64("deleted", deleted))
			}
		}
	}
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
