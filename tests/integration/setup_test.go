//go:build integration

// Package integration contains integration tests for the paper trading terminal.
//
// These tests verify the correct interaction between components:
// - API integration tests: full HTTP request cycle
// - WebSocket tests: connection, broadcast messaging
// - Database tests: repository round trips against real Postgres
//
// Integration tests use build tag "integration" to separate from unit tests.
// Run with: go test -tags=integration ./tests/integration/...
//
// Database connection is configured via TEST_DB_* environment variables;
// tests are skipped when the database is unreachable.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"papertrade/internal/api"
	"papertrade/internal/bot"
	"papertrade/internal/models"
	"papertrade/internal/repository"
	"papertrade/internal/service"
	"papertrade/internal/websocket"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
)

// TestServer encapsulates all components needed for integration testing
type TestServer struct {
	DB      *sql.DB
	Router  *mux.Router
	Server  *httptest.Server
	Hub     *websocket.Hub
	Tracker *bot.PriceTracker

	Repos    *TestRepositories
	Services *TestServices

	Cleanup func()
}

// TestRepositories contains all repository instances for testing
type TestRepositories struct {
	Position     *repository.PositionRepository
	Settings     *repository.SettingsRepository
	Signal       *repository.SignalRepository
	Notification *repository.NotificationRepository
}

// TestServices contains all service instances for testing
type TestServices struct {
	Position     *service.PositionService
	Settings     *service.SettingsService
	Signal       *service.SignalService
	Notification *service.NotificationService
}

// staticFilters - детерминированный FilterSource без сетевых запросов
type staticFilters struct {
	filters models.SymbolFilters
}

func (f *staticFilters) GetSymbolFilters(ctx context.Context, symbol string) (models.SymbolFilters, error) {
	return f.filters, nil
}

// testDSN собирает строку подключения из TEST_DB_* переменных окружения
func testDSN() string {
	host := envOr("TEST_DB_HOST", "localhost")
	port := envOr("TEST_DB_PORT", "5432")
	name := envOr("TEST_DB_NAME", "papertrade_test")
	user := envOr("TEST_DB_USER", "papertrade")
	password := envOr("TEST_DB_PASSWORD", "papertrade")
	sslMode := envOr("TEST_DB_SSL_MODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, name, sslMode)
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestServer создает полный стек приложения поверх тестовой БД
//
// Каждый вызов начинает с чистых таблиц. При недоступной БД тест
// пропускается, не падает.
func setupTestServer(t *testing.T) *TestServer {
	t.Helper()

	db, err := sql.Open("postgres", testDSN())
	if err != nil {
		t.Skipf("cannot open test database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		t.Skipf("test database unreachable: %v", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		t.Fatalf("failed to create schema: %v", err)
	}
	if err := truncateTables(db); err != nil {
		db.Close()
		t.Fatalf("failed to truncate tables: %v", err)
	}

	repos := &TestRepositories{
		Position:     repository.NewPositionRepository(db),
		Settings:     repository.NewSettingsRepository(db),
		Signal:       repository.NewSignalRepository(db),
		Notification: repository.NewNotificationRepository(db),
	}

	tracker := bot.NewPriceTracker()
	filters := &staticFilters{
		filters: models.SymbolFilters{
			StepSize:    fptr(0.001),
			MinQty:      fptr(0.001),
			MinNotional: fptr(5),
		},
	}

	notificationService := service.NewNotificationService(repos.Notification, repos.Settings)
	settingsService := service.NewSettingsService(repos.Settings)
	signalService := service.NewSignalService(repos.Signal, notificationService)
	positionService := service.NewPositionService(
		repos.Position,
		repos.Settings,
		notificationService,
		tracker,
		filters,
	)

	hub := websocket.NewHub()
	go hub.Run()

	notificationService.SetWebSocketHub(hub)
	positionService.SetWebSocketHub(hub)

	deps := &api.Dependencies{
		PositionService:     positionService,
		SettingsService:     settingsService,
		SignalService:       signalService,
		NotificationService: notificationService,
		WSHandler: func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		},
		// Пустой PasswordHash - аутентификация выключена
	}

	router := api.SetupRoutes(deps)
	server := httptest.NewServer(router)

	ts := &TestServer{
		DB:      db,
		Router:  router,
		Server:  server,
		Hub:     hub,
		Tracker: tracker,
		Repos:   repos,
		Services: &TestServices{
			Position:     positionService,
			Settings:     settingsService,
			Signal:       signalService,
			Notification: notificationService,
		},
	}

	ts.Cleanup = func() {
		server.Close()
		hub.Stop()
		db.Close()
	}
	t.Cleanup(ts.Cleanup)

	return ts
}

// createSchema создает таблицы тестовой БД
func createSchema(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id SERIAL PRIMARY KEY,
			symbol VARCHAR(20) NOT NULL,
			side VARCHAR(10) NOT NULL,
			qty DECIMAL(20, 8) NOT NULL DEFAULT 0,
			size_usd DECIMAL(20, 2) NOT NULL DEFAULT 0,
			entry_price DECIMAL(20, 8) NOT NULL,
			tp_price DECIMAL(20, 8),
			sl_price DECIMAL(20, 8),
			status VARCHAR(10) NOT NULL,
			exit_price DECIMAL(20, 8),
			exit_reason VARCHAR(20) NOT NULL DEFAULT '',
			pnl DECIMAL(20, 2) NOT NULL DEFAULT 0,
			opened_at TIMESTAMP NOT NULL DEFAULT NOW(),
			closed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INT PRIMARY KEY DEFAULT 1,
			order_amount_usd DECIMAL(20, 2) NOT NULL DEFAULT 100,
			default_tp_percent DECIMAL(10, 4),
			default_sl_percent DECIMAL(10, 4),
			notification_prefs JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS signals (
			id SERIAL PRIMARY KEY,
			symbol VARCHAR(20) NOT NULL,
			side VARCHAR(10) NOT NULL,
			price DECIMAL(20, 8) NOT NULL,
			source VARCHAR(50) NOT NULL,
			note TEXT DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id SERIAL PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL DEFAULT NOW(),
			type VARCHAR(50) NOT NULL,
			severity VARCHAR(10) NOT NULL DEFAULT 'info',
			position_id INT,
			message TEXT NOT NULL,
			meta JSONB DEFAULT '{}'
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// truncateTables очищает все таблицы перед тестом
func truncateTables(db *sql.DB) error {
	_, err := db.Exec(`TRUNCATE positions, settings, signals, notifications RESTART IDENTITY`)
	return err
}

func fptr(v float64) *float64 { return &v }
