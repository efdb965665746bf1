package api

import (
	"net/http"

	"papertrade/internal/api/handlers"
	"papertrade/internal/api/middleware"
	"papertrade/internal/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	PositionService     *service.PositionService
	SettingsService     *service.SettingsService
	SignalService       *service.SignalService
	NotificationService *service.NotificationService

	// WSHandler обслуживает /ws/stream (upgrade до WebSocket)
	WSHandler http.HandlerFunc

	// Basic auth дашборда; пустой PasswordHash отключает аутентификацию
	AuthUsername     string
	AuthPasswordHash string
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место для определения всех API endpoints.
// Регистрирует handlers для каждого маршрута.
// Применяет middleware к группам маршрутов.
// Организует версионирование API (v1).
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /positions/
//	│   ├── GET / - открытые позиции
//	│   ├── POST / - открыть позицию
//	│   ├── GET /history - закрытые позиции
//	│   ├── GET /summary - сводка по позициям
//	│   ├── GET /{id} - получить позицию
//	│   ├── POST /{id}/close - закрыть позицию вручную
//	│   └── PATCH /{id}/targets - изменить TP/SL цели
//	├── /signals/
//	│   ├── GET / - лента сигналов
//	│   ├── POST / - записать сигнал стратегии
//	│   └── GET /{id} - получить сигнал
//	├── /notifications/
//	│   ├── GET / - журнал уведомлений
//	│   ├── GET /count - количество уведомлений
//	│   └── DELETE / - очистить журнал
//	├── /stats/
//	│   └── GET / - агрегированная статистика
//	└── /settings/
//	    ├── GET / - получить настройки
//	    ├── PATCH / - обновить настройки
//	    └── POST /reset - сбросить к умолчаниям
//
// /ws/
//
//	└── /stream - WebSocket для real-time обновлений
//
// /metrics - Prometheus метрики
// /health - health check
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. BasicAuth (только для /api/v1, если настроен пароль)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	var positionHandler *handlers.PositionHandler
	var statsHandler *handlers.StatsHandler
	if deps != nil && deps.PositionService != nil {
		positionHandler = handlers.NewPositionHandler(deps.PositionService)
		statsHandler = handlers.NewStatsHandler(deps.PositionService)
	}

	var settingsHandler *handlers.SettingsHandler
	if deps != nil && deps.SettingsService != nil {
		settingsHandler = handlers.NewSettingsHandler(deps.SettingsService)
	}

	var signalHandler *handlers.SignalHandler
	if deps != nil && deps.SignalService != nil {
		signalHandler = handlers.NewSignalHandler(deps.SignalService)
	}

	var notificationHandler *handlers.NotificationHandler
	if deps != nil && deps.NotificationService != nil {
		notificationHandler = handlers.NewNotificationHandler(deps.NotificationService)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	if deps != nil {
		api.Use(middleware.BasicAuth(deps.AuthUsername, deps.AuthPasswordHash))
	}

	// Position routes
	if positionHandler != nil {
		api.HandleFunc("/positions", positionHandler.GetPositions).Methods("GET")
		api.HandleFunc("/positions", positionHandler.OpenPosition).Methods("POST")
		api.HandleFunc("/positions/history", positionHandler.GetHistory).Methods("GET")
		api.HandleFunc("/positions/summary", positionHandler.GetSummary).Methods("GET")
		api.HandleFunc("/positions/{id}", positionHandler.GetPosition).Methods("GET")
		api.HandleFunc("/positions/{id}/close", positionHandler.ClosePosition).Methods("POST")
		api.HandleFunc("/positions/{id}/targets", positionHandler.UpdateTargets).Methods("PATCH")
	}

	// Signal routes
	if signalHandler != nil {
		api.HandleFunc("/signals", signalHandler.GetSignals).Methods("GET")
		api.HandleFunc("/signals", signalHandler.CreateSignal).Methods("POST")
		api.HandleFunc("/signals/{id}", signalHandler.GetSignal).Methods("GET")
	}

	// Notification routes
	if notificationHandler != nil {
		api.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
		api.HandleFunc("/notifications/count", notificationHandler.GetNotificationCount).Methods("GET")
		api.HandleFunc("/notifications", notificationHandler.ClearNotifications).Methods("DELETE")
	}

	// Stats routes
	if statsHandler != nil {
		api.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")
	}

	// Settings routes
	if settingsHandler != nil {
		api.HandleFunc("/settings", settingsHandler.GetSettings).Methods("GET")
		api.HandleFunc("/settings", settingsHandler.UpdateSettings).Methods("PATCH")
		api.HandleFunc("/settings/reset", settingsHandler.ResetSettings).Methods("POST")
	}

	// WebSocket route
	if deps != nil && deps.WSHandler != nil {
		router.HandleFunc("/ws/stream", deps.WSHandler)
	}

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
