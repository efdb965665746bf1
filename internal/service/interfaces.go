package service

import (
	"context"
	"time"

	"papertrade/internal/models"
	"papertrade/internal/repository"
)

// PositionRepositoryInterface определяет интерфейс репозитория позиций
type PositionRepositoryInterface interface {
	Create(position *models.Position) error
	GetByID(id int) (*models.Position, error)
	GetOpen() ([]models.Position, error)
	GetClosed(limit int) ([]models.Position, error)
	Close(id int, exitPrice float64, exitReason string, pnl float64) error
	UpdateTargets(id int, tpPrice, slPrice *float64) error
	Delete(id int) error
	CountOpen() (int, error)
	GetSummary() (*models.PositionSummary, error)
}

// SettingsRepositoryInterface определяет интерфейс репозитория настроек
type SettingsRepositoryInterface interface {
	Get() (*models.Settings, error)
	Update(settings *models.Settings) error
	UpdateNotificationPrefs(prefs models.NotificationPreferences) error
	UpdateOrderAmount(amountUSD float64) error
	GetNotificationPrefs() (*models.NotificationPreferences, error)
	ResetToDefaults() error
}

// SignalRepositoryInterface определяет интерфейс репозитория сигналов
type SignalRepositoryInterface interface {
	Create(signal *models.Signal) error
	GetByID(id int) (*models.Signal, error)
	GetRecent(limit int) ([]*models.Signal, error)
	GetBySymbol(symbol string, limit int) ([]*models.Signal, error)
	GetBySource(source string, limit int) ([]*models.Signal, error)
	DeleteOlderThan(threshold time.Time) (int64, error)
	Count() (int, error)
}

// NotificationRepositoryInterface определяет интерфейс репозитория уведомлений
type NotificationRepositoryInterface interface {
	Create(notif *models.Notification) error
	GetRecent(limit int) ([]*models.Notification, error)
	GetBySeverity(severity string, limit int) ([]*models.Notification, error)
	DeleteAll() error
	Count() (int, error)
	CountByType(notifType string) (int, error)
	KeepRecent(keep int) (int64, error)
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ PositionRepositoryInterface = (*repository.PositionRepository)(nil)
var _ SettingsRepositoryInterface = (*repository.SettingsRepository)(nil)
var _ SignalRepositoryInterface = (*repository.SignalRepository)(nil)
var _ NotificationRepositoryInterface = (*repository.NotificationRepository)(nil)

// ============ Интерфейсы внешних зависимостей ============

// PriceSource - источник последней известной цены символа
//
// Реализуется in-memory трекером цен; lookup не должен блокироваться на I/O.
type PriceSource interface {
	Last(symbol string) (float64, bool)
}

// FilterSource - источник биржевых фильтров символа (step_size, min_qty,
// min_notional). Реализуется REST-клиентом биржи.
type FilterSource interface {
	GetSymbolFilters(ctx context.Context, symbol string) (models.SymbolFilters, error)
}

// ============ Интерфейсы сервисов для Dependency Injection ============

// PositionServiceInterface определяет интерфейс сервиса позиций
type PositionServiceInterface interface {
	OpenPosition(ctx context.Context, req *OpenPositionRequest) (*models.Position, error)
	GetPosition(id int) (*models.Position, error)
	GetOpenPositions() ([]models.Position, error)
	GetClosedPositions(limit int) ([]models.Position, error)
	ClosePosition(ctx context.Context, id int) (*models.Position, error)
	UpdateTargets(id int, req *UpdateTargetsRequest) (*models.Position, error)
	GetSummary() (*models.PositionSummary, error)
}

// SettingsServiceInterface определяет интерфейс сервиса настроек
type SettingsServiceInterface interface {
	GetSettings() (*models.Settings, error)
	UpdateSettings(req *UpdateSettingsRequest) (*models.Settings, error)
	GetNotificationPrefs() (*models.NotificationPreferences, error)
	ResetToDefaults() error
}

// SignalServiceInterface определяет интерфейс сервиса сигналов
type SignalServiceInterface interface {
	RecordSignal(req *RecordSignalRequest) (*models.Signal, error)
	GetSignal(id int) (*models.Signal, error)
	GetRecentSignals(limit int) ([]*models.Signal, error)
	GetSignalsBySymbol(symbol string, limit int) ([]*models.Signal, error)
}

// NotificationServiceInterface определяет интерфейс сервиса уведомлений
type NotificationServiceInterface interface {
	GetNotifications(limit int) ([]*models.Notification, error)
	ClearNotifications() error
	CreateNotification(notif *models.Notification) error
	GetNotificationCount() (int, error)
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ PositionServiceInterface = (*PositionService)(nil)
var _ SettingsServiceInterface = (*SettingsService)(nil)
var _ SignalServiceInterface = (*SignalService)(nil)
var _ NotificationServiceInterface = (*NotificationService)(nil)
