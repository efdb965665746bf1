package service

import (
	"strings"

	"papertrade/internal/models"
)

// WebSocketBroadcaster - интерфейс для отправки WebSocket сообщений
//
// Позволяет избежать циклических зависимостей между пакетами
// и упрощает тестирование (можно подставить mock)
type WebSocketBroadcaster interface {
	BroadcastNotification(notif *models.Notification)
	BroadcastPositionUpdate(position *models.Position)
}

// NotificationService предоставляет бизнес-логику для управления уведомлениями.
//
// Отвечает за:
// - Создание уведомлений с проверкой настроек
// - Получение списка уведомлений
// - Очистку журнала уведомлений
// - Broadcast уведомлений через WebSocket
//
// Типы уведомлений:
// - OPEN: открытие позиции
// - TP: срабатывание Take Profit
// - SL: срабатывание Stop Loss
// - MANUAL_CLOSE: ручное закрытие из дашборда
// - SIGNAL: новый сигнал стратегии
// - ERROR: ошибка закрытия/данных
type NotificationService struct {
	notificationRepo NotificationRepositoryInterface
	settingsRepo     SettingsRepositoryInterface
	wsHub            WebSocketBroadcaster
}

// NewNotificationService создает новый экземпляр NotificationService.
func NewNotificationService(
	notificationRepo NotificationRepositoryInterface,
	settingsRepo SettingsRepositoryInterface,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		settingsRepo:     settingsRepo,
	}
}

// SetWebSocketHub устанавливает WebSocket hub для broadcast уведомлений.
//
// Вызывается после инициализации Hub в main.go:
//
//	notifService := service.NewNotificationService(notifRepo, settingsRepo)
//	notifService.SetWebSocketHub(wsHub)
func (s *NotificationService) SetWebSocketHub(hub WebSocketBroadcaster) {
	s.wsHub = hub
}

// CreateNotification создает новое уведомление.
//
// Перед созданием проверяет настройки уведомлений (notification_prefs).
// Если данный тип уведомлений отключен в настройках, уведомление не создается.
//
// После успешного создания отправляет broadcast через WebSocket (если hub настроен).
func (s *NotificationService) CreateNotification(notif *models.Notification) error {
	enabled, err := s.isNotificationTypeEnabled(notif.Type)
	if err != nil {
		// При ошибке получения настроек все равно создаем уведомление
		// (fail-safe: лучше уведомить, чем пропустить важное событие)
	} else if !enabled {
		return nil
	}

	if err := s.notificationRepo.Create(notif); err != nil {
		return err
	}

	// Broadcast через WebSocket hub для real-time обновления UI
	if s.wsHub != nil {
		s.wsHub.BroadcastNotification(notif)
	}

	return nil
}

// GetNotifications возвращает последние уведомления (новые сверху).
//
// limit <= 0 заменяется дефолтом 100, максимум 500.
func (s *NotificationService) GetNotifications(limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	return s.notificationRepo.GetRecent(limit)
}

// ClearNotifications очищает журнал уведомлений.
func (s *NotificationService) ClearNotifications() error {
	return s.notificationRepo.DeleteAll()
}

// GetNotificationCount возвращает общее количество уведомлений.
func (s *NotificationService) GetNotificationCount() (int, error) {
	return s.notificationRepo.Count()
}

// CleanupOld удаляет уведомления, оставляя только последние N записей.
//
// Используется для автоматической очистки при превышении лимита.
func (s *NotificationService) CleanupOld(keepCount int) (int64, error) {
	if keepCount <= 0 {
		keepCount = 100
	}
	return s.notificationRepo.KeepRecent(keepCount)
}

// isNotificationTypeEnabled проверяет, включен ли тип уведомлений в настройках.
func (s *NotificationService) isNotificationTypeEnabled(notifType string) (bool, error) {
	prefs, err := s.settingsRepo.GetNotificationPrefs()
	if err != nil {
		return true, err // При ошибке считаем включенным
	}

	if prefs == nil {
		return true, nil
	}

	switch strings.ToUpper(notifType) {
	case models.NotificationTypeOpen:
		return prefs.Open, nil
	case models.NotificationTypeTP:
		return prefs.TakeProfit, nil
	case models.NotificationTypeSL:
		return prefs.StopLoss, nil
	case models.NotificationTypeManualClose:
		return prefs.Manual, nil
	case models.NotificationTypeSignal:
		return prefs.Signal, nil
	case models.NotificationTypeError:
		return prefs.Error, nil
	default:
		// Неизвестный тип - считаем включенным
		return true, nil
	}
}

// CreateOpenNotification создает уведомление об открытии позиции.
func (s *NotificationService) CreateOpenNotification(positionID int, message string, meta map[string]interface{}) error {
	notif := &models.Notification{
		Type:       models.NotificationTypeOpen,
		Severity:   models.SeverityInfo,
		PositionID: &positionID,
		Message:    message,
		Meta:       meta,
	}
	return s.CreateNotification(notif)
}

// CreateTPNotification создает уведомление о срабатывании Take Profit.
func (s *NotificationService) CreateTPNotification(positionID int, message string, meta map[string]interface{}) error {
	notif := &models.Notification{
		Type:       models.NotificationTypeTP,
		Severity:   models.SeverityInfo,
		PositionID: &positionID,
		Message:    message,
		Meta:       meta,
	}
	return s.CreateNotification(notif)
}

// CreateSLNotification создает уведомление о срабатывании Stop Loss.
func (s *NotificationService) CreateSLNotification(positionID int, message string, meta map[string]interface{}) error {
	notif := &models.Notification{
		Type:       models.NotificationTypeSL,
		Severity:   models.SeverityWarn,
		PositionID: &positionID,
		Message:    message,
		Meta:       meta,
	}
	return s.CreateNotification(notif)
}

// CreateManualCloseNotification создает уведомление о ручном закрытии.
func (s *NotificationService) CreateManualCloseNotification(positionID int, message string, meta map[string]interface{}) error {
	notif := &models.Notification{
		Type:       models.NotificationTypeManualClose,
		Severity:   models.SeverityInfo,
		PositionID: &positionID,
		Message:    message,
		Meta:       meta,
	}
	return s.CreateNotification(notif)
}

// CreateSignalNotification создает уведомление о новом сигнале стратегии.
func (s *NotificationService) CreateSignalNotification(message string, meta map[string]interface{}) error {
	notif := &models.Notification{
		Type:     models.NotificationTypeSignal,
		Severity: models.SeverityInfo,
		Message:  message,
		Meta:     meta,
	}
	return s.CreateNotification(notif)
}

// CreateErrorNotification создает уведомление об ошибке.
func (s *NotificationService) CreateErrorNotification(positionID *int, message string, meta map[string]interface{}) error {
	notif := &models.Notification{
		Type:       models.NotificationTypeError,
		Severity:   models.SeverityError,
		PositionID: positionID,
		Message:    message,
		Meta:       meta,
	}
	return s.CreateNotification(notif)
}
