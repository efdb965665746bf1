package models

import "time"

// Notification представляет уведомление о событии для дашборда
type Notification struct {
	ID         int                    `json:"id" db:"id"`
	Timestamp  time.Time              `json:"timestamp" db:"timestamp"`
	Type       string                 `json:"type" db:"type"`         // OPEN, TP, SL, MANUAL_CLOSE, SIGNAL, ERROR
	Severity   string                 `json:"severity" db:"severity"` // info, warn, error
	PositionID *int                   `json:"position_id,omitempty" db:"position_id"`
	Message    string                 `json:"message" db:"message"`
	Meta       map[string]interface{} `json:"meta,omitempty" db:"meta"` // дополнительные данные (JSON в БД)
}

// Типы уведомлений
const (
	NotificationTypeOpen        = "OPEN"         // открытие позиции
	NotificationTypeTP          = "TP"           // срабатывание Take Profit
	NotificationTypeSL          = "SL"           // срабатывание Stop Loss
	NotificationTypeManualClose = "MANUAL_CLOSE" // ручное закрытие из дашборда
	NotificationTypeSignal      = "SIGNAL"       // новый сигнал стратегии
	NotificationTypeError       = "ERROR"        // ошибка закрытия/данных
)

// Уровни важности
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)
