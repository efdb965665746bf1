package websocket

import (
	"time"

	"papertrade/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypePriceUpdate - новая цена символа из биржевого потока
	MessageTypePriceUpdate MessageType = "priceUpdate"

	// MessageTypePositionUpdate - изменение позиции
	// Отправляется при открытии, закрытии и изменении целей
	MessageTypePositionUpdate MessageType = "positionUpdate"

	// MessageTypeNotification - новое уведомление
	// Отправляется при событиях: открытие, TP, SL, ручное закрытие, ошибки
	MessageTypeNotification MessageType = "notification"

	// MessageTypeSummaryUpdate - обновление сводки по позициям
	// Отправляется после закрытия позиции
	MessageTypeSummaryUpdate MessageType = "summaryUpdate"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// PriceUpdateMessage - сообщение с новой ценой символа
//
// Отправляется при каждом тике биржевого потока. Frontend использует
// эти цены для отрисовки нереализованного PNL открытых позиций.
type PriceUpdateMessage struct {
	BaseMessage
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// PositionUpdateMessage - сообщение об изменении позиции
//
// Содержит полное актуальное состояние позиции: после открытия,
// изменения целей или закрытия (ручного либо по TP/SL).
type PositionUpdateMessage struct {
	BaseMessage
	PositionID int              `json:"position_id"`
	Data       *models.Position `json:"data"`
}

// NotificationMessage - сообщение о новом уведомлении
type NotificationMessage struct {
	BaseMessage
	Data *NotificationData `json:"data"`
}

// NotificationData - данные уведомления
type NotificationData struct {
	// ID уведомления в БД
	ID int `json:"id"`

	// Тип уведомления (OPEN, TP, SL, MANUAL_CLOSE, SIGNAL, ERROR)
	Type string `json:"type"`

	// Уровень важности (info, warn, error)
	Severity string `json:"severity"`

	// ID связанной позиции (если применимо)
	PositionID *int `json:"position_id,omitempty"`

	// Текст сообщения
	Message string `json:"message"`

	// Дополнительные метаданные (цены, PNL и т.д.)
	Meta map[string]interface{} `json:"meta,omitempty"`

	// Время создания уведомления
	Timestamp time.Time `json:"timestamp"`
}

// SummaryUpdateMessage - сообщение с обновленной сводкой по позициям
type SummaryUpdateMessage struct {
	BaseMessage
	Data *models.PositionSummary `json:"data"`
}

// ============ Фабричные функции для создания сообщений ============

// NewPriceUpdateMessage создает сообщение с новой ценой
func NewPriceUpdateMessage(symbol string, price float64, at time.Time) *PriceUpdateMessage {
	return &PriceUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePriceUpdate,
			Timestamp: at,
		},
		Symbol: symbol,
		Price:  price,
	}
}

// NewPositionUpdateMessage создает сообщение об изменении позиции
func NewPositionUpdateMessage(position *models.Position) *PositionUpdateMessage {
	return &PositionUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePositionUpdate,
			Timestamp: time.Now(),
		},
		PositionID: position.ID,
		Data:       position,
	}
}

// NewNotificationMessage создает сообщение уведомления
func NewNotificationMessage(notif *models.Notification) *NotificationMessage {
	return &NotificationMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeNotification,
			Timestamp: time.Now(),
		},
		Data: &NotificationData{
			ID:         notif.ID,
			Type:       notif.Type,
			Severity:   notif.Severity,
			PositionID: notif.PositionID,
			Message:    notif.Message,
			Meta:       notif.Meta,
			Timestamp:  notif.Timestamp,
		},
	}
}

// NewSummaryUpdateMessage создает сообщение со сводкой по позициям
func NewSummaryUpdateMessage(summary *models.PositionSummary) *SummaryUpdateMessage {
	return &SummaryUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeSummaryUpdate,
			Timestamp: time.Now(),
		},
		Data: summary,
	}
}
