package models

import (
	"math"
	"time"
)

// Position представляет бумажную (paper) позицию пользователя
//
// Позиция открывается вручную из дашборда или по сигналу стратегии.
// TP/SL цены опциональны: nil означает "цель не настроена".
// Позиция без обеих целей не проверяется риск-монитором (это не ошибка).
type Position struct {
	ID         int        `json:"id" db:"id"`
	Symbol     string     `json:"symbol" db:"symbol"`         // BTCUSDT
	Side       string     `json:"side" db:"side"`             // LONG, SHORT
	Qty        float64    `json:"qty" db:"qty"`               // объем в монетах базового актива
	SizeUSD    float64    `json:"size_usd" db:"size_usd"`     // размер позиции в USD на момент открытия
	EntryPrice float64    `json:"entry_price" db:"entry_price"`
	TPPrice    *float64   `json:"tp_price" db:"tp_price"`     // null = TP не настроен
	SLPrice    *float64   `json:"sl_price" db:"sl_price"`     // null = SL не настроен
	Status     string     `json:"status" db:"status"`         // open, closed
	ExitPrice  *float64   `json:"exit_price,omitempty" db:"exit_price"`
	ExitReason string     `json:"exit_reason,omitempty" db:"exit_reason"` // TP, SL, MANUAL
	Pnl        float64    `json:"pnl" db:"pnl"`               // реализованный PNL (после закрытия)
	OpenedAt   time.Time  `json:"opened_at" db:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty" db:"closed_at"`
}

// Стороны позиции
const (
	SideLong  = "LONG"
	SideShort = "SHORT"
)

// Статусы позиции
const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)

// Причины закрытия
const (
	ExitReasonTP     = "TP"
	ExitReasonSL     = "SL"
	ExitReasonManual = "MANUAL"
)

// EffectiveQty возвращает объем позиции, используемый для оценки рисков.
//
// Приоритет: сохраненный Qty, если он положительный и конечный.
// Fallback: SizeUSD / EntryPrice, когда оба положительны и конечны.
// Fallback вычисляется только на чтение и никогда не сохраняется в БД
// как каноническое значение.
//
// Возвращает (0, false) если объем определить нельзя - такая позиция
// пропускается в текущем проходе, но не удаляется.
func (p *Position) EffectiveQty() (float64, bool) {
	if p.Qty > 0 && !math.IsInf(p.Qty, 0) && !math.IsNaN(p.Qty) {
		return p.Qty, true
	}
	if p.SizeUSD > 0 && p.EntryPrice > 0 &&
		!math.IsInf(p.SizeUSD, 0) && !math.IsNaN(p.SizeUSD) &&
		!math.IsInf(p.EntryPrice, 0) && !math.IsNaN(p.EntryPrice) {
		return p.SizeUSD / p.EntryPrice, true
	}
	return 0, false
}

// HasTargets сообщает, настроена ли хотя бы одна из целей TP/SL
func (p *Position) HasTargets() bool {
	return p.TPPrice != nil || p.SLPrice != nil
}

// UnrealizedPnl возвращает нереализованный PNL при текущей цене
func (p *Position) UnrealizedPnl(price float64) float64 {
	qty, ok := p.EffectiveQty()
	if !ok {
		return 0
	}
	if p.Side == SideShort {
		return (p.EntryPrice - price) * qty
	}
	return (price - p.EntryPrice) * qty
}

// TriggerKind - вид сработавшей цели
type TriggerKind string

const (
	TriggerTP TriggerKind = "TP"
	TriggerSL TriggerKind = "SL"
)

// TriggerEvent - событие пересечения цели ценой
//
// Эфемерное: передается обработчику закрытия и не персистится ядром.
type TriggerEvent struct {
	Position Position    `json:"position"`
	Kind     TriggerKind `json:"kind"`
	Price    float64     `json:"price"` // цена, по которой зафиксировано пересечение
}
