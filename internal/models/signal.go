package models

import "time"

// Signal представляет торговый сигнал внешней стратегии
//
// Ядро сигналы не генерирует - они приходят извне и отображаются
// в ленте сигналов дашборда. Сигнал может быть сконвертирован
// пользователем в бумажную позицию.
type Signal struct {
	ID        int       `json:"id" db:"id"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Side      string    `json:"side" db:"side"`       // LONG, SHORT
	Price     float64   `json:"price" db:"price"`     // цена на момент сигнала
	Source    string    `json:"source" db:"source"`   // имя стратегии
	Note      string    `json:"note,omitempty" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
