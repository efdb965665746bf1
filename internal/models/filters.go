package models

// SymbolFilters представляет биржевые ограничения на ордер для символа
//
// Читаются из метаданных торговой пары (exchangeInfo).
// Каждое поле опционально и применяется независимо: nil = ограничение
// не задано биржей.
type SymbolFilters struct {
	StepSize    *float64 `json:"step_size"`    // объем должен быть кратен шагу
	MinQty      *float64 `json:"min_qty"`      // минимально допустимый объем
	MinNotional *float64 `json:"min_notional"` // минимальная стоимость ордера (qty × price)
}
