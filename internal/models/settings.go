package models

import "time"

// Settings представляет глобальные настройки бумажной торговли
type Settings struct {
	ID                int                     `json:"id" db:"id"`
	OrderAmountUSD    float64                 `json:"order_amount_usd" db:"order_amount_usd"`   // размер ордера по умолчанию
	DefaultTPPercent  *float64                `json:"default_tp_percent" db:"default_tp_percent"` // null = TP по умолчанию не ставится
	DefaultSLPercent  *float64                `json:"default_sl_percent" db:"default_sl_percent"` // null = SL по умолчанию не ставится
	NotificationPrefs NotificationPreferences `json:"notification_prefs" db:"notification_prefs"` // JSON в БД
	UpdatedAt         time.Time               `json:"updated_at" db:"updated_at"`
}

// NotificationPreferences представляет настройки отображения уведомлений
type NotificationPreferences struct {
	Open       bool `json:"open"`
	TakeProfit bool `json:"take_profit"`
	StopLoss   bool `json:"stop_loss"`
	Manual     bool `json:"manual"`
	Signal     bool `json:"signal"`
	Error      bool `json:"error"`
}
