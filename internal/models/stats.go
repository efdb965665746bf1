package models

// PositionSummary представляет агрегированную сводку по позициям
type PositionSummary struct {
	OpenCount   int     `json:"open_count"`
	ClosedCount int     `json:"closed_count"`
	TotalPnl    float64 `json:"total_pnl"`
	TodayPnl    float64 `json:"today_pnl"`
	TPCount     int     `json:"tp_count"` // закрыто по Take Profit
	SLCount     int     `json:"sl_count"` // закрыто по Stop Loss
}
