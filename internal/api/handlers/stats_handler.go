package handlers

import (
	"net/http"

	"papertrade/internal/service"
)

// StatsHandler обрабатывает HTTP запросы для статистики бумажной торговли.
//
// Endpoints:
// - GET /api/v1/stats - агрегированная сводка по позициям
//
// Статистика включает:
// - Количество открытых и закрытых позиций
// - Суммарный реализованный PNL и PNL за сегодня
// - Количество закрытий по Take Profit и Stop Loss
type StatsHandler struct {
	positionService service.PositionServiceInterface
}

// NewStatsHandler создает новый StatsHandler с внедрением зависимостей.
func NewStatsHandler(positionService service.PositionServiceInterface) *StatsHandler {
	return &StatsHandler{
		positionService: positionService,
	}
}

// GetStats возвращает агрегированную сводку по позициям.
//
// GET /api/v1/stats
//
// Response 200 OK:
//
//	{
//	  "open_count": 3,
//	  "closed_count": 25,
//	  "total_pnl": 182.40,
//	  "today_pnl": 12.05,
//	  "tp_count": 14,
//	  "sl_count": 6
//	}
//
// Response 500 Internal Server Error:
//
//	{"error": "failed to get stats", "details": "..."}
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	// Проверяем, что сервис инициализирован
	if h.positionService == nil {
		respondWithError(w, http.StatusInternalServerError, "stats service not initialized")
		return
	}

	summary, err := h.positionService.GetSummary()
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to get stats",
			Details: err.Error(),
		})
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
