package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"papertrade/internal/bot"
	"papertrade/internal/models"
	"papertrade/internal/repository"
	"papertrade/internal/service"
	"papertrade/pkg/utils"

	"github.com/gorilla/mux"
)

// PositionHandler отвечает за управление бумажными позициями
//
// Endpoints:
// - GET /api/v1/positions - открытые позиции
// - POST /api/v1/positions - открыть позицию
// - GET /api/v1/positions/history?limit=50 - закрытые позиции
// - GET /api/v1/positions/summary - агрегированная сводка
// - GET /api/v1/positions/{id} - получить позицию
// - POST /api/v1/positions/{id}/close - закрыть позицию вручную
// - PATCH /api/v1/positions/{id}/targets - изменить TP/SL цели
//
// Назначение:
// Обрабатывает весь жизненный цикл позиции со стороны дашборда:
// открытие по текущей цене, ручное закрытие, редактирование целей.
// Срабатывания TP/SL приходят не отсюда - их закрывает риск-монитор.
type PositionHandler struct {
	positionService service.PositionServiceInterface
}

// NewPositionHandler создает новый PositionHandler с внедрением зависимости
func NewPositionHandler(positionService service.PositionServiceInterface) *PositionHandler {
	return &PositionHandler{
		positionService: positionService,
	}
}

// GetPositions возвращает список открытых позиций
//
// GET /api/v1/positions
//
// HTTP коды:
// - 200 OK: массив позиций (может быть пустым)
// - 500 Internal Server Error: ошибка сервера
func (h *PositionHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positionService.GetOpenPositions()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get positions: "+err.Error())
		return
	}

	// Пустой список сериализуется как [], а не null
	if positions == nil {
		positions = []models.Position{}
	}

	respondWithJSON(w, http.StatusOK, positions)
}

// GetHistory возвращает последние закрытые позиции
//
// GET /api/v1/positions/history?limit=50
//
// Query параметры:
// - limit (int): количество записей (по умолчанию 50, максимум 500)
func (h *PositionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	positions, err := h.positionService.GetClosedPositions(limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get position history: "+err.Error())
		return
	}

	if positions == nil {
		positions = []models.Position{}
	}

	respondWithJSON(w, http.StatusOK, positions)
}

// GetSummary возвращает агрегированную сводку по позициям
//
// GET /api/v1/positions/summary
func (h *PositionHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.positionService.GetSummary()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get summary: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// GetPosition возвращает позицию по ID
//
// GET /api/v1/positions/{id}
//
// HTTP коды:
// - 200 OK: позиция найдена
// - 400 Bad Request: невалидный ID
// - 404 Not Found: позиция не существует
func (h *PositionHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.positionID(w, r)
	if !ok {
		return
	}

	position, err := h.positionService.GetPosition(id)
	if err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			respondWithError(w, http.StatusNotFound, "Position not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get position: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, position)
}

// OpenPosition открывает бумажную позицию по текущей цене
//
// POST /api/v1/positions
//
// Request body:
//
//	{
//	  "symbol": "BTCUSDT",
//	  "side": "LONG",
//	  "amount_usd": 100,      // опционально, иначе из настроек
//	  "tp_price": 115000,     // опционально, иначе из default_tp_percent
//	  "sl_price": 105000      // опционально, иначе из default_sl_percent
//	}
//
// HTTP коды:
// - 201 Created: позиция открыта
// - 400 Bad Request: невалидный body, символ, сторона или цели
// - 422 Unprocessable Entity: объем не проходит биржевые фильтры
//   (в поле code причина: PRICE, STEP, MIN_QTY, MIN_NOTIONAL)
// - 503 Service Unavailable: цена символа еще не известна (нет фида)
// - 500 Internal Server Error: ошибка сервера
func (h *PositionHandler) OpenPosition(w http.ResponseWriter, r *http.Request) {
	var req service.OpenPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	position, err := h.positionService.OpenPosition(r.Context(), &req)
	if err != nil {
		h.respondOpenError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, position)
}

// respondOpenError переводит ошибки открытия позиции в HTTP статусы
func (h *PositionHandler) respondOpenError(w http.ResponseWriter, err error) {
	var sizingErr *bot.SizingError
	switch {
	case errors.As(err, &sizingErr):
		respondWithCodedError(w, http.StatusUnprocessableEntity, string(sizingErr.Reason), sizingErr.Error())
	case errors.Is(err, service.ErrPriceUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, utils.ErrEmptySymbol),
		errors.Is(err, utils.ErrInvalidSymbol),
		errors.Is(err, utils.ErrInvalidSide),
		errors.Is(err, service.ErrInvalidTargets):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "Failed to open position: "+err.Error())
	}
}

// ClosePosition закрывает позицию вручную по текущей цене
//
// POST /api/v1/positions/{id}/close
//
// HTTP коды:
// - 200 OK: позиция закрыта, возвращается итоговое состояние
// - 400 Bad Request: невалидный ID
// - 404 Not Found: позиция не существует
// - 409 Conflict: позиция уже закрыта
func (h *PositionHandler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.positionID(w, r)
	if !ok {
		return
	}

	position, err := h.positionService.ClosePosition(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPositionNotFound):
			respondWithError(w, http.StatusNotFound, "Position not found")
		case errors.Is(err, repository.ErrPositionClosed):
			respondWithError(w, http.StatusConflict, "Position already closed")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to close position: "+err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, position)
}

// UpdateTargets обновляет TP/SL цели открытой позиции
//
// PATCH /api/v1/positions/{id}/targets
//
// Request body:
//
//	{"tp_price": 120000, "sl_price": null}
//
// null убирает соответствующую цель.
//
// HTTP коды:
// - 200 OK: цели обновлены
// - 400 Bad Request: невалидный ID или цели
// - 404 Not Found: позиция не существует
// - 409 Conflict: позиция уже закрыта
func (h *PositionHandler) UpdateTargets(w http.ResponseWriter, r *http.Request) {
	id, ok := h.positionID(w, r)
	if !ok {
		return
	}

	var req service.UpdateTargetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	position, err := h.positionService.UpdateTargets(id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTargets):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrPositionNotFound):
			respondWithError(w, http.StatusNotFound, "Position not found")
		case errors.Is(err, repository.ErrPositionClosed):
			respondWithError(w, http.StatusConflict, "Position already closed")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to update targets: "+err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, position)
}

// positionID извлекает и валидирует {id} из URL
func (h *PositionHandler) positionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid position id")
		return 0, false
	}
	return id, true
}
