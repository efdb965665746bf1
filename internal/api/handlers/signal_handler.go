package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"papertrade/internal/models"
	"papertrade/internal/repository"
	"papertrade/internal/service"
	"papertrade/pkg/utils"

	"github.com/gorilla/mux"
)

// SignalHandler отвечает за ленту торговых сигналов
//
// Endpoints:
// - GET /api/v1/signals - последние сигналы
// - GET /api/v1/signals?symbol=BTCUSDT - сигналы по символу
// - POST /api/v1/signals - записать сигнал внешней стратегии
// - GET /api/v1/signals/{id} - получить сигнал
//
// Назначение:
// Сигналы приходят от внешних стратегий (webhook или скрипт) и
// отображаются в ленте дашборда. Сигнал сам по себе позицию не
// открывает - пользователь решает, конвертировать его или нет.
type SignalHandler struct {
	signalService service.SignalServiceInterface
}

// NewSignalHandler создает новый SignalHandler с внедрением зависимости
func NewSignalHandler(signalService service.SignalServiceInterface) *SignalHandler {
	return &SignalHandler{
		signalService: signalService,
	}
}

// GetSignals возвращает последние сигналы
//
// GET /api/v1/signals
//
// Query параметры:
// - symbol (string): фильтр по символу
// - limit (int): количество записей (по умолчанию 50, максимум 200)
func (h *SignalHandler) GetSignals(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var signals []*models.Signal
	var err error
	if symbol != "" {
		signals, err = h.signalService.GetSignalsBySymbol(symbol, limit)
	} else {
		signals, err = h.signalService.GetRecentSignals(limit)
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get signals: "+err.Error())
		return
	}

	if signals == nil {
		signals = []*models.Signal{}
	}

	respondWithJSON(w, http.StatusOK, signals)
}

// GetSignal возвращает сигнал по ID
//
// GET /api/v1/signals/{id}
func (h *SignalHandler) GetSignal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid signal id")
		return
	}

	signal, err := h.signalService.GetSignal(id)
	if err != nil {
		if errors.Is(err, repository.ErrSignalNotFound) {
			respondWithError(w, http.StatusNotFound, "Signal not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get signal: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, signal)
}

// CreateSignal записывает сигнал внешней стратегии
//
// POST /api/v1/signals
//
// Request body:
//
//	{
//	  "symbol": "BTCUSDT",
//	  "side": "LONG",
//	  "price": 110250.5,
//	  "source": "momentum-1h",
//	  "note": "breakout"
//	}
//
// HTTP коды:
// - 201 Created: сигнал записан
// - 400 Bad Request: невалидный body или поля
// - 500 Internal Server Error: ошибка сервера
func (h *SignalHandler) CreateSignal(w http.ResponseWriter, r *http.Request) {
	var req service.RecordSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	signal, err := h.signalService.RecordSignal(&req)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrEmptySymbol),
			errors.Is(err, utils.ErrInvalidSymbol),
			errors.Is(err, utils.ErrInvalidSide),
			errors.Is(err, service.ErrInvalidSignalPrice),
			errors.Is(err, service.ErrEmptySource):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to record signal: "+err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, signal)
}
