package handlers

import (
	"errors"
	"net/http"

	"papertrade/internal/service"
)

// SettingsHandler отвечает за управление глобальными настройками бумажной торговли
//
// Endpoints:
// - GET /api/v1/settings - получить настройки
// - PATCH /api/v1/settings - частично обновить настройки
// - POST /api/v1/settings/reset - сбросить к значениям по умолчанию
//
// Назначение:
// Обрабатывает запросы для управления глобальными параметрами:
// - order_amount_usd: размер ордера по умолчанию
// - default_tp_percent / default_sl_percent: цели по умолчанию (null = не ставить)
// - notification_prefs: какие типы уведомлений показывать
type SettingsHandler struct {
	settingsService service.SettingsServiceInterface
}

// NewSettingsHandler создает новый SettingsHandler с внедрением зависимости
func NewSettingsHandler(settingsService service.SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
	}
}

// GetSettings возвращает текущие глобальные настройки
//
// GET /api/v1/settings
//
// В БД всегда только одна запись с id=1; при первом обращении
// создается запись со значениями по умолчанию.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.GetSettings()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get settings: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// UpdateSettings частично обновляет глобальные настройки
//
// PATCH /api/v1/settings
//
// Request body (все поля опциональны):
//
//	{
//	  "order_amount_usd": 250,
//	  "default_tp_percent": 10,
//	  "default_sl_percent": 5,
//	  "clear_default_tp": false,
//	  "clear_default_sl": false,
//	  "notification_prefs": {"open": true, "take_profit": true, ...}
//	}
//
// HTTP коды:
// - 200 OK: возвращает обновленный объект настроек
// - 400 Bad Request: невалидная сумма или процент
// - 500 Internal Server Error: ошибка сервера
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	settings, err := h.settingsService.UpdateSettings(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrderAmount) || errors.Is(err, service.ErrInvalidPercent) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update settings: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// ResetSettings сбрасывает настройки к значениям по умолчанию
//
// POST /api/v1/settings/reset
func (h *SettingsHandler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.settingsService.ResetToDefaults(); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to reset settings: "+err.Error())
		return
	}

	settings, err := h.settingsService.GetSettings()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get settings: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}
