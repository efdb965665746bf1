package service

import (
	"errors"

	"papertrade/internal/models"
	"papertrade/pkg/utils"
)

// Ошибки сервиса настроек
var (
	ErrInvalidOrderAmount = errors.New("order_amount_usd must be a positive number")
	ErrInvalidPercent     = errors.New("default TP/SL percent must be between 0 and 100 exclusive")
)

// SettingsService предоставляет бизнес-логику для управления глобальными настройками.
//
// Отвечает за:
// - Получение и обновление глобальных настроек бумажной торговли
// - Валидацию параметров настроек
// - Управление order_amount_usd, default_tp_percent, default_sl_percent,
//   notification_prefs
type SettingsService struct {
	settingsRepo SettingsRepositoryInterface
}

// NewSettingsService создает новый экземпляр SettingsService.
func NewSettingsService(settingsRepo SettingsRepositoryInterface) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
	}
}

// GetSettings возвращает текущие глобальные настройки.
//
// Если записи в БД нет, создается запись с дефолтными значениями.
func (s *SettingsService) GetSettings() (*models.Settings, error) {
	return s.settingsRepo.Get()
}

// UpdateSettingsRequest представляет запрос на обновление настроек.
// Все поля опциональны - обновляются только переданные.
type UpdateSettingsRequest struct {
	OrderAmountUSD    *float64                        `json:"order_amount_usd,omitempty"`
	DefaultTPPercent  *float64                        `json:"default_tp_percent,omitempty"`
	DefaultSLPercent  *float64                        `json:"default_sl_percent,omitempty"`
	NotificationPrefs *models.NotificationPreferences `json:"notification_prefs,omitempty"`
	// Флаги для явного сброса дефолтных целей в null (цель не ставится)
	ClearDefaultTP bool `json:"clear_default_tp,omitempty"`
	ClearDefaultSL bool `json:"clear_default_sl,omitempty"`
}

// UpdateSettings обновляет глобальные настройки.
//
// Принимает только те поля, которые нужно обновить.
// Валидирует параметры перед сохранением.
//
// Правила валидации:
// - order_amount_usd: положительное конечное число
// - default_tp_percent / default_sl_percent: в интервале (0, 100) или null
// - notification_prefs: все поля bool, валидация не требуется
func (s *SettingsService) UpdateSettings(req *UpdateSettingsRequest) (*models.Settings, error) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		return nil, err
	}

	if req.OrderAmountUSD != nil {
		if *req.OrderAmountUSD <= 0 || !utils.IsFinite(*req.OrderAmountUSD) {
			return nil, ErrInvalidOrderAmount
		}
		settings.OrderAmountUSD = *req.OrderAmountUSD
	}

	if req.ClearDefaultTP {
		settings.DefaultTPPercent = nil
	} else if req.DefaultTPPercent != nil {
		if err := validatePercent(*req.DefaultTPPercent); err != nil {
			return nil, err
		}
		settings.DefaultTPPercent = req.DefaultTPPercent
	}

	if req.ClearDefaultSL {
		settings.DefaultSLPercent = nil
	} else if req.DefaultSLPercent != nil {
		if err := validatePercent(*req.DefaultSLPercent); err != nil {
			return nil, err
		}
		settings.DefaultSLPercent = req.DefaultSLPercent
	}

	if req.NotificationPrefs != nil {
		settings.NotificationPrefs = *req.NotificationPrefs
	}

	if err := s.settingsRepo.Update(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// UpdateNotificationPrefs обновляет только настройки уведомлений.
func (s *SettingsService) UpdateNotificationPrefs(prefs models.NotificationPreferences) error {
	return s.settingsRepo.UpdateNotificationPrefs(prefs)
}

// UpdateOrderAmount обновляет размер ордера по умолчанию.
func (s *SettingsService) UpdateOrderAmount(amountUSD float64) error {
	if amountUSD <= 0 || !utils.IsFinite(amountUSD) {
		return ErrInvalidOrderAmount
	}
	return s.settingsRepo.UpdateOrderAmount(amountUSD)
}

// GetNotificationPrefs возвращает только настройки уведомлений.
func (s *SettingsService) GetNotificationPrefs() (*models.NotificationPreferences, error) {
	return s.settingsRepo.GetNotificationPrefs()
}

// ResetToDefaults сбрасывает все настройки к значениям по умолчанию.
//
// Дефолтные значения:
// - order_amount_usd: 100
// - default_tp_percent / default_sl_percent: null (цели не ставятся)
// - notification_prefs: все типы включены (true)
func (s *SettingsService) ResetToDefaults() error {
	return s.settingsRepo.ResetToDefaults()
}

// validatePercent проверяет процент цели: строго между 0 и 100.
//
// 100% SL означал бы цену 0, что невозможно; TP строгих верхних границ
// не имеет, но одинаковое правило проще объяснить пользователю.
func validatePercent(percent float64) error {
	if percent <= 0 || percent >= 100 || !utils.IsFinite(percent) {
		return ErrInvalidPercent
	}
	return nil
}
