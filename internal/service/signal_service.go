package service

import (
	"errors"
	"fmt"
	"time"

	"papertrade/internal/models"
	"papertrade/pkg/utils"
)

// Ошибки сервиса сигналов
var (
	ErrInvalidSignalPrice = errors.New("signal price must be a positive finite number")
	ErrEmptySource        = errors.New("signal source is required")
)

// SignalService предоставляет бизнес-логику ленты сигналов.
//
// Сигналы приходят извне (вебхук стратегии) и отображаются в дашборде.
// Ядро само сигналы не генерирует и позиции по ним автоматически
// не открывает - конвертация в позицию остается за пользователем.
type SignalService struct {
	signalRepo SignalRepositoryInterface
	notifier   *NotificationService
}

// NewSignalService создает новый экземпляр SignalService.
func NewSignalService(signalRepo SignalRepositoryInterface, notifier *NotificationService) *SignalService {
	return &SignalService{
		signalRepo: signalRepo,
		notifier:   notifier,
	}
}

// RecordSignalRequest представляет входящий сигнал стратегии.
type RecordSignalRequest struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Price  float64 `json:"price"`
	Source string  `json:"source"`
	Note   string  `json:"note,omitempty"`
}

// RecordSignal валидирует и сохраняет поступивший сигнал.
func (s *SignalService) RecordSignal(req *RecordSignalRequest) (*models.Signal, error) {
	if err := utils.ValidateSymbol(req.Symbol); err != nil {
		return nil, err
	}
	if err := utils.ValidateSide(req.Side); err != nil {
		return nil, err
	}
	if req.Price <= 0 || !utils.IsFinite(req.Price) {
		return nil, ErrInvalidSignalPrice
	}
	if req.Source == "" {
		return nil, ErrEmptySource
	}

	signal := &models.Signal{
		Symbol: req.Symbol,
		Side:   req.Side,
		Price:  req.Price,
		Source: req.Source,
		Note:   req.Note,
	}

	if err := s.signalRepo.Create(signal); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.CreateSignalNotification(
			fmt.Sprintf("%s: %s %s at %.8g", signal.Source, signal.Side, signal.Symbol, signal.Price),
			map[string]interface{}{"signal_id": signal.ID, "symbol": signal.Symbol},
		)
	}

	return signal, nil
}

// GetSignal возвращает сигнал по ID.
func (s *SignalService) GetSignal(id int) (*models.Signal, error) {
	return s.signalRepo.GetByID(id)
}

// GetRecentSignals возвращает последние сигналы для ленты дашборда.
func (s *SignalService) GetRecentSignals(limit int) ([]*models.Signal, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.signalRepo.GetRecent(limit)
}

// GetSignalsBySymbol возвращает последние сигналы по символу.
func (s *SignalService) GetSignalsBySymbol(symbol string, limit int) ([]*models.Signal, error) {
	if err := utils.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.signalRepo.GetBySymbol(symbol, limit)
}

// CleanupOld удаляет сигналы старше указанного возраста.
func (s *SignalService) CleanupOld(maxAge time.Duration) (int64, error) {
	return s.signalRepo.DeleteOlderThan(time.Now().Add(-maxAge))
}
