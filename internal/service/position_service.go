package service

import (
	"context"
	"errors"
	"fmt"

	"papertrade/internal/bot"
	"papertrade/internal/models"
	"papertrade/internal/repository"
	"papertrade/pkg/utils"
)

// Ошибки сервиса позиций
var (
	ErrPriceUnavailable = errors.New("no known price for symbol")
	ErrInvalidTargets   = errors.New("tp/sl targets must be positive finite numbers")
)

// PositionService предоставляет бизнес-логику бумажных позиций.
//
// Отвечает за:
// - Открытие позиций с расчетом объема через биржевые фильтры
// - Ручное закрытие из дашборда
// - Обработку срабатываний TP/SL от риск-монитора
// - Редактирование целей открытой позиции
//
// Сервис не знает, откуда приходят цены и фильтры: PriceSource и
// FilterSource подставляются при сборке приложения.
type PositionService struct {
	positionRepo PositionRepositoryInterface
	settingsRepo SettingsRepositoryInterface
	notifier     *NotificationService
	prices       PriceSource
	filters      FilterSource
	wsHub        WebSocketBroadcaster

	log *utils.Logger
}

// NewPositionService создает новый экземпляр PositionService.
func NewPositionService(
	positionRepo PositionRepositoryInterface,
	settingsRepo SettingsRepositoryInterface,
	notifier *NotificationService,
	prices PriceSource,
	filters FilterSource,
) *PositionService {
	return &PositionService{
		positionRepo: positionRepo,
		settingsRepo: settingsRepo,
		notifier:     notifier,
		prices:       prices,
		filters:      filters,
		log:          utils.L().WithComponent("position_service"),
	}
}

// SetWebSocketHub устанавливает WebSocket hub для broadcast обновлений позиций.
func (s *PositionService) SetWebSocketHub(hub WebSocketBroadcaster) {
	s.wsHub = hub
}

// OpenPositionRequest представляет запрос на открытие бумажной позиции.
type OpenPositionRequest struct {
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	// AmountUSD - сумма позиции; nil = размер ордера из настроек
	AmountUSD *float64 `json:"amount_usd,omitempty"`
	// Явные цели; nil = вывести из default_tp_percent/default_sl_percent
	TPPrice *float64 `json:"tp_price,omitempty"`
	SLPrice *float64 `json:"sl_price,omitempty"`
}

// OpenPosition открывает бумажную позицию по последней известной цене.
//
// Объем рассчитывается из суммы в USD через биржевые фильтры символа
// (step_size, min_qty, min_notional). Ошибка расчета детерминирована -
// вызывающий должен изменить сумму или символ.
//
// Если явные TP/SL не переданы, цели выводятся из процентов в настройках
// (отсутствующий процент означает "цель не ставить").
func (s *PositionService) OpenPosition(ctx context.Context, req *OpenPositionRequest) (*models.Position, error) {
	if err := utils.ValidateSymbol(req.Symbol); err != nil {
		return nil, err
	}
	if err := utils.ValidateSide(req.Side); err != nil {
		return nil, err
	}

	entryPrice, ok := s.prices.Last(req.Symbol)
	if !ok || !utils.IsFinite(entryPrice) || entryPrice <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrPriceUnavailable, req.Symbol)
	}

	settings, err := s.settingsRepo.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	amountUSD := settings.OrderAmountUSD
	if req.AmountUSD != nil {
		amountUSD = *req.AmountUSD
	}

	filters, err := s.filters.GetSymbolFilters(ctx, req.Symbol)
	if err != nil {
		// Бумажная торговля не должна вставать из-за REST биржи:
		// открываем без фильтров, объем не округляется
		s.log.Warn("symbol filters unavailable, opening without them",
			utils.Symbol(req.Symbol), utils.Err(err))
		filters = models.SymbolFilters{}
	}

	result, err := bot.CalculateQuantity(amountUSD, entryPrice, filters)
	if err != nil {
		return nil, err
	}

	tpPrice, slPrice, err := resolveTargets(req, settings, entryPrice)
	if err != nil {
		return nil, err
	}

	position := &models.Position{
		Symbol:     req.Symbol,
		Side:       req.Side,
		Qty:        result.Quantity,
		SizeUSD:    result.Notional,
		EntryPrice: entryPrice,
		TPPrice:    tpPrice,
		SLPrice:    slPrice,
	}

	if err := s.positionRepo.Create(position); err != nil {
		return nil, fmt.Errorf("create position: %w", err)
	}

	s.log.Info("position opened",
		utils.PositionID(position.ID),
		utils.Symbol(position.Symbol),
		utils.Side(position.Side),
		utils.Qty(position.Qty),
		utils.Price(entryPrice),
		utils.Notional(position.SizeUSD),
	)

	if s.notifier != nil {
		_ = s.notifier.CreateOpenNotification(position.ID,
			fmt.Sprintf("%s %s opened at %.8g", position.Side, position.Symbol, entryPrice),
			map[string]interface{}{"qty": position.Qty, "size_usd": position.SizeUSD},
		)
	}
	s.broadcast(position)

	return position, nil
}

// GetPosition возвращает позицию по ID.
func (s *PositionService) GetPosition(id int) (*models.Position, error) {
	return s.positionRepo.GetByID(id)
}

// GetOpenPositions возвращает открытые позиции в порядке открытия.
func (s *PositionService) GetOpenPositions() ([]models.Position, error) {
	return s.positionRepo.GetOpen()
}

// GetClosedPositions возвращает последние закрытые позиции.
func (s *PositionService) GetClosedPositions(limit int) ([]models.Position, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.positionRepo.GetClosed(limit)
}

// ClosePosition закрывает позицию вручную по последней известной цене.
//
// Если цена символа неизвестна (поток не работает), позиция закрывается
// по цене входа с нулевым PNL - ручное закрытие не должно блокироваться
// отсутствием фида.
func (s *PositionService) ClosePosition(ctx context.Context, id int) (*models.Position, error) {
	position, err := s.positionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	exitPrice, ok := s.prices.Last(position.Symbol)
	if !ok || !utils.IsFinite(exitPrice) || exitPrice <= 0 {
		exitPrice = position.EntryPrice
	}

	pnl := position.UnrealizedPnl(exitPrice)

	if err := s.positionRepo.Close(id, exitPrice, models.ExitReasonManual, pnl); err != nil {
		return nil, err
	}

	s.log.Info("position closed manually",
		utils.PositionID(id),
		utils.Symbol(position.Symbol),
		utils.Price(exitPrice),
		utils.PNL(pnl),
	)

	if s.notifier != nil {
		_ = s.notifier.CreateManualCloseNotification(id,
			fmt.Sprintf("%s %s closed at %.8g, pnl %.2f", position.Side, position.Symbol, exitPrice, pnl),
			map[string]interface{}{"exit_price": exitPrice, "pnl": pnl},
		)
	}

	closed, err := s.positionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	s.broadcast(closed)

	return closed, nil
}

// HandleTrigger закрывает позицию по сработавшей TP/SL цели.
//
// Вызывается риск-монитором; ошибка возврата означает "позиция осталась
// открытой, монитор повторит на следующем тике". Повторное закрытие уже
// закрытой позиции не считается ошибкой - кто-то успел раньше.
func (s *PositionService) HandleTrigger(ctx context.Context, pos models.Position, kind models.TriggerKind, price float64) error {
	pnl := pos.UnrealizedPnl(price)

	err := s.positionRepo.Close(pos.ID, price, string(kind), pnl)
	if err != nil {
		if errors.Is(err, repository.ErrPositionClosed) {
			return nil
		}
		return err
	}

	s.log.Info("position closed by trigger",
		utils.PositionID(pos.ID),
		utils.Symbol(pos.Symbol),
		utils.Trigger(string(kind)),
		utils.Price(price),
		utils.PNL(pnl),
	)

	if s.notifier != nil {
		message := fmt.Sprintf("%s hit for %s %s at %.8g, pnl %.2f", kind, pos.Side, pos.Symbol, price, pnl)
		meta := map[string]interface{}{"exit_price": price, "pnl": pnl}
		if kind == models.TriggerTP {
			_ = s.notifier.CreateTPNotification(pos.ID, message, meta)
		} else {
			_ = s.notifier.CreateSLNotification(pos.ID, message, meta)
		}
	}

	if closed, err := s.positionRepo.GetByID(pos.ID); err == nil {
		s.broadcast(closed)
	}

	return nil
}

// UpdateTargetsRequest представляет запрос на изменение целей позиции.
type UpdateTargetsRequest struct {
	TPPrice *float64 `json:"tp_price"`
	SLPrice *float64 `json:"sl_price"`
}

// UpdateTargets обновляет TP/SL цели открытой позиции.
// nil в запросе убирает соответствующую цель.
func (s *PositionService) UpdateTargets(id int, req *UpdateTargetsRequest) (*models.Position, error) {
	if err := validateTarget(req.TPPrice); err != nil {
		return nil, err
	}
	if err := validateTarget(req.SLPrice); err != nil {
		return nil, err
	}

	if err := s.positionRepo.UpdateTargets(id, req.TPPrice, req.SLPrice); err != nil {
		return nil, err
	}

	position, err := s.positionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	s.broadcast(position)

	return position, nil
}

// GetSummary возвращает агрегированную сводку по позициям.
func (s *PositionService) GetSummary() (*models.PositionSummary, error) {
	return s.positionRepo.GetSummary()
}

func (s *PositionService) broadcast(position *models.Position) {
	if s.wsHub != nil {
		s.wsHub.BroadcastPositionUpdate(position)
	}
}

// resolveTargets возвращает итоговые TP/SL цены позиции.
//
// Явные цены из запроса имеют приоритет; иначе цель выводится из
// соответствующего процента в настройках относительно цены входа
// (для SHORT проценты зеркалятся).
func resolveTargets(req *OpenPositionRequest, settings *models.Settings, entryPrice float64) (tp, sl *float64, err error) {
	if err := validateTarget(req.TPPrice); err != nil {
		return nil, nil, err
	}
	if err := validateTarget(req.SLPrice); err != nil {
		return nil, nil, err
	}

	tp = req.TPPrice
	sl = req.SLPrice

	short := req.Side == models.SideShort

	if tp == nil && settings.DefaultTPPercent != nil {
		pct := *settings.DefaultTPPercent / 100
		price := entryPrice * (1 + pct)
		if short {
			price = entryPrice * (1 - pct)
		}
		tp = &price
	}
	if sl == nil && settings.DefaultSLPercent != nil {
		pct := *settings.DefaultSLPercent / 100
		price := entryPrice * (1 - pct)
		if short {
			price = entryPrice * (1 + pct)
		}
		sl = &price
	}

	return tp, sl, nil
}

func validateTarget(price *float64) error {
	if price == nil {
		return nil
	}
	if *price <= 0 || !utils.IsFinite(*price) {
		return ErrInvalidTargets
	}
	return nil
}
