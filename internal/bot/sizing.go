package bot

import (
	"fmt"

	"papertrade/internal/models"
	"papertrade/pkg/utils"
)

// sizing.go - расчет биржевого объема ордера из суммы в USD
//
// Чистая функция без состояния и I/O, реентерабельна.
// Вызывается из пути открытия позиции (дашборд или сигнал);
// риск-монитор затем отслеживает посчитанный объем.

// SizingReason - дискриминант причины отказа в расчете объема
//
// Закрытое множество: вызывающий код ветвится по Reason,
// а не по тексту сообщения.
type SizingReason string

const (
	// SizingReasonPrice - некорректная сумма или цена на входе
	SizingReasonPrice SizingReason = "PRICE"
	// SizingReasonStep - объем схлопнулся в ноль после округления до шага,
	// либо задан неположительный шаг
	SizingReasonStep SizingReason = "STEP"
	// SizingReasonMinQty - объем меньше минимального лота биржи
	SizingReasonMinQty SizingReason = "MIN_QTY"
	// SizingReasonMinNotional - стоимость ордера меньше минимальной
	SizingReasonMinNotional SizingReason = "MIN_NOTIONAL"
)

// SizingError - типизированная ошибка расчета объема
type SizingError struct {
	Reason  SizingReason
	Message string
}

func (e *SizingError) Error() string {
	return e.Message
}

func newSizingError(reason SizingReason, format string, args ...interface{}) *SizingError {
	SizingRejectionsTotal.WithLabelValues(string(reason)).Inc()
	return &SizingError{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// SizeResult - результат успешного расчета объема
type SizeResult struct {
	Quantity float64 `json:"quantity"` // объем в монетах базового актива
	Notional float64 `json:"notional"` // стоимость ордера: quantity × price
}

// Допуск для сравнений с плавающей точкой при проверке min_qty/min_notional
const sizingEpsilon = 1e-9

// CalculateQuantity конвертирует сумму в USD и цену в валидный для биржи
// объем базового актива.
//
// Алгоритм:
//  1. Сырой объем = amountUSD / price
//  2. Округление ВНИЗ до кратного step_size (никогда вверх - иначе
//     заявленная стоимость превысит авторизованную пользователем сумму);
//     точность результата выводится из дробных знаков шага
//  3. Проверка min_qty и min_notional с допуском sizingEpsilon
//
// Каждый фильтр опционален и применяется независимо.
// Ошибки детерминированы и не ретраятся: вызывающий должен
// исправить вход.
func CalculateQuantity(amountUSD, price float64, filters models.SymbolFilters) (SizeResult, error) {
	if !utils.IsFinite(amountUSD) || amountUSD <= 0 {
		return SizeResult{}, newSizingError(SizingReasonPrice,
			"amount must be a positive finite number, got %v", amountUSD)
	}
	if !utils.IsFinite(price) || price <= 0 {
		return SizeResult{}, newSizingError(SizingReasonPrice,
			"price must be a positive finite number, got %v", price)
	}

	qty := amountUSD / price

	if filters.StepSize != nil {
		step := *filters.StepSize
		if step <= 0 || !utils.IsFinite(step) {
			return SizeResult{}, newSizingError(SizingReasonStep,
				"step size must be positive, got %v", step)
		}
		qty = utils.RoundDownToStep(qty, step)
		if qty <= 0 {
			return SizeResult{}, newSizingError(SizingReasonStep,
				"calculated quantity is zero after applying step size %v", step)
		}
	}

	if filters.MinQty != nil && *filters.MinQty > 0 {
		if qty < *filters.MinQty-sizingEpsilon {
			return SizeResult{}, newSizingError(SizingReasonMinQty,
				"quantity %v is below exchange minimum %v", qty, *filters.MinQty)
		}
	}

	notional := qty * price

	if filters.MinNotional != nil && *filters.MinNotional > 0 {
		if notional < *filters.MinNotional-sizingEpsilon {
			return SizeResult{}, newSizingError(SizingReasonMinNotional,
				"order value %.2f is below exchange minimum %v", notional, *filters.MinNotional)
		}
	}

	return SizeResult{Quantity: qty, Notional: notional}, nil
}
