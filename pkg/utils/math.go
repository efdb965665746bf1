package utils

import (
	"math"
	"strconv"
	"strings"
)

// math.go - математические утилиты для расчета объемов ордеров
//
// Назначение:
// Чистые функции (без побочных эффектов) для приведения объемов
// к биржевым ограничениям.
//
// Функции:
// - RoundDownToStep: округление объема вниз до шага биржи
// - StepDecimals: количество знаков после запятой у шага
// - RoundToPrecision: округление до фиксированной точности

// RoundDownToStep округляет значение ВНИЗ до ближайшего кратного step.
//
// Используется для округления объёма ордера до минимального шага биржи.
// Округление всегда вниз: заявленный объём никогда не превышает того,
// что авторизовал пользователь.
//
// Точность результата выводится из числа дробных знаков step, чтобы
// убрать остаточную погрешность плавающей точки
// (step 0.001 ⇒ 3 знака после запятой).
//
// Параметры:
//   - value: исходное значение (объём в монетах актива)
//   - step: минимальный шаг изменения объёма на бирже
//
// Возвращает:
//   - Округлённое вниз значение, кратное step
//   - Если step <= 0, возвращает исходное значение
//
// Примеры:
//   - RoundDownToStep(0.123456, 0.001) = 0.123
//   - RoundDownToStep(30.0039, 0.01) = 30.00
//   - RoundDownToStep(100.5, 1.0) = 100.0
// Относительный допуск на погрешность деления value/step:
// 0.123/0.001 дает 122.9999... и без допуска floor съедает целый шаг
const stepRatioEpsilon = 1e-12

func RoundDownToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	ratio := value / step
	rounded := math.Floor(ratio+math.Abs(ratio)*stepRatioEpsilon) * step
	// floor(v/step)*step оставляет остаток вида 30.000000000000004 -
	// срезаем его до точности шага
	return RoundToPrecision(rounded, StepDecimals(step))
}

// StepDecimals возвращает количество дробных знаков у шага.
//
// Примеры:
//   - StepDecimals(0.001) = 3
//   - StepDecimals(1.0) = 0
//   - StepDecimals(0.00000001) = 8
func StepDecimals(step float64) int {
	s := strconv.FormatFloat(step, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// RoundToPrecision округляет значение до decimals знаков после запятой.
//
// Стандартное математическое округление (к ближайшему).
func RoundToPrecision(value float64, decimals int) float64 {
	if decimals < 0 {
		return value
	}
	pow := math.Pow10(decimals)
	return math.Round(value*pow) / pow
}

// IsFinite сообщает, является ли значение конечным числом (не NaN, не Inf)
func IsFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
