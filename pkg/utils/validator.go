package utils

import (
	"errors"
	"fmt"
)

// validator.go - валидация входных данных API
//
// Назначение:
// Проверка корректности пользовательского ввода до обращения к бизнес-логике.
// Возвращает error с описанием проблемы или nil.

// Ошибки валидации
var (
	ErrEmptySymbol   = errors.New("symbol cannot be empty")
	ErrInvalidSymbol = errors.New("symbol must be 5-20 uppercase letters or digits")
	ErrInvalidSide   = errors.New("side must be LONG or SHORT")
)

// ValidateSymbol проверяет формат символа торговой пары (BTCUSDT)
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return ErrEmptySymbol
	}
	if len(symbol) < 5 || len(symbol) > 20 {
		return ErrInvalidSymbol
	}
	for _, c := range symbol {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return ErrInvalidSymbol
		}
	}
	return nil
}

// ValidateSide проверяет сторону позиции
func ValidateSide(side string) error {
	if side != "LONG" && side != "SHORT" {
		return ErrInvalidSide
	}
	return nil
}

// ValidatePositiveAmount проверяет, что значение - конечное число > 0
func ValidatePositiveAmount(name string, value float64) error {
	if !IsFinite(value) || value <= 0 {
		return fmt.Errorf("%s must be a positive finite number, got %v", name, value)
	}
	return nil
}

// ValidateOptionalPrice проверяет опциональную цену (nil допустим)
func ValidateOptionalPrice(name string, value *float64) error {
	if value == nil {
		return nil
	}
	return ValidatePositiveAmount(name, *value)
}
