package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Пакет хранит работу с паролем дашборда. Пароль один (single-user
// развертывание), в конфигурации хранится только bcrypt-хеш
// (DASHBOARD_PASSWORD_HASH), сам пароль нигде не сохраняется.

// Ошибки хеширования
var (
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordMismatch = errors.New("password does not match hash")
	ErrInvalidHash      = errors.New("invalid password hash format")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
)

// DefaultCost - стоимость хеширования
//
// Хеш генерируется один раз утилитой hashpw, а проверяется на каждый
// API запрос, поэтому cost выбран умеренным: заметная цена подбора,
// терпимая задержка логина
const DefaultCost = 12

// MaxPasswordLength - максимальная длина пароля для bcrypt (72 байта)
const MaxPasswordLength = 72

// HashPassword хеширует пароль дашборда
// Автоматически генерирует криптографически стойкий salt
//
// Используется утилитой cmd/hashpw для генерации значения
// DASHBOARD_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	// bcrypt ограничен 72 байтами
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword проверяет соответствие пароля хешу
// Использует constant-time comparison для защиты от timing attacks
func VerifyPassword(password, hash string) error {
	if password == "" {
		return ErrEmptyPassword
	}

	if hash == "" {
		return ErrInvalidHash
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		// Невалидный формат хеша или другая ошибка
		return ErrInvalidHash
	}

	return nil
}

// CheckPasswordMatch проверяет соответствие пароля хешу и возвращает bool
// Форма для условий в auth middleware: любая причина отказа = false
func CheckPasswordMatch(password, hash string) bool {
	return VerifyPassword(password, hash) == nil
}
