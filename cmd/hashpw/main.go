package main

import (
	"fmt"
	"os"

	"papertrade/pkg/crypto"
)

// Утилита генерации bcrypt-хеша пароля дашборда.
//
// Использование:
//
//	go run ./cmd/hashpw 'my-password'
//
// Вывод подставляется в переменную окружения DASHBOARD_PASSWORD_HASH.
// Пустое значение переменной отключает аутентификацию (локальный запуск).
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpw <password>")
		os.Exit(2)
	}

	hash, err := crypto.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashpw: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
