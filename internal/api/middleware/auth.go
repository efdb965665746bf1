package middleware

import (
	"crypto/subtle"
	"net/http"

	"papertrade/pkg/crypto"

	"github.com/gorilla/mux"
)

// BasicAuth - middleware для защиты дашборда HTTP Basic аутентификацией
//
// Назначение:
// Дашборд разворачивается локально или на личном VPS одним пользователем,
// поэтому полноценная система пользователей не нужна. Вместо этого API
// защищается одной парой логин/пароль.
//
// Конфигурация:
// - username: имя пользователя дашборда
// - passwordHash: bcrypt-хеш пароля (генерируется утилитой cmd/hashpw)
// - Если passwordHash пуст, аутентификация отключена (локальный запуск)
//
// Безопасность:
// - Имя пользователя сравнивается в constant-time
// - Пароль проверяется через bcrypt (constant-time внутри)
// - В открытом виде пароль нигде не хранится
func BasicAuth(username, passwordHash string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Хеш не настроен - локальное развертывание без аутентификации
			if passwordHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				unauthorized(w)
				return
			}

			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passMatch := crypto.CheckPasswordMatch(pass, passwordHash)

			if !userMatch || !passMatch {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Dashboard"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
