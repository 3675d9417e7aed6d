package domain

import "time"

// Session — bearer-токен, привязывающий запрос к пользователю.
// Жизненный цикл: выдан → действителен (до expiry или logout) → отсутствует.
// Истечение проверяется сравнением timestamp при валидации; активной
// чистки истёкших строк нет.
type Session struct {
	// Value — непрозрачное уникальное значение токена.
	Value string
	// UserID — владелец токена.
	UserID string
	// Expires — момент, начиная с которого токен считается отсутствующим.
	Expires time.Time
}

// ExpiredAt сообщает, истёк ли токен на момент now.
func (s Session) ExpiredAt(now time.Time) bool {
	return !s.Expires.After(now)
}
