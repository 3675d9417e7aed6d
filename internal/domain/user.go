package domain

// User — идентичность пользователя системы. Пароль никогда не покидает
// границу хранилища в открытом виде.
type User struct {
	ID       string
	Username string
}

// UserCredentials хранит производные пароля для сверки при логине.
type UserCredentials struct {
	// Digest — pbkdf2-hmac-sha256 от пароля.
	Digest []byte
	// Salt — случайная соль, сгенерированная при создании пользователя.
	Salt []byte
}
